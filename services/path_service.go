package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
	"docveil/stores"
)

// PathService owns the materialized path of every resource and keeps the tree
// consistent under move, soft-delete, restore and permanent delete. All
// writers to a subtree go through its cascade routines; nothing else mutates
// paths.
type PathService struct {
	resources stores.ResourceStore
}

func NewPathService(resources stores.ResourceStore) *PathService {
	return &PathService{resources: resources}
}

// BuildPath resolves the parent as a folder or a department and returns the
// child path parent.Path + "/" + name along with the resolved parent.
func (s *PathService) BuildPath(ctx context.Context, parentID primitive.ObjectID, name string) (string, *models.Container, error) {
	parent, err := s.ResolveParent(ctx, parentID)
	if err != nil {
		return "", nil, err
	}
	return parent.Path + "/" + name, parent, nil
}

// ResolveParent dispatches the polymorphic parent lookup. A document id is
// reported as a validation error rather than not-found: documents are leaves.
func (s *PathService) ResolveParent(ctx context.Context, parentID primitive.ObjectID) (*models.Container, error) {
	parent, err := s.resources.FindContainer(ctx, parentID)
	if err == nil {
		return parent, nil
	}
	if !errors.Is(err, stores.ErrNotFound) {
		return nil, err
	}
	isDoc, derr := s.resources.IsDocument(ctx, parentID)
	if derr != nil {
		return nil, derr
	}
	if isDoc {
		return nil, fmt.Errorf("%w: a document cannot contain children", ErrValidation)
	}
	return nil, fmt.Errorf("%w: parent %s", ErrNotFound, parentID.Hex())
}

// Move reparents a folder or document and rewrites every descendant path.
// Departments are roots and cannot be moved.
func (s *PathService) Move(ctx context.Context, kind models.ResourceKind, id, newParentID primitive.ObjectID) error {
	switch kind {
	case models.KindFolder:
		return s.moveFolder(ctx, id, newParentID)
	case models.KindDocument:
		return s.moveDocument(ctx, id, newParentID)
	default:
		return fmt.Errorf("%w: a %s cannot be moved", ErrValidation, kind)
	}
}

func (s *PathService) moveFolder(ctx context.Context, id, newParentID primitive.ObjectID) error {
	// Validation has to read the same state the rewrite commits against.
	// Checked outside the transaction, two concurrent moves of overlapping
	// subtrees could each pass the cycle check against the other's pre-move
	// path and commit a cycle.
	err := s.resources.WithTransaction(ctx, func(ctx context.Context) error {
		folder, err := s.resources.GetFolder(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: folder %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}

		newParent, err := s.ResolveParent(ctx, newParentID)
		if err != nil {
			return err
		}

		// A folder can never become its own descendant.
		if newParent.Path == folder.Path || strings.HasPrefix(newParent.Path, folder.Path+"/") {
			return fmt.Errorf("%w: %q is inside %q", ErrInvalidMove, newParent.Path, folder.Path)
		}

		if newParent.ID != folder.ParentID {
			taken, err := s.resources.SiblingExists(ctx, models.KindFolder, newParent.ID, folder.Name)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: a folder named %q already exists there", ErrValidation, folder.Name)
			}
		}

		oldPath := folder.Path
		var newDeptID *primitive.ObjectID
		if newParent.DepartmentID != folder.DepartmentID {
			deptID := newParent.DepartmentID
			newDeptID = &deptID
		}

		folder.ParentID = newParent.ID
		folder.DepartmentID = newParent.DepartmentID
		folder.Path = newParent.Path + "/" + folder.Name
		folder.UpdatedAt = time.Now()
		if err := s.resources.UpdateFolder(ctx, folder); err != nil {
			return err
		}
		return s.resources.RewritePathPrefix(ctx, oldPath, folder.Path, newDeptID)
	})
	return cascadeError(err)
}

func (s *PathService) moveDocument(ctx context.Context, id, newParentID primitive.ObjectID) error {
	// Same transaction scope as moveFolder: the sibling check and the update
	// must not straddle a concurrent move into the same destination.
	err := s.resources.WithTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.resources.GetDocument(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: document %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}

		newParent, err := s.ResolveParent(ctx, newParentID)
		if err != nil {
			return err
		}

		if newParent.ID != doc.ParentID {
			taken, err := s.resources.SiblingExists(ctx, models.KindDocument, newParent.ID, doc.Name)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: a document named %q already exists there", ErrValidation, doc.Name)
			}
		}

		doc.ParentID = newParent.ID
		doc.DepartmentID = newParent.DepartmentID
		doc.Path = newParent.Path + "/" + doc.Name
		doc.UpdatedAt = time.Now()
		return s.resources.UpdateDocument(ctx, doc)
	})
	return cascadeError(err)
}

// SoftDelete moves a resource and its entire subtree to the trash, stamping
// every descendant with the same deletion time. Already-trashed resources are
// left as they are.
func (s *PathService) SoftDelete(ctx context.Context, kind models.ResourceKind, id primitive.ObjectID) error {
	now := time.Now()

	switch kind {
	case models.KindDocument:
		doc, err := s.resources.GetDocument(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: document %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}
		if doc.IsDeleted {
			return nil
		}
		doc.IsDeleted = true
		doc.DeletedAt = &now
		doc.UpdatedAt = now
		return s.resources.UpdateDocument(ctx, doc)

	case models.KindFolder:
		folder, err := s.resources.GetFolder(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: folder %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}
		if folder.IsDeleted {
			return nil
		}
		err = s.resources.WithTransaction(ctx, func(ctx context.Context) error {
			folder.IsDeleted = true
			folder.DeletedAt = &now
			folder.UpdatedAt = now
			if err := s.resources.UpdateFolder(ctx, folder); err != nil {
				return err
			}
			return s.resources.MarkDeletedByPrefix(ctx, folder.Path, now)
		})
		return cascadeError(err)

	case models.KindDepartment:
		dept, err := s.resources.GetDepartment(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: department %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}
		if dept.IsDeleted {
			return nil
		}
		err = s.resources.WithTransaction(ctx, func(ctx context.Context) error {
			dept.IsDeleted = true
			dept.DeletedAt = &now
			dept.UpdatedAt = now
			if err := s.resources.UpdateDepartment(ctx, dept); err != nil {
				return err
			}
			return s.resources.MarkDeletedByPrefix(ctx, dept.Path, now)
		})
		return cascadeError(err)

	default:
		return fmt.Errorf("%w: unknown resource kind %q", ErrValidation, kind)
	}
}

// Restore brings a trashed resource back, together with every still-deleted
// descendant. The direct parent must exist and be live; a deleted parent must
// be restored first.
func (s *PathService) Restore(ctx context.Context, kind models.ResourceKind, id primitive.ObjectID) error {
	switch kind {
	case models.KindDocument:
		doc, err := s.resources.GetDocument(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: document %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}
		if !doc.IsDeleted {
			return fmt.Errorf("%w: document is not in trash", ErrValidation)
		}
		if err := s.requireLiveParent(ctx, doc.ParentID); err != nil {
			return err
		}
		doc.IsDeleted = false
		doc.DeletedAt = nil
		doc.UpdatedAt = time.Now()
		return s.resources.UpdateDocument(ctx, doc)

	case models.KindFolder:
		folder, err := s.resources.GetFolder(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: folder %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}
		if !folder.IsDeleted {
			return fmt.Errorf("%w: folder is not in trash", ErrValidation)
		}
		if err := s.requireLiveParent(ctx, folder.ParentID); err != nil {
			return err
		}
		err = s.resources.WithTransaction(ctx, func(ctx context.Context) error {
			folder.IsDeleted = false
			folder.DeletedAt = nil
			folder.UpdatedAt = time.Now()
			if err := s.resources.UpdateFolder(ctx, folder); err != nil {
				return err
			}
			return s.resources.ClearDeletedByPrefix(ctx, folder.Path)
		})
		return cascadeError(err)

	case models.KindDepartment:
		dept, err := s.resources.GetDepartment(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: department %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}
		if !dept.IsDeleted {
			return fmt.Errorf("%w: department is not in trash", ErrValidation)
		}
		err = s.resources.WithTransaction(ctx, func(ctx context.Context) error {
			dept.IsDeleted = false
			dept.DeletedAt = nil
			dept.UpdatedAt = time.Now()
			if err := s.resources.UpdateDepartment(ctx, dept); err != nil {
				return err
			}
			return s.resources.ClearDeletedByPrefix(ctx, dept.Path)
		})
		return cascadeError(err)

	default:
		return fmt.Errorf("%w: unknown resource kind %q", ErrValidation, kind)
	}
}

func (s *PathService) requireLiveParent(ctx context.Context, parentID primitive.ObjectID) error {
	parent, err := s.resources.FindContainer(ctx, parentID)
	if errors.Is(err, stores.ErrNotFound) {
		return fmt.Errorf("%w: parent %s", ErrNotFound, parentID.Hex())
	} else if err != nil {
		return err
	}
	if parent.IsDeleted {
		return fmt.Errorf("%w: restore the parent first", ErrParentStillDeleted)
	}
	return nil
}

// PermanentDelete irreversibly removes a resource and, for folders, every
// descendant. The caller must assert the confirmation flag; the engine
// refuses to run without it.
func (s *PathService) PermanentDelete(ctx context.Context, kind models.ResourceKind, id primitive.ObjectID, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("%w: permanent deletion must be confirmed", ErrConfirmationRequired)
	}

	switch kind {
	case models.KindDocument:
		_, err := s.resources.GetDocument(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: document %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}
		return s.resources.DeleteDocument(ctx, id)

	case models.KindFolder:
		folder, err := s.resources.GetFolder(ctx, id)
		if errors.Is(err, stores.ErrNotFound) {
			return fmt.Errorf("%w: folder %s", ErrNotFound, id.Hex())
		} else if err != nil {
			return err
		}
		err = s.resources.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.resources.DeleteFolder(ctx, folder.ID); err != nil {
				return err
			}
			return s.resources.DeleteByPrefix(ctx, folder.Path)
		})
		return cascadeError(err)

	default:
		return fmt.Errorf("%w: a %s cannot be permanently deleted", ErrValidation, kind)
	}
}

// cascadeError keeps engine errors as they are and folds store failures into
// the CascadeFailed kind, since a failed transaction means the bulk rewrite
// did not complete.
func cascadeError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrInvalidMove, ErrParentStillDeleted, ErrValidation, ErrConfirmationRequired, ErrPermissionDenied} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrCascadeFailed, err)
}
