package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
	"docveil/stores"
)

// AccessService decides whether a caller may perform an action on a resource.
// Precedence: implicit role access, then explicit ACL on the resource itself
// (which shadows inheritance entirely), then the ancestor walk. Evaluation is
// stateless and read-only; every call stands alone.
type AccessService struct {
	resources stores.ResourceStore
	acl       stores.ACLStore
	cache     *DecisionCache
}

func NewAccessService(resources stores.ResourceStore, acl stores.ACLStore, cache *DecisionCache) *AccessService {
	return &AccessService{resources: resources, acl: acl, cache: cache}
}

// resourceNode is the slice of a resource the evaluator needs: who owns it
// and where the ancestor walk starts.
type resourceNode struct {
	departmentID primitive.ObjectID
	parentID     *primitive.ObjectID
}

// resolveNode loads the resource by kind. A missing resource is reported as
// stores.ErrNotFound; the evaluator turns that into a plain deny.
func (s *AccessService) resolveNode(ctx context.Context, kind models.ResourceKind, id primitive.ObjectID) (*resourceNode, error) {
	switch kind {
	case models.KindDocument:
		doc, err := s.resources.GetDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		parent := doc.ParentID
		return &resourceNode{departmentID: doc.DepartmentID, parentID: &parent}, nil
	case models.KindFolder:
		folder, err := s.resources.GetFolder(ctx, id)
		if err != nil {
			return nil, err
		}
		parent := folder.ParentID
		return &resourceNode{departmentID: folder.DepartmentID, parentID: &parent}, nil
	case models.KindDepartment:
		dept, err := s.resources.GetDepartment(ctx, id)
		if err != nil {
			return nil, err
		}
		return &resourceNode{departmentID: dept.ID}, nil
	default:
		return nil, stores.ErrNotFound
	}
}

// hasImplicitAccess applies the role/ownership rules. Implicit access is not
// permission-scoped: when it holds, every action is allowed.
func (s *AccessService) hasImplicitAccess(identity *models.Identity, dept *models.Department) bool {
	if identity.OwnsMyDrive(dept.ID) {
		return true
	}
	if identity.Role == models.RoleSuperAdmin && dept.OwnerType == models.OwnerOrg {
		return true
	}
	if (identity.Role == models.RoleAdmin || identity.Role == models.RoleDepartmentOwner) &&
		identity.AdministersDepartment(dept.ID) {
		return true
	}
	return false
}

// Evaluate reports whether the identity may perform action on the resource.
// A missing resource, department or parent anywhere along the walk is "no
// grant from that branch", never an error that aborts the request.
func (s *AccessService) Evaluate(ctx context.Context, identity *models.Identity, kind models.ResourceKind, resourceID primitive.ObjectID, action models.PermissionType) (bool, error) {
	node, err := s.resolveNode(ctx, kind, resourceID)
	if errors.Is(err, stores.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	dept, err := s.resources.GetDepartment(ctx, node.departmentID)
	if errors.Is(err, stores.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	if s.hasImplicitAccess(identity, dept) {
		return true, nil
	}

	if allowed, ok := s.cache.Get(ctx, kind, resourceID, identity, action); ok {
		return allowed, nil
	}

	allowed, err := s.evaluateACL(ctx, identity, kind, resourceID, node, action)
	if err != nil {
		return false, err
	}
	s.cache.Set(ctx, kind, resourceID, identity, action, allowed)
	return allowed, nil
}

func (s *AccessService) evaluateACL(ctx context.Context, identity *models.Identity, kind models.ResourceKind, resourceID primitive.ObjectID, node *resourceNode, action models.PermissionType) (bool, error) {
	// An explicit ACL on the resource, for any subject, decides the request
	// by itself: once a resource is explicitly shared, ancestor sharing no
	// longer applies to it.
	hasOwn, err := s.acl.HasAny(ctx, kind, resourceID)
	if err != nil {
		return false, err
	}
	if hasOwn {
		perms, err := s.acl.EffectivePermissions(ctx, kind, resourceID, identity.UserID, identity.GroupIDs)
		if err != nil {
			return false, err
		}
		return containsPermission(perms, action), nil
	}

	// Inheritance: walk upward checking each ancestor's direct ACL, stopping
	// at the department boundary.
	cursor := node.parentID
	for cursor != nil {
		ancestor, err := s.resources.FindContainer(ctx, *cursor)
		if errors.Is(err, stores.ErrNotFound) {
			return false, nil
		} else if err != nil {
			return false, err
		}

		hasACL, err := s.acl.HasAny(ctx, ancestor.Kind, ancestor.ID)
		if err != nil {
			return false, err
		}
		if hasACL {
			perms, err := s.acl.EffectivePermissions(ctx, ancestor.Kind, ancestor.ID, identity.UserID, identity.GroupIDs)
			if err != nil {
				return false, err
			}
			if containsPermission(perms, action) {
				return true, nil
			}
		}

		if ancestor.Kind == models.KindDepartment {
			break
		}
		cursor = ancestor.ParentID
	}

	return false, nil
}

// GetUserPermissions returns the full effective permission set with the same
// precedence as Evaluate: implicit access yields everything, an explicit ACL
// on the resource yields exactly its direct grants, otherwise the ancestor
// walk contributes whatever any ancestor grants.
func (s *AccessService) GetUserPermissions(ctx context.Context, identity *models.Identity, kind models.ResourceKind, resourceID primitive.ObjectID) ([]models.PermissionType, error) {
	node, err := s.resolveNode(ctx, kind, resourceID)
	if errors.Is(err, stores.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	dept, err := s.resources.GetDepartment(ctx, node.departmentID)
	if errors.Is(err, stores.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	if s.hasImplicitAccess(identity, dept) {
		return append([]models.PermissionType(nil), models.AllPermissions...), nil
	}

	hasOwn, err := s.acl.HasAny(ctx, kind, resourceID)
	if err != nil {
		return nil, err
	}
	if hasOwn {
		perms, err := s.acl.EffectivePermissions(ctx, kind, resourceID, identity.UserID, identity.GroupIDs)
		if err != nil {
			return nil, err
		}
		return sortPermissions(perms), nil
	}

	granted := make(map[models.PermissionType]bool)
	cursor := node.parentID
	for cursor != nil {
		ancestor, err := s.resources.FindContainer(ctx, *cursor)
		if errors.Is(err, stores.ErrNotFound) {
			break
		} else if err != nil {
			return nil, err
		}

		perms, err := s.acl.EffectivePermissions(ctx, ancestor.Kind, ancestor.ID, identity.UserID, identity.GroupIDs)
		if err != nil {
			return nil, err
		}
		for _, p := range perms {
			granted[p] = true
		}

		if ancestor.Kind == models.KindDepartment {
			break
		}
		cursor = ancestor.ParentID
	}

	var result []models.PermissionType
	for _, p := range models.AllPermissions {
		if granted[p] {
			result = append(result, p)
		}
	}
	return result, nil
}

func containsPermission(perms []models.PermissionType, action models.PermissionType) bool {
	for _, p := range perms {
		if p == action {
			return true
		}
	}
	return false
}

// sortPermissions orders a permission set by the canonical AllPermissions
// order for stable API output.
func sortPermissions(perms []models.PermissionType) []models.PermissionType {
	present := make(map[models.PermissionType]bool, len(perms))
	for _, p := range perms {
		present[p] = true
	}
	var sorted []models.PermissionType
	for _, p := range models.AllPermissions {
		if present[p] {
			sorted = append(sorted, p)
		}
	}
	return sorted
}
