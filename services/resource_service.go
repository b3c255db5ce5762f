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

const maxNameLength = 255

// ResourceService exposes the public operations: every call authorizes
// through the access evaluator first, then lets the path service execute the
// structural change, and finally emits a fire-and-forget activity event.
type ResourceService struct {
	resources stores.ResourceStore
	paths     *PathService
	access    *AccessService
	audit     AuditPublisher
}

func NewResourceService(resources stores.ResourceStore, paths *PathService, access *AccessService, audit AuditPublisher) *ResourceService {
	return &ResourceService{resources: resources, paths: paths, access: access, audit: audit}
}

// validateResourceName rejects empty, oversized and slash-carrying names.
// Paths are slash-joined, so a slash in a name would corrupt every prefix
// query beneath it.
func validateResourceName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(trimmed) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, maxNameLength)
	}
	if strings.Contains(trimmed, "/") {
		return fmt.Errorf("%w: name must not contain '/'", ErrValidation)
	}
	return nil
}

// CreateDepartment creates a tree root. Org departments are reserved to
// super admins; a user department is the caller's personal MyDrive and can
// exist only once per user.
func (s *ResourceService) CreateDepartment(ctx context.Context, identity *models.Identity, name string, ownerType models.OwnerType) (*models.Department, error) {
	if err := validateResourceName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	var ownerID *primitive.ObjectID
	switch ownerType {
	case models.OwnerOrg:
		if identity.Role != models.RoleSuperAdmin {
			return nil, fmt.Errorf("%w: only super admins create org departments", ErrPermissionDenied)
		}
	case models.OwnerUser:
		if identity.MyDriveDepartmentID != nil {
			return nil, fmt.Errorf("%w: user already has a personal department", ErrValidation)
		}
		uid := identity.UserID
		ownerID = &uid
	default:
		return nil, fmt.Errorf("%w: unknown owner type %q", ErrValidation, ownerType)
	}

	taken, err := s.resources.DepartmentNameExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: a department named %q already exists", ErrValidation, name)
	}

	now := time.Now()
	dept := &models.Department{
		Name:      name,
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Path:      "/" + name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.resources.InsertDepartment(ctx, dept); err != nil {
		return nil, err
	}

	s.audit.Publish(ctx, NewActivityEvent(models.ActivityResourceCreated, models.KindDepartment, dept.ID.Hex(), identity.UserID.Hex(), map[string]interface{}{
		"name":       dept.Name,
		"owner_type": dept.OwnerType,
	}))
	return dept, nil
}

// CreateFolder creates a folder under a folder or a department.
func (s *ResourceService) CreateFolder(ctx context.Context, identity *models.Identity, name string, parentID primitive.ObjectID) (*models.Folder, error) {
	if err := validateResourceName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	parent, err := s.authorizeCreate(ctx, identity, parentID)
	if err != nil {
		return nil, err
	}

	taken, err := s.resources.SiblingExists(ctx, models.KindFolder, parent.ID, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: a folder named %q already exists there", ErrValidation, name)
	}

	now := time.Now()
	folder := &models.Folder{
		Name:         name,
		ParentID:     parent.ID,
		DepartmentID: parent.DepartmentID,
		Path:         parent.Path + "/" + name,
		CreatedBy:    identity.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.resources.InsertFolder(ctx, folder); err != nil {
		return nil, err
	}

	s.audit.Publish(ctx, NewActivityEvent(models.ActivityResourceCreated, models.KindFolder, folder.ID.Hex(), identity.UserID.Hex(), map[string]interface{}{
		"name": folder.Name,
		"path": folder.Path,
	}))
	return folder, nil
}

// CreateDocument creates a document leaf under a folder or a department.
func (s *ResourceService) CreateDocument(ctx context.Context, identity *models.Identity, name, extension string, size int64, parentID primitive.ObjectID) (*models.Document, error) {
	if err := validateResourceName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if size < 0 {
		return nil, fmt.Errorf("%w: size must not be negative", ErrValidation)
	}

	parent, err := s.authorizeCreate(ctx, identity, parentID)
	if err != nil {
		return nil, err
	}

	taken, err := s.resources.SiblingExists(ctx, models.KindDocument, parent.ID, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: a document named %q already exists there", ErrValidation, name)
	}

	now := time.Now()
	doc := &models.Document{
		Name:         name,
		ParentID:     parent.ID,
		DepartmentID: parent.DepartmentID,
		Path:         parent.Path + "/" + name,
		Extension:    strings.TrimPrefix(strings.ToLower(extension), "."),
		Size:         size,
		Version:      1,
		CreatedBy:    identity.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.resources.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.audit.Publish(ctx, NewActivityEvent(models.ActivityResourceCreated, models.KindDocument, doc.ID.Hex(), identity.UserID.Hex(), map[string]interface{}{
		"name": doc.Name,
		"path": doc.Path,
	}))
	return doc, nil
}

func (s *ResourceService) authorizeCreate(ctx context.Context, identity *models.Identity, parentID primitive.ObjectID) (*models.Container, error) {
	parent, err := s.paths.ResolveParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.IsDeleted {
		return nil, fmt.Errorf("%w: parent is in trash", ErrValidation)
	}

	allowed, err := s.access.Evaluate(ctx, identity, parent.Kind, parent.ID, models.PermissionUpload)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: upload permission required on parent", ErrPermissionDenied)
	}
	return parent, nil
}

// GetResource returns one resource's metadata. Authorization is left to the
// route gate in front of it.
func (s *ResourceService) GetResource(ctx context.Context, kind models.ResourceKind, id primitive.ObjectID) (interface{}, error) {
	var (
		resource interface{}
		err      error
	)
	switch kind {
	case models.KindDepartment:
		resource, err = s.resources.GetDepartment(ctx, id)
	case models.KindFolder:
		resource, err = s.resources.GetFolder(ctx, id)
	case models.KindDocument:
		resource, err = s.resources.GetDocument(ctx, id)
	default:
		return nil, fmt.Errorf("%w: unknown resource kind %q", ErrValidation, kind)
	}
	if errors.Is(err, stores.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id.Hex())
	} else if err != nil {
		return nil, err
	}
	return resource, nil
}

// ContainerListing is the contents view of a folder or department.
type ContainerListing struct {
	Container *models.Container `json:"container"`
	Folders   []models.Folder   `json:"folders"`
	Documents []models.Document `json:"documents"`
}

// ListContainer returns the live children of a folder or department, after a
// view check on the container.
func (s *ResourceService) ListContainer(ctx context.Context, identity *models.Identity, containerID primitive.ObjectID) (*ContainerListing, error) {
	container, err := s.resources.FindContainer(ctx, containerID)
	if errors.Is(err, stores.ErrNotFound) {
		return nil, fmt.Errorf("%w: container %s", ErrNotFound, containerID.Hex())
	} else if err != nil {
		return nil, err
	}

	allowed, err := s.access.Evaluate(ctx, identity, container.Kind, container.ID, models.PermissionView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: view permission required", ErrPermissionDenied)
	}

	folders, documents, err := s.resources.ListChildren(ctx, container.ID)
	if err != nil {
		return nil, err
	}
	return &ContainerListing{Container: container, Folders: folders, Documents: documents}, nil
}

// Move reparents a resource. The caller needs the delete permission on the
// resource being moved and the upload permission on the destination.
func (s *ResourceService) Move(ctx context.Context, identity *models.Identity, kind models.ResourceKind, id, newParentID primitive.ObjectID) error {
	allowed, err := s.access.Evaluate(ctx, identity, kind, id, models.PermissionDelete)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: delete permission required on the resource", ErrPermissionDenied)
	}

	newParent, err := s.paths.ResolveParent(ctx, newParentID)
	if err != nil {
		return err
	}
	allowed, err = s.access.Evaluate(ctx, identity, newParent.Kind, newParent.ID, models.PermissionUpload)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: upload permission required on the destination", ErrPermissionDenied)
	}

	if err := s.paths.Move(ctx, kind, id, newParentID); err != nil {
		return err
	}

	s.audit.Publish(ctx, NewActivityEvent(models.ActivityResourceMoved, kind, id.Hex(), identity.UserID.Hex(), map[string]interface{}{
		"new_parent_id": newParentID.Hex(),
	}))
	return nil
}

// SoftDelete moves a resource and its subtree to the trash.
func (s *ResourceService) SoftDelete(ctx context.Context, identity *models.Identity, kind models.ResourceKind, id primitive.ObjectID) error {
	if err := s.requireDelete(ctx, identity, kind, id); err != nil {
		return err
	}
	if err := s.paths.SoftDelete(ctx, kind, id); err != nil {
		return err
	}
	s.audit.Publish(ctx, NewActivityEvent(models.ActivityResourceTrashed, kind, id.Hex(), identity.UserID.Hex(), nil))
	return nil
}

// Restore brings a trashed resource and its still-deleted subtree back.
func (s *ResourceService) Restore(ctx context.Context, identity *models.Identity, kind models.ResourceKind, id primitive.ObjectID) error {
	if err := s.requireDelete(ctx, identity, kind, id); err != nil {
		return err
	}
	if err := s.paths.Restore(ctx, kind, id); err != nil {
		return err
	}
	s.audit.Publish(ctx, NewActivityEvent(models.ActivityResourceRestored, kind, id.Hex(), identity.UserID.Hex(), nil))
	return nil
}

// PermanentDelete irreversibly purges a resource and its subtree. The caller
// boundary must assert the confirmation flag.
func (s *ResourceService) PermanentDelete(ctx context.Context, identity *models.Identity, kind models.ResourceKind, id primitive.ObjectID, confirmed bool) error {
	if err := s.requireDelete(ctx, identity, kind, id); err != nil {
		return err
	}
	if err := s.paths.PermanentDelete(ctx, kind, id, confirmed); err != nil {
		return err
	}
	s.audit.Publish(ctx, NewActivityEvent(models.ActivityResourcePurged, kind, id.Hex(), identity.UserID.Hex(), nil))
	return nil
}

func (s *ResourceService) requireDelete(ctx context.Context, identity *models.Identity, kind models.ResourceKind, id primitive.ObjectID) error {
	allowed, err := s.access.Evaluate(ctx, identity, kind, id, models.PermissionDelete)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: delete permission required", ErrPermissionDenied)
	}
	return nil
}

// ListTrash returns the trashed resources in the caller's department scope:
// their MyDrive plus any departments they administer.
func (s *ResourceService) ListTrash(ctx context.Context, identity *models.Identity) ([]stores.TrashedResource, error) {
	scope := append([]primitive.ObjectID(nil), identity.DepartmentIDs...)
	if identity.MyDriveDepartmentID != nil {
		scope = append(scope, *identity.MyDriveDepartmentID)
	}
	if len(scope) == 0 {
		return nil, nil
	}
	return s.resources.ListTrashed(ctx, scope)
}
