package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
	"docveil/stores"
)

// ACLService handles explicit grants: validation, authorization of the
// granter, the upsert/revoke itself, cache invalidation and the audit event.
type ACLService struct {
	acl       stores.ACLStore
	resources stores.ResourceStore
	access    *AccessService
	cache     *DecisionCache
	audit     AuditPublisher
}

func NewACLService(acl stores.ACLStore, resources stores.ResourceStore, access *AccessService, cache *DecisionCache, audit AuditPublisher) *ACLService {
	return &ACLService{acl: acl, resources: resources, access: access, cache: cache, audit: audit}
}

// GrantRequest describes one grant upsert.
type GrantRequest struct {
	ResourceType models.ResourceKind
	ResourceID   primitive.ObjectID
	SubjectType  models.SubjectType
	SubjectID    primitive.ObjectID
	Permissions  []models.PermissionType
}

func (r *GrantRequest) validate() error {
	switch r.ResourceType {
	case models.KindDepartment, models.KindFolder, models.KindDocument:
	default:
		return fmt.Errorf("%w: unknown resource type %q", ErrValidation, r.ResourceType)
	}
	switch r.SubjectType {
	case models.SubjectUser, models.SubjectGroup:
	default:
		return fmt.Errorf("%w: unknown subject type %q", ErrValidation, r.SubjectType)
	}
	if len(r.Permissions) == 0 {
		return fmt.Errorf("%w: at least one permission is required", ErrValidation)
	}
	for _, p := range r.Permissions {
		if !models.IsValidPermission(p) {
			return fmt.Errorf("%w: unknown permission %q", ErrValidation, p)
		}
	}
	return nil
}

// Grant upserts an explicit grant. Re-granting the same subject replaces the
// permission set; it never merges. The caller needs the share permission on
// the resource.
func (s *ACLService) Grant(ctx context.Context, identity *models.Identity, req GrantRequest) (*models.AccessControlEntry, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.requireResource(ctx, req.ResourceType, req.ResourceID); err != nil {
		return nil, err
	}
	if err := s.requireShare(ctx, identity, req.ResourceType, req.ResourceID); err != nil {
		return nil, err
	}

	entry, err := s.acl.Upsert(ctx, &models.AccessControlEntry{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		SubjectType:  req.SubjectType,
		SubjectID:    req.SubjectID,
		Permissions:  dedupePermissions(req.Permissions),
		GrantedBy:    identity.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateResource(ctx, req.ResourceType, req.ResourceID)
	s.audit.Publish(ctx, NewActivityEvent(models.ActivityAccessGranted, req.ResourceType, req.ResourceID.Hex(), identity.UserID.Hex(), map[string]interface{}{
		"subject_type": req.SubjectType,
		"subject_id":   req.SubjectID.Hex(),
		"permissions":  entry.Permissions,
	}))
	return entry, nil
}

// Revoke removes a grant. A missing entry is reported as not-found so the
// caller can surface 404 semantics.
func (s *ACLService) Revoke(ctx context.Context, identity *models.Identity, resourceType models.ResourceKind, resourceID primitive.ObjectID, subjectType models.SubjectType, subjectID primitive.ObjectID) error {
	if err := s.requireShare(ctx, identity, resourceType, resourceID); err != nil {
		return err
	}

	removed, err := s.acl.Delete(ctx, resourceType, resourceID, subjectType, subjectID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: no matching grant", ErrNotFound)
	}

	s.cache.InvalidateResource(ctx, resourceType, resourceID)
	s.audit.Publish(ctx, NewActivityEvent(models.ActivityAccessRevoked, resourceType, resourceID.Hex(), identity.UserID.Hex(), map[string]interface{}{
		"subject_type": subjectType,
		"subject_id":   subjectID.Hex(),
	}))
	return nil
}

// ListGrants returns every explicit entry on a resource. Reading the sharing
// state of a resource requires the share permission, same as changing it.
func (s *ACLService) ListGrants(ctx context.Context, identity *models.Identity, resourceType models.ResourceKind, resourceID primitive.ObjectID) ([]models.AccessControlEntry, error) {
	if err := s.requireShare(ctx, identity, resourceType, resourceID); err != nil {
		return nil, err
	}
	return s.acl.ListForResource(ctx, resourceType, resourceID)
}

func (s *ACLService) requireShare(ctx context.Context, identity *models.Identity, kind models.ResourceKind, resourceID primitive.ObjectID) error {
	allowed, err := s.access.Evaluate(ctx, identity, kind, resourceID, models.PermissionShare)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: share permission required", ErrPermissionDenied)
	}
	return nil
}

func (s *ACLService) requireResource(ctx context.Context, kind models.ResourceKind, id primitive.ObjectID) error {
	var err error
	switch kind {
	case models.KindDepartment:
		_, err = s.resources.GetDepartment(ctx, id)
	case models.KindFolder:
		_, err = s.resources.GetFolder(ctx, id)
	case models.KindDocument:
		_, err = s.resources.GetDocument(ctx, id)
	}
	if errors.Is(err, stores.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id.Hex())
	}
	return err
}

func dedupePermissions(perms []models.PermissionType) []models.PermissionType {
	seen := make(map[models.PermissionType]bool, len(perms))
	var out []models.PermissionType
	for _, p := range perms {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
