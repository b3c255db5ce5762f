package utils

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
)

// ParseObjectID validates and converts a hex id from a request.
func ParseObjectID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s: %q", field, raw)
	}
	return id, nil
}

// ParseResourceKind validates a resource kind from a request path or body.
func ParseResourceKind(raw string) (models.ResourceKind, error) {
	kind := models.ResourceKind(raw)
	switch kind {
	case models.KindDepartment, models.KindFolder, models.KindDocument:
		return kind, nil
	}
	return "", fmt.Errorf("invalid resource type: %q", raw)
}

// ParseSubjectType validates an ACL subject type from a request.
func ParseSubjectType(raw string) (models.SubjectType, error) {
	st := models.SubjectType(raw)
	switch st {
	case models.SubjectUser, models.SubjectGroup:
		return st, nil
	}
	return "", fmt.Errorf("invalid subject type: %q", raw)
}

// ParsePermissions converts raw permission names, rejecting unknown ones.
func ParsePermissions(raw []string) ([]models.PermissionType, error) {
	perms := make([]models.PermissionType, 0, len(raw))
	for _, r := range raw {
		p := models.PermissionType(r)
		if !models.IsValidPermission(p) {
			return nil, fmt.Errorf("invalid permission: %q", r)
		}
		perms = append(perms, p)
	}
	return perms, nil
}

// ParseObjectIDs converts a slice of hex ids.
func ParseObjectIDs(raw []string, field string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, r := range raw {
		id, err := ParseObjectID(r, field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
