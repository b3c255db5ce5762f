package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PermissionType is one of the five grantable actions.
type PermissionType string

const (
	PermissionView     PermissionType = "view"
	PermissionDownload PermissionType = "download"
	PermissionUpload   PermissionType = "upload"
	PermissionDelete   PermissionType = "delete"
	PermissionShare    PermissionType = "share"
)

// AllPermissions lists every grantable action, in display order.
var AllPermissions = []PermissionType{
	PermissionView,
	PermissionDownload,
	PermissionUpload,
	PermissionDelete,
	PermissionShare,
}

// IsValidPermission reports whether p names a known action.
func IsValidPermission(p PermissionType) bool {
	switch p {
	case PermissionView, PermissionDownload, PermissionUpload, PermissionDelete, PermissionShare:
		return true
	}
	return false
}

// SubjectType says whether a grant targets a single user or a group.
type SubjectType string

const (
	SubjectUser  SubjectType = "user"
	SubjectGroup SubjectType = "group"
)

// AccessControlEntry is an explicit grant. The tuple
// (resource_type, resource_id, subject_type, subject_id) is unique; re-granting
// replaces the permission set rather than merging into it.
type AccessControlEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ResourceType ResourceKind       `bson:"resource_type" json:"resource_type"`
	ResourceID   primitive.ObjectID `bson:"resource_id" json:"resource_id"`
	SubjectType  SubjectType        `bson:"subject_type" json:"subject_type"`
	SubjectID    primitive.ObjectID `bson:"subject_id" json:"subject_id"`
	Permissions  []PermissionType   `bson:"permissions" json:"permissions"`
	GrantedBy    primitive.ObjectID `bson:"granted_by" json:"granted_by"`
	GrantedAt    time.Time          `bson:"granted_at" json:"granted_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Has reports whether the entry carries the given permission.
func (e *AccessControlEntry) Has(p PermissionType) bool {
	for _, q := range e.Permissions {
		if q == p {
			return true
		}
	}
	return false
}
