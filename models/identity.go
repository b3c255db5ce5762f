package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the platform-wide role carried in the auth token.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleAdmin           Role = "admin"
	RoleDepartmentOwner Role = "department_owner"
	RoleUser            Role = "user"
)

// Identity is the pre-authenticated caller as supplied by the identity
// provider. The engine treats it as opaque input and never authenticates.
type Identity struct {
	UserID              primitive.ObjectID
	Role                Role
	DepartmentIDs       []primitive.ObjectID
	MyDriveDepartmentID *primitive.ObjectID
	GroupIDs            []primitive.ObjectID
}

// AdministersDepartment reports whether the department is in the identity's
// assigned set.
func (i *Identity) AdministersDepartment(departmentID primitive.ObjectID) bool {
	for _, id := range i.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}

// OwnsMyDrive reports whether the department is the identity's personal root.
func (i *Identity) OwnsMyDrive(departmentID primitive.ObjectID) bool {
	return i.MyDriveDepartmentID != nil && *i.MyDriveDepartmentID == departmentID
}
