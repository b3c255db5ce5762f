package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResourceKind identifies the three node types of the tree.
type ResourceKind string

const (
	KindDepartment ResourceKind = "department"
	KindFolder     ResourceKind = "folder"
	KindDocument   ResourceKind = "document"
)

// OwnerType distinguishes shared org departments from personal MyDrive roots.
type OwnerType string

const (
	OwnerOrg  OwnerType = "org"
	OwnerUser OwnerType = "user"
)

// Department is a tree root. A user-owned department is that user's MyDrive;
// the owner has implicit full access to everything beneath it.
type Department struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string              `bson:"name" json:"name"`
	OwnerType OwnerType           `bson:"owner_type" json:"owner_type"`
	OwnerID   *primitive.ObjectID `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Path      string              `bson:"path" json:"path"`
	IsDeleted bool                `bson:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// Folder is an interior node. ParentID references either another Folder or a
// Department. Path is derived data owned by the path service; callers never
// set it directly.
type Folder struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	ParentID     primitive.ObjectID `bson:"parent_id" json:"parent_id"`
	DepartmentID primitive.ObjectID `bson:"department_id" json:"department_id"`
	Path         string             `bson:"path" json:"path"`
	CreatedBy    primitive.ObjectID `bson:"created_by" json:"created_by"`
	IsDeleted    bool               `bson:"is_deleted" json:"is_deleted"`
	DeletedAt    *time.Time         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Document is a leaf node. Documents can never appear as a parent.
type Document struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	ParentID     primitive.ObjectID `bson:"parent_id" json:"parent_id"`
	DepartmentID primitive.ObjectID `bson:"department_id" json:"department_id"`
	Path         string             `bson:"path" json:"path"`
	Extension    string             `bson:"extension" json:"extension"`
	Size         int64              `bson:"size" json:"size"`
	Version      int                `bson:"version" json:"version"`
	CreatedBy    primitive.ObjectID `bson:"created_by" json:"created_by"`
	IsDeleted    bool               `bson:"is_deleted" json:"is_deleted"`
	DeletedAt    *time.Time         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Container is the capability a resource needs from its parent: folders and
// departments can contain children, documents cannot. Resolving an id to a
// Container is the single polymorphic parent lookup used everywhere.
type Container struct {
	ID           primitive.ObjectID
	Kind         ResourceKind
	DepartmentID primitive.ObjectID
	ParentID     *primitive.ObjectID
	Path         string
	IsDeleted    bool
}

// AsContainer adapts a Folder to the Container capability.
func (f *Folder) AsContainer() *Container {
	parent := f.ParentID
	return &Container{
		ID:           f.ID,
		Kind:         KindFolder,
		DepartmentID: f.DepartmentID,
		ParentID:     &parent,
		Path:         f.Path,
		IsDeleted:    f.IsDeleted,
	}
}

// AsContainer adapts a Department to the Container capability. Departments
// are roots, so ParentID is nil.
func (d *Department) AsContainer() *Container {
	return &Container{
		ID:           d.ID,
		Kind:         KindDepartment,
		DepartmentID: d.ID,
		Path:         d.Path,
		IsDeleted:    d.IsDeleted,
	}
}
