package stores

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
)

// ErrNotFound is returned by lookups when no row matches. Services translate
// it into their own error taxonomy.
var ErrNotFound = errors.New("not found")

// TrashedResource is the flattened projection used by the trash view and the
// retention purge job.
type TrashedResource struct {
	Kind         models.ResourceKind
	ID           primitive.ObjectID
	Name         string
	Path         string
	DepartmentID primitive.ObjectID
	DeletedAt    time.Time
}

// ResourceStore is the persistence boundary for departments, folders and
// documents. Structural cascades (path rewrite, delete/restore by prefix) span
// the folder and document collections, so implementations must make
// WithTransaction cover both.
type ResourceStore interface {
	GetDepartment(ctx context.Context, id primitive.ObjectID) (*models.Department, error)
	GetFolder(ctx context.Context, id primitive.ObjectID) (*models.Folder, error)
	GetDocument(ctx context.Context, id primitive.ObjectID) (*models.Document, error)

	// FindContainer resolves an id as a Folder first, then a Department.
	// Documents never resolve; they cannot contain children.
	FindContainer(ctx context.Context, id primitive.ObjectID) (*models.Container, error)

	// IsDocument reports whether the id names a document. Used to reject
	// documents offered as parents with a validation error rather than a
	// plain not-found.
	IsDocument(ctx context.Context, id primitive.ObjectID) (bool, error)

	InsertDepartment(ctx context.Context, d *models.Department) error
	InsertFolder(ctx context.Context, f *models.Folder) error
	InsertDocument(ctx context.Context, d *models.Document) error

	UpdateDepartment(ctx context.Context, d *models.Department) error
	UpdateFolder(ctx context.Context, f *models.Folder) error
	UpdateDocument(ctx context.Context, d *models.Document) error

	DeleteFolder(ctx context.Context, id primitive.ObjectID) error
	DeleteDocument(ctx context.Context, id primitive.ObjectID) error

	// SiblingExists reports whether a live resource of the given kind with
	// the given name already sits under parentID.
	SiblingExists(ctx context.Context, kind models.ResourceKind, parentID primitive.ObjectID, name string) (bool, error)
	DepartmentNameExists(ctx context.Context, name string) (bool, error)

	// ListChildren returns the live folders and documents directly under a
	// container.
	ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Folder, []models.Document, error)

	ListTrashed(ctx context.Context, departmentIDs []primitive.ObjectID) ([]TrashedResource, error)
	ListExpiredTrash(ctx context.Context, cutoff time.Time) ([]TrashedResource, error)

	// RewritePathPrefix replaces the oldPrefix of every folder and document
	// path starting with oldPrefix+"/" by newPrefix. A non-nil
	// newDepartmentID also reassigns the matched rows to that department.
	RewritePathPrefix(ctx context.Context, oldPrefix, newPrefix string, newDepartmentID *primitive.ObjectID) error

	// MarkDeletedByPrefix soft-deletes every folder and document whose path
	// starts with prefix+"/", stamping them all with the same deletedAt.
	MarkDeletedByPrefix(ctx context.Context, prefix string, deletedAt time.Time) error

	// ClearDeletedByPrefix restores every soft-deleted folder and document
	// whose path starts with prefix+"/".
	ClearDeletedByPrefix(ctx context.Context, prefix string) error

	// DeleteByPrefix irreversibly removes every folder and document whose
	// path starts with prefix+"/".
	DeleteByPrefix(ctx context.Context, prefix string) error

	// WithTransaction runs fn atomically across the folder and document
	// collections. The ctx passed to fn must be used for every store call
	// inside fn.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ACLStore is the persistence boundary for explicit grants. It is a separate
// unit from the ResourceStore, joined only by (resource_type, resource_id).
type ACLStore interface {
	// Upsert creates or replaces the entry matching the unique key
	// (resource_type, resource_id, subject_type, subject_id). The permission
	// set is replaced wholesale, never merged.
	Upsert(ctx context.Context, entry *models.AccessControlEntry) (*models.AccessControlEntry, error)

	// Delete removes the matching entry and reports whether a row was
	// actually removed.
	Delete(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID, subjectType models.SubjectType, subjectID primitive.ObjectID) (bool, error)

	// HasAny reports whether the resource carries at least one explicit
	// grant, for any subject.
	HasAny(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID) (bool, error)

	// EffectivePermissions unions the permission sets of every entry on the
	// exact resource matching the user directly or any of their groups. It
	// never walks ancestors.
	EffectivePermissions(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID, userID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]models.PermissionType, error)

	ListForResource(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID) ([]models.AccessControlEntry, error)
}
