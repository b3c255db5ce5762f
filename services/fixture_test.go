package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
	"docveil/stores"
)

// fixture wires the full service stack over the in-memory stores, with
// caching and event publishing disabled.
type fixture struct {
	t         *testing.T
	resources *stores.MemoryResourceStore
	acl       *stores.MemoryACLStore
	paths     *PathService
	access    *AccessService
	grants    *ACLService
	svc       *ResourceService
}

func newFixture(t *testing.T) *fixture {
	resources := stores.NewMemoryResourceStore()
	acl := stores.NewMemoryACLStore()
	cache := NewDecisionCache(nil, 0)
	audit := NoopAuditPublisher{}

	paths := NewPathService(resources)
	access := NewAccessService(resources, acl, cache)
	grants := NewACLService(acl, resources, access, cache, audit)
	svc := NewResourceService(resources, paths, access, audit)

	return &fixture{
		t:         t,
		resources: resources,
		acl:       acl,
		paths:     paths,
		access:    access,
		grants:    grants,
		svc:       svc,
	}
}

func (f *fixture) addOrgDepartment(name string) *models.Department {
	f.t.Helper()
	now := time.Now()
	dept := &models.Department{
		Name:      name,
		OwnerType: models.OwnerOrg,
		Path:      "/" + name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(f.t, f.resources.InsertDepartment(context.Background(), dept))
	return dept
}

func (f *fixture) addUserDepartment(name string, ownerID primitive.ObjectID) *models.Department {
	f.t.Helper()
	now := time.Now()
	dept := &models.Department{
		Name:      name,
		OwnerType: models.OwnerUser,
		OwnerID:   &ownerID,
		Path:      "/" + name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(f.t, f.resources.InsertDepartment(context.Background(), dept))
	return dept
}

func (f *fixture) addFolder(dept *models.Department, parent *models.Container, name string) *models.Folder {
	f.t.Helper()
	now := time.Now()
	folder := &models.Folder{
		Name:         name,
		ParentID:     parent.ID,
		DepartmentID: dept.ID,
		Path:         parent.Path + "/" + name,
		CreatedBy:    primitive.NewObjectID(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(f.t, f.resources.InsertFolder(context.Background(), folder))
	return folder
}

func (f *fixture) addDocument(dept *models.Department, parent *models.Container, name string) *models.Document {
	f.t.Helper()
	now := time.Now()
	doc := &models.Document{
		Name:         name,
		ParentID:     parent.ID,
		DepartmentID: dept.ID,
		Path:         parent.Path + "/" + name,
		Extension:    "pdf",
		Size:         1024,
		Version:      1,
		CreatedBy:    primitive.NewObjectID(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(f.t, f.resources.InsertDocument(context.Background(), doc))
	return doc
}

func (f *fixture) grant(kind models.ResourceKind, resourceID primitive.ObjectID, subjectType models.SubjectType, subjectID primitive.ObjectID, perms ...models.PermissionType) {
	f.t.Helper()
	_, err := f.acl.Upsert(context.Background(), &models.AccessControlEntry{
		ResourceType: kind,
		ResourceID:   resourceID,
		SubjectType:  subjectType,
		SubjectID:    subjectID,
		Permissions:  perms,
		GrantedBy:    primitive.NewObjectID(),
	})
	require.NoError(f.t, err)
}

func regularUser() *models.Identity {
	return &models.Identity{UserID: primitive.NewObjectID(), Role: models.RoleUser}
}

func superAdmin() *models.Identity {
	return &models.Identity{UserID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
}

func adminOf(departmentIDs ...primitive.ObjectID) *models.Identity {
	return &models.Identity{
		UserID:        primitive.NewObjectID(),
		Role:          models.RoleAdmin,
		DepartmentIDs: departmentIDs,
	}
}

func departmentOwnerOf(departmentIDs ...primitive.ObjectID) *models.Identity {
	return &models.Identity{
		UserID:        primitive.NewObjectID(),
		Role:          models.RoleDepartmentOwner,
		DepartmentIDs: departmentIDs,
	}
}

func myDriveOwner(userID, departmentID primitive.ObjectID) *models.Identity {
	return &models.Identity{
		UserID:              userID,
		Role:                models.RoleUser,
		MyDriveDepartmentID: &departmentID,
	}
}
