package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
)

func TestGrantValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	admin := adminOf(dept.ID)
	subject := primitive.NewObjectID()

	tests := []struct {
		name string
		req  GrantRequest
	}{
		{"unknown resource type", GrantRequest{
			ResourceType: "workspace", ResourceID: dept.ID,
			SubjectType: models.SubjectUser, SubjectID: subject,
			Permissions: []models.PermissionType{models.PermissionView},
		}},
		{"unknown subject type", GrantRequest{
			ResourceType: models.KindDepartment, ResourceID: dept.ID,
			SubjectType: "team", SubjectID: subject,
			Permissions: []models.PermissionType{models.PermissionView},
		}},
		{"no permissions", GrantRequest{
			ResourceType: models.KindDepartment, ResourceID: dept.ID,
			SubjectType: models.SubjectUser, SubjectID: subject,
		}},
		{"unknown permission", GrantRequest{
			ResourceType: models.KindDepartment, ResourceID: dept.ID,
			SubjectType: models.SubjectUser, SubjectID: subject,
			Permissions: []models.PermissionType{"admin"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.grants.Grant(ctx, admin, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGrantMissingResource(t *testing.T) {
	f := newFixture(t)

	_, err := f.grants.Grant(context.Background(), superAdmin(), GrantRequest{
		ResourceType: models.KindFolder,
		ResourceID:   primitive.NewObjectID(),
		SubjectType:  models.SubjectUser,
		SubjectID:    primitive.NewObjectID(),
		Permissions:  []models.PermissionType{models.PermissionView},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGrantRequiresSharePermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")

	req := GrantRequest{
		ResourceType: models.KindDocument,
		ResourceID:   doc.ID,
		SubjectType:  models.SubjectUser,
		SubjectID:    primitive.NewObjectID(),
		Permissions:  []models.PermissionType{models.PermissionView},
	}

	_, err := f.grants.Grant(ctx, regularUser(), req)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.grants.Grant(ctx, adminOf(dept.ID), req)
	require.NoError(t, err)
}

func TestGrantViaDelegatedShare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")

	sharer := regularUser()
	f.grant(models.KindDocument, doc.ID, models.SubjectUser, sharer.UserID, models.PermissionView, models.PermissionShare)

	_, err := f.grants.Grant(ctx, sharer, GrantRequest{
		ResourceType: models.KindDocument,
		ResourceID:   doc.ID,
		SubjectType:  models.SubjectUser,
		SubjectID:    primitive.NewObjectID(),
		Permissions:  []models.PermissionType{models.PermissionView},
	})
	require.NoError(t, err)
}

func TestRegrantReplacesPermissionSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")
	admin := adminOf(dept.ID)
	subject := primitive.NewObjectID()

	first, err := f.grants.Grant(ctx, admin, GrantRequest{
		ResourceType: models.KindDocument, ResourceID: doc.ID,
		SubjectType: models.SubjectUser, SubjectID: subject,
		Permissions: []models.PermissionType{models.PermissionView, models.PermissionDownload},
	})
	require.NoError(t, err)

	second, err := f.grants.Grant(ctx, admin, GrantRequest{
		ResourceType: models.KindDocument, ResourceID: doc.ID,
		SubjectType: models.SubjectUser, SubjectID: subject,
		Permissions: []models.PermissionType{models.PermissionView},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same subject updates the same entry")
	assert.Equal(t, []models.PermissionType{models.PermissionView}, second.Permissions,
		"re-granting replaces, never merges")
	assert.Equal(t, first.GrantedAt, second.GrantedAt)

	entries, err := f.grants.ListGrants(ctx, admin, models.KindDocument, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestGrantDeduplicatesPermissions(t *testing.T) {
	f := newFixture(t)

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")

	entry, err := f.grants.Grant(context.Background(), adminOf(dept.ID), GrantRequest{
		ResourceType: models.KindDocument, ResourceID: doc.ID,
		SubjectType: models.SubjectUser, SubjectID: primitive.NewObjectID(),
		Permissions: []models.PermissionType{models.PermissionView, models.PermissionView, models.PermissionDownload},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.PermissionType{models.PermissionView, models.PermissionDownload}, entry.Permissions)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")
	admin := adminOf(dept.ID)
	user := regularUser()

	f.grant(models.KindDocument, doc.ID, models.SubjectUser, user.UserID, models.PermissionView)

	allowed, err := f.access.Evaluate(ctx, user, models.KindDocument, doc.ID, models.PermissionView)
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, f.grants.Revoke(ctx, admin, models.KindDocument, doc.ID, models.SubjectUser, user.UserID))

	allowed, err = f.access.Evaluate(ctx, user, models.KindDocument, doc.ID, models.PermissionView)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRevokeMissingGrant(t *testing.T) {
	f := newFixture(t)

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")

	err := f.grants.Revoke(context.Background(), adminOf(dept.ID), models.KindDocument, doc.ID, models.SubjectUser, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListGrantsRequiresShare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")

	viewer := regularUser()
	f.grant(models.KindDocument, doc.ID, models.SubjectUser, viewer.UserID, models.PermissionView)

	_, err := f.grants.ListGrants(ctx, viewer, models.KindDocument, doc.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	entries, err := f.grants.ListGrants(ctx, adminOf(dept.ID), models.KindDocument, doc.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
