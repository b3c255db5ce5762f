package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
)

func TestImplicitAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.addOrgDepartment("Engineering")
	doc := f.addDocument(org, org.AsContainer(), "spec.pdf")

	ownerID := primitive.NewObjectID()
	drive := f.addUserDepartment("MyDrive-jane", ownerID)
	driveDoc := f.addDocument(drive, drive.AsContainer(), "private.pdf")

	tests := []struct {
		name     string
		identity *models.Identity
		kind     models.ResourceKind
		id       primitive.ObjectID
		want     bool
	}{
		{"super admin on org content", superAdmin(), models.KindDocument, doc.ID, true},
		{"admin of the department", adminOf(org.ID), models.KindDocument, doc.ID, true},
		{"department owner of the department", departmentOwnerOf(org.ID), models.KindDocument, doc.ID, true},
		{"admin of another department", adminOf(primitive.NewObjectID()), models.KindDocument, doc.ID, false},
		{"regular user without grants", regularUser(), models.KindDocument, doc.ID, false},
		{"drive owner on own content", myDriveOwner(ownerID, drive.ID), models.KindDocument, driveDoc.ID, true},
		{"super admin on personal drive", superAdmin(), models.KindDocument, driveDoc.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, action := range models.AllPermissions {
				allowed, err := f.access.Evaluate(ctx, tt.identity, tt.kind, tt.id, action)
				require.NoError(t, err)
				assert.Equal(t, tt.want, allowed, "action %s", action)
			}
		})
	}
}

func TestMissingResourceDenies(t *testing.T) {
	f := newFixture(t)

	allowed, err := f.access.Evaluate(context.Background(), superAdmin(), models.KindDocument, primitive.NewObjectID(), models.PermissionView)
	require.NoError(t, err, "a missing resource is a deny, not an error")
	assert.False(t, allowed)
}

func TestExplicitGrantOnResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")
	user := regularUser()

	f.grant(models.KindDocument, doc.ID, models.SubjectUser, user.UserID, models.PermissionView, models.PermissionDownload)

	allowed, err := f.access.Evaluate(ctx, user, models.KindDocument, doc.ID, models.PermissionView)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = f.access.Evaluate(ctx, user, models.KindDocument, doc.ID, models.PermissionDelete)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestInheritanceFromAncestors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	folder := f.addFolder(dept, dept.AsContainer(), "Reports")
	inner := f.addFolder(dept, folder.AsContainer(), "2026")
	doc := f.addDocument(dept, inner.AsContainer(), "q1.pdf")
	user := regularUser()

	f.grant(models.KindFolder, folder.ID, models.SubjectUser, user.UserID, models.PermissionView)

	allowed, err := f.access.Evaluate(ctx, user, models.KindDocument, doc.ID, models.PermissionView)
	require.NoError(t, err)
	assert.True(t, allowed, "a grant on a distant ancestor reaches the leaf")

	allowed, err = f.access.Evaluate(ctx, user, models.KindDocument, doc.ID, models.PermissionDownload)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestDepartmentGrantReachesContents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	folder := f.addFolder(dept, dept.AsContainer(), "Reports")
	doc := f.addDocument(dept, folder.AsContainer(), "q1.pdf")
	user := regularUser()

	f.grant(models.KindDepartment, dept.ID, models.SubjectUser, user.UserID, models.PermissionView)

	allowed, err := f.access.Evaluate(ctx, user, models.KindDocument, doc.ID, models.PermissionView)
	require.NoError(t, err)
	assert.True(t, allowed)
}

// An explicit ACL on a resource cuts it off from ancestor sharing entirely,
// even when the entry names someone else.
func TestExplicitACLShadowsInheritance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Finance")
	reports := f.addFolder(dept, dept.AsContainer(), "Reports")
	q1 := f.addDocument(dept, reports.AsContainer(), "Q1.pdf")

	alice := regularUser()
	bob := regularUser()

	// Alice is granted broadly on the folder; the document is then shared
	// with Bob alone.
	f.grant(models.KindFolder, reports.ID, models.SubjectUser, alice.UserID, models.PermissionView, models.PermissionDownload)
	f.grant(models.KindDocument, q1.ID, models.SubjectUser, bob.UserID, models.PermissionView)

	allowed, err := f.access.Evaluate(ctx, alice, models.KindDocument, q1.ID, models.PermissionView)
	require.NoError(t, err)
	assert.False(t, allowed, "the document's own ACL shadows the folder grant")

	allowed, err = f.access.Evaluate(ctx, bob, models.KindDocument, q1.ID, models.PermissionView)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Alice still sees the rest of the folder.
	other := f.addDocument(dept, reports.AsContainer(), "Q2.pdf")
	allowed, err = f.access.Evaluate(ctx, alice, models.KindDocument, other.ID, models.PermissionView)
	require.NoError(t, err)
	assert.True(t, allowed)
}

// A direct grant narrows the caller to exactly its permission set, cutting
// off what they previously inherited.
func TestDirectGrantShadowsOwnInheritedPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	finance := f.addOrgDepartment("Finance")
	reports := f.addFolder(finance, finance.AsContainer(), "Reports")
	q1 := f.addDocument(finance, reports.AsContainer(), "Q1.pdf")
	user := regularUser()

	f.grant(models.KindFolder, reports.ID, models.SubjectUser, user.UserID, models.PermissionView)

	allowed, err := f.access.Evaluate(ctx, user, models.KindDocument, q1.ID, models.PermissionView)
	require.NoError(t, err)
	require.True(t, allowed)

	f.grant(models.KindDocument, q1.ID, models.SubjectUser, user.UserID, models.PermissionDelete)

	allowed, err = f.access.Evaluate(ctx, user, models.KindDocument, q1.ID, models.PermissionView)
	require.NoError(t, err)
	assert.False(t, allowed, "the direct grant carries only delete; inherited view no longer applies")

	allowed, err = f.access.Evaluate(ctx, user, models.KindDocument, q1.ID, models.PermissionDelete)
	require.NoError(t, err)
	assert.True(t, allowed)
}

// An ancestor ACL that does not grant the caller does not stop the walk; a
// higher ancestor can still grant.
func TestAncestorWalkContinuesPastNonGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	outer := f.addFolder(dept, dept.AsContainer(), "Outer")
	inner := f.addFolder(dept, outer.AsContainer(), "Inner")
	doc := f.addDocument(dept, inner.AsContainer(), "spec.pdf")

	user := regularUser()
	stranger := regularUser()

	f.grant(models.KindFolder, inner.ID, models.SubjectUser, stranger.UserID, models.PermissionView)
	f.grant(models.KindFolder, outer.ID, models.SubjectUser, user.UserID, models.PermissionView)

	allowed, err := f.access.Evaluate(ctx, user, models.KindDocument, doc.ID, models.PermissionView)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestGroupGrants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")

	groupID := primitive.NewObjectID()
	member := regularUser()
	member.GroupIDs = []primitive.ObjectID{groupID}
	outsider := regularUser()

	f.grant(models.KindDocument, doc.ID, models.SubjectGroup, groupID, models.PermissionView)

	allowed, err := f.access.Evaluate(ctx, member, models.KindDocument, doc.ID, models.PermissionView)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = f.access.Evaluate(ctx, outsider, models.KindDocument, doc.ID, models.PermissionView)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestGetUserPermissionsImplicit(t *testing.T) {
	f := newFixture(t)

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")

	perms, err := f.access.GetUserPermissions(context.Background(), adminOf(dept.ID), models.KindDocument, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AllPermissions, perms)
}

func TestGetUserPermissionsExplicit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	folder := f.addFolder(dept, dept.AsContainer(), "Reports")
	doc := f.addDocument(dept, folder.AsContainer(), "q1.pdf")
	user := regularUser()

	f.grant(models.KindFolder, folder.ID, models.SubjectUser, user.UserID, models.PermissionDelete)
	f.grant(models.KindDocument, doc.ID, models.SubjectUser, user.UserID, models.PermissionDownload, models.PermissionView)

	perms, err := f.access.GetUserPermissions(ctx, user, models.KindDocument, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.PermissionType{models.PermissionView, models.PermissionDownload}, perms,
		"only the document's own grants count once it has an ACL")
}

func TestGetUserPermissionsInheritedUnion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept := f.addOrgDepartment("Engineering")
	folder := f.addFolder(dept, dept.AsContainer(), "Reports")
	doc := f.addDocument(dept, folder.AsContainer(), "q1.pdf")
	user := regularUser()

	f.grant(models.KindDepartment, dept.ID, models.SubjectUser, user.UserID, models.PermissionView)
	f.grant(models.KindFolder, folder.ID, models.SubjectUser, user.UserID, models.PermissionDownload)

	perms, err := f.access.GetUserPermissions(ctx, user, models.KindDocument, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.PermissionType{models.PermissionView, models.PermissionDownload}, perms)
}

func TestGetUserPermissionsNoAccess(t *testing.T) {
	f := newFixture(t)

	dept := f.addOrgDepartment("Engineering")
	doc := f.addDocument(dept, dept.AsContainer(), "spec.pdf")

	perms, err := f.access.GetUserPermissions(context.Background(), regularUser(), models.KindDocument, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}
