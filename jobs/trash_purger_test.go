package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docveil/models"
	"docveil/services"
	"docveil/stores"
)

func TestPurgerRemovesExpiredTrashOnly(t *testing.T) {
	ctx := context.Background()
	resources := stores.NewMemoryResourceStore()
	paths := services.NewPathService(resources)

	dept := &models.Department{Name: "Engineering", OwnerType: models.OwnerOrg, Path: "/Engineering"}
	require.NoError(t, resources.InsertDepartment(ctx, dept))

	old := time.Now().Add(-40 * 24 * time.Hour)
	recent := time.Now().Add(-time.Hour)

	expired := &models.Document{
		Name: "old.pdf", ParentID: dept.ID, DepartmentID: dept.ID,
		Path: "/Engineering/old.pdf", IsDeleted: true, DeletedAt: &old,
	}
	require.NoError(t, resources.InsertDocument(ctx, expired))

	fresh := &models.Document{
		Name: "fresh.pdf", ParentID: dept.ID, DepartmentID: dept.ID,
		Path: "/Engineering/fresh.pdf", IsDeleted: true, DeletedAt: &recent,
	}
	require.NoError(t, resources.InsertDocument(ctx, fresh))

	purger := NewTrashPurger(resources, paths, 30)
	purger.runOnce()

	_, err := resources.GetDocument(ctx, expired.ID)
	assert.ErrorIs(t, err, stores.ErrNotFound)

	_, err = resources.GetDocument(ctx, fresh.ID)
	assert.NoError(t, err, "trash inside the retention window stays")
}

func TestPurgerHandlesAlreadyPurgedSubtree(t *testing.T) {
	ctx := context.Background()
	resources := stores.NewMemoryResourceStore()
	paths := services.NewPathService(resources)

	dept := &models.Department{Name: "Engineering", OwnerType: models.OwnerOrg, Path: "/Engineering"}
	require.NoError(t, resources.InsertDepartment(ctx, dept))

	old := time.Now().Add(-40 * 24 * time.Hour)
	folder := &models.Folder{
		Name: "Projects", ParentID: dept.ID, DepartmentID: dept.ID,
		Path: "/Engineering/Projects", IsDeleted: true, DeletedAt: &old,
	}
	require.NoError(t, resources.InsertFolder(ctx, folder))

	doc := &models.Document{
		Name: "plan.pdf", ParentID: folder.ID, DepartmentID: dept.ID,
		Path: "/Engineering/Projects/plan.pdf", IsDeleted: true, DeletedAt: &old,
	}
	require.NoError(t, resources.InsertDocument(ctx, doc))

	// Purging the folder cascades over the document; the purger must then
	// treat the document's own entry as already handled.
	purger := NewTrashPurger(resources, paths, 30)
	purger.runOnce()

	_, err := resources.GetFolder(ctx, folder.ID)
	assert.ErrorIs(t, err, stores.ErrNotFound)
	_, err = resources.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, stores.ErrNotFound)
}
