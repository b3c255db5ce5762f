package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
)

func TestDecisionKeyVariesWithGroupSet(t *testing.T) {
	resourceID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	groupA := primitive.NewObjectID()
	groupB := primitive.NewObjectID()

	noGroups := &models.Identity{UserID: userID}
	inA := &models.Identity{UserID: userID, GroupIDs: []primitive.ObjectID{groupA}}
	inAB := &models.Identity{UserID: userID, GroupIDs: []primitive.ObjectID{groupA, groupB}}

	keyNone := decisionKey(models.KindDocument, resourceID, noGroups, models.PermissionView)
	keyA := decisionKey(models.KindDocument, resourceID, inA, models.PermissionView)
	keyAB := decisionKey(models.KindDocument, resourceID, inAB, models.PermissionView)

	assert.NotEqual(t, keyNone, keyA, "joining a group must change the cache key")
	assert.NotEqual(t, keyA, keyAB)
	assert.NotEqual(t, keyNone, keyAB)
}

func TestDecisionKeyIgnoresGroupOrder(t *testing.T) {
	resourceID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	groupA := primitive.NewObjectID()
	groupB := primitive.NewObjectID()

	forward := &models.Identity{UserID: userID, GroupIDs: []primitive.ObjectID{groupA, groupB}}
	reversed := &models.Identity{UserID: userID, GroupIDs: []primitive.ObjectID{groupB, groupA}}

	assert.Equal(t,
		decisionKey(models.KindFolder, resourceID, forward, models.PermissionShare),
		decisionKey(models.KindFolder, resourceID, reversed, models.PermissionShare))
}
