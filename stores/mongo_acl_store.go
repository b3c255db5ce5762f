package stores

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docveil/models"
)

// MongoACLStore implements ACLStore over the acl_entries collection.
type MongoACLStore struct {
	entries *mongo.Collection
}

func NewMongoACLStore(db *mongo.Database) *MongoACLStore {
	return &MongoACLStore{entries: db.Collection("acl_entries")}
}

// EnsureIndexes creates the unique key index the upsert relies on.
func (s *MongoACLStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "resource_type", Value: 1},
			{Key: "resource_id", Value: 1},
			{Key: "subject_type", Value: 1},
			{Key: "subject_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating acl key index: %w", err)
	}
	return nil
}

func aclKey(resourceType models.ResourceKind, resourceID primitive.ObjectID, subjectType models.SubjectType, subjectID primitive.ObjectID) bson.M {
	return bson.M{
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"subject_type":  subjectType,
		"subject_id":    subjectID,
	}
}

func (s *MongoACLStore) Upsert(ctx context.Context, entry *models.AccessControlEntry) (*models.AccessControlEntry, error) {
	now := time.Now()
	filter := aclKey(entry.ResourceType, entry.ResourceID, entry.SubjectType, entry.SubjectID)
	update := bson.M{
		"$set": bson.M{
			"permissions": entry.Permissions,
			"granted_by":  entry.GrantedBy,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"resource_type": entry.ResourceType,
			"resource_id":   entry.ResourceID,
			"subject_type":  entry.SubjectType,
			"subject_id":    entry.SubjectID,
			"granted_at":    now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.AccessControlEntry
	if err := s.entries.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, fmt.Errorf("upserting acl entry: %w", err)
	}
	return &saved, nil
}

func (s *MongoACLStore) Delete(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID, subjectType models.SubjectType, subjectID primitive.ObjectID) (bool, error) {
	res, err := s.entries.DeleteOne(ctx, aclKey(resourceType, resourceID, subjectType, subjectID))
	if err != nil {
		return false, fmt.Errorf("deleting acl entry: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoACLStore) HasAny(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID) (bool, error) {
	count, err := s.entries.CountDocuments(ctx, bson.M{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("counting acl entries: %w", err)
	}
	return count > 0, nil
}

func (s *MongoACLStore) EffectivePermissions(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID, userID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]models.PermissionType, error) {
	subjects := bson.A{
		bson.M{"subject_type": models.SubjectUser, "subject_id": userID},
	}
	if len(groupIDs) > 0 {
		subjects = append(subjects, bson.M{
			"subject_type": models.SubjectGroup,
			"subject_id":   bson.M{"$in": groupIDs},
		})
	}
	filter := bson.M{
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"$or":           subjects,
	}

	cursor, err := s.entries.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("finding acl entries: %w", err)
	}
	var entries []models.AccessControlEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decoding acl entries: %w", err)
	}

	seen := make(map[models.PermissionType]bool)
	var union []models.PermissionType
	for _, e := range entries {
		for _, p := range e.Permissions {
			if !seen[p] {
				seen[p] = true
				union = append(union, p)
			}
		}
	}
	return union, nil
}

func (s *MongoACLStore) ListForResource(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID) ([]models.AccessControlEntry, error) {
	cursor, err := s.entries.Find(ctx, bson.M{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}, options.Find().SetSort(bson.M{"granted_at": 1}))
	if err != nil {
		return nil, fmt.Errorf("listing acl entries: %w", err)
	}
	var entries []models.AccessControlEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decoding acl entries: %w", err)
	}
	return entries, nil
}
