package stores

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
)

type aclEntryKey struct {
	resourceType models.ResourceKind
	resourceID   primitive.ObjectID
	subjectType  models.SubjectType
	subjectID    primitive.ObjectID
}

// MemoryACLStore is an in-memory ACLStore used in tests and local development.
type MemoryACLStore struct {
	mu      sync.RWMutex
	entries map[aclEntryKey]models.AccessControlEntry
}

func NewMemoryACLStore() *MemoryACLStore {
	return &MemoryACLStore{entries: make(map[aclEntryKey]models.AccessControlEntry)}
}

func (s *MemoryACLStore) Upsert(ctx context.Context, entry *models.AccessControlEntry) (*models.AccessControlEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := aclEntryKey{entry.ResourceType, entry.ResourceID, entry.SubjectType, entry.SubjectID}
	now := time.Now()

	saved, ok := s.entries[key]
	if !ok {
		saved = *entry
		saved.ID = primitive.NewObjectID()
		saved.GrantedAt = now
	}
	saved.Permissions = append([]models.PermissionType(nil), entry.Permissions...)
	saved.GrantedBy = entry.GrantedBy
	saved.UpdatedAt = now
	s.entries[key] = saved
	return &saved, nil
}

func (s *MemoryACLStore) Delete(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID, subjectType models.SubjectType, subjectID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := aclEntryKey{resourceType, resourceID, subjectType, subjectID}
	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryACLStore) HasAny(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key := range s.entries {
		if key.resourceType == resourceType && key.resourceID == resourceID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryACLStore) EffectivePermissions(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID, userID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]models.PermissionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inGroups := make(map[primitive.ObjectID]bool, len(groupIDs))
	for _, id := range groupIDs {
		inGroups[id] = true
	}

	seen := make(map[models.PermissionType]bool)
	var union []models.PermissionType
	for key, entry := range s.entries {
		if key.resourceType != resourceType || key.resourceID != resourceID {
			continue
		}
		matched := (key.subjectType == models.SubjectUser && key.subjectID == userID) ||
			(key.subjectType == models.SubjectGroup && inGroups[key.subjectID])
		if !matched {
			continue
		}
		for _, p := range entry.Permissions {
			if !seen[p] {
				seen[p] = true
				union = append(union, p)
			}
		}
	}
	return union, nil
}

func (s *MemoryACLStore) ListForResource(ctx context.Context, resourceType models.ResourceKind, resourceID primitive.ObjectID) ([]models.AccessControlEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.AccessControlEntry
	for key, entry := range s.entries {
		if key.resourceType == resourceType && key.resourceID == resourceID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].GrantedAt.Before(entries[j].GrantedAt) })
	return entries, nil
}
