package stores

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
)

// MemoryResourceStore is an in-memory ResourceStore used in tests and local
// development. Transactions are serialized with a lock rather than rolled
// back; concurrent callers still observe atomic cascades.
type MemoryResourceStore struct {
	mu          sync.RWMutex
	txnMu       sync.Mutex
	departments map[primitive.ObjectID]models.Department
	folders     map[primitive.ObjectID]models.Folder
	documents   map[primitive.ObjectID]models.Document
}

func NewMemoryResourceStore() *MemoryResourceStore {
	return &MemoryResourceStore{
		departments: make(map[primitive.ObjectID]models.Department),
		folders:     make(map[primitive.ObjectID]models.Folder),
		documents:   make(map[primitive.ObjectID]models.Document),
	}
}

func (s *MemoryResourceStore) GetDepartment(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryResourceStore) GetFolder(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (s *MemoryResourceStore) GetDocument(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryResourceStore) FindContainer(ctx context.Context, id primitive.ObjectID) (*models.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.folders[id]; ok {
		return f.AsContainer(), nil
	}
	if d, ok := s.departments[id]; ok {
		return d.AsContainer(), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryResourceStore) IsDocument(ctx context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.documents[id]
	return ok, nil
}

func (s *MemoryResourceStore) InsertDepartment(ctx context.Context, d *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	s.departments[d.ID] = *d
	return nil
}

func (s *MemoryResourceStore) InsertFolder(ctx context.Context, f *models.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	s.folders[f.ID] = *f
	return nil
}

func (s *MemoryResourceStore) InsertDocument(ctx context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	s.documents[d.ID] = *d
	return nil
}

func (s *MemoryResourceStore) UpdateDepartment(ctx context.Context, d *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[d.ID]; !ok {
		return ErrNotFound
	}
	s.departments[d.ID] = *d
	return nil
}

func (s *MemoryResourceStore) UpdateFolder(ctx context.Context, f *models.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folders[f.ID]; !ok {
		return ErrNotFound
	}
	s.folders[f.ID] = *f
	return nil
}

func (s *MemoryResourceStore) UpdateDocument(ctx context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[d.ID]; !ok {
		return ErrNotFound
	}
	s.documents[d.ID] = *d
	return nil
}

func (s *MemoryResourceStore) DeleteFolder(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.folders, id)
	return nil
}

func (s *MemoryResourceStore) DeleteDocument(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}

func (s *MemoryResourceStore) SiblingExists(ctx context.Context, kind models.ResourceKind, parentID primitive.ObjectID, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if kind == models.KindDocument {
		for _, d := range s.documents {
			if d.ParentID == parentID && d.Name == name && !d.IsDeleted {
				return true, nil
			}
		}
		return false, nil
	}
	for _, f := range s.folders {
		if f.ParentID == parentID && f.Name == name && !f.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryResourceStore) DepartmentNameExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.departments {
		if d.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryResourceStore) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Folder, []models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var folders []models.Folder
	for _, f := range s.folders {
		if f.ParentID == parentID && !f.IsDeleted {
			folders = append(folders, f)
		}
	}
	var documents []models.Document
	for _, d := range s.documents {
		if d.ParentID == parentID && !d.IsDeleted {
			documents = append(documents, d)
		}
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	sort.Slice(documents, func(i, j int) bool { return documents[i].Name < documents[j].Name })
	return folders, documents, nil
}

func (s *MemoryResourceStore) ListTrashed(ctx context.Context, departmentIDs []primitive.ObjectID) ([]TrashedResource, error) {
	inScope := make(map[primitive.ObjectID]bool, len(departmentIDs))
	for _, id := range departmentIDs {
		inScope[id] = true
	}
	items := s.collectTrash(func(kind models.ResourceKind, deptID primitive.ObjectID, deletedAt time.Time) bool {
		return inScope[deptID]
	})

	// Trashed roots show up in the trash view too; they are restored by hand
	// rather than purged, so the expired-trash scan leaves them out.
	s.mu.RLock()
	for _, d := range s.departments {
		if d.IsDeleted && d.DeletedAt != nil && inScope[d.ID] {
			items = append(items, TrashedResource{
				Kind: models.KindDepartment, ID: d.ID, Name: d.Name, Path: d.Path,
				DepartmentID: d.ID, DeletedAt: *d.DeletedAt,
			})
		}
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].DeletedAt.After(items[j].DeletedAt) })
	return items, nil
}

func (s *MemoryResourceStore) ListExpiredTrash(ctx context.Context, cutoff time.Time) ([]TrashedResource, error) {
	return s.collectTrash(func(kind models.ResourceKind, deptID primitive.ObjectID, deletedAt time.Time) bool {
		return !deletedAt.After(cutoff)
	}), nil
}

func (s *MemoryResourceStore) collectTrash(match func(models.ResourceKind, primitive.ObjectID, time.Time) bool) []TrashedResource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []TrashedResource
	for _, f := range s.folders {
		if f.IsDeleted && f.DeletedAt != nil && match(models.KindFolder, f.DepartmentID, *f.DeletedAt) {
			items = append(items, TrashedResource{
				Kind: models.KindFolder, ID: f.ID, Name: f.Name, Path: f.Path,
				DepartmentID: f.DepartmentID, DeletedAt: *f.DeletedAt,
			})
		}
	}
	for _, d := range s.documents {
		if d.IsDeleted && d.DeletedAt != nil && match(models.KindDocument, d.DepartmentID, *d.DeletedAt) {
			items = append(items, TrashedResource{
				Kind: models.KindDocument, ID: d.ID, Name: d.Name, Path: d.Path,
				DepartmentID: d.DepartmentID, DeletedAt: *d.DeletedAt,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DeletedAt.After(items[j].DeletedAt) })
	return items
}

func isDescendantPath(path, prefix string) bool {
	return strings.HasPrefix(path, prefix+"/")
}

func (s *MemoryResourceStore) RewritePathPrefix(ctx context.Context, oldPrefix, newPrefix string, newDepartmentID *primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.folders {
		if isDescendantPath(f.Path, oldPrefix) {
			f.Path = newPrefix + strings.TrimPrefix(f.Path, oldPrefix)
			if newDepartmentID != nil {
				f.DepartmentID = *newDepartmentID
			}
			f.UpdatedAt = time.Now()
			s.folders[id] = f
		}
	}
	for id, d := range s.documents {
		if isDescendantPath(d.Path, oldPrefix) {
			d.Path = newPrefix + strings.TrimPrefix(d.Path, oldPrefix)
			if newDepartmentID != nil {
				d.DepartmentID = *newDepartmentID
			}
			d.UpdatedAt = time.Now()
			s.documents[id] = d
		}
	}
	return nil
}

func (s *MemoryResourceStore) MarkDeletedByPrefix(ctx context.Context, prefix string, deletedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.folders {
		if isDescendantPath(f.Path, prefix) {
			f.IsDeleted = true
			ts := deletedAt
			f.DeletedAt = &ts
			s.folders[id] = f
		}
	}
	for id, d := range s.documents {
		if isDescendantPath(d.Path, prefix) {
			d.IsDeleted = true
			ts := deletedAt
			d.DeletedAt = &ts
			s.documents[id] = d
		}
	}
	return nil
}

func (s *MemoryResourceStore) ClearDeletedByPrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.folders {
		if isDescendantPath(f.Path, prefix) && f.IsDeleted {
			f.IsDeleted = false
			f.DeletedAt = nil
			s.folders[id] = f
		}
	}
	for id, d := range s.documents {
		if isDescendantPath(d.Path, prefix) && d.IsDeleted {
			d.IsDeleted = false
			d.DeletedAt = nil
			s.documents[id] = d
		}
	}
	return nil
}

func (s *MemoryResourceStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.folders {
		if isDescendantPath(f.Path, prefix) {
			delete(s.folders, id)
		}
	}
	for id, d := range s.documents {
		if isDescendantPath(d.Path, prefix) {
			delete(s.documents, id)
		}
	}
	return nil
}

func (s *MemoryResourceStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txnMu.Lock()
	defer s.txnMu.Unlock()
	return fn(ctx)
}
