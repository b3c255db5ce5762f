package stores

import (
	"context"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docveil/models"
)

// MongoResourceStore implements ResourceStore over the departments, folders
// and documents collections.
type MongoResourceStore struct {
	client      *mongo.Client
	departments *mongo.Collection
	folders     *mongo.Collection
	documents   *mongo.Collection
}

func NewMongoResourceStore(db *mongo.Database) *MongoResourceStore {
	return &MongoResourceStore{
		client:      db.Client(),
		departments: db.Collection("departments"),
		folders:     db.Collection("folders"),
		documents:   db.Collection("documents"),
	}
}

// EnsureIndexes creates the path and parent indexes the prefix queries rely on.
func (s *MongoResourceStore) EnsureIndexes(ctx context.Context) error {
	pathIndex := mongo.IndexModel{Keys: bson.D{{Key: "path", Value: 1}}}
	parentIndex := mongo.IndexModel{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "name", Value: 1}}}

	for _, coll := range []*mongo.Collection{s.folders, s.documents} {
		if _, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{pathIndex, parentIndex}); err != nil {
			return fmt.Errorf("creating indexes for %s: %w", coll.Name(), err)
		}
	}
	_, err := s.departments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating department name index: %w", err)
	}
	return nil
}

func (s *MongoResourceStore) GetDepartment(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	var dept models.Department
	err := s.departments.FindOne(ctx, bson.M{"_id": id}).Decode(&dept)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetching department: %w", err)
	}
	return &dept, nil
}

func (s *MongoResourceStore) GetFolder(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := s.folders.FindOne(ctx, bson.M{"_id": id}).Decode(&folder)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetching folder: %w", err)
	}
	return &folder, nil
}

func (s *MongoResourceStore) GetDocument(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	err := s.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetching document: %w", err)
	}
	return &doc, nil
}

func (s *MongoResourceStore) FindContainer(ctx context.Context, id primitive.ObjectID) (*models.Container, error) {
	folder, err := s.GetFolder(ctx, id)
	if err == nil {
		return folder.AsContainer(), nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	dept, err := s.GetDepartment(ctx, id)
	if err == nil {
		return dept.AsContainer(), nil
	}
	return nil, err
}

func (s *MongoResourceStore) IsDocument(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := s.documents.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("checking document: %w", err)
	}
	return count > 0, nil
}

func (s *MongoResourceStore) InsertDepartment(ctx context.Context, d *models.Department) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	_, err := s.departments.InsertOne(ctx, d)
	if err != nil {
		return fmt.Errorf("inserting department: %w", err)
	}
	return nil
}

func (s *MongoResourceStore) InsertFolder(ctx context.Context, f *models.Folder) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	_, err := s.folders.InsertOne(ctx, f)
	if err != nil {
		return fmt.Errorf("inserting folder: %w", err)
	}
	return nil
}

func (s *MongoResourceStore) InsertDocument(ctx context.Context, d *models.Document) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	_, err := s.documents.InsertOne(ctx, d)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (s *MongoResourceStore) UpdateDepartment(ctx context.Context, d *models.Department) error {
	return s.replaceOne(ctx, s.departments, d.ID, d)
}

func (s *MongoResourceStore) UpdateFolder(ctx context.Context, f *models.Folder) error {
	return s.replaceOne(ctx, s.folders, f.ID, f)
}

func (s *MongoResourceStore) UpdateDocument(ctx context.Context, d *models.Document) error {
	return s.replaceOne(ctx, s.documents, d.ID, d)
}

func (s *MongoResourceStore) replaceOne(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("updating %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoResourceStore) DeleteFolder(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.folders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	return nil
}

func (s *MongoResourceStore) DeleteDocument(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.documents.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

func (s *MongoResourceStore) SiblingExists(ctx context.Context, kind models.ResourceKind, parentID primitive.ObjectID, name string) (bool, error) {
	coll := s.folders
	if kind == models.KindDocument {
		coll = s.documents
	}
	count, err := coll.CountDocuments(ctx, bson.M{
		"parent_id":  parentID,
		"name":       name,
		"is_deleted": false,
	})
	if err != nil {
		return false, fmt.Errorf("checking sibling name: %w", err)
	}
	return count > 0, nil
}

func (s *MongoResourceStore) DepartmentNameExists(ctx context.Context, name string) (bool, error) {
	count, err := s.departments.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return false, fmt.Errorf("checking department name: %w", err)
	}
	return count > 0, nil
}

func (s *MongoResourceStore) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Folder, []models.Document, error) {
	filter := bson.M{"parent_id": parentID, "is_deleted": false}
	sort := options.Find().SetSort(bson.M{"name": 1})

	cursor, err := s.folders.Find(ctx, filter, sort)
	if err != nil {
		return nil, nil, fmt.Errorf("listing folders: %w", err)
	}
	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, nil, fmt.Errorf("decoding folders: %w", err)
	}

	cursor, err = s.documents.Find(ctx, filter, sort)
	if err != nil {
		return nil, nil, fmt.Errorf("listing documents: %w", err)
	}
	var documents []models.Document
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, nil, fmt.Errorf("decoding documents: %w", err)
	}

	return folders, documents, nil
}

func (s *MongoResourceStore) ListTrashed(ctx context.Context, departmentIDs []primitive.ObjectID) ([]TrashedResource, error) {
	filter := bson.M{
		"is_deleted":    true,
		"deleted_at":    bson.M{"$ne": nil},
		"department_id": bson.M{"$in": departmentIDs},
	}
	items, err := s.collectTrash(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Trashed roots show up in the trash view too; they are restored by hand
	// rather than purged, so the expired-trash scan leaves them out.
	cursor, err := s.departments.Find(ctx, bson.M{
		"is_deleted": true,
		"deleted_at": bson.M{"$ne": nil},
		"_id":        bson.M{"$in": departmentIDs},
	}, options.Find().SetSort(bson.M{"deleted_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("finding trashed departments: %w", err)
	}
	var departments []models.Department
	if err := cursor.All(ctx, &departments); err != nil {
		return nil, fmt.Errorf("decoding trashed departments: %w", err)
	}
	for _, d := range departments {
		items = append(items, TrashedResource{
			Kind: models.KindDepartment, ID: d.ID, Name: d.Name, Path: d.Path,
			DepartmentID: d.ID, DeletedAt: *d.DeletedAt,
		})
	}

	return items, nil
}

func (s *MongoResourceStore) ListExpiredTrash(ctx context.Context, cutoff time.Time) ([]TrashedResource, error) {
	filter := bson.M{
		"is_deleted": true,
		"deleted_at": bson.M{"$ne": nil, "$lte": cutoff},
	}
	return s.collectTrash(ctx, filter)
}

func (s *MongoResourceStore) collectTrash(ctx context.Context, filter bson.M) ([]TrashedResource, error) {
	var items []TrashedResource

	cursor, err := s.folders.Find(ctx, filter, options.Find().SetSort(bson.M{"deleted_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("finding trashed folders: %w", err)
	}
	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, fmt.Errorf("decoding trashed folders: %w", err)
	}
	for _, f := range folders {
		items = append(items, TrashedResource{
			Kind: models.KindFolder, ID: f.ID, Name: f.Name, Path: f.Path,
			DepartmentID: f.DepartmentID, DeletedAt: *f.DeletedAt,
		})
	}

	cursor, err = s.documents.Find(ctx, filter, options.Find().SetSort(bson.M{"deleted_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("finding trashed documents: %w", err)
	}
	var documents []models.Document
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("decoding trashed documents: %w", err)
	}
	for _, d := range documents {
		items = append(items, TrashedResource{
			Kind: models.KindDocument, ID: d.ID, Name: d.Name, Path: d.Path,
			DepartmentID: d.DepartmentID, DeletedAt: *d.DeletedAt,
		})
	}

	return items, nil
}

// descendantFilter matches every row whose path sits strictly beneath prefix.
// Names may contain regex metacharacters, so the prefix is quoted.
func descendantFilter(prefix string) bson.M {
	return bson.M{"path": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix+"/")}}
}

// pathRewriteUpdate builds the $set pipeline that swaps oldPrefix for
// newPrefix at the head of each descendant path. $substrCP and $strLenCP
// index code points, not bytes, so the prefix length is the rune count —
// a byte offset would eat into the path after any non-ASCII name.
func pathRewriteUpdate(oldPrefix, newPrefix string, newDepartmentID *primitive.ObjectID) mongo.Pipeline {
	prefixLen := utf8.RuneCountInString(oldPrefix)
	set := bson.M{
		"path": bson.M{"$concat": bson.A{
			newPrefix,
			bson.M{"$substrCP": bson.A{
				"$path",
				prefixLen,
				bson.M{"$subtract": bson.A{bson.M{"$strLenCP": "$path"}, prefixLen}},
			}},
		}},
		"updated_at": time.Now(),
	}
	if newDepartmentID != nil {
		set["department_id"] = *newDepartmentID
	}
	return mongo.Pipeline{bson.D{{Key: "$set", Value: set}}}
}

func (s *MongoResourceStore) RewritePathPrefix(ctx context.Context, oldPrefix, newPrefix string, newDepartmentID *primitive.ObjectID) error {
	update := pathRewriteUpdate(oldPrefix, newPrefix, newDepartmentID)

	for _, coll := range []*mongo.Collection{s.folders, s.documents} {
		if _, err := coll.UpdateMany(ctx, descendantFilter(oldPrefix), update); err != nil {
			return fmt.Errorf("rewriting paths in %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoResourceStore) MarkDeletedByPrefix(ctx context.Context, prefix string, deletedAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"is_deleted": true,
		"deleted_at": deletedAt,
		"updated_at": time.Now(),
	}}
	for _, coll := range []*mongo.Collection{s.folders, s.documents} {
		if _, err := coll.UpdateMany(ctx, descendantFilter(prefix), update); err != nil {
			return fmt.Errorf("marking deleted in %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoResourceStore) ClearDeletedByPrefix(ctx context.Context, prefix string) error {
	filter := descendantFilter(prefix)
	filter["is_deleted"] = true
	update := bson.M{
		"$set":   bson.M{"is_deleted": false, "updated_at": time.Now()},
		"$unset": bson.M{"deleted_at": ""},
	}
	for _, coll := range []*mongo.Collection{s.folders, s.documents} {
		if _, err := coll.UpdateMany(ctx, filter, update); err != nil {
			return fmt.Errorf("clearing deleted in %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoResourceStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, coll := range []*mongo.Collection{s.folders, s.documents} {
		if _, err := coll.DeleteMany(ctx, descendantFilter(prefix)); err != nil {
			return fmt.Errorf("deleting by prefix in %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// WithTransaction runs fn inside a mongo session so that the folder and
// document collections are updated atomically. fn must use the session
// context it receives for every store call.
func (s *MongoResourceStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
