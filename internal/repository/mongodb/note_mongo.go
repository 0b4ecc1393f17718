// Package mongodb stores notes in a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notka/internal/model"
	"notka/internal/repository"
)

// noteDocument is the stored shape of a note.
// FilePath is only read: documents written by older clients carry a single
// file_path and no files array, and are migrated on read. Those documents also
// have an ObjectId _id, which decodes into ID as its hex string.
type noteDocument struct {
	ID         string    `bson:"_id"`
	Title      string    `bson:"title"`
	Content    string    `bson:"content"`
	PageNumber *int      `bson:"page_number,omitempty"`
	Files      []string  `bson:"files"`
	FilePath   *string   `bson:"file_path,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}

func fromModel(n *model.Note) noteDocument {
	files := n.Files
	if files == nil {
		files = []string{}
	}
	return noteDocument{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		PageNumber: n.PageNumber,
		Files:      files,
		CreatedAt:  n.CreatedAt,
	}
}

func (d noteDocument) toModel() *model.Note {
	files := d.Files
	if len(files) == 0 && d.FilePath != nil && *d.FilePath != "" {
		files = []string{*d.FilePath}
	}
	if files == nil {
		files = []string{}
	}
	return &model.Note{
		ID:         d.ID,
		Title:      d.Title,
		Content:    d.Content,
		PageNumber: d.PageNumber,
		Files:      files,
		CreatedAt:  d.CreatedAt,
	}
}

// NoteMongo is a MongoDB implementation of repository.NoteRepository.
type NoteMongo struct {
	coll *mongo.Collection
}

// NewNoteMongo creates a repository over the given collection.
func NewNoteMongo(coll *mongo.Collection) *NoteMongo {
	return &NoteMongo{coll: coll}
}

var (
	_ repository.NoteRepository = (*NoteMongo)(nil)
	_ repository.IDValidator    = (*NoteMongo)(nil)
)

// ValidID accepts UUIDs and the 24 hex digit ObjectIds of older documents.
func (r *NoteMongo) ValidID(id string) bool {
	if _, err := uuid.Parse(id); err == nil {
		return true
	}
	return primitive.IsValidObjectID(id)
}

// idFilter matches the _id as an ObjectId when id is one, otherwise as a string.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

// EnsureIndexes creates the index backing newest-first listing.
func (r *NoteMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_notes_created_at"),
	})
	return err
}

// Create inserts a new note document.
func (r *NoteMongo) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	doc := fromModel(note)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// FindByID fetches a single note by its ID.
func (r *NoteMongo) FindByID(ctx context.Context, id string) (*model.Note, error) {
	var doc noteDocument
	if err := r.coll.FindOne(ctx, idFilter(id)).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	return doc.toModel(), nil
}

// List returns every note, newest first.
func (r *NoteMongo) List(ctx context.Context) ([]model.Note, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []noteDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]model.Note, 0, len(docs))
	for _, d := range docs {
		items = append(items, *d.toModel())
	}
	return items, nil
}

// Update $sets the patched fields and returns the document after the update.
func (r *NoteMongo) Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.PageNumber != nil {
		set["page_number"] = *patch.PageNumber
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

// SetFiles replaces the attachment list. Any legacy file_path is dropped at the same time.
func (r *NoteMongo) SetFiles(ctx context.Context, id string, files []string) (*model.Note, error) {
	if files == nil {
		files = []string{}
	}
	return r.findOneAndUpdate(ctx, id, bson.M{
		"$set":   bson.M{"files": files},
		"$unset": bson.M{"file_path": ""},
	})
}

// Delete removes a note by ID.
func (r *NoteMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *NoteMongo) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*model.Note, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc noteDocument
	if err := r.coll.FindOneAndUpdate(ctx, idFilter(id), update, opts).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	return doc.toModel(), nil
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
