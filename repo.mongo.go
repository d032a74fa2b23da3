package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// mongoBook is the document layout of a book inside the collection.
type mongoBook struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Author    string             `bson:"author"`
	Publisher string             `bson:"publisher"`
	ImagePath string             `bson:"imagePath"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (mb mongoBook) toBook() Book {
	return Book{
		ID:        mb.ID.Hex(),
		Title:     mb.Title,
		Author:    mb.Author,
		Publisher: mb.Publisher,
		ImagePath: mb.ImagePath,
		CreatedAt: mb.CreatedAt.UTC(),
		UpdatedAt: mb.UpdatedAt.UTC(),
	}
}

type mongoBookStorage struct {
	logger     *zap.Logger
	collection *mongo.Collection
}

// NewMongoBookStorage provides an instance of mongodb-based book storage.
func NewMongoBookStorage(logger *zap.Logger, collection *mongo.Collection) BookStorage {
	return &mongoBookStorage{
		logger:     logger,
		collection: collection,
	}
}

// GetMongoClient connects to the mongodb server and checks it answers.
func GetMongoClient(config *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.Mongo.ConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %v", err)
	}
	// test connection.
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Add inserts a new book document.
func (ms *mongoBookStorage) Add(ctx context.Context, book Book) error {
	oid, err := primitive.ObjectIDFromHex(book.ID)
	if err != nil {
		return fmt.Errorf("invalid book id %q: %w", book.ID, err)
	}
	_, err = ms.collection.InsertOne(ctx, mongoBook{
		ID:        oid,
		Title:     book.Title,
		Author:    book.Author,
		Publisher: book.Publisher,
		ImagePath: book.ImagePath,
		CreatedAt: book.CreatedAt,
		UpdatedAt: book.UpdatedAt,
	})
	return err
}

// GetOne retrieves a book document based on its ID. A malformed
// id cannot match any document so it is reported as not found.
func (ms *mongoBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrBookNotFound
	}
	var doc mongoBook
	err = ms.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return doc.toBook(), nil
}

// GetAll retrieves all book documents in the collection natural order.
func (ms *mongoBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	cursor, err := ms.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []mongoBook
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, doc.toBook())
	}
	return books, nil
}

// Update sets only the supplied fields and returns the document after the update.
func (ms *mongoBookStorage) Update(ctx context.Context, id string, update BookUpdate) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrBookNotFound
	}
	var doc mongoBook
	err = ms.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": update.Fields()},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return doc.toBook(), nil
}

// Delete removes a book document and returns its last state.
func (ms *mongoBookStorage) Delete(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrBookNotFound
	}
	var doc mongoBook
	err = ms.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return doc.toBook(), nil
}
