package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, req BookRequest, image *ImageUpload) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id string, req BookRequest, image *ImageUpload) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
}

type BookService struct {
	logger      *zap.Logger
	config      *Config
	clock       Clocker
	idsHandler  UIDHandler
	validate    *validator.Validate
	storage     BookStorage
	images      ImageStore
	queue       Queuer
	imagePrefix string
}

// NewBookService provides the books service. The queue is optional and
// receives the state of each book after a successful write.
func NewBookService(logger *zap.Logger, config *Config, clock Clocker, ids UIDHandler, storage BookStorage, images ImageStore, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:      logger,
		config:      config,
		clock:       clock,
		idsHandler:  ids,
		validate:    NewValidator(),
		storage:     storage,
		images:      images,
		queue:       queue,
		imagePrefix: config.Images.URLPrefix,
	}
}

// now returns the write timestamp truncated to the precision kept by all stores.
func (bs *BookService) now() time.Time {
	return bs.clock.Now().UTC().Truncate(time.Millisecond)
}

// saveImage persists the uploaded image and returns its stored name
// along with its server-relative path.
func (bs *BookService) saveImage(ctx context.Context, image *ImageUpload) (string, string, error) {
	name := NewImageName(bs.clock.Now(), image.Filename)
	if err := bs.images.Save(ctx, name, image.Content); err != nil {
		return "", "", fmt.Errorf("failed to save image: %w", err)
	}
	return name, bs.imagePrefix + "/" + name, nil
}

// dropImage removes an image saved for a write which did not complete.
func (bs *BookService) dropImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := bs.images.Remove(ctx, name); err != nil {
		bs.logger.Error("service: failed to remove unused image", zap.String("book.image", name), zap.Error(err))
	}
}

func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}

func (bs *BookService) Add(ctx context.Context, req BookRequest, image *ImageUpload) (Book, error) {
	if err := ValidateBookRequest(bs.validate, &req); err != nil {
		return Book{}, err
	}

	now := bs.now()
	book := Book{
		ID:        bs.idsHandler.Generate(),
		Title:     req.Title,
		Author:    req.Author,
		Publisher: req.Publisher,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var imageName string
	if image != nil {
		name, path, err := bs.saveImage(ctx, image)
		if err != nil {
			return Book{}, err
		}
		imageName, book.ImagePath = name, path
	}

	if err := bs.storage.Add(ctx, book); err != nil {
		bs.dropImage(ctx, imageName)
		return Book{}, err
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	id = strings.ToLower(id)
	if !bs.idsHandler.IsValid(id) {
		return Book{}, ErrBookNotFound
	}
	return bs.storage.GetOne(ctx, id)
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	return bs.storage.GetAll(ctx)
}

// Update replaces the supplied fields only. The book existence is checked
// before the image is saved so that unknown ids do not leave files behind.
func (bs *BookService) Update(ctx context.Context, id string, req BookRequest, image *ImageUpload) (Book, error) {
	id = strings.ToLower(id)
	if !bs.idsHandler.IsValid(id) {
		return Book{}, ErrBookNotFound
	}
	if _, err := bs.storage.GetOne(ctx, id); err != nil {
		return Book{}, err
	}

	update := req.Update()
	update.UpdatedAt = bs.now()
	var imageName string
	if image != nil {
		name, path, err := bs.saveImage(ctx, image)
		if err != nil {
			return Book{}, err
		}
		imageName = name
		update.ImagePath = &path
	}

	book, err := bs.storage.Update(ctx, id, update)
	if err != nil {
		bs.dropImage(ctx, imageName)
		return Book{}, err
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, id string) (Book, error) {
	id = strings.ToLower(id)
	if !bs.idsHandler.IsValid(id) {
		return Book{}, ErrBookNotFound
	}
	book, err := bs.storage.Delete(ctx, id)
	if err != nil {
		return Book{}, err
	}
	bs.publish(ctx, DeleteQueue, book)
	return book, nil
}
