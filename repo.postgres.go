package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// bookModel is the relational row of a book.
type bookModel struct {
	ID        string    `gorm:"primaryKey;size:24"`
	Title     string    `gorm:"not null"`
	Author    string    `gorm:"not null"`
	Publisher string    `gorm:"not null"`
	ImagePath string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (bookModel) TableName() string {
	return "books"
}

func bookToModel(b Book) bookModel {
	return bookModel{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Publisher: b.Publisher,
		ImagePath: b.ImagePath,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func bookFromModel(m bookModel) Book {
	return Book{
		ID:        m.ID,
		Title:     m.Title,
		Author:    m.Author,
		Publisher: m.Publisher,
		ImagePath: m.ImagePath,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// columns translates book json field names into table columns.
var columns = map[string]string{
	"title":     "title",
	"author":    "author",
	"publisher": "publisher",
	"imagePath": "image_path",
	"updatedAt": "updated_at",
}

type postgresBookStorage struct {
	logger *zap.Logger
	db     *gorm.DB
}

// GetPostgresClient opens the database and runs the books table migration.
func GetPostgresClient(config *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.Postgres.DSN), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&bookModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

// NewPostgresBookStorage provides an instance of postgres-based book storage.
func NewPostgresBookStorage(logger *zap.Logger, db *gorm.DB) BookStorage {
	return &postgresBookStorage{logger: logger, db: db}
}

// Add inserts a new book row.
func (ps *postgresBookStorage) Add(ctx context.Context, book Book) error {
	model := bookToModel(book)
	return ps.db.WithContext(ctx).Create(&model).Error
}

// GetOne retrieves a book row by its ID.
func (ps *postgresBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var model bookModel
	err := ps.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return bookFromModel(model), nil
}

// GetAll returns all books ordered by creation time.
func (ps *postgresBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	var models []bookModel
	if err := ps.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(models))
	for _, m := range models {
		books = append(books, bookFromModel(m))
	}
	return books, nil
}

// Update writes only the supplied columns then reloads the row.
func (ps *postgresBookStorage) Update(ctx context.Context, id string, update BookUpdate) (Book, error) {
	values := make(map[string]interface{})
	for field, value := range update.Fields() {
		values[columns[field]] = value
	}
	var book Book
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookModel{}).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBookNotFound
		}
		var model bookModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			return err
		}
		book = bookFromModel(model)
		return nil
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// Delete removes a book row and returns its last state.
func (ps *postgresBookStorage) Delete(ctx context.Context, id string) (Book, error) {
	var model bookModel
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		return tx.Delete(&bookModel{}, "id = ?", id).Error
	})
	if err != nil {
		return Book{}, err
	}
	return bookFromModel(model), nil
}
