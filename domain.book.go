package main

import (
	"context"
	"time"
)

// Book represents a book entity.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Publisher string    `json:"publisher"`
	ImagePath string    `json:"imagePath"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookUpdate describes a partial modification of a book. Only non-nil
// fields are replaced. UpdatedAt is always written.
type BookUpdate struct {
	Title     *string
	Author    *string
	Publisher *string
	ImagePath *string
	UpdatedAt time.Time
}

// Apply returns a copy of the book with the update fields replaced.
func (u BookUpdate) Apply(book Book) Book {
	if u.Title != nil {
		book.Title = *u.Title
	}
	if u.Author != nil {
		book.Author = *u.Author
	}
	if u.Publisher != nil {
		book.Publisher = *u.Publisher
	}
	if u.ImagePath != nil {
		book.ImagePath = *u.ImagePath
	}
	book.UpdatedAt = u.UpdatedAt
	return book
}

// Fields maps the book json field names to their new values.
func (u BookUpdate) Fields() map[string]interface{} {
	fields := map[string]interface{}{"updatedAt": u.UpdatedAt}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Author != nil {
		fields["author"] = *u.Author
	}
	if u.Publisher != nil {
		fields["publisher"] = *u.Publisher
	}
	if u.ImagePath != nil {
		fields["imagePath"] = *u.ImagePath
	}
	return fields
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, book Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id string, update BookUpdate) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
}
