package main

import (
	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ UIDHandler = (*ObjectIDHandler)(nil) // ensure ObjectIDHandler implements UIDHandler.

// UIDHandler is an interface for getting and checking books ids.
type UIDHandler interface {
	Generate() string
	IsValid(id string) bool
}

// ObjectIDHandler implements the UIDHandler interface with
// 12 bytes object ids in their 24 hex characters form.
type ObjectIDHandler struct{}

// NewObjectIDHandler returns a ready to use ObjectIDHandler.
func NewObjectIDHandler() *ObjectIDHandler {
	return &ObjectIDHandler{}
}

// Generate provides a new unique identifier.
func (idh *ObjectIDHandler) Generate() string {
	return primitive.NewObjectID().Hex()
}

// IsValid checks if a given string is a well-formed object id.
func (idh *ObjectIDHandler) IsValid(id string) bool {
	return primitive.IsValidObjectID(id)
}

// GenerateID provides a random prefixed identifier.
func GenerateID(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}
