package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cover is a cached cover-image document stored in MongoDB (collection "portadas")
type Cover struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"titulo" json:"title"`
	TitleKey  string             `bson:"titulo_clave" json:"-"`
	URL       string             `bson:"urlPortada" json:"url"`
	EditionID string             `bson:"olid,omitempty" json:"edition_id,omitempty"`
	ImageKey  *string            `bson:"imagen_clave,omitempty" json:"image_key,omitempty"` // uploaded custom image
	ImageURL  *string            `bson:"-" json:"image_url,omitempty"`                      // computed on read
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// CoverCollection is the Mongo collection holding cover documents
const CoverCollection = "portadas"

// NormalizeTitle builds the lookup key for a title: trimmed, lowercase, single spaced
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
