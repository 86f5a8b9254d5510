package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SessionRecord identifies a previously scraped page state. At most one
// record is canonical per (URL, ContentHash) pair; a repeat pair means the
// page content was already processed and extraction is skipped.
// Records are created once and never mutated.
type SessionRecord struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	URL         string        `bson:"url" json:"url"`
	ContentHash string        `bson:"contentHash" json:"content_hash"`
	CreatedAt   time.Time     `bson:"createdAt" json:"created_at"`
}

// NewContentHash computes the SHA-256 digest of normalized page text,
// hex encoded. Used to detect re-visits of unchanged content.
func NewContentHash(normalizedText string) string {
	sum := sha256.Sum256([]byte(normalizedText))
	return hex.EncodeToString(sum[:])
}
