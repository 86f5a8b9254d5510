package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// EmbeddingDimension is the fixed dimensionality of entry embeddings.
// All embeddings in one corpus must share this dimension; mixing
// dimensionalities breaks similarity search.
const EmbeddingDimension = 768

// Entry represents a single victim record extracted from a leak-site page.
// Entries are owned by the persisted corpus; once stored they are never
// updated in place.
type Entry struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Victim      string        `bson:"victim" json:"victim"`
	Group       string        `bson:"group" json:"group"`
	Industry    string        `bson:"industry,omitempty" json:"industry,omitempty"`
	Country     string        `bson:"country,omitempty" json:"country,omitempty"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Domain      string        `bson:"domain,omitempty" json:"domain,omitempty"`
	PostTitle   string        `bson:"postTitle,omitempty" json:"post_title,omitempty"`
	PostURL     string        `bson:"postUrl,omitempty" json:"post_url,omitempty"`
	AttackDate  string        `bson:"attackDate,omitempty" json:"attack_date,omitempty"`
	Discovered  string        `bson:"discovered,omitempty" json:"discovered,omitempty"`
	Published   string        `bson:"published,omitempty" json:"published,omitempty"`

	// Derived fields, filled at store time
	SearchableText string    `bson:"searchableText,omitempty" json:"searchable_text,omitempty"`
	Embedding      []float32 `bson:"embedding,omitempty" json:"-"`
	CreatedAt      time.Time `bson:"createdAt,omitempty" json:"created_at,omitempty"`
}

// Normalize folds the identifying victim field (trim + lowercase) so that
// near-identical names hash and embed consistently.
func (e *Entry) Normalize() {
	e.Victim = strings.ToLower(strings.TrimSpace(e.Victim))
}

// BuildSearchableText concatenates the salient fields used as the embedding
// input for similarity search. The field set is fixed for the whole corpus.
func (e *Entry) BuildSearchableText() string {
	fields := []string{e.Victim, e.Industry, e.Country, e.Group, e.Description}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Clone returns a deep copy of the entry
func (e *Entry) Clone() *Entry {
	copied := *e
	if e.Embedding != nil {
		copied.Embedding = make([]float32, len(e.Embedding))
		copy(copied.Embedding, e.Embedding)
	}
	return &copied
}

// DedupResult is the outcome of routing one candidate entry through the
// similarity deduplicator.
type DedupResult struct {
	// Stored is true when the candidate was inserted as a new corpus member,
	// false when an existing near-duplicate was reused instead.
	Stored bool
	// Entry is the stored or reused corpus entry
	Entry *Entry
	// Similarity is the cosine score of the reused match; zero when stored
	Similarity float64
}
