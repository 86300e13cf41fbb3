package models

import "time"

// OriginKind says where a document came from: a tabular (CSV) row or a plain
// text file.
type OriginKind string

const (
	OriginTabular OriginKind = "tabular"
	OriginText    OriginKind = "text"
)

// Document is the uniform representation of one ingested source unit.
// Tabular files yield one Document per row; text files one per file.
// Immutable after ingestion.
type Document struct {
	SourceID string
	Origin   OriginKind
	Text     string
	Metadata map[string]string
}

// Chunk is a bounded text window cut from a Document, the unit of embedding
// and retrieval. Metadata is copied from the parent Document and augmented
// with the chunk position.
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// SearchHit is one retrieval result: a chunk plus its similarity score
// (cosine, higher is closer).
type SearchHit struct {
	Chunk Chunk
	Score float64
}

// ClientProfile is the static record of the property owner the call is
// about. Supplied at session creation, never mutated afterwards.
type ClientProfile struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Bedrooms     int    `json:"bedrooms"`
	BoughtPrice  int64  `json:"bought_price"`
	CurrentPrice int64  `json:"current_price"`
	PurchaseYear int    `json:"purchase_year"`
}

// ConversationTurn is one utterance/reply exchange, appended to the audit
// log and never mutated.
type ConversationTurn struct {
	ID        string    `json:"id"`
	CallID    string    `json:"call_id"`
	UserText  string    `json:"user_text"`
	ReplyText string    `json:"reply_text"`
	Intent    string    `json:"intent"`
	CreatedAt time.Time `json:"created_at"`
}
