package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Book is a processed source registered for a user. The ID is derived
// from the content so re-uploading the same book is detected and
// skipped.
type Book struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	Pages   int       `json:"pages"`
	Chunks  int       `json:"chunks"`
	AddedAt time.Time `json:"added_at"`
}

// PageText is one page of extracted document text, the ingestion
// pipeline's input unit. Page numbers are 1-based.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// BookID computes the content-addressed identifier for a document
// from its extracted pages
func BookID(pages []PageText) string {
	h := sha256.New()
	for _, p := range pages {
		h.Write([]byte(p.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
