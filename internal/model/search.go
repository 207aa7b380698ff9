package model

import "time"

// SearchDocument is an indexed document served by hybrid search.
type SearchDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// KeywordHit is one full-text search match with its rank score.
type KeywordHit struct {
	ID    string
	Title string
	Score float64
}
