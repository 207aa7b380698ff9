package search

// Ranked is one entry in a result list handed to fusion: an ID with the
// leg-local score that produced its rank.
type Ranked struct {
	ID    string
	Score float64
}

// Result is a fused search hit. Title/Content are hydrated from the
// document repository after fusion.
type Result struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content,omitempty"`
	Source  string   `json:"source,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Score   float64  `json:"score"`
}
