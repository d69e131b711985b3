package entity

// Chunk is a bounded span of source-document text used as a retrieval unit
type Chunk struct {
	ID      string            `json:"id"`
	Content string            `json:"content"`
	Source  string            `json:"source"`
	Headers map[string]string `json:"headers,omitempty"`
	Index   int               `json:"index"`
}

// RetrievalResult pairs a chunk with its similarity to the query
type RetrievalResult struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float32 `json:"similarity"`
}

type RerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type RerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type RerankResponse struct {
	ID      string         `json:"id,omitempty"`
	Results []RerankResult `json:"results"`
}

// RankedDocument is a candidate document after relevance scoring
type RankedDocument struct {
	Index   int     `json:"index"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type SourceFile struct {
	Name    string
	Content []byte
}
