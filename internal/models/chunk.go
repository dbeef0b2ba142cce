package models

// ChunkType labels the legal structure a chunk was cut from.
type ChunkType string

const (
	ChunkJudgmentBody   ChunkType = "judgment-body"
	ChunkOrder          ChunkType = "order"
	ChunkHeld           ChunkType = "held"
	ChunkFacts          ChunkType = "facts"
	ChunkConclusion     ChunkType = "conclusion"
	ChunkDisposal       ChunkType = "disposal"
	ChunkStatuteSection ChunkType = "statute-section"
	ChunkGeneric        ChunkType = "generic"
)

// Chunk is a token-bounded unit of retrievable text.
// Embedding stays nil until the batch generator attaches a vector.
type Chunk struct {
	ChunkID          string    `json:"chunk_id"`
	DocumentID       string    `json:"document_id"`
	Text             string    `json:"text"`
	TokenCount       int       `json:"token_count"`
	CharCount        int       `json:"char_count"`
	ChunkIndex       int       `json:"chunk_index"`
	SectionTitle     string    `json:"section_title,omitempty"`
	ParagraphNumbers []int     `json:"paragraph_numbers,omitempty"`
	LegalCitations   []string  `json:"legal_citations,omitempty"`
	ChunkType        ChunkType `json:"chunk_type"`
	Embedding        []float32 `json:"embedding,omitempty"`
}
