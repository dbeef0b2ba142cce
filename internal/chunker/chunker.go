// Package chunker splits normalized legal text into token-bounded chunks.
// Every budget decision is made with the embedding model's own tokenizer;
// the per-chunk ceiling is enforced unconditionally before anything is
// handed downstream.
package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/juridoc/ingest-go/internal/models"
	"github.com/juridoc/ingest-go/internal/splitter"
	"github.com/juridoc/ingest-go/internal/tokenizer"
)

// Config defines chunking parameters.
type Config struct {
	// MaxChunkTokens is the hard per-chunk ceiling. Must leave margin
	// below the embedding model's context limit.
	MaxChunkTokens int
	// OverlapTokens seeds each chunk with the tail of its predecessor.
	OverlapTokens int
	// MinChunkChars drops smaller chunks as extraction noise.
	MinChunkChars int
}

// DefaultConfig returns sensible defaults for 8k-context embedding models.
func DefaultConfig() Config {
	return Config{
		MaxChunkTokens: 500,
		OverlapTokens:  50,
		MinChunkChars:  50,
	}
}

// Result carries the emitted chunk drafts and correction bookkeeping.
type Result struct {
	Chunks []models.Chunk
	// OversizedCorrected counts chunks that violated the token ceiling
	// after measurement and were forcibly re-split.
	OversizedCorrected int
}

// Chunker composes the legal structure splitter with the tokenizer adapter.
type Chunker struct {
	tok *tokenizer.Adapter
	cfg Config
}

// New creates a chunker. Returns an error for budgets too small to hold a
// meaningful sentence plus overlap.
func New(tok *tokenizer.Adapter, cfg Config) (*Chunker, error) {
	if cfg.MaxChunkTokens < 50 {
		return nil, fmt.Errorf("max chunk tokens %d below minimum 50", cfg.MaxChunkTokens)
	}
	if cfg.OverlapTokens < 0 || cfg.OverlapTokens >= cfg.MaxChunkTokens {
		return nil, fmt.Errorf("overlap tokens %d must be in [0, max)", cfg.OverlapTokens)
	}
	if cfg.MinChunkChars <= 0 {
		cfg.MinChunkChars = 50
	}
	return &Chunker{tok: tok, cfg: cfg}, nil
}

// Chunk splits text into ordered token-bounded chunk drafts. DocumentID is
// left for the caller to assign.
func (c *Chunker) Chunk(text string, kind models.DocumentKind) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Result{}, nil
	}

	var drafts []draft
	for _, section := range splitter.SplitSections(text, kind) {
		drafts = append(drafts, c.chunkSection(section)...)
	}

	res := &Result{}
	var kept []draft
	for _, d := range drafts {
		pieces, corrected := c.enforceCeiling(d)
		res.OversizedCorrected += corrected
		kept = append(kept, pieces...)
	}

	for _, d := range kept {
		if len(d.text) < c.cfg.MinChunkChars {
			continue
		}
		res.Chunks = append(res.Chunks, models.Chunk{
			ChunkID:          uuid.New().String(),
			Text:             d.text,
			TokenCount:       c.tok.Count(d.text),
			CharCount:        len(d.text),
			ChunkIndex:       len(res.Chunks),
			SectionTitle:     d.section.Title,
			ParagraphNumbers: splitter.ExtractParagraphNumbers(d.text),
			LegalCitations:   splitter.ExtractCitations(d.text),
			ChunkType:        d.section.Type,
		})
	}
	return res, nil
}

// draft is a chunk before metadata extraction and the final token gate.
type draft struct {
	text    string
	section splitter.Section
}

// chunkSection emits one draft for in-budget sections, otherwise walks the
// secondary split hierarchy.
func (c *Chunker) chunkSection(section splitter.Section) []draft {
	if c.tok.Count(section.Text) <= c.cfg.MaxChunkTokens {
		return []draft{{text: section.Text, section: section}}
	}

	units := c.flatten(section.Text)
	return c.accumulate(units, section)
}

// flatten expands a span into units no larger than necessary: secondary
// sub-clauses where the patterns apply, sentences otherwise. Units that
// are themselves over budget are expanded recursively; a single oversized
// sentence stays whole here and is caught by the final gate.
func (c *Chunker) flatten(text string) []string {
	units := splitter.SplitSubUnits(text)
	if units == nil {
		return splitter.SplitSentences(text)
	}

	var out []string
	for _, u := range units {
		if c.tok.Count(u) <= c.cfg.MaxChunkTokens {
			out = append(out, u)
			continue
		}
		out = append(out, c.flatten(u)...)
	}
	return out
}

// accumulate packs consecutive units into a running buffer until adding
// the next unit would exceed the budget, then flushes and seeds the next
// buffer with the overlap tail of the emitted chunk.
func (c *Chunker) accumulate(units []string, section splitter.Section) []draft {
	var out []draft
	var buf strings.Builder
	seeded := false

	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		seeded = false
		if text == "" {
			return
		}
		out = append(out, draft{text: text, section: section})
		if c.cfg.OverlapTokens > 0 {
			if tail := c.tok.Tail(text, c.cfg.OverlapTokens); tail != "" {
				buf.WriteString(tail)
				seeded = true
			}
		}
	}

	for _, unit := range units {
		if buf.Len() > 0 {
			candidate := buf.String() + "\n" + unit
			if c.tok.Count(candidate) > c.cfg.MaxChunkTokens {
				// A buffer holding only the overlap seed means the unit
				// itself busts the budget; emit it alone and let the
				// final gate cut it.
				if seeded {
					buf.Reset()
					seeded = false
					buf.WriteString(unit)
					continue
				}
				flush()
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
				buf.WriteString(unit)
				// The buffer now carries real content, not just the seed.
				seeded = false
				continue
			}
			buf.WriteString("\n")
			buf.WriteString(unit)
			seeded = false
			continue
		}
		buf.WriteString(unit)
		seeded = false
	}
	if strings.TrimSpace(buf.String()) != "" && !seeded {
		out = append(out, draft{text: strings.TrimSpace(buf.String()), section: section})
	}
	return out
}

// enforceCeiling re-measures a draft with the exact tokenizer and forcibly
// re-splits at word boundaries if it is over budget. This path must never
// let an oversized chunk through: overflowing the embedding context is the
// failure mode this whole package exists to prevent.
func (c *Chunker) enforceCeiling(d draft) ([]draft, int) {
	if c.tok.Count(d.text) <= c.cfg.MaxChunkTokens {
		return []draft{d}, 0
	}

	var out []draft
	rest := d.text
	for rest != "" {
		head, tail := c.tok.TruncateToLimit(rest, c.cfg.MaxChunkTokens)
		if head == "" {
			break
		}
		out = append(out, draft{text: head, section: d.section})
		if tail == rest {
			break
		}
		rest = tail
	}
	return out, 1
}
