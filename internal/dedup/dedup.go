// Package dedup collapses duplicate chunks by normalized content hash and
// merges near-duplicates that differ only by formatting artifacts.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/juridoc/ingest-go/internal/models"
)

// Service detects exact and near duplicates among candidate chunks.
type Service struct {
	// NearDuplicateThreshold is the token-set overlap ratio above which
	// two same-section chunks are considered duplicates. Zero disables
	// the near-duplicate pass.
	NearDuplicateThreshold float64
}

// New returns a dedup service with the near-duplicate pass enabled.
func New() *Service {
	return &Service{NearDuplicateThreshold: 0.92}
}

// HashText returns the stable content hash of text with whitespace and
// case normalized. Used both per chunk and for the whole document.
func HashText(text string) string {
	norm := normalize(text)
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Detect returns the chunks surviving deduplication, preserving their
// relative ChunkIndex order. Exact duplicates collapse to the first
// occurrence; the optional near-duplicate pass then merges same-section
// chunks whose token-set overlap exceeds the threshold.
func (s *Service) Detect(chunks []models.Chunk) []models.Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	seen := make(map[string]struct{}, len(chunks))
	survivors := make([]models.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		h := HashText(ch.Text)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		survivors = append(survivors, ch)
	}

	if s.NearDuplicateThreshold <= 0 || len(survivors) <= 1 {
		return survivors
	}

	tokenSets := make([]map[string]struct{}, len(survivors))
	for i, ch := range survivors {
		tokenSets[i] = tokenSet(ch.Text)
	}

	dropped := make([]bool, len(survivors))
	for i := range survivors {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(survivors); j++ {
			if dropped[j] || survivors[i].SectionTitle != survivors[j].SectionTitle {
				continue
			}
			if overlapRatio(tokenSets[i], tokenSets[j]) >= s.NearDuplicateThreshold {
				dropped[j] = true
			}
		}
	}

	out := survivors[:0]
	for i, ch := range survivors {
		if !dropped[i] {
			out = append(out, ch)
		}
	}
	return out
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalize(text)) {
		set[w] = struct{}{}
	}
	return set
}

// overlapRatio is Jaccard similarity over word sets.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	for w := range small {
		if _, ok := large[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
