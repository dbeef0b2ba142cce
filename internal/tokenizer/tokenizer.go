// Package tokenizer counts tokens with the same BPE encoding the target
// embedding models use. Character-length heuristics are not an acceptable
// substitute anywhere a token budget is enforced.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is OpenAI's cl100k_base BPE (~100k vocab), the encoding
// shared by the text-embedding model family this pipeline targets.
const DefaultEncoding = "cl100k_base"

// Adapter counts tokens for strings. Safe for concurrent use.
type Adapter struct {
	enc *tiktoken.Tiktoken
}

var (
	defaultOnce    sync.Once
	defaultAdapter *Adapter
	defaultErr     error
)

// New creates an adapter for the named encoding.
func New(encoding string) (*Adapter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding %q: %w", encoding, err)
	}
	return &Adapter{enc: enc}, nil
}

// Default returns the process-wide cl100k_base adapter.
// The encoding tables are loaded once and cached.
func Default() (*Adapter, error) {
	defaultOnce.Do(func() {
		defaultAdapter, defaultErr = New(DefaultEncoding)
	})
	return defaultAdapter, defaultErr
}

// Count returns the number of tokens in text.
func (a *Adapter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(a.enc.Encode(text, nil, nil))
}

// Tail returns a suffix of text holding at most maxTokens tokens,
// cut at word boundaries. Used to seed overlap between adjacent chunks.
func (a *Adapter) Tail(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return ""
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	// Accumulate words from the end until the next one would bust the budget.
	used := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		n := a.Count(words[i]) + 1 // +1 for the joining space
		if used+n > maxTokens {
			break
		}
		used += n
		start = i
	}
	if start == len(words) {
		return ""
	}
	return strings.Join(words[start:], " ")
}

// TruncateToLimit returns the longest word-boundary prefix of text whose
// exact token count is within maxTokens, and the remainder.
func (a *Adapter) TruncateToLimit(text string, maxTokens int) (head, rest string) {
	if maxTokens <= 0 {
		return "", text
	}
	if a.Count(text) <= maxTokens {
		return text, ""
	}

	words := strings.Fields(text)
	// Greedy prefix by per-word counts, then verify against the joined string;
	// BPE merges across spaces can only shrink the joined count, never grow it,
	// but the final measurement is authoritative either way.
	used, cut := 0, 0
	for i, w := range words {
		n := a.Count(w) + 1
		if used+n > maxTokens {
			break
		}
		used += n
		cut = i + 1
	}
	for cut > 1 && a.Count(strings.Join(words[:cut], " ")) > maxTokens {
		cut--
	}
	if cut > 0 {
		return strings.Join(words[:cut], " "), strings.Join(words[cut:], " ")
	}

	// The first word alone exceeds the budget, so there is no word boundary
	// to cut at. Cut inside the word at the token level; the ceiling must
	// hold even for unbroken token-dense strings.
	ids := a.enc.Encode(words[0], nil, nil)
	k := min(maxTokens, len(ids))
	head = strings.ToValidUTF8(a.enc.Decode(ids[:k]), "")
	for k > 1 && a.Count(head) > maxTokens {
		k--
		head = strings.ToValidUTF8(a.enc.Decode(ids[:k]), "")
	}
	restWords := words[1:]
	if tail := strings.ToValidUTF8(a.enc.Decode(ids[k:]), ""); tail != "" {
		restWords = append([]string{tail}, restWords...)
	}
	return head, strings.Join(restWords, " ")
}
