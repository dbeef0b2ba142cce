// Package splitter provides pattern-based hierarchical splitting of legal
// documents: primary section markers, numbered/lettered/roman sub-clauses,
// and sentence boundaries as the last resort.
package splitter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/juridoc/ingest-go/internal/models"
)

// Section is a top-level span of a document, cut at a primary marker.
type Section struct {
	Title string
	Type  models.ChunkType
	Text  string
}

// primaryMarkers lists the recognized section headings in fixed priority
// order. Order matters for reproducible tie-breaking when two markers
// start at the same offset.
var primaryMarkers = []struct {
	Marker string
	Type   models.ChunkType
}{
	{"JUDGMENT", models.ChunkJudgmentBody},
	{"ORDER", models.ChunkOrder},
	{"HELD:", models.ChunkHeld},
	{"FACTS:", models.ChunkFacts},
	{"CONCLUSION:", models.ChunkConclusion},
	{"DISPOSAL:", models.ChunkDisposal},
}

var markerLine = regexp.MustCompile(`(?m)^[ \t]*(JUDGMENT|ORDER|HELD:|FACTS:|CONCLUSION:|DISPOSAL:)`)

type markerHit struct {
	start    int
	marker   string
	priority int
}

func markerPriority(marker string) int {
	for i, m := range primaryMarkers {
		if m.Marker == marker {
			return i
		}
	}
	return len(primaryMarkers)
}

func markerType(marker string) models.ChunkType {
	for _, m := range primaryMarkers {
		if m.Marker == marker {
			return m.Type
		}
	}
	return models.ChunkGeneric
}

// SplitSections cuts text at primary legal markers. Fewer than two marker
// hits means the structure is not trustworthy and the whole text is
// returned as a single untyped section.
func SplitSections(text string, kind models.DocumentKind) []Section {
	fallbackType := models.ChunkGeneric
	if kind == models.DocStatute || kind == models.DocRegulation {
		fallbackType = models.ChunkStatuteSection
	}

	matches := markerLine.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < 2 {
		return []Section{{Title: "", Type: fallbackType, Text: text}}
	}

	hits := make([]markerHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, markerHit{
			start:    m[2],
			marker:   text[m[2]:m[3]],
			priority: markerPriority(text[m[2]:m[3]]),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].priority < hits[j].priority
	})

	var sections []Section
	if pre := strings.TrimSpace(text[:hits[0].start]); pre != "" {
		sections = append(sections, Section{Title: "", Type: fallbackType, Text: pre})
	}
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		body := strings.TrimSpace(text[h.start:end])
		if body == "" {
			continue
		}
		sections = append(sections, Section{
			Title: strings.TrimSuffix(h.marker, ":"),
			Type:  markerType(h.marker),
			Text:  body,
		})
	}
	return sections
}

// Secondary sub-clause patterns, in priority order: numbered clauses,
// lettered sub-clauses, roman-numeral sub-clauses.
var (
	numberedClause = regexp.MustCompile(`(?m)^[ \t]*(\d{1,4})\.[ \t]`)
	letteredClause = regexp.MustCompile(`(?m)^[ \t]*\(([a-z])\)[ \t]`)
	romanClause    = regexp.MustCompile(`(?m)^[ \t]*\(([ivx]{1,5})\)[ \t]`)
)

// SplitSubUnits cuts a section body on the highest-priority secondary
// pattern that matches at least twice. Returns nil when none applies,
// signalling the caller to fall back to sentences.
func SplitSubUnits(text string) []string {
	for _, re := range []*regexp.Regexp{numberedClause, letteredClause, romanClause} {
		locs := re.FindAllStringIndex(text, -1)
		if len(locs) < 2 {
			continue
		}
		var units []string
		if head := strings.TrimSpace(text[:locs[0][0]]); head != "" {
			units = append(units, head)
		}
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			if u := strings.TrimSpace(text[loc[0]:end]); u != "" {
				units = append(units, u)
			}
		}
		return units
	}
	return nil
}

// SplitSentences splits text into sentences, never cutting inside one.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Sentence ends only before whitespace or at end of text
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Likely abbreviation like "Hon'ble Dr." when preceded by
				// an uppercase letter
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue
				}
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
