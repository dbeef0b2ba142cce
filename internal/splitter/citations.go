package splitter

import (
	"regexp"
	"strconv"
	"strings"
)

// Citation patterns for Indian legal text: case names, reporter citations
// and statute references.
var (
	caseName     = regexp.MustCompile(`[A-Z][A-Za-z.&'()-]*(?:\s+[A-Z][A-Za-z.&'()-]*){0,6}\s+v\.?\s+[A-Z][A-Za-z.&'()-]*(?:\s+[A-Z][A-Za-z.&'()-]*){0,6}`)
	reporterCite = regexp.MustCompile(`\(\d{4}\)\s+\d+\s+[A-Z]{2,5}\s+\d+|AIR\s+\d{4}\s+[A-Z][A-Za-z]*\s+\d+|\d{4}\s+SCC\s+OnLine\s+[A-Z][A-Za-z]*\s+\d+`)
	statuteRef   = regexp.MustCompile(`[Ss]ections?\s+\d+[A-Z]?(?:\(\d+\))?(?:\s*(?:,|and)\s*\d+[A-Z]?(?:\(\d+\))?)*\s+of\s+the\s+[A-Z][A-Za-z ]*(?:Act|Code|Constitution|Sanhita)(?:,?\s+\d{4})?`)
)

// ExtractCitations returns the legal citations found in text, in order of
// first appearance, without duplicates.
func ExtractCitations(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{reporterCite, caseName, statuteRef} {
		for _, m := range re.FindAllString(text, -1) {
			m = strings.TrimSpace(m)
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

// ExtractParagraphNumbers returns the numbered-clause numbers spanned by
// text, in document order.
func ExtractParagraphNumbers(text string) []int {
	var nums []int
	for _, m := range numberedClause.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			nums = append(nums, n)
		}
	}
	return nums
}
