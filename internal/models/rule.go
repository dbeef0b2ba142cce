package models

// RuleType is the closed set of validation rule variants.
type RuleType string

const (
	RuleContentLength  RuleType = "content-length"
	RuleFileSize       RuleType = "file-size"
	RuleKeywordDensity RuleType = "keyword-density"
	RuleCustom         RuleType = "custom"
)

// ValidationRule is a declarative predicate over job content.
// Immutable once loaded; evaluated read-only.
type ValidationRule struct {
	Name         string         `json:"name" yaml:"name"`
	RuleType     RuleType       `json:"rule_type" yaml:"rule_type"`
	Parameters   RuleParameters `json:"parameters" yaml:"parameters"`
	ErrorMessage string         `json:"error_message" yaml:"error_message"`
}

// RuleParameters holds the typed knobs each rule variant reads.
// Only the fields relevant to a rule's RuleType are consulted.
type RuleParameters struct {
	MinLength    int      `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength    int      `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	MaxFileSize  int64    `json:"max_file_size,omitempty" yaml:"max_file_size,omitempty"`
	Keywords     []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	MinMatches   int      `json:"min_matches,omitempty" yaml:"min_matches,omitempty"`
	Pattern      string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MatchPattern bool     `json:"match_pattern,omitempty" yaml:"match_pattern,omitempty"`
}
