// Package validate gates jobs and their loaded content before expensive
// pipeline work begins.
package validate

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/juridoc/ingest-go/internal/models"
)

// ErrInvalidJob rejects a malformed job at submission. Not retryable.
var ErrInvalidJob = errors.New("invalid job")

// ContentValidationError reports every rule the content failed, not just
// the first, so one round trip surfaces the full picture.
type ContentValidationError struct {
	Failures []string
}

func (e *ContentValidationError) Error() string {
	return fmt.Sprintf("content validation failed: %s", strings.Join(e.Failures, "; "))
}

// Engine evaluates registered validation rules.
type Engine struct {
	rules []models.ValidationRule
}

// NewEngine creates an engine over the given rules. With no rules, the
// built-in default set applies.
func NewEngine(rules []models.ValidationRule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Rules returns the registered rules (read-only by convention).
func (e *Engine) Rules() []models.ValidationRule {
	return e.rules
}

// legalTerms is the fixed term set for keyword-density checks: a legal
// document is expected to contain at least a few of these. Rejects empty
// or garbage extractions.
var legalTerms = []string{
	"section", "court", "judgment", "act", "appellant", "respondent",
	"petitioner", "order", "law", "provision", "clause", "article",
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []models.ValidationRule {
	return []models.ValidationRule{
		{
			Name:     "content-length",
			RuleType: models.RuleContentLength,
			Parameters: models.RuleParameters{
				MinLength: 100,
				MaxLength: 10_000_000,
			},
			ErrorMessage: "content length outside accepted bounds",
		},
		{
			Name:     "file-size",
			RuleType: models.RuleFileSize,
			Parameters: models.RuleParameters{
				MaxFileSize: 50 << 20, // 50 MiB
			},
			ErrorMessage: "source file exceeds maximum size",
		},
		{
			Name:     "legal-keyword-density",
			RuleType: models.RuleKeywordDensity,
			Parameters: models.RuleParameters{
				Keywords:   legalTerms,
				MinMatches: 3,
			},
			ErrorMessage: "content does not read like a legal document",
		},
	}
}

// PreFlight validates the job description alone: required fields present
// and, for local files, the source reachable. Returns ErrInvalidJob.
func (e *Engine) PreFlight(job *models.IngestionJob) error {
	var problems []string
	if strings.TrimSpace(job.JobID) == "" {
		problems = append(problems, "empty job id")
	}
	if !job.SourceKind.Valid() {
		problems = append(problems, fmt.Sprintf("unknown source kind %q", job.SourceKind))
	}
	if strings.TrimSpace(job.SourceLocator) == "" {
		problems = append(problems, "empty source locator")
	}
	if !job.DocumentKind.Valid() {
		problems = append(problems, fmt.Sprintf("unknown document kind %q", job.DocumentKind))
	}
	if job.MaxRetries < 0 {
		problems = append(problems, "negative max retries")
	}

	if job.SourceKind == models.SourceLocalFile && job.SourceLocator != "" {
		info, err := os.Stat(job.SourceLocator)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("source not reachable: %v", err))
		case info.IsDir():
			problems = append(problems, "source is a directory")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidJob, strings.Join(problems, "; "))
	}
	return nil
}

// Content evaluates every registered rule against the loaded text.
// All failing rules accumulate into a single ContentValidationError.
func (e *Engine) Content(text string, sourceSize int64) error {
	var failures []string
	for _, rule := range e.rules {
		if ok := evalRule(rule, text, sourceSize); !ok {
			failures = append(failures, fmt.Sprintf("%s: %s", rule.Name, rule.ErrorMessage))
		}
	}
	if len(failures) > 0 {
		return &ContentValidationError{Failures: failures}
	}
	return nil
}

// evalRule dispatches on the closed RuleType set. Unknown variants fail
// closed so a typo in a rules file cannot silently disable a gate.
func evalRule(rule models.ValidationRule, text string, sourceSize int64) bool {
	p := rule.Parameters
	switch rule.RuleType {
	case models.RuleContentLength:
		n := len(text)
		if p.MinLength > 0 && n < p.MinLength {
			return false
		}
		if p.MaxLength > 0 && n > p.MaxLength {
			return false
		}
		return true

	case models.RuleFileSize:
		return p.MaxFileSize <= 0 || sourceSize <= p.MaxFileSize

	case models.RuleKeywordDensity:
		lower := strings.ToLower(text)
		matched := 0
		for _, kw := range p.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched++
			}
		}
		min := p.MinMatches
		if min <= 0 {
			min = 1
		}
		return matched >= min

	case models.RuleCustom:
		if p.Pattern == "" {
			return true
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(text) == p.MatchPattern

	default:
		return false
	}
}
