package validate

import (
	"fmt"
	"os"

	"github.com/juridoc/ingest-go/internal/models"
	"gopkg.in/yaml.v3"
)

// rulesFile is the YAML shape of an operator-provided rule set.
type rulesFile struct {
	Rules []models.ValidationRule `yaml:"rules"`
}

// LoadRules reads validation rules from a YAML file. Rules with an unknown
// rule_type are rejected immediately rather than failing every document
// later.
func LoadRules(path string) ([]models.ValidationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}

	for i, r := range f.Rules {
		switch r.RuleType {
		case models.RuleContentLength, models.RuleFileSize, models.RuleKeywordDensity, models.RuleCustom:
		default:
			return nil, fmt.Errorf("rule %d (%s): unknown rule_type %q", i, r.Name, r.RuleType)
		}
	}
	return f.Rules, nil
}
