package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights control how much each factor contributes to the overall score.
// They should sum to 1.0; Score normalizes regardless.
type Weights struct {
	DomainLength   float64 `yaml:"domain_length"`
	EntropyScore   float64 `yaml:"entropy_score"`
	TLDRisk        float64 `yaml:"tld_risk"`
	KeywordMatches float64 `yaml:"keyword_matches"`
	AgeDays        float64 `yaml:"age_days"`
}

// EngineConfig is the tunable scoring configuration, loadable from YAML.
type EngineConfig struct {
	Weights          Weights  `yaml:"weights"`
	HighRiskKeywords []string `yaml:"high_risk_keywords"`
	SuspiciousTLDs   []string `yaml:"suspicious_tlds"`
	MaxDomainLength  int      `yaml:"max_domain_length"`
}

// DefaultEngineConfig returns the built-in scoring configuration used when
// no weights file is present.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Weights: Weights{
			DomainLength:   0.15,
			EntropyScore:   0.25,
			TLDRisk:        0.20,
			KeywordMatches: 0.30,
			AgeDays:        0.10,
		},
		HighRiskKeywords: []string{
			"paypal", "bank", "login", "secure", "account",
			"verify", "confirm", "update", "password", "signin",
		},
		SuspiciousTLDs:  []string{".tk", ".ml", ".ga", ".cf", ".xyz"},
		MaxDomainLength: 30,
	}
}

// LoadEngineConfig reads a YAML weights file, falling back to defaults when
// the path is empty or the file does not exist.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read risk config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return DefaultEngineConfig(), fmt.Errorf("parse risk config %s: %w", path, err)
	}
	return cfg, nil
}
