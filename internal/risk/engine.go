package risk

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Engine scores domain names 0-100 from weighted lexical and temporal
// factors: name length, character entropy, TLD reputation, suspicious
// keyword matches, and domain age.
type Engine struct {
	cfg EngineConfig
}

// Factor is one scored component with its configured weight.
type Factor struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
	Detail string  `json:"detail,omitempty"`
}

// Result is a full scoring outcome for one domain.
type Result struct {
	DomainName      string            `json:"domain_name"`
	Score           float64           `json:"risk_score"`
	Tier            string            `json:"risk_level"`
	Factors         map[string]Factor `json:"risk_factors"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Config exposes the active scoring configuration.
func (e *Engine) Config() EngineConfig { return e.cfg }

// Score assesses a domain name. registered may be nil when the registration
// date is unknown; the age factor then scores neutral.
func (e *Engine) Score(domainName string, registered *time.Time, now time.Time) Result {
	name := strings.ToLower(strings.TrimSpace(domainName))

	factors := map[string]Factor{
		"domain_length":   e.lengthFactor(name),
		"entropy_score":   e.entropyFactor(name),
		"tld_risk":        e.tldFactor(name),
		"keyword_matches": e.keywordFactor(name),
		"age_days":        e.ageFactor(registered, now),
	}

	weighted := factors["domain_length"].Score*e.cfg.Weights.DomainLength +
		factors["entropy_score"].Score*e.cfg.Weights.EntropyScore +
		factors["tld_risk"].Score*e.cfg.Weights.TLDRisk +
		factors["keyword_matches"].Score*e.cfg.Weights.KeywordMatches +
		factors["age_days"].Score*e.cfg.Weights.AgeDays

	totalWeight := e.cfg.Weights.DomainLength + e.cfg.Weights.EntropyScore +
		e.cfg.Weights.TLDRisk + e.cfg.Weights.KeywordMatches + e.cfg.Weights.AgeDays
	if totalWeight > 0 {
		weighted /= totalWeight
	}

	score := math.Min(100, math.Max(0, weighted*100))
	tier := Classify(score)

	return Result{
		DomainName:      name,
		Score:           math.Round(score*100) / 100,
		Tier:            tier.Label(),
		Factors:         factors,
		Recommendations: e.recommendations(name, factors, score),
	}
}

// FactorScores flattens a result's factors for persistence.
func (r Result) FactorScores() map[string]float64 {
	out := make(map[string]float64, len(r.Factors))
	for name, f := range r.Factors {
		out[name] = f.Score
	}
	return out
}

func (e *Engine) lengthFactor(name string) Factor {
	label := labelPart(name)
	length := len(label)

	var score float64
	switch {
	case length > e.cfg.MaxDomainLength:
		score = 1.0
	case length < 3:
		score = 0.8
	case length < 6:
		score = 0.6
	case length > 20:
		score = 0.7
	default:
		score = 0.2
	}

	return Factor{
		Score:  score,
		Weight: e.cfg.Weights.DomainLength,
		Detail: fmt.Sprintf("name length %d", length),
	}
}

func (e *Engine) entropyFactor(name string) Factor {
	ent := Entropy(labelPart(name))

	// Random character soup tops out near 4.7 bits for domain labels.
	const maxEntropy = 4.7
	normalized := math.Min(1, ent/maxEntropy)

	score := normalized
	if ent < 3.0 {
		score = normalized * 0.3
	}

	return Factor{
		Score:  score,
		Weight: e.cfg.Weights.EntropyScore,
		Detail: fmt.Sprintf("entropy %.2f bits", ent),
	}
}

func (e *Engine) tldFactor(name string) Factor {
	tld := tldPart(name)

	var score float64
	switch {
	case e.isSuspiciousTLD(tld):
		score = 0.9
	case tld == ".com" || tld == ".net" || tld == ".org" || tld == ".edu" || tld == ".gov":
		score = 0.1
	default:
		score = 0.4
	}

	return Factor{
		Score:  score,
		Weight: e.cfg.Weights.TLDRisk,
		Detail: "tld " + tld,
	}
}

func (e *Engine) keywordFactor(name string) Factor {
	matches := e.MatchingKeywords(name)

	var score float64
	switch {
	case len(matches) == 0:
		score = 0.1
	case len(matches) == 1:
		score = 0.5
	case len(matches) <= 3:
		score = 0.7
	default:
		score = 0.9
	}

	f := Factor{Score: score, Weight: e.cfg.Weights.KeywordMatches}
	if len(matches) > 0 {
		f.Detail = "keywords " + strings.Join(matches, ",")
	}
	return f
}

func (e *Engine) ageFactor(registered *time.Time, now time.Time) Factor {
	if registered == nil {
		return Factor{Score: 0.5, Weight: e.cfg.Weights.AgeDays, Detail: "age unknown"}
	}

	ageDays := int(now.Sub(*registered).Hours() / 24)
	var score float64
	switch {
	case ageDays < 1:
		score = 0.9
	case ageDays < 7:
		score = 0.7
	case ageDays < 30:
		score = 0.4
	default:
		score = 0.1
	}

	return Factor{
		Score:  score,
		Weight: e.cfg.Weights.AgeDays,
		Detail: fmt.Sprintf("%d days old", ageDays),
	}
}

// MatchingKeywords returns the configured high-risk keywords found in name.
func (e *Engine) MatchingKeywords(name string) []string {
	lower := strings.ToLower(name)
	var matches []string
	for _, kw := range e.cfg.HighRiskKeywords {
		if strings.Contains(lower, kw) {
			matches = append(matches, kw)
		}
	}
	return matches
}

func (e *Engine) isSuspiciousTLD(tld string) bool {
	for _, s := range e.cfg.SuspiciousTLDs {
		if strings.EqualFold(s, tld) {
			return true
		}
	}
	return false
}

func (e *Engine) recommendations(name string, factors map[string]Factor, score float64) []string {
	var recs []string

	if f := factors["domain_length"]; f.Score >= 0.8 {
		recs = append(recs, "Unusual domain name length, possible obfuscation or typosquatting")
	}
	if f := factors["entropy_score"]; f.Score >= 0.7 {
		recs = append(recs, "High character entropy suggests a generated domain, possible botnet C&C")
	}
	if f := factors["tld_risk"]; f.Score >= 0.7 {
		recs = append(recs, "TLD "+tldPart(name)+" is commonly used for malicious registrations")
	}
	if matches := e.MatchingKeywords(name); len(matches) > 0 {
		recs = append(recs, "Domain contains high-risk keywords: "+strings.Join(matches, ", "))
	}
	if len(recs) == 0 && score < 40 {
		recs = append(recs, "No specific risk indicators detected, continued monitoring recommended")
	}

	return recs
}

// Entropy computes the Shannon entropy in bits of a string's character
// distribution. Empty input yields zero.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}

	freq := make(map[rune]int)
	total := 0
	for _, r := range strings.ToLower(s) {
		freq[r]++
		total++
	}

	var ent float64
	for _, count := range freq {
		p := float64(count) / float64(total)
		ent -= p * math.Log2(p)
	}
	return ent
}

// labelPart strips the TLD: "secure-login.xyz" -> "secure-login".
func labelPart(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// tldPart extracts the trailing TLD with its dot, or "" when absent.
func tldPart(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		return name[i:]
	}
	return ""
}
