package risk

// Tier is the discrete classification of a numeric risk score. It is derived,
// never stored: recompute from the current score wherever one is displayed.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierCritical
)

// Classify maps a 0-100 risk score to its tier. Boundary values belong to
// the higher tier: 40 is Medium, 70 is Critical.
func Classify(score float64) Tier {
	switch {
	case score >= 70:
		return TierCritical
	case score >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

// Label is the display name used identically across list rows, detail
// headers, and aggregate breakdowns.
func (t Tier) Label() string {
	switch t {
	case TierCritical:
		return "Critical"
	case TierMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// StyleTag is the fixed styling hook attached to a tier. Renderers map it to
// whatever treatment they use (CSS class, terminal color).
func (t Tier) StyleTag() string {
	switch t {
	case TierCritical:
		return "tier-critical"
	case TierMedium:
		return "tier-medium"
	default:
		return "tier-low"
	}
}

func (t Tier) String() string { return t.Label() }

// TierLabels lists all tier labels in ascending severity, the order used for
// risk distribution breakdowns.
func TierLabels() []string {
	return []string{TierLow.Label(), TierMedium.Label(), TierCritical.Label()}
}
