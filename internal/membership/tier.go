package membership

import "strings"

// Tier identifies a membership level. The set is closed: basic < premium < vip.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierVIP     Tier = "vip"
)

// tierOrder defines the rank of every tier, lowest first.
var tierOrder = [...]Tier{TierBasic, TierPremium, TierVIP}

// ParseTier validates a raw identifier (for example one read from the database or a request body).
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &UnknownTierError{Value: s}
	}
	return t, nil
}

func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// Rank returns the position of t in ascending order, or -1 when t is not a known tier.
func (t Tier) Rank() int {
	switch t {
	case TierBasic:
		return 0
	case TierPremium:
		return 1
	case TierVIP:
		return 2
	}
	return -1
}

func (t Tier) String() string {
	return string(t)
}

// ListTiers returns all tiers in ascending rank order.
func ListTiers() []Tier {
	out := make([]Tier, len(tierOrder))
	copy(out, tierOrder[:])
	return out
}

// IsValidUpgrade reports whether moving from current to target is a strict upgrade.
// Lateral moves, downgrades and unknown tiers are all rejected.
func IsValidUpgrade(current, target Tier) bool {
	if !current.Valid() || !target.Valid() {
		return false
	}
	return target.Rank() > current.Rank()
}

// NextTier returns the tier immediately above t. The boolean is false when t is the
// top rank or not a known tier.
func NextTier(t Tier) (Tier, bool) {
	r := t.Rank()
	if r < 0 || r+1 >= len(tierOrder) {
		return "", false
	}
	return tierOrder[r+1], true
}

// UpgradeOptions returns every tier strictly above t, in ascending order.
func UpgradeOptions(t Tier) []Tier {
	r := t.Rank()
	if r < 0 {
		return nil
	}
	out := make([]Tier, 0, len(tierOrder)-r-1)
	out = append(out, tierOrder[r+1:]...)
	return out
}
