package enums

import "fmt"

// SubscriptionTier is the access level a subscription grants.
type SubscriptionTier string

const (
	SubscriptionTierBasic     SubscriptionTier = "basic"
	SubscriptionTierUnlimited SubscriptionTier = "unlimited"
)

var validSubscriptionTiers = []SubscriptionTier{
	SubscriptionTierBasic,
	SubscriptionTierUnlimited,
}

// String implements fmt.Stringer.
func (t SubscriptionTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known SubscriptionTier.
func (t SubscriptionTier) IsValid() bool {
	for _, candidate := range validSubscriptionTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// Rank orders tiers so downgrade requests can be validated.
func (t SubscriptionTier) Rank() int {
	switch t {
	case SubscriptionTierBasic:
		return 1
	case SubscriptionTierUnlimited:
		return 2
	default:
		return 0
	}
}

// ParseSubscriptionTier converts raw input into a SubscriptionTier.
func ParseSubscriptionTier(value string) (SubscriptionTier, error) {
	for _, candidate := range validSubscriptionTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription tier %q", value)
}
