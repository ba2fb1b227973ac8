package domain

// Tier classifies a tenant account and determines rate limits and
// feature access.
type Tier string

const (
	TierOne      Tier = "tier1"
	TierTwo      Tier = "tier2"
	TierThree    Tier = "tier3"
	TierProvider Tier = "provider"
)

// Capability is a feature tag granted to a tier. Tiers are explicit
// enumerated sets, not bit flags: each tier lists everything it can do.
type Capability string

const (
	CapBasicChat        Capability = "basic_chat"
	CapPresence         Capability = "presence"
	CapAdvancedRooms    Capability = "advanced_rooms"
	CapAnalytics        Capability = "analytics"
	CapWebhooks         Capability = "webhooks"
	CapExport           Capability = "export"
	CapPriorityDelivery Capability = "priority_delivery"
	CapBulkInvites      Capability = "bulk_invites"
	CapCustomBranding   Capability = "custom_branding"
	CapRelayAdmin       Capability = "relay_admin"
	CapUnlimitedRooms   Capability = "unlimited_rooms"
)

var tierCapabilities = map[Tier]map[Capability]bool{
	TierOne: caps(
		CapBasicChat, CapPresence,
	),
	TierTwo: caps(
		CapBasicChat, CapPresence,
		CapAdvancedRooms, CapAnalytics, CapWebhooks, CapExport,
	),
	TierThree: caps(
		CapBasicChat, CapPresence,
		CapAdvancedRooms, CapAnalytics, CapWebhooks, CapExport,
		CapPriorityDelivery, CapBulkInvites, CapCustomBranding,
	),
	TierProvider: caps(
		CapBasicChat, CapPresence,
		CapAdvancedRooms, CapAnalytics, CapWebhooks, CapExport,
		CapPriorityDelivery, CapBulkInvites, CapCustomBranding,
		CapRelayAdmin, CapUnlimitedRooms,
	),
}

func caps(list ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(list))
	for _, c := range list {
		m[c] = true
	}
	return m
}

// ParseTier normalizes a tier string, defaulting to TierOne.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierOne, TierTwo, TierThree, TierProvider:
		return Tier(s)
	default:
		return TierOne
	}
}

// Has reports whether the tier grants the capability.
func (t Tier) Has(c Capability) bool {
	return tierCapabilities[t][c]
}

// Capabilities returns the full capability set of the tier.
func (t Tier) Capabilities() []Capability {
	set := tierCapabilities[t]
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Default hourly request ceilings per tier. The provider ceiling is
// usually overridden from configuration.
const (
	DefaultTierOneLimit   = 100
	DefaultTierTwoLimit   = 500
	DefaultTierThreeLimit = 2000
	DefaultProviderLimit  = 10000
)

// HourlyLimit returns the default hourly request ceiling for the tier.
func (t Tier) HourlyLimit() int64 {
	switch t {
	case TierTwo:
		return DefaultTierTwoLimit
	case TierThree:
		return DefaultTierThreeLimit
	case TierProvider:
		return DefaultProviderLimit
	default:
		return DefaultTierOneLimit
	}
}
