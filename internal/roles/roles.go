package roles

import "strings"

// Tier is a privilege level within the member portal.
type Tier string

const (
	TierMember    Tier = "member"
	TierModerator Tier = "moderator"
	TierAdmin     Tier = "admin"
)

// AllTiers returns every tier from least to most privileged.
func AllTiers() []Tier {
	return []Tier{TierMember, TierModerator, TierAdmin}
}

func (t Tier) rank() int {
	for i, tier := range AllTiers() {
		if tier == t {
			return i
		}
	}
	return -1
}

// AtLeast reports whether t grants at least the privileges of other.
func (t Tier) AtLeast(other Tier) bool {
	return t.rank() >= other.rank()
}

// Directory maps email addresses to tiers. It is immutable after construction.
type Directory struct {
	tiers map[string]Tier
}

// NewDirectory builds a directory from configured address lists.
// An address listed as both admin and moderator resolves to admin.
func NewDirectory(admins, moderators []string) *Directory {
	d := &Directory{tiers: make(map[string]Tier, len(admins)+len(moderators))}
	for _, email := range moderators {
		if key := normalize(email); key != "" {
			d.tiers[key] = TierModerator
		}
	}
	for _, email := range admins {
		if key := normalize(email); key != "" {
			d.tiers[key] = TierAdmin
		}
	}
	return d
}

// Lookup returns the tier for email, or TierMember when the address is not listed.
func (d *Directory) Lookup(email string) Tier {
	if d == nil {
		return TierMember
	}
	if tier, ok := d.tiers[normalize(email)]; ok {
		return tier
	}
	return TierMember
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
