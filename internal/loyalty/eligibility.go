package loyalty

import "github.com/dinehall-loyalty-service/internal/domain/user"

// EligibilityGate decides whether a user participates in the loyalty program.
// The walk-in pseudo-user shared by anonymous guests is excluded from every
// operation; its slug comes from configuration.
type EligibilityGate struct {
	walkInSlug string
}

// NewEligibilityGate creates a gate excluding the given walk-in slug
func NewEligibilityGate(walkInSlug string) *EligibilityGate {
	return &EligibilityGate{walkInSlug: walkInSlug}
}

// IsEligible reports whether the user participates in the loyalty program
func (g *EligibilityGate) IsEligible(u *user.User) bool {
	return u != nil && u.Slug != g.walkInSlug
}
