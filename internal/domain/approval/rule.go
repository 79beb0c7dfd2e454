package approval

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rule authorizes one status transition of a document type for documents
// whose total falls inside the amount band, when the acting user belongs
// to the approver set. Higher priority rules win when several match.
type Rule struct {
	ID             uint
	DocumentTypeID uint
	FromStatus     string
	ToStatus       string
	MinAmount      decimal.Decimal
	MaxAmount      decimal.Decimal // zero means unbounded
	ApproverSet    []string
	Priority       int
	Level          int
	IsActive       bool
}

// Matches reports whether the rule authorizes the given transition for
// the given amount and actor
func (r *Rule) Matches(fromStatus string, amount decimal.Decimal, actor string) bool {
	if !r.IsActive || r.FromStatus != fromStatus {
		return false
	}
	return r.AmountInRange(amount) && r.AllowsActor(actor)
}

// AmountInRange reports whether the amount falls inside [min, max]; a zero
// max is treated as unbounded
func (r *Rule) AmountInRange(amount decimal.Decimal) bool {
	if amount.LessThan(r.MinAmount) {
		return false
	}
	if !r.MaxAmount.IsZero() && amount.GreaterThan(r.MaxAmount) {
		return false
	}
	return true
}

// AllowsActor reports whether the actor belongs to the approver set.
// An empty set allows nobody.
func (r *Rule) AllowsActor(actor string) bool {
	for _, a := range r.ApproverSet {
		if a == actor {
			return true
		}
	}
	return false
}

// Validate checks the rule invariants
func (r *Rule) Validate() error {
	if r.FromStatus == "" || r.ToStatus == "" {
		return fmt.Errorf("approval rule requires both from and to status")
	}
	if r.FromStatus == r.ToStatus {
		return fmt.Errorf("approval rule cannot transition a status to itself")
	}
	if r.MinAmount.IsNegative() {
		return fmt.Errorf("approval rule min amount cannot be negative")
	}
	if !r.MaxAmount.IsZero() && r.MaxAmount.LessThan(r.MinAmount) {
		return fmt.Errorf("approval rule max amount %s below min amount %s", r.MaxAmount, r.MinAmount)
	}
	return nil
}

// String returns a human-readable representation
func (r *Rule) String() string {
	return fmt.Sprintf("Rule[type=%d %s->%s amount=[%s,%s] priority=%d]",
		r.DocumentTypeID, r.FromStatus, r.ToStatus, r.MinAmount, r.MaxAmount, r.Priority)
}
