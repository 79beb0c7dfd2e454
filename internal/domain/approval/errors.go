package approval

import "fmt"

// Result codes produced by the approval engine
const (
	CodeNoRule            = "NO_RULE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeAmountOutOfRange  = "AMOUNT_OUT_OF_RANGE"
	CodeSideEffectFailed  = "SIDE_EFFECT_FAILED"
)

// ErrNoMatchingRule represents errors when no approval rule authorizes a
// transition
type ErrNoMatchingRule struct {
	DocumentID uint
	FromStatus string
	ToStatus   string
	Actor      string
}

func (e *ErrNoMatchingRule) Error() string {
	return fmt.Sprintf("no approval rule matches: document=%d, %s->%s, actor=%s",
		e.DocumentID, e.FromStatus, e.ToStatus, e.Actor)
}
