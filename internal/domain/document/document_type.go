package document

import "fmt"

// DocumentKind discriminates the concrete document sorts sharing the
// common header
type DocumentKind string

const (
	KindPurchaseRequest DocumentKind = "PURCHASE_REQUEST"
	KindPurchaseOrder   DocumentKind = "PURCHASE_ORDER"
	KindDeliveryReceipt DocumentKind = "DELIVERY_RECEIPT"
)

// IsValid checks if the document kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindPurchaseRequest, KindPurchaseOrder, KindDeliveryReceipt:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind
func (k DocumentKind) String() string {
	return string(k)
}

// ParseDocumentKind parses a string into a DocumentKind
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid document kind: %s", s)
	}
	return k, nil
}

// StatusConfig configures one status a document type allows, and the side
// effects of entering it. The workflow is data, not code: types declare
// their statuses and the engine interprets them.
type StatusConfig struct {
	ID                         uint
	DocumentTypeID             uint
	Status                     string
	IsInitial                  bool
	IsFinal                    bool
	IsCancellation             bool
	AllowsEditing              bool
	CreatesInventoryMovements  bool
	ReversesInventoryMovements bool
	AutoCorrectMovementsOnEdit bool
}

// Transition declares one allowed status change of a document type
type Transition struct {
	ID             uint
	DocumentTypeID uint
	FromStatus     string
	ToStatus       string
}

// DocumentType declares the workflow of a document kind: its allowed
// statuses, the transitions between them, and whether transitions require
// a matching approval rule.
type DocumentType struct {
	ID               uint
	TypeKey          string
	Name             string
	Kind             DocumentKind
	RequiresApproval bool
	Statuses         []StatusConfig
	Transitions      []Transition
}

// Validate checks the structural invariants: exactly one initial status,
// at most one cancellation status, every transition endpoint declared.
func (t *DocumentType) Validate() error {
	if t.TypeKey == "" {
		return &ErrInvalidDocument{Field: "type_key", Reason: "type key cannot be empty"}
	}
	if !t.Kind.IsValid() {
		return &ErrInvalidDocument{Field: "kind", Reason: fmt.Sprintf("invalid document kind: %s", t.Kind)}
	}
	initial, cancellation := 0, 0
	known := make(map[string]bool, len(t.Statuses))
	for _, s := range t.Statuses {
		known[s.Status] = true
		if s.IsInitial {
			initial++
		}
		if s.IsCancellation {
			cancellation++
		}
	}
	if initial != 1 {
		return &ErrInvalidDocument{Field: "statuses", Reason: fmt.Sprintf("exactly one initial status required, found %d", initial)}
	}
	if cancellation > 1 {
		return &ErrInvalidDocument{Field: "statuses", Reason: fmt.Sprintf("at most one cancellation status allowed, found %d", cancellation)}
	}
	for _, tr := range t.Transitions {
		if !known[tr.FromStatus] || !known[tr.ToStatus] {
			return &ErrInvalidDocument{Field: "transitions", Reason: fmt.Sprintf("transition %s->%s references an undeclared status", tr.FromStatus, tr.ToStatus)}
		}
	}
	return nil
}

// InitialStatus returns the status new documents of this type start in
func (t *DocumentType) InitialStatus() string {
	for _, s := range t.Statuses {
		if s.IsInitial {
			return s.Status
		}
	}
	return ""
}

// CancellationStatus returns the cancellation status, "" when none is
// declared
func (t *DocumentType) CancellationStatus() string {
	for _, s := range t.Statuses {
		if s.IsCancellation {
			return s.Status
		}
	}
	return ""
}

// StatusConfigFor returns the configuration of the named status
func (t *DocumentType) StatusConfigFor(status string) (*StatusConfig, error) {
	for i := range t.Statuses {
		if t.Statuses[i].Status == status {
			return &t.Statuses[i], nil
		}
	}
	return nil, &ErrStatusNotAllowed{TypeKey: t.TypeKey, Status: status}
}

// AllowsTransition reports whether the type declares the given transition
func (t *DocumentType) AllowsTransition(from, to string) bool {
	for _, tr := range t.Transitions {
		if tr.FromStatus == from && tr.ToStatus == to {
			return true
		}
	}
	return false
}
