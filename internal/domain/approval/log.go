package approval

import (
	"fmt"
	"time"
)

// LogEntry is one immutable audit record of an executed (or rejected)
// status transition. Every executed transition writes exactly one entry.
type LogEntry struct {
	ID          uint
	DocumentID  uint
	Actor       string
	FromStatus  string
	ToStatus    string
	RuleID      *uint // nil for rejections outside rule matching
	Comments    string
	Correlation string
	Timestamp   time.Time
}

// Validate checks the log entry invariants
func (e *LogEntry) Validate() error {
	if e.DocumentID == 0 {
		return fmt.Errorf("approval log requires a document")
	}
	if e.Actor == "" {
		return fmt.Errorf("approval log requires an actor")
	}
	if e.FromStatus == "" || e.ToStatus == "" {
		return fmt.Errorf("approval log requires both statuses")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("approval log requires a timestamp")
	}
	return nil
}

// String returns a human-readable representation
func (e *LogEntry) String() string {
	return fmt.Sprintf("ApprovalLog[doc=%d %s->%s by %s at %s]",
		e.DocumentID, e.FromStatus, e.ToStatus, e.Actor, e.Timestamp.Format(time.RFC3339))
}
