package guard

import (
	"context"
	"fmt"
	"time"
)

// Recorder writes the append-only audit log of guard assignment mutations.
// An assignment mutation is not complete until its audit entry is durably
// recorded, so Record failures must be surfaced, never logged and dropped.
// No update or delete is exposed here.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, a *GuardAssignment, action AuditAction) (*AuditEntry, error) {
	entry := AuditEntry{
		AssignmentNumber: a.Number,
		DoctorLicense:    a.DoctorLicense,
		SpecialtyCode:    a.SpecialtyCode,
		ScheduledAt:      a.ScheduledAt,
		Action:           action,
		RecordedAt:       time.Now(),
	}

	saved, err := r.repo.AppendAuditEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	return saved, nil
}

// Trail returns every audit entry recorded for an assignment number, oldest
// first. Entries survive the assignment's deletion unless the deployment
// runs the purge retention policy.
func (r *Recorder) Trail(ctx context.Context, number int64) ([]AuditEntry, error) {
	entries, err := r.repo.ListAuditByAssignment(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
