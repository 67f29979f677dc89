package guard

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrSpecialtyNotFound  = errors.New("specialty not found")
	ErrShiftSlotNotFound  = errors.New("shift slot not found")
	ErrAssignmentNotFound = errors.New("guard assignment not found")
	ErrVacationNotFound   = errors.New("vacation period not found")
)

// Repository contains all DB interactions needed by the guard and vacation
// services. Any returned error that is not one of the sentinels above is a
// storage failure and may be retried by the caller only per the rules of
// the operation (reads freely, writes only if provably not applied).
type Repository interface {
	GetDoctorByLicense(ctx context.Context, license int64) (*Doctor, error)
	GetSpecialtyByCode(ctx context.Context, code int32) (*Specialty, error)
	GetShiftSlotByID(ctx context.Context, id int32) (*ShiftSlot, error)

	// Vacation periods, ordered by start date.
	FindVacationsByDoctor(ctx context.Context, license int64) ([]VacationPeriod, error)
	InsertVacation(ctx context.Context, period VacationPeriod) error
	// ReplaceVacation removes old and inserts new as one transaction.
	// Returns ErrVacationNotFound (and inserts nothing) if old is absent.
	ReplaceVacation(ctx context.Context, old, updated VacationPeriod) error
	// DeleteVacation is an exact-match delete; absence is (false, nil).
	DeleteVacation(ctx context.Context, period VacationPeriod) (bool, error)

	// Guard assignments.
	GetAssignmentByNumber(ctx context.Context, number int64) (*GuardAssignment, error)
	// CountAssignmentsInMonth counts a doctor's assignments within one
	// calendar month, skipping exclude when non-nil (update self-exclusion).
	CountAssignmentsInMonth(ctx context.Context, license int64, year int, month time.Month, exclude *int64) (int, error)
	InsertAssignment(ctx context.Context, cand Candidate) (*GuardAssignment, error)
	UpdateAssignment(ctx context.Context, number int64, cand Candidate) (*GuardAssignment, error)
	DeleteAssignment(ctx context.Context, number int64) (bool, error)

	// Audit log. Append and read only; DeleteAuditByAssignment exists solely
	// for the purge retention policy.
	AppendAuditEntry(ctx context.Context, entry AuditEntry) (*AuditEntry, error)
	ListAuditByAssignment(ctx context.Context, number int64) ([]AuditEntry, error)
	DeleteAuditByAssignment(ctx context.Context, number int64) (int64, error)

	// FindAssignmentsMissingAudit lists persisted assignments with no audit
	// entry, used by the consistency checker to detect partial failures.
	FindAssignmentsMissingAudit(ctx context.Context, limit int) ([]GuardAssignment, error)
}
