package guard

import (
	"time"
)

// Doctor is identified by its license number. Identity is immutable; only
// contact-style attributes may change, and those are not managed here.
type Doctor struct {
	License             int64
	Name                string
	PrimarySpecialty    int32
	EligibleSpecialties []int32
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// EligibleFor reports whether the doctor may take guards for the specialty.
func (d *Doctor) EligibleFor(code int32) bool {
	for _, c := range d.EligibleSpecialties {
		if c == code {
			return true
		}
	}
	return false
}

// Specialty is read-mostly reference data; each specialty belongs to exactly
// one hospital sector.
type Specialty struct {
	Code        int32
	SectorID    int32
	Description string
}

// ShiftSlot is a named time-of-day window ("morning", "night"). Reference
// data, never edited by this engine.
type ShiftSlot struct {
	ID    int32
	Label string
}

// GuardAssignment is one scheduled on-call duty. The assignment number is
// generated by storage on insert and never supplied by callers.
type GuardAssignment struct {
	Number        int64
	ScheduledAt   time.Time
	DoctorLicense int64
	SpecialtyCode int32
	ShiftSlotID   int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Candidate carries the caller-supplied fields of a guard assignment before
// validation. Used for both create and update.
type Candidate struct {
	ScheduledAt   time.Time
	DoctorLicense int64
	SpecialtyCode int32
	ShiftSlotID   int32
}

// VacationPeriod is an inclusive date range during which the doctor may not
// take any guard. Both bounds are at date resolution.
type VacationPeriod struct {
	DoctorLicense int64
	Start         time.Time
	End           time.Time
}

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
)

// AuditEntry is the append-only record of a guard assignment mutation.
// Entries are never updated or deleted by the engine; the only exception is
// the explicit purge-on-delete retention policy.
type AuditEntry struct {
	ID               int64
	AssignmentNumber int64
	DoctorLicense    int64
	SpecialtyCode    int32
	ScheduledAt      time.Time
	Action           AuditAction
	RecordedAt       time.Time
}
