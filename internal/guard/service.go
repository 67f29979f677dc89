package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/hospital-guard-duty/internal/config"
	redisclient "github.com/hackgods/hospital-guard-duty/internal/redis"
)

var (
	ErrValidation          = errors.New("invalid guard candidate")
	ErrIneligibleSpecialty = errors.New("doctor is not eligible for this specialty")
	ErrVacationConflict    = errors.New("doctor is on vacation on the guard date")
	ErrQuotaExceeded       = errors.New("monthly guard quota exceeded")
)

// PartialFailureError reports that an assignment was persisted but its audit
// entry was not. It names the persisted assignment number so the caller can
// retry the audit write or roll the assignment back; the two stores must not
// silently diverge.
type PartialFailureError struct {
	AssignmentNumber int64
	Err              error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("guard assignment %d persisted but audit write failed: %v", e.AssignmentNumber, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Service validates and applies guard assignment mutations. An assignment
// moves Proposed -> Validated -> Persisted -> Audited; any check failure
// rejects it before the first write.
type Service struct {
	repo      Repository
	vacations *VacationService
	audit     *Recorder
	locker    redisclient.Locker
	cfg       config.Config
}

func NewService(repo Repository, vacations *VacationService, audit *Recorder, locker redisclient.Locker, cfg config.Config) *Service {
	return &Service{
		repo:      repo,
		vacations: vacations,
		audit:     audit,
		locker:    locker,
		cfg:       cfg,
	}
}

// CreateAssignment runs the full validation chain and, on success, persists
// the assignment and synchronously records its audit entry. The vacation and
// quota checks run under the doctor's lock so that two concurrent candidates
// for the same doctor cannot both pass.
func (s *Service) CreateAssignment(ctx context.Context, cand Candidate) (*GuardAssignment, error) {
	if err := validateCandidate(cand); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, cand); err != nil {
		return nil, err
	}

	var created *GuardAssignment

	err := s.locker.WithDoctorLock(ctx, cand.DoctorLicense, func(lockCtx context.Context) error {
		if err := s.checkVacation(lockCtx, cand); err != nil {
			return err
		}
		if err := s.checkQuota(lockCtx, cand, nil); err != nil {
			return err
		}

		appt, err := s.repo.InsertAssignment(lockCtx, cand)
		if err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		created = appt

		if _, err := s.audit.Record(lockCtx, appt, AuditActionCreate); err != nil {
			return &PartialFailureError{AssignmentNumber: appt.Number, Err: err}
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBusy
		}
		return nil, err
	}

	return created, nil
}

// UpdateAssignment re-validates the candidate exactly like a create, except
// the assignment being updated is excluded from its own quota count. The
// assignment number is preserved.
func (s *Service) UpdateAssignment(ctx context.Context, number int64, cand Candidate) (*GuardAssignment, error) {
	if err := validateCandidate(cand); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetAssignmentByNumber(ctx, number); err != nil {
		if errors.Is(err, ErrAssignmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load assignment: %w", err)
	}

	if err := s.checkReferences(ctx, cand); err != nil {
		return nil, err
	}

	var updated *GuardAssignment

	err := s.locker.WithDoctorLock(ctx, cand.DoctorLicense, func(lockCtx context.Context) error {
		if err := s.checkVacation(lockCtx, cand); err != nil {
			return err
		}
		if err := s.checkQuota(lockCtx, cand, &number); err != nil {
			return err
		}

		appt, err := s.repo.UpdateAssignment(lockCtx, number, cand)
		if err != nil {
			if errors.Is(err, ErrAssignmentNotFound) {
				return err
			}
			return fmt.Errorf("update assignment: %w", err)
		}
		updated = appt

		if _, err := s.audit.Record(lockCtx, appt, AuditActionUpdate); err != nil {
			return &PartialFailureError{AssignmentNumber: appt.Number, Err: err}
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBusy
		}
		return nil, err
	}

	return updated, nil
}

// DeleteAssignment removes an assignment by number; a missing number reports
// false, not an error. The audit trail is kept or purged strictly per the
// configured retention policy.
func (s *Service) DeleteAssignment(ctx context.Context, number int64) (bool, error) {
	deleted, err := s.repo.DeleteAssignment(ctx, number)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	if !deleted {
		return false, nil
	}

	if s.cfg.AuditRetention == config.PurgeAudit {
		if _, err := s.repo.DeleteAuditByAssignment(ctx, number); err != nil {
			return true, &PartialFailureError{AssignmentNumber: number, Err: err}
		}
	}

	return true, nil
}

// GetAssignment loads one assignment by number.
func (s *Service) GetAssignment(ctx context.Context, number int64) (*GuardAssignment, error) {
	appt, err := s.repo.GetAssignmentByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrAssignmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	return appt, nil
}

// AuditTrail exposes the recorder's trail for an assignment number.
func (s *Service) AuditTrail(ctx context.Context, number int64) ([]AuditEntry, error) {
	return s.audit.Trail(ctx, number)
}

// FindUnaudited lists persisted assignments missing their audit entry. Used
// by the out-of-band consistency checker to detect partial failures that the
// caller never resolved.
func (s *Service) FindUnaudited(ctx context.Context, limit int) ([]GuardAssignment, error) {
	if limit <= 0 {
		limit = 100
	}
	missing, err := s.repo.FindAssignmentsMissingAudit(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("find unaudited assignments: %w", err)
	}
	return missing, nil
}

func validateCandidate(cand Candidate) error {
	var missing []string
	if cand.ScheduledAt.IsZero() {
		missing = append(missing, "timestamp")
	}
	if cand.DoctorLicense == 0 {
		missing = append(missing, "doctor license")
	}
	if cand.SpecialtyCode == 0 {
		missing = append(missing, "specialty code")
	}
	if cand.ShiftSlotID == 0 {
		missing = append(missing, "shift slot id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) checkReferences(ctx context.Context, cand Candidate) error {
	doctor, err := s.repo.GetDoctorByLicense(ctx, cand.DoctorLicense)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return err
		}
		return fmt.Errorf("load doctor: %w", err)
	}

	if _, err := s.repo.GetSpecialtyByCode(ctx, cand.SpecialtyCode); err != nil {
		if errors.Is(err, ErrSpecialtyNotFound) {
			return err
		}
		return fmt.Errorf("load specialty: %w", err)
	}

	if _, err := s.repo.GetShiftSlotByID(ctx, cand.ShiftSlotID); err != nil {
		if errors.Is(err, ErrShiftSlotNotFound) {
			return err
		}
		return fmt.Errorf("load shift slot: %w", err)
	}

	if !doctor.EligibleFor(cand.SpecialtyCode) {
		return fmt.Errorf("%w: doctor %d, specialty %d", ErrIneligibleSpecialty, cand.DoctorLicense, cand.SpecialtyCode)
	}
	return nil
}

func (s *Service) checkVacation(ctx context.Context, cand Candidate) error {
	onVacation, err := s.vacations.IsOnVacation(ctx, cand.DoctorLicense, cand.ScheduledAt)
	if err != nil {
		return err
	}
	if onVacation {
		return fmt.Errorf("%w: doctor %d on %s", ErrVacationConflict,
			cand.DoctorLicense, DateOnly(cand.ScheduledAt).Format(time.DateOnly))
	}
	return nil
}

func (s *Service) checkQuota(ctx context.Context, cand Candidate, exclude *int64) error {
	year, month := MonthOf(cand.ScheduledAt)
	count, err := s.repo.CountAssignmentsInMonth(ctx, cand.DoctorLicense, year, month, exclude)
	if err != nil {
		return fmt.Errorf("count monthly assignments: %w", err)
	}
	if count >= s.cfg.MonthlyGuardQuota {
		return fmt.Errorf("%w: doctor %d already has %d guards in %04d-%02d (max %d)",
			ErrQuotaExceeded, cand.DoctorLicense, count, year, int(month), s.cfg.MonthlyGuardQuota)
	}
	return nil
}
