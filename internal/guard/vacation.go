package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/hackgods/hospital-guard-duty/internal/redis"
)

var (
	ErrVacationOverlap = errors.New("vacation period overlaps an existing period")
	ErrDoctorBusy      = errors.New("doctor schedule is being modified, please retry")
)

// VacationService owns vacation periods per doctor and enforces the
// no-overlap invariant. Every write for a doctor runs under that doctor's
// lock so concurrent creators cannot both observe "no conflict".
type VacationService struct {
	repo   Repository
	locker redisclient.Locker
}

func NewVacationService(repo Repository, locker redisclient.Locker) *VacationService {
	return &VacationService{
		repo:   repo,
		locker: locker,
	}
}

// Create stores a new vacation period after checking it against every
// existing period of the same doctor. Boundaries are inclusive: a period
// ending the day another starts is a conflict.
func (s *VacationService) Create(ctx context.Context, period VacationPeriod) error {
	period = normalizePeriod(period)
	if err := ValidateRange(period.Start, period.End); err != nil {
		return err
	}

	if _, err := s.repo.GetDoctorByLicense(ctx, period.DoctorLicense); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return err
		}
		return fmt.Errorf("load doctor: %w", err)
	}

	err := s.locker.WithDoctorLock(ctx, period.DoctorLicense, func(lockCtx context.Context) error {
		existing, err := s.repo.FindVacationsByDoctor(lockCtx, period.DoctorLicense)
		if err != nil {
			return fmt.Errorf("load vacation periods: %w", err)
		}

		if conflict := firstOverlap(period, existing, nil); conflict != nil {
			return overlapError(period, *conflict)
		}

		if err := s.repo.InsertVacation(lockCtx, period); err != nil {
			return fmt.Errorf("insert vacation period: %w", err)
		}
		return nil
	})

	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrDoctorBusy
	}
	return err
}

// Replace atomically swaps old for updated. The overlap check for updated
// ignores old (a period may always be replaced by a variant of itself), and
// on any failure old remains intact: the delete and insert happen in one
// storage transaction only after the check passes.
func (s *VacationService) Replace(ctx context.Context, old, updated VacationPeriod) error {
	old = normalizePeriod(old)
	updated = normalizePeriod(updated)

	if old.DoctorLicense != updated.DoctorLicense {
		return fmt.Errorf("%w: replacement must keep the doctor, got %d and %d",
			ErrValidation, old.DoctorLicense, updated.DoctorLicense)
	}
	if err := ValidateRange(updated.Start, updated.End); err != nil {
		return err
	}

	err := s.locker.WithDoctorLock(ctx, old.DoctorLicense, func(lockCtx context.Context) error {
		existing, err := s.repo.FindVacationsByDoctor(lockCtx, old.DoctorLicense)
		if err != nil {
			return fmt.Errorf("load vacation periods: %w", err)
		}

		if !containsPeriod(existing, old) {
			return fmt.Errorf("%w: %s to %s", ErrVacationNotFound,
				old.Start.Format(time.DateOnly), old.End.Format(time.DateOnly))
		}

		if conflict := firstOverlap(updated, existing, &old); conflict != nil {
			return overlapError(updated, *conflict)
		}

		if err := s.repo.ReplaceVacation(lockCtx, old, updated); err != nil {
			return fmt.Errorf("replace vacation period: %w", err)
		}
		return nil
	})

	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrDoctorBusy
	}
	return err
}

// IsOnVacation reports whether date falls inside any stored period of the
// doctor, boundaries included.
func (s *VacationService) IsOnVacation(ctx context.Context, license int64, date time.Time) (bool, error) {
	periods, err := s.repo.FindVacationsByDoctor(ctx, license)
	if err != nil {
		return false, fmt.Errorf("load vacation periods: %w", err)
	}

	day := DateOnly(date)
	for _, p := range periods {
		if !day.Before(p.Start) && !day.After(p.End) {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the exactly matching period. A missing period is not an
// error; it reports false.
func (s *VacationService) Delete(ctx context.Context, period VacationPeriod) (bool, error) {
	return s.repo.DeleteVacation(ctx, normalizePeriod(period))
}

// List returns the doctor's stored periods ordered by start date.
func (s *VacationService) List(ctx context.Context, license int64) ([]VacationPeriod, error) {
	return s.repo.FindVacationsByDoctor(ctx, license)
}

func normalizePeriod(p VacationPeriod) VacationPeriod {
	p.Start = DateOnly(p.Start)
	p.End = DateOnly(p.End)
	return p
}

// firstOverlap returns the first stored period overlapping candidate,
// skipping ignore when non-nil.
func firstOverlap(candidate VacationPeriod, stored []VacationPeriod, ignore *VacationPeriod) *VacationPeriod {
	for i := range stored {
		if ignore != nil && samePeriod(stored[i], *ignore) {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, stored[i].Start, stored[i].End) {
			return &stored[i]
		}
	}
	return nil
}

func containsPeriod(stored []VacationPeriod, p VacationPeriod) bool {
	for _, s := range stored {
		if samePeriod(s, p) {
			return true
		}
	}
	return false
}

func samePeriod(a, b VacationPeriod) bool {
	return a.DoctorLicense == b.DoctorLicense && a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

func overlapError(candidate, conflict VacationPeriod) error {
	return fmt.Errorf("%w: %s to %s collides with %s to %s",
		ErrVacationOverlap,
		candidate.Start.Format(time.DateOnly), candidate.End.Format(time.DateOnly),
		conflict.Start.Format(time.DateOnly), conflict.End.Format(time.DateOnly))
}
