package guard

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeLocker serializes per-doctor sections with real mutexes so concurrent
// tests exercise the same one-writer-per-doctor guarantee the Redis locker
// provides in production.
type fakeLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locks: make(map[int64]*sync.Mutex)}
}

func (l *fakeLocker) WithDoctorLock(ctx context.Context, license int64, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[license]
	if !ok {
		m = &sync.Mutex{}
		l.locks[license] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	mu sync.Mutex

	doctors     map[int64]*Doctor
	specialties map[int32]*Specialty
	slots       map[int32]*ShiftSlot

	vacations []VacationPeriod

	assignments map[int64]*GuardAssignment
	nextNumber  int64

	audit       []AuditEntry
	nextAuditID int64

	failAudit error // when set, AppendAuditEntry fails with it
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		doctors:     make(map[int64]*Doctor),
		specialties: make(map[int32]*Specialty),
		slots:       make(map[int32]*ShiftSlot),
		assignments: make(map[int64]*GuardAssignment),
	}
}

func (r *fakeRepo) addDoctor(license int64, eligible ...int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	primary := int32(0)
	if len(eligible) > 0 {
		primary = eligible[0]
	}
	r.doctors[license] = &Doctor{
		License:             license,
		Name:                "Dr. Test",
		PrimarySpecialty:    primary,
		EligibleSpecialties: eligible,
	}
}

func (r *fakeRepo) addSpecialty(code, sector int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specialties[code] = &Specialty{Code: code, SectorID: sector, Description: "specialty"}
}

func (r *fakeRepo) addShiftSlot(id int32, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[id] = &ShiftSlot{ID: id, Label: label}
}

func (r *fakeRepo) GetDoctorByLicense(_ context.Context, license int64) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[license]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *fakeRepo) GetSpecialtyByCode(_ context.Context, code int32) (*Specialty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specialties[code]
	if !ok {
		return nil, ErrSpecialtyNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeRepo) GetShiftSlotByID(_ context.Context, id int32) (*ShiftSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrShiftSlotNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeRepo) FindVacationsByDoctor(_ context.Context, license int64) ([]VacationPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []VacationPeriod
	for _, p := range r.vacations {
		if p.DoctorLicense == license {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakeRepo) InsertVacation(_ context.Context, period VacationPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vacations = append(r.vacations, period)
	return nil
}

func (r *fakeRepo) ReplaceVacation(_ context.Context, old, updated VacationPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.vacations {
		if samePeriod(p, old) {
			r.vacations[i] = updated
			return nil
		}
	}
	return ErrVacationNotFound
}

func (r *fakeRepo) DeleteVacation(_ context.Context, period VacationPeriod) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.vacations {
		if samePeriod(p, period) {
			r.vacations = append(r.vacations[:i], r.vacations[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) GetAssignmentByNumber(_ context.Context, number int64) (*GuardAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[number]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeRepo) CountAssignmentsInMonth(_ context.Context, license int64, year int, month time.Month, exclude *int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, a := range r.assignments {
		if a.DoctorLicense != license {
			continue
		}
		if exclude != nil && a.Number == *exclude {
			continue
		}
		y, m := a.ScheduledAt.Year(), a.ScheduledAt.Month()
		if y == year && m == month {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) InsertAssignment(_ context.Context, cand Candidate) (*GuardAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextNumber++
	now := time.Now()
	a := &GuardAssignment{
		Number:        r.nextNumber,
		ScheduledAt:   cand.ScheduledAt,
		DoctorLicense: cand.DoctorLicense,
		SpecialtyCode: cand.SpecialtyCode,
		ShiftSlotID:   cand.ShiftSlotID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.assignments[a.Number] = a
	copied := *a
	return &copied, nil
}

func (r *fakeRepo) UpdateAssignment(_ context.Context, number int64, cand Candidate) (*GuardAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[number]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	a.ScheduledAt = cand.ScheduledAt
	a.DoctorLicense = cand.DoctorLicense
	a.SpecialtyCode = cand.SpecialtyCode
	a.ShiftSlotID = cand.ShiftSlotID
	a.UpdatedAt = time.Now()
	copied := *a
	return &copied, nil
}

func (r *fakeRepo) DeleteAssignment(_ context.Context, number int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[number]; !ok {
		return false, nil
	}
	delete(r.assignments, number)
	return true, nil
}

func (r *fakeRepo) AppendAuditEntry(_ context.Context, entry AuditEntry) (*AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAudit != nil {
		return nil, r.failAudit
	}
	r.nextAuditID++
	entry.ID = r.nextAuditID
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	r.audit = append(r.audit, entry)
	copied := entry
	return &copied, nil
}

func (r *fakeRepo) ListAuditByAssignment(_ context.Context, number int64) ([]AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []AuditEntry
	for _, e := range r.audit {
		if e.AssignmentNumber == number {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeRepo) DeleteAuditByAssignment(_ context.Context, number int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []AuditEntry
	var removed int64
	for _, e := range r.audit {
		if e.AssignmentNumber == number {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.audit = kept
	return removed, nil
}

func (r *fakeRepo) FindAssignmentsMissingAudit(_ context.Context, limit int) ([]GuardAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	audited := make(map[int64]bool)
	for _, e := range r.audit {
		audited[e.AssignmentNumber] = true
	}
	var result []GuardAssignment
	for _, a := range r.assignments {
		if !audited[a.Number] {
			result = append(result, *a)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

var errStorageDown = errors.New("storage down")
