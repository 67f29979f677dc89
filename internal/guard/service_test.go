package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-guard-duty/internal/config"
)

const (
	testLicense   = int64(1234)
	testSpecialty = int32(101)
	testSlot      = int32(1)
)

func newGuardFixture(t *testing.T, cfg config.Config) (*Service, *fakeRepo) {
	t.Helper()

	if cfg.MonthlyGuardQuota == 0 {
		cfg.MonthlyGuardQuota = 3
	}
	if cfg.AuditRetention == "" {
		cfg.AuditRetention = config.RetainAudit
	}

	repo := newFakeRepo()
	repo.addDoctor(testLicense, testSpecialty)
	repo.addSpecialty(testSpecialty, 1)
	repo.addSpecialty(102, 1)
	repo.addShiftSlot(testSlot, "Night")

	locker := newFakeLocker()
	vacations := NewVacationService(repo, locker)
	recorder := NewRecorder(repo)
	svc := NewService(repo, vacations, recorder, locker, cfg)

	return svc, repo
}

func candidate(scheduledAt time.Time) Candidate {
	return Candidate{
		ScheduledAt:   scheduledAt,
		DoctorLicense: testLicense,
		SpecialtyCode: testSpecialty,
		ShiftSlotID:   testSlot,
	}
}

func guardTime(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 20, 0, 0, 0, time.UTC)
}

func TestCreateAssignment(t *testing.T) {
	svc, repo := newGuardFixture(t, config.Config{})
	ctx := context.Background()

	appt, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 15)))
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.NotZero(t, appt.Number, "assignment number is storage generated")

	// Exactly one audit entry referencing the new assignment
	trail, err := svc.AuditTrail(ctx, appt.Number)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, appt.Number, trail[0].AssignmentNumber)
	assert.Equal(t, AuditActionCreate, trail[0].Action)

	assert.Len(t, repo.assignments, 1)
}

func TestCreateAssignmentStructuralValidation(t *testing.T) {
	svc, repo := newGuardFixture(t, config.Config{})
	ctx := context.Background()

	tests := []struct {
		name string
		cand Candidate
	}{
		{"zero timestamp", Candidate{DoctorLicense: testLicense, SpecialtyCode: testSpecialty, ShiftSlotID: testSlot}},
		{"missing doctor", Candidate{ScheduledAt: guardTime(2024, 6, 15), SpecialtyCode: testSpecialty, ShiftSlotID: testSlot}},
		{"missing specialty", Candidate{ScheduledAt: guardTime(2024, 6, 15), DoctorLicense: testLicense, ShiftSlotID: testSlot}},
		{"missing shift slot", Candidate{ScheduledAt: guardTime(2024, 6, 15), DoctorLicense: testLicense, SpecialtyCode: testSpecialty}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAssignment(ctx, tt.cand)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// Validation failures never write
	assert.Empty(t, repo.assignments)
	assert.Empty(t, repo.audit)
}

func TestCreateAssignmentUnknownReferences(t *testing.T) {
	svc, _ := newGuardFixture(t, config.Config{})
	ctx := context.Background()

	cand := candidate(guardTime(2024, 6, 15))
	cand.DoctorLicense = 999
	_, err := svc.CreateAssignment(ctx, cand)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	cand = candidate(guardTime(2024, 6, 15))
	cand.SpecialtyCode = 999
	_, err = svc.CreateAssignment(ctx, cand)
	assert.ErrorIs(t, err, ErrSpecialtyNotFound)

	cand = candidate(guardTime(2024, 6, 15))
	cand.ShiftSlotID = 999
	_, err = svc.CreateAssignment(ctx, cand)
	assert.ErrorIs(t, err, ErrShiftSlotNotFound)
}

func TestCreateAssignmentIneligibleSpecialty(t *testing.T) {
	svc, _ := newGuardFixture(t, config.Config{})

	cand := candidate(guardTime(2024, 6, 15))
	cand.SpecialtyCode = 102 // exists, but the doctor is not eligible

	_, err := svc.CreateAssignment(context.Background(), cand)
	assert.ErrorIs(t, err, ErrIneligibleSpecialty)
}

func TestCreateAssignmentVacationBoundary(t *testing.T) {
	svc, repo := newGuardFixture(t, config.Config{})
	ctx := context.Background()

	repo.vacations = append(repo.vacations, VacationPeriod{
		DoctorLicense: testLicense,
		Start:         date(2024, 6, 1),
		End:           date(2024, 6, 10),
	})

	// Last vacation day still conflicts
	_, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 10)))
	assert.ErrorIs(t, err, ErrVacationConflict)

	// The day after is fine
	_, err = svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 11)))
	assert.NoError(t, err)
}

func TestCreateAssignmentQuota(t *testing.T) {
	svc, _ := newGuardFixture(t, config.Config{MonthlyGuardQuota: 2})
	ctx := context.Background()

	_, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 5)))
	require.NoError(t, err)
	_, err = svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 12)))
	require.NoError(t, err)

	// At the quota: one more in June fails
	_, err = svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 20)))
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// July is a fresh month
	_, err = svc.CreateAssignment(ctx, candidate(guardTime(2024, 7, 1)))
	assert.NoError(t, err)
}

func TestUpdateAssignmentSelfExclusion(t *testing.T) {
	svc, _ := newGuardFixture(t, config.Config{MonthlyGuardQuota: 1})
	ctx := context.Background()

	appt, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 5)))
	require.NoError(t, err)

	// Moving the only assignment within its own month must not trip the
	// quota against itself.
	updated, err := svc.UpdateAssignment(ctx, appt.Number, candidate(guardTime(2024, 6, 20)))
	require.NoError(t, err)
	assert.Equal(t, appt.Number, updated.Number, "assignment number is preserved")
	assert.Equal(t, guardTime(2024, 6, 20), updated.ScheduledAt)
}

func TestUpdateAssignmentRevalidates(t *testing.T) {
	svc, repo := newGuardFixture(t, config.Config{})
	ctx := context.Background()

	appt, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 15)))
	require.NoError(t, err)

	repo.vacations = append(repo.vacations, VacationPeriod{
		DoctorLicense: testLicense,
		Start:         date(2024, 7, 1),
		End:           date(2024, 7, 10),
	})

	_, err = svc.UpdateAssignment(ctx, appt.Number, candidate(guardTime(2024, 7, 5)))
	assert.ErrorIs(t, err, ErrVacationConflict)
}

func TestUpdateAssignmentNotFound(t *testing.T) {
	svc, _ := newGuardFixture(t, config.Config{})

	_, err := svc.UpdateAssignment(context.Background(), 999, candidate(guardTime(2024, 6, 15)))
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestUpdateAssignmentAuditsEveryMutation(t *testing.T) {
	svc, _ := newGuardFixture(t, config.Config{})
	ctx := context.Background()

	appt, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 15)))
	require.NoError(t, err)

	_, err = svc.UpdateAssignment(ctx, appt.Number, candidate(guardTime(2024, 6, 16)))
	require.NoError(t, err)

	trail, err := svc.AuditTrail(ctx, appt.Number)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, AuditActionCreate, trail[0].Action)
	assert.Equal(t, AuditActionUpdate, trail[1].Action)
}

func TestDeleteAssignment(t *testing.T) {
	svc, _ := newGuardFixture(t, config.Config{})
	ctx := context.Background()

	appt, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 15)))
	require.NoError(t, err)

	deleted, err := svc.DeleteAssignment(ctx, appt.Number)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteAssignment(ctx, appt.Number)
	require.NoError(t, err)
	assert.False(t, deleted)

	// Retain policy: prior audit entries survive the delete untouched
	trail, err := svc.AuditTrail(ctx, appt.Number)
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

func TestDeleteAssignmentPurgesAuditWhenConfigured(t *testing.T) {
	svc, _ := newGuardFixture(t, config.Config{AuditRetention: config.PurgeAudit})
	ctx := context.Background()

	appt, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 15)))
	require.NoError(t, err)

	deleted, err := svc.DeleteAssignment(ctx, appt.Number)
	require.NoError(t, err)
	assert.True(t, deleted)

	trail, err := svc.AuditTrail(ctx, appt.Number)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestCreateAssignmentPartialFailure(t *testing.T) {
	svc, repo := newGuardFixture(t, config.Config{})
	ctx := context.Background()

	repo.failAudit = errStorageDown

	_, err := svc.CreateAssignment(ctx, candidate(guardTime(2024, 6, 15)))
	require.Error(t, err)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.NotZero(t, partial.AssignmentNumber, "the persisted number must be named")

	// The assignment exists but is unaudited: the checker must find it
	repo.failAudit = nil
	missing, err := svc.FindUnaudited(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, partial.AssignmentNumber, missing[0].Number)
}
