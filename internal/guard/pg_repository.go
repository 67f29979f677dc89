package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAssignment(row pgx.Row) (*GuardAssignment, error) {
	var a GuardAssignment

	err := row.Scan(
		&a.Number,
		&a.ScheduledAt,
		&a.DoctorLicense,
		&a.SpecialtyCode,
		&a.ShiftSlotID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanAuditEntry(row pgx.Row) (*AuditEntry, error) {
	var e AuditEntry

	err := row.Scan(
		&e.ID,
		&e.AssignmentNumber,
		&e.DoctorLicense,
		&e.SpecialtyCode,
		&e.ScheduledAt,
		&e.Action,
		&e.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// Reference data

func (r *PgRepository) GetDoctorByLicense(ctx context.Context, license int64) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT license, name, primary_specialty, created_at, updated_at
		FROM doctors
		WHERE license = $1
	`, license)

	var d Doctor
	err := row.Scan(&d.License, &d.Name, &d.PrimarySpecialty, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT specialty_code
		FROM doctor_specialties
		WHERE doctor_license = $1
		ORDER BY specialty_code
	`, license)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var code int32
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		d.EligibleSpecialties = append(d.EligibleSpecialties, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *PgRepository) GetSpecialtyByCode(ctx context.Context, code int32) (*Specialty, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT code, sector_id, description
		FROM specialties
		WHERE code = $1
	`, code)

	var s Specialty
	err := row.Scan(&s.Code, &s.SectorID, &s.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) GetShiftSlotByID(ctx context.Context, id int32) (*ShiftSlot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, label
		FROM shift_slots
		WHERE id = $1
	`, id)

	var s ShiftSlot
	err := row.Scan(&s.ID, &s.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShiftSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

// Vacation periods

func (r *PgRepository) FindVacationsByDoctor(ctx context.Context, license int64) ([]VacationPeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_license, start_date, end_date
		FROM vacation_periods
		WHERE doctor_license = $1
		ORDER BY start_date
	`, license)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []VacationPeriod
	for rows.Next() {
		var p VacationPeriod
		if err := rows.Scan(&p.DoctorLicense, &p.Start, &p.End); err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertVacation(ctx context.Context, period VacationPeriod) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vacation_periods (doctor_license, start_date, end_date)
		VALUES ($1, $2, $3)
	`, period.DoctorLicense, period.Start, period.End)
	if err != nil {
		return fmt.Errorf("insert vacation period: %w", err)
	}
	return nil
}

func (r *PgRepository) ReplaceVacation(ctx context.Context, old, updated VacationPeriod) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM vacation_periods
		WHERE doctor_license = $1 AND start_date = $2 AND end_date = $3
	`, old.DoctorLicense, old.Start, old.End)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVacationNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO vacation_periods (doctor_license, start_date, end_date)
		VALUES ($1, $2, $3)
	`, updated.DoctorLicense, updated.Start, updated.End)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) DeleteVacation(ctx context.Context, period VacationPeriod) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM vacation_periods
		WHERE doctor_license = $1 AND start_date = $2 AND end_date = $3
	`, period.DoctorLicense, period.Start, period.End)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Guard assignments

func (r *PgRepository) GetAssignmentByNumber(ctx context.Context, number int64) (*GuardAssignment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT number, scheduled_at, doctor_license, specialty_code, shift_slot_id, created_at, updated_at
		FROM guard_assignments
		WHERE number = $1
	`, number)
	return scanAssignment(row)
}

func (r *PgRepository) CountAssignmentsInMonth(ctx context.Context, license int64, year int, month time.Month, exclude *int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM guard_assignments
		WHERE doctor_license = $1
		  AND scheduled_at >= make_date($2, $3, 1)
		  AND scheduled_at < make_date($2, $3, 1) + interval '1 month'
		  AND ($4::bigint IS NULL OR number <> $4)
	`, license, year, int(month), exclude).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgRepository) InsertAssignment(ctx context.Context, cand Candidate) (*GuardAssignment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO guard_assignments (scheduled_at, doctor_license, specialty_code, shift_slot_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING number, scheduled_at, doctor_license, specialty_code, shift_slot_id, created_at, updated_at
	`, cand.ScheduledAt, cand.DoctorLicense, cand.SpecialtyCode, cand.ShiftSlotID)

	return scanAssignment(row)
}

func (r *PgRepository) UpdateAssignment(ctx context.Context, number int64, cand Candidate) (*GuardAssignment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE guard_assignments
		SET scheduled_at = $2,
		    doctor_license = $3,
		    specialty_code = $4,
		    shift_slot_id = $5,
		    updated_at = now()
		WHERE number = $1
		RETURNING number, scheduled_at, doctor_license, specialty_code, shift_slot_id, created_at, updated_at
	`, number, cand.ScheduledAt, cand.DoctorLicense, cand.SpecialtyCode, cand.ShiftSlotID)

	return scanAssignment(row)
}

func (r *PgRepository) DeleteAssignment(ctx context.Context, number int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM guard_assignments
		WHERE number = $1
	`, number)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Audit log

func (r *PgRepository) AppendAuditEntry(ctx context.Context, entry AuditEntry) (*AuditEntry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO guard_audit_log (assignment_number, doctor_license, specialty_code, scheduled_at, action, recorded_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		RETURNING id, assignment_number, doctor_license, specialty_code, scheduled_at, action, recorded_at
	`, entry.AssignmentNumber, entry.DoctorLicense, entry.SpecialtyCode, entry.ScheduledAt, entry.Action, nullableTime(entry.RecordedAt))

	return scanAuditEntry(row)
}

func (r *PgRepository) ListAuditByAssignment(ctx context.Context, number int64) ([]AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, assignment_number, doctor_license, specialty_code, scheduled_at, action, recorded_at
		FROM guard_audit_log
		WHERE assignment_number = $1
		ORDER BY id
	`, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeleteAuditByAssignment(ctx context.Context, number int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM guard_audit_log
		WHERE assignment_number = $1
	`, number)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) FindAssignmentsMissingAudit(ctx context.Context, limit int) ([]GuardAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.number, a.scheduled_at, a.doctor_license, a.specialty_code, a.shift_slot_id, a.created_at, a.updated_at
		FROM guard_assignments a
		LEFT JOIN guard_audit_log l ON l.assignment_number = a.number
		WHERE l.id IS NULL
		ORDER BY a.number
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GuardAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
