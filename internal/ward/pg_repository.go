package ward

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room

	err := row.Scan(
		&r.Number,
		&r.Floor,
		&r.Orientation,
		&r.SectorID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return &r, nil
}

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed

	err := row.Scan(
		&b.RoomNumber,
		&b.Number,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBedNotFound
		}
		return nil, err
	}

	return &b, nil
}

func scanOccupancy(row pgx.Row) (*Occupancy, error) {
	var o Occupancy

	err := row.Scan(
		&o.ID,
		&o.RoomNumber,
		&o.BedNumber,
		&o.PatientName,
		&o.AdmittedAt,
		&o.DischargedAt,
	)
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// Rooms

func (r *PgRepository) InsertRoom(ctx context.Context, room Room) (*Room, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO rooms (floor, orientation, sector_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING number, floor, orientation, sector_id, created_at, updated_at
	`, room.Floor, room.Orientation, room.SectorID)

	return scanRoom(row)
}

func (r *PgRepository) GetRoomByNumber(ctx context.Context, number int64) (*Room, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT number, floor, orientation, sector_id, created_at, updated_at
		FROM rooms
		WHERE number = $1
	`, number)

	return scanRoom(row)
}

func (r *PgRepository) DeleteRoom(ctx context.Context, number int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM rooms
		WHERE number = $1
	`, number)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Beds

func (r *PgRepository) GetBed(ctx context.Context, roomNumber int64, bedNumber int32) (*Bed, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT room_number, number, status, created_at, updated_at
		FROM beds
		WHERE room_number = $1 AND number = $2
	`, roomNumber, bedNumber)

	return scanBed(row)
}

func (r *PgRepository) InsertBed(ctx context.Context, roomNumber int64, bedNumber int32) (*Bed, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO beds (room_number, number, status, created_at, updated_at)
		VALUES ($1, $2, 'active', now(), now())
		RETURNING room_number, number, status, created_at, updated_at
	`, roomNumber, bedNumber)

	bed, err := scanBed(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return nil, ErrDuplicateBed
			case pgForeignKeyViolation:
				return nil, ErrRoomNotFound
			}
		}
		return nil, err
	}

	return bed, nil
}

func (r *PgRepository) ListBedsByRoom(ctx context.Context, roomNumber int64) ([]Bed, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT room_number, number, status, created_at, updated_at
		FROM beds
		WHERE room_number = $1
		ORDER BY number
	`, roomNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeactivateBed(ctx context.Context, roomNumber int64, bedNumber int32) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE beds
		SET status = 'inactive',
		    updated_at = now()
		WHERE room_number = $1 AND number = $2
	`, roomNumber, bedNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBedNotFound
	}
	return nil
}

// DeleteBedIfNoHistory locks the bed row, checks for occupancy history and
// deletes inside one transaction, so a concurrent admission cannot slip in
// between the check and the delete.
func (r *PgRepository) DeleteBedIfNoHistory(ctx context.Context, roomNumber int64, bedNumber int32) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT true
		FROM beds
		WHERE room_number = $1 AND number = $2
		FOR UPDATE
	`, roomNumber, bedNumber).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrBedNotFound
		}
		return false, err
	}

	var historyCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM bed_occupancy
		WHERE room_number = $1 AND bed_number = $2
	`, roomNumber, bedNumber).Scan(&historyCount)
	if err != nil {
		return false, err
	}

	if historyCount > 0 {
		return false, tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM beds
		WHERE room_number = $1 AND number = $2
	`, roomNumber, bedNumber)
	if err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (r *PgRepository) BedHasHistory(ctx context.Context, roomNumber int64, bedNumber int32) (bool, error) {
	var has bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM bed_occupancy
			WHERE room_number = $1 AND bed_number = $2
		)
	`, roomNumber, bedNumber).Scan(&has)
	if err != nil {
		return false, err
	}
	return has, nil
}

// Occupancy

func (r *PgRepository) RecordOccupancy(ctx context.Context, occ Occupancy) (*Occupancy, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bed_occupancy (room_number, bed_number, patient_name, admitted_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, room_number, bed_number, patient_name, admitted_at, discharged_at
	`, occ.RoomNumber, occ.BedNumber, occ.PatientName)

	saved, err := scanOccupancy(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrBedNotFound
		}
		return nil, fmt.Errorf("insert occupancy: %w", err)
	}

	return saved, nil
}

func (r *PgRepository) CurrentOccupancy(ctx context.Context, roomNumber int64, bedNumber int32) (*Occupancy, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, room_number, bed_number, patient_name, admitted_at, discharged_at
		FROM bed_occupancy
		WHERE room_number = $1 AND bed_number = $2 AND discharged_at IS NULL
	`, roomNumber, bedNumber)

	occ, err := scanOccupancy(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return occ, nil
}

func (r *PgRepository) Discharge(ctx context.Context, roomNumber int64, bedNumber int32) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bed_occupancy
		SET discharged_at = now()
		WHERE room_number = $1 AND bed_number = $2 AND discharged_at IS NULL
	`, roomNumber, bedNumber)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Availability projections

func (r *PgRepository) AvailableBedsBySector(ctx context.Context) ([]SectorAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rm.sector_id, COUNT(*)
		FROM beds b
		JOIN rooms rm ON rm.number = b.room_number
		WHERE b.status = 'active'
		  AND NOT EXISTS (
			SELECT 1
			FROM bed_occupancy o
			WHERE o.room_number = b.room_number
			  AND o.bed_number = b.number
			  AND o.discharged_at IS NULL
		  )
		GROUP BY rm.sector_id
		ORDER BY rm.sector_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SectorAvailability
	for rows.Next() {
		var sa SectorAvailability
		if err := rows.Scan(&sa.SectorID, &sa.AvailableBeds); err != nil {
			return nil, err
		}
		result = append(result, sa)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) AvailableBedsDetail(ctx context.Context, sectorID int32) ([]AvailableBed, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.room_number, b.number, rm.floor, rm.orientation
		FROM beds b
		JOIN rooms rm ON rm.number = b.room_number
		WHERE rm.sector_id = $1
		  AND b.status = 'active'
		  AND NOT EXISTS (
			SELECT 1
			FROM bed_occupancy o
			WHERE o.room_number = b.room_number
			  AND o.bed_number = b.number
			  AND o.discharged_at IS NULL
		  )
		ORDER BY b.room_number, b.number
	`, sectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailableBed
	for rows.Next() {
		var ab AvailableBed
		if err := rows.Scan(&ab.RoomNumber, &ab.BedNumber, &ab.Floor, &ab.Orientation); err != nil {
			return nil, err
		}
		result = append(result, ab)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
