package ward

import (
	"context"
	"errors"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrBedNotFound       = errors.New("bed not found")
	ErrDuplicateBed      = errors.New("bed already exists in room")
	ErrRoomHasActiveBeds = errors.New("room still has active or historical beds")
	ErrBedNotActive      = errors.New("bed is not active")
	ErrBedOccupied       = errors.New("bed has a current occupant")
)

// Repository contains all DB interactions needed by the ward service.
type Repository interface {
	// Rooms. The room number is generated on insert.
	InsertRoom(ctx context.Context, room Room) (*Room, error)
	GetRoomByNumber(ctx context.Context, number int64) (*Room, error)
	DeleteRoom(ctx context.Context, number int64) (bool, error)

	// Beds.
	GetBed(ctx context.Context, roomNumber int64, bedNumber int32) (*Bed, error)
	InsertBed(ctx context.Context, roomNumber int64, bedNumber int32) (*Bed, error)
	ListBedsByRoom(ctx context.Context, roomNumber int64) ([]Bed, error)
	DeactivateBed(ctx context.Context, roomNumber int64, bedNumber int32) error
	// DeleteBedIfNoHistory checks for occupancy history and deletes the bed
	// in one transaction; reports whether the delete happened.
	DeleteBedIfNoHistory(ctx context.Context, roomNumber int64, bedNumber int32) (bool, error)
	BedHasHistory(ctx context.Context, roomNumber int64, bedNumber int32) (bool, error)

	// Occupancy.
	RecordOccupancy(ctx context.Context, occ Occupancy) (*Occupancy, error)
	CurrentOccupancy(ctx context.Context, roomNumber int64, bedNumber int32) (*Occupancy, error)
	Discharge(ctx context.Context, roomNumber int64, bedNumber int32) (bool, error)

	// Availability projections: status = active and no current occupant.
	AvailableBedsBySector(ctx context.Context) ([]SectorAvailability, error)
	AvailableBedsDetail(ctx context.Context, sectorID int32) ([]AvailableBed, error)
}
