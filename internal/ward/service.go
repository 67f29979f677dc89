package ward

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackgods/hospital-guard-duty/internal/config"
)

// Service owns the room -> bed hierarchy and the bed status lifecycle. The
// one rule that must never break: a bed with occupancy history is never
// physically removed, only deactivated.
type Service struct {
	repo Repository
	cfg  config.Config
}

func NewService(repo Repository, cfg config.Config) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
	}
}

// AddRoom creates a room; the room number is generated by storage.
func (s *Service) AddRoom(ctx context.Context, floor int32, orientation string, sectorID int32) (*Room, error) {
	room, err := s.repo.InsertRoom(ctx, Room{
		Floor:       floor,
		Orientation: orientation,
		SectorID:    sectorID,
	})
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, number int64) (*Room, error) {
	room, err := s.repo.GetRoomByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load room: %w", err)
	}
	return room, nil
}

// AddBed attaches a new ACTIVE bed to an existing room.
func (s *Service) AddBed(ctx context.Context, roomNumber int64, bedNumber int32) (*Bed, error) {
	bed, err := s.repo.InsertBed(ctx, roomNumber, bedNumber)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrDuplicateBed) {
			return nil, err
		}
		return nil, fmt.Errorf("insert bed: %w", err)
	}
	return bed, nil
}

func (s *Service) ListBeds(ctx context.Context, roomNumber int64) ([]Bed, error) {
	if _, err := s.repo.GetRoomByNumber(ctx, roomNumber); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load room: %w", err)
	}
	return s.repo.ListBedsByRoom(ctx, roomNumber)
}

// RemoveOrDeactivateBed handles a removal request. A bed with zero occupancy
// history is physically deleted; a bed with history transitions to INACTIVE.
// The outcome names which of the two happened.
func (s *Service) RemoveOrDeactivateBed(ctx context.Context, roomNumber int64, bedNumber int32) (BedRemoval, error) {
	removal := BedRemoval{RoomNumber: roomNumber, BedNumber: bedNumber}

	if _, err := s.repo.GetBed(ctx, roomNumber, bedNumber); err != nil {
		if errors.Is(err, ErrBedNotFound) {
			return removal, err
		}
		return removal, fmt.Errorf("load bed: %w", err)
	}

	deleted, err := s.repo.DeleteBedIfNoHistory(ctx, roomNumber, bedNumber)
	if err != nil {
		return removal, fmt.Errorf("delete bed: %w", err)
	}
	if deleted {
		removal.Action = BedDeleted
		return removal, nil
	}

	if err := s.repo.DeactivateBed(ctx, roomNumber, bedNumber); err != nil {
		return removal, fmt.Errorf("deactivate bed: %w", err)
	}
	removal.Action = BedDeactivated
	return removal, nil
}

// RemoveRoom removes a room, applying the per-bed delete-or-deactivate rule
// to every owned bed. When cascade deactivation is disabled by policy, any
// ACTIVE or historical bed blocks the removal. When a bed survives as
// INACTIVE the room row is kept (it still owns that bed) and RoomDeleted
// reports false.
func (s *Service) RemoveRoom(ctx context.Context, roomNumber int64) (RoomRemoval, error) {
	result := RoomRemoval{RoomNumber: roomNumber}

	if _, err := s.repo.GetRoomByNumber(ctx, roomNumber); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return result, err
		}
		return result, fmt.Errorf("load room: %w", err)
	}

	beds, err := s.repo.ListBedsByRoom(ctx, roomNumber)
	if err != nil {
		return result, fmt.Errorf("list beds: %w", err)
	}

	if !s.cfg.CascadeDeactivate {
		for _, bed := range beds {
			if bed.Status == BedActive {
				return result, fmt.Errorf("%w: bed %d is active", ErrRoomHasActiveBeds, bed.Number)
			}
			hasHistory, err := s.repo.BedHasHistory(ctx, roomNumber, bed.Number)
			if err != nil {
				return result, fmt.Errorf("check bed history: %w", err)
			}
			if hasHistory {
				return result, fmt.Errorf("%w: bed %d has occupancy history", ErrRoomHasActiveBeds, bed.Number)
			}
		}
	}

	for _, bed := range beds {
		removal, err := s.RemoveOrDeactivateBed(ctx, roomNumber, bed.Number)
		if err != nil {
			return result, err
		}
		result.Beds = append(result.Beds, removal)
	}

	for _, removal := range result.Beds {
		if removal.Action == BedDeactivated {
			// A historical bed anchors the room: nothing left to delete.
			return result, nil
		}
	}

	deleted, err := s.repo.DeleteRoom(ctx, roomNumber)
	if err != nil {
		return result, fmt.Errorf("delete room: %w", err)
	}
	result.RoomDeleted = deleted
	return result, nil
}

// Occupy records a patient taking a bed. Only an ACTIVE, vacant bed can be
// occupied; the occupancy row is what later forbids physical removal.
func (s *Service) Occupy(ctx context.Context, roomNumber int64, bedNumber int32, patientName string) (*Occupancy, error) {
	bed, err := s.repo.GetBed(ctx, roomNumber, bedNumber)
	if err != nil {
		if errors.Is(err, ErrBedNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load bed: %w", err)
	}
	if bed.Status != BedActive {
		return nil, fmt.Errorf("%w: bed %d in room %d", ErrBedNotActive, bedNumber, roomNumber)
	}

	current, err := s.repo.CurrentOccupancy(ctx, roomNumber, bedNumber)
	if err != nil {
		return nil, fmt.Errorf("check current occupancy: %w", err)
	}
	if current != nil {
		return nil, fmt.Errorf("%w: bed %d in room %d", ErrBedOccupied, bedNumber, roomNumber)
	}

	occ, err := s.repo.RecordOccupancy(ctx, Occupancy{
		RoomNumber:  roomNumber,
		BedNumber:   bedNumber,
		PatientName: patientName,
	})
	if err != nil {
		return nil, fmt.Errorf("record occupancy: %w", err)
	}
	return occ, nil
}

// Discharge closes the bed's current occupancy; false when the bed was vacant.
func (s *Service) Discharge(ctx context.Context, roomNumber int64, bedNumber int32) (bool, error) {
	return s.repo.Discharge(ctx, roomNumber, bedNumber)
}

// AvailableBedsBySector counts ACTIVE, unoccupied beds per hospital sector.
func (s *Service) AvailableBedsBySector(ctx context.Context) ([]SectorAvailability, error) {
	return s.repo.AvailableBedsBySector(ctx)
}

// AvailableBedsDetail lists the ACTIVE, unoccupied beds of one sector.
func (s *Service) AvailableBedsDetail(ctx context.Context, sectorID int32) ([]AvailableBed, error) {
	return s.repo.AvailableBedsDetail(ctx, sectorID)
}
