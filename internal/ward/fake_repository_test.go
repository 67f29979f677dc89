package ward

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	mu sync.Mutex

	rooms    map[int64]*Room
	nextRoom int64

	beds map[string]*Bed

	occupancy []Occupancy
	nextOcc   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rooms: make(map[int64]*Room),
		beds:  make(map[string]*Bed),
	}
}

func bedKey(roomNumber int64, bedNumber int32) string {
	return fmt.Sprintf("%d/%d", roomNumber, bedNumber)
}

func (r *fakeRepo) InsertRoom(_ context.Context, room Room) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextRoom++
	room.Number = r.nextRoom
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	r.rooms[room.Number] = &room
	copied := room
	return &copied, nil
}

func (r *fakeRepo) GetRoomByNumber(_ context.Context, number int64) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[number]
	if !ok {
		return nil, ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *fakeRepo) DeleteRoom(_ context.Context, number int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[number]; !ok {
		return false, nil
	}
	delete(r.rooms, number)
	return true, nil
}

func (r *fakeRepo) GetBed(_ context.Context, roomNumber int64, bedNumber int32) (*Bed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bed, ok := r.beds[bedKey(roomNumber, bedNumber)]
	if !ok {
		return nil, ErrBedNotFound
	}
	copied := *bed
	return &copied, nil
}

func (r *fakeRepo) InsertBed(_ context.Context, roomNumber int64, bedNumber int32) (*Bed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomNumber]; !ok {
		return nil, ErrRoomNotFound
	}
	key := bedKey(roomNumber, bedNumber)
	if _, ok := r.beds[key]; ok {
		return nil, ErrDuplicateBed
	}
	now := time.Now()
	bed := &Bed{
		RoomNumber: roomNumber,
		Number:     bedNumber,
		Status:     BedActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.beds[key] = bed
	copied := *bed
	return &copied, nil
}

func (r *fakeRepo) ListBedsByRoom(_ context.Context, roomNumber int64) ([]Bed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Bed
	for _, bed := range r.beds {
		if bed.RoomNumber == roomNumber {
			result = append(result, *bed)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *fakeRepo) DeactivateBed(_ context.Context, roomNumber int64, bedNumber int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bed, ok := r.beds[bedKey(roomNumber, bedNumber)]
	if !ok {
		return ErrBedNotFound
	}
	bed.Status = BedInactive
	bed.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) DeleteBedIfNoHistory(_ context.Context, roomNumber int64, bedNumber int32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := bedKey(roomNumber, bedNumber)
	if _, ok := r.beds[key]; !ok {
		return false, ErrBedNotFound
	}
	if r.hasHistoryLocked(roomNumber, bedNumber) {
		return false, nil
	}
	delete(r.beds, key)
	return true, nil
}

func (r *fakeRepo) BedHasHistory(_ context.Context, roomNumber int64, bedNumber int32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasHistoryLocked(roomNumber, bedNumber), nil
}

func (r *fakeRepo) hasHistoryLocked(roomNumber int64, bedNumber int32) bool {
	for _, occ := range r.occupancy {
		if occ.RoomNumber == roomNumber && occ.BedNumber == bedNumber {
			return true
		}
	}
	return false
}

func (r *fakeRepo) RecordOccupancy(_ context.Context, occ Occupancy) (*Occupancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.beds[bedKey(occ.RoomNumber, occ.BedNumber)]; !ok {
		return nil, ErrBedNotFound
	}
	r.nextOcc++
	occ.ID = r.nextOcc
	occ.AdmittedAt = time.Now()
	r.occupancy = append(r.occupancy, occ)
	copied := occ
	return &copied, nil
}

func (r *fakeRepo) CurrentOccupancy(_ context.Context, roomNumber int64, bedNumber int32) (*Occupancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.occupancy {
		occ := &r.occupancy[i]
		if occ.RoomNumber == roomNumber && occ.BedNumber == bedNumber && occ.DischargedAt == nil {
			copied := *occ
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) Discharge(_ context.Context, roomNumber int64, bedNumber int32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.occupancy {
		occ := &r.occupancy[i]
		if occ.RoomNumber == roomNumber && occ.BedNumber == bedNumber && occ.DischargedAt == nil {
			now := time.Now()
			occ.DischargedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) AvailableBedsBySector(_ context.Context) ([]SectorAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[int32]int)
	for _, bed := range r.beds {
		if !r.availableLocked(bed) {
			continue
		}
		counts[r.rooms[bed.RoomNumber].SectorID]++
	}

	var result []SectorAvailability
	for sector, count := range counts {
		result = append(result, SectorAvailability{SectorID: sector, AvailableBeds: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SectorID < result[j].SectorID })
	return result, nil
}

func (r *fakeRepo) AvailableBedsDetail(_ context.Context, sectorID int32) ([]AvailableBed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []AvailableBed
	for _, bed := range r.beds {
		room := r.rooms[bed.RoomNumber]
		if room.SectorID != sectorID || !r.availableLocked(bed) {
			continue
		}
		result = append(result, AvailableBed{
			RoomNumber:  bed.RoomNumber,
			BedNumber:   bed.Number,
			Floor:       room.Floor,
			Orientation: room.Orientation,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RoomNumber != result[j].RoomNumber {
			return result[i].RoomNumber < result[j].RoomNumber
		}
		return result[i].BedNumber < result[j].BedNumber
	})
	return result, nil
}

func (r *fakeRepo) availableLocked(bed *Bed) bool {
	if bed.Status != BedActive {
		return false
	}
	for _, occ := range r.occupancy {
		if occ.RoomNumber == bed.RoomNumber && occ.BedNumber == bed.Number && occ.DischargedAt == nil {
			return false
		}
	}
	return true
}
