package ward

import (
	"time"
)

type BedStatus string

const (
	BedActive   BedStatus = "active"
	BedInactive BedStatus = "inactive"
)

// Room owns its beds; the bed key embeds the room number.
type Room struct {
	Number      int64
	Floor       int32
	Orientation string
	SectorID    int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Bed struct {
	RoomNumber int64
	Number     int32
	Status     BedStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Occupancy is one stay of a patient in a bed. A bed with any occupancy row,
// past or current, can never be physically removed.
type Occupancy struct {
	ID           int64
	RoomNumber   int64
	BedNumber    int32
	PatientName  string
	AdmittedAt   time.Time
	DischargedAt *time.Time
}

// BedRemovalAction distinguishes the two outcomes of a removal request.
// Deliberately not a bool: callers must not confuse a physical delete with a
// deactivation.
type BedRemovalAction string

const (
	BedDeleted     BedRemovalAction = "deleted"
	BedDeactivated BedRemovalAction = "deactivated"
)

type BedRemoval struct {
	RoomNumber int64
	BedNumber  int32
	Action     BedRemovalAction
}

// RoomRemoval reports what happened to the room and to each of its beds.
// RoomDeleted is false when historical beds forced the room to stay behind
// with its beds deactivated.
type RoomRemoval struct {
	RoomNumber  int64
	RoomDeleted bool
	Beds        []BedRemoval
}

type SectorAvailability struct {
	SectorID      int32
	AvailableBeds int
}

type AvailableBed struct {
	RoomNumber  int64
	BedNumber   int32
	Floor       int32
	Orientation string
}
