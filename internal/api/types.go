package api

import (
	"time"
)

type GuardRequest struct {
	ScheduledAt   string `json:"scheduled_at"` // RFC 3339
	DoctorLicense int64  `json:"doctor_license"`
	SpecialtyCode int32  `json:"specialty_code"`
	ShiftSlotID   int32  `json:"shift_slot_id"`
}

type GuardResponse struct {
	Number        int64     `json:"number"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	DoctorLicense int64     `json:"doctor_license"`
	SpecialtyCode int32     `json:"specialty_code"`
	ShiftSlotID   int32     `json:"shift_slot_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type AuditEntryResponse struct {
	ID               int64     `json:"id"`
	AssignmentNumber int64     `json:"assignment_number"`
	DoctorLicense    int64     `json:"doctor_license"`
	SpecialtyCode    int32     `json:"specialty_code"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	Action           string    `json:"action"`
	RecordedAt       time.Time `json:"recorded_at"`
}

type VacationRequest struct {
	DoctorLicense int64  `json:"doctor_license"`
	Start         string `json:"start"` // YYYY-MM-DD, inclusive
	End           string `json:"end"`   // YYYY-MM-DD, inclusive
}

type ReplaceVacationRequest struct {
	Old VacationRequest `json:"old"`
	New VacationRequest `json:"new"`
}

type VacationResponse struct {
	DoctorLicense int64  `json:"doctor_license"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

type CreateRoomRequest struct {
	Floor       int32  `json:"floor"`
	Orientation string `json:"orientation"`
	SectorID    int32  `json:"sector_id"`
}

type RoomResponse struct {
	Number      int64  `json:"number"`
	Floor       int32  `json:"floor"`
	Orientation string `json:"orientation"`
	SectorID    int32  `json:"sector_id"`
}

type AddBedRequest struct {
	BedNumber int32 `json:"bed_number"`
}

type BedResponse struct {
	RoomNumber int64  `json:"room_number"`
	BedNumber  int32  `json:"bed_number"`
	Status     string `json:"status"`
}

type BedRemovalResponse struct {
	RoomNumber int64  `json:"room_number"`
	BedNumber  int32  `json:"bed_number"`
	Action     string `json:"action"` // "deleted" or "deactivated"
}

type RoomRemovalResponse struct {
	RoomNumber  int64                `json:"room_number"`
	RoomDeleted bool                 `json:"room_deleted"`
	Beds        []BedRemovalResponse `json:"beds"`
}

type OccupyRequest struct {
	PatientName string `json:"patient_name"`
}

type OccupancyResponse struct {
	ID          int64     `json:"id"`
	RoomNumber  int64     `json:"room_number"`
	BedNumber   int32     `json:"bed_number"`
	PatientName string    `json:"patient_name"`
	AdmittedAt  time.Time `json:"admitted_at"`
}

type SectorAvailabilityResponse struct {
	SectorID      int32 `json:"sector_id"`
	AvailableBeds int   `json:"available_beds"`
}

type AvailableBedResponse struct {
	RoomNumber  int64  `json:"room_number"`
	BedNumber   int32  `json:"bed_number"`
	Floor       int32  `json:"floor"`
	Orientation string `json:"orientation"`
}

type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

type ErrorResponse struct {
	Error            string `json:"error"`
	Details          string `json:"details,omitempty"`
	AssignmentNumber *int64 `json:"assignment_number,omitempty"`
}
