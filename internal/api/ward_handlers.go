package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/hospital-guard-duty/internal/ward"
)

func createRoomHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		room, err := svc.AddRoom(r.Context(), req.Floor, req.Orientation, req.SectorID)
		if err != nil {
			handleWardError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, roomResponse(room))
	}
}

func getRoomHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}

		room, err := svc.GetRoom(r.Context(), number)
		if err != nil {
			handleWardError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, roomResponse(room))
	}
}

func removeRoomHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}

		removal, err := svc.RemoveRoom(r.Context(), number)
		if err != nil {
			handleWardError(w, err)
			return
		}

		resp := RoomRemovalResponse{
			RoomNumber:  removal.RoomNumber,
			RoomDeleted: removal.RoomDeleted,
			Beds:        make([]BedRemovalResponse, 0, len(removal.Beds)),
		}
		for _, b := range removal.Beds {
			resp.Beds = append(resp.Beds, bedRemovalResponse(b))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listBedsHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}

		beds, err := svc.ListBeds(r.Context(), number)
		if err != nil {
			handleWardError(w, err)
			return
		}

		resp := make([]BedResponse, 0, len(beds))
		for _, b := range beds {
			resp = append(resp, BedResponse{
				RoomNumber: b.RoomNumber,
				BedNumber:  b.Number,
				Status:     string(b.Status),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func addBedHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}

		var req AddBedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.BedNumber <= 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "bed_number must be positive")
			return
		}

		bed, err := svc.AddBed(r.Context(), number, req.BedNumber)
		if err != nil {
			handleWardError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BedResponse{
			RoomNumber: bed.RoomNumber,
			BedNumber:  bed.Number,
			Status:     string(bed.Status),
		})
	}
}

func removeBedHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomNumber, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}
		bedNumber, ok := parseBedParam(w, r)
		if !ok {
			return
		}

		removal, err := svc.RemoveOrDeactivateBed(r.Context(), roomNumber, bedNumber)
		if err != nil {
			handleWardError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bedRemovalResponse(removal))
	}
}

func occupyBedHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomNumber, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}
		bedNumber, ok := parseBedParam(w, r)
		if !ok {
			return
		}

		var req OccupyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.PatientName == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "patient_name is required")
			return
		}

		occ, err := svc.Occupy(r.Context(), roomNumber, bedNumber, req.PatientName)
		if err != nil {
			handleWardError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, OccupancyResponse{
			ID:          occ.ID,
			RoomNumber:  occ.RoomNumber,
			BedNumber:   occ.BedNumber,
			PatientName: occ.PatientName,
			AdmittedAt:  occ.AdmittedAt,
		})
	}
}

func dischargeBedHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomNumber, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}
		bedNumber, ok := parseBedParam(w, r)
		if !ok {
			return
		}

		discharged, err := svc.Discharge(r.Context(), roomNumber, bedNumber)
		if err != nil {
			handleWardError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DeletedResponse{Deleted: discharged})
	}
}

func availableBedsBySectorHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sectors, err := svc.AvailableBedsBySector(r.Context())
		if err != nil {
			handleWardError(w, err)
			return
		}

		resp := make([]SectorAvailabilityResponse, 0, len(sectors))
		for _, s := range sectors {
			resp = append(resp, SectorAvailabilityResponse{
				SectorID:      s.SectorID,
				AvailableBeds: s.AvailableBeds,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func availableBedsDetailHandler(svc *ward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sectorID, err := strconv.ParseInt(chi.URLParam(r, "sector"), 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "sector must be an integer")
			return
		}

		beds, err := svc.AvailableBedsDetail(r.Context(), int32(sectorID))
		if err != nil {
			handleWardError(w, err)
			return
		}

		resp := make([]AvailableBedResponse, 0, len(beds))
		for _, b := range beds {
			resp = append(resp, AvailableBedResponse{
				RoomNumber:  b.RoomNumber,
				BedNumber:   b.BedNumber,
				Floor:       b.Floor,
				Orientation: b.Orientation,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// Helpers

func roomResponse(room *ward.Room) RoomResponse {
	return RoomResponse{
		Number:      room.Number,
		Floor:       room.Floor,
		Orientation: room.Orientation,
		SectorID:    room.SectorID,
	}
}

func bedRemovalResponse(b ward.BedRemoval) BedRemovalResponse {
	return BedRemovalResponse{
		RoomNumber: b.RoomNumber,
		BedNumber:  b.BedNumber,
		Action:     string(b.Action),
	}
}

func parseBedParam(w http.ResponseWriter, r *http.Request) (int32, bool) {
	bed, err := strconv.ParseInt(chi.URLParam(r, "bed"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "bed must be an integer")
		return 0, false
	}
	return int32(bed), true
}

func handleWardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ward.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room_not_found", err.Error())
	case errors.Is(err, ward.ErrBedNotFound):
		writeError(w, http.StatusNotFound, "bed_not_found", err.Error())
	case errors.Is(err, ward.ErrDuplicateBed):
		writeError(w, http.StatusConflict, "duplicate_bed", err.Error())
	case errors.Is(err, ward.ErrRoomHasActiveBeds):
		writeError(w, http.StatusConflict, "room_has_active_beds", err.Error())
	case errors.Is(err, ward.ErrBedNotActive):
		writeError(w, http.StatusConflict, "bed_not_active", err.Error())
	case errors.Is(err, ward.ErrBedOccupied):
		writeError(w, http.StatusConflict, "bed_occupied", err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	}
}
