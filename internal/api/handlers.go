package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/hospital-guard-duty/internal/guard"
)

func createGuardHandler(svc *guard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		cand, err := candidateFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		appt, err := svc.CreateAssignment(r.Context(), cand)
		if err != nil {
			handleGuardError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, guardResponse(appt))
	}
}

func getGuardHandler(svc *guard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}

		appt, err := svc.GetAssignment(r.Context(), number)
		if err != nil {
			handleGuardError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, guardResponse(appt))
	}
}

func updateGuardHandler(svc *guard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}

		var req GuardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		cand, err := candidateFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		appt, err := svc.UpdateAssignment(r.Context(), number, cand)
		if err != nil {
			handleGuardError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, guardResponse(appt))
	}
}

func deleteGuardHandler(svc *guard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}

		deleted, err := svc.DeleteAssignment(r.Context(), number)
		if err != nil {
			handleGuardError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
	}
}

func guardAuditHandler(svc *guard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := parseNumberParam(w, r, "number")
		if !ok {
			return
		}

		entries, err := svc.AuditTrail(r.Context(), number)
		if err != nil {
			handleGuardError(w, err)
			return
		}

		resp := make([]AuditEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, AuditEntryResponse{
				ID:               e.ID,
				AssignmentNumber: e.AssignmentNumber,
				DoctorLicense:    e.DoctorLicense,
				SpecialtyCode:    e.SpecialtyCode,
				ScheduledAt:      e.ScheduledAt,
				Action:           string(e.Action),
				RecordedAt:       e.RecordedAt,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createVacationHandler(svc *guard.VacationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VacationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		period, err := periodFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		if err := svc.Create(r.Context(), period); err != nil {
			handleGuardError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, vacationResponse(period))
	}
}

func replaceVacationHandler(svc *guard.VacationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReplaceVacationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		oldPeriod, err := periodFromRequest(req.Old)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		newPeriod, err := periodFromRequest(req.New)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		if err := svc.Replace(r.Context(), oldPeriod, newPeriod); err != nil {
			handleGuardError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, vacationResponse(newPeriod))
	}
}

func deleteVacationHandler(svc *guard.VacationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		license, err := strconv.ParseInt(q.Get("doctor_license"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "doctor_license must be an integer")
			return
		}

		period, err := periodFromRequest(VacationRequest{
			DoctorLicense: license,
			Start:         q.Get("start"),
			End:           q.Get("end"),
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		deleted, err := svc.Delete(r.Context(), period)
		if err != nil {
			handleGuardError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
	}
}

func listVacationsHandler(svc *guard.VacationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		license, err := strconv.ParseInt(chi.URLParam(r, "license"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "license must be an integer")
			return
		}

		periods, err := svc.List(r.Context(), license)
		if err != nil {
			handleGuardError(w, err)
			return
		}

		resp := make([]VacationResponse, 0, len(periods))
		for _, p := range periods {
			resp = append(resp, vacationResponse(p))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// Helpers

func candidateFromRequest(req GuardRequest) (guard.Candidate, error) {
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return guard.Candidate{}, errors.New("scheduled_at must be an RFC 3339 timestamp")
	}

	return guard.Candidate{
		ScheduledAt:   scheduledAt,
		DoctorLicense: req.DoctorLicense,
		SpecialtyCode: req.SpecialtyCode,
		ShiftSlotID:   req.ShiftSlotID,
	}, nil
}

func periodFromRequest(req VacationRequest) (guard.VacationPeriod, error) {
	start, err := time.Parse(time.DateOnly, req.Start)
	if err != nil {
		return guard.VacationPeriod{}, errors.New("start must be a YYYY-MM-DD date")
	}
	end, err := time.Parse(time.DateOnly, req.End)
	if err != nil {
		return guard.VacationPeriod{}, errors.New("end must be a YYYY-MM-DD date")
	}

	return guard.VacationPeriod{
		DoctorLicense: req.DoctorLicense,
		Start:         start,
		End:           end,
	}, nil
}

func guardResponse(a *guard.GuardAssignment) GuardResponse {
	return GuardResponse{
		Number:        a.Number,
		ScheduledAt:   a.ScheduledAt,
		DoctorLicense: a.DoctorLicense,
		SpecialtyCode: a.SpecialtyCode,
		ShiftSlotID:   a.ShiftSlotID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func vacationResponse(p guard.VacationPeriod) VacationResponse {
	return VacationResponse{
		DoctorLicense: p.DoctorLicense,
		Start:         p.Start.Format(time.DateOnly),
		End:           p.End.Format(time.DateOnly),
	}
}

func parseNumberParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	number, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", name+" must be an integer")
		return 0, false
	}
	return number, true
}

func handleGuardError(w http.ResponseWriter, err error) {
	var partial *guard.PartialFailureError
	if errors.As(err, &partial) {
		number := partial.AssignmentNumber
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            "partial_failure",
			Details:          partial.Error(),
			AssignmentNumber: &number,
		})
		return
	}

	switch {
	case errors.Is(err, guard.ErrValidation), errors.Is(err, guard.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, guard.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, guard.ErrSpecialtyNotFound):
		writeError(w, http.StatusNotFound, "specialty_not_found", err.Error())
	case errors.Is(err, guard.ErrShiftSlotNotFound):
		writeError(w, http.StatusNotFound, "shift_slot_not_found", err.Error())
	case errors.Is(err, guard.ErrAssignmentNotFound):
		writeError(w, http.StatusNotFound, "assignment_not_found", err.Error())
	case errors.Is(err, guard.ErrVacationNotFound):
		writeError(w, http.StatusNotFound, "vacation_not_found", err.Error())
	case errors.Is(err, guard.ErrIneligibleSpecialty):
		writeError(w, http.StatusUnprocessableEntity, "ineligible_specialty", err.Error())
	case errors.Is(err, guard.ErrVacationConflict):
		writeError(w, http.StatusConflict, "vacation_conflict", err.Error())
	case errors.Is(err, guard.ErrQuotaExceeded):
		writeError(w, http.StatusConflict, "quota_exceeded", err.Error())
	case errors.Is(err, guard.ErrVacationOverlap):
		writeError(w, http.StatusConflict, "overlap_conflict", err.Error())
	case errors.Is(err, guard.ErrDoctorBusy):
		writeError(w, http.StatusConflict, "doctor_busy", "doctor schedule is being modified, please retry shortly")
	default:
		// Anything without a domain sentinel is a storage collaborator failure.
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	}
}
