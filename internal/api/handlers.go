package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/frontdesk-scheduling/internal/appointment"
	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

func getAvailableSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var query appointment.SlotQuery
		var err error

		if s := q.Get("dateStart"); s != "" {
			if query.DateStart, err = wallclock.ParseDate(s); err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "dateStart must be YYYY-MM-DD")
				return
			}
		}
		if s := q.Get("dateEnd"); s != "" {
			if query.DateEnd, err = wallclock.ParseDate(s); err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "dateEnd must be YYYY-MM-DD")
				return
			}
		}
		if query.ProvNum, err = queryInt64(q.Get("ProvNum")); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "ProvNum must be an integer")
			return
		}
		op, err := queryInt64(q.Get("OpNum"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "OpNum must be an integer")
			return
		}
		opAlias, err := queryInt64(q.Get("Op"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "Op must be an integer")
			return
		}
		if query.OpNum, err = resolveOpAlias(opAlias, op); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		length, err := queryInt64(q.Get("lengthMinutes"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "lengthMinutes must be an integer")
			return
		}
		query.LengthMinutes = int(length)
		query.SearchAll = q.Get("searchAll") == "true" || q.Get("searchAll") == "1"

		slots, err := svc.GetAvailableSlots(r.Context(), query)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		opNum, err := resolveOpAlias(req.Op, req.OpNum)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		create := appointment.CreateRequest{
			PatNum:  req.PatNum,
			ProvNum: req.ProvNum,
			OpNum:   opNum,
			Pattern: req.Pattern,
			Note:    req.Note,
			Status:  appointment.Status(req.AptStatus),
		}
		if req.AptDateTime != "" {
			if create.AptDateTime, err = wallclock.ParseDateTime(req.AptDateTime); err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "AptDateTime must be YYYY-MM-DD HH:mm:ss")
				return
			}
		}

		apt, err := svc.CreateAppointment(r.Context(), create)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(apt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aptNum, ok := pathAptNum(w, r)
		if !ok {
			return
		}
		apt, err := svc.GetAppointment(r.Context(), aptNum)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(apt))
	}
}

func updateAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aptNum, ok := pathAptNum(w, r)
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		update := appointment.UpdateRequest{
			AptNum:  aptNum,
			Note:    req.Note,
			Pattern: req.Pattern,
			ProvNum: req.ProvNum,
		}

		if req.Op != nil || req.OpNum != nil {
			opNum, err := resolveOpAlias(deref(req.Op), deref(req.OpNum))
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", err.Error())
				return
			}
			update.OpNum = &opNum
		}
		if req.AptDateTime != nil {
			dt, err := wallclock.ParseDateTime(*req.AptDateTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "AptDateTime must be YYYY-MM-DD HH:mm:ss")
				return
			}
			update.AptDateTime = &dt
		}
		if req.AptStatus != nil {
			status, err := appointment.ParseStatus(*req.AptStatus)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", err.Error())
				return
			}
			update.Status = &status
		}

		apt, err := svc.UpdateAppointment(r.Context(), update)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(apt))
	}
}

func breakAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aptNum, ok := pathAptNum(w, r)
		if !ok {
			return
		}

		// Body is optional; sendToUnscheduledList defaults to true.
		req := BreakAppointmentRequest{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		aptNum, err := resolveAptAlias(aptNum, req.AptNum, req.AppointmentId)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		sendToUnscheduled := true
		if req.SendToUnscheduledList != nil {
			sendToUnscheduled = *req.SendToUnscheduledList
		}

		apt, err := svc.BreakAppointment(r.Context(), aptNum, sendToUnscheduled)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, BreakAppointmentResponse{
			AptNum:    apt.AptNum,
			AptStatus: string(apt.Status),
		})
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aptNum, ok := pathAptNum(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), aptNum); err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DeleteAppointmentResponse{Success: true, AptNum: aptNum})
	}
}

// handleServiceError maps the engine's error taxonomy onto HTTP statuses.
func handleServiceError(w http.ResponseWriter, err error) {
	var (
		validation *appointment.ValidationError
		notFound   *appointment.NotFoundError
		inactive   *appointment.InactiveResourceError
		conflict   *appointment.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "validation_error", validation.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "not_found", notFound.Error())
	case errors.As(err, &inactive):
		writeError(w, http.StatusConflict, "inactive_resource", inactive.Error())
	case errors.As(err, &conflict):
		bookingConflicts.Inc()
		writeError(w, http.StatusConflict, "time_conflict", conflict.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func pathAptNum(w http.ResponseWriter, r *http.Request) (int64, bool) {
	aptNum, err := strconv.ParseInt(chi.URLParam(r, "AptNum"), 10, 64)
	if err != nil || aptNum <= 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "AptNum must be a positive integer")
		return 0, false
	}
	return aptNum, true
}

func queryInt64(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
