package api

import (
	"fmt"

	"github.com/dentalops/frontdesk-scheduling/internal/appointment"
	"github.com/dentalops/frontdesk-scheduling/internal/schedule"
)

// Older callers of the front-desk surface send `Op` where newer ones send
// `OpNum`, and `AppointmentId` where newer ones send `AptNum`. Both
// spellings are accepted here, at the boundary only; the service sees one
// normalized value.

type CreateAppointmentRequest struct {
	PatNum      int64  `json:"PatNum"`
	AptDateTime string `json:"AptDateTime"`
	Op          int64  `json:"Op"`
	OpNum       int64  `json:"OpNum"`
	ProvNum     int64  `json:"ProvNum"`
	Note        string `json:"Note"`
	Pattern     string `json:"Pattern"`
	AptStatus   string `json:"AptStatus"`
}

type UpdateAppointmentRequest struct {
	AptDateTime *string `json:"AptDateTime"`
	Op          *int64  `json:"Op"`
	OpNum       *int64  `json:"OpNum"`
	ProvNum     *int64  `json:"ProvNum"`
	AptStatus   *string `json:"AptStatus"`
	Note        *string `json:"Note"`
	Pattern     *string `json:"Pattern"`
}

type BreakAppointmentRequest struct {
	AptNum                int64 `json:"AptNum"`
	AppointmentId         int64 `json:"AppointmentId"`
	SendToUnscheduledList *bool `json:"sendToUnscheduledList"`
}

// resolveOpAlias collapses the Op/OpNum pair into one value. Zero means
// the caller sent neither.
func resolveOpAlias(op, opNum int64) (int64, error) {
	if op != 0 && opNum != 0 && op != opNum {
		return 0, fmt.Errorf("Op (%d) and OpNum (%d) disagree", op, opNum)
	}
	if op != 0 {
		return op, nil
	}
	return opNum, nil
}

// resolveAptAlias collapses AptNum/AppointmentId against the path id.
func resolveAptAlias(pathAptNum, bodyAptNum, bodyAppointmentId int64) (int64, error) {
	for _, v := range []int64{bodyAptNum, bodyAppointmentId} {
		if v != 0 && v != pathAptNum {
			return 0, fmt.Errorf("body appointment id %d disagrees with path %d", v, pathAptNum)
		}
	}
	return pathAptNum, nil
}

type SlotResponse struct {
	ProvNum       int64  `json:"ProvNum"`
	OpNum         int64  `json:"OpNum"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
	LengthMinutes int    `json:"lengthMinutes"`
}

func toSlotResponses(slots []schedule.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{
			ProvNum:       s.ProvNum,
			OpNum:         s.OpNum,
			StartDateTime: s.Start.String(),
			EndDateTime:   s.End.String(),
			LengthMinutes: s.LengthMinutes,
		})
	}
	return out
}

type AppointmentResponse struct {
	AptNum      int64  `json:"AptNum"`
	PatNum      int64  `json:"PatNum"`
	ProvNum     int64  `json:"ProvNum"`
	Op          int64  `json:"Op"`
	OpNum       int64  `json:"OpNum"`
	AptDateTime string `json:"AptDateTime"`
	Pattern     string `json:"Pattern"`
	AptStatus   string `json:"AptStatus"`
	Note        string `json:"Note,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		AptNum:      a.AptNum,
		PatNum:      a.PatNum,
		ProvNum:     a.ProvNum,
		Op:          a.OpNum,
		OpNum:       a.OpNum,
		AptDateTime: a.AptDateTime.String(),
		Pattern:     a.Pattern,
		AptStatus:   string(a.Status),
		Note:        a.Note,
	}
}

type BreakAppointmentResponse struct {
	AptNum    int64  `json:"AptNum"`
	AptStatus string `json:"AptStatus"`
}

type DeleteAppointmentResponse struct {
	Success bool  `json:"success"`
	AptNum  int64 `json:"AptNum"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
