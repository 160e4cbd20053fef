package payrollhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"nomina/internal/domain/payroll"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

// writeError maps domain errors onto the HTTP envelope. Errors the domain
// does not name are logged and reported with the fallback code as a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	reqID := middleware.GetRequestID(r.Context())

	var shiftErr *payroll.ShiftError
	var adjErr *payroll.AdjustmentError
	var hoursErr *payroll.HoursError
	switch {
	case errors.As(err, &shiftErr):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: shiftErr.Field, Reason: shiftErr.Reason}})
	case errors.As(err, &adjErr):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: adjErr.Field, Reason: adjErr.Reason}})
	case errors.As(err, &hoursErr):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "hours." + hoursErr.Category.String(), Reason: hoursErr.Reason}})
	case errors.Is(err, payroll.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
	case errors.Is(err, payroll.ErrPeriodNotFound):
		api.Fail(w, http.StatusNotFound, "period_not_found", "pay period not found", reqID)
	case errors.Is(err, payroll.ErrShiftNotFound):
		api.Fail(w, http.StatusNotFound, "shift_not_found", "shift not found", reqID)
	case errors.Is(err, payroll.ErrAdjustmentNotFound):
		api.Fail(w, http.StatusNotFound, "adjustment_not_found", "adjustment not found", reqID)
	case errors.Is(err, payroll.ErrDuplicateShiftDate):
		api.Fail(w, http.StatusConflict, "duplicate_shift_date", "a shift already exists for this date", reqID)
	case errors.Is(err, payroll.ErrOutOfPeriodShift):
		api.Fail(w, http.StatusUnprocessableEntity, "shift_out_of_period", "shift date falls outside the pay period", reqID)
	default:
		slog.ErrorContext(r.Context(), fallbackMessage, "err", err, "request_id", reqID)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, reqID)
	}
}
