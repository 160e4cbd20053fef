package holidayshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/holidays"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
)

// Calendars is the read side of the holiday cache.
type Calendars interface {
	Get(ctx context.Context, year int) (holidays.Calendar, error)
}

type Handler struct {
	Calendars Calendars
	Country   string
}

func NewHandler(calendars Calendars, country string) *Handler {
	return &Handler{Calendars: calendars, Country: country}
}

type calendarResponse struct {
	Year     int                `json:"year"`
	Country  string             `json:"country"`
	Holidays []holidays.Holiday `json:"holidays"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/holidays/{year}", h.handleGetYear)
}

func (h *Handler) handleGetYear(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || !holidays.ValidYear(year) {
		api.Fail(w, http.StatusBadRequest, "invalid_year", "year must be a number between 1900 and 2200", reqID)
		return
	}

	cal, err := h.Calendars.Get(r.Context(), year)
	if err != nil {
		if errors.Is(err, holidays.ErrInvalidYear) {
			api.Fail(w, http.StatusBadRequest, "invalid_year", err.Error(), reqID)
			return
		}
		slog.WarnContext(r.Context(), "holiday calendar fetch failed", "year", year, "err", err)
		api.Fail(w, http.StatusBadGateway, "holidays_unavailable", "holiday calendar is unavailable", reqID)
		return
	}
	api.Success(w, calendarResponse{Year: year, Country: h.Country, Holidays: cal.List()}, reqID)
}
