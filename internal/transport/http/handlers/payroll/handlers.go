package payrollhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/payroll"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Audit   audit.Log
}

// NewHandler serves the payroll routes. auditLog may be nil.
func NewHandler(service *payroll.Service, auditLog audit.Log) *Handler {
	return &Handler{Service: service, Audit: auditLog}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/shifts/preview", h.handlePreview)
	r.Route("/periods", func(r chi.Router) {
		r.Get("/", h.handleListPeriods)
		r.Post("/", h.handleCreatePeriod)
		r.Route("/{periodID}", func(r chi.Router) {
			r.Get("/", h.handleGetPeriod)
			r.Patch("/", h.handleUpdatePeriod)
			r.Delete("/", h.handleDeletePeriod)
			r.Get("/report", h.handleReport)
			r.Post("/shifts", h.handleAddShift)
			r.Put("/shifts/{shiftID}", h.handleReplaceShift)
			r.Delete("/shifts/{shiftID}", h.handleDeleteShift)
			r.Put("/shifts/{shiftID}/override", h.handleOverride)
			r.Delete("/shifts/{shiftID}/override", h.handleClearOverride)
			r.Post("/adjustments", h.handleCreateAdjustment)
			r.Delete("/adjustments/{adjustmentID}", h.handleDeleteAdjustment)
			if h.Audit != nil {
				r.Get("/audit", h.handleListAudit)
			}
		})
	})
}

type shiftPayload struct {
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	EndsNextDay  bool   `json:"endsNextDay"`
	IncludeBreak bool   `json:"includeBreak"`
	BreakStart   string `json:"breakStart"`
	BreakEnd     string `json:"breakEnd"`
}

func (p shiftPayload) toShift(v *shared.Validator) payroll.ShiftInput {
	shift := payroll.ShiftInput{EndsNextDay: p.EndsNextDay, IncludeBreak: p.IncludeBreak}
	shift.Date, _ = v.Date("date", p.Date)
	shift.Start, _ = v.Clock("startTime", p.StartTime)
	shift.End, _ = v.Clock("endTime", p.EndTime)
	if p.IncludeBreak {
		shift.BreakStart, _ = v.Clock("breakStart", p.BreakStart)
		shift.BreakEnd, _ = v.Clock("breakEnd", p.BreakEnd)
	}
	return shift
}

type periodPayload struct {
	Label            string   `json:"label"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Anchor           string   `json:"anchor"`
	BaseSalary       *float64 `json:"baseSalary"`
	TransportEnabled *bool    `json:"transportEnabled"`
}

type periodPatchPayload struct {
	Label            *string  `json:"label"`
	BaseSalary       *float64 `json:"baseSalary"`
	TransportEnabled *bool    `json:"transportEnabled"`
}

type overridePayload struct {
	Hours map[string]float64 `json:"hours"`
	Note  string             `json:"note"`
}

type adjustmentPayload struct {
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// shiftView is an entry as returned by the API, tagged with where its hours come from.
type shiftView struct {
	payroll.Entry
	Source payroll.EntrySource `json:"source"`
}

type periodDetail struct {
	payroll.Period
	Shifts []shiftView `json:"shifts"`
}

func newShiftView(entry payroll.Entry) shiftView {
	return shiftView{Entry: entry, Source: entry.Source()}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return api.DecodeJSON(w, r, dst, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload shiftPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	shift := payload.toShift(v)
	if v.Reject(w, reqID) {
		return
	}
	result, err := h.Service.Preview(r.Context(), shift)
	if err != nil {
		writeError(w, r, err, "preview_failed", "failed to preview shift")
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	periods, total, err := h.Service.ListPeriods(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err, "periods_list_failed", "failed to list periods")
		return
	}
	api.Success(w, shared.NewPage(periods, total, page), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload periodPayload
	if !decode(w, r, &payload) {
		return
	}

	v := shared.NewValidator()
	in := payroll.PeriodInput{
		Label:            strings.TrimSpace(payload.Label),
		StartDate:        v.OptionalDate("startDate", payload.StartDate),
		EndDate:          v.OptionalDate("endDate", payload.EndDate),
		Anchor:           v.OptionalDate("anchor", payload.Anchor),
		TransportEnabled: payload.TransportEnabled,
	}
	hasStart := strings.TrimSpace(payload.StartDate) != ""
	hasEnd := strings.TrimSpace(payload.EndDate) != ""
	if hasStart != hasEnd {
		v.Add("startDate", "startDate and endDate must be given together")
	}
	v.DateOrder("startDate", in.StartDate, "endDate", in.EndDate)
	if payload.BaseSalary != nil {
		salary := v.Amount("baseSalary", *payload.BaseSalary, false)
		in.BaseSalary = &salary
	}
	if v.Reject(w, reqID) {
		return
	}

	period, err := h.Service.CreatePeriod(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "period_create_failed", "failed to create period")
		return
	}
	slog.InfoContext(r.Context(), "pay period created", "period_id", period.ID, "start", period.StartDate.String(), "end", period.EndDate.String())
	api.Created(w, period, reqID)
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	period, err := h.Service.GetPeriod(r.Context(), periodID)
	if err != nil {
		writeError(w, r, err, "period_fetch_failed", "failed to load period")
		return
	}
	entries, err := h.Service.ListShifts(r.Context(), periodID)
	if err != nil {
		writeError(w, r, err, "period_fetch_failed", "failed to load period")
		return
	}
	detail := periodDetail{Period: period, Shifts: make([]shiftView, 0, len(entries))}
	for _, entry := range entries {
		detail.Shifts = append(detail.Shifts, newShiftView(entry))
	}
	api.Success(w, detail, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePeriod(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload periodPatchPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	patch := payroll.PeriodPatch{Label: payload.Label, TransportEnabled: payload.TransportEnabled}
	if payload.BaseSalary != nil {
		salary := v.Amount("baseSalary", *payload.BaseSalary, false)
		patch.BaseSalary = &salary
	}
	if v.Reject(w, reqID) {
		return
	}

	periodID := chi.URLParam(r, "periodID")
	before := h.periodSnapshot(r, periodID)
	period, err := h.Service.UpdatePeriod(r.Context(), periodID, patch)
	if err != nil {
		writeError(w, r, err, "period_update_failed", "failed to update period")
		return
	}
	h.record(r, audit.Event{PeriodID: period.ID, Action: audit.ActionPeriodUpdate, EntityType: "pay_period", EntityID: period.ID}, before, period)
	api.Success(w, period, reqID)
}

func (h *Handler) handleDeletePeriod(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	before := h.periodSnapshot(r, periodID)
	if err := h.Service.DeletePeriod(r.Context(), periodID); err != nil {
		writeError(w, r, err, "period_delete_failed", "failed to delete period")
		return
	}
	h.record(r, audit.Event{PeriodID: periodID, Action: audit.ActionPeriodDelete, EntityType: "pay_period", EntityID: periodID}, before, nil)
	api.NoContent(w)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Report(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		writeError(w, r, err, "report_failed", "failed to build period report")
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddShift(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload shiftPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	shift := payload.toShift(v)
	if v.Reject(w, reqID) {
		return
	}
	entry, err := h.Service.AddShift(r.Context(), chi.URLParam(r, "periodID"), shift)
	if err != nil {
		writeError(w, r, err, "shift_create_failed", "failed to add shift")
		return
	}
	h.record(r, shiftEvent(entry, audit.ActionShiftCreate), nil, entry.Shift)
	api.Created(w, newShiftView(entry), reqID)
}

func (h *Handler) handleReplaceShift(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload shiftPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	shift := payload.toShift(v)
	if v.Reject(w, reqID) {
		return
	}
	periodID, shiftID := chi.URLParam(r, "periodID"), chi.URLParam(r, "shiftID")
	before := h.snapshot(r, periodID, shiftID)
	entry, err := h.Service.ReplaceShift(r.Context(), periodID, shiftID, shift)
	if err != nil {
		writeError(w, r, err, "shift_update_failed", "failed to replace shift")
		return
	}
	h.record(r, shiftEvent(entry, audit.ActionShiftReplace), before, entry)
	api.Success(w, newShiftView(entry), reqID)
}

func (h *Handler) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	periodID, shiftID := chi.URLParam(r, "periodID"), chi.URLParam(r, "shiftID")
	before := h.snapshot(r, periodID, shiftID)
	if err := h.Service.DeleteShift(r.Context(), periodID, shiftID); err != nil {
		writeError(w, r, err, "shift_delete_failed", "failed to delete shift")
		return
	}
	h.record(r, audit.Event{PeriodID: periodID, Action: audit.ActionShiftDelete, EntityType: "shift", EntityID: shiftID}, before, nil)
	api.NoContent(w)
}

func (h *Handler) handleOverride(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload overridePayload
	if !decode(w, r, &payload) {
		return
	}
	if payload.Hours == nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "hours", Reason: "is required"}})
		return
	}
	hours, err := payroll.HourSetFromHours(payload.Hours)
	if err != nil {
		var hoursErr *payroll.HoursError
		if errors.As(err, &hoursErr) {
			writeError(w, r, err, "", "")
			return
		}
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "hours", Reason: err.Error()}})
		return
	}
	periodID, shiftID := chi.URLParam(r, "periodID"), chi.URLParam(r, "shiftID")
	before := h.snapshot(r, periodID, shiftID)
	entry, err := h.Service.OverrideShift(r.Context(), periodID, shiftID, hours, payload.Note)
	if err != nil {
		writeError(w, r, err, "override_failed", "failed to override shift hours")
		return
	}
	h.record(r, shiftEvent(entry, audit.ActionOverrideApply), before, entry.Override)
	api.Success(w, newShiftView(entry), reqID)
}

func (h *Handler) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	periodID, shiftID := chi.URLParam(r, "periodID"), chi.URLParam(r, "shiftID")
	before := h.snapshot(r, periodID, shiftID)
	entry, err := h.Service.ClearOverride(r.Context(), periodID, shiftID)
	if err != nil {
		writeError(w, r, err, "override_clear_failed", "failed to clear override")
		return
	}
	h.record(r, shiftEvent(entry, audit.ActionOverrideClear), before, nil)
	api.Success(w, newShiftView(entry), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload adjustmentPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("kind", payload.Kind, "is required")
	v.Enum("kind", payload.Kind, []string{string(payroll.AdjustmentIncome), string(payroll.AdjustmentDeduction)}, "must be income or deduction")
	amount := v.Amount("amount", payload.Amount, true)
	if v.Reject(w, reqID) {
		return
	}

	adj, err := h.Service.AddAdjustment(r.Context(), chi.URLParam(r, "periodID"), payroll.Adjustment{
		Kind:        payroll.AdjustmentKind(strings.ToLower(strings.TrimSpace(payload.Kind))),
		Amount:      amount,
		Description: payload.Description,
	})
	if err != nil {
		writeError(w, r, err, "adjustment_create_failed", "failed to create adjustment")
		return
	}
	h.record(r, audit.Event{PeriodID: adj.PeriodID, Action: audit.ActionAdjustmentCreate, EntityType: "adjustment", EntityID: adj.ID}, nil, adj)
	api.Created(w, adj, reqID)
}

func (h *Handler) handleDeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	periodID, adjustmentID := chi.URLParam(r, "periodID"), chi.URLParam(r, "adjustmentID")
	before := h.adjustmentSnapshot(r, periodID, adjustmentID)
	if err := h.Service.DeleteAdjustment(r.Context(), periodID, adjustmentID); err != nil {
		writeError(w, r, err, "adjustment_delete_failed", "failed to delete adjustment")
		return
	}
	h.record(r, audit.Event{PeriodID: periodID, Action: audit.ActionAdjustmentDelete, EntityType: "adjustment", EntityID: adjustmentID}, before, nil)
	api.NoContent(w)
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	periodID := chi.URLParam(r, "periodID")
	if _, err := h.Service.GetPeriod(r.Context(), periodID); err != nil {
		writeError(w, r, err, "audit_list_failed", "failed to list audit events")
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	filter := audit.Filter{PeriodID: periodID, Action: r.URL.Query().Get("action")}
	total, err := h.Audit.Count(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "audit_list_failed", "failed to list audit events")
		return
	}
	events, err := h.Audit.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err, "audit_list_failed", "failed to list audit events")
		return
	}
	api.Success(w, shared.NewPage(events, total, page), reqID)
}

func shiftEvent(entry payroll.Entry, action string) audit.Event {
	return audit.Event{PeriodID: entry.PeriodID, Action: action, EntityType: "shift", EntityID: entry.ID}
}

// snapshot loads an entry for the audit trail. Lookup errors are left to the
// mutation that follows.
func (h *Handler) snapshot(r *http.Request, periodID, entryID string) any {
	if h.Audit == nil {
		return nil
	}
	entry, err := h.Service.Store.GetEntry(r.Context(), periodID, entryID)
	if err != nil {
		return nil
	}
	return entry
}

func (h *Handler) periodSnapshot(r *http.Request, periodID string) any {
	if h.Audit == nil {
		return nil
	}
	period, err := h.Service.GetPeriod(r.Context(), periodID)
	if err != nil {
		return nil
	}
	return period
}

func (h *Handler) adjustmentSnapshot(r *http.Request, periodID, adjustmentID string) any {
	if h.Audit == nil {
		return nil
	}
	items, err := h.Service.Store.ListAdjustments(r.Context(), periodID)
	if err != nil {
		return nil
	}
	for _, adj := range items {
		if adj.ID == adjustmentID {
			return adj
		}
	}
	return nil
}

func (h *Handler) record(r *http.Request, evt audit.Event, before, after any) {
	if h.Audit == nil {
		return
	}
	evt.RequestID = middleware.GetRequestID(r.Context())
	evt.IP = middleware.ClientIP(r)
	if err := h.Audit.Record(r.Context(), evt, before, after); err != nil {
		slog.WarnContext(r.Context(), "audit record failed", "action", evt.Action, "period_id", evt.PeriodID, "err", err)
	}
}
