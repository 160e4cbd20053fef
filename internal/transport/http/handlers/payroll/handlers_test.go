package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/payroll"
	"nomina/internal/platform/metrics"
	"nomina/internal/transport/http/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details struct {
			Fields []struct {
				Field  string `json:"field"`
				Reason string `json:"reason"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	router, _ := newAuditedRouter(t)
	return router
}

func newAuditedRouter(t *testing.T) (http.Handler, *audit.MemoryStore) {
	t.Helper()
	trail := audit.NewMemoryStore()
	svc := payroll.NewService(
		payroll.NewMemoryStore(),
		nil,
		payroll.DefaultEngine(),
		decimal.RequireFromString("711750"),
		metrics.New(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	NewHandler(svc, trail).RegisterRoutes(r)
	return r, trail
}

func send(t *testing.T, h http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func TestPreviewPricesShift(t *testing.T) {
	router := newRouter(t)
	status, env := send(t, router, http.MethodPost, "/shifts/preview", map[string]any{
		"date": "2025-03-12", "startTime": "12:00", "endTime": "22:00",
	})
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Day struct {
			Source       string             `json:"source"`
			Hours        map[string]float64 `json:"hours"`
			TotalHours   float64            `json:"totalHours"`
			TotalPayment string             `json:"totalPayment"`
		} `json:"day"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "computed", result.Day.Source)
	assert.Equal(t, 8.0, result.Day.Hours["ordinaryDay"])
	assert.Equal(t, 1.0, result.Day.Hours["overtimeDay"])
	assert.Equal(t, 1.0, result.Day.Hours["overtimeNight"])
	assert.Equal(t, 10.0, result.Day.TotalHours)
	assert.Equal(t, "18567.39", result.Day.TotalPayment)
}

func TestPreviewValidation(t *testing.T) {
	router := newRouter(t)
	cases := []struct {
		name  string
		body  any
		field string
	}{
		{name: "bad clock", body: map[string]any{"date": "2025-03-12", "startTime": "25:00", "endTime": "22:00"}, field: "startTime"},
		{name: "bad date", body: map[string]any{"date": "12/03/2025", "startTime": "08:00", "endTime": "12:00"}, field: "date"},
		{name: "end before start", body: map[string]any{"date": "2025-03-12", "startTime": "16:00", "endTime": "08:00"}, field: "endTime"},
		{name: "break outside shift", body: map[string]any{
			"date": "2025-03-12", "startTime": "08:00", "endTime": "12:00",
			"includeBreak": true, "breakStart": "13:00", "breakEnd": "14:00",
		}, field: "break"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := send(t, router, http.MethodPost, "/shifts/preview", tc.body)
			require.Equal(t, http.StatusBadRequest, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, "validation_error", env.Error.Code)
			require.NotEmpty(t, env.Error.Details.Fields)
			assert.Equal(t, tc.field, env.Error.Details.Fields[0].Field)
		})
	}

	status, env := send(t, router, http.MethodPost, "/shifts/preview", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_payload", env.Error.Code)
}

func createPeriod(t *testing.T, router http.Handler) string {
	t.Helper()
	status, env := send(t, router, http.MethodPost, "/periods", map[string]any{
		"startDate": "2025-03-01", "endDate": "2025-03-15", "baseSalary": 711750,
	})
	require.Equal(t, http.StatusCreated, status)
	var period payroll.Period
	require.NoError(t, json.Unmarshal(env.Data, &period))
	assert.Equal(t, "2025-03 Q1", period.Label)
	return period.ID
}

func TestPeriodShiftLifecycle(t *testing.T) {
	router := newRouter(t)
	periodID := createPeriod(t, router)
	base := "/periods/" + periodID

	status, env := send(t, router, http.MethodPost, base+"/shifts", map[string]any{
		"date": "2025-03-12", "startTime": "12:00", "endTime": "22:00",
	})
	require.Equal(t, http.StatusCreated, status)
	var shift struct {
		ID     string `json:"id"`
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &shift))
	assert.Equal(t, "computed", shift.Source)

	status, env = send(t, router, http.MethodPost, base+"/shifts", map[string]any{
		"date": "2025-03-12", "startTime": "06:00", "endTime": "08:00",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "duplicate_shift_date", env.Error.Code)

	status, env = send(t, router, http.MethodPost, base+"/shifts", map[string]any{
		"date": "2025-03-20", "startTime": "06:00", "endTime": "08:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "shift_out_of_period", env.Error.Code)

	status, env = send(t, router, http.MethodPut, base+"/shifts/"+shift.ID+"/override", map[string]any{
		"hours": map[string]float64{"ordinaryDay": 8, "HEN": 2}, "note": "payroll office correction",
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &shift))
	assert.Equal(t, "overridden", shift.Source)

	status, env = send(t, router, http.MethodPut, base+"/shifts/"+shift.ID+"/override", map[string]any{
		"hours": map[string]float64{"overtimeDay": -1},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "hours.overtimeDay", env.Error.Details.Fields[0].Field)

	status, env = send(t, router, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, status)
	var report struct {
		Days []struct {
			Source       string `json:"source"`
			TotalPayment string `json:"totalPayment"`
		} `json:"days"`
		Summary struct {
			TotalWorkedHours float64 `json:"totalWorkedHours"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Days, 1)
	assert.Equal(t, "overridden", report.Days[0].Source)
	assert.Equal(t, "21661.96", report.Days[0].TotalPayment)
	assert.Equal(t, 10.0, report.Summary.TotalWorkedHours)

	status, env = send(t, router, http.MethodDelete, base+"/shifts/"+shift.ID+"/override", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &shift))
	assert.Equal(t, "computed", shift.Source)

	status, _ = send(t, router, http.MethodPut, base+"/shifts/"+shift.ID, map[string]any{
		"date": "2025-03-13", "startTime": "08:00", "endTime": "16:00",
	})
	assert.Equal(t, http.StatusOK, status)

	status, env = send(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	var detail struct {
		ID     string `json:"id"`
		Shifts []struct {
			Shift struct {
				Date string `json:"date"`
			} `json:"shift"`
		} `json:"shifts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Len(t, detail.Shifts, 1)
	assert.Equal(t, "2025-03-13", detail.Shifts[0].Shift.Date)

	status, _ = send(t, router, http.MethodDelete, base+"/shifts/"+shift.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, env = send(t, router, http.MethodDelete, base+"/shifts/"+shift.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "shift_not_found", env.Error.Code)
}

func TestAdjustmentsAndEmptyReport(t *testing.T) {
	router := newRouter(t)
	periodID := createPeriod(t, router)
	base := "/periods/" + periodID

	status, env := send(t, router, http.MethodPost, base+"/adjustments", map[string]any{"kind": "bonus", "amount": 0})
	require.Equal(t, http.StatusBadRequest, status)
	fields := []string{}
	for _, f := range env.Error.Details.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"amount", "kind"}, fields)

	status, env = send(t, router, http.MethodPost, base+"/adjustments", map[string]any{"kind": "deduction", "amount": 20000, "description": "loan"})
	require.Equal(t, http.StatusCreated, status)
	var adj payroll.Adjustment
	require.NoError(t, json.Unmarshal(env.Data, &adj))

	status, env = send(t, router, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, status)
	var report struct {
		Days       []json.RawMessage `json:"days"`
		Financials struct {
			NetPay string `json:"netPay"`
		} `json:"financials"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Empty(t, report.Days)
	assert.Equal(t, "734810", report.Financials.NetPay)

	status, _ = send(t, router, http.MethodDelete, base+"/adjustments/"+adj.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, env = send(t, router, http.MethodDelete, base+"/adjustments/"+adj.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "adjustment_not_found", env.Error.Code)
}

func TestPeriodEndpoints(t *testing.T) {
	router := newRouter(t)

	status, env := send(t, router, http.MethodPost, "/periods", map[string]any{"startDate": "2025-03-01"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", env.Error.Code)

	status, env = send(t, router, http.MethodPost, "/periods", map[string]any{"startDate": "2025-03-15", "endDate": "2025-03-01"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, env.Error.Details.Fields, 2)

	periodID := createPeriod(t, router)
	status, env = send(t, router, http.MethodPatch, "/periods/"+periodID, map[string]any{"transportEnabled": false, "baseSalary": 800000})
	require.Equal(t, http.StatusOK, status)
	var period payroll.Period
	require.NoError(t, json.Unmarshal(env.Data, &period))
	assert.False(t, period.TransportEnabled)
	assert.Equal(t, "800000", period.BaseSalary.String())

	status, env = send(t, router, http.MethodGet, "/periods?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items []payroll.Period `json:"items"`
		Total int              `json:"total"`
		Limit int              `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.Limit)

	status, env = send(t, router, http.MethodGet, "/periods/missing/report", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "period_not_found", env.Error.Code)

	status, _ = send(t, router, http.MethodDelete, "/periods/"+periodID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = send(t, router, http.MethodGet, "/periods/"+periodID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAuditTrail(t *testing.T) {
	router, trail := newAuditedRouter(t)
	periodID := createPeriod(t, router)
	base := "/periods/" + periodID

	status, env := send(t, router, http.MethodPost, base+"/shifts", map[string]any{
		"date": "2025-03-04", "startTime": "08:00", "endTime": "16:00",
	})
	require.Equal(t, http.StatusCreated, status)
	var shift struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &shift))

	status, _ = send(t, router, http.MethodPut, base+"/shifts/"+shift.ID+"/override", map[string]any{
		"hours": map[string]float64{"ordinaryDay": 7},
	})
	require.Equal(t, http.StatusOK, status)

	status, env = send(t, router, http.MethodGet, base+"/audit", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items []audit.Event `json:"items"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Equal(t, 2, page.Total)
	assert.Equal(t, audit.ActionOverrideApply, page.Items[0].Action)
	assert.Equal(t, shift.ID, page.Items[0].EntityID)
	assert.NotEmpty(t, page.Items[0].Before)
	assert.NotEmpty(t, page.Items[0].RequestID)

	status, env = send(t, router, http.MethodGet, base+"/audit?action="+audit.ActionShiftCreate, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)

	count, err := trail.Count(context.Background(), audit.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAuditTrailKeepsPriorState(t *testing.T) {
	router, trail := newAuditedRouter(t)
	periodID := createPeriod(t, router)
	base := "/periods/" + periodID

	status, _ := send(t, router, http.MethodPatch, base, map[string]any{"baseSalary": 900000, "transportEnabled": false})
	require.Equal(t, http.StatusOK, status)

	status, env := send(t, router, http.MethodPost, base+"/adjustments", map[string]any{"kind": "deduction", "amount": 20000, "description": "loan"})
	require.Equal(t, http.StatusCreated, status)
	var adj payroll.Adjustment
	require.NoError(t, json.Unmarshal(env.Data, &adj))

	status, _ = send(t, router, http.MethodDelete, base+"/adjustments/"+adj.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env = send(t, router, http.MethodGet, base+"/audit", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items []audit.Event `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 3)

	deleted := page.Items[0]
	assert.Equal(t, audit.ActionAdjustmentDelete, deleted.Action)
	var removed payroll.Adjustment
	require.NoError(t, json.Unmarshal(deleted.Before, &removed))
	assert.Equal(t, adj.ID, removed.ID)
	assert.Equal(t, "20000", removed.Amount.String())
	assert.Equal(t, payroll.AdjustmentDeduction, removed.Kind)
	assert.Empty(t, deleted.After)

	updated := page.Items[2]
	assert.Equal(t, audit.ActionPeriodUpdate, updated.Action)
	var prior, current payroll.Period
	require.NoError(t, json.Unmarshal(updated.Before, &prior))
	require.NoError(t, json.Unmarshal(updated.After, &current))
	assert.Equal(t, "711750", prior.BaseSalary.String())
	assert.True(t, prior.TransportEnabled)
	assert.Equal(t, "900000", current.BaseSalary.String())
	assert.False(t, current.TransportEnabled)

	status, _ = send(t, router, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, status)

	events, err := trail.List(context.Background(), audit.Filter{PeriodID: periodID, Action: audit.ActionPeriodDelete}, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	var removedPeriod payroll.Period
	require.NoError(t, json.Unmarshal(events[0].Before, &removedPeriod))
	assert.Equal(t, periodID, removedPeriod.ID)
	assert.Equal(t, "900000", removedPeriod.BaseSalary.String())
}
