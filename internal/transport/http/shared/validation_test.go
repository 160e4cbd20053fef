package shared

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomina/internal/domain/payroll"
)

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Clock("startTime", "25:00")
	v.Date("date", "03/16/2025")
	v.Amount("amount", math.NaN(), true)
	v.Required("kind", " ", "is required")
	v.Enum("kind", "bonus", []string{"income", "deduction"}, "must be income or deduction")

	require.True(t, v.HasIssues())
	fields := []string{}
	for _, issue := range v.Issues() {
		fields = append(fields, issue.Field)
	}
	assert.Equal(t, []string{"amount", "date", "kind", "kind", "startTime"}, fields)

	rec := httptest.NewRecorder()
	assert.True(t, v.Reject(rec, "req"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"validation_error"`)
}

func TestValidatorParsesValues(t *testing.T) {
	v := NewValidator()
	d, ok := v.Date("date", "2025-03-16T08:00:00Z")
	require.True(t, ok)
	assert.Equal(t, payroll.MustDate("2025-03-16"), d)

	c, ok := v.Clock("startTime", "06:30")
	require.True(t, ok)
	assert.Equal(t, payroll.MustClock("06:30"), c)

	amount := v.Amount("amount", 50000.25, true)
	assert.Equal(t, "50000.25", amount.String())

	assert.True(t, v.OptionalDate("anchor", "").IsZero())
	v.DateOrder("startDate", payroll.MustDate("2025-03-01"), "endDate", payroll.MustDate("2025-03-15"))
	assert.False(t, v.HasIssues())
	assert.False(t, v.Reject(httptest.NewRecorder(), ""))
}

func TestValidatorAmountRules(t *testing.T) {
	v := NewValidator()
	v.Amount("zero", 0, true)
	v.Amount("negative", -1, false)
	v.Amount("base", 0, false)
	issues := v.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, "negative", issues[0].Field)
	assert.Equal(t, "zero", issues[1].Field)
}

func TestDateOrder(t *testing.T) {
	v := NewValidator()
	v.DateOrder("startDate", payroll.MustDate("2025-03-15"), "endDate", payroll.MustDate("2025-03-01"))
	assert.Len(t, v.Issues(), 2)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/periods?limit=500&offset=20", nil)
	p := ParsePagination(req, 50, 200)
	assert.Equal(t, Pagination{Limit: 200, Offset: 20}, p)

	page := NewPage[string](nil, 0, p)
	assert.NotNil(t, page.Items)
}
