package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"nomina/internal/platform/db"
)

const uniqueViolation = "23505"

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

func (s *Store) CreatePeriod(ctx context.Context, period Period) (Period, error) {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO pay_periods (id, label, start_date, end_date, base_salary, transport_enabled)
    VALUES ($1,$2,$3,$4,$5::numeric,$6)
    RETURNING created_at
  `, period.ID, period.Label, period.StartDate.Time(), period.EndDate.Time(), period.BaseSalary.String(), period.TransportEnabled).Scan(&period.CreatedAt)
	if err != nil {
		return Period{}, err
	}
	return period, nil
}

func (s *Store) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, label, start_date, end_date, base_salary::text, transport_enabled, created_at
    FROM pay_periods
    WHERE id = $1
  `, periodID)
	period, err := scanPeriod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return period, err
}

func (s *Store) ListPeriods(ctx context.Context, limit, offset int) ([]Period, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM pay_periods").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, label, start_date, end_date, base_salary::text, transport_enabled, created_at
    FROM pay_periods
    ORDER BY start_date DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, 0, err
		}
		periods = append(periods, period)
	}
	return periods, total, rows.Err()
}

func (s *Store) UpdatePeriod(ctx context.Context, period Period) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE pay_periods SET label = $1, base_salary = $2::numeric, transport_enabled = $3
    WHERE id = $4
  `, period.Label, period.BaseSalary.String(), period.TransportEnabled, period.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) DeletePeriod(ctx context.Context, periodID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM pay_periods WHERE id = $1", periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, periodID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, entrySelect+`
    WHERE period_id = $1
    ORDER BY shift_date
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) GetEntry(ctx context.Context, periodID, entryID string) (Entry, error) {
	entry, err := scanEntry(s.DB.QueryRow(ctx, entrySelect+`
    WHERE period_id = $1 AND id = $2
  `, periodID, entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrShiftNotFound
	}
	return entry, err
}

func (s *Store) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	overrideJSON, err := encodeOverride(entry.Override)
	if err != nil {
		return Entry{}, err
	}
	sh := entry.Shift
	err = s.DB.QueryRow(ctx, `
    INSERT INTO shifts (id, period_id, shift_date, start_time, end_time, ends_next_day, include_break, break_start, break_end, override_json)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING created_at, updated_at
  `, entry.ID, entry.PeriodID, sh.Date.Time(), sh.Start.String(), sh.End.String(), sh.EndsNextDay,
		sh.IncludeBreak, breakValue(sh.IncludeBreak, sh.BreakStart), breakValue(sh.IncludeBreak, sh.BreakEnd), overrideJSON,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return Entry{}, mapConstraint(err)
	}
	return entry, nil
}

// ReplaceShift swaps the stored shift wholesale and drops any override.
func (s *Store) ReplaceShift(ctx context.Context, periodID, entryID string, shift ShiftInput) (Entry, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE shifts
    SET shift_date = $1, start_time = $2, end_time = $3, ends_next_day = $4,
        include_break = $5, break_start = $6, break_end = $7, override_json = NULL, updated_at = now()
    WHERE period_id = $8 AND id = $9
  `, shift.Date.Time(), shift.Start.String(), shift.End.String(), shift.EndsNextDay,
		shift.IncludeBreak, breakValue(shift.IncludeBreak, shift.BreakStart), breakValue(shift.IncludeBreak, shift.BreakEnd),
		periodID, entryID)
	if err != nil {
		return Entry{}, mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return Entry{}, ErrShiftNotFound
	}
	return s.GetEntry(ctx, periodID, entryID)
}

func (s *Store) SetOverride(ctx context.Context, periodID, entryID string, override *Override) (Entry, error) {
	overrideJSON, err := encodeOverride(override)
	if err != nil {
		return Entry{}, err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE shifts SET override_json = $1, updated_at = now()
    WHERE period_id = $2 AND id = $3
  `, overrideJSON, periodID, entryID)
	if err != nil {
		return Entry{}, err
	}
	if tag.RowsAffected() == 0 {
		return Entry{}, ErrShiftNotFound
	}
	return s.GetEntry(ctx, periodID, entryID)
}

func (s *Store) DeleteEntry(ctx context.Context, periodID, entryID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM shifts WHERE period_id = $1 AND id = $2", periodID, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrShiftNotFound
	}
	return nil
}

func (s *Store) ListAdjustments(ctx context.Context, periodID string) ([]Adjustment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, period_id, kind, amount::text, COALESCE(description, ''), created_at
    FROM adjustments
    WHERE period_id = $1
    ORDER BY created_at
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		var adj Adjustment
		var kind, amount string
		if err := rows.Scan(&adj.ID, &adj.PeriodID, &kind, &amount, &adj.Description, &adj.CreatedAt); err != nil {
			return nil, err
		}
		adj.Kind = AdjustmentKind(kind)
		if adj.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	return out, rows.Err()
}

func (s *Store) CreateAdjustment(ctx context.Context, adj Adjustment) (Adjustment, error) {
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO adjustments (id, period_id, kind, amount, description)
    VALUES ($1,$2,$3,$4::numeric,$5)
    RETURNING created_at
  `, adj.ID, adj.PeriodID, string(adj.Kind), adj.Amount.String(), nullIfEmpty(adj.Description)).Scan(&adj.CreatedAt)
	if err != nil {
		return Adjustment{}, err
	}
	return adj, nil
}

func (s *Store) DeleteAdjustment(ctx context.Context, periodID, adjustmentID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM adjustments WHERE period_id = $1 AND id = $2", periodID, adjustmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdjustmentNotFound
	}
	return nil
}

const entrySelect = `
    SELECT id, period_id, shift_date, start_time, end_time, ends_next_day,
           include_break, COALESCE(break_start, ''), COALESCE(break_end, ''), override_json,
           created_at, updated_at
    FROM shifts`

func scanPeriod(row pgx.Row) (Period, error) {
	var period Period
	var start, end time.Time
	var salary string
	if err := row.Scan(&period.ID, &period.Label, &start, &end, &salary, &period.TransportEnabled, &period.CreatedAt); err != nil {
		return Period{}, err
	}
	period.StartDate = DateOf(start)
	period.EndDate = DateOf(end)
	base, err := decimal.NewFromString(salary)
	if err != nil {
		return Period{}, err
	}
	period.BaseSalary = base
	return period, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var date time.Time
	var start, end, breakStart, breakEnd string
	var overrideJSON []byte
	err := row.Scan(&entry.ID, &entry.PeriodID, &date, &start, &end, &entry.Shift.EndsNextDay,
		&entry.Shift.IncludeBreak, &breakStart, &breakEnd, &overrideJSON, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	entry.Shift.Date = DateOf(date)
	if entry.Shift.Start, err = ParseClock(start); err != nil {
		return Entry{}, err
	}
	if entry.Shift.End, err = ParseClock(end); err != nil {
		return Entry{}, err
	}
	if entry.Shift.IncludeBreak {
		if entry.Shift.BreakStart, err = ParseClock(breakStart); err != nil {
			return Entry{}, err
		}
		if entry.Shift.BreakEnd, err = ParseClock(breakEnd); err != nil {
			return Entry{}, err
		}
	}
	if entry.Override, err = decodeOverride(overrideJSON); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// storedOverride keeps override hours as whole seconds so they survive a
// round trip without float drift.
type storedOverride struct {
	Seconds  map[string]int64 `json:"seconds"`
	Note     string           `json:"note,omitempty"`
	EditedAt time.Time        `json:"editedAt"`
}

func encodeOverride(o *Override) ([]byte, error) {
	if o == nil {
		return nil, nil
	}
	stored := storedOverride{Seconds: map[string]int64{}, Note: o.Note, EditedAt: o.EditedAt}
	for _, c := range Categories {
		stored.Seconds[c.String()] = int64(o.Hours[c] / time.Second)
	}
	return json.Marshal(stored)
}

func decodeOverride(raw []byte) (*Override, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var stored storedOverride
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	o := &Override{Note: stored.Note, EditedAt: stored.EditedAt}
	for key, seconds := range stored.Seconds {
		c, err := ParseCategory(key)
		if err != nil {
			return nil, err
		}
		o.Hours[c] = time.Duration(seconds) * time.Second
	}
	return o, nil
}

func breakValue(include bool, c Clock) any {
	if !include {
		return nil
	}
	return c.String()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateShiftDate
	}
	return err
}
