package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nomina/internal/platform/db"
)

const (
	ActionShiftCreate      = "shift.create"
	ActionShiftReplace     = "shift.replace"
	ActionShiftDelete      = "shift.delete"
	ActionOverrideApply    = "shift.override.apply"
	ActionOverrideClear    = "shift.override.clear"
	ActionAdjustmentCreate = "adjustment.create"
	ActionAdjustmentDelete = "adjustment.delete"
	ActionPeriodUpdate     = "period.update"
	ActionPeriodDelete     = "period.delete"
)

// Event is one recorded change to a pay period.
type Event struct {
	ID         string          `json:"id"`
	PeriodID   string          `json:"periodId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	PeriodID string
	Action   string
}

type Recorder interface {
	Record(ctx context.Context, evt Event, before, after any) error
}

type Reader interface {
	Count(ctx context.Context, filter Filter) (int, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
}

// Log is the full audit trail of pay period changes.
type Log interface {
	Recorder
	Reader
}

type Store struct {
	DB db.Querier
}

func New(q db.Querier) *Store {
	return &Store{DB: q}
}

func (s *Store) Record(ctx context.Context, evt Event, before, after any) error {
	beforeJSON, err := marshalOptional(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(after)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (period_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, evt.PeriodID, evt.Action, evt.EntityType, evt.EntityID, beforeJSON, afterJSON, evt.RequestID, evt.IP)
	return err
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery(`
    SELECT id::text, period_id::text, action, entity_type, entity_id, request_id, ip, created_at,
      COALESCE(before_json, 'null'::jsonb), COALESCE(after_json, 'null'::jsonb)`, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.PeriodID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt, &evt.Before, &evt.After); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.PeriodID != "" {
		args = append(args, filter.PeriodID)
		query += fmt.Sprintf(" AND period_id = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	return query, args
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
