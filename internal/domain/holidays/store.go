package holidays

import (
	"context"
	"time"

	"nomina/internal/domain/payroll"
	"nomina/internal/platform/db"
)

type StoreAPI interface {
	// ListByYear reports found=false when the year was never saved.
	ListByYear(ctx context.Context, year int) ([]Holiday, bool, error)
	SaveYear(ctx context.Context, year int, items []Holiday) error
}

type Store struct {
	DB      db.Querier
	Country string
}

func NewStore(q db.Querier, country string) *Store {
	return &Store{DB: q, Country: country}
}

func (s *Store) ListByYear(ctx context.Context, year int) ([]Holiday, bool, error) {
	var fetchedAt time.Time
	err := s.DB.QueryRow(ctx, `
    SELECT fetched_at FROM holiday_years WHERE country = $1 AND year = $2
  `, s.Country, year).Scan(&fetchedAt)
	if db.IsNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT holiday_date, local_name, name
    FROM holidays
    WHERE country = $1 AND year = $2
    ORDER BY holiday_date
  `, s.Country, year)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	items := []Holiday{}
	for rows.Next() {
		var h Holiday
		var date time.Time
		if err := rows.Scan(&date, &h.LocalName, &h.Name); err != nil {
			return nil, false, err
		}
		h.Date = payroll.DateOf(date)
		items = append(items, h)
	}
	return items, true, rows.Err()
}

// SaveYear replaces the stored holidays of a year and marks it as fetched.
func (s *Store) SaveYear(ctx context.Context, year int, items []Holiday) error {
	if _, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE country = $1 AND year = $2", s.Country, year); err != nil {
		return err
	}
	for _, h := range items {
		if h.Date.Year != year {
			continue
		}
		if _, err := s.DB.Exec(ctx, `
      INSERT INTO holidays (country, year, holiday_date, local_name, name)
      VALUES ($1,$2,$3,$4,$5)
      ON CONFLICT (country, holiday_date) DO NOTHING
    `, s.Country, year, h.Date.Time(), h.LocalName, h.Name); err != nil {
			return err
		}
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO holiday_years (country, year, fetched_at)
    VALUES ($1,$2,now())
    ON CONFLICT (country, year) DO UPDATE SET fetched_at = EXCLUDED.fetched_at
  `, s.Country, year)
	return err
}
