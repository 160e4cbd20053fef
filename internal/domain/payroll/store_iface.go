package payroll

import "context"

type StoreAPI interface {
	CreatePeriod(ctx context.Context, period Period) (Period, error)
	GetPeriod(ctx context.Context, periodID string) (Period, error)
	ListPeriods(ctx context.Context, limit, offset int) ([]Period, int, error)
	UpdatePeriod(ctx context.Context, period Period) error
	DeletePeriod(ctx context.Context, periodID string) error

	ListEntries(ctx context.Context, periodID string) ([]Entry, error)
	GetEntry(ctx context.Context, periodID, entryID string) (Entry, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	ReplaceShift(ctx context.Context, periodID, entryID string, shift ShiftInput) (Entry, error)
	SetOverride(ctx context.Context, periodID, entryID string, override *Override) (Entry, error)
	DeleteEntry(ctx context.Context, periodID, entryID string) error

	ListAdjustments(ctx context.Context, periodID string) ([]Adjustment, error)
	CreateAdjustment(ctx context.Context, adj Adjustment) (Adjustment, error)
	DeleteAdjustment(ctx context.Context, periodID, adjustmentID string) error
}
