// Package budget computes the calendar and monthly-summary views by
// expanding every stored transaction over the requested month. Aggregation
// is pure and re-derived from stored records on every call; no totals are
// cached or persisted.
package budget

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"nassets/internal/core"
	"nassets/internal/recurrence"
)

// Store is the record access the aggregator needs. All three lists are
// scoped to one user by the persistence layer.
type Store interface {
	ListIncomes(ctx context.Context, userID int64) ([]core.Income, error)
	ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
	ListSavings(ctx context.Context, userID int64) ([]core.Saving, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// IncomeOccurrence is an Income projected onto one concrete calendar day.
type IncomeOccurrence struct {
	core.Income
	OccurrenceDate core.Date `json:"occurrence_date"`
	IsRecurring    bool      `json:"is_recurring"`
}

type ExpenseOccurrence struct {
	core.Expense
	OccurrenceDate core.Date `json:"occurrence_date"`
	IsRecurring    bool      `json:"is_recurring"`
}

type SavingOccurrence struct {
	core.Saving
	OccurrenceDate core.Date `json:"occurrence_date"`
	IsRecurring    bool      `json:"is_recurring"`
}

// Calendar is the expanded month view: every occurrence of every record,
// unaggregated.
type Calendar struct {
	Incomes  []IncomeOccurrence  `json:"incomes"`
	Expenses []ExpenseOccurrence `json:"expenses"`
	Savings  []SavingOccurrence  `json:"savings"`
	Month    int                 `json:"month"`
	Year     int                 `json:"year"`
}

// DayBalance aggregates one calendar day of the summary.
type DayBalance struct {
	Date     core.Date `json:"date"`
	Incomes  float64   `json:"incomes"`
	Expenses float64   `json:"expenses"`
	Savings  float64   `json:"savings"`
	Net      float64   `json:"net"`
}

// Summary is the aggregated month view. DailyBalance holds an entry for
// every day of the month, 1 through the month's last day, zero days
// included.
type Summary struct {
	Month         int                `json:"month"`
	Year          int                `json:"year"`
	TotalIncome   float64            `json:"total_income"`
	TotalExpenses float64            `json:"total_expenses"`
	TotalSavings  float64            `json:"total_savings"`
	Remaining     float64            `json:"remaining"`
	DailyBalance  map[int]DayBalance `json:"daily_balance"`
}

// Calendar expands the user's records over the given month.
func (s *Service) Calendar(ctx context.Context, userID int64, year, month int) (*Calendar, error) {
	window, err := recurrence.MonthWindow(year, month)
	if err != nil {
		return nil, err
	}

	incomes, expenses, savings, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	cal := &Calendar{
		Incomes:  make([]IncomeOccurrence, 0),
		Expenses: make([]ExpenseOccurrence, 0),
		Savings:  make([]SavingOccurrence, 0),
		Month:    month,
		Year:     year,
	}

	for _, in := range incomes {
		for _, occ := range recurrence.Expand(incomeSeries(in), window) {
			cal.Incomes = append(cal.Incomes, IncomeOccurrence{Income: in, OccurrenceDate: occ.Date, IsRecurring: occ.Recurring})
		}
	}
	for _, e := range expenses {
		for _, occ := range recurrence.Expand(expenseSeries(e), window) {
			cal.Expenses = append(cal.Expenses, ExpenseOccurrence{Expense: e, OccurrenceDate: occ.Date, IsRecurring: occ.Recurring})
		}
	}
	for _, sv := range savings {
		for _, occ := range recurrence.Expand(savingSeries(sv), window) {
			cal.Savings = append(cal.Savings, SavingOccurrence{Saving: sv, OccurrenceDate: occ.Date, IsRecurring: occ.Recurring})
		}
	}

	return cal, nil
}

// Summary aggregates the expanded month into totals and a per-day balance.
func (s *Service) Summary(ctx context.Context, userID int64, year, month int) (*Summary, error) {
	cal, err := s.Calendar(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Month:        month,
		Year:         year,
		DailyBalance: make(map[int]DayBalance),
	}

	window, _ := recurrence.MonthWindow(year, month)
	lastDay := window.End.Day()
	for day := 1; day <= lastDay; day++ {
		sum.DailyBalance[day] = DayBalance{Date: core.NewDate(year, month, day)}
	}

	for _, occ := range cal.Incomes {
		sum.TotalIncome += occ.Amount
		db := sum.DailyBalance[occ.OccurrenceDate.Day()]
		db.Incomes += occ.Amount
		sum.DailyBalance[occ.OccurrenceDate.Day()] = db
	}
	for _, occ := range cal.Expenses {
		sum.TotalExpenses += occ.Amount
		db := sum.DailyBalance[occ.OccurrenceDate.Day()]
		db.Expenses += occ.Amount
		sum.DailyBalance[occ.OccurrenceDate.Day()] = db
	}
	for _, occ := range cal.Savings {
		sum.TotalSavings += occ.Amount
		db := sum.DailyBalance[occ.OccurrenceDate.Day()]
		db.Savings += occ.Amount
		sum.DailyBalance[occ.OccurrenceDate.Day()] = db
	}

	sum.Remaining = sum.TotalIncome - sum.TotalExpenses - sum.TotalSavings
	for day, db := range sum.DailyBalance {
		db.Net = db.Incomes - db.Expenses - db.Savings
		sum.DailyBalance[day] = db
	}

	return sum, nil
}

// fetch loads the three record lists concurrently; reads are independent
// and side-effect free.
func (s *Service) fetch(ctx context.Context, userID int64) ([]core.Income, []core.Expense, []core.Saving, error) {
	var (
		incomes  []core.Income
		expenses []core.Expense
		savings  []core.Saving
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = s.store.ListIncomes(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		savings, err = s.store.ListSavings(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("fetch records: %w", err)
	}

	return incomes, expenses, savings, nil
}

func incomeSeries(in core.Income) recurrence.Series {
	return recurrence.Series{Start: in.Date, Every: in.RecurrenceType, Until: in.RecurrenceEndDate}
}

func expenseSeries(e core.Expense) recurrence.Series {
	return recurrence.Series{Start: e.Date, Every: e.RecurrenceType, Until: e.RecurrenceEndDate}
}

func savingSeries(sv core.Saving) recurrence.Series {
	return recurrence.Series{Start: sv.Date, Every: sv.RecurrenceType, Until: sv.RecurrenceEndDate}
}
