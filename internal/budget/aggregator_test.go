package budget

import (
	"context"
	"math"
	"testing"

	"nassets/internal/core"
)

type fakeStore struct {
	incomes  []core.Income
	expenses []core.Expense
	savings  []core.Saving
}

func (f *fakeStore) ListIncomes(_ context.Context, _ int64) ([]core.Income, error) {
	return f.incomes, nil
}

func (f *fakeStore) ListExpenses(_ context.Context, _ int64) ([]core.Expense, error) {
	return f.expenses, nil
}

func (f *fakeStore) ListSavings(_ context.Context, _ int64) ([]core.Saving, error) {
	return f.savings, nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalendarExpandsRecurring(t *testing.T) {
	store := &fakeStore{
		incomes: []core.Income{{
			ID: 1, Title: "salary", Amount: 3000,
			Date:           core.NewDate(2024, 1, 1),
			RecurrenceType: core.RecurrenceMonthly,
		}},
		expenses: []core.Expense{{
			ID: 1, Title: "groceries", Amount: 50,
			Date:           core.NewDate(2024, 1, 5),
			RecurrenceType: core.RecurrenceWeekly,
		}},
		savings: []core.Saving{{
			ID: 1, Title: "one-off", Amount: 200,
			Date:           core.NewDate(2024, 1, 15),
			RecurrenceType: core.RecurrenceNone,
		}},
	}
	svc := NewService(store)

	cal, err := svc.Calendar(context.Background(), 1, 2024, 1)
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}

	if len(cal.Incomes) != 1 {
		t.Errorf("incomes: got %d occurrences, want 1", len(cal.Incomes))
	}
	if len(cal.Expenses) != 4 {
		t.Fatalf("expenses: got %d occurrences, want 4", len(cal.Expenses))
	}
	wantDays := []int{5, 12, 19, 26}
	for i, occ := range cal.Expenses {
		if occ.OccurrenceDate.Day() != wantDays[i] {
			t.Errorf("expense occurrence %d on day %d, want %d", i, occ.OccurrenceDate.Day(), wantDays[i])
		}
		if !occ.IsRecurring {
			t.Errorf("expense occurrence %d not flagged recurring", i)
		}
	}
	if len(cal.Savings) != 1 || cal.Savings[0].IsRecurring {
		t.Errorf("savings: got %+v, want one non-recurring occurrence", cal.Savings)
	}
}

func TestCalendarEmptyMonth(t *testing.T) {
	svc := NewService(&fakeStore{})

	cal, err := svc.Calendar(context.Background(), 1, 2024, 6)
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}
	if cal.Incomes == nil || cal.Expenses == nil || cal.Savings == nil {
		t.Error("calendar slices must be non-nil even when empty")
	}
	if len(cal.Incomes)+len(cal.Expenses)+len(cal.Savings) != 0 {
		t.Errorf("expected empty calendar, got %+v", cal)
	}
}

func TestCalendarInvalidMonth(t *testing.T) {
	svc := NewService(&fakeStore{})

	if _, err := svc.Calendar(context.Background(), 1, 2024, 13); err == nil {
		t.Error("Calendar() with month 13 should fail")
	}
	if _, err := svc.Calendar(context.Background(), 1, 2024, 0); err == nil {
		t.Error("Calendar() with month 0 should fail")
	}
}

func TestSummaryTotalsAndRemaining(t *testing.T) {
	store := &fakeStore{
		incomes: []core.Income{{
			ID: 1, Title: "salary", Amount: 3000,
			Date:           core.NewDate(2024, 1, 1),
			RecurrenceType: core.RecurrenceMonthly,
		}},
		expenses: []core.Expense{{
			ID: 1, Title: "groceries", Amount: 50,
			Date:           core.NewDate(2024, 1, 5),
			RecurrenceType: core.RecurrenceWeekly,
		}},
		savings: []core.Saving{{
			ID: 1, Title: "etf", Amount: 400,
			Date:           core.NewDate(2024, 1, 2),
			RecurrenceType: core.RecurrenceMonthly,
		}},
	}
	svc := NewService(store)

	sum, err := svc.Summary(context.Background(), 1, 2024, 1)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if !almostEqual(sum.TotalIncome, 3000) {
		t.Errorf("TotalIncome = %v, want 3000", sum.TotalIncome)
	}
	if !almostEqual(sum.TotalExpenses, 200) {
		t.Errorf("TotalExpenses = %v, want 200 (4 weekly occurrences)", sum.TotalExpenses)
	}
	if !almostEqual(sum.TotalSavings, 400) {
		t.Errorf("TotalSavings = %v, want 400", sum.TotalSavings)
	}
	if !almostEqual(sum.Remaining, 2400) {
		t.Errorf("Remaining = %v, want 2400", sum.Remaining)
	}

	if len(sum.DailyBalance) != 31 {
		t.Fatalf("DailyBalance has %d days, want 31", len(sum.DailyBalance))
	}
	day5 := sum.DailyBalance[5]
	if !almostEqual(day5.Expenses, 50) || !almostEqual(day5.Net, -50) {
		t.Errorf("day 5 = %+v, want expenses 50 net -50", day5)
	}
	day1 := sum.DailyBalance[1]
	if !almostEqual(day1.Incomes, 3000) || !almostEqual(day1.Net, 3000) {
		t.Errorf("day 1 = %+v, want incomes 3000 net 3000", day1)
	}
	// Days with no occurrences are still present with zeros.
	day31 := sum.DailyBalance[31]
	if day31.Incomes != 0 || day31.Expenses != 0 || day31.Savings != 0 || day31.Net != 0 {
		t.Errorf("day 31 = %+v, want all zero", day31)
	}
}

func TestSummaryLeapFebruary(t *testing.T) {
	store := &fakeStore{
		expenses: []core.Expense{{
			ID: 1, Title: "coffee", Amount: 2,
			Date:           core.NewDate(2024, 2, 1),
			RecurrenceType: core.RecurrenceDaily,
		}},
	}
	svc := NewService(store)

	sum, err := svc.Summary(context.Background(), 1, 2024, 2)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if len(sum.DailyBalance) != 29 {
		t.Fatalf("DailyBalance has %d days, want 29 for leap February", len(sum.DailyBalance))
	}
	if !almostEqual(sum.TotalExpenses, 58) {
		t.Errorf("TotalExpenses = %v, want 58 (29 daily occurrences)", sum.TotalExpenses)
	}
	if !almostEqual(sum.DailyBalance[29].Expenses, 2) {
		t.Errorf("day 29 expenses = %v, want 2", sum.DailyBalance[29].Expenses)
	}
}

func TestSummaryMultipleSameDay(t *testing.T) {
	store := &fakeStore{
		expenses: []core.Expense{
			{ID: 1, Title: "rent", Amount: 900, Date: core.NewDate(2024, 3, 10), RecurrenceType: core.RecurrenceNone},
			{ID: 2, Title: "insurance", Amount: 100, Date: core.NewDate(2024, 3, 10), RecurrenceType: core.RecurrenceNone},
		},
	}
	svc := NewService(store)

	sum, err := svc.Summary(context.Background(), 1, 2024, 3)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !almostEqual(sum.DailyBalance[10].Expenses, 1000) {
		t.Errorf("day 10 expenses = %v, want 1000", sum.DailyBalance[10].Expenses)
	}
}

func TestSummaryEndedRecurrence(t *testing.T) {
	store := &fakeStore{
		incomes: []core.Income{{
			ID: 1, Title: "contract", Amount: 500,
			Date:              core.NewDate(2024, 1, 1),
			RecurrenceType:    core.RecurrenceWeekly,
			RecurrenceEndDate: core.NewDate(2024, 1, 15),
		}},
	}
	svc := NewService(store)

	sum, err := svc.Summary(context.Background(), 1, 2024, 1)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	// Jan 1, 8, 15; the end date itself still counts.
	if !almostEqual(sum.TotalIncome, 1500) {
		t.Errorf("TotalIncome = %v, want 1500", sum.TotalIncome)
	}
}
