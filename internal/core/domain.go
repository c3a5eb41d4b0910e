package core

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

type (
	RecurrenceType string

	// Date is a calendar day with no time-of-day component.
	// The zero value means "not set" for optional dates.
	Date struct {
		time.Time
	}

	// User is an account owner. Every other record carries its UserID.
	User struct {
		ID             int64     `json:"id"`
		Email          string    `json:"email"`
		Username       string    `json:"username"`
		HashedPassword string    `json:"-"`
		FullName       string    `json:"full_name,omitempty"`
		IsActive       bool      `json:"is_active"`
		CreatedAt      time.Time `json:"created_at"`
	}

	Income struct {
		ID                int64          `json:"id"`
		UserID            int64          `json:"user_id"`
		Title             string         `json:"title"`
		Amount            float64        `json:"amount"`
		Date              Date           `json:"date"`
		RecurrenceType    RecurrenceType `json:"recurrence_type"`
		RecurrenceEndDate Date           `json:"recurrence_end_date"`
		Description       string         `json:"description,omitempty"`
		CreatedAt         time.Time      `json:"created_at"`
		UpdatedAt         time.Time      `json:"updated_at"`
	}

	Expense struct {
		ID                int64          `json:"id"`
		UserID            int64          `json:"user_id"`
		Title             string         `json:"title"`
		Amount            float64        `json:"amount"`
		Date              Date           `json:"date"`
		Category          string         `json:"category,omitempty"`
		RecurrenceType    RecurrenceType `json:"recurrence_type"`
		RecurrenceEndDate Date           `json:"recurrence_end_date"`
		Description       string         `json:"description,omitempty"`
		CreatedAt         time.Time      `json:"created_at"`
		UpdatedAt         time.Time      `json:"updated_at"`
	}

	// Saving is a transaction-like record that may contribute toward an Asset.
	// Percentage is stored and returned but not consumed by aggregation.
	Saving struct {
		ID                int64          `json:"id"`
		UserID            int64          `json:"user_id"`
		AssetID           *int64         `json:"asset_id"`
		Title             string         `json:"title"`
		Amount            float64        `json:"amount"`
		Date              Date           `json:"date"`
		RecurrenceType    RecurrenceType `json:"recurrence_type"`
		RecurrenceEndDate Date           `json:"recurrence_end_date"`
		Description       string         `json:"description,omitempty"`
		Percentage        float64        `json:"percentage"`
		CreatedAt         time.Time      `json:"created_at"`
		UpdatedAt         time.Time      `json:"updated_at"`
	}

	// Asset is a savings goal. Contributed is maintained by the ledger and
	// always equals the sum of Amount over the Savings linked to it.
	Asset struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"user_id"`
		Name        string    `json:"name"`
		Amount      float64   `json:"amount"`
		Contributed float64   `json:"contributed"`
		TargetDate  Date      `json:"target_date"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
)

// Valid reports whether rt is one of the supported recurrence types.
func (rt RecurrenceType) Valid() bool {
	switch rt {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON renders the date as "YYYY-MM-DD", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (i Income) Validate() error {
	return validateTransaction(i.Title, i.Amount, i.Date, i.RecurrenceType)
}

func (e Expense) Validate() error {
	return validateTransaction(e.Title, e.Amount, e.Date, e.RecurrenceType)
}

func (s Saving) Validate() error {
	if err := validateTransaction(s.Title, s.Amount, s.Date, s.RecurrenceType); err != nil {
		return err
	}
	if s.Percentage < 0 || s.Percentage > 100 {
		return ErrInvalidPercentage
	}
	return nil
}

func (a Asset) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyTitle
	}
	if len(a.Name) > 200 {
		return ErrTitleTooLong
	}
	if a.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// validateTransaction checks the fields shared by Income, Expense and Saving.
// An end date preceding the start date is deliberately allowed: expansion
// collapses to zero occurrences rather than failing the write.
func validateTransaction(title string, amount float64, date Date, rt RecurrenceType) error {
	if len(strings.TrimSpace(title)) == 0 {
		return ErrEmptyTitle
	}
	if len(title) > 200 {
		return ErrTitleTooLong
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := date.Validate(); err != nil {
		return err
	}
	if !rt.Valid() {
		return ErrInvalidRecurrence
	}
	return nil
}
