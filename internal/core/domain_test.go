package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Errorf("String() = %q, want 2024-02-29", d.String())
	}

	for _, bad := range []string{"", "2024-13-01", "2023-02-29", "29/02/2024", "2024-2-9"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"d":"2024-01-31"}`), &w); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if w.D.String() != "2024-01-31" {
		t.Errorf("unmarshaled date = %q, want 2024-01-31", w.D.String())
	}

	out, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(out) != `{"d":"2024-01-31"}` {
		t.Errorf("marshaled = %s", out)
	}

	var zero wrapper
	if err := json.Unmarshal([]byte(`{"d":null}`), &zero); err != nil {
		t.Fatalf("Unmarshal null error = %v", err)
	}
	if !zero.D.IsZero() {
		t.Error("null should unmarshal to zero Date")
	}
	out, _ = json.Marshal(zero)
	if string(out) != `{"d":null}` {
		t.Errorf("zero date marshaled = %s, want null", out)
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Income{
		Title:          "salary",
		Amount:         1000,
		Date:           NewDate(2024, 1, 1),
		RecurrenceType: RecurrenceMonthly,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on valid income error = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Income)
		wantErr error
	}{
		{"empty title", func(i *Income) { i.Title = "   " }, ErrEmptyTitle},
		{"title too long", func(i *Income) { i.Title = strings.Repeat("x", 201) }, ErrTitleTooLong},
		{"zero amount", func(i *Income) { i.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(i *Income) { i.Amount = -5 }, ErrInvalidAmount},
		{"missing date", func(i *Income) { i.Date = Date{} }, ErrInvalidDate},
		{"bad recurrence", func(i *Income) { i.RecurrenceType = "fortnightly" }, ErrInvalidRecurrence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if err := in.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// End date before start date is allowed; expansion collapses instead.
	in := valid
	in.RecurrenceEndDate = NewDate(2023, 12, 1)
	if err := in.Validate(); err != nil {
		t.Errorf("Validate() with end before start error = %v, want nil", err)
	}
}

func TestSavingValidatePercentage(t *testing.T) {
	sv := Saving{
		Title:          "deposit",
		Amount:         100,
		Date:           NewDate(2024, 1, 1),
		RecurrenceType: RecurrenceNone,
		Percentage:     100,
	}
	if err := sv.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	sv.Percentage = 150
	if err := sv.Validate(); !errors.Is(err, ErrInvalidPercentage) {
		t.Errorf("Validate() with percentage 150 = %v, want ErrInvalidPercentage", err)
	}
	sv.Percentage = -1
	if err := sv.Validate(); !errors.Is(err, ErrInvalidPercentage) {
		t.Errorf("Validate() with percentage -1 = %v, want ErrInvalidPercentage", err)
	}
}

func TestAssetValidate(t *testing.T) {
	a := Asset{Name: "car", Amount: 15000}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	a.Name = ""
	if err := a.Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Validate() empty name = %v, want ErrEmptyTitle", err)
	}
	a.Name = "car"
	a.Amount = 0
	if err := a.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Validate() zero amount = %v, want ErrInvalidAmount", err)
	}
}
