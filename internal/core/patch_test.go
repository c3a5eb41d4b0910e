package core

import (
	"encoding/json"
	"testing"
)

func TestOptionalIDThreeStates(t *testing.T) {
	var p SavingPatch
	if err := json.Unmarshal([]byte(`{"title":"x"}`), &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if p.AssetID.Present {
		t.Error("absent asset_id reported as present")
	}

	p = SavingPatch{}
	if err := json.Unmarshal([]byte(`{"asset_id":null}`), &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if !p.AssetID.Present || p.AssetID.Value != nil {
		t.Errorf("asset_id null: Present=%v Value=%v, want present nil", p.AssetID.Present, p.AssetID.Value)
	}

	p = SavingPatch{}
	if err := json.Unmarshal([]byte(`{"asset_id":7}`), &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if !p.AssetID.Present || p.AssetID.Value == nil || *p.AssetID.Value != 7 {
		t.Errorf("asset_id 7: Present=%v Value=%v", p.AssetID.Present, p.AssetID.Value)
	}
}

func TestSavingPatchApply(t *testing.T) {
	assetID := int64(3)
	sv := Saving{
		AssetID:        &assetID,
		Title:          "old",
		Amount:         100,
		Date:           NewDate(2024, 1, 1),
		RecurrenceType: RecurrenceNone,
		Percentage:     100,
	}

	title := "new"
	amount := 250.0
	p := SavingPatch{Title: &title, Amount: &amount}
	p.Apply(&sv)

	if sv.Title != "new" || sv.Amount != 250 {
		t.Errorf("after apply: %+v", sv)
	}
	if sv.AssetID == nil || *sv.AssetID != 3 {
		t.Error("asset link changed by a patch that did not mention it")
	}

	clear := SavingPatch{}
	clear.AssetID.Present = true
	clear.Apply(&sv)
	if sv.AssetID != nil {
		t.Errorf("asset link = %v, want nil after explicit clear", *sv.AssetID)
	}
}

func TestAssetPatchApply(t *testing.T) {
	a := Asset{Name: "old", Amount: 1000, Contributed: 400}

	name := "new"
	p := AssetPatch{Name: &name}
	p.Apply(&a)

	if a.Name != "new" {
		t.Errorf("Name = %q, want new", a.Name)
	}
	if a.Contributed != 400 {
		t.Errorf("Contributed = %v, want untouched 400", a.Contributed)
	}
}

func TestExpensePatchApply(t *testing.T) {
	e := Expense{
		Title:          "rent",
		Amount:         900,
		Category:       "housing",
		Date:           NewDate(2024, 1, 1),
		RecurrenceType: RecurrenceMonthly,
	}

	category := "utilities"
	end := NewDate(2024, 6, 1)
	p := ExpensePatch{Category: &category, RecurrenceEndDate: &end}
	p.Apply(&e)

	if e.Category != "utilities" {
		t.Errorf("Category = %q", e.Category)
	}
	if e.RecurrenceEndDate.String() != "2024-06-01" {
		t.Errorf("RecurrenceEndDate = %v", e.RecurrenceEndDate)
	}
	if e.Title != "rent" || e.Amount != 900 {
		t.Errorf("untouched fields changed: %+v", e)
	}
}
