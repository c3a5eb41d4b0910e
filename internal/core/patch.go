package core

import "encoding/json"

// Patch types model partial updates: only fields present in the request body
// are applied. Plain fields use pointers (nil = leave unchanged). The Saving
// asset link needs a third state, "explicitly cleared", which OptionalID adds.

// OptionalID distinguishes an absent field from an explicit null in a patch
// payload. Present is set whenever the field appeared in the JSON body;
// Value stays nil when the field was null.
type OptionalID struct {
	Present bool
	Value   *int64
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Present = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type IncomePatch struct {
	Title             *string         `json:"title"`
	Amount            *float64        `json:"amount"`
	Date              *Date           `json:"date"`
	RecurrenceType    *RecurrenceType `json:"recurrence_type"`
	RecurrenceEndDate *Date           `json:"recurrence_end_date"`
	Description       *string         `json:"description"`
}

type ExpensePatch struct {
	Title             *string         `json:"title"`
	Amount            *float64        `json:"amount"`
	Date              *Date           `json:"date"`
	Category          *string         `json:"category"`
	RecurrenceType    *RecurrenceType `json:"recurrence_type"`
	RecurrenceEndDate *Date           `json:"recurrence_end_date"`
	Description       *string         `json:"description"`
}

type SavingPatch struct {
	AssetID           OptionalID      `json:"asset_id"`
	Title             *string         `json:"title"`
	Amount            *float64        `json:"amount"`
	Date              *Date           `json:"date"`
	RecurrenceType    *RecurrenceType `json:"recurrence_type"`
	RecurrenceEndDate *Date           `json:"recurrence_end_date"`
	Description       *string         `json:"description"`
	Percentage        *float64        `json:"percentage"`
}

// AssetPatch has no Contributed field: the running total is owned by the
// ledger and cannot be set directly.
type AssetPatch struct {
	Name        *string  `json:"name"`
	Amount      *float64 `json:"amount"`
	TargetDate  *Date    `json:"target_date"`
	Description *string  `json:"description"`
}

// Apply overwrites the provided fields on i.
func (p IncomePatch) Apply(i *Income) {
	if p.Title != nil {
		i.Title = *p.Title
	}
	if p.Amount != nil {
		i.Amount = *p.Amount
	}
	if p.Date != nil {
		i.Date = *p.Date
	}
	if p.RecurrenceType != nil {
		i.RecurrenceType = *p.RecurrenceType
	}
	if p.RecurrenceEndDate != nil {
		i.RecurrenceEndDate = *p.RecurrenceEndDate
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
}

// Apply overwrites the provided fields on e.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.RecurrenceType != nil {
		e.RecurrenceType = *p.RecurrenceType
	}
	if p.RecurrenceEndDate != nil {
		e.RecurrenceEndDate = *p.RecurrenceEndDate
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
}

// Apply overwrites the provided fields on s, including clearing or
// reassigning the asset link when the field was present in the payload.
func (p SavingPatch) Apply(s *Saving) {
	if p.AssetID.Present {
		s.AssetID = p.AssetID.Value
	}
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Amount != nil {
		s.Amount = *p.Amount
	}
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.RecurrenceType != nil {
		s.RecurrenceType = *p.RecurrenceType
	}
	if p.RecurrenceEndDate != nil {
		s.RecurrenceEndDate = *p.RecurrenceEndDate
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Percentage != nil {
		s.Percentage = *p.Percentage
	}
}

// Apply overwrites the provided fields on a.
func (p AssetPatch) Apply(a *Asset) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Amount != nil {
		a.Amount = *p.Amount
	}
	if p.TargetDate != nil {
		a.TargetDate = *p.TargetDate
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
}
