package amqp

import (
	"encoding/json"
	"time"
)

const (
	EventSavingCreated = "saving.created"
	EventSavingUpdated = "saving.updated"
	EventSavingDeleted = "saving.deleted"
)

// LedgerEvent describes one committed Saving mutation and the asset links
// it touched. Consumers can replay the contributed deltas from these.
type LedgerEvent struct {
	Event      string    `json:"event"`
	SavingID   int64     `json:"saving_id"`
	UserID     int64     `json:"user_id"`
	Amount     float64   `json:"amount"`
	AssetID    *int64    `json:"asset_id,omitempty"`
	OldAssetID *int64    `json:"old_asset_id,omitempty"`
	OldAmount  float64   `json:"old_amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewLedgerEvent(event string, savingID, userID int64, amount float64) *LedgerEvent {
	return &LedgerEvent{
		Event:      event,
		SavingID:   savingID,
		UserID:     userID,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var m LedgerEvent
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
