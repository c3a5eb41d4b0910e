// Package ledger keeps Asset.contributed synchronized with the Savings
// linked to it. Every mutation applies the Saving write and the asset
// delta inside one storage transaction: there is no partial-success state.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"nassets/internal/amqp"
	"nassets/internal/core"
	"nassets/internal/storage"
)

// Service orchestrates ledger-aware Saving mutations and asset deletion.
type Service struct {
	store  *storage.Repository
	events *amqp.Client
}

// NewService creates the ledger service. events may be nil; publishing is
// then skipped.
func NewService(store *storage.Repository, events *amqp.Client) *Service {
	return &Service{
		store:  store,
		events: events,
	}
}

// CreateSaving stores a new Saving and, when it links an Asset, adds its
// amount to that Asset's contributed total. A missing or foreign asset_id
// fails the whole operation with ErrNotFound.
func (s *Service) CreateSaving(ctx context.Context, userID int64, sv core.Saving) (core.Saving, error) {
	if sv.Percentage == 0 {
		sv.Percentage = 100
	}
	if err := sv.Validate(); err != nil {
		return core.Saving{}, err
	}
	sv.UserID = userID

	var created core.Saving
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if sv.AssetID != nil {
			if _, err := q.GetAsset(ctx, userID, *sv.AssetID); err != nil {
				return fmt.Errorf("resolve asset link: %w", err)
			}
		}

		var err error
		created, err = q.CreateSaving(ctx, sv)
		if err != nil {
			return err
		}

		if sv.AssetID != nil {
			return q.AddAssetContribution(ctx, userID, *sv.AssetID, sv.Amount)
		}
		return nil
	})
	if err != nil {
		return core.Saving{}, err
	}

	ev := amqp.NewLedgerEvent(amqp.EventSavingCreated, created.ID, userID, created.Amount)
	ev.AssetID = created.AssetID
	s.publish(ctx, ev)

	return created, nil
}

// UpdateSaving applies a partial update. The asset ledger is adjusted from
// the pre-update amount and link: a changed link moves the old amount off
// the old asset and the new amount onto the new one; an unchanged link with
// a changed amount applies the delta; otherwise the ledger is untouched.
func (s *Service) UpdateSaving(ctx context.Context, userID, id int64, patch core.SavingPatch) (core.Saving, error) {
	var updated core.Saving
	var oldAssetID *int64
	var oldAmount float64

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		sv, err := q.GetSaving(ctx, userID, id)
		if err != nil {
			return err
		}
		oldAssetID, oldAmount = sv.AssetID, sv.Amount

		patch.Apply(&sv)
		if err := sv.Validate(); err != nil {
			return err
		}

		linkChanged := !sameLink(oldAssetID, sv.AssetID)
		if linkChanged && sv.AssetID != nil {
			if _, err := q.GetAsset(ctx, userID, *sv.AssetID); err != nil {
				return fmt.Errorf("resolve asset link: %w", err)
			}
		}

		updated, err = q.UpdateSaving(ctx, sv)
		if err != nil {
			return err
		}

		switch {
		case linkChanged:
			if oldAssetID != nil {
				if err := q.AddAssetContribution(ctx, userID, *oldAssetID, -oldAmount); err != nil {
					return err
				}
			}
			if sv.AssetID != nil {
				if err := q.AddAssetContribution(ctx, userID, *sv.AssetID, sv.Amount); err != nil {
					return err
				}
			}
		case sv.AssetID != nil && sv.Amount != oldAmount:
			if err := q.AddAssetContribution(ctx, userID, *sv.AssetID, sv.Amount-oldAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.Saving{}, err
	}

	ev := amqp.NewLedgerEvent(amqp.EventSavingUpdated, updated.ID, userID, updated.Amount)
	ev.AssetID = updated.AssetID
	ev.OldAssetID = oldAssetID
	ev.OldAmount = oldAmount
	s.publish(ctx, ev)

	return updated, nil
}

// DeleteSaving removes a Saving and, when it was linked, subtracts its
// amount from the Asset's contributed total.
func (s *Service) DeleteSaving(ctx context.Context, userID, id int64) error {
	var deleted core.Saving

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		sv, err := q.GetSaving(ctx, userID, id)
		if err != nil {
			return err
		}
		deleted = sv

		if err := q.DeleteSaving(ctx, userID, id); err != nil {
			return err
		}

		if sv.AssetID != nil {
			return q.AddAssetContribution(ctx, userID, *sv.AssetID, -sv.Amount)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ev := amqp.NewLedgerEvent(amqp.EventSavingDeleted, deleted.ID, userID, deleted.Amount)
	ev.AssetID = deleted.AssetID
	s.publish(ctx, ev)

	return nil
}

// DeleteAsset removes an Asset after detaching every Saving still linked
// to it, all in one transaction. Detaching rather than cascading keeps the
// Savings as plain unlinked records and leaves no dangling references.
func (s *Service) DeleteAsset(ctx context.Context, userID, id int64) error {
	return s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAsset(ctx, userID, id); err != nil {
			return err
		}
		if err := q.DetachSavingsFromAsset(ctx, userID, id); err != nil {
			return err
		}
		return q.DeleteAsset(ctx, userID, id)
	})
}

func sameLink(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Service) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, ev); err != nil {
		// The mutation is already committed; a lost event is log-worthy
		// but must not fail the request.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event", ev.Event, "saving_id", ev.SavingID, "error", err)
	}
}
