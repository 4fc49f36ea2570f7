package journals

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/interco/internal/accounting/shared"
)

// PostInTx validates in, inserts it as posted and applies it to account
// balances using the caller's transaction.
func PostInTx(ctx context.Context, tx TxRepository, in PostingInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	entry, err := tx.InsertEntry(ctx, in, EntryStatusPosted)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := tx.ApplyBalances(ctx, entry.CompanyID, entry.Lines, false); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// ArchiveInTx archives the entry, backing a posted entry out of the account
// balances. An already archived entry is returned unchanged.
func ArchiveInTx(ctx context.Context, tx TxRepository, entryID int64) (JournalEntry, error) {
	entry, err := tx.GetForUpdate(ctx, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	switch entry.Status {
	case EntryStatusArchived:
		return entry, nil
	case EntryStatusPosted:
		if err := tx.ApplyBalances(ctx, entry.CompanyID, entry.Lines, true); err != nil {
			return JournalEntry{}, err
		}
	case EntryStatusDraft:
	default:
		return JournalEntry{}, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidStatus, entry.Status)
	}
	if err := tx.UpdateStatus(ctx, entry.ID, EntryStatusArchived); err != nil {
		return JournalEntry{}, err
	}
	entry.Status = EntryStatusArchived
	return entry, nil
}
