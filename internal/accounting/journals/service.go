package journals

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/odyssey-erp/interco/internal/accounting/shared"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/interco/internal/shared"
)

type Service struct {
	repo   Repository
	audit  internalShared.AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, audit internalShared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger.With(slog.String("component", "journals")), now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context, filters ListFilters) (internalShared.Page[JournalEntry], error) {
	if filters.CompanyID <= 0 {
		return internalShared.Page[JournalEntry]{}, fmt.Errorf("%w: companyId is required", httpx.ErrValidation)
	}
	switch filters.Status {
	case "", EntryStatusDraft, EntryStatusPosted, EntryStatusArchived:
	default:
		return internalShared.Page[JournalEntry]{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filters.Status)
	}
	filters.Page, filters.Limit = internalShared.NormalizePage(filters.Page, filters.Limit)
	entries, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return internalShared.Page[JournalEntry]{}, err
	}
	return internalShared.Page[JournalEntry]{
		Data:       entries,
		Pagination: internalShared.NewPagination(filters.Page, filters.Limit, total),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a manual entry as draft, or posts it immediately when post is set.
func (s *Service) Create(ctx context.Context, input PostingInput, post bool, actor string) (JournalEntry, error) {
	if input.Type == EntryTypeSystemGenerated {
		return JournalEntry{}, fmt.Errorf("%w: system generated entries are created by their source module", httpx.ErrValidation)
	}
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if post {
			entry, err = PostInTx(ctx, tx, input)
			return err
		}
		entry, err = tx.InsertEntry(ctx, input, EntryStatusDraft)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actor, "journal.create", entry, map[string]any{"number": entry.Number, "status": string(entry.Status)})
	return entry, nil
}

// Post moves a draft entry to posted and applies it to account balances.
func (s *Service) Post(ctx context.Context, id int64, actor string) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != EntryStatusDraft {
			return fmt.Errorf("%w: only draft entries can be posted, entry is %s", shared.ErrInvalidStatus, current.Status)
		}
		debit, credit := Totals(current.Lines)
		if len(current.Lines) < 2 {
			return shared.ErrTooFewLines
		}
		if !debit.Equal(credit) {
			return shared.ErrUnbalanced
		}
		if err := tx.ApplyBalances(ctx, current.CompanyID, current.Lines, false); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, current.ID, EntryStatusPosted); err != nil {
			return err
		}
		current.Status = EntryStatusPosted
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actor, "journal.post", entry, map[string]any{"number": entry.Number})
	return entry, nil
}

// Archive retires an entry. System generated entries follow their source
// document and cannot be archived directly.
func (s *Service) Archive(ctx context.Context, id int64, actor string) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Type == EntryTypeSystemGenerated {
			return fmt.Errorf("%w: entry %s is owned by %s", shared.ErrInvalidStatus, current.Number, current.SourceModule)
		}
		if current.Status == EntryStatusArchived {
			return fmt.Errorf("%w: entry %s is already archived", shared.ErrInvalidStatus, current.Number)
		}
		entry, err = ArchiveInTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actor, "journal.archive", entry, map[string]any{"number": entry.Number})
	return entry, nil
}

func (s *Service) record(ctx context.Context, actor, action string, entry JournalEntry, meta map[string]any) {
	internalShared.RecordQuietly(ctx, s.audit, s.logger, internalShared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: strconv.FormatInt(entry.ID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
