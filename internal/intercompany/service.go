package intercompany

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/interco/internal/accounting/journals"
	"github.com/odyssey-erp/interco/internal/accounting/mappings"
	accshared "github.com/odyssey-erp/interco/internal/accounting/shared"
	"github.com/odyssey-erp/interco/internal/documents"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
	"github.com/odyssey-erp/interco/internal/shared"
)

const (
	// SourceModule tags journal entries posted for intercompany events.
	SourceModule = "intercompany"
	// AuditEntity names transactions in audit_logs.
	AuditEntity = "intercompany_transaction"
	// AutoMatchActor is recorded for pairings made by the background job.
	AutoMatchActor = "system/auto_match"
)

// Repository describes the persistence operations the service needs.
type Repository interface {
	Get(ctx context.Context, id int64) (Transaction, error)
	List(ctx context.Context, filters ListFilters) ([]Transaction, int, error)
	Summary(ctx context.Context, tenantID int64) ([]StatusTotal, error)
	// PendingForAutoMatch returns pending transactions oldest first.
	PendingForAutoMatch(ctx context.Context, limit int) ([]Transaction, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the writes performed inside one database transaction.
type TxRepository interface {
	Companies(ctx context.Context, ids ...int64) (map[int64]Party, error)
	DocumentOwner(ctx context.Context, kind documents.Kind, id int64) (int64, error)
	NextNumber(ctx context.Context, tenantID int64, year int) (string, error)
	ResolveAccount(ctx context.Context, companyID int64, role mappings.Role) (int64, error)
	PostJournal(ctx context.Context, in journals.PostingInput) (journals.JournalEntry, error)
	ArchiveJournal(ctx context.Context, entryID int64) error
	Insert(ctx context.Context, t Transaction) (Transaction, error)
	GetForUpdate(ctx context.Context, id int64) (Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status Status, counterpartID *int64) (Transaction, error)
}

// SummaryCache stores tenant summaries under versioned keys.
type SummaryCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// Recorder receives lifecycle counters.
type Recorder interface {
	TransactionCreated(txType string)
	StatusChanged(from, to string)
	Matched(auto bool)
}

// Config configures optional collaborators and policies.
type Config struct {
	AmountPolicy AmountPolicy
	Audit        shared.AuditRecorder
	Cache        SummaryCache
	Metrics      Recorder
}

// Service implements the intercompany ledger operations.
type Service struct {
	repo    Repository
	audit   shared.AuditRecorder
	cache   SummaryCache
	metrics Recorder
	policy  AmountPolicy
	logger  *slog.Logger
	now     func() time.Time
	newRef  func() uuid.UUID
	group   singleflight.Group
}

// NewService wires the service.
func NewService(repo Repository, logger *slog.Logger, cfg Config) *Service {
	policy := cfg.AmountPolicy
	if policy == "" {
		policy = AmountPolicyAllowMismatch
	}
	return &Service{
		repo:    repo,
		audit:   cfg.Audit,
		cache:   cfg.Cache,
		metrics: cfg.Metrics,
		policy:  policy,
		logger:  logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
		newRef: uuid.New,
	}
}

// Create records an event and, unless disabled, posts one balanced journal
// entry in each company's ledger. Everything happens in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput, actor string) (Transaction, error) {
	if err := validateCreate(in); err != nil {
		return Transaction{}, err
	}
	var created Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		parties, err := tx.Companies(ctx, in.SourceCompanyID, in.TargetCompanyID)
		if err != nil {
			return err
		}
		for _, id := range []int64{in.SourceCompanyID, in.TargetCompanyID} {
			p, ok := parties[id]
			if !ok || !p.IsActive || p.TenantID != in.TenantID {
				return ErrCompanyTenant
			}
		}
		if err := checkDocuments(ctx, tx, in); err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, in.TenantID, in.Date.Year())
		if err != nil {
			return err
		}
		t := Transaction{
			Ref:              s.newRef(),
			Number:           number,
			SourceCompanyID:  in.SourceCompanyID,
			TargetCompanyID:  in.TargetCompanyID,
			TenantID:         in.TenantID,
			Type:             in.Type,
			SourceDocumentID: in.SourceDocumentID,
			TargetDocumentID: in.TargetDocumentID,
			Date:             in.Date,
			Amount:           in.Amount,
			Description:      in.Description,
			Status:           StatusPending,
		}
		if in.CreateJournalEntries {
			source, err := s.postSide(ctx, tx, t, t.SourceCompanyID, mappings.RoleICReceivable, mappings.RoleRevenue)
			if err != nil {
				return fmt.Errorf("source journal: %w", err)
			}
			target, err := s.postSide(ctx, tx, t, t.TargetCompanyID, mappings.RoleExpense, mappings.RoleICPayable)
			if err != nil {
				return fmt.Errorf("target journal: %w", err)
			}
			t.SourceJournalEntryID = &source.ID
			t.TargetJournalEntryID = &target.ID
		}
		created, err = tx.Insert(ctx, t)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	if s.metrics != nil {
		s.metrics.TransactionCreated(string(created.Type))
	}
	s.recordAudit(ctx, actor, "intercompany.create", created, map[string]any{
		"number":         created.Number,
		"type":           string(created.Type),
		"amount":         created.Amount.String(),
		"journalEntries": in.CreateJournalEntries,
	})
	s.invalidate(ctx)
	s.log().Info("intercompany transaction created",
		slog.Int64("id", created.ID),
		slog.String("number", created.Number),
		slog.Int64("tenant_id", created.TenantID))
	return created, nil
}

func validateCreate(in CreateInput) error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", httpx.ErrValidation, in.Type)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", httpx.ErrValidation)
	}
	if err := accshared.CheckAmount("amount", in.Amount); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", httpx.ErrValidation)
	}
	if in.TenantID <= 0 {
		return fmt.Errorf("%w: tenantId is required", httpx.ErrValidation)
	}
	if in.SourceCompanyID == in.TargetCompanyID {
		return fmt.Errorf("%w: source and target companies must differ", httpx.ErrValidation)
	}
	if _, _, ok := in.Type.DocumentKinds(); !ok && (in.SourceDocumentID != nil || in.TargetDocumentID != nil) {
		return fmt.Errorf("%w: %s transactions do not reference documents", httpx.ErrValidation, in.Type)
	}
	return nil
}

func checkDocuments(ctx context.Context, tx TxRepository, in CreateInput) error {
	sourceKind, targetKind, ok := in.Type.DocumentKinds()
	if !ok {
		return nil
	}
	refs := []struct {
		id      *int64
		kind    documents.Kind
		company int64
		side    string
	}{
		{in.SourceDocumentID, sourceKind, in.SourceCompanyID, "sourceDocumentId"},
		{in.TargetDocumentID, targetKind, in.TargetCompanyID, "targetDocumentId"},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		owner, err := tx.DocumentOwner(ctx, ref.kind, *ref.id)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.side, err)
		}
		if owner != ref.company {
			return fmt.Errorf("%w: %s %d is not a %s of company %d", httpx.ErrValidation, ref.side, *ref.id, ref.kind, ref.company)
		}
	}
	return nil
}

// postSide posts Dr debitRole / Cr creditRole for the full amount.
func (s *Service) postSide(ctx context.Context, tx TxRepository, t Transaction, companyID int64, debitRole, creditRole mappings.Role) (journals.JournalEntry, error) {
	debitAccount, err := tx.ResolveAccount(ctx, companyID, debitRole)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	creditAccount, err := tx.ResolveAccount(ctx, companyID, creditRole)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	ref := t.Ref
	description := fmt.Sprintf("Intercompany %s %s", t.Type, t.Number)
	return tx.PostJournal(ctx, journals.PostingInput{
		CompanyID:    companyID,
		Date:         t.Date.Time,
		Type:         journals.EntryTypeSystemGenerated,
		Description:  description,
		SourceModule: SourceModule,
		SourceRef:    &ref,
		Lines: []journals.PostingLineInput{
			{AccountID: debitAccount, Debit: t.Amount, Description: description},
			{AccountID: creditAccount, Credit: t.Amount, Description: description},
		},
	})
}

// SetStatus moves a transaction through its lifecycle. Moving to the current
// status is a no-op. Cancelling archives the linked journal entries.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status, actor string) (Transaction, error) {
	if !status.Valid() {
		return Transaction{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	var (
		updated Transaction
		from    Status
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = current.Status
		if !CanTransition(current.Status, status) {
			return illegalTransition(current.Status, status)
		}
		if current.Status == status {
			updated = current
			return nil
		}
		if status == StatusCancelled {
			for _, entryID := range []*int64{current.SourceJournalEntryID, current.TargetJournalEntryID} {
				if entryID == nil {
					continue
				}
				if err := tx.ArchiveJournal(ctx, *entryID); err != nil {
					return fmt.Errorf("archive journal %d: %w", *entryID, err)
				}
			}
		}
		updated, err = tx.UpdateStatus(ctx, id, status, current.CounterpartID)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	if from == status {
		return updated, nil
	}
	if s.metrics != nil {
		s.metrics.StatusChanged(string(from), string(status))
	}
	s.recordAudit(ctx, actor, "intercompany.status", updated, map[string]any{
		"from": string(from),
		"to":   string(status),
	})
	s.invalidate(ctx)
	return updated, nil
}

// Match pairs a transaction with its mirror and marks both matched. Rows are
// locked in ascending id order so concurrent matches cannot deadlock.
func (s *Service) Match(ctx context.Context, sourceID, targetID int64, actor string) (MatchResult, error) {
	if sourceID <= 0 || targetID <= 0 {
		return MatchResult{}, fmt.Errorf("%w: both transaction ids are required", httpx.ErrValidation)
	}
	if sourceID == targetID {
		return MatchResult{}, fmt.Errorf("%w: a transaction cannot be matched with itself", httpx.ErrValidation)
	}
	var result MatchResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		first, second := sourceID, targetID
		if first > second {
			first, second = second, first
		}
		locked := make(map[int64]Transaction, 2)
		for _, id := range []int64{first, second} {
			t, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = t
		}
		source, target := locked[sourceID], locked[targetID]
		for _, t := range []Transaction{source, target} {
			if t.Status == StatusCancelled {
				return fmt.Errorf("%w: transaction %d is cancelled", httpx.ErrValidation, t.ID)
			}
		}
		for _, t := range []Transaction{source, target} {
			if t.Status == StatusMatched || t.Status == StatusReconciled {
				return fmt.Errorf("%w (id %d)", ErrAlreadyMatched, t.ID)
			}
		}
		if source.TenantID != target.TenantID {
			return ErrTenantMismatch
		}
		if !source.IsMirrorOf(target) {
			return ErrNotMirror
		}
		if s.policy == AmountPolicyRequireEqual && !source.Amount.Equal(target.Amount) {
			return fmt.Errorf("%w: %s vs %s", ErrAmountMismatch, source.Amount, target.Amount)
		}
		var err error
		if result.Source, err = tx.UpdateStatus(ctx, source.ID, StatusMatched, &target.ID); err != nil {
			return err
		}
		result.Target, err = tx.UpdateStatus(ctx, target.ID, StatusMatched, &source.ID)
		return err
	})
	if err != nil {
		return MatchResult{}, err
	}
	if s.metrics != nil {
		s.metrics.Matched(actor == AutoMatchActor)
	}
	for _, t := range []Transaction{result.Source, result.Target} {
		s.recordAudit(ctx, actor, "intercompany.match", t, map[string]any{"counterpartId": *t.CounterpartID})
	}
	s.invalidate(ctx)
	return result, nil
}

// Get loads a transaction by id.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, fmt.Errorf("%w: invalid id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of transactions.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[Transaction], error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return shared.Page[Transaction]{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filters.Status)
	}
	filters.Page, filters.Limit = shared.NormalizePage(filters.Page, filters.Limit)
	rows, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[Transaction]{}, err
	}
	return shared.Page[Transaction]{Data: rows, Pagination: shared.NewPagination(filters.Page, filters.Limit, total)}, nil
}

// Summary aggregates a tenant's transactions by status. Results are cached
// until the next mutation and concurrent misses share one load. The shared
// load is detached from any single caller; each caller still gives up on its
// own context.
func (s *Service) Summary(ctx context.Context, tenantID int64) (Summary, error) {
	if tenantID <= 0 {
		return Summary{}, fmt.Errorf("%w: tenantId is required", httpx.ErrValidation)
	}
	key := "summary:tenant:" + strconv.FormatInt(tenantID, 10)
	versioned := ""
	if s.cache != nil {
		built, err := s.cache.BuildKey(ctx, "tenant", strconv.FormatInt(tenantID, 10))
		if err != nil {
			s.log().Warn("summary cache unavailable", slog.Any("error", err))
		} else {
			key, versioned = built, built
		}
	}
	ch := s.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), summaryLoadTimeout)
		defer cancel()
		return s.fetchSummary(loadCtx, tenantID, versioned)
	})
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Summary{}, res.Err
		}
		return res.Val.(Summary), nil
	}
}

// summaryLoadTimeout bounds a shared summary load.
const summaryLoadTimeout = 30 * time.Second

func (s *Service) loadSummary(ctx context.Context, tenantID int64) (Summary, error) {
	totals, err := s.repo.Summary(ctx, tenantID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{TenantID: tenantID, ByStatus: totals}, nil
}

// fetchSummary reads through the cache when a versioned key is available.
// Cache failures fall back to the database; loader failures do not.
func (s *Service) fetchSummary(ctx context.Context, tenantID int64, versioned string) (Summary, error) {
	if versioned == "" {
		return s.loadSummary(ctx, tenantID)
	}
	var (
		out, loaded Summary
		loadErr     error
		didLoad     bool
	)
	err := s.cache.FetchJSON(ctx, versioned, &out, func(ctx context.Context) (any, error) {
		didLoad = true
		loaded, loadErr = s.loadSummary(ctx, tenantID)
		if loadErr != nil {
			return nil, loadErr
		}
		return loaded, nil
	})
	switch {
	case err == nil:
		return out, nil
	case loadErr != nil:
		return Summary{}, loadErr
	}
	s.log().Warn("summary cache failed, reading from database", slog.Any("error", err))
	if didLoad {
		return loaded, nil
	}
	return s.loadSummary(ctx, tenantID)
}

// AutoMatch pairs pending mirror transactions of the same tenant, type and
// amount, oldest first. Failed pairings are logged and skipped.
func (s *Service) AutoMatch(ctx context.Context, limit int) (AutoMatchResult, error) {
	pending, err := s.repo.PendingForAutoMatch(ctx, limit)
	if err != nil {
		return AutoMatchResult{}, err
	}
	result := AutoMatchResult{Considered: len(pending)}
	waiting := make(map[string][]Transaction)
	for _, t := range pending {
		key := pairKey(t)
		candidates := waiting[key]
		idx := -1
		for i, c := range candidates {
			if c.IsMirrorOf(t) {
				idx = i
				break
			}
		}
		if idx < 0 {
			waiting[key] = append(candidates, t)
			continue
		}
		older := candidates[idx]
		waiting[key] = append(candidates[:idx:idx], candidates[idx+1:]...)
		if _, err := s.Match(ctx, older.ID, t.ID, AutoMatchActor); err != nil {
			result.Failed++
			s.log().Warn("auto match failed",
				slog.Int64("source_id", older.ID),
				slog.Int64("target_id", t.ID),
				slog.Any("error", err))
			continue
		}
		result.Matched++
	}
	s.log().Info("auto match completed",
		slog.Int("considered", result.Considered),
		slog.Int("matched", result.Matched),
		slog.Int("failed", result.Failed))
	return result, nil
}

func pairKey(t Transaction) string {
	low, high := t.SourceCompanyID, t.TargetCompanyID
	if low > high {
		low, high = high, low
	}
	return fmt.Sprintf("%d|%s|%d|%d|%s", t.TenantID, t.Type, low, high, t.Amount.StringFixed(2))
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.log().Warn("summary cache bump failed", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, t Transaction, meta map[string]any) {
	shared.RecordQuietly(ctx, s.audit, s.log(), shared.AuditLog{
		TenantID: t.TenantID,
		Actor:    actor,
		Action:   action,
		Entity:   AuditEntity,
		EntityID: strconv.FormatInt(t.ID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}

func (s *Service) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger.With(slog.String("component", "intercompany"))
	}
	return slog.Default().With(slog.String("component", "intercompany"))
}
