package intercompany

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/interco/internal/accounting/journals"
	"github.com/odyssey-erp/interco/internal/accounting/mappings"
	accshared "github.com/odyssey-erp/interco/internal/accounting/shared"
	"github.com/odyssey-erp/interco/internal/documents"
	"github.com/odyssey-erp/interco/internal/platform/cache"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
	"github.com/odyssey-erp/interco/internal/shared"
)

type stubAudit struct {
	logs []shared.AuditLog
}

func (s *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type countingRecorder struct {
	created     map[string]int
	transitions map[string]int
	matches     int
	autoMatches int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{created: map[string]int{}, transitions: map[string]int{}}
}

func (c *countingRecorder) TransactionCreated(txType string) { c.created[txType]++ }
func (c *countingRecorder) StatusChanged(from, to string)   { c.transitions[from+"->"+to]++ }
func (c *countingRecorder) Matched(auto bool) {
	if auto {
		c.autoMatches++
		return
	}
	c.matches++
}

func scenarioInput() CreateInput {
	return CreateInput{
		SourceCompanyID:      7,
		TargetCompanyID:      8,
		TenantID:             2,
		Type:                 TypeSalesOrder,
		Date:                 NewDate(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		Amount:               decimal.NewFromInt(7200),
		CreateJournalEntries: true,
	}
}

func newTestService(store *memStore, cfg Config) *Service {
	return NewService(store, nil, cfg)
}

func TestCreatePostsMirroredBalancedEntries(t *testing.T) {
	store := newMemStore()
	audit := &stubAudit{}
	metrics := newCountingRecorder()
	svc := newTestService(store, Config{Audit: audit, Metrics: metrics})

	created, err := svc.Create(context.Background(), scenarioInput(), "tester")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, "ICT-2025-0001", created.Number)
	require.NotNil(t, created.SourceJournalEntryID)
	require.NotNil(t, created.TargetJournalEntryID)

	source := store.entry(*created.SourceJournalEntryID)
	target := store.entry(*created.TargetJournalEntryID)
	for _, entry := range []journals.JournalEntry{source, target} {
		debit, credit := journals.Totals(entry.Lines)
		assert.True(t, debit.Equal(credit), "entry %s must balance", entry.Number)
		assert.Len(t, entry.Lines, 2)
		assert.Equal(t, journals.EntryTypeSystemGenerated, entry.Type)
		assert.Equal(t, journals.EntryStatusPosted, entry.Status)
		require.NotNil(t, entry.SourceRef)
		assert.Equal(t, created.Ref, *entry.SourceRef)
	}

	assert.Equal(t, int64(7), source.CompanyID)
	assert.Equal(t, accountID(7, mappings.RoleICReceivable), source.Lines[0].AccountID)
	assert.True(t, decimal.NewFromInt(7200).Equal(source.Lines[0].Debit))
	assert.Equal(t, accountID(7, mappings.RoleRevenue), source.Lines[1].AccountID)
	assert.True(t, decimal.NewFromInt(7200).Equal(source.Lines[1].Credit))

	assert.Equal(t, int64(8), target.CompanyID)
	assert.Equal(t, accountID(8, mappings.RoleExpense), target.Lines[0].AccountID)
	assert.True(t, decimal.NewFromInt(7200).Equal(target.Lines[0].Debit))
	assert.Equal(t, accountID(8, mappings.RoleICPayable), target.Lines[1].AccountID)
	assert.True(t, decimal.NewFromInt(7200).Equal(target.Lines[1].Credit))

	assert.Equal(t, 1, metrics.created["sales_order"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "intercompany.create", audit.logs[0].Action)
	assert.Equal(t, int64(2), audit.logs[0].TenantID)

	second, err := svc.Create(context.Background(), scenarioInput(), "tester")
	require.NoError(t, err)
	assert.Equal(t, "ICT-2025-0002", second.Number)
}

func TestCreateThenGetRoundTrips(t *testing.T) {
	svc := newTestService(newMemStore(), Config{})
	for _, amount := range []string{"0.01", "19.99", "7200", "1234567.89"} {
		in := scenarioInput()
		in.Amount = decimal.RequireFromString(amount)
		in.Date = NewDate(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))

		created, err := svc.Create(context.Background(), in, "tester")
		require.NoError(t, err)
		fetched, err := svc.Get(context.Background(), created.ID)
		require.NoError(t, err)

		assert.True(t, in.Amount.Equal(fetched.Amount), amount)
		assert.Equal(t, "2024-02-29", fetched.Date.String())
		assert.Equal(t, StatusPending, fetched.Status)
	}
}

func TestCreateRejectsCompaniesOutsideTenant(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Config{})

	cases := map[string]func(*CreateInput){
		"foreign source":   func(in *CreateInput) { in.SourceCompanyID = 9 },
		"foreign target":   func(in *CreateInput) { in.TargetCompanyID = 9 },
		"missing company":  func(in *CreateInput) { in.TargetCompanyID = 404 },
		"inactive company": func(in *CreateInput) { in.TargetCompanyID = 11 },
		"wrong tenant":     func(in *CreateInput) { in.TenantID = 3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := scenarioInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), in, "tester")
			require.ErrorIs(t, err, ErrCompanyTenant)
			assert.ErrorIs(t, err, httpx.ErrValidation)
			assert.Contains(t, err.Error(), "must exist and belong to the specified tenant")
		})
	}
	assert.Empty(t, store.txs)
	assert.Empty(t, store.entries)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Config{})
	cases := map[string]func(*CreateInput){
		"zero amount":      func(in *CreateInput) { in.Amount = decimal.Zero },
		"negative amount":  func(in *CreateInput) { in.Amount = decimal.NewFromInt(-5) },
		"sub-cent amount":  func(in *CreateInput) { in.Amount = decimal.RequireFromString("0.004") },
		"three decimals":   func(in *CreateInput) { in.Amount = decimal.RequireFromString("10.005") },
		"amount too large": func(in *CreateInput) { in.Amount = decimal.New(1, 17) },
		"same company":     func(in *CreateInput) { in.TargetCompanyID = in.SourceCompanyID },
		"unknown type":     func(in *CreateInput) { in.Type = "barter" },
		"missing date":     func(in *CreateInput) { in.Date = Date{} },
		"transfer document": func(in *CreateInput) {
			in.Type = TypeTransfer
			id := int64(1)
			in.SourceDocumentID = &id
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := scenarioInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), in, "tester")
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
	assert.Empty(t, store.txs)
}

func TestCreateRollsBackWhenMappingMissing(t *testing.T) {
	store := newMemStore()
	delete(store.roles[8], mappings.RoleICPayable)
	svc := newTestService(store, Config{})

	_, err := svc.Create(context.Background(), scenarioInput(), "tester")
	require.ErrorIs(t, err, accshared.ErrMappingNotFound)
	assert.Empty(t, store.txs)
	assert.Empty(t, store.entries, "source entry must roll back with the failed target entry")
	assert.Empty(t, store.seq)
}

func TestCreateWithoutJournalEntries(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Config{})
	in := scenarioInput()
	in.CreateJournalEntries = false

	created, err := svc.Create(context.Background(), in, "tester")
	require.NoError(t, err)
	assert.Nil(t, created.SourceJournalEntryID)
	assert.Nil(t, created.TargetJournalEntryID)
	assert.Empty(t, store.entries)
}

func TestCreateChecksDocumentOwnership(t *testing.T) {
	store := newMemStore()
	store.addDocument(documents.KindSalesOrder, 100, 7)
	store.addDocument(documents.KindPurchaseOrder, 200, 8)
	store.addDocument(documents.KindPurchaseOrder, 201, 10)
	svc := newTestService(store, Config{})

	in := scenarioInput()
	src, tgt := int64(100), int64(200)
	in.SourceDocumentID, in.TargetDocumentID = &src, &tgt
	created, err := svc.Create(context.Background(), in, "tester")
	require.NoError(t, err)
	assert.Equal(t, &src, created.SourceDocumentID)

	foreign := int64(201)
	in.TargetDocumentID = &foreign
	_, err = svc.Create(context.Background(), in, "tester")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	missing := int64(999)
	in.TargetDocumentID = &missing
	_, err = svc.Create(context.Background(), in, "tester")
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	invoiceAsOrder := int64(100)
	in.Type = TypeInvoice
	in.SourceDocumentID, in.TargetDocumentID = &invoiceAsOrder, nil
	_, err = svc.Create(context.Background(), in, "tester")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSetStatusTransitionGrid(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPending:    {StatusPending: true, StatusMatched: true, StatusCancelled: true},
		StatusMatched:    {StatusMatched: true, StatusReconciled: true, StatusCancelled: true},
		StatusReconciled: {StatusReconciled: true},
		StatusCancelled:  {StatusCancelled: true},
	}
	all := []Status{StatusPending, StatusMatched, StatusReconciled, StatusCancelled}
	for _, from := range all {
		for _, to := range all {
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				store := newMemStore()
				svc := newTestService(store, Config{})
				seeded := store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Type: TypeInvoice, Amount: decimal.NewFromInt(1), Status: from})

				updated, err := svc.SetStatus(context.Background(), seeded.ID, to, "tester")
				assert.Equal(t, allowed[from][to], CanTransition(from, to))
				if allowed[from][to] {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					return
				}
				require.ErrorIs(t, err, httpx.ErrValidation)
				assert.Equal(t, http.StatusBadRequest, httpx.StatusOf(err))
				assert.Contains(t, err.Error(), fmt.Sprintf("illegal status transition from %s to %s", from, to))
				stored, _ := store.Get(context.Background(), seeded.ID)
				assert.Equal(t, from, stored.Status)
			})
		}
	}
}

func TestSetStatusUnknownAndMissing(t *testing.T) {
	svc := newTestService(newMemStore(), Config{})
	_, err := svc.SetStatus(context.Background(), 1, "draft", "tester")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.SetStatus(context.Background(), 404, StatusMatched, "tester")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSetStatusNoopSkipsSideEffects(t *testing.T) {
	store := newMemStore()
	audit := &stubAudit{}
	metrics := newCountingRecorder()
	svc := newTestService(store, Config{Audit: audit, Metrics: metrics})
	seeded := store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Amount: decimal.NewFromInt(1), Status: StatusPending})

	_, err := svc.SetStatus(context.Background(), seeded.ID, StatusPending, "tester")
	require.NoError(t, err)
	assert.Empty(t, audit.logs)
	assert.Empty(t, metrics.transitions)

	_, err = svc.SetStatus(context.Background(), seeded.ID, StatusMatched, "tester")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.transitions["pending->matched"])
}

func TestCancelArchivesJournalEntries(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Config{})
	created, err := svc.Create(context.Background(), scenarioInput(), "tester")
	require.NoError(t, err)

	cancelled, err := svc.SetStatus(context.Background(), created.ID, StatusCancelled, "tester")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, journals.EntryStatusArchived, store.entry(*created.SourceJournalEntryID).Status)
	assert.Equal(t, journals.EntryStatusArchived, store.entry(*created.TargetJournalEntryID).Status)
}

func TestMatchPairsMirrorTransactions(t *testing.T) {
	store := newMemStore()
	metrics := newCountingRecorder()
	svc := newTestService(store, Config{Metrics: metrics})
	a := store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Amount: decimal.NewFromInt(100), Status: StatusPending})
	b := store.seed(Transaction{SourceCompanyID: 8, TargetCompanyID: 7, TenantID: 2, Amount: decimal.NewFromInt(100), Status: StatusPending})

	result, err := svc.Match(context.Background(), b.ID, a.ID, "tester")
	require.NoError(t, err)
	assert.Equal(t, b.ID, result.Source.ID)
	assert.Equal(t, StatusMatched, result.Source.Status)
	assert.Equal(t, StatusMatched, result.Target.Status)
	require.NotNil(t, result.Source.CounterpartID)
	require.NotNil(t, result.Target.CounterpartID)
	assert.Equal(t, a.ID, *result.Source.CounterpartID)
	assert.Equal(t, b.ID, *result.Target.CounterpartID)
	assert.Equal(t, 1, metrics.matches)
}

func TestMatchRejections(t *testing.T) {
	pending := func(source, target, tenant int64) Transaction {
		return Transaction{SourceCompanyID: source, TargetCompanyID: target, TenantID: tenant, Amount: decimal.NewFromInt(100), Status: StatusPending}
	}
	withStatus := func(tr Transaction, s Status) Transaction {
		tr.Status = s
		return tr
	}
	cases := []struct {
		name    string
		a, b    Transaction
		want    error
		message string
	}{
		{"not mirror", pending(7, 8, 2), pending(7, 10, 2), ErrNotMirror, "mirror"},
		{"same direction", pending(7, 8, 2), pending(7, 8, 2), ErrNotMirror, "mirror"},
		{"already matched", withStatus(pending(7, 8, 2), StatusMatched), withStatus(pending(8, 7, 2), StatusMatched), ErrAlreadyMatched, "already matched or reconciled"},
		{"reconciled", pending(7, 8, 2), withStatus(pending(8, 7, 2), StatusReconciled), ErrAlreadyMatched, "already matched or reconciled"},
		{"cancelled", withStatus(pending(7, 8, 2), StatusCancelled), pending(8, 7, 2), httpx.ErrValidation, "is cancelled"},
		{"cross tenant", pending(7, 8, 2), pending(8, 7, 3), ErrTenantMismatch, "different tenants"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			svc := newTestService(store, Config{})
			a, b := store.seed(tc.a), store.seed(tc.b)

			_, err := svc.Match(context.Background(), a.ID, b.ID, "tester")
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, http.StatusBadRequest, httpx.StatusOf(err))
			assert.Contains(t, err.Error(), tc.message)

			storedA, _ := store.Get(context.Background(), a.ID)
			assert.Equal(t, tc.a.Status, storedA.Status)
			assert.Nil(t, storedA.CounterpartID)
		})
	}
}

func TestMatchMissingOrSelf(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Config{})
	a := store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Amount: decimal.NewFromInt(1), Status: StatusPending})

	_, err := svc.Match(context.Background(), a.ID, 404, "tester")
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.Match(context.Background(), a.ID, a.ID, "tester")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestMatchAmountPolicy(t *testing.T) {
	for _, policy := range []AmountPolicy{AmountPolicyAllowMismatch, AmountPolicyRequireEqual} {
		t.Run(string(policy), func(t *testing.T) {
			store := newMemStore()
			svc := newTestService(store, Config{AmountPolicy: policy})
			a := store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Amount: decimal.NewFromInt(100), Status: StatusPending})
			b := store.seed(Transaction{SourceCompanyID: 8, TargetCompanyID: 7, TenantID: 2, Amount: decimal.NewFromInt(90), Status: StatusPending})

			_, err := svc.Match(context.Background(), a.ID, b.ID, "tester")
			if policy == AmountPolicyRequireEqual {
				assert.ErrorIs(t, err, ErrAmountMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAutoMatchPairsOldestMirrors(t *testing.T) {
	store := newMemStore()
	metrics := newCountingRecorder()
	svc := newTestService(store, Config{Metrics: metrics})
	day := func(d int) Date { return NewDate(time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC)) }

	a := store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Type: TypeInvoice, Amount: decimal.NewFromInt(100), Status: StatusPending, Date: day(1)})
	b := store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Type: TypeInvoice, Amount: decimal.NewFromInt(100), Status: StatusPending, Date: day(2)})
	c := store.seed(Transaction{SourceCompanyID: 8, TargetCompanyID: 7, TenantID: 2, Type: TypeInvoice, Amount: decimal.NewFromInt(100), Status: StatusPending, Date: day(3)})
	d := store.seed(Transaction{SourceCompanyID: 8, TargetCompanyID: 7, TenantID: 2, Type: TypeInvoice, Amount: decimal.NewFromInt(90), Status: StatusPending, Date: day(4)})
	e := store.seed(Transaction{SourceCompanyID: 8, TargetCompanyID: 7, TenantID: 2, Type: TypePayment, Amount: decimal.NewFromInt(100), Status: StatusPending, Date: day(5)})

	result, err := svc.AutoMatch(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, AutoMatchResult{Considered: 5, Matched: 1}, result)
	assert.Equal(t, 1, metrics.autoMatches)

	status := func(id int64) Status {
		tr, _ := store.Get(context.Background(), id)
		return tr.Status
	}
	assert.Equal(t, StatusMatched, status(a.ID))
	assert.Equal(t, StatusPending, status(b.ID))
	assert.Equal(t, StatusMatched, status(c.ID))
	assert.Equal(t, StatusPending, status(d.ID))
	assert.Equal(t, StatusPending, status(e.ID))
}

func TestSummaryCachedUntilMutation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemStore()
	svc := newTestService(store, Config{Cache: cache.NewVersioned(client, "ic:summary", time.Minute)})
	ctx := context.Background()

	_, err := svc.Create(ctx, scenarioInput(), "tester")
	require.NoError(t, err)

	first, err := svc.Summary(ctx, 2)
	require.NoError(t, err)
	require.Len(t, first.ByStatus, 1)
	assert.Equal(t, StatusPending, first.ByStatus[0].Status)
	assert.True(t, decimal.NewFromInt(7200).Equal(first.ByStatus[0].Amount))

	_, err = svc.Summary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, store.summaryCalls)

	_, err = svc.Create(ctx, scenarioInput(), "tester")
	require.NoError(t, err)
	refreshed, err := svc.Summary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, store.summaryCalls)
	assert.Equal(t, 2, refreshed.ByStatus[0].Count)
}

// dropAfterKey closes the Redis server once the versioned key is built.
type dropAfterKey struct {
	*cache.Versioned
	server *miniredis.Miniredis
}

func (d dropAfterKey) BuildKey(ctx context.Context, parts ...string) (string, error) {
	key, err := d.Versioned.BuildKey(ctx, parts...)
	d.server.Close()
	return key, err
}

func TestSummaryFallsBackWhenRedisDropsMidRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemStore()
	store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Amount: decimal.NewFromInt(40), Status: StatusPending})
	svc := newTestService(store, Config{Cache: dropAfterKey{
		Versioned: cache.NewVersioned(client, "ic:summary", time.Minute),
		server:    mr,
	}})

	summary, err := svc.Summary(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, summary.ByStatus, 1)
	assert.Equal(t, 1, summary.ByStatus[0].Count)
	assert.Equal(t, 1, store.summaryCalls)
}

// failingWrite loads through the loader then fails to store the result.
type failingWrite struct{}

func (failingWrite) BuildKey(_ context.Context, parts ...string) (string, error) {
	return "ic:summary:v1:" + fmt.Sprint(parts), nil
}

func (failingWrite) FetchJSON(ctx context.Context, _ string, _ any, loader func(context.Context) (any, error)) error {
	if _, err := loader(ctx); err != nil {
		return err
	}
	return errors.New("redis: connection reset")
}

func (failingWrite) Bump(context.Context) error { return nil }

func TestSummaryKeepsLoadedRowsWhenCacheWriteFails(t *testing.T) {
	store := newMemStore()
	store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Amount: decimal.NewFromInt(40), Status: StatusMatched})
	svc := newTestService(store, Config{Cache: failingWrite{}})

	summary, err := svc.Summary(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, summary.ByStatus, 1)
	assert.Equal(t, StatusMatched, summary.ByStatus[0].Status)
	assert.Equal(t, 1, store.summaryCalls)
}

// failingSummary makes the database side of a summary fail.
type failingSummary struct {
	*memStore
}

func (failingSummary) Summary(context.Context, int64) ([]StatusTotal, error) {
	return nil, errors.New("db down")
}

func TestSummaryReturnsDatabaseErrorsThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(failingSummary{newMemStore()}, nil, Config{Cache: cache.NewVersioned(client, "ic:summary", time.Minute)})
	_, err := svc.Summary(context.Background(), 2)
	assert.EqualError(t, err, "db down")
}

// blockingSummary holds the database load open until released.
type blockingSummary struct {
	*memStore
	started chan struct{}
	release chan struct{}
	loadErr chan error
}

func (b blockingSummary) Summary(ctx context.Context, tenantID int64) ([]StatusTotal, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		b.loadErr <- nil
		return b.memStore.Summary(ctx, tenantID)
	case <-ctx.Done():
		b.loadErr <- ctx.Err()
		return nil, ctx.Err()
	}
}

func TestSummarySharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	repo := blockingSummary{
		memStore: newMemStore(),
		started:  make(chan struct{}, 4),
		release:  make(chan struct{}),
		loadErr:  make(chan error, 4),
	}
	repo.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Amount: decimal.NewFromInt(40), Status: StatusPending})
	svc := NewService(repo, nil, Config{})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Summary(firstCtx, 2)
		firstErr <- err
	}()
	<-repo.started

	type outcome struct {
		summary Summary
		err     error
	}
	second := make(chan outcome, 1)
	go func() {
		summary, err := svc.Summary(context.Background(), 2)
		second <- outcome{summary, err}
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(repo.release)

	got := <-second
	require.NoError(t, got.err)
	require.Len(t, got.summary.ByStatus, 1)
	assert.NoError(t, <-repo.loadErr, "shared load must not see the first caller's cancellation")
}

func TestSummaryWithoutCache(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Config{})
	_, err := svc.Summary(context.Background(), 0)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	summary, err := svc.Summary(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TenantID)
	assert.Empty(t, summary.ByStatus)
}

func TestListNormalisesPaging(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Config{})
	for i := 0; i < 3; i++ {
		store.seed(Transaction{SourceCompanyID: 7, TargetCompanyID: 8, TenantID: 2, Amount: decimal.NewFromInt(1), Status: StatusPending})
	}
	store.seed(Transaction{SourceCompanyID: 9, TargetCompanyID: 10, TenantID: 3, Amount: decimal.NewFromInt(1), Status: StatusPending})

	page, err := svc.List(context.Background(), ListFilters{TenantID: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, shared.Pagination{Page: 1, PerPage: 2, Total: 3, TotalPages: 2}, page.Pagination)

	page, err = svc.List(context.Background(), ListFilters{CompanyID: 10, Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, shared.MaxPerPage, page.Pagination.PerPage)

	_, err = svc.List(context.Background(), ListFilters{Status: "draft"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestParseAmountPolicy(t *testing.T) {
	policy, err := ParseAmountPolicy("")
	require.NoError(t, err)
	assert.Equal(t, AmountPolicyAllowMismatch, policy)

	policy, err = ParseAmountPolicy("REQUIRE_EQUAL")
	require.NoError(t, err)
	assert.Equal(t, AmountPolicyRequireEqual, policy)

	_, err = ParseAmountPolicy("partial")
	assert.Error(t, err)
}
