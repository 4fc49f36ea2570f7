package intercompany

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/interco/internal/accounting/journals"
	"github.com/odyssey-erp/interco/internal/accounting/mappings"
	accshared "github.com/odyssey-erp/interco/internal/accounting/shared"
	"github.com/odyssey-erp/interco/internal/documents"
)

// memStore is an in-memory Repository whose WithTx restores a snapshot when
// the callback fails, mirroring a database rollback.
type memStore struct {
	mu           sync.Mutex
	companies    map[int64]Party
	roles        map[int64]map[mappings.Role]int64
	docs         map[documents.Kind]map[int64]int64
	txs          map[int64]Transaction
	entries      map[int64]journals.JournalEntry
	seq          map[string]int64
	nextTx       int64
	nextEntry    int64
	summaryCalls int
}

func newMemStore() *memStore {
	m := &memStore{
		companies: map[int64]Party{
			7: {ID: 7, TenantID: 2, IsActive: true},
			8: {ID: 8, TenantID: 2, IsActive: true},
			9: {ID: 9, TenantID: 3, IsActive: true},
			10: {ID: 10, TenantID: 2, IsActive: true},
			11: {ID: 11, TenantID: 2, IsActive: false},
			12: {ID: 12, TenantID: 3, IsActive: true},
		},
		roles:   map[int64]map[mappings.Role]int64{},
		docs:    map[documents.Kind]map[int64]int64{},
		txs:     map[int64]Transaction{},
		entries: map[int64]journals.JournalEntry{},
		seq:     map[string]int64{},
	}
	for _, company := range []int64{7, 8, 9, 10, 12} {
		m.roles[company] = map[mappings.Role]int64{}
		for _, role := range mappings.Roles {
			m.roles[company][role] = accountID(company, role)
		}
	}
	return m
}

// accountID derives a distinct account id per company and role, e.g. 71150.
func accountID(company int64, role mappings.Role) int64 {
	var code int64
	fmt.Sscan(mappings.ConventionalCodes[role], &code)
	return company*10000 + code
}

func (m *memStore) addDocument(kind documents.Kind, id, company int64) {
	if m.docs[kind] == nil {
		m.docs[kind] = map[int64]int64{}
	}
	m.docs[kind][id] = company
}

// seed stores a transaction directly, bypassing creation.
func (m *memStore) seed(t Transaction) Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTx++
	t.ID = m.nextTx
	if t.Date.IsZero() {
		t.Date = NewDate(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	}
	m.txs[t.ID] = t
	return t
}

func (m *memStore) Get(_ context.Context, id int64) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (m *memStore) List(_ context.Context, filters ListFilters) ([]Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Transaction
	for _, t := range m.sortedLocked() {
		if filters.TenantID != 0 && t.TenantID != filters.TenantID {
			continue
		}
		if filters.CompanyID != 0 && t.SourceCompanyID != filters.CompanyID && t.TargetCompanyID != filters.CompanyID {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		all = append(all, t)
	}
	start := (filters.Page - 1) * filters.Limit
	if start > len(all) {
		start = len(all)
	}
	end := min(start+filters.Limit, len(all))
	return all[start:end], len(all), nil
}

func (m *memStore) Summary(_ context.Context, tenantID int64) ([]StatusTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryCalls++
	totals := map[Status]*StatusTotal{}
	for _, t := range m.txs {
		if t.TenantID != tenantID {
			continue
		}
		if totals[t.Status] == nil {
			totals[t.Status] = &StatusTotal{Status: t.Status}
		}
		totals[t.Status].Count++
		totals[t.Status].Amount = totals[t.Status].Amount.Add(t.Amount)
	}
	out := make([]StatusTotal, 0, len(totals))
	for _, st := range totals {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (m *memStore) PendingForAutoMatch(_ context.Context, limit int) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transaction
	for _, t := range m.sortedLocked() {
		if t.Status == StatusPending {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) sortedLocked() []Transaction {
	out := make([]Transaction, 0, len(m.txs))
	for _, t := range m.txs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs, entries, seq := maps.Clone(m.txs), maps.Clone(m.entries), maps.Clone(m.seq)
	nextTx, nextEntry := m.nextTx, m.nextEntry
	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.txs, m.entries, m.seq = txs, entries, seq
		m.nextTx, m.nextEntry = nextTx, nextEntry
		return err
	}
	return nil
}

func (m *memStore) entry(id int64) journals.JournalEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id]
}

type memTx struct {
	m *memStore
}

func (t *memTx) Companies(_ context.Context, ids ...int64) (map[int64]Party, error) {
	out := map[int64]Party{}
	for _, id := range ids {
		if p, ok := t.m.companies[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memTx) DocumentOwner(_ context.Context, kind documents.Kind, id int64) (int64, error) {
	owner, ok := t.m.docs[kind][id]
	if !ok {
		return 0, documents.ErrNotFound
	}
	return owner, nil
}

func (t *memTx) NextNumber(_ context.Context, tenantID int64, year int) (string, error) {
	scope := fmt.Sprintf("ICT:%d:%d", tenantID, year)
	t.m.seq[scope]++
	return fmt.Sprintf("ICT-%d-%04d", year, t.m.seq[scope]), nil
}

func (t *memTx) ResolveAccount(_ context.Context, companyID int64, role mappings.Role) (int64, error) {
	id, ok := t.m.roles[companyID][role]
	if !ok {
		return 0, fmt.Errorf("%w: company %d role %s", accshared.ErrMappingNotFound, companyID, role)
	}
	return id, nil
}

func (t *memTx) PostJournal(ctx context.Context, in journals.PostingInput) (journals.JournalEntry, error) {
	return journals.PostInTx(ctx, &memJournals{m: t.m}, in)
}

func (t *memTx) ArchiveJournal(ctx context.Context, entryID int64) error {
	_, err := journals.ArchiveInTx(ctx, &memJournals{m: t.m}, entryID)
	return err
}

func (t *memTx) Insert(_ context.Context, tr Transaction) (Transaction, error) {
	t.m.nextTx++
	tr.ID = t.m.nextTx
	tr.CreatedAt = time.Now()
	tr.UpdatedAt = tr.CreatedAt
	t.m.txs[tr.ID] = tr
	return tr, nil
}

func (t *memTx) GetForUpdate(_ context.Context, id int64) (Transaction, error) {
	tr, ok := t.m.txs[id]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return tr, nil
}

func (t *memTx) UpdateStatus(_ context.Context, id int64, status Status, counterpartID *int64) (Transaction, error) {
	tr, ok := t.m.txs[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	tr.Status = status
	tr.CounterpartID = counterpartID
	tr.UpdatedAt = time.Now()
	t.m.txs[id] = tr
	return tr, nil
}

type memJournals struct {
	m *memStore
}

func (j *memJournals) InsertEntry(_ context.Context, in journals.PostingInput, status journals.EntryStatus) (journals.JournalEntry, error) {
	j.m.nextEntry++
	e := journals.JournalEntry{
		ID:           j.m.nextEntry,
		CompanyID:    in.CompanyID,
		Number:       fmt.Sprintf("JE-%d-%04d", in.Date.Year(), j.m.nextEntry),
		EntryDate:    in.Date,
		Amount:       in.Total(),
		Type:         in.Type,
		Status:       status,
		Description:  in.Description,
		SourceModule: in.SourceModule,
		SourceRef:    in.SourceRef,
	}
	for _, line := range in.Lines {
		e.Lines = append(e.Lines, journals.JournalLine{EntryID: e.ID, AccountID: line.AccountID, Debit: line.Debit, Credit: line.Credit, Description: line.Description})
	}
	j.m.entries[e.ID] = e
	return e, nil
}

func (j *memJournals) GetForUpdate(_ context.Context, id int64) (journals.JournalEntry, error) {
	e, ok := j.m.entries[id]
	if !ok {
		return journals.JournalEntry{}, accshared.ErrJournalNotFound
	}
	return e, nil
}

func (j *memJournals) UpdateStatus(_ context.Context, id int64, status journals.EntryStatus) error {
	e := j.m.entries[id]
	e.Status = status
	j.m.entries[id] = e
	return nil
}

func (j *memJournals) ApplyBalances(context.Context, int64, []journals.JournalLine, bool) error {
	return nil
}
