package documents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	docs       []Document
	lastFilter ListFilters
}

func (s *stubStore) Get(_ context.Context, kind Kind, id int64) (Document, error) {
	for _, d := range s.docs {
		if d.Kind == kind && d.ID == id {
			return d, nil
		}
	}
	return Document{}, ErrNotFound
}

func (s *stubStore) List(_ context.Context, kind Kind, filters ListFilters) ([]Document, int, error) {
	s.lastFilter = filters
	var out []Document
	for _, d := range s.docs {
		if d.Kind == kind && d.CompanyID == filters.CompanyID {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func (s *stubStore) SummaryByStatus(_ context.Context, kind Kind, companyID int64) ([]StatusSummary, error) {
	totals := map[string]*StatusSummary{}
	var order []string
	for _, d := range s.docs {
		if d.Kind != kind || d.CompanyID != companyID {
			continue
		}
		if totals[d.Status] == nil {
			totals[d.Status] = &StatusSummary{Status: d.Status}
			order = append(order, d.Status)
		}
		totals[d.Status].Count++
		totals[d.Status].Total = totals[d.Status].Total.Add(d.Total)
	}
	out := make([]StatusSummary, 0, len(order))
	for _, status := range order {
		out = append(out, *totals[status])
	}
	return out, nil
}

func newTestRouter(store Store) http.Handler {
	r := chi.NewRouter()
	r.Route("/documents", NewHandler(nil, NewService(store)).MountRoutes)
	return r
}

func fixtureStore() *stubStore {
	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return &stubStore{docs: []Document{
		{ID: 1, Kind: KindInvoice, CompanyID: 7, Number: "INV-1", Status: "open", Total: decimal.NewFromInt(100), DocumentDate: date},
		{ID: 2, Kind: KindInvoice, CompanyID: 7, Number: "INV-2", Status: "open", Total: decimal.NewFromInt(50), DocumentDate: date},
		{ID: 3, Kind: KindInvoice, CompanyID: 7, Number: "INV-3", Status: "paid", Total: decimal.NewFromInt(25), DocumentDate: date},
		{ID: 4, Kind: KindBill, CompanyID: 8, Number: "BILL-1", Status: "open", Total: decimal.NewFromInt(100), DocumentDate: date},
	}}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("sales_orders")
	require.NoError(t, err)
	assert.Equal(t, KindSalesOrder, kind)

	kind, err = ParseKind("bill")
	require.NoError(t, err)
	assert.Equal(t, KindBill, kind)

	_, err = ParseKind("users; DROP TABLE companies")
	assert.Error(t, err)
}

func TestListDocuments(t *testing.T) {
	store := fixtureStore()
	rec := httptest.NewRecorder()
	newTestRouter(store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/invoices?companyId=7&limit=500", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data       []Document `json:"data"`
		Pagination struct {
			PerPage int `json:"perPage"`
			Total   int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 3)
	assert.Equal(t, 3, body.Pagination.Total)
	assert.Equal(t, 100, body.Pagination.PerPage)
	assert.Equal(t, 100, store.lastFilter.Limit)
}

func TestListDocumentsRequiresCompany(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(fixtureStore()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/invoices", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentSummary(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(fixtureStore()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/invoice/summary?companyId=7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []StatusSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "open", body.Data[0].Status)
	assert.Equal(t, 2, body.Data[0].Count)
	assert.True(t, decimal.NewFromInt(150).Equal(body.Data[0].Total))
}

func TestShowDocument(t *testing.T) {
	router := newTestRouter(fixtureStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/bill/4", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/bill/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/widgets/1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
