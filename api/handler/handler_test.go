package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/api/middleware"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/store"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeChecker struct {
	mu     sync.Mutex
	prices map[string]float64
	seen   []string
}

func (f *fakeChecker) ExtractCached(_ context.Context, url string, maxAge int) (models.ExtractionResult, bool) {
	f.mu.Lock()
	f.seen = append(f.seen, url)
	f.mu.Unlock()
	res := models.ExtractionResult{URL: url, Site: "amazon", Currency: "INR", CurrencySymbol: "₹", CheckedAt: time.Now()}
	p, ok := f.prices[url]
	if !ok {
		res.Error = "Could not extract price from amazon. The site may have changed its structure."
		res.ErrorCode = models.ErrCodeExtraction
		return res, false
	}
	res.Price = &p
	res.ProductName = "Boat Rockerz 450"
	return res, maxAge > 0
}

type fakeStore struct {
	alerts []models.Alert
	points []models.PricePoint
	nextID int64
}

func (f *fakeStore) CreateAlert(_ context.Context, a *models.Alert) error {
	f.nextID++
	a.ID = f.nextID
	a.Status = models.AlertActive
	f.alerts = append(f.alerts, *a)
	return nil
}

func (f *fakeStore) ListAlerts(_ context.Context, owner string) ([]models.Alert, error) {
	out := []models.Alert{}
	for _, a := range f.alerts {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteAlert(_ context.Context, owner string, id int64) error {
	for i, a := range f.alerts {
		if a.ID == id && a.Owner == owner {
			f.alerts = append(f.alerts[:i], f.alerts[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) History(_ context.Context, owner string, id int64, _ int) ([]models.PricePoint, error) {
	for _, a := range f.alerts {
		if a.ID == id && a.Owner == owner {
			return f.points, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) RecordPrice(_ context.Context, p models.PricePoint, _ string) error {
	f.points = append(f.points, p)
	return nil
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestPrice(t *testing.T) {
	fc := &fakeChecker{prices: map[string]float64{"https://www.amazon.in/dp/OK": 1299}}
	r := gin.New()
	r.POST("/price", Price(fc, time.Second))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantCache  string
	}{
		{"found", `{"url":"https://www.amazon.in/dp/OK"}`, http.StatusOK, "", ""},
		{"cached", `{"url":"https://www.amazon.in/dp/OK","max_age":60000}`, http.StatusOK, "", "hit"},
		{"no price", `{"url":"https://www.amazon.in/dp/NOPE"}`, http.StatusUnprocessableEntity, models.ErrCodeExtraction, ""},
		{"missing url", `{}`, http.StatusBadRequest, models.ErrCodeInvalidInput, ""},
		{"not a url", `{"url":"amazon"}`, http.StatusBadRequest, models.ErrCodeInvalidInput, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/price", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body)
			}
			resp := decode[models.PriceResponse](t, w)
			if tt.wantCode == "" {
				if !resp.Success || resp.Result == nil || *resp.Result.Price != 1299 {
					t.Errorf("resp = %+v", resp)
				}
				if resp.CacheStatus != tt.wantCache {
					t.Errorf("CacheStatus = %q, want %q", resp.CacheStatus, tt.wantCache)
				}
				return
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("resp = %s", w.Body)
			}
			if tt.wantCode == models.ErrCodeExtraction {
				if resp.Error.Suggestion != models.Suggestion {
					t.Errorf("Suggestion = %q", resp.Error.Suggestion)
				}
				if resp.Result == nil || resp.Result.Price != nil || resp.Result.Currency != "INR" {
					t.Errorf("Result = %+v", resp.Result)
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	r := gin.New()
	r.POST("/classify", Classify())

	w := serve(r, http.MethodPost, "/classify", `{"url":"https://www.flipkart.com/item/p/itm1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[models.ClassifyResponse](t, w)
	if resp.Site != "flipkart" || resp.Currency != "INR" || resp.CurrencySymbol != "₹" || !resp.Supported {
		t.Errorf("resp = %+v", resp)
	}

	w = serve(r, http.MethodPost, "/classify", `{"url":"https://shop.example.org/x"}`)
	if resp := decode[models.ClassifyResponse](t, w); resp.Supported || resp.Site != "unknown" {
		t.Errorf("unknown site resp = %+v", resp)
	}
}

func TestBatch(t *testing.T) {
	fc := &fakeChecker{prices: map[string]float64{
		"https://www.amazon.in/dp/A": 100,
		"https://www.amazon.in/dp/C": 300,
	}}
	r := gin.New()
	r.POST("/batch", Batch(fc, 2, time.Second))

	w := serve(r, http.MethodPost, "/batch",
		`{"urls":["https://www.amazon.in/dp/A","https://www.amazon.in/dp/B","https://www.amazon.in/dp/C"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	resp := decode[models.BatchResponse](t, w)
	if resp.Total != 3 || resp.Succeeded != 2 || resp.Failed != 1 || !resp.Success {
		t.Errorf("resp = %+v", resp)
	}
	wantURLs := []string{"https://www.amazon.in/dp/A", "https://www.amazon.in/dp/B", "https://www.amazon.in/dp/C"}
	for i, res := range resp.Results {
		if res.URL != wantURLs[i] {
			t.Errorf("results[%d].URL = %s, order not kept", i, res.URL)
		}
	}
	if resp.Results[1].Price != nil || resp.Results[1].Error == "" {
		t.Errorf("failed entry = %+v", resp.Results[1])
	}
}

func TestBatchLimit(t *testing.T) {
	r := gin.New()
	r.POST("/batch", Batch(&fakeChecker{}, 2, time.Second))

	urls := make([]string, 21)
	for i := range urls {
		urls[i] = `"https://www.amazon.in/dp/X"`
	}
	w := serve(r, http.MethodPost, "/batch", `{"urls":[`+strings.Join(urls, ",")+`]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for 21 urls", w.Code)
	}
}

func withOwner(owner string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.APIKeyContextKey, owner)
		c.Next()
	}
}

func TestAlerts(t *testing.T) {
	fs := &fakeStore{}
	fc := &fakeChecker{prices: map[string]float64{"https://www.amazon.in/dp/OK": 1299}}

	r := gin.New()
	alice := r.Group("/alice", withOwner("alice"))
	alice.POST("/alerts", CreateAlert(fs, fc, time.Second))
	alice.GET("/alerts", ListAlerts(fs))
	alice.DELETE("/alerts/:id", DeleteAlert(fs))
	alice.GET("/alerts/:id/history", AlertHistory(fs))
	bob := r.Group("/bob", withOwner("bob"))
	bob.DELETE("/alerts/:id", DeleteAlert(fs))

	w := serve(r, http.MethodPost, "/alice/alerts", `{"url":"https://www.amazon.in/dp/OK","target_price":999}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body)
	}
	created := decode[models.AlertResponse](t, w)
	a := created.Alert
	if a == nil || a.ID != 1 || a.Owner != "alice" || a.Site != "amazon" || a.Currency != "INR" {
		t.Fatalf("alert = %+v", a)
	}
	if a.CurrentPrice == nil || *a.CurrentPrice != 1299 || a.ProductName != "Boat Rockerz 450" {
		t.Errorf("initial price not applied: %+v", a)
	}
	if len(fs.points) != 1 || fs.points[0].Currency != "INR" || fs.points[0].Site != "amazon" {
		t.Errorf("initial price not recorded with currency and site: %+v", fs.points)
	}

	w = serve(r, http.MethodPost, "/alice/alerts", `{"url":"https://www.amazon.in/dp/NOPE","target_price":500}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("failed check must still create: %d", w.Code)
	}
	if got := decode[models.AlertResponse](t, w).Alert; got.CurrentPrice != nil {
		t.Errorf("CurrentPrice = %v, want nil", *got.CurrentPrice)
	}

	if w := serve(r, http.MethodPost, "/alice/alerts", `{"url":"https://www.amazon.in/dp/OK","target_price":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("zero target status = %d", w.Code)
	}

	list := decode[models.AlertListResponse](t, serve(r, http.MethodGet, "/alice/alerts", ""))
	if len(list.Alerts) != 2 {
		t.Errorf("list = %+v", list)
	}

	hist := serve(r, http.MethodGet, "/alice/alerts/1/history?limit=10", "")
	if hist.Code != http.StatusOK || len(decode[models.HistoryResponse](t, hist).Points) != 1 {
		t.Errorf("history = %d %s", hist.Code, hist.Body)
	}
	if w := serve(r, http.MethodGet, "/alice/alerts/1/history?limit=0", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/alice/alerts/abc/history", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}

	w = serve(r, http.MethodDelete, "/bob/alerts/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign delete status = %d, want 404", w.Code)
	}
	if resp := decode[models.ErrorResponse](t, w); resp.Error.Code != models.ErrCodeNotFound {
		t.Errorf("error = %+v", resp.Error)
	}
	if w := serve(r, http.MethodDelete, "/alice/alerts/1", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus string
		wantStore  string
	}{
		{"no store", nil, "healthy", "disabled"},
		{"store ok", pinger{}, "healthy", "ok"},
		{"store down", pinger{err: errors.New("down")}, "degraded", "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", Health(tt.db, time.Now().Add(-time.Minute)))
			w := serve(r, http.MethodGet, "/health", "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			resp := decode[models.HealthResponse](t, w)
			if resp.Status != tt.wantStatus || resp.Store != tt.wantStore || resp.Version != Version || resp.Sites != 33 {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestRespondErrorHidesDetail(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		respondError(c, errors.New("pq: password authentication failed for user admin"))
	})
	w := serve(r, http.MethodGet, "/boom", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("raw error leaked: %s", w.Body)
	}
}
