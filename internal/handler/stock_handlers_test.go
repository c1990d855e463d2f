package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"stockboard/internal/auth"
	"stockboard/internal/handler"
	"stockboard/internal/model"
	"stockboard/internal/repository"
	"stockboard/internal/router"
	"stockboard/internal/service"
)

const (
	testToken = "test-session-token"

	csvHeader = "Date,series,OPEN,HIGH,LOW,PREV. CLOSE,ltp,close,vwap,52W H,52W L,VOLUME,VALUE,No of trades"
)

func csvRow(date, open, close, prevClose, volume string) string {
	return strings.Join([]string{
		date, "EQ", open, "110.00", "99.00", prevClose,
		"105.00", close, "103.00", "120.00", "80.00", volume, "1234567", "100",
	}, ",")
}

type memoryRepo struct {
	stocks map[string]model.Stock
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: make(map[string]model.Stock)}
}

func (r *memoryRepo) Upsert(_ context.Context, stock *model.Stock) (*model.Stock, error) {
	r.stocks[stock.Symbol] = *stock
	stored := r.stocks[stock.Symbol]
	return &stored, nil
}

func (r *memoryRepo) List(context.Context) ([]model.Stock, error) {
	out := make([]model.Stock, 0, len(r.stocks))
	for _, st := range r.stocks {
		out = append(out, st)
	}
	return out, nil
}

func (r *memoryRepo) FindBySymbol(_ context.Context, symbol string) (*model.Stock, error) {
	st, ok := r.stocks[symbol]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func newTestRouter(t *testing.T, repo repository.StockRepository, limiter *rate.Limiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := service.NewStockService(repo, logger, t.TempDir(), 30*time.Second, nil)
	h := handler.NewStockHandler(svc, logger, false)

	return router.NewRouter(&router.Config{
		StockHandler:  h,
		Auth:          auth.Middleware(&auth.StaticValidator{Token: testToken}),
		UploadLimiter: limiter,
	})
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, engine *gin.Engine, filename, content, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/stocks/upload", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set(auth.HeaderName, token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestUploadEndToEnd(t *testing.T) {
	repo := newMemoryRepo()
	engine := newTestRouter(t, repo, nil)

	content := strings.Join([]string{
		csvHeader,
		csvRow("01-Jan-2024", "100.00", "104.50", "98.00", "500"),
		csvRow("02-Jan-2024", "104.50", "106.00", "104.50", `"1,000"`),
		csvRow("03-Jan-2024", "106.00", "103.00", "106.00", "750"),
	}, "\n")

	w := doUpload(t, engine, "daily.csv", content, testToken)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Msg     string        `json:"msg"`
		Count   int           `json:"count"`
		Details []model.Stock `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Msg != "Stock data uploaded successfully" {
		t.Errorf("msg = %q", resp.Msg)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
	if len(resp.Details) != 1 {
		t.Fatalf("details length = %d, want 1", len(resp.Details))
	}
	if len(resp.Details[0].Prices) != 3 {
		t.Errorf("prices length = %d, want 3", len(resp.Details[0].Prices))
	}
	if resp.Details[0].Prices[1].Volume != 1000 {
		t.Errorf("second point volume = %d, want 1000", resp.Details[0].Prices[1].Volume)
	}
}

func TestUploadNoFile(t *testing.T) {
	engine := newTestRouter(t, newMemoryRepo(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/stocks/upload", nil)
	req.Header.Set(auth.HeaderName, testToken)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No file uploaded") {
		t.Errorf("body = %s, want no-file message", w.Body.String())
	}
}

func TestUploadRejectsPDF(t *testing.T) {
	repo := newMemoryRepo()
	engine := newTestRouter(t, repo, nil)

	w := doUpload(t, engine, "report.pdf", "%PDF-1.4", testToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "unsupported_file_type") {
		t.Errorf("body = %s, want unsupported_file_type code", w.Body.String())
	}
	if len(repo.stocks) != 0 {
		t.Errorf("store has %d entities, want 0", len(repo.stocks))
	}
}

func TestUploadMalformedRowReturns500(t *testing.T) {
	repo := newMemoryRepo()
	engine := newTestRouter(t, repo, nil)

	content := strings.Join([]string{
		csvHeader,
		csvRow("01-Jan-2024", "100.00", "104.50", "98.00", "500"),
		"short,row",
	}, "\n")

	w := doUpload(t, engine, "daily.csv", content, testToken)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500; body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "malformed_row") {
		t.Errorf("body = %s, want malformed_row code", w.Body.String())
	}
	if len(repo.stocks) != 0 {
		t.Errorf("store has %d entities after failed upload, want 0", len(repo.stocks))
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	engine := newTestRouter(t, newMemoryRepo(), nil)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "not-the-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doUpload(t, engine, "daily.csv", csvHeader, tt.token)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestUploadRateLimited(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Minute), 1)
	engine := newTestRouter(t, newMemoryRepo(), limiter)

	content := csvHeader + "\n" + csvRow("01-Jan-2024", "100.00", "104.50", "98.00", "500")

	if w := doUpload(t, engine, "daily.csv", content, testToken); w.Code != http.StatusOK {
		t.Fatalf("first upload status = %d, want 200", w.Code)
	}
	if w := doUpload(t, engine, "daily.csv", content, testToken); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload status = %d, want 429", w.Code)
	}
}

func TestListStocks(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks["EQ"] = model.Stock{Symbol: "EQ", Name: "Equity Stock"}
	engine := newTestRouter(t, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stocks", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var stocks []model.Stock
	if err := json.Unmarshal(w.Body.Bytes(), &stocks); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(stocks) != 1 || stocks[0].Symbol != "EQ" {
		t.Errorf("stocks = %+v, want one EQ entry", stocks)
	}
}

func TestGetStockBySymbol(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks["EQ"] = model.Stock{Symbol: "EQ", Name: "Equity Stock"}
	engine := newTestRouter(t, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stocks/EQ", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stocks/MISSING", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	engine := newTestRouter(t, newMemoryRepo(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
