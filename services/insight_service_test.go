package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func insightServer(t *testing.T, status int, text string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("x-goog-api-key"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{
				{Content: geminiContent{Parts: []geminiPart{{Text: text}}}},
			},
		})
	}))
}

func testInsightService(apiKey, baseURL string) *InsightService {
	return &InsightService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Second},
		log:     zap.NewNop(),
		cache:   make(map[InsightContext]string),
	}
}

func TestFinancialInsightsFallbacks(t *testing.T) {
	ctx := context.Background()

	s := testInsightService("", "http://unreachable.invalid")
	assert.Equal(t, MsgNoAPIKey, s.FinancialInsights(ctx, InsightContext{SaleCount: 5}))

	s = testInsightService("key", "http://unreachable.invalid")
	assert.Equal(t, MsgNoSales, s.FinancialInsights(ctx, InsightContext{SaleCount: 0}))

	// A dead endpoint degrades to the offline notice, never an error.
	ic := InsightContext{SaleCount: 3, TotalSaleValue: "450.00", CustomerCount: 2}
	assert.Equal(t, MsgUnavailable, s.FinancialInsights(ctx, ic))
}

func TestFinancialInsightsCachesByContext(t *testing.T) {
	var calls atomic.Int32
	srv := insightServer(t, http.StatusOK, "Healthy store.", &calls)
	defer srv.Close()

	s := testInsightService("key", srv.URL)
	ic := InsightContext{SaleCount: 10, TotalSaleValue: "1200.00", CustomerCount: 4, OpenInstallments: 6}

	assert.Equal(t, "Healthy store.", s.FinancialInsights(context.Background(), ic))
	assert.Equal(t, "Healthy store.", s.FinancialInsights(context.Background(), ic))
	assert.Equal(t, int32(1), calls.Load(), "identical ledger state must not trigger a second call")

	// A different snapshot misses the cache.
	ic.SaleCount = 11
	assert.Equal(t, "Healthy store.", s.FinancialInsights(context.Background(), ic))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFinancialInsightsQuotaCooldown(t *testing.T) {
	var calls atomic.Int32
	srv := insightServer(t, http.StatusTooManyRequests, "", &calls)
	defer srv.Close()

	s := testInsightService("key", srv.URL)
	ic := InsightContext{SaleCount: 7, TotalSaleValue: "900.00"}

	assert.Equal(t, MsgQuotaHit, s.FinancialInsights(context.Background(), ic))
	assert.Equal(t, int32(1), calls.Load())

	// While cooling down, calls short-circuit without touching the API.
	got := s.FinancialInsights(context.Background(), ic)
	assert.Contains(t, got, "AI is resting")
	assert.Equal(t, int32(1), calls.Load())

	// Once the cooldown lapses, calls flow again.
	s.mu.Lock()
	s.cooldownUntil = time.Now().Add(-time.Second)
	s.mu.Unlock()
	assert.Equal(t, MsgQuotaHit, s.FinancialInsights(context.Background(), ic))
	assert.Equal(t, int32(2), calls.Load())
}
