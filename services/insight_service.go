// services/insight_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	insightBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	insightModel    = "gemini-2.0-flash"
	insightCooldown = 60 * time.Second
	insightTimeout  = 15 * time.Second
)

// Fallback texts returned when the collaborator is unavailable. Insight
// failures never propagate; they degrade to one of these.
const (
	MsgNoAPIKey    = "AI insights are waiting for an API key."
	MsgNoSales     = "Record some sales to unlock AI analysis."
	MsgQuotaHit    = "AI quota reached, resting for a minute."
	MsgUnavailable = "Note: AI insights are temporarily offline."
)

// InsightContext is the input tuple the commentary is generated from.
// Responses are cached by this value, so identical ledger states never
// trigger a second call.
type InsightContext struct {
	SaleCount        int    `json:"saleCount"`
	TotalSaleValue   string `json:"totalSaleValue"`
	CustomerCount    int    `json:"customerCount"`
	OpenInstallments int    `json:"openInstallments"`
}

// InsightService asks a text-generation collaborator for a short commentary
// on the store's financial health. Read-only, advisory, never blocks a ledger
// mutation: every call carries its own deadline, errors fall back to static
// text, and a 429 enters a timed cooldown during which calls short-circuit.
type InsightService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger

	mu            sync.Mutex
	cache         map[InsightContext]string
	cooldownUntil time.Time
}

func NewInsightService(log *zap.Logger) *InsightService {
	return &InsightService{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: insightBaseURL,
		client:  &http.Client{Timeout: insightTimeout},
		log:     log,
		cache:   make(map[InsightContext]string),
	}
}

// FinancialInsights returns a short advisory string for the given ledger
// snapshot. Safe to call from any handler; it never returns an error.
func (s *InsightService) FinancialInsights(ctx context.Context, ic InsightContext) string {
	if s.apiKey == "" {
		return MsgNoAPIKey
	}
	if ic.SaleCount == 0 {
		return MsgNoSales
	}

	s.mu.Lock()
	if cached, ok := s.cache[ic]; ok {
		s.mu.Unlock()
		return cached
	}
	if time.Now().Before(s.cooldownUntil) {
		left := time.Until(s.cooldownUntil).Round(time.Second)
		s.mu.Unlock()
		return fmt.Sprintf("AI is resting. Try again in %s.", left)
	}
	s.mu.Unlock()

	text, status, err := s.generate(ctx, ic)
	if err != nil {
		s.log.Warn("insight generation failed", zap.Error(err))
		if status == http.StatusTooManyRequests {
			s.mu.Lock()
			s.cooldownUntil = time.Now().Add(insightCooldown)
			s.mu.Unlock()
			return MsgQuotaHit
		}
		return MsgUnavailable
	}

	s.mu.Lock()
	s.cache[ic] = text
	s.mu.Unlock()
	return text
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (s *InsightService) generate(ctx context.Context, ic InsightContext) (string, int, error) {
	prompt := fmt.Sprintf(
		"Briefly analyze (max 300 characters): a clothing store with %d sales (total %s), %d customers and %d open installments. Focus on financial health.",
		ic.SaleCount, ic.TotalSaleValue, ic.CustomerCount, ic.OpenInstallments,
	)

	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.5,
			MaxOutputTokens: 200,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, insightTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, insightModel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("insight API returned status %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", resp.StatusCode, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", resp.StatusCode, fmt.Errorf("insight API returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, resp.StatusCode, nil
}
