package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/one-spear/internal/features"
	"github.com/yourusername/one-spear/internal/logger"
	"github.com/yourusername/one-spear/internal/models"
)

// ScoreRequest is the batch payload sent to a remote scorer
type ScoreRequest struct {
	RaceID       string      `json:"race_id"`
	RaceDate     string      `json:"race_date"`
	FeatureNames []string    `json:"feature_names"`
	HorseNumbers []int       `json:"horse_numbers"`
	Rows         [][]float64 `json:"rows"`
}

// ScoreResponse is the remote scorer's reply
type ScoreResponse struct {
	Scores       []float64 `json:"scores"`
	ModelVersion string    `json:"model_version"`
}

// HTTPModel delegates scoring to a model server over HTTP
type HTTPModel struct {
	client  *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	label   string
	logger  *logger.ScoringLogger
}

// NewHTTPModel creates a remote model client
func NewHTTPModel(baseURL, apiKey, label string, cfg HTTPClientConfig, log *logrus.Logger) *HTTPModel {
	if log == nil {
		log = logrus.New()
	}
	if label == "" {
		label = "http"
	}
	return &HTTPModel{
		client:  NewRateLimitedHTTPClient(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		label:   label,
		logger:  logger.NewScoringLogger(log),
	}
}

// Name implements Model
func (m *HTTPModel) Name() string { return m.label }

// Score implements Model
func (m *HTTPModel) Score(ctx context.Context, race *models.Race, vectors []features.Vector) ([]float64, error) {
	start := time.Now()
	if len(vectors) == 0 {
		return []float64{}, nil
	}

	names := vectors[0].Names()
	payload := ScoreRequest{
		RaceID:       race.ID,
		RaceDate:     race.Day().Format("2006-01-02"),
		FeatureNames: names,
		HorseNumbers: make([]int, len(vectors)),
		Rows:         make([][]float64, len(vectors)),
	}
	for i, v := range vectors {
		payload.HorseNumbers[i] = v.HorseNumber
		payload.Rows[i] = v.Row(names)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(ctx, req)
	if err != nil {
		ScoringErrorsTotal.WithLabelValues(m.label, "network").Inc()
		m.logger.LogScoreFailure(m.label, race.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrScoringUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		ScoringErrorsTotal.WithLabelValues(m.label, "http_error").Inc()
		err := fmt.Errorf("%w: status %d: %s", ErrScoringUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
		m.logger.LogScoreFailure(m.label, race.ID, err)
		return nil, err
	}

	var out ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		ScoringErrorsTotal.WithLabelValues(m.label, "decode").Inc()
		return nil, fmt.Errorf("%w: decode response: %w", ErrScoringUnavailable, err)
	}
	if err := Check(out.Scores, len(vectors)); err != nil {
		ScoringErrorsTotal.WithLabelValues(m.label, "invalid").Inc()
		return nil, err
	}

	ScoringLatency.WithLabelValues(m.label).Observe(time.Since(start).Seconds())
	ScoringRequestsTotal.WithLabelValues(m.label, "false").Inc()
	m.logger.LogScoreRequest(m.label, race.ID, len(vectors), false, float64(time.Since(start).Milliseconds()))
	return out.Scores, nil
}

// Close releases idle connections
func (m *HTTPModel) Close() error {
	return m.client.Close()
}
