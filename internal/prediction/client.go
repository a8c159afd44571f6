package prediction

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"movie-dropoff/internal/common/config"
	apperrors "movie-dropoff/internal/common/errors"
	apphttp "movie-dropoff/internal/common/http"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/metrics"
	"movie-dropoff/internal/models"
)

type HealthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	ModelStatus string `json:"model_status"`
	ModelType   string `json:"model_type"`
	Version     string `json:"version"`
	Timestamp   string `json:"timestamp"`
}

func (h HealthResponse) Healthy() bool {
	return strings.EqualFold(h.Status, "healthy") || strings.EqualFold(h.Status, "ok")
}

type predictResponse struct {
	Status     string              `json:"status"`
	Prediction *predictionEnvelope `json:"prediction"`
}

type predictionEnvelope struct {
	DropoffProbability *float64 `json:"dropoff_probability"`
	RiskLevel          string   `json:"risk_level"`
	UserSegment        string   `json:"user_segment"`
	Recommendations    []string `json:"recommendations"`
	ModelType          string   `json:"model_type"`
	ConfidenceScore    float64  `json:"confidence_score"`
	Timestamp          string   `json:"timestamp"`
}

// MoviePrediction is the service's per-movie answer. Probabilities are
// 0..1; DropoffProbability is derived from CompletionLikelihood when the
// service omits it.
type MoviePrediction struct {
	MovieID              string   `json:"movie_id"`
	CompletionLikelihood float64  `json:"completion_likelihood"`
	DropoffProbability   float64  `json:"dropoff_probability"`
	RiskLevel            string   `json:"risk_level"`
	Recommendations      []string `json:"recommendations"`
	Confidence           float64  `json:"confidence"`
}

type moviePredictionResponse struct {
	MovieID              interface{} `json:"movie_id"`
	CompletionLikelihood *float64    `json:"completion_likelihood"`
	DropoffProbability   *float64    `json:"dropoff_probability"`
	RiskLevel            string      `json:"risk_level"`
	Recommendations      []string    `json:"recommendations"`
	Confidence           float64     `json:"confidence"`
}

// Client talks to the prediction service. Every call goes through one
// circuit breaker.
type Client struct {
	http    *apphttp.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker[interface{}]
	log     logger.Logger
}

func NewClient(cfg config.PredictionConfig, log logger.Logger) *Client {
	log = log.Named("prediction")
	return &Client{
		http: apphttp.NewClient(
			config.GetDuration(cfg.Timeout),
			apphttp.WithGetRetries(cfg.GetRetries, 200*time.Millisecond),
		),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		breaker: newBreaker(cfg.Breaker, log),
		log:     log,
	}
}

func observe(endpoint string, start time.Time) {
	metrics.PredictionRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	defer observe("health", time.Now())
	return execute(c.breaker, "health", func() (*HealthResponse, error) {
		var out HealthResponse
		if err := c.http.GetJSON(ctx, c.baseURL+"/health", &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (c *Client) ModelInfo(ctx context.Context) (map[string]interface{}, error) {
	defer observe("model_info", time.Now())
	info, err := execute(c.breaker, "model/info", func() (*map[string]interface{}, error) {
		out := map[string]interface{}{}
		if err := c.http.GetJSON(ctx, c.baseURL+"/model/info", &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return *info, nil
}

// Predict asks for the survey-level dropoff prediction.
func (c *Client) Predict(ctx context.Context, v models.FeatureVector) (*models.PredictionResult, error) {
	defer observe("predict", time.Now())
	return execute(c.breaker, "predict", func() (*models.PredictionResult, error) {
		var resp predictResponse
		if err := c.http.PostJSON(ctx, c.baseURL+"/predict", v, &resp); err != nil {
			return nil, err
		}
		return toPredictionResult(resp)
	})
}

func toPredictionResult(resp predictResponse) (*models.PredictionResult, error) {
	p := resp.Prediction
	if p == nil || p.DropoffProbability == nil {
		return nil, apperrors.NewSchemaFailureError("predict", "response has no dropoff_probability")
	}
	if !inUnitRange(*p.DropoffProbability) {
		return nil, apperrors.NewSchemaFailureError("predict", fmt.Sprintf("dropoff_probability %v outside [0,1]", *p.DropoffProbability))
	}

	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	recs := p.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return &models.PredictionResult{
		DropoffProbability: *p.DropoffProbability,
		RiskLevel:          models.ParseRiskLevel(p.RiskLevel, *p.DropoffProbability),
		Confidence:         p.ConfidenceScore,
		Recommendations:    recs,
		UserSegment:        p.UserSegment,
		ModelType:          p.ModelType,
		Timestamp:          ts,
	}, nil
}

// PredictMovie asks how likely the user is to finish movieID.
func (c *Client) PredictMovie(ctx context.Context, movieID string, v models.FeatureVector) (*MoviePrediction, error) {
	defer observe("movie_predict", time.Now())
	endpoint := "movies/predict"
	return execute(c.breaker, endpoint, func() (*MoviePrediction, error) {
		var resp moviePredictionResponse
		u := fmt.Sprintf("%s/movies/%s/predict", c.baseURL, url.PathEscape(movieID))
		if err := c.http.PostJSON(ctx, u, v, &resp); err != nil {
			return nil, err
		}
		return toMoviePrediction(movieID, resp)
	})
}

func toMoviePrediction(movieID string, resp moviePredictionResponse) (*MoviePrediction, error) {
	if resp.CompletionLikelihood == nil {
		return nil, apperrors.NewSchemaFailureError("movies/predict", "response has no completion_likelihood")
	}
	cl := *resp.CompletionLikelihood
	if !inUnitRange(cl) {
		return nil, apperrors.NewSchemaFailureError("movies/predict", fmt.Sprintf("completion_likelihood %v outside [0,1]", cl))
	}

	dp := 1 - cl
	if resp.DropoffProbability != nil {
		dp = *resp.DropoffProbability
		if !inUnitRange(dp) {
			return nil, apperrors.NewSchemaFailureError("movies/predict", fmt.Sprintf("dropoff_probability %v outside [0,1]", dp))
		}
	}

	return &MoviePrediction{
		MovieID:              movieID,
		CompletionLikelihood: cl,
		DropoffProbability:   dp,
		RiskLevel:            resp.RiskLevel,
		Recommendations:      resp.Recommendations,
		Confidence:           resp.Confidence,
	}, nil
}

func inUnitRange(f float64) bool {
	return f >= 0 && f <= 1
}
