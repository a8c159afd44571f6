// internal/workers/catalog/browse-catalog/handler.go
package browsecatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"movie-dropoff/internal/browse"
	"movie-dropoff/internal/common/config"
	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/metrics"
	"movie-dropoff/internal/common/observability"
	"movie-dropoff/internal/models"
)

const TaskType = "catalog-browse"

type Refresher interface {
	Refresh(ctx context.Context, sessionID string, filter models.FilterOptions) (*browse.Page, error)
}

type Handler struct {
	config     *Config
	browser    Refresher
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Browser       Refresher
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Browser == nil {
		return nil, fmt.Errorf("%s: browse service is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:     cfg,
		browser:    opts.Browser,
		obs:        opts.Observability,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		h.failJob(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err)), start)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

// Execute loads one catalog page. An unavailable catalog and a superseded
// request both complete normally with the matching flag set.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	filter := models.DefaultFilter()
	if input.Filter != nil {
		filter = input.Filter.WithDefaults()
	}

	page, err := h.browser.Refresh(ctx, input.SessionID, filter)
	if errors.Is(err, browse.ErrSuperseded) {
		h.logger.Info("browse request superseded", map[string]interface{}{
			"sessionId": input.SessionID,
		})
		return &Output{Movies: []models.Movie{}, Filter: filter, Superseded: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if page.CatalogUnavailable {
		h.logger.Warn("catalog unavailable", map[string]interface{}{
			"sessionId": input.SessionID,
			"genre":     filter.Genre,
		})
	}
	if page.Predicted {
		h.obs.RecordEnriched(ctx, page.Source, len(page.Movies))
	}

	return &Output{
		Movies:             page.Movies,
		Filter:             page.Filter,
		Source:             page.Source,
		Count:              len(page.Movies),
		CatalogUnavailable: page.CatalogUnavailable,
		Predicted:          page.Predicted,
		Warning:            page.Warning,
		PredictionError:    page.PredictionError,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := string(apperrors.Normalize(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
	h.errHandler.HandleJobError(ctx, client, job, err)
}
