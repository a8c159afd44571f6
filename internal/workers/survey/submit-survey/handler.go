// internal/workers/survey/submit-survey/handler.go
package submitsurvey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/go-playground/validator/v10"

	"movie-dropoff/internal/common/config"
	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/metrics"
	"movie-dropoff/internal/common/observability"
	"movie-dropoff/internal/models"
	"movie-dropoff/internal/session"
	"movie-dropoff/internal/survey"
)

const TaskType = "survey-submit"

var validate = validator.New()

// Predictor is the survey-level prediction call made after a successful
// submission.
type Predictor interface {
	Predict(ctx context.Context, v models.FeatureVector) (*models.PredictionResult, error)
}

type Handler struct {
	config     *Config
	store      session.Store
	predictor  Predictor
	questions  []survey.Question
	normalizer *survey.Normalizer
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Store         session.Store
	Predictor     Predictor
	Questions     []survey.Question
	Now           func() time.Time
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%s: session store is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	questions := opts.Questions
	if len(questions) == 0 {
		questions = survey.DefaultQuestions()
	}

	return &Handler{
		config:     cfg,
		store:      opts.Store,
		predictor:  opts.Predictor,
		questions:  questions,
		normalizer: survey.NewNormalizer(opts.Now),
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

// Execute replays the answers through a fresh survey run and submits it.
// Every question must be answered; answers for schema fields the
// questionnaire does not ask are kept when they fit the field's range. A
// session that already has a stored vector is refused with ALREADY_SUBMITTED.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validate.Struct(input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = survey.NewSessionID()
	} else if err := h.ensureNotSubmitted(ctx, sessionID); err != nil {
		return nil, err
	}

	raw := models.ParseRawAnswers(input.Responses)
	if missing := h.unanswered(raw); len(missing) > 0 {
		return nil, apperrors.NewValidationFailureError("unanswered questions: " + strings.Join(missing, ", "))
	}

	flow := survey.NewFlowController(sessionID, h.store,
		survey.WithQuestions(h.questions),
		survey.WithNormalizer(h.normalizer),
		survey.WithLogger(h.logger),
	)
	if err := replay(flow, h.booleansAsAnswers(raw)); err != nil {
		return nil, err
	}

	vector, err := flow.Submit(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SurveysSubmitted.Inc()

	out := &Output{SessionID: sessionID, Submitted: true, FeatureVector: vector}
	if h.predictor == nil || !h.config.PredictOnSubmit {
		return out, nil
	}

	prediction, err := h.predictor.Predict(ctx, vector)
	if err != nil {
		h.logger.Warn("survey stored but prediction failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		out.PredictionError = err.Error()
		return out, nil
	}
	out.Prediction = prediction

	h.logger.Info("survey submitted", map[string]interface{}{
		"sessionId":          sessionID,
		"dropoffProbability": prediction.DropoffProbability,
		"riskLevel":          string(prediction.RiskLevel),
	})
	return out, nil
}

func (h *Handler) ensureNotSubmitted(ctx context.Context, sessionID string) error {
	_, err := h.store.LoadVector(ctx, sessionID)
	switch {
	case err == nil:
		return apperrors.NewAlreadySubmittedError(sessionID)
	case errors.Is(err, session.ErrNotFound):
		return nil
	case apperrors.HasCode(err, apperrors.ErrCodeSchemaFailure):
		// unreadable leftovers are overwritten by the new submission
		return nil
	default:
		return err
	}
}

func (h *Handler) unanswered(raw models.RawAnswers) []string {
	var missing []string
	for _, q := range h.questions {
		if _, ok := raw[q.Field]; !ok {
			missing = append(missing, string(q.Field))
		}
	}
	return missing
}

// booleansAsAnswers turns 0/1 counts for yes/no questions into booleans;
// form posts encode those answers as integers.
func (h *Handler) booleansAsAnswers(raw models.RawAnswers) models.RawAnswers {
	out := raw.Clone()
	for _, q := range h.questions {
		a, ok := out[q.Field]
		if !ok || q.Kind != survey.KindBoolean || a.Kind != models.AnswerCount {
			continue
		}
		if a.Count == 0 || a.Count == 1 {
			out[q.Field] = models.BoolAnswer(a.Count == 1)
		}
	}
	return out
}

func replay(flow *survey.FlowController, raw models.RawAnswers) error {
	fields := make([]string, 0, len(raw))
	for k := range raw {
		if models.IsSchemaField(k) {
			fields = append(fields, string(k))
		}
	}
	sort.Strings(fields)

	for _, f := range fields {
		key := models.FieldKey(f)
		if err := flow.SetResponse(key, raw[key]); err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}
	}
	for flow.Advance() {
	}
	return nil
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
