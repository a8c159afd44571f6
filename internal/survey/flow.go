package survey

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/validation"
	"movie-dropoff/internal/models"
	"movie-dropoff/internal/session"
)

var (
	ErrOutOfRange = errors.New("survey: question list is empty")

	// ErrInvalidAnswer is returned by SetResponse for an answer the field
	// cannot take (wrong kind, not one of the options, out of range, NaN).
	ErrInvalidAnswer = errors.New("survey: answer not accepted for field")

	ErrAlreadySubmitted = &apperrors.StandardError{Code: apperrors.ErrCodeAlreadySubmitted, Message: "survey already submitted"}
	ErrSubmitNotAllowed = &apperrors.StandardError{Code: apperrors.ErrCodeValidationFailure, Message: "survey cannot be submitted yet"}
)

// State is a snapshot of the controller.
type State struct {
	SessionID string
	StepIndex int
	Responses models.RawAnswers
	Submitted bool
}

// FlowController walks a user through the questions in order. It is safe
// for concurrent use, though a session normally has one driver.
type FlowController struct {
	mu         sync.Mutex
	sessionID  string
	questions  []Question
	store      session.Store
	normalizer *Normalizer
	log        logger.Logger

	step      int
	responses models.RawAnswers
	submitted bool
}

type Option func(*FlowController)

func WithQuestions(qs []Question) Option {
	return func(c *FlowController) { c.questions = qs }
}

func WithNormalizer(n *Normalizer) Option {
	return func(c *FlowController) { c.normalizer = n }
}

func WithLogger(l logger.Logger) Option {
	return func(c *FlowController) { c.log = l }
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewFlowController starts at step 0 with no responses. An empty sessionID
// gets a generated one.
func NewFlowController(sessionID string, store session.Store, opts ...Option) *FlowController {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	c := &FlowController{
		sessionID: sessionID,
		questions: DefaultQuestions(),
		store:     store,
		responses: make(models.RawAnswers),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.normalizer == nil {
		c.normalizer = defaultNormalizer
	}
	if c.log == nil {
		c.log = logger.NewNoOpLogger()
	}
	return c
}

func (c *FlowController) SessionID() string { return c.sessionID }

func (c *FlowController) QuestionCount() int { return len(c.questions) }

func (c *FlowController) CurrentQuestion() (Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.questions) == 0 {
		return Question{}, ErrOutOfRange
	}
	return c.questions[c.step], nil
}

func (c *FlowController) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answeredLocked()
}

func (c *FlowController) answeredLocked() bool {
	if len(c.questions) == 0 {
		return false
	}
	_, ok := c.responses[c.questions[c.step].Field]
	return ok
}

// SetResponse records an answer. It never moves the step index and
// replaces any earlier answer for the same field.
func (c *FlowController) SetResponse(field models.FieldKey, a models.Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return apperrors.NewAlreadySubmittedError(c.sessionID)
	}
	if !a.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidAnswer, field)
	}
	if q, ok := c.questionFor(field); ok {
		if !q.Accepts(a) {
			return fmt.Errorf("%w: %s=%s", ErrInvalidAnswer, field, a)
		}
	} else if spec, ok := models.LookupField(field); ok && !spec.Admits(a) {
		return fmt.Errorf("%w: %s=%s outside [%g, %g]", ErrInvalidAnswer, field, a, spec.Min, spec.Max)
	}
	c.responses[field] = a
	return nil
}

func (c *FlowController) questionFor(field models.FieldKey) (Question, bool) {
	for _, q := range c.questions {
		if q.Field == field {
			return q, true
		}
	}
	return Question{}, false
}

// Advance moves to the next question. It returns false and changes nothing
// when the current question is unanswered or already last.
func (c *FlowController) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted || !c.answeredLocked() || c.step >= len(c.questions)-1 {
		return false
	}
	c.step++
	return true
}

func (c *FlowController) Retreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted || c.step == 0 {
		return false
	}
	c.step--
	return true
}

func (c *FlowController) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *FlowController) canSubmitLocked() bool {
	return !c.submitted && len(c.questions) > 0 && c.step == len(c.questions)-1 && c.answeredLocked()
}

// Submit normalizes the responses and stores the vector for the session.
// A failed store write leaves the survey open so the call can be retried;
// a second successful-path call returns ErrAlreadySubmitted.
func (c *FlowController) Submit(ctx context.Context) (models.FeatureVector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return models.FeatureVector{}, apperrors.NewAlreadySubmittedError(c.sessionID)
	}
	if !c.canSubmitLocked() {
		return models.FeatureVector{}, ErrSubmitNotAllowed
	}

	vector := c.normalizer.Normalize(c.responses)
	if result := validation.ValidateFeatureVector(vector); !result.Valid {
		return models.FeatureVector{}, apperrors.NewInvalidFeatureVectorError(result.Error())
	}
	if c.store != nil {
		if err := c.store.SaveVector(ctx, c.sessionID, vector); err != nil {
			c.log.Error("failed to store survey data", map[string]interface{}{
				"sessionId": c.sessionID,
				"error":     err.Error(),
			})
			return models.FeatureVector{}, err
		}
	}

	c.submitted = true
	c.log.Info("survey submitted", map[string]interface{}{
		"sessionId": c.sessionID,
		"answered":  len(c.responses),
	})
	return vector, nil
}

func (c *FlowController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		SessionID: c.sessionID,
		StepIndex: c.step,
		Responses: c.responses.Clone(),
		Submitted: c.submitted,
	}
}

// Progress is the percentage of the questionnaire reached, counting the
// current step.
func (c *FlowController) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.questions) == 0 {
		return 0
	}
	return float64(c.step+1) / float64(len(c.questions)) * 100
}
