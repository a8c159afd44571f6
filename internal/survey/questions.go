package survey

import "movie-dropoff/internal/models"

type QuestionKind string

const (
	KindBoolean        QuestionKind = "boolean"
	KindIntegerChoice  QuestionKind = "integer"
	KindFractionChoice QuestionKind = "fraction"
)

// Question is one survey step. Options is empty for boolean questions.
type Question struct {
	ID      int
	Prompt  string
	Kind    QuestionKind
	Options []float64
	Field   models.FieldKey
}

// Accepts reports whether a is a legal response to q.
func (q Question) Accepts(a models.Answer) bool {
	if !a.Valid() {
		return false
	}
	switch q.Kind {
	case KindBoolean:
		return a.Kind == models.AnswerBool
	case KindIntegerChoice:
		return a.Kind == models.AnswerCount && q.hasOption(float64(a.Count))
	case KindFractionChoice:
		if a.Kind != models.AnswerFraction && a.Kind != models.AnswerCount {
			return false
		}
		return q.hasOption(a.Numeric())
	}
	return false
}

func (q Question) hasOption(v float64) bool {
	for _, o := range q.Options {
		if abs(o-v) < 1e-9 {
			return true
		}
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

var (
	fractionOptions = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	zeroToFive      = []float64{0, 1, 2, 3, 4, 5}
)

func boolQ(id int, field models.FieldKey, prompt string) Question {
	return Question{ID: id, Prompt: prompt, Kind: KindBoolean, Field: field}
}

func intQ(id int, field models.FieldKey, prompt string, options []float64) Question {
	return Question{ID: id, Prompt: prompt, Kind: KindIntegerChoice, Field: field, Options: options}
}

func fracQ(id int, field models.FieldKey, prompt string) Question {
	return Question{ID: id, Prompt: prompt, Kind: KindFractionChoice, Field: field, Options: fractionOptions}
}

// DefaultQuestions returns a fresh copy of the standard questionnaire.
func DefaultQuestions() []Question {
	return []Question{
		boolQ(1, models.FieldStopHistorical, "Do you often stop watching Historical movies before finishing?"),
		boolQ(2, models.FieldFeelingBoredPause, "Do you pause movies when feeling bored or uninterested?"),
		intQ(3, models.FieldTotalGenresStopped, "How many different genres do you usually stop watching before finishing?", zeroToFive),
		intQ(4, models.FieldTotalStoppingReasons, "How many different reasons cause you to stop watching movies?", []float64{1, 2, 3, 4, 5, 6}),
		boolQ(5, models.FieldDiscoversViaTrailers, "Do you discover movies through trailers?"),
		fracQ(6, models.FieldGenreCompletionRatio, "What share of movies do you typically finish?"),
		boolQ(7, models.FieldDiscoversViaAwards, "Do you discover movies through awards or critical acclaim?"),
		boolQ(8, models.FieldPauseLostFocus, "Do you pause movies when you lose focus or get distracted?"),
		boolQ(9, models.FieldStopDistractions, "Do you stop watching movies due to distractions or interruptions?"),
		boolQ(10, models.FieldStopTechnicalIssues, "Do you stop watching movies due to technical issues (buffering, audio)?"),
		fracQ(11, models.FieldPatienceScore, "Rate your patience when watching movies"),
		intQ(12, models.FieldTotalMultitaskingBehaviors, "How many other things do you usually do while watching?", zeroToFive),
		boolQ(13, models.FieldChatsWhileWatching, "Do you chat or text with others while watching movies?"),
		fracQ(14, models.FieldAttentionSpanScore, "Rate your attention span when watching movies"),
		boolQ(15, models.FieldPauseToDiscuss, "Do you pause movies to discuss with others watching?"),
		intQ(16, models.FieldSocialInfluenceScore, "How much do friends influence what you watch? (1-10)", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}),
		boolQ(17, models.FieldFocusesOnlyOnMovie, "Do you usually focus only on the movie?"),
		boolQ(18, models.FieldStopRomance, "Do you often stop watching Romance movies before finishing?"),
		boolQ(19, models.FieldDiscoversViaReviews, "Do you discover movies through reviews or ratings?"),
		boolQ(20, models.FieldStopAction, "Do you often stop watching Action movies before finishing?"),
		boolQ(21, models.FieldEnjoyAction, "Do you enjoy watching Action movies?"),
		boolQ(22, models.FieldWatchesStreamingHome, "Do you usually watch movies at home on streaming platforms?"),
		boolQ(23, models.FieldEnjoyRomance, "Do you enjoy watching Romance movies?"),
		boolQ(24, models.FieldIsWeekend, "Are you answering this on a weekend?"),
	}
}
