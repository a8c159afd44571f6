package models

import (
	"encoding/json"
	"fmt"
	"math"
)

type AnswerKind int

const (
	AnswerBool AnswerKind = iota + 1
	AnswerCount
	AnswerFraction
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerBool:
		return "bool"
	case AnswerCount:
		return "count"
	case AnswerFraction:
		return "fraction"
	default:
		return "unknown"
	}
}

// Answer is one survey response. Exactly one of the value fields is
// meaningful, selected by Kind. The zero Answer is not a valid response.
type Answer struct {
	Kind     AnswerKind
	Bool     bool
	Count    int
	Fraction float64
}

func BoolAnswer(v bool) Answer { return Answer{Kind: AnswerBool, Bool: v} }
func CountAnswer(v int) Answer { return Answer{Kind: AnswerCount, Count: v} }
func FractionAnswer(v float64) Answer { return Answer{Kind: AnswerFraction, Fraction: v} }

func (a Answer) Valid() bool {
	switch a.Kind {
	case AnswerBool, AnswerCount:
		return true
	case AnswerFraction:
		return !math.IsNaN(a.Fraction) && !math.IsInf(a.Fraction, 0)
	default:
		return false
	}
}

// Numeric encodes the answer the way the prediction service expects it:
// booleans as 0/1, numbers unchanged.
func (a Answer) Numeric() float64 {
	switch a.Kind {
	case AnswerBool:
		if a.Bool {
			return 1
		}
		return 0
	case AnswerCount:
		return float64(a.Count)
	default:
		return a.Fraction
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerBool:
		return json.Marshal(a.Bool)
	case AnswerCount:
		return json.Marshal(a.Count)
	case AnswerFraction:
		return json.Marshal(a.Fraction)
	default:
		return []byte("null"), nil
	}
}

// RawAnswers holds the responses collected so far. A key that is absent
// means the question was never answered.
type RawAnswers map[FieldKey]Answer

func (r RawAnswers) Clone() RawAnswers {
	out := make(RawAnswers, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ParseRawAnswers converts decoded JSON (job variables, CLI input) into
// RawAnswers. Integral numbers become counts, other numbers fractions.
// Nulls and values of any other type are dropped.
func ParseRawAnswers(in map[string]interface{}) RawAnswers {
	out := make(RawAnswers, len(in))
	for k, v := range in {
		a, ok := parseAnswer(v)
		if !ok {
			continue
		}
		out[FieldKey(k)] = a
	}
	return out
}

func parseAnswer(v interface{}) (Answer, bool) {
	switch t := v.(type) {
	case bool:
		return BoolAnswer(t), true
	case int:
		return CountAnswer(t), true
	case int64:
		return CountAnswer(int(t)), true
	case float64:
		return numberAnswer(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return CountAnswer(int(i)), true
		}
		f, err := t.Float64()
		if err != nil {
			return Answer{}, false
		}
		return numberAnswer(f)
	default:
		return Answer{}, false
	}
}

func numberAnswer(f float64) (Answer, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Answer{}, false
	}
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
		return CountAnswer(int(f)), true
	}
	return FractionAnswer(f), true
}

func (a Answer) String() string {
	switch a.Kind {
	case AnswerBool:
		if a.Bool {
			return "yes"
		}
		return "no"
	case AnswerCount:
		return fmt.Sprintf("%d", a.Count)
	case AnswerFraction:
		return fmt.Sprintf("%.1f", a.Fraction)
	default:
		return "<unanswered>"
	}
}
