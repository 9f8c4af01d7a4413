package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the HabitType union.
type Kind string

const (
	KindBoolean  Kind = "boolean"
	KindDuration Kind = "duration"
	KindRating   Kind = "rating"
	KindNumeric  Kind = "numeric"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBoolean, KindDuration, KindRating, KindNumeric:
		return k, nil
	default:
		return "", fmt.Errorf("invalid habit kind %q (expected boolean, duration, rating or numeric)", s)
	}
}

type BooleanType struct {
	Goal Goal `json:"goal"`
}

// DurationType values are seconds.
type DurationType struct {
	Goal Goal `json:"goal"`
}

type RatingType struct {
	Min  int  `json:"min"`
	Max  int  `json:"max"`
	Goal Goal `json:"goal"`
}

type NumericType struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
	Goal Goal    `json:"goal"`
}

// HabitType is a tagged union. Kind selects which payload is set; exactly one
// payload pointer is non-nil for a well-formed value. Use the New* constructors.
type HabitType struct {
	Kind     Kind
	Boolean  *BooleanType
	Duration *DurationType
	Rating   *RatingType
	Numeric  *NumericType
}

func NewBoolean(goal Goal) HabitType {
	return HabitType{Kind: KindBoolean, Boolean: &BooleanType{Goal: goal}}
}

func NewDuration(goal Goal) HabitType {
	return HabitType{Kind: KindDuration, Duration: &DurationType{Goal: goal}}
}

func NewRating(min, max int, goal Goal) HabitType {
	return HabitType{Kind: KindRating, Rating: &RatingType{Min: min, Max: max, Goal: goal}}
}

func NewNumeric(min, max float64, unit string, goal Goal) HabitType {
	return HabitType{Kind: KindNumeric, Numeric: &NumericType{Min: min, Max: max, Unit: unit, Goal: goal}}
}

// Goal returns the goal carried by the active payload. A malformed value
// yields the zero Goal, which evaluates as "no goal".
func (t HabitType) Goal() Goal {
	switch t.Kind {
	case KindBoolean:
		if t.Boolean != nil {
			return t.Boolean.Goal
		}
	case KindDuration:
		if t.Duration != nil {
			return t.Duration.Goal
		}
	case KindRating:
		if t.Rating != nil {
			return t.Rating.Goal
		}
	case KindNumeric:
		if t.Numeric != nil {
			return t.Numeric.Goal
		}
	}
	return Goal{}
}

// WithGoal returns a copy of t carrying goal.
func (t HabitType) WithGoal(goal Goal) HabitType {
	switch t.Kind {
	case KindBoolean:
		return NewBoolean(goal)
	case KindDuration:
		return NewDuration(goal)
	case KindRating:
		if t.Rating != nil {
			return NewRating(t.Rating.Min, t.Rating.Max, goal)
		}
	case KindNumeric:
		if t.Numeric != nil {
			return NewNumeric(t.Numeric.Min, t.Numeric.Max, t.Numeric.Unit, goal)
		}
	}
	return t
}

func (t HabitType) DisplayName() string {
	switch t.Kind {
	case KindBoolean:
		return "Checkmark"
	case KindDuration:
		return "Time"
	case KindRating:
		return "Rating"
	case KindNumeric:
		return "Number"
	default:
		return "Unknown"
	}
}

func (t HabitType) Validate() error {
	set := 0
	for _, ok := range []bool{t.Boolean != nil, t.Duration != nil, t.Rating != nil, t.Numeric != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("habit type must carry exactly one payload (got %d)", set)
	}

	switch t.Kind {
	case KindBoolean:
		if t.Boolean == nil {
			return errors.New("boolean habit type is missing its payload")
		}
	case KindDuration:
		if t.Duration == nil {
			return errors.New("duration habit type is missing its payload")
		}
	case KindRating:
		if t.Rating == nil {
			return errors.New("rating habit type is missing its payload")
		}
		if t.Rating.Min > t.Rating.Max {
			return fmt.Errorf("rating min (%d) cannot exceed max (%d)", t.Rating.Min, t.Rating.Max)
		}
	case KindNumeric:
		if t.Numeric == nil {
			return errors.New("numeric habit type is missing its payload")
		}
		if t.Numeric.Min > t.Numeric.Max {
			return fmt.Errorf("numeric min (%g) cannot exceed max (%g)", t.Numeric.Min, t.Numeric.Max)
		}
	default:
		return fmt.Errorf("invalid habit kind %q", t.Kind)
	}

	return t.Goal().Validate()
}

type kindEnvelope struct {
	Kind Kind `json:"kind"`
}

func (t HabitType) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case KindBoolean:
		if t.Boolean != nil {
			return json.Marshal(struct {
				Kind Kind `json:"kind"`
				*BooleanType
			}{t.Kind, t.Boolean})
		}
	case KindDuration:
		if t.Duration != nil {
			return json.Marshal(struct {
				Kind Kind `json:"kind"`
				*DurationType
			}{t.Kind, t.Duration})
		}
	case KindRating:
		if t.Rating != nil {
			return json.Marshal(struct {
				Kind Kind `json:"kind"`
				*RatingType
			}{t.Kind, t.Rating})
		}
	case KindNumeric:
		if t.Numeric != nil {
			return json.Marshal(struct {
				Kind Kind `json:"kind"`
				*NumericType
			}{t.Kind, t.Numeric})
		}
	default:
		return nil, fmt.Errorf("cannot encode habit type with kind %q", t.Kind)
	}
	return nil, fmt.Errorf("cannot encode %s habit type without payload", t.Kind)
}

func (t *HabitType) UnmarshalJSON(data []byte) error {
	var env kindEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	switch env.Kind {
	case KindBoolean:
		var p BooleanType
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*t = HabitType{Kind: env.Kind, Boolean: &p}
	case KindDuration:
		var p DurationType
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*t = HabitType{Kind: env.Kind, Duration: &p}
	case KindRating:
		var p RatingType
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*t = HabitType{Kind: env.Kind, Rating: &p}
	case KindNumeric:
		var p NumericType
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*t = HabitType{Kind: env.Kind, Numeric: &p}
	default:
		return fmt.Errorf("unknown habit kind %q", env.Kind)
	}
	return nil
}
