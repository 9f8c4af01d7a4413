package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHabitTypeValidate(t *testing.T) {
	weekly := Goal{Target: 3, Frequency: FrequencyWeekly}

	tests := []struct {
		name    string
		typ     HabitType
		wantErr string
	}{
		{name: "boolean", typ: NewBoolean(weekly)},
		{name: "duration", typ: NewDuration(Goal{Target: 3600, Frequency: FrequencyDaily})},
		{name: "rating", typ: NewRating(1, 5, weekly)},
		{name: "rating equal bounds", typ: NewRating(3, 3, weekly)},
		{name: "numeric", typ: NewNumeric(0, 42.195, "km", weekly)},
		{name: "no goal is valid", typ: NewBoolean(Goal{Frequency: FrequencyDaily})},
		{
			name:    "rating inverted bounds",
			typ:     NewRating(5, 1, weekly),
			wantErr: "rating min",
		},
		{
			name:    "numeric inverted bounds",
			typ:     NewNumeric(10, 1, "kg", weekly),
			wantErr: "numeric min",
		},
		{
			name:    "negative target",
			typ:     NewBoolean(Goal{Target: -1, Frequency: FrequencyDaily}),
			wantErr: "negative",
		},
		{
			name:    "bad frequency",
			typ:     NewBoolean(Goal{Target: 1, Frequency: "yearly"}),
			wantErr: "frequency",
		},
		{
			name:    "missing payload",
			typ:     HabitType{Kind: KindRating},
			wantErr: "exactly one payload",
		},
		{
			name:    "mismatched payload",
			typ:     HabitType{Kind: KindRating, Boolean: &BooleanType{}},
			wantErr: "missing its payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHabitTypeJSONIsDiscriminated(t *testing.T) {
	typ := NewNumeric(0, 100, "km", Goal{Target: 20, Frequency: FrequencyWeekly})

	data, err := json.Marshal(typ)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"numeric"`) {
		t.Errorf("expected kind discriminator in %s", data)
	}

	var decoded HabitType
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Kind != KindNumeric || decoded.Numeric == nil {
		t.Fatalf("expected numeric payload, got %+v", decoded)
	}
	if decoded.Numeric.Unit != "km" || decoded.Goal().Target != 20 {
		t.Errorf("payload not preserved: %+v", decoded.Numeric)
	}
	if decoded.Boolean != nil || decoded.Rating != nil || decoded.Duration != nil {
		t.Error("expected only the numeric payload to be set")
	}
}

func TestHabitTypeUnmarshalUnknownKind(t *testing.T) {
	var typ HabitType
	if err := json.Unmarshal([]byte(`{"kind":"mood"}`), &typ); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestHabitTypeGoalOnMalformedValue(t *testing.T) {
	typ := HabitType{Kind: KindDuration}
	if typ.Goal().Enabled() {
		t.Error("expected malformed type to have no goal")
	}
}

func TestGoalEnabled(t *testing.T) {
	tests := []struct {
		name string
		goal Goal
		want bool
	}{
		{"daily target", Goal{Target: 1, Frequency: FrequencyDaily}, true},
		{"zero target", Goal{Target: 0, Frequency: FrequencyWeekly}, false},
		{"negative target", Goal{Target: -2, Frequency: FrequencyDaily}, false},
		{"missing frequency", Goal{Target: 3}, false},
		{"unknown frequency", Goal{Target: 3, Frequency: "hourly"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.goal.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithGoalKeepsPayload(t *testing.T) {
	typ := NewRating(1, 10, Goal{Target: 1, Frequency: FrequencyDaily})
	updated := typ.WithGoal(Goal{Target: 4, Frequency: FrequencyMonthly})

	if updated.Rating.Max != 10 {
		t.Errorf("expected max 10, got %d", updated.Rating.Max)
	}
	if updated.Goal().Frequency != FrequencyMonthly {
		t.Errorf("expected monthly goal, got %s", updated.Goal().Frequency)
	}
	if typ.Goal().Target != 1 {
		t.Error("WithGoal must not mutate the receiver")
	}
}

func TestFrequencyUnit(t *testing.T) {
	if got := FrequencyWeekly.Unit(1); got != "week" {
		t.Errorf("expected week, got %s", got)
	}
	if got := FrequencyMonthly.Unit(3); got != "months" {
		t.Errorf("expected months, got %s", got)
	}
	if got := FrequencyDaily.Unit(0); got != "days" {
		t.Errorf("expected days, got %s", got)
	}
}
