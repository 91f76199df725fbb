package therapist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/physioflow/practice-api/internal/model"
)

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name    string
		ranges  []model.TimeRange
		wantErr bool
	}{
		{"empty", nil, false},
		{"single", []model.TimeRange{{Start: "09:00", End: "12:00"}}, false},
		{"adjacent back to back", []model.TimeRange{
			{Start: "09:00", End: "12:00"},
			{Start: "12:00", End: "17:00"},
		}, false},
		{"malformed start", []model.TimeRange{{Start: "9am", End: "12:00"}}, true},
		{"malformed end", []model.TimeRange{{Start: "09:00", End: "25:00"}}, true},
		{"inverted", []model.TimeRange{{Start: "14:00", End: "12:00"}}, true},
		{"empty range", []model.TimeRange{{Start: "12:00", End: "12:00"}}, true},
		{"overlapping", []model.TimeRange{
			{Start: "09:00", End: "12:00"},
			{Start: "11:00", End: "14:00"},
		}, true},
		{"contained", []model.TimeRange{
			{Start: "09:00", End: "17:00"},
			{Start: "10:00", End: "11:00"},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRanges(tt.ranges)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
