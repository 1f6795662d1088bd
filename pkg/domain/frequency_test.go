package domain_test

import (
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Frequency
		wantErr bool
	}{
		{"Daily", domain.Daily, false},
		{"weekly", domain.Weekly, false},
		{" MONTHLY ", domain.Monthly, false},
		{"hourly", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseFrequency(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidFrequency)
				var freqErr *domain.InvalidFrequencyError
				assert.ErrorAs(t, err, &freqErr)
				assert.Equal(t, tt.in, freqErr.Value)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFrequency_KeyAndLabel(t *testing.T) {
	assert.Equal(t, "daily", domain.Daily.Key())
	assert.Equal(t, "Weekly", domain.Weekly.Label())
	assert.Equal(t, 30, domain.Monthly.Days())
}
