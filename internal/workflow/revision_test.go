package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextRevision(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want string
	}{
		{"first revision", "RV01", "RV02"},
		{"mid sequence", "RV03", "RV04"},
		{"crosses padding boundary", "RV09", "RV10"},
		{"beyond two digits", "RV99", "RV100"},
		{"empty tag", "", "RV01"},
		{"missing prefix", "01", "RV01"},
		{"non-numeric suffix", "RVxx", "RV01"},
		{"bare prefix", "RV", "RV01"},
		{"negative suffix", "RV-3", "RV01"},
		{"zero suffix", "RV00", "RV01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextRevision(tt.tag))
		})
	}
}
