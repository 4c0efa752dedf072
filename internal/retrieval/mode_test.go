package retrieval_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"studyhall/apps/backend/internal/retrieval"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  retrieval.Mode
	}{
		{"focused", retrieval.ModeFocused},
		{"regular", retrieval.ModeRegular},
		{"socratic", retrieval.ModeSocratic},
		{"deeper", retrieval.ModeDeeper},
		{"  Deeper ", retrieval.ModeDeeper},
		{"", retrieval.ModeRegular},
		{"unknown", retrieval.ModeRegular},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, retrieval.ParseMode(tt.input))
		})
	}
}

func TestInstructions_Modes(t *testing.T) {
	focused := retrieval.Instructions(retrieval.ModeFocused, false)
	socratic := retrieval.Instructions(retrieval.ModeSocratic, false)
	deeper := retrieval.Instructions(retrieval.ModeDeeper, false)
	regular := retrieval.Instructions(retrieval.ModeRegular, false)

	assert.Contains(t, focused, "briefly")
	assert.Contains(t, socratic, "guiding questions")
	assert.Contains(t, deeper, "exhaustively")
	assert.Contains(t, regular, "conversational")

	// Each mode produces a distinct directive.
	all := []string{focused, socratic, deeper, regular}
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.NotEqual(t, all[i], all[j])
		}
	}
}

func TestInstructions_ContextOnly(t *testing.T) {
	with := retrieval.Instructions(retrieval.ModeRegular, true)
	without := retrieval.Instructions(retrieval.ModeRegular, false)

	assert.Contains(t, with, retrieval.ContextOnlyRefusal)
	assert.Contains(t, with, "ONLY the provided source material")
	assert.False(t, strings.Contains(without, retrieval.ContextOnlyRefusal))
}
