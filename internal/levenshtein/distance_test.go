package levenshtein_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mailprobe/internal/levenshtein"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		s, t string
		want int
	}{
		{"", "", 0},
		{"a", "", 1},
		{"", "a", 1},
		{"gmail.com", "gmail.com", 0},
		{"gmial.com", "gmail.com", 2},   // two swaps
		{"gmal.com", "gmail.com", 1},    // one missing letter
		{"gmailll.com", "gmail.com", 2}, // two extra letters
		{"kitten", "sitting", 3},
		{"münchen.de", "munchen.de", 1},
	}
	for _, tt := range tests {
		t.Run(tt.s+"->"+tt.t, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshtein.Distance(tt.s, tt.t))
			assert.Equal(t, tt.want, levenshtein.Distance(tt.t, tt.s))
		})
	}
}

func TestWithin(t *testing.T) {
	d, ok := levenshtein.Within("gmial.com", "gmail.com", 2)
	assert.True(t, ok)
	assert.Equal(t, 2, d)

	_, ok = levenshtein.Within("example.org", "gmail.com", 2)
	assert.False(t, ok)

	_, ok = levenshtein.Within("a", "abcdef", 2) // length gap alone exceeds max
	assert.False(t, ok)

	d, ok = levenshtein.Within("same", "same", 0)
	assert.True(t, ok)
	assert.Equal(t, 0, d)

	_, ok = levenshtein.Within("a", "b", -1)
	assert.False(t, ok)
}
