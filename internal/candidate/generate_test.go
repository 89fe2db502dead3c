package candidate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mailprobe/internal/candidate"
)

func TestGenerate(t *testing.T) {
	got := candidate.Generate("John", "Doe", "Example.org")
	assert.Equal(t, []string{
		"john.doe@example.org",
		"johndoe@example.org",
		"jdoe@example.org",
		"johnd@example.org",
		"john_doe@example.org",
		"john-doe@example.org",
		"doe.john@example.org",
		"j.doe@example.org",
	}, got)
}

func TestGenerate_Deduplicates(t *testing.T) {
	// Single-letter names make several patterns collide.
	got := candidate.Generate("a", "b", "x.io")
	assert.Equal(t, []string{
		"a.b@x.io",
		"ab@x.io",
		"a_b@x.io",
		"a-b@x.io",
		"b.a@x.io",
	}, got)
}

func TestGenerate_EmptyInput(t *testing.T) {
	assert.Nil(t, candidate.Generate("", "Doe", "example.org"))
	assert.Nil(t, candidate.Generate("John", "  ", "example.org"))
	assert.Nil(t, candidate.Generate("John", "Doe", ""))
}

func TestGenerate_Unicode(t *testing.T) {
	got := candidate.Generate("Émile", "Zola", "example.fr")
	assert.Contains(t, got, "ézola@example.fr")
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"John Doe", "John", "Doe"},
		{"  John   Ronald  Tolkien ", "John", "Tolkien"},
		{"Cher", "Cher", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := candidate.SplitFullName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
