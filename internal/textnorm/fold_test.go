package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Élèves":            "eleves",
		"  Kill-Team  ":     "kill team",
		"Warhammer 40 000":  "warhammer 40 000",
		"VENDREDI":          "vendredi",
		"Nantes":            "nantes",
		"Aix-Marseille":     "aix marseille",
		"":                  "",
		"¿?":                "",
		"Âge   of  Sigmar!": "age of sigmar",
	}
	for input, want := range tests {
		assert.Equal(t, want, Fold(input), "input %q", input)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Élèves", "eleves"))
	assert.True(t, Equal("Créteil", "CRETEIL"))
	assert.False(t, Equal("Nantes", "Rennes"))
}
