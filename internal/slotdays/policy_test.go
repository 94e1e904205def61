package slotdays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Weekdays{0, 1, 5}, Normalize([]int{5, 7, 1, 5, 0}))
	assert.Equal(t, Weekdays{}, Normalize([]int{8, -1}))
	assert.Equal(t, Weekdays{0}, Normalize([]int{7}))
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		input string
		want  Weekdays
	}{
		{input: "ven", want: Weekdays{5}},
		{input: "Vendredi", want: Weekdays{5}},
		{input: "5", want: Weekdays{5}},
		{input: "1,5", want: Weekdays{1, 5}},
		{input: "lun; ven  sam", want: Weekdays{1, 5, 6}},
		{input: "7", want: Weekdays{0}},
		{input: "dimanche, 7", want: Weekdays{0}},
		{input: "MERCREDI", want: Weekdays{3}},
		{input: "0, 8, 12", want: Weekdays{}},
		{input: "funday, ven", want: Weekdays{5}},
		{input: "", want: Weekdays{}},
		{input: "n'importe quoi", want: Weekdays{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInput(tt.input))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Ven", Format(Default))
	assert.Equal(t, "Dim, Lun, Ven", Format(Weekdays{5, 1, 0}))
	assert.Equal(t, "", Format(nil))
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, days := range []Weekdays{{5}, {0, 6}, {0, 1, 2, 3, 4, 5, 6}} {
		encoded := Encode(days)
		assert.Equal(t, Normalize(days), ParseInput(encoded), "encoded %q", encoded)
	}
	assert.Equal(t, "5,7", Encode(Weekdays{0, 5}))
}

func TestIsSlotDay(t *testing.T) {
	friday := time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsSlotDay(friday, Default))
	assert.False(t, IsSlotDay(sunday, Default))
	assert.True(t, IsSlotDay(sunday, Weekdays{7}))
}
