// Package slotdays holds the weekday policy: which days of the week host a slot.
package slotdays

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mauv0809/munitorum/internal/textnorm"
)

// Weekdays is a set of weekdays, Sunday = 0, deduplicated and sorted.
type Weekdays []int

// Default is used when no policy has been configured: Fridays only.
var Default = Weekdays{5}

var labels = [...]string{"Dim", "Lun", "Mar", "Mer", "Jeu", "Ven", "Sam"}

// Accepted names, in the input convention where Sunday is 7.
var names = map[string]int{
	"lun": 1, "lundi": 1,
	"mar": 2, "mardi": 2,
	"mer": 3, "mercredi": 3,
	"jeu": 4, "jeudi": 4,
	"ven": 5, "vendredi": 5,
	"sam": 6, "samedi": 6,
	"dim": 7, "dimanche": 7,
}

var separators = regexp.MustCompile(`[,;\s]+`)

// Normalize folds 7 to 0, drops values outside 0..6, removes duplicates and sorts.
func Normalize(days []int) Weekdays {
	seen := make(map[int]bool, len(days))
	out := Weekdays{}
	for _, d := range days {
		if d == 7 {
			d = 0
		}
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// ParseInput reads a list such as "ven", "1 5" or "Lundi; vendredi".
// Numbers are 1..7 with 7 meaning Sunday. Unknown tokens are ignored, so the
// result may be empty; callers must reject an empty set.
func ParseInput(text string) Weekdays {
	var days []int
	for _, token := range separators.Split(text, -1) {
		token = textnorm.Fold(token)
		if token == "" {
			continue
		}
		if n, err := strconv.Atoi(token); err == nil {
			if n >= 1 && n <= 7 {
				days = append(days, n)
			}
			continue
		}
		if d, ok := names[token]; ok {
			days = append(days, d)
		}
	}
	return Normalize(days)
}

// Format renders the set as "Lun, Ven".
func Format(days Weekdays) string {
	parts := make([]string, 0, len(days))
	for _, d := range Normalize(days) {
		parts = append(parts, labels[d])
	}
	return strings.Join(parts, ", ")
}

// Encode renders the set in the input convention ("5,7") so that ParseInput
// reads it back unchanged.
func Encode(days Weekdays) string {
	parts := make([]string, 0, len(days))
	for _, d := range Normalize(days) {
		if d == 0 {
			d = 7
		}
		parts = append(parts, strconv.Itoa(d))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// IsSlotDay reports whether date falls on one of the days.
func IsSlotDay(date time.Time, days Weekdays) bool {
	wd := int(date.Weekday())
	for _, d := range Normalize(days) {
		if d == wd {
			return true
		}
	}
	return false
}
