package vacations

import (
	"errors"
	"time"
)

const (
	// DefaultBaseURL is the records endpoint of the French school calendar dataset.
	DefaultBaseURL = "https://data.education.gouv.fr/api/explore/v2.1/catalog/datasets/fr-en-calendrier-scolaire/records"
	// DefaultPopulation restricts the calendar to pupils' holidays.
	DefaultPopulation = "Élèves"
	// CacheTTL is how long a fetched calendar is trusted.
	CacheTTL = 12 * time.Hour

	defaultPageSize = 100
)

var (
	// ErrEmptyCalendar is returned when the remote source has no period for the region.
	ErrEmptyCalendar = errors.New("vacations: calendar has no period for region")
	// ErrUnexpectedStatus is returned when the remote source answers with a non 2xx status.
	ErrUnexpectedStatus = errors.New("vacations: unexpected status from calendar api")
)

// Record is one row of the remote calendar dataset.
type Record struct {
	Description string `json:"description"`
	Population  string `json:"population"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Location    string `json:"location"`
	Zones       string `json:"zones"`
	SchoolYear  string `json:"annee_scolaire"`
}

type recordsPage struct {
	TotalCount int      `json:"total_count"`
	Results    []Record `json:"results"`
}

// Period is a closure window. Start and End are instants as published by the
// source; they are converted to calendar days in the resolver's timezone.
type Period struct {
	Description string
	Start       time.Time
	End         time.Time
}

// Reason explains why a date is, or is assumed, open or closed.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonEveOfClosure        Reason = "eve_of_closure"
	ReasonClosurePeriod       Reason = "closure_period"
	ReasonCalendarUnavailable Reason = "calendar_unavailable"
)

// Label is the French wording shown to members.
func (r Reason) Label() string {
	switch r {
	case ReasonEveOfClosure:
		return "Veille de vacances scolaires"
	case ReasonClosurePeriod:
		return "Vacances scolaires"
	case ReasonCalendarUnavailable:
		return "Calendrier indisponible"
	default:
		return ""
	}
}

// ClosureInfo is the answer to "is this date closed, and why".
type ClosureInfo struct {
	Closed bool
	Reason Reason
	Period *Period
}

// Entry is the cached result of one successful fetch.
type Entry struct {
	Region    string
	FetchedAt time.Time
	ExpiresAt time.Time
	Periods   []Period
}
