package model

import "time"

// DateLayoutISO is the canonical rendering of an incident date
const DateLayoutISO = "2006-01-02"

// IncidentDateLayouts lists the accepted incident date formats in priority
// order: YYYY-MM-DD, MM/DD/YYYY, DD/MM/YYYY, YYYY/MM/DD. Ambiguous inputs such
// as 03/04/2024 resolve to the first layout that parses.
var IncidentDateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"2006/1/2",
}

// ParseIncidentDate parses raw against IncidentDateLayouts and returns the
// date at midnight UTC
func ParseIncidentDate(raw string) (time.Time, bool) {
	for _, layout := range IncidentDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsWeekend reports whether t falls on a Saturday or Sunday
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DateOf truncates t to its calendar date, expressed at midnight UTC so that
// it compares cleanly with parsed incident dates
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IncidentDay parses incident_date when it is present and textual
func (c ClaimFields) IncidentDay() (time.Time, bool) {
	if !c.IncidentDate.Present() {
		return time.Time{}, false
	}
	raw, err := c.IncidentDate.Text()
	if err != nil {
		return time.Time{}, false
	}
	return ParseIncidentDate(raw)
}
