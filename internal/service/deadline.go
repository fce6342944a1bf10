package service

import (
	"strings"
	"time"
)

// Layouts tried for zone-suffixed inputs, in order.
var zonedDeadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// Layouts tried for timezone-less inputs, in order.
var naiveDeadlineLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
	"2006-01-02",
}

// defaultDeadlineHour is assumed when a dotted date carries no time.
const defaultDeadlineHour = 9

// ParseDeadline parses a model-supplied deadline string. It accepts
// RFC 3339 (with or without seconds), ISO date-times and dates without a
// zone, and DD.MM.YYYY with an optional time; the dotted date-only form
// defaults to 09:00. Naive values are taken as UTC. Anything unparsable
// yields nil.
func ParseDeadline(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range zonedDeadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}

	for _, layout := range naiveDeadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}

	if t, err := time.ParseInLocation("02.01.2006", s, time.UTC); err == nil {
		t = t.Add(defaultDeadlineHour * time.Hour)
		return &t
	}

	return nil
}
