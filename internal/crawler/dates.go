package crawler

import (
	"regexp"
	"time"
)

// dateShape finds the first date-looking substring: day, month (name or
// number) and four-digit year separated by '-', '/' or space.
var dateShape = regexp.MustCompile(`(\d{1,2}[-/ ](?:[A-Za-z]{3,9}|\d{1,2})[-/ ]\d{4})`)

// dateLayouts are tried in order; the first that parses wins.
// Month names match case-insensitively.
var dateLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"2-1-2006",
	"2006-1-2",
}

// isoDate is the normalized output format.
const isoDate = "2006-01-02"

// ParseDate returns the first date found in text as YYYY-MM-DD.
// Only the first date-shaped substring is considered; if no layout accepts
// it, the date is absent (nil).
func ParseDate(text string) *string {
	match := dateShape.FindString(text)
	if match == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, match)
		if err == nil {
			iso := t.Format(isoDate)
			return &iso
		}
	}
	return nil
}
