package repository

import (
	"fmt"
	"time"
)

// timestampLayout is fixed width so stored timestamps compare correctly as text.
const timestampLayout = "2006-01-02 15:04:05.000000"

// ParseTime parses a date string in "2006-01-02", the stored timestamp layout or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", timestampLayout, time.RFC3339} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %q", str)
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
