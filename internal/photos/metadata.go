package photos

import "time"

// observedOnLayout matches the timestamp format the observations endpoint
// accepts for observed_on_string.
const observedOnLayout = "2006-01-02 15:04:05"

// Metadata is the subset of photo metadata the workflow cares about.
type Metadata struct {
	Latitude   *float64
	Longitude  *float64
	CapturedAt time.Time
	Keywords   []string
}

// HasGPS reports whether the photo carries a usable coordinate pair.
func (m Metadata) HasGPS() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// ObservedOn renders the capture time for observation submission. Empty when
// the photo has no capture timestamp.
func (m Metadata) ObservedOn() string {
	if m.CapturedAt.IsZero() {
		return ""
	}
	return m.CapturedAt.Format(observedOnLayout)
}

// Reader extracts metadata from a photo on disk.
type Reader interface {
	Read(path string) (Metadata, error)
}

// TagWriter appends keywords to a photo's keyword list, preserving existing
// entries and skipping duplicates.
type TagWriter interface {
	AddKeywords(path string, keywords []string) error
}
