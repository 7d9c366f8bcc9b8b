// Package version parses release tags into {major, minor, revision} triples
// and compares them component-wise.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the version of this build. Overridden at link time via
// -ldflags "-X naturatag/internal/version.Current=...".
var Current = "0.1.0"

// Triple is a parsed semantic version tag.
type Triple struct {
	Major    int
	Minor    int
	Revision int
}

// Status describes how a local version relates to a remote one.
type Status int

const (
	// StatusUnknown means the remote tag was unavailable or unparsable.
	StatusUnknown Status = iota
	// StatusOutdated means the remote version is newer than the local one.
	StatusOutdated
	// StatusUpToDate means local and remote versions match.
	StatusUpToDate
	// StatusNewer means the local version is ahead of the remote one.
	StatusNewer
)

func (s Status) String() string {
	switch s {
	case StatusOutdated:
		return "outdated"
	case StatusUpToDate:
		return "up-to-date"
	case StatusNewer:
		return "newer-than-remote"
	default:
		return "unknown"
	}
}

// Parse converts a release tag such as "1.2.3" or "v1.2.3" into a Triple.
func Parse(tag string) (Triple, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if trimmed == "" {
		return Triple{}, fmt.Errorf("empty version tag")
	}

	parts := strings.SplitN(trimmed, ".", 3)
	if len(parts) != 3 {
		return Triple{}, fmt.Errorf("version tag %q: expected major.minor.revision", tag)
	}

	values := make([]int, 3)
	for i, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 {
			return Triple{}, fmt.Errorf("version tag %q: component %q is not a non-negative integer", tag, part)
		}
		values[i] = value
	}

	return Triple{Major: values[0], Minor: values[1], Revision: values[2]}, nil
}

// Compare orders local against remote component by component.
func Compare(local, remote Triple) Status {
	switch {
	case local.Major != remote.Major:
		return orderStatus(local.Major, remote.Major)
	case local.Minor != remote.Minor:
		return orderStatus(local.Minor, remote.Minor)
	case local.Revision != remote.Revision:
		return orderStatus(local.Revision, remote.Revision)
	default:
		return StatusUpToDate
	}
}

// CompareTags parses both tags and compares them. An unparsable remote tag
// resolves to StatusUnknown; an unparsable local tag is a caller bug and is
// reported the same way.
func CompareTags(localTag, remoteTag string) Status {
	local, err := Parse(localTag)
	if err != nil {
		return StatusUnknown
	}
	remote, err := Parse(remoteTag)
	if err != nil {
		return StatusUnknown
	}
	return Compare(local, remote)
}

func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Revision)
}

func orderStatus(local, remote int) Status {
	if local < remote {
		return StatusOutdated
	}
	return StatusNewer
}
