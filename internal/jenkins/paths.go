package jenkins

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FolderPath rewrites a slash-separated folder path into Jenkins URL form:
// "team/infra" becomes "job/team/job/infra". Segments already written in
// URL form ("job/team") are kept as they are.
func FolderPath(folder string) string {
	var parts []string
	literal := false
	for seg := range strings.SplitSeq(folder, "/") {
		switch {
		case seg == "":
		case literal:
			parts = append(parts, seg)
			literal = false
		case seg == "job":
			parts = append(parts, seg)
			literal = true
		default:
			parts = append(parts, "job", seg)
		}
	}
	return strings.Join(parts, "/")
}

// JobPath returns the URL path of a job, optionally nested in folder.
func JobPath(folder, name string) string {
	if p := FolderPath(folder); p != "" {
		return p + "/job/" + name
	}
	return "job/" + name
}

// TreeRange renders a tree query selecting fields of a list property
// restricted to [offset, offset+limit).
func TreeRange(property, fields string, offset, limit int) string {
	return fmt.Sprintf("%s[%s]{%d,%d}", property, fields, offset, offset+limit)
}

var queueLocation = regexp.MustCompile(`^.*/queue/item/(\d+)/$`)

// QueueIDFromLocation extracts the queue item ID from the Location header
// returned when a build is triggered.
func QueueIDFromLocation(location string) (int64, bool) {
	m := queueLocation.FindStringSubmatch(location)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// buildRef names a build by number, or the last build for zero.
func buildRef(number int) string {
	if number <= 0 {
		return "lastBuild"
	}
	return strconv.Itoa(number)
}
