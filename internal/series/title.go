package series

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Occurrence titles carry a human-readable week marker, e.g.
// "Mathe 10b (Woche 3/40)". The structured SeriesIndex/SeriesTotal fields
// are authoritative; the suffix exists for display and as a fallback signal
// when reading legacy rows that predate those fields.
var titleSuffixPattern = regexp.MustCompile(`^(.*?)\s*\(Woche (\d+)/(\d+)\)$`)

// FormatTitle appends the week marker to a base title.
func FormatTitle(baseTitle string, index, total int) string {
	return fmt.Sprintf("%s (Woche %d/%d)", baseTitle, index, total)
}

// ParseTitleSuffix splits a title into its base and week marker. It reports
// false when the title carries no marker.
func ParseTitleSuffix(title string) (baseTitle string, index, total int, ok bool) {
	m := titleSuffixPattern.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return title, 0, 0, false
	}
	index, _ = strconv.Atoi(m[2])
	total, _ = strconv.Atoi(m[3])
	return m[1], index, total, true
}

// BaseTitle strips any week marker from a title.
func BaseTitle(title string) string {
	base, _, _, _ := ParseTitleSuffix(title)
	return base
}

func hasWeekSuffix(title string, index, total int) bool {
	return strings.HasSuffix(strings.TrimSpace(title), fmt.Sprintf("(Woche %d/%d)", index, total))
}
