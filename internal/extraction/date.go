package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DateFormat identifies which matcher produced a date candidate
type DateFormat int

const (
	FormatMDYTime DateFormat = iota // MM/DD/YYYY followed by a time
	FormatMonthDY                   // Mar 15, 2024
	FormatMDY                       // MM/DD/YYYY
	FormatDMY                       // DD/MM/YYYY
	FormatDMonthY                   // 15 Mar 2024
	FormatISO                       // YYYY-MM-DD
)

func (f DateFormat) String() string {
	switch f {
	case FormatMDYTime:
		return "MM/DD/YYYY+time"
	case FormatMonthDY:
		return "MonthDDYYYY"
	case FormatMDY:
		return "MM/DD/YYYY"
	case FormatDMY:
		return "DD/MM/YYYY"
	case FormatDMonthY:
		return "DDMonthYYYY"
	case FormatISO:
		return "ISO"
	default:
		return "unknown"
	}
}

func (f DateFormat) namedMonth() bool {
	return f == FormatMonthDY || f == FormatDMonthY
}

// DateCandidate is one parsed date match
type DateCandidate struct {
	Raw        string
	Format     DateFormat
	Normalized string // YYYY-MM-DD, empty when the components are out of range
	Confidence int
	Priority   int
}

// Score is the effective ranking score of the candidate
func (c DateCandidate) Score() int {
	return c.Confidence * c.Priority
}

const (
	minYear = 2020
	maxYear = 2030
)

const monthNames = `(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?`

type dateMatcher struct {
	re       *regexp.Regexp
	format   DateFormat
	priority int
}

// Order matters: equal scores keep the first candidate found.
var dateMatchers = []dateMatcher{
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2}),?\s+\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AaPp][Mm])?`), FormatMDYTime, 12},
	{regexp.MustCompile(`(?i)\b` + monthNames + `\s+(\d{1,2}),?\s+(\d{4}|\d{2})\b`), FormatMonthDY, 9},
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`), FormatMDY, 10},
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`), FormatDMY, 8},
	{regexp.MustCompile(`(?i)\b(\d{1,2})\s+` + monthNames + `,?\s+(\d{4}|\d{2})\b`), FormatDMonthY, 7},
	{regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), FormatISO, 6},
}

var monthLookup = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ExtractDate returns the most plausible receipt date as YYYY-MM-DD, or nil
func ExtractDate(text string) *string {
	c, ok := best(dateCandidates(text), DateCandidate.Score, nil)
	if !ok {
		return nil
	}
	return &c.Normalized
}

// dateCandidates returns every valid date match in matcher order
func dateCandidates(text string) []DateCandidate {
	var candidates []DateCandidate
	for _, m := range dateMatchers {
		for _, match := range m.re.FindAllStringSubmatch(text, -1) {
			normalized := normalizeDate(m.format, match[1], match[2], match[3])
			if normalized == "" {
				continue
			}
			candidates = append(candidates, DateCandidate{
				Raw:        match[0],
				Format:     m.format,
				Normalized: normalized,
				Confidence: dateConfidence(m.format, match[0]),
				Priority:   m.priority,
			})
		}
	}
	return candidates
}

func dateConfidence(format DateFormat, raw string) int {
	confidence := 50
	if format.namedMonth() {
		confidence += 30
	}
	if format == FormatISO {
		confidence += 20
	}
	if strings.Contains(raw, ",") {
		confidence += 10
	}
	return confidence
}

// normalizeDate assigns the three captured groups to year/month/day according
// to format. Day-of-month is only checked against 1..31, so Feb 30 passes.
func normalizeDate(format DateFormat, a, b, c string) string {
	var month, day, year int
	switch format {
	case FormatMDYTime, FormatMDY:
		month, day, year = atoi(a), atoi(b), parseYear(c)
	case FormatDMY:
		day, month, year = atoi(a), atoi(b), parseYear(c)
	case FormatMonthDY:
		month, day, year = lookupMonth(a), atoi(b), parseYear(c)
	case FormatDMonthY:
		day, month, year = atoi(a), lookupMonth(b), parseYear(c)
	case FormatISO:
		year, month, day = atoi(a), atoi(b), atoi(c)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || year < minYear || year > maxYear {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func parseYear(s string) int {
	if len(s) == 2 {
		s = "20" + s
	}
	return atoi(s)
}

func lookupMonth(name string) int {
	name = strings.ToLower(name)
	if len(name) > 3 {
		name = name[:3]
	}
	return monthLookup[name]
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
