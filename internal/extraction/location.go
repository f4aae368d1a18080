package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Location is a US-style city/state/zip found on a receipt
type Location struct {
	City    string  `json:"city"`
	State   string  `json:"state"`
	Zip     *string `json:"zip"`
	Address *string `json:"address"`
	Full    string  `json:"full"`
}

// LocationCandidate is a validated location match and its pattern weight
type LocationCandidate struct {
	Location
	Priority int
}

const cityPattern = `\b([A-Za-z][A-Za-z .'-]*)`

type locationMatcher struct {
	re       *regexp.Regexp
	priority int
	hasZip   bool
}

// State codes are matched case-sensitively; a lowercase "wa" is not a state.
var locationMatchers = []locationMatcher{
	{regexp.MustCompile(cityPattern + `,[ \t]*([A-Z]{2})[ \t]+(\d{5}(?:-\d{4})?)\b`), 90, true},
	{regexp.MustCompile(cityPattern + `[ \t]+([A-Z]{2})[ \t]+(\d{5}(?:-\d{4})?)\b`), 85, true},
	{regexp.MustCompile(cityPattern + `,[ \t]*([A-Z]{2})\b`), 80, false},
	{regexp.MustCompile(`(?m)` + cityPattern + `[ \t]+([A-Z]{2})[ \t]*$`), 65, false},
}

var (
	reStateCode     = regexp.MustCompile(`^[A-Z]{2}$`)
	reStreetAddress = regexp.MustCompile(`^\d+[A-Za-z]?\s+[A-Za-z0-9 .'#,-]+$`)
)

// ExtractLocation returns the most specific city/state found in text, or nil
func ExtractLocation(text string) *Location {
	c, ok := best(locationCandidates(text), func(c LocationCandidate) int { return c.Priority }, nil)
	if !ok {
		return nil
	}
	loc := c.Location
	return &loc
}

func locationCandidates(text string) []LocationCandidate {
	var candidates []LocationCandidate
	for _, m := range locationMatchers {
		for _, idx := range m.re.FindAllStringSubmatchIndex(text, -1) {
			city := strings.Trim(text[idx[2]:idx[3]], " .'-")
			state := text[idx[4]:idx[5]]
			if utf8.RuneCountInString(city) < 3 || !reStateCode.MatchString(state) {
				continue
			}

			loc := Location{City: city, State: state}
			if m.hasZip {
				zip := text[idx[6]:idx[7]]
				loc.Zip = &zip
			}
			loc.Address = addressBefore(text, idx[0])
			loc.Full = formatLocation(loc)

			candidates = append(candidates, LocationCandidate{Location: loc, Priority: m.priority})
		}
	}
	return candidates
}

// addressBefore returns the line preceding offset when it looks like a
// street address ("123 Main St")
func addressBefore(text string, offset int) *string {
	lineStart := strings.LastIndex(text[:offset], "\n")
	if lineStart <= 0 {
		return nil
	}
	prev := text[:lineStart]
	if i := strings.LastIndex(prev, "\n"); i >= 0 {
		prev = prev[i+1:]
	}
	prev = strings.TrimSpace(prev)
	if !reStreetAddress.MatchString(prev) {
		return nil
	}
	return &prev
}

func formatLocation(loc Location) string {
	full := loc.City + ", " + loc.State
	if loc.Zip != nil {
		full += " " + *loc.Zip
	}
	return full
}

// IsPotentialTrip reports whether a receipt location differs from the user's
// home location. Unknown locations never count as a trip.
func IsPotentialTrip(receipt, home *Location) bool {
	if receipt == nil || home == nil {
		return false
	}
	return !strings.EqualFold(receipt.City, home.City) || !strings.EqualFold(receipt.State, home.State)
}
