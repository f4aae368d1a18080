package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// AmountCandidate is one currency figure found next to a keyword
type AmountCandidate struct {
	Raw      string
	Value    float64
	Priority int
}

// Totals outside (0, maxAmount) are treated as noise.
const maxAmount = 10000

const money = `\$?\s*(\d[\d,]*\.\d{2})`

type amountMatcher struct {
	re       *regexp.Regexp
	priority int
}

var amountMatchers = []amountMatcher{
	{regexp.MustCompile(`(?i)grand\s*total[:\s]*` + money), 95},
	{regexp.MustCompile(`(?i)\btotal[:\s]*` + money), 90},
	{regexp.MustCompile(`(?i)final\s*total[:\s]*` + money), 85},
	{regexp.MustCompile(`(?i)\$\s*(\d[\d,]*\.\d{2})\s*total`), 85},
	{regexp.MustCompile(`(?i)amount\s*due[:\s]*` + money), 80},
	{regexp.MustCompile(`(?im)\btotal\b[^\d\n]*?\$?(\d[\d,]*\.\d{2})[ \t]*$`), 75},
	{regexp.MustCompile(`(?i)\bbalance(?:\s*due)?[:\s]*` + money), 70},
	{regexp.MustCompile(`(?i)\bsub[\s-]*total[:\s]*` + money), 60},
	{regexp.MustCompile(`(?i)\b(?:tax|hst|gst|pst)[:\s]*` + money), 50},
	{regexp.MustCompile(`\$\s*(\d[\d,]*\.\d{2})`), 30},
}

// ExtractTotal returns the most plausible receipt total, or nil
func ExtractTotal(text string) *float64 {
	c, ok := best(amountCandidates(text), func(c AmountCandidate) int { return c.Priority }, largerAmount)
	if !ok {
		return nil
	}
	return &c.Value
}

// amountCandidates returns every in-range amount match in matcher order
func amountCandidates(text string) []AmountCandidate {
	var candidates []AmountCandidate
	for _, m := range amountMatchers {
		for _, match := range m.re.FindAllStringSubmatch(text, -1) {
			value, ok := parseAmount(match[1])
			if !ok {
				continue
			}
			candidates = append(candidates, AmountCandidate{
				Raw:      match[0],
				Value:    value,
				Priority: m.priority,
			})
		}
	}
	return candidates
}

func parseAmount(s string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || value <= 0 || value >= maxAmount {
		return 0, false
	}
	return value, true
}

// largerAmount prefers the bigger figure among equal-priority matches; the
// after-tax total is usually the largest "total" on the page.
func largerAmount(a, b AmountCandidate) int {
	switch {
	case a.Value > b.Value:
		return 1
	case a.Value < b.Value:
		return -1
	default:
		return 0
	}
}
