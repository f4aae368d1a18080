package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MerchantCandidate is one header line that could be the business name
type MerchantCandidate struct {
	Line      string
	LineIndex int
	Score     int
}

const (
	merchantLines     = 5
	merchantMinLength = 3
	merchantMaxLength = 50
)

var (
	reNumericLine     = regexp.MustCompile(`^\d+$`)
	reNumberPunctLine = regexp.MustCompile(`^[\d\s\p{P}\p{S}]+$`)
	reBusinessSuffix  = regexp.MustCompile(`(?i)\b(?:inc|llc|corp|ltd|company)\b|\bco\.`)
	reBusinessType    = regexp.MustCompile(`(?i)\b(?:store|shop|market|restaurant|cafe|bar|grill)\b`)
)

var genericReceiptTerms = map[string]struct{}{
	"receipt": {},
	"invoice": {},
	"bill":    {},
	"order":   {},
}

// ExtractMerchant returns the most plausible business name from the top of
// the receipt, or nil
func ExtractMerchant(text string) *string {
	c, ok := best(merchantCandidates(text), func(c MerchantCandidate) int { return c.Score }, nil)
	if !ok {
		return nil
	}
	return &c.Line
}

func merchantCandidates(text string) []MerchantCandidate {
	lines := nonBlankLines(text)
	if len(lines) > merchantLines {
		lines = lines[:merchantLines]
	}

	var candidates []MerchantCandidate
	for i, line := range lines {
		if !plausibleMerchant(line) {
			continue
		}
		candidates = append(candidates, MerchantCandidate{
			Line:      line,
			LineIndex: i,
			Score:     merchantScore(line, i),
		})
	}
	return candidates
}

func plausibleMerchant(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < merchantMinLength || n > merchantMaxLength {
		return false
	}
	if reNumericLine.MatchString(line) || reNumberPunctLine.MatchString(line) || dateLine(line) {
		return false
	}
	_, generic := genericReceiptTerms[strings.ToLower(line)]
	return !generic
}

// dateLine reports whether the whole line is a date such as "Mar 15, 2024"
func dateLine(line string) bool {
	for _, m := range dateMatchers {
		if m.re.FindString(line) == line {
			return true
		}
	}
	return false
}

func merchantScore(line string, index int) int {
	score := 50
	if reBusinessSuffix.MatchString(line) {
		score += 30
	}
	if reBusinessType.MatchString(line) {
		score += 20
	}
	switch index {
	case 0:
		score += 20
	case 1:
		score += 10
	}
	return score
}
