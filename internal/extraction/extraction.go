// Package extraction turns raw OCR receipt text into structured fields.
//
// Each extractor collects every regex match as a candidate, weights it with a
// static priority and keeps the best one. All pattern tables are compiled once
// at package init and only read afterwards, so every function here is safe
// for concurrent use.
package extraction

import (
	"strings"
	"time"
)

// Result is the structured output of one pipeline run
type Result struct {
	Date              *string   `json:"date"`  // YYYY-MM-DD
	Total             *float64  `json:"total"` // dollars
	Merchant          *string   `json:"merchant"`
	Location          *Location `json:"location"`
	SuggestedCategory Category  `json:"suggestedCategory"`
	Lines             []string  `json:"lines"`
	ExtractedAt       time.Time `json:"extractedAt"`
}

// Found reports how many of the extracted fields were filled
func (r *Result) Found() int {
	n := 0
	if r.Date != nil {
		n++
	}
	if r.Total != nil {
		n++
	}
	if r.Merchant != nil {
		n++
	}
	if r.Location != nil {
		n++
	}
	return n
}

// Pipeline runs all extractors against one OCR text blob
type Pipeline struct {
	now func() time.Time
}

// NewPipeline creates a Pipeline that stamps results with the wall clock
func NewPipeline() *Pipeline {
	return NewPipelineWithClock(time.Now)
}

// NewPipelineWithClock creates a Pipeline with a custom clock for testing
func NewPipelineWithClock(now func() time.Time) *Pipeline {
	return &Pipeline{now: now}
}

var defaultPipeline = NewPipeline()

// Extract runs the default pipeline
func Extract(text string) *Result {
	return defaultPipeline.Extract(text)
}

// Extract runs every extractor over text and assembles a Result.
// Empty or whitespace-only text yields nil.
func (p *Pipeline) Extract(text string) *Result {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	merchant := ExtractMerchant(text)

	return &Result{
		Date:              ExtractDate(text),
		Total:             ExtractTotal(text),
		Merchant:          merchant,
		Location:          ExtractLocation(text),
		SuggestedCategory: ClassifyReceipt(merchant, text),
		Lines:             nonBlankLines(text),
		ExtractedAt:       p.now(),
	}
}

// nonBlankLines splits text into trimmed lines and drops the empty ones
func nonBlankLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// best returns the candidate with the highest weight. Equal weights go to
// tiebreak (positive means a beats b); when that is nil or returns zero the
// earliest candidate wins.
func best[T any](candidates []T, weight func(T) int, tiebreak func(a, b T) int) (T, bool) {
	var winner T
	if len(candidates) == 0 {
		return winner, false
	}

	winner = candidates[0]
	for _, c := range candidates[1:] {
		wc, ww := weight(c), weight(winner)
		if wc > ww || (wc == ww && tiebreak != nil && tiebreak(c, winner) > 0) {
			winner = c
		}
	}
	return winner, true
}
