package scanning

import "strings"

// noTextSentinel is what the transcription prompt asks the model to answer
// when the image holds no readable text.
const noTextSentinel = "NO_TEXT"

// transcribePrompt is shared by all model-backed scanners
const transcribePrompt = `Transcribe all text printed on this receipt exactly as it appears.

Rules:
- Keep the original line breaks, one printed line per output line
- Keep numbers, prices, dates and punctuation exactly as printed
- Do not summarize, translate, correct or reorder anything
- Do not add commentary and do not use markdown code blocks
- If the image contains no readable text, answer with exactly ` + noTextSentinel

// cleanTranscript strips the wrapping a model sometimes adds around a
// transcription and maps the no-text sentinel to "".
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		// drop the opening fence along with any language tag
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	text = strings.TrimSpace(text)
	if text == noTextSentinel {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
