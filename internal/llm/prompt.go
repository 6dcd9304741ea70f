package llm

import (
	"strings"
)

const DefaultTranscriptLimit = 6000

// BuildSystemPrompt describes the four-part structure and the output rules.
func BuildSystemPrompt() string {
	parts := []string{
		"You analyze short-form social video scripts. Return ONLY JSON that matches the provided JSON Schema.",
		"Split the transcript into four parts and copy the creator's own wording where possible.",
		"'hook': the opening line or two that grabs attention.",
		"'bridge': the transition that connects the hook to the main point.",
		"'nugget': the golden nugget, the single most valuable insight, tip or story beat.",
		"'wta': the closing call to action (follow, comment, save, try this).",
		"If a part is implicit, write a one-sentence paraphrase in the creator's voice instead of leaving it empty.",
		"Never output null and never add other keys.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the transcript with light context. The transcript is
// cut at limit characters.
func BuildUserPrompt(req ExtractRequest) string {
	limit := req.MaxTranscriptChars
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}

	var b strings.Builder
	if u := strings.TrimSpace(req.Username); u != "" {
		b.WriteString("Creator: @")
		b.WriteString(u)
		b.WriteString("\n")
	}
	if p := strings.TrimSpace(string(req.Platform)); p != "" {
		b.WriteString("Platform: ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	if t := strings.TrimSpace(req.Title); t != "" {
		b.WriteString("Video title: ")
		b.WriteString(t)
		b.WriteString("\n")
	}

	transcript, cut := truncateRunes(strings.TrimSpace(req.Transcript), limit)
	b.WriteString("\nTranscript:\n")
	b.WriteString(transcript)
	if cut {
		b.WriteString("\n…(truncated)")
	}
	return b.String()
}

func truncateRunes(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	r := []rune(s)
	if len(r) <= limit {
		return s, false
	}
	return string(r[:limit]), true
}
