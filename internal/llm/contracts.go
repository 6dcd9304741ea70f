package llm

import (
	"context"

	"github.com/joseph-ayodele/voice-studio/constants"
)

// TemplateFields is the normalized shape we want from the LLM.
type TemplateFields struct {
	Hook   string `json:"hook"`   // opening line that stops the scroll
	Bridge string `json:"bridge"` // transition from hook to the payoff
	Nugget string `json:"nugget"` // the golden nugget, the core value delivered
	WTA    string `json:"wta"`    // what to act on, the call to action
}

type ExtractRequest struct {
	Transcript string
	VideoID    string
	Title      string
	Platform   constants.Platform
	Username   string
	// MaxTranscriptChars caps the transcript sent in the prompt; 0 means DefaultTranscriptLimit.
	MaxTranscriptChars int
}

// TemplateExtractor is the interface the pipeline depends on.
type TemplateExtractor interface {
	ExtractTemplate(ctx context.Context, req ExtractRequest) (TemplateFields, []byte /*rawJSON*/, error)
}
