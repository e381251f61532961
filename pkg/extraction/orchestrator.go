package extraction

import (
	"context"
	"strings"
	"time"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/ragstore"
)

// Phrases that mean the model is answering from thin air instead of the
// document. Matching any of these hard-aborts extraction for the
// attachment: retrying a refusal burns a multi-minute round trip and the
// retry is the call most likely to fabricate content.
var refusalPhrases = []string{
	"cannot access document",
	"cannot access the document",
	"do not have access to external documents",
	"don't have access to the document",
	"do not have access to the document",
	"unable to access the document",
	"no document has been provided",
	"no document was provided",
	"hypothetical content",
	"hypothetical document",
	"i don't see any document",
	"i do not see any document",
}

// Orchestrator issues the combined accessibility-probe + extraction query
// once embedding is confirmed.
type Orchestrator struct {
	backend ragstore.Client
	timeout time.Duration
	logger  logger.ILogger
}

func NewOrchestrator(backend ragstore.Client, timeout time.Duration, log logger.ILogger) *Orchestrator {
	return &Orchestrator{backend: backend, timeout: timeout, logger: log}
}

// Query runs the extraction prompt. It returns aborted=true when the
// response contains an explicit inaccessibility admission; the caller
// must return an empty result for the attachment in that case.
func (o *Orchestrator) Query(ctx context.Context, ws *ragstore.Workspace, prompts *PromptBuilder) (response string, aborted bool, err error) {
	response, err = o.backend.Chat(ctx, ws.Slug, prompts.BuildExtraction(), o.timeout)
	if err != nil {
		return "", false, err
	}

	if phrase, refused := DetectRefusal(response); refused {
		o.logger.Error("orchestrator", "Model reported it cannot see the document, aborting extraction", map[string]interface{}{
			"workspace": ws.Slug,
			"phrase":    phrase,
		})
		return response, true, nil
	}
	return response, false, nil
}

// DetectRefusal reports whether the response contains an explicit
// cannot-see-the-document admission, and which phrase matched.
func DetectRefusal(response string) (string, bool) {
	lowered := strings.ToLower(response)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lowered, phrase) {
			return phrase, true
		}
	}
	return "", false
}
