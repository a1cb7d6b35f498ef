package generator

import (
	"context"
	"errors"
)

// Agent drafts brand-side replies: rewrites of questionnaire answers and turns
// in the MOQ negotiation.
type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

// DraftReply rewrites a staged questionnaire answer from the brand's side.
func (a *Agent) DraftReply(ctx context.Context, answer string) (string, error) {
	return a.complete(ctx, BuildDraftPrompt(answer))
}

// NegotiationReply produces the brand's next message in the MOQ negotiation.
func (a *Agent) NegotiationReply(ctx context.Context, brief NegotiationBrief) (string, error) {
	return a.complete(ctx, BuildNegotiationPrompt(brief))
}

func (a *Agent) complete(ctx context.Context, prompt Prompt) (string, error) {
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			return "", err
		}
		return "", &ProviderError{Provider: "llm", Err: err}
	}
	text, err := PostProcess(raw)
	if err != nil {
		return "", &ProviderError{Provider: "llm", Err: err}
	}
	return text, nil
}
