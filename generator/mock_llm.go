package generator

import (
	"context"
	"strings"
)

// MockLLM is a local stand-in that never calls an external model.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	// Echo the last line of the user prompt so the flow is visible end to end.
	user := strings.TrimSpace(prompt.User)
	if i := strings.LastIndex(user, "\n"); i >= 0 {
		user = user[i+1:]
	}
	var sb strings.Builder
	if strings.Contains(prompt.System, "MOQ") {
		sb.WriteString("[모의 응답] 말씀 감사합니다. 초기 물량 조정을 다시 한번 검토 부탁드립니다. ")
	} else {
		sb.WriteString("[모의 응답] 소중한 답변 감사합니다. ")
	}
	sb.WriteString(user)
	return sb.String(), nil
}
