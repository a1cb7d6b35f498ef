package generator

import (
	"fmt"
	"strings"
)

const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Speaker labels used when a transcript is rendered into prompt text.
const (
	BrandLabel        = "브랜드사"
	ManufacturerLabel = "제조사"
)

// Prompt is the set of messages sent to the LLM.
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Message is one chat entry. In a negotiation the assistant speaks for the
// brand and the user for the manufacturer.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NegotiationBrief carries what the model needs to answer the manufacturer.
type NegotiationBrief struct {
	TargetMOQ   int
	ProposedMOQ int
	// History is the transcript before Latest, oldest first.
	History []Message
	Latest  string
}

// BuildDraftPrompt asks for a polite brand-side rewrite of a staged answer.
func BuildDraftPrompt(answer string) Prompt {
	return Prompt{
		User: fmt.Sprintf("브랜드사 입장에서 친절하게 답변해주세요.: %s", answer),
	}
}

// BuildNegotiationPrompt frames the model as the brand's negotiator.
func BuildNegotiationPrompt(brief NegotiationBrief) Prompt {
	var sb strings.Builder
	sb.WriteString("당신은 브랜드사의 담당자입니다. 제조사와 MOQ 협상을 진행중입니다.\n")
	sb.WriteString(fmt.Sprintf("- 목표 MOQ: %d개\n", brief.TargetMOQ))
	sb.WriteString(fmt.Sprintf("- 제조사 제시 MOQ: %d개\n", brief.ProposedMOQ))
	sb.WriteString("- 협상 전략:\n")
	sb.WriteString("  1. 스타트업이라 초기 물량이 적다는 점을 강조\n")
	sb.WriteString("  2. 다음과 같은 조건들을 제안할 수 있음:\n")
	sb.WriteString("     - 장기 계약 가능성 제시\n")
	sb.WriteString("     - 정기 발주 약속 가능\n")
	sb.WriteString("     - 초도 물량 이후 증량 계획 제시\n")
	sb.WriteString("     - 선결제 또는 계약금 선지급 가능\n")
	sb.WriteString("  3. 제품 품질에 대한 테스트 필요성 언급\n")
	sb.WriteString("  4. 시장 반응을 보며 물량 확대 가능성 강조\n")
	sb.WriteString("  5. 경쟁사 언급하며 협상\n")
	sb.WriteString("브랜드사 담당자로서 다음 답변 한 개만 작성하세요.")

	var user strings.Builder
	if transcript := RenderTranscript(brief.History); transcript != "" {
		user.WriteString("지금까지의 대화:\n")
		user.WriteString(transcript)
		user.WriteString("\n\n")
	}
	user.WriteString(fmt.Sprintf("%s 메시지: %s", ManufacturerLabel, brief.Latest))

	return Prompt{
		System: sb.String(),
		User:   user.String(),
	}
}

// RenderTranscript writes one "label: content" line per message.
func RenderTranscript(history []Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, SpeakerLabel(m.Role)+": "+strings.TrimSpace(m.Content))
	}
	return strings.Join(lines, "\n")
}

// SpeakerLabel maps a chat role to the party it stands for.
func SpeakerLabel(role string) string {
	if role == RoleAssistant {
		return BrandLabel
	}
	return ManufacturerLabel
}
