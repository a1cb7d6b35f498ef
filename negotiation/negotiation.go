// Package negotiation runs the brand-side MOQ negotiation chat with a
// manufacturer, one model reply per manufacturer message.
package negotiation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"oem_consult/generator"
)

var koreanPrinter = message.NewPrinter(language.Korean)

const (
	// TargetMOQ is the order quantity the brand is aiming for.
	TargetMOQ = 1000
	// MinProposedMOQ and MOQStep bound what a manufacturer may propose.
	MinProposedMOQ = 1000
	MOQStep        = 100

	// DefaultHistoryWindow is how many transcript entries go into a prompt.
	DefaultHistoryWindow = 20
)

var (
	ErrInvalidState = errors.New("negotiation: invalid state")
	ErrInvalidMOQ   = errors.New("negotiation: invalid proposed moq")
	ErrEmptyMessage = errors.New("negotiation: empty message")
)

// Responder produces the brand's next message.
type Responder interface {
	NegotiationReply(ctx context.Context, brief generator.NegotiationBrief) (string, error)
}

// Negotiation holds one chat. It is not safe for concurrent use.
type Negotiation struct {
	responder   Responder
	window      int
	history     []generator.Message
	proposedMOQ int
	started     bool
	complete    bool
}

type Option func(*Negotiation)

// WithHistoryWindow limits how many past entries are sent with each prompt.
// Zero sends the whole transcript.
func WithHistoryWindow(n int) Option {
	return func(ng *Negotiation) {
		if n >= 0 {
			ng.window = n
		}
	}
}

func New(responder Responder, opts ...Option) *Negotiation {
	ng := &Negotiation{responder: responder, window: DefaultHistoryWindow}
	for _, opt := range opts {
		opt(ng)
	}
	return ng
}

// Start records the manufacturer's proposed MOQ and opens the chat.
func (ng *Negotiation) Start(proposedMOQ int) error {
	if ng.started {
		return fmt.Errorf("start: already started: %w", ErrInvalidState)
	}
	if proposedMOQ < MinProposedMOQ || proposedMOQ%MOQStep != 0 {
		return fmt.Errorf("%w: %d (min %d, step %d)", ErrInvalidMOQ, proposedMOQ, MinProposedMOQ, MOQStep)
	}
	ng.proposedMOQ = proposedMOQ
	ng.started = true
	ng.history = append(ng.history, generator.Message{
		Role:    generator.RoleAssistant,
		Content: openingMessage(proposedMOQ),
	})
	return nil
}

// SendMessage adds the manufacturer's message and the brand's reply. On error
// the history is left as it was.
func (ng *Negotiation) SendMessage(ctx context.Context, text string) (string, error) {
	if !ng.started {
		return "", fmt.Errorf("send: not started: %w", ErrInvalidState)
	}
	if ng.complete {
		return "", fmt.Errorf("send: negotiation ended: %w", ErrInvalidState)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}

	reply, err := ng.responder.NegotiationReply(ctx, generator.NegotiationBrief{
		TargetMOQ:   TargetMOQ,
		ProposedMOQ: ng.proposedMOQ,
		History:     ng.recent(),
		Latest:      text,
	})
	if err != nil {
		return "", err
	}
	ng.history = append(ng.history,
		generator.Message{Role: generator.RoleUser, Content: text},
		generator.Message{Role: generator.RoleAssistant, Content: reply},
	)
	return reply, nil
}

// End closes the negotiation; later messages are rejected.
func (ng *Negotiation) End() {
	ng.complete = true
}

func (ng *Negotiation) Started() bool { return ng.started }

func (ng *Negotiation) Complete() bool { return ng.complete }

func (ng *Negotiation) ProposedMOQ() int { return ng.proposedMOQ }

func (ng *Negotiation) TargetMOQ() int { return TargetMOQ }

// History returns a copy of the transcript.
func (ng *Negotiation) History() []generator.Message {
	return append([]generator.Message(nil), ng.history...)
}

func (ng *Negotiation) recent() []generator.Message {
	h := ng.history
	if ng.window > 0 && len(h) > ng.window {
		h = h[len(h)-ng.window:]
	}
	return append([]generator.Message(nil), h...)
}

func openingMessage(proposedMOQ int) string {
	return fmt.Sprintf("안녕하세요! 지금부터 MOQ 협상을 진행하고자 합니다.\n"+
		"제시해주신 MOQ %s개 잘 확인했습니다. "+
		"저희는 신생 브랜드이고, 초기 시장 진입 단계라 물량을 %s개 정도로 시작하고 싶습니다.\n"+
		"시장 반응을 보면서 물량을 늘려갈 계획이 있는데, 초기 MOQ 조정이 가능할까요?",
		groupThousands(proposedMOQ), groupThousands(TargetMOQ))
}

func groupThousands(n int) string {
	return koreanPrinter.Sprintf("%d", n)
}
