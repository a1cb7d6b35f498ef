// Package consult ties the questionnaire and the MOQ negotiation into one
// consultation session driven by explicit commands.
package consult

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"oem_consult/negotiation"
	"oem_consult/questionnaire"
	"oem_consult/report"
)

const Title = "OEM/ODM 제조사 상담 질문지"

var ErrSessionNotFound = errors.New("consult: session not found")

// Assistant drafts answers and negotiation replies. *generator.Agent
// satisfies it.
type Assistant interface {
	questionnaire.Drafter
	negotiation.Responder
}

type Options struct {
	// HistoryWindow is passed to the negotiation; see negotiation.WithHistoryWindow.
	HistoryWindow int
}

// Session is one user's consultation. Apply serializes access, so a Session
// may be shared between request goroutines.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu            sync.Mutex
	assistant     Assistant
	questionnaire *questionnaire.Session
	negotiation   *negotiation.Negotiation
	opts          Options
}

func NewSession(id string, catalog *questionnaire.Catalog, assistant Assistant, opts Options) *Session {
	return &Session{
		ID:            id,
		CreatedAt:     time.Now(),
		assistant:     assistant,
		questionnaire: questionnaire.NewSession(catalog, assistant),
		opts:          opts,
	}
}

// Apply runs one command and returns what to render next. On error the
// session is unchanged and the caller should re-render its previous view.
func (s *Session) Apply(ctx context.Context, cmd Command) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.questionnaire.Catalog().CheckFilter(cmd.Category); err != nil {
		return View{}, err
	}

	var notice string
	switch cmd.Kind {
	case CmdView:
	case CmdSubmitAnswer:
		if err := s.questionnaire.Submit(cmd.Text); err != nil {
			return View{}, err
		}
	case CmdCommit:
		if err := s.questionnaire.Commit(); err != nil {
			return View{}, err
		}
	case CmdRedraft:
		if _, err := s.questionnaire.RequestRedraft(ctx); err != nil {
			return View{}, err
		}
	case CmdStartNegotiation:
		if s.questionnaire.Phase() != questionnaire.PhaseComplete {
			return View{}, fmt.Errorf("start negotiation before questionnaire is complete: %w", negotiation.ErrInvalidState)
		}
		if s.negotiation == nil {
			s.negotiation = negotiation.New(s.assistant, negotiation.WithHistoryWindow(s.opts.HistoryWindow))
		}
		if err := s.negotiation.Start(cmd.MOQ); err != nil {
			return View{}, err
		}
	case CmdSendMessage:
		if s.negotiation == nil {
			return View{}, fmt.Errorf("send before negotiation started: %w", negotiation.ErrInvalidState)
		}
		if _, err := s.negotiation.SendMessage(ctx, cmd.Text); err != nil {
			return View{}, err
		}
	case CmdEndNegotiation:
		if s.negotiation == nil || !s.negotiation.Started() {
			return View{}, fmt.Errorf("end before negotiation started: %w", negotiation.ErrInvalidState)
		}
		s.negotiation.End()
		notice = NoticeNegotiationEnded
	default:
		return View{}, fmt.Errorf("unknown command %q", cmd.Kind)
	}

	v, err := s.view(cmd.Category)
	if err != nil {
		return View{}, err
	}
	if notice != "" {
		v.Notice = notice
	}
	return v, nil
}

// Transcript snapshots the session for a report.
func (s *Session) Transcript() report.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _ := s.questionnaire.Log(questionnaire.ShowAll)
	t := report.Transcript{
		Title:       Title,
		SessionID:   s.ID,
		GeneratedAt: time.Now(),
		Progress:    s.questionnaire.Progress(),
		Entries:     entries,
		TargetMOQ:   negotiation.TargetMOQ,
	}
	if s.negotiation != nil {
		t.ProposedMOQ = s.negotiation.ProposedMOQ()
		t.Negotiation = s.negotiation.History()
		t.NegotiationEnded = s.negotiation.Complete()
	}
	return t
}
