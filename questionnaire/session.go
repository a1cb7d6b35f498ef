package questionnaire

import (
	"context"
	"fmt"
)

type Phase string

const (
	PhaseAnswering       Phase = "answering"
	PhasePendingApproval Phase = "pending_approval"
	PhaseComplete        Phase = "complete"
)

// Drafter writes a brand-side alternative for a staged answer.
type Drafter interface {
	DraftReply(ctx context.Context, answer string) (string, error)
}

// Session tracks one user's progress through a catalog. It is not safe for
// concurrent use; callers serialize access.
type Session struct {
	catalog     *Catalog
	drafter     Drafter
	categoryIdx int
	questionIdx int
	phase       Phase
	staged      string
	answers     map[string]map[string]string
	aiResponses map[string]map[string]string
}

func NewSession(catalog *Catalog, drafter Drafter) *Session {
	return &Session{
		catalog:     catalog,
		drafter:     drafter,
		phase:       PhaseAnswering,
		answers:     make(map[string]map[string]string),
		aiResponses: make(map[string]map[string]string),
	}
}

func (s *Session) Catalog() *Catalog { return s.catalog }

func (s *Session) Phase() Phase { return s.phase }

// Position returns the current category name and question index. Once the
// session is complete it stays on the last question.
func (s *Session) Position() (string, int) {
	return s.catalog.categories[s.categoryIdx].Name, s.questionIdx
}

// Current returns the question awaiting an answer, or false when complete.
func (s *Session) Current() (category, question string, ok bool) {
	if s.phase == PhaseComplete {
		return "", "", false
	}
	cat := s.catalog.categories[s.categoryIdx]
	return cat.Name, cat.Questions[s.questionIdx], true
}

// Staged returns the answer waiting for approval.
func (s *Session) Staged() (string, bool) {
	return s.staged, s.phase == PhasePendingApproval
}

// Submit stages an answer for the current question. Empty answers are allowed.
func (s *Session) Submit(answer string) error {
	if s.phase != PhaseAnswering {
		return fmt.Errorf("submit in phase %s: %w", s.phase, ErrInvalidState)
	}
	s.staged = answer
	s.phase = PhasePendingApproval
	return nil
}

// Commit stores the staged answer and moves to the next question, rolling
// over to the next category or finishing the questionnaire.
func (s *Session) Commit() error {
	if s.phase != PhasePendingApproval {
		return fmt.Errorf("commit in phase %s: %w", s.phase, ErrInvalidState)
	}
	cat := s.catalog.categories[s.categoryIdx]
	setNested(s.answers, cat.Name, cat.Questions[s.questionIdx], s.staged)
	s.staged = ""
	s.phase = PhaseAnswering

	switch {
	case s.questionIdx < len(cat.Questions)-1:
		s.questionIdx++
	case s.categoryIdx < len(s.catalog.categories)-1:
		s.categoryIdx++
		s.questionIdx = 0
	default:
		s.phase = PhaseComplete
	}
	return nil
}

// RequestRedraft asks the drafter for an alternative to the staged answer and
// keeps it as the AI response for the current question. The answer stays
// staged, so this may be called repeatedly; each call replaces the last draft.
func (s *Session) RequestRedraft(ctx context.Context) (string, error) {
	if s.phase != PhasePendingApproval {
		return "", fmt.Errorf("redraft in phase %s: %w", s.phase, ErrInvalidState)
	}
	draft, err := s.drafter.DraftReply(ctx, s.staged)
	if err != nil {
		return "", err
	}
	cat := s.catalog.categories[s.categoryIdx]
	setNested(s.aiResponses, cat.Name, cat.Questions[s.questionIdx], draft)
	return draft, nil
}

// Answer returns the committed answer for a question.
func (s *Session) Answer(category, question string) (string, bool) {
	a, ok := s.answers[category][question]
	return a, ok
}

// AIResponse returns the latest draft for a question.
func (s *Session) AIResponse(category, question string) (string, bool) {
	r, ok := s.aiResponses[category][question]
	return r, ok
}

// Answered is the number of committed answers.
func (s *Session) Answered() int {
	n := 0
	for _, qs := range s.answers {
		n += len(qs)
	}
	return n
}

func setNested(m map[string]map[string]string, category, question, value string) {
	inner, ok := m[category]
	if !ok {
		inner = make(map[string]string)
		m[category] = inner
	}
	inner[question] = value
}
