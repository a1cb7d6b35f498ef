package consult

import (
	"oem_consult/generator"
	"oem_consult/negotiation"
	"oem_consult/questionnaire"
)

type Screen string

const (
	ScreenQuestionnaire Screen = "questionnaire"
	ScreenNegotiation   Screen = "negotiation"
)

const (
	NoticeQuestionnaireDone = "모든 질문이 완료되었습니다!"
	NoticeNegotiationEnded  = "MOQ 협상이 종료되었습니다."
)

// View is everything a UI needs to draw the session after a command.
type View struct {
	SessionID string                 `json:"session_id"`
	Title     string                 `json:"title"`
	Screen    Screen                 `json:"screen"`
	Progress  questionnaire.Progress `json:"progress"`

	Phase    questionnaire.Phase `json:"phase"`
	Category string              `json:"category,omitempty"`
	Question string              `json:"question,omitempty"`
	Staged   string              `json:"staged,omitempty"`
	// Draft is the latest AI rewrite of the staged answer.
	Draft string `json:"draft,omitempty"`

	LogFilters []string                 `json:"log_filters"`
	LogFilter  string                   `json:"log_filter"`
	Log        []questionnaire.LogEntry `json:"log"`

	Negotiation *NegotiationView `json:"negotiation,omitempty"`
	Notice      string           `json:"notice,omitempty"`
}

type NegotiationView struct {
	Started     bool                `json:"started"`
	Complete    bool                `json:"complete"`
	TargetMOQ   int                 `json:"target_moq"`
	ProposedMOQ int                 `json:"proposed_moq,omitempty"`
	MinMOQ      int                 `json:"min_moq"`
	MOQStep     int                 `json:"moq_step"`
	Messages    []generator.Message `json:"messages"`
}

func (s *Session) view(filter string) (View, error) {
	if filter == "" {
		filter = questionnaire.ShowAll
	}
	entries, err := s.questionnaire.Log(filter)
	if err != nil {
		return View{}, err
	}

	q := s.questionnaire
	v := View{
		SessionID:  s.ID,
		Title:      Title,
		Screen:     ScreenQuestionnaire,
		Progress:   q.Progress(),
		Phase:      q.Phase(),
		LogFilters: append([]string{questionnaire.ShowAll}, q.Catalog().Names()...),
		LogFilter:  filter,
		Log:        entries,
	}

	if category, question, ok := q.Current(); ok {
		v.Category = category
		v.Question = question
		if staged, pending := q.Staged(); pending {
			v.Staged = staged
			v.Draft, _ = q.AIResponse(category, question)
		}
		return v, nil
	}

	v.Screen = ScreenNegotiation
	v.Notice = NoticeQuestionnaireDone
	nv := &NegotiationView{
		TargetMOQ: negotiation.TargetMOQ,
		MinMOQ:    negotiation.MinProposedMOQ,
		MOQStep:   negotiation.MOQStep,
		Messages:  []generator.Message{},
	}
	if ng := s.negotiation; ng != nil {
		nv.Started = ng.Started()
		nv.Complete = ng.Complete()
		nv.ProposedMOQ = ng.ProposedMOQ()
		if h := ng.History(); h != nil {
			nv.Messages = h
		}
	}
	v.Negotiation = nv
	return v, nil
}
