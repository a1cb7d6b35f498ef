package consult_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oem_consult/consult"
	"oem_consult/generator"
	"oem_consult/negotiation"
	"oem_consult/questionnaire"
)

type fakeAssistant struct {
	briefs []generator.NegotiationBrief
	err    error
}

func (f *fakeAssistant) DraftReply(_ context.Context, answer string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "draft of " + answer, nil
}

func (f *fakeAssistant) NegotiationReply(_ context.Context, brief generator.NegotiationBrief) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.briefs = append(f.briefs, brief)
	return "brand reply", nil
}

func newSession(t *testing.T, a consult.Assistant) *consult.Session {
	t.Helper()
	catalog, err := questionnaire.NewCatalog([]questionnaire.Category{
		{Name: "A", Questions: []string{"a1", "a2"}},
		{Name: "B", Questions: []string{"b1"}},
	})
	require.NoError(t, err)
	return consult.NewSession("s-1", catalog, a, consult.Options{HistoryWindow: 4})
}

func answerAll(t *testing.T, s *consult.Session) consult.View {
	t.Helper()
	ctx := context.Background()
	var v consult.View
	for i := 0; i < 3; i++ {
		_, err := s.Apply(ctx, consult.SubmitAnswer("ans"))
		require.NoError(t, err)
		v, err = s.Apply(ctx, consult.Commit())
		require.NoError(t, err)
	}
	return v
}

func TestApply_InitialView(t *testing.T) {
	v, err := newSession(t, &fakeAssistant{}).Apply(context.Background(), consult.Refresh(""))
	require.NoError(t, err)

	assert.Equal(t, "s-1", v.SessionID)
	assert.Equal(t, consult.Title, v.Title)
	assert.Equal(t, consult.ScreenQuestionnaire, v.Screen)
	assert.Equal(t, questionnaire.PhaseAnswering, v.Phase)
	assert.Equal(t, "A", v.Category)
	assert.Equal(t, "a1", v.Question)
	assert.Equal(t, []string{questionnaire.ShowAll, "A", "B"}, v.LogFilters)
	assert.Equal(t, questionnaire.ShowAll, v.LogFilter)
	assert.Nil(t, v.Negotiation)
	assert.Equal(t, 3, v.Progress.Total)
}

func TestApply_SubmitRedraftCommit(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, &fakeAssistant{})

	v, err := s.Apply(ctx, consult.SubmitAnswer("네"))
	require.NoError(t, err)
	assert.Equal(t, questionnaire.PhasePendingApproval, v.Phase)
	assert.Equal(t, "네", v.Staged)
	assert.Empty(t, v.Draft)

	v, err = s.Apply(ctx, consult.Redraft())
	require.NoError(t, err)
	assert.Equal(t, questionnaire.PhasePendingApproval, v.Phase)
	assert.Equal(t, "draft of 네", v.Draft)
	assert.Equal(t, 0, v.Progress.Answered)

	v, err = s.Apply(ctx, consult.Commit())
	require.NoError(t, err)
	assert.Equal(t, "a2", v.Question)
	require.Len(t, v.Log, 1)
	assert.Equal(t, "draft of 네", v.Log[0].AIResponse)
}

func TestApply_ErrorsLeaveSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	perr := &generator.ProviderError{Provider: "openai", Err: errors.New("down")}
	s := newSession(t, &fakeAssistant{err: perr})

	_, err := s.Apply(ctx, consult.Commit())
	assert.ErrorIs(t, err, questionnaire.ErrInvalidState)

	_, err = s.Apply(ctx, consult.SubmitAnswer("x"))
	require.NoError(t, err)
	_, err = s.Apply(ctx, consult.Redraft())
	assert.Same(t, perr, err)

	v, err := s.Apply(ctx, consult.Refresh(""))
	require.NoError(t, err)
	assert.Equal(t, questionnaire.PhasePendingApproval, v.Phase)
	assert.Equal(t, "x", v.Staged)

	_, err = s.Apply(ctx, consult.Refresh("없음"))
	assert.ErrorIs(t, err, questionnaire.ErrUnknownCategory)

	_, err = s.Apply(ctx, consult.Command{Kind: "bogus"})
	assert.Error(t, err)
}

func TestApply_UnknownFilterRejectedBeforeCommand(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, &fakeAssistant{})

	_, err := s.Apply(ctx, consult.SubmitAnswer("x"))
	require.NoError(t, err)

	_, err = s.Apply(ctx, consult.Command{Kind: consult.CmdCommit, Category: "bogus"})
	assert.ErrorIs(t, err, questionnaire.ErrUnknownCategory)

	v, err := s.Apply(ctx, consult.Refresh("A"))
	require.NoError(t, err)
	assert.Equal(t, questionnaire.PhasePendingApproval, v.Phase)
	assert.Equal(t, "x", v.Staged)
	assert.Equal(t, 0, v.Progress.Answered)
	assert.Equal(t, "A", v.LogFilter)
}

func TestApply_NegotiationGatedOnCompletion(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, &fakeAssistant{})

	_, err := s.Apply(ctx, consult.StartNegotiation(2000))
	assert.ErrorIs(t, err, negotiation.ErrInvalidState)
	_, err = s.Apply(ctx, consult.SendMessage("hi"))
	assert.ErrorIs(t, err, negotiation.ErrInvalidState)
	_, err = s.Apply(ctx, consult.EndNegotiation())
	assert.ErrorIs(t, err, negotiation.ErrInvalidState)
}

func TestApply_Negotiation(t *testing.T) {
	ctx := context.Background()
	a := &fakeAssistant{}
	s := newSession(t, a)

	v := answerAll(t, s)
	assert.Equal(t, consult.ScreenNegotiation, v.Screen)
	assert.Equal(t, consult.NoticeQuestionnaireDone, v.Notice)
	require.NotNil(t, v.Negotiation)
	assert.False(t, v.Negotiation.Started)
	assert.Equal(t, negotiation.TargetMOQ, v.Negotiation.TargetMOQ)
	assert.Equal(t, negotiation.MinProposedMOQ, v.Negotiation.MinMOQ)
	assert.Equal(t, negotiation.MOQStep, v.Negotiation.MOQStep)
	assert.NotNil(t, v.Negotiation.Messages)
	assert.Empty(t, v.Negotiation.Messages)

	_, err := s.Apply(ctx, consult.StartNegotiation(950))
	assert.ErrorIs(t, err, negotiation.ErrInvalidMOQ)

	v, err = s.Apply(ctx, consult.StartNegotiation(3000))
	require.NoError(t, err)
	assert.True(t, v.Negotiation.Started)
	assert.Equal(t, 3000, v.Negotiation.ProposedMOQ)
	require.Len(t, v.Negotiation.Messages, 1)
	assert.Equal(t, generator.RoleAssistant, v.Negotiation.Messages[0].Role)

	_, err = s.Apply(ctx, consult.SendMessage("  "))
	assert.ErrorIs(t, err, negotiation.ErrEmptyMessage)

	v, err = s.Apply(ctx, consult.SendMessage("어렵습니다"))
	require.NoError(t, err)
	require.Len(t, v.Negotiation.Messages, 3)
	assert.Equal(t, "brand reply", v.Negotiation.Messages[2].Content)
	require.Len(t, a.briefs, 1)
	assert.Equal(t, 3000, a.briefs[0].ProposedMOQ)
	assert.Equal(t, "어렵습니다", a.briefs[0].Latest)

	v, err = s.Apply(ctx, consult.EndNegotiation())
	require.NoError(t, err)
	assert.True(t, v.Negotiation.Complete)
	assert.Equal(t, consult.NoticeNegotiationEnded, v.Notice)

	_, err = s.Apply(ctx, consult.SendMessage("more"))
	assert.ErrorIs(t, err, negotiation.ErrInvalidState)
}

func TestTranscript(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, &fakeAssistant{})

	tr := s.Transcript()
	assert.Equal(t, "s-1", tr.SessionID)
	assert.Empty(t, tr.Entries)
	assert.Empty(t, tr.Negotiation)

	answerAll(t, s)
	_, err := s.Apply(ctx, consult.StartNegotiation(1500))
	require.NoError(t, err)
	_, err = s.Apply(ctx, consult.SendMessage("ok"))
	require.NoError(t, err)

	tr = s.Transcript()
	assert.Equal(t, consult.Title, tr.Title)
	assert.Len(t, tr.Entries, 3)
	assert.Equal(t, 100, tr.Progress.Percent)
	assert.Equal(t, negotiation.TargetMOQ, tr.TargetMOQ)
	assert.Equal(t, 1500, tr.ProposedMOQ)
	assert.Len(t, tr.Negotiation, 3)
	assert.False(t, tr.NegotiationEnded)
}
