package questionnaire_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oem_consult/questionnaire"
)

type fakeDrafter struct {
	calls   []string
	replies []string
	err     error
}

func (f *fakeDrafter) DraftReply(_ context.Context, answer string) (string, error) {
	f.calls = append(f.calls, answer)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "draft: " + answer, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func twoByThree(t *testing.T) *questionnaire.Catalog {
	t.Helper()
	c, err := questionnaire.NewCatalog([]questionnaire.Category{
		{Name: "A", Questions: []string{"a1", "a2", "a3"}},
		{Name: "B", Questions: []string{"b1", "b2", "b3"}},
	})
	require.NoError(t, err)
	return c
}

func TestCatalog_TotalMatchesProgress(t *testing.T) {
	for _, c := range []*questionnaire.Catalog{questionnaire.DefaultCatalog(), twoByThree(t)} {
		sum := 0
		for _, cat := range c.Categories() {
			sum += len(cat.Questions)
		}
		s := questionnaire.NewSession(c, &fakeDrafter{})
		assert.Equal(t, sum, c.Total())
		assert.Equal(t, sum, s.Progress().Total)
		assert.Equal(t, sum, s.Progress().Remaining)
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		categories []questionnaire.Category
	}{
		{name: "empty", categories: nil},
		{name: "unnamed", categories: []questionnaire.Category{{Questions: []string{"q"}}}},
		{name: "no questions", categories: []questionnaire.Category{{Name: "A"}}},
		{name: "duplicate", categories: []questionnaire.Category{
			{Name: "A", Questions: []string{"q"}},
			{Name: "A", Questions: []string{"q"}},
		}},
		{name: "reserved", categories: []questionnaire.Category{{Name: questionnaire.ShowAll, Questions: []string{"q"}}}},
		{name: "repeated question", categories: []questionnaire.Category{{Name: "A", Questions: []string{"same", "same", "other"}}}},
		{name: "repeated after trim", categories: []questionnaire.Category{{Name: "A", Questions: []string{"same", " same "}}}},
		{name: "blank question", categories: []questionnaire.Category{{Name: "A", Questions: []string{"q", "  "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := questionnaire.NewCatalog(tt.categories)
			assert.Error(t, err)
		})
	}
}

func TestNewCatalog_SameQuestionInDifferentCategories(t *testing.T) {
	c, err := questionnaire.NewCatalog([]questionnaire.Category{
		{Name: "A", Questions: []string{"same"}},
		{Name: "B", Questions: []string{"same"}},
	})
	require.NoError(t, err)

	s := questionnaire.NewSession(c, &fakeDrafter{})
	for i := 0; i < 2; i++ {
		require.NoError(t, s.Submit("ans"))
		require.NoError(t, s.Commit())
	}
	p := s.Progress()
	assert.Equal(t, questionnaire.PhaseComplete, s.Phase())
	assert.Equal(t, 2, p.Answered)
	assert.Equal(t, 0, p.Remaining)
	assert.Equal(t, 100, p.Percent)
}

func TestSession_CommitWalksFlattenedOrder(t *testing.T) {
	c := twoByThree(t)
	s := questionnaire.NewSession(c, &fakeDrafter{})

	type pos struct {
		cat string
		idx int
	}
	want := []pos{{"A", 1}, {"A", 2}, {"B", 0}, {"B", 1}, {"B", 2}, {"B", 2}}

	for n := 1; n <= 6; n++ {
		require.NoError(t, s.Submit(fmt.Sprintf("answer %d", n)))
		require.NoError(t, s.Commit())

		cat, idx := s.Position()
		assert.Equal(t, n, s.Progress().Answered)
		assert.Equal(t, want[n-1], pos{cat, idx}, "after commit %d", n)
	}

	assert.Equal(t, questionnaire.PhaseComplete, s.Phase())
	cat, idx := s.Position()
	assert.Equal(t, "B", cat)
	assert.Equal(t, 2, idx)
	_, _, ok := s.Current()
	assert.False(t, ok)

	p := s.Progress()
	assert.Equal(t, 100, p.Percent)
	assert.Equal(t, 0, p.Remaining)

	a, ok := s.Answer("B", "b3")
	require.True(t, ok)
	assert.Equal(t, "answer 6", a)
}

func TestSession_CommitWhileAnswering(t *testing.T) {
	s := questionnaire.NewSession(twoByThree(t), &fakeDrafter{})

	err := s.Commit()
	assert.ErrorIs(t, err, questionnaire.ErrInvalidState)
	assert.Equal(t, 0, s.Answered())
	cat, idx := s.Position()
	assert.Equal(t, "A", cat)
	assert.Equal(t, 0, idx)
}

func TestSession_InvalidTransitions(t *testing.T) {
	s := questionnaire.NewSession(twoByThree(t), &fakeDrafter{})

	_, err := s.RequestRedraft(context.Background())
	assert.ErrorIs(t, err, questionnaire.ErrInvalidState)

	require.NoError(t, s.Submit("x"))
	assert.ErrorIs(t, s.Submit("y"), questionnaire.ErrInvalidState)

	staged, ok := s.Staged()
	assert.True(t, ok)
	assert.Equal(t, "x", staged)
}

func TestSession_SubmitAcceptsEmpty(t *testing.T) {
	s := questionnaire.NewSession(twoByThree(t), &fakeDrafter{})
	require.NoError(t, s.Submit(""))
	require.NoError(t, s.Commit())

	a, ok := s.Answer("A", "a1")
	assert.True(t, ok)
	assert.Equal(t, "", a)
}

func TestSession_RedraftNeverTouchesAnswers(t *testing.T) {
	d := &fakeDrafter{replies: []string{"first", "second"}}
	s := questionnaire.NewSession(twoByThree(t), d)
	ctx := context.Background()

	require.NoError(t, s.Submit("가능합니다"))
	r, err := s.RequestRedraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", r)
	assert.Equal(t, 0, s.Answered())
	assert.Equal(t, questionnaire.PhasePendingApproval, s.Phase())

	r, err = s.RequestRedraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", r)
	assert.Equal(t, 0, s.Answered())
	assert.Equal(t, []string{"가능합니다", "가능합니다"}, d.calls)

	ai, ok := s.AIResponse("A", "a1")
	require.True(t, ok)
	assert.Equal(t, "second", ai)

	require.NoError(t, s.Commit())
	a, _ := s.Answer("A", "a1")
	assert.Equal(t, "가능합니다", a)
	ai, ok = s.AIResponse("A", "a1")
	assert.True(t, ok, "AI response survives commit")
	assert.Equal(t, "second", ai)
}

func TestSession_RedraftProviderFailure(t *testing.T) {
	boom := errors.New("upstream down")
	s := questionnaire.NewSession(twoByThree(t), &fakeDrafter{err: boom})

	require.NoError(t, s.Submit("x"))
	_, err := s.RequestRedraft(context.Background())
	assert.Same(t, boom, err)
	assert.Equal(t, questionnaire.PhasePendingApproval, s.Phase())
	_, ok := s.AIResponse("A", "a1")
	assert.False(t, ok)
}

func TestSession_Log(t *testing.T) {
	s := questionnaire.NewSession(twoByThree(t), &fakeDrafter{})
	ctx := context.Background()

	require.NoError(t, s.Submit("one"))
	_, err := s.RequestRedraft(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Submit("more"))
		require.NoError(t, s.Commit())
	}

	all, err := s.Log(questionnaire.ShowAll)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, questionnaire.LogEntry{Category: "A", Question: "a1", Answer: "one", AIResponse: "draft: one"}, all[0])
	assert.Equal(t, "b1", all[3].Question)

	onlyB, err := s.Log("B")
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Empty(t, onlyB[0].AIResponse)

	_, err = s.Log("nope")
	assert.ErrorIs(t, err, questionnaire.ErrUnknownCategory)
}

func TestSession_ProgressPerCategory(t *testing.T) {
	s := questionnaire.NewSession(twoByThree(t), &fakeDrafter{})
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Submit("x"))
		require.NoError(t, s.Commit())
	}
	p := s.Progress()
	assert.Equal(t, 66, p.Percent)
	assert.Equal(t, []questionnaire.CategoryProgress{
		{Name: "A", Done: 3, Total: 3},
		{Name: "B", Done: 1, Total: 3},
	}, p.Categories)
}
