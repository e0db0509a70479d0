package internal

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoGenerator answers with the number of prompts it has seen and keeps
// the last prompt for inspection.
type echoGenerator struct {
	prompts []string
	err     error
}

func (g *echoGenerator) Complete(_ context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.prompts = append(g.prompts, prompt)
	return fmt.Sprintf(" answer %d ", len(g.prompts)), nil
}

func (g *echoGenerator) Stream(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	answer, err := g.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	for _, part := range strings.SplitAfter(answer, " ") {
		onDelta(part)
	}
	return answer, nil
}

func newTestRetriever(t *testing.T, docs map[string]string) *Retriever {
	t.Helper()
	e := newTestHashEmbedder(t)
	index := NewFlatIndex()
	for id, text := range docs {
		v, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		require.NoError(t, index.Insert(Fragment{ID: FragmentID(id), Source: id, Content: text}, v))
	}
	return NewRetriever(e, index)
}

func TestRetrieverRanksRelevantFirst(t *testing.T) {
	r := newTestRetriever(t, map[string]string{
		"cats#0":  "cats purr and sleep all day",
		"taxes#0": "income tax returns are due in april",
	})

	results, err := r.Retrieve(context.Background(), "when are tax returns due", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, FragmentID("taxes#0"), results[0].Fragment.ID)
}

func TestRetrieverValidation(t *testing.T) {
	r := newTestRetriever(t, nil)
	ctx := context.Background()

	_, err := r.Retrieve(ctx, "q", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.Retrieve(ctx, "   ", 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	results, err := r.Retrieve(ctx, "anything", 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuildPrompt(t *testing.T) {
	results := []SearchResult{
		{Fragment: Fragment{ID: "a.pdf#0", Content: "first fragment"}, Score: 0.9},
		{Fragment: Fragment{ID: "b.pdf#3", Content: "second fragment"}, Score: 0.5},
	}
	history := []Turn{{Question: "hi", Answer: "hello"}}

	prompt := BuildPrompt("Be brief.", history, "what now?", results)

	assert.True(t, strings.HasPrefix(prompt, "Be brief.\n\nContext:\n"))
	assert.Contains(t, prompt, "[1] a.pdf#0\nfirst fragment")
	assert.Contains(t, prompt, "[2] b.pdf#3\nsecond fragment")
	assert.Less(t, strings.Index(prompt, "a.pdf#0"), strings.Index(prompt, "b.pdf#3"))
	assert.Contains(t, prompt, "User: hi\nAssistant: hello\n")
	assert.True(t, strings.HasSuffix(prompt, "Question: what now?\nAnswer:"))

	empty := BuildPrompt("", nil, "q", nil)
	assert.Contains(t, empty, "(no matching documents)")
	assert.NotContains(t, empty, "Conversation so far")
}

func TestSessionKeepsOrderedHistory(t *testing.T) {
	gen := &echoGenerator{}
	s := NewSession(newTestRetriever(t, map[string]string{
		"doc#0": "the launch window opens in march",
	}), gen, WithTopK(1), WithHistoryTurns(1), WithPreamble("P"))
	ctx := context.Background()

	first, err := s.Ask(ctx, "  when is the launch window  ")
	require.NoError(t, err)
	assert.Equal(t, "answer 1", first.Turn.Answer)
	assert.Equal(t, "when is the launch window", first.Turn.Question)
	assert.Equal(t, []FragmentID{"doc#0"}, first.Turn.Sources)
	require.Len(t, first.Results, 1)

	_, err = s.Ask(ctx, "second question")
	require.NoError(t, err)
	_, err = s.Ask(ctx, "third question")
	require.NoError(t, err)

	history := s.History()
	require.Len(t, history, 3)
	assert.Equal(t, "second question", history[1].Question)

	// Only the most recent turn is replayed.
	last := gen.prompts[2]
	assert.Contains(t, last, "User: second question")
	assert.NotContains(t, last, "User: when is the launch window")
	assert.True(t, strings.HasPrefix(last, "P\n\n"))
	assert.NotEmpty(t, s.ID())
}

func TestSessionAskStream(t *testing.T) {
	gen := &echoGenerator{}
	s := NewSession(newTestRetriever(t, map[string]string{"d#0": "text"}), gen)

	var deltas []string
	reply, err := s.AskStream(context.Background(), "question", func(d string) { deltas = append(deltas, d) })
	require.NoError(t, err)
	assert.Equal(t, " answer 1 ", strings.Join(deltas, ""))
	assert.Equal(t, "answer 1", reply.Turn.Answer)
}

func TestSessionErrorsDoNotRecordTurns(t *testing.T) {
	gen := &echoGenerator{err: fmt.Errorf("%w: offline", ErrGeneration)}
	s := NewSession(newTestRetriever(t, map[string]string{"d#0": "text"}), gen)

	_, err := s.Ask(context.Background(), "question")
	assert.ErrorIs(t, err, ErrGeneration)

	_, err = s.Ask(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, s.History())

	_, err = NewSession(newTestRetriever(t, nil), nil).Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoGenerator)
}

func TestIsExitCommand(t *testing.T) {
	for _, line := range []string{"exit", " QUIT ", ":q", "/exit\n"} {
		assert.True(t, IsExitCommand(line), line)
	}
	for _, line := range []string{"", "exit now", "q"} {
		assert.False(t, IsExitCommand(line), line)
	}
}
