package internal

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Turn struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Sources  []FragmentID `json:"sources"`
	At       time.Time    `json:"at"`
}

type Reply struct {
	Turn    Turn
	Results []SearchResult
}

type SessionOption func(*Session)

func WithTopK(k int) SessionOption {
	return func(s *Session) { s.topK = k }
}

func WithPreamble(p string) SessionOption {
	return func(s *Session) { s.preamble = p }
}

// WithSessionID continues a conversation recorded under id.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithHistory seeds the session with earlier turns, oldest first.
func WithHistory(turns []Turn) SessionOption {
	return func(s *Session) { s.history = slices.Clone(turns) }
}

// WithHistoryTurns limits how many previous turns go into each prompt.
func WithHistoryTurns(n int) SessionOption {
	return func(s *Session) { s.historyTurns = n }
}

// Session owns the ordered history of one conversation. Calls to Ask are
// serialized.
type Session struct {
	id           string
	retriever    *Retriever
	generator    Generator
	topK         int
	preamble     string
	historyTurns int
	now          func() time.Time

	mu      sync.Mutex
	history []Turn
}

func NewSession(retriever *Retriever, generator Generator, opts ...SessionOption) *Session {
	s := &Session{
		id:           uuid.NewString(),
		retriever:    retriever,
		generator:    generator,
		topK:         DefaultTopK,
		preamble:     DefaultPreamble,
		historyTurns: DefaultHistoryTurns,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Ask(ctx context.Context, question string) (*Reply, error) {
	return s.ask(ctx, question, nil)
}

// AskStream behaves like Ask but forwards answer deltas to onDelta as they
// arrive.
func (s *Session) AskStream(ctx context.Context, question string, onDelta func(string)) (*Reply, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	return s.ask(ctx, question, onDelta)
}

func (s *Session) ask(ctx context.Context, question string, onDelta func(string)) (*Reply, error) {
	if s.generator == nil {
		return nil, ErrNoGenerator
	}
	question = strings.TrimSpace(question)

	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	prompt := BuildPrompt(s.preamble, s.recent(), question, results)

	var answer string
	if onDelta != nil {
		answer, err = s.generator.Stream(ctx, prompt, onDelta)
	} else {
		answer, err = s.generator.Complete(ctx, prompt)
	}
	if err != nil {
		return nil, err
	}

	sources := make([]FragmentID, len(results))
	for i, r := range results {
		sources[i] = r.Fragment.ID
	}

	turn := Turn{
		Question: question,
		Answer:   strings.TrimSpace(answer),
		Sources:  sources,
		At:       s.now(),
	}
	s.history = append(s.history, turn)

	return &Reply{Turn: turn, Results: results}, nil
}

func (s *Session) recent() []Turn {
	if s.historyTurns <= 0 {
		return nil
	}
	start := max(len(s.history)-s.historyTurns, 0)
	return s.history[start:]
}

func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	":q":    true,
	"/exit": true,
}

func IsExitCommand(line string) bool {
	return exitCommands[strings.ToLower(strings.TrimSpace(line))]
}
