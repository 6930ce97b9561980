package view

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavecap/pkg/wavecap"
)

func TestSearchInputUppercases(t *testing.T) {
	api := &fakeAPI{suggestions: []wavecap.Suggestion{{Symbol: "AAPL", Name: "Apple Inc."}}}
	s := NewSearch(api, testLog)

	f := s.OnInputChange("aap")
	require.NotNil(t, f)
	run(f)

	st := s.State()
	assert.Equal(t, "AAP", st.Input)
	assert.Equal(t, api.suggestions, st.Suggestions)
	assert.Equal(t, []string{"autocomplete AAP"}, api.Calls())
}

func TestSearchBlankInputClears(t *testing.T) {
	api := &fakeAPI{suggestions: []wavecap.Suggestion{{Symbol: "AAPL"}}}
	s := NewSearch(api, testLog)
	run(s.OnInputChange("a"))
	require.NotEmpty(t, s.State().Suggestions)

	assert.Nil(t, s.OnInputChange("   "))
	assert.Empty(t, s.State().Suggestions)
	assert.Len(t, api.Calls(), 1)
}

type failingCompleter struct{}

func (failingCompleter) Autocomplete(context.Context, string) ([]wavecap.Suggestion, error) {
	return nil, errors.New("connection refused")
}

func TestSearchFailureClearsSilently(t *testing.T) {
	s := NewSearch(failingCompleter{}, testLog)
	s.suggestions = []wavecap.Suggestion{{Symbol: "OLD"}}
	run(s.OnInputChange("x"))
	assert.Empty(t, s.State().Suggestions)
}

func TestSearchSubmit(t *testing.T) {
	tests := []struct {
		input string
		want  Intent
	}{
		{"", Intent{Kind: IntentDashboard}},
		{"   ", Intent{Kind: IntentDashboard}},
		{"aapl", Intent{Kind: IntentSymbol, Symbol: "AAPL"}},
		{"  msft ", Intent{Kind: IntentSymbol, Symbol: "MSFT"}},
		{"brk.b", Intent{Kind: IntentSymbol, Symbol: "BRK.B"}},
	}
	for _, tt := range tests {
		s := NewSearch(&fakeAPI{}, testLog)
		s.OnInputChange(tt.input)
		assert.Equal(t, tt.want, s.OnSubmit(), "input %q", tt.input)
	}
}

func TestSearchSuggestionPick(t *testing.T) {
	api := &fakeAPI{suggestions: []wavecap.Suggestion{{Symbol: "TSLA"}}}
	s := NewSearch(api, testLog)
	run(s.OnInputChange("ts"))

	in := s.OnSuggestionPick("tsla")
	assert.Equal(t, Intent{Kind: IntentSymbol, Symbol: "TSLA"}, in)
	st := s.State()
	assert.Equal(t, "TSLA", st.Input)
	assert.Empty(t, st.Suggestions)
}

// gatedCompleter blocks each query until its gate is closed or the request
// is cancelled.
type gatedCompleter struct {
	started chan string
	gates   map[string]chan struct{}
}

func (g *gatedCompleter) Autocomplete(ctx context.Context, q string) ([]wavecap.Suggestion, error) {
	g.started <- q
	if gate, ok := g.gates[q]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []wavecap.Suggestion{{Symbol: q}}, nil
}

func TestSearchLatestWins(t *testing.T) {
	api := &gatedCompleter{
		started: make(chan string, 2),
		gates:   map[string]chan struct{}{"A": make(chan struct{})},
	}
	s := NewSearch(api, testLog)

	slow := s.OnInputChange("a")
	done := make(chan struct{})
	go func() {
		slow(context.Background())
		close(done)
	}()
	assert.Equal(t, "A", <-api.started)

	// A newer keystroke cancels the slow request.
	run(s.OnInputChange("ab"))
	assert.Equal(t, "AB", <-api.started)
	<-done

	assert.Equal(t, []wavecap.Suggestion{{Symbol: "AB"}}, s.State().Suggestions)
}
