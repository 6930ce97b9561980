package view

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"wavecap/pkg/wavecap"
)

// Autocompleter looks up symbol suggestions.
type Autocompleter interface {
	Autocomplete(ctx context.Context, query string) ([]wavecap.Suggestion, error)
}

// SearchState is a snapshot of the search box.
type SearchState struct {
	Input       string
	Suggestions []wavecap.Suggestion
}

// Search holds the search input and its autocomplete suggestions.
type Search struct {
	mu          sync.Mutex
	api         Autocompleter
	log         *slog.Logger
	input       string
	suggestions []wavecap.Suggestion
	gen         generation
}

// NewSearch creates an empty Search.
func NewSearch(api Autocompleter, log *slog.Logger) *Search {
	return &Search{api: api, log: log}
}

// OnInputChange stores text uppercased. Blank input clears the suggestions
// at once; anything else returns a Fetch for fresh suggestions.
func (s *Search) OnInputChange(text string) Fetch {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = strings.ToUpper(text)
	seq := s.gen.advance()
	query := strings.TrimSpace(s.input)
	if query == "" {
		s.suggestions = nil
		return nil
	}

	return func(ctx context.Context) {
		guarded(ctx, &s.mu, &s.gen, seq,
			func(ctx context.Context) ([]wavecap.Suggestion, error) {
				return s.api.Autocomplete(ctx, query)
			},
			func(res []wavecap.Suggestion, err error) {
				if err != nil {
					// Suggestions are best effort; the user is not told.
					s.log.Warn("autocomplete failed", "query", query, "error", err)
					s.suggestions = nil
					return
				}
				s.suggestions = res
			})
	}
}

// OnSubmit resolves the current input into a navigation intent. Blank input
// means the dashboard; otherwise the trimmed symbol is shown and the
// suggestions are cleared.
func (s *Search) OnSubmit() Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked()
}

// OnSuggestionPick behaves as if symbol had been typed and submitted.
func (s *Search) OnSuggestionPick(symbol string) Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = strings.ToUpper(symbol)
	return s.submitLocked()
}

func (s *Search) submitLocked() Intent {
	symbol := strings.TrimSpace(s.input)
	if symbol == "" {
		return Intent{Kind: IntentDashboard}
	}
	s.gen.advance()
	s.suggestions = nil
	return Intent{Kind: IntentSymbol, Symbol: symbol}
}

// State returns a snapshot.
func (s *Search) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SearchState{
		Input:       s.input,
		Suggestions: append([]wavecap.Suggestion(nil), s.suggestions...),
	}
}
