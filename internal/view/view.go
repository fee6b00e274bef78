// Package view holds the page's selection state as an explicit value with pure
// transitions. Nothing here is shared or mutated in place: Reduce returns a new
// State and leaves its input untouched.
package view

import (
	"sort"
	"strings"

	"github.com/rewired-gh/trendline/internal/period"
)

// Mode selects which chart the page shows.
type Mode string

const (
	ModeTimeline Mode = "timeline"
	ModeOverlay  Mode = "overlay"
)

// ParseMode accepts "timeline" or "overlay". ok is false for anything else.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTimeline:
		return ModeTimeline, true
	case ModeOverlay:
		return ModeOverlay, true
	default:
		return "", false
	}
}

// State is the complete UI selection state.
type State struct {
	Mode        Mode
	Granularity period.Granularity
	Highlighted string          // Event name, empty for none
	Hidden      map[string]bool // Series toggled off
}

// Default returns the state the page opens with.
func Default() State {
	return State{
		Mode:        ModeTimeline,
		Granularity: period.Weekly,
	}
}

// Visible reports whether the named series is shown.
func (s State) Visible(name string) bool {
	return !s.Hidden[name]
}

// HiddenNames returns the hidden series sorted by name.
func (s State) HiddenNames() []string {
	names := make([]string, 0, len(s.Hidden))
	for name, hidden := range s.Hidden {
		if hidden {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Key identifies the rendered output this state needs. Highlight and hidden
// series only change presentation, not payload content.
func (s State) Key() string {
	return string(s.Mode) + "/" + s.Granularity.String()
}

// ActionType names a state transition.
type ActionType string

const (
	SetMode        ActionType = "set_mode"
	SetGranularity ActionType = "set_granularity"
	Highlight      ActionType = "highlight"
	ClearHighlight ActionType = "clear_highlight"
	ToggleSeries   ActionType = "toggle_series"
)

// Action is a user interaction.
type Action struct {
	Type  ActionType
	Value string
}

// Reduce applies action to state and returns the resulting state. Actions with
// unknown types or unparseable values return state unchanged.
func Reduce(state State, action Action) State {
	next := state
	switch action.Type {
	case SetMode:
		if mode, ok := ParseMode(action.Value); ok {
			next.Mode = mode
		}
	case SetGranularity:
		if g, err := period.ParseGranularity(action.Value); err == nil {
			next.Granularity = g
		}
	case Highlight:
		// Clicking the highlighted marker again clears it.
		if action.Value == state.Highlighted {
			next.Highlighted = ""
		} else {
			next.Highlighted = action.Value
		}
	case ClearHighlight:
		next.Highlighted = ""
	case ToggleSeries:
		if action.Value == "" {
			break
		}
		hidden := make(map[string]bool, len(state.Hidden)+1)
		for name, h := range state.Hidden {
			if h {
				hidden[name] = true
			}
		}
		if hidden[action.Value] {
			delete(hidden, action.Value)
		} else {
			hidden[action.Value] = true
		}
		next.Hidden = hidden
	}
	return next
}

// ReduceAll folds actions over state in order.
func ReduceAll(state State, actions ...Action) State {
	for _, a := range actions {
		state = Reduce(state, a)
	}
	return state
}
