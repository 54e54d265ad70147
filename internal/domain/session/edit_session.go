// Package session tracks which turn of a conversation view is being edited.
package session

import (
	"context"
	"sync"

	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
)

// State names the phases of an edit.
type State int

const (
	// Idle means no edit is open.
	Idle State = iota
	// Editing means a turn's prompt is open for rewriting.
	Editing
	// Submitting means the rewritten prompt has been sent and the commit
	// is pending.
	Submitting
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return "idle"
	}
}

// EditSession is the per-conversation edit state machine. At most one turn
// is in edit at a time; opening another edit replaces the previous target
// unless a submit is pending, in which case it is rejected.
//
// A completed edit leaves a "just edited" marker behind so the reveal layer
// knows to replay that turn once. The marker is consumed on read.
type EditSession struct {
	mu            sync.Mutex
	state         State
	editingTurnID string
	justEditedID  string
}

func NewEditSession() *EditSession {
	return &EditSession{}
}

// BeginEdit opens an edit on the given turn. Rejected while a submit is
// pending.
func (s *EditSession) BeginEdit(turnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Submitting {
		return platformerrors.NewError(context.Background(), platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			"cannot edit while a submission is pending", nil, "6d7e8f9a-0b1c-4d2e-3f4a-5b6c7d8e9f0a")
	}
	s.state = Editing
	s.editingTurnID = turnID
	return nil
}

// Cancel abandons an open edit. A pending submit cannot be cancelled.
func (s *EditSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editing {
		return
	}
	s.state = Idle
	s.editingTurnID = ""
}

// StartSubmit moves an open edit into the pending-commit phase and returns
// the target turn id. It fails when no edit is open.
func (s *EditSession) StartSubmit() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editing {
		return "", platformerrors.NewError(context.Background(), platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			"no edit in progress", nil, "7e8f9a0b-1c2d-4e3f-4a5b-6c7d8e9f0a1b")
	}
	s.state = Submitting
	return s.editingTurnID, nil
}

// Finish settles a pending submit, successful or not, and records the
// edited turn for the reveal layer.
func (s *EditSession) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Submitting {
		return
	}
	s.justEditedID = s.editingTurnID
	s.state = Idle
	s.editingTurnID = ""
}

// Abort settles a pending submit that went nowhere. Unlike Finish it
// leaves no just-edited marker, so nothing replays.
func (s *EditSession) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Submitting {
		return
	}
	s.state = Idle
	s.editingTurnID = ""
}

// Current reports the state and, outside Idle, the turn under edit.
func (s *EditSession) Current() (State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.editingTurnID
}

// ConsumeJustEdited returns the id of the last edited turn exactly once.
func (s *EditSession) ConsumeJustEdited() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.justEditedID == "" {
		return "", false
	}
	id := s.justEditedID
	s.justEditedID = ""
	return id, true
}
