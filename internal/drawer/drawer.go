// Package drawer models the editor panel lifecycle: Closed -> {Create | Edit | Show} -> Closed.
package drawer

import (
	"errors"
	"fmt"
	"sync"
)

var ErrInvalidTransition = errors.New("invalid drawer transition")

type Mode int

const (
	Closed Mode = iota
	Create
	Edit
	Show
)

func (m Mode) String() string {
	switch m {
	case Closed:
		return "closed"
	case Create:
		return "create"
	case Edit:
		return "edit"
	case Show:
		return "show"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// State is a snapshot. ID is set only in Edit and Show.
type State struct {
	Mode Mode
	ID   string
}

// Drawer is one editor panel. The zero value is a closed drawer; it is safe for
// concurrent use.
type Drawer struct {
	mu       sync.Mutex
	state    State
	onChange func(State)
}

// New returns a closed drawer. onChange, if set, runs after every successful
// transition, outside the lock.
func New(onChange func(State)) *Drawer {
	return &Drawer{onChange: onChange}
}

func (d *Drawer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Drawer) IsOpen() bool { return d.State().Mode != Closed }

func (d *Drawer) OpenCreate() error { return d.open(State{Mode: Create}) }

func (d *Drawer) OpenEdit(id string) error {
	if id == "" {
		return fmt.Errorf("%w: edit needs an id", ErrInvalidTransition)
	}
	return d.open(State{Mode: Edit, ID: id})
}

func (d *Drawer) OpenShow(id string) error {
	if id == "" {
		return fmt.Errorf("%w: show needs an id", ErrInvalidTransition)
	}
	return d.open(State{Mode: Show, ID: id})
}

// Close returns the drawer to Closed and reports the state it left.
func (d *Drawer) Close() (State, error) {
	d.mu.Lock()
	prev := d.state
	if prev.Mode == Closed {
		d.mu.Unlock()
		return prev, fmt.Errorf("%w: already closed", ErrInvalidTransition)
	}
	d.state = State{}
	d.mu.Unlock()
	d.notify(State{})
	return prev, nil
}

func (d *Drawer) open(next State) error {
	d.mu.Lock()
	if d.state.Mode != Closed {
		cur := d.state.Mode
		d.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, next.Mode)
	}
	d.state = next
	d.mu.Unlock()
	d.notify(next)
	return nil
}

func (d *Drawer) notify(s State) {
	if d.onChange != nil {
		d.onChange(s)
	}
}
