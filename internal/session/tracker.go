package session

import (
	"sync"
	"time"
)

type State string

const (
	StateSignedOut State = "signed_out"
	StateSignedIn  State = "signed_in"
)

type Transition struct {
	From     State
	To       State
	Identity Identity
	At       time.Time
}

type Observer func(Transition)

// Tracker is the single subscription point for session changes. The auth
// service reports sign-in and sign-out; observers receive the resulting
// transitions in subscription order.
type Tracker struct {
	mu        sync.Mutex
	nextID    int
	observers map[int]Observer
	order     []int
	active    map[string]Identity
	now       func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		observers: make(map[int]Observer),
		active:    make(map[string]Identity),
		now:       time.Now,
	}
}

// Subscribe registers o and returns a func that removes it.
func (t *Tracker) Subscribe(o Observer) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.observers[id] = o
	t.order = append(t.order, id)
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, id)
		for i, v := range t.order {
			if v == id {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
}

// SignedIn records a new session. A session already signed in emits nothing.
func (t *Tracker) SignedIn(id Identity) {
	t.transition(id, StateSignedIn)
}

// SignedOut ends a session. Unknown sessions emit nothing.
func (t *Tracker) SignedOut(id Identity) {
	t.transition(id, StateSignedOut)
}

func (t *Tracker) State(sessionID string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[sessionID]; ok {
		return StateSignedIn
	}
	return StateSignedOut
}

// Active returns the number of signed-in sessions.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

func (t *Tracker) transition(id Identity, to State) {
	t.mu.Lock()
	_, signedIn := t.active[id.SessionID]
	from := StateSignedOut
	if signedIn {
		from = StateSignedIn
	}
	if from == to {
		t.mu.Unlock()
		return
	}
	if to == StateSignedIn {
		t.active[id.SessionID] = id
	} else {
		delete(t.active, id.SessionID)
	}
	observers := make([]Observer, 0, len(t.order))
	for _, k := range t.order {
		observers = append(observers, t.observers[k])
	}
	tr := Transition{From: from, To: to, Identity: id, At: t.now()}
	t.mu.Unlock()

	for _, o := range observers {
		o(tr)
	}
}
