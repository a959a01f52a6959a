package session

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Locked serializes all operations on one session. A panic inside an
// operation poisons the lock; every later operation fails.
type Locked struct {
	mu       sync.Mutex
	s        *Session
	poisoned bool
}

func NewLocked(s *Session) *Locked {
	return &Locked{s: s}
}

// Do runs fn with exclusive access to the session.
func (l *Locked) Do(fn func(*Session) error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.poisoned {
		return NewError(InternalError, "session lock poisoned by an earlier panic")
	}
	defer func() {
		if r := recover(); r != nil {
			l.poisoned = true
			log.Errorf("session operation panicked: %v", r)
			err = NewError(InternalError, "session operation panicked: %v", r)
		}
	}()
	return fn(l.s)
}
