package asp

import (
	"sync"
	"time"

	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

type SolveMode int

const (
	SolveAsync SolveMode = 1 << iota
	SolveYield
)

type SolveResult int

const (
	ResultSatisfiable SolveResult = 1 << iota
	ResultUnsatisfiable
	ResultExhausted
	ResultInterrupted
)

func (r SolveResult) Satisfiable() bool   { return r&ResultSatisfiable != 0 }
func (r SolveResult) Unsatisfiable() bool { return r&ResultUnsatisfiable != 0 }
func (r SolveResult) Exhausted() bool     { return r&ResultExhausted != 0 }
func (r SolveResult) Interrupted() bool   { return r&ResultInterrupted != 0 }

type SolveEventType int

const (
	SolveEventModel SolveEventType = iota
	SolveEventStatistics
	SolveEventFinish
)

// SolveEvent is passed to the event handler of a search. Model is set for
// model events, Step and Accumulated for statistics events and Result for
// the finish event.
type SolveEvent struct {
	Type        SolveEventType
	Model       *Model
	Step        UserStatistics
	Accumulated UserStatistics
	Result      SolveResult
}

// SolveEventHandler observes a search. Returning false from a model event
// stops the search.
type SolveEventHandler interface {
	OnSolveEvent(ev SolveEvent) (bool, error)
}

// Model is an answer set found by the search.
type Model struct {
	number uint64
	thread uint32
	atoms  []Symbol
	shown  []Symbol
	lits   map[Literal]bool
}

func (m *Model) Number() uint64 {
	return m.number
}

func (m *Model) ThreadID() uint32 {
	return m.thread
}

// Symbols returns the shown atoms of the model in atom order.
func (m *Model) Symbols() []Symbol {
	return m.shown
}

// Atoms returns all true atoms of the model in atom order.
func (m *Model) Atoms() []Symbol {
	return m.atoms
}

func (m *Model) Contains(s Symbol) bool {
	for _, a := range m.atoms {
		if a.Equal(s) {
			return true
		}
	}
	return false
}

func (m *Model) IsTrue(l Literal) bool {
	if l < 0 {
		return !m.lits[-l]
	}
	return m.lits[l]
}

// SolveHandle controls a running search.
type SolveHandle struct {
	ctl     *Control
	yield   bool
	mu      sync.Mutex
	changed chan struct{}
	model   *Model
	ready   bool
	done    bool
	result  SolveResult
	err     error
	resume  chan struct{}
	stop    chan struct{}
	stopped sync.Once
	exited  chan struct{}
}

func (h *SolveHandle) notifyLocked() {
	close(h.changed)
	h.changed = make(chan struct{})
}

// Wait reports whether a model or the final result is available. A zero
// timeout polls, a negative one waits indefinitely.
func (h *SolveHandle) Wait(timeout time.Duration) bool {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		h.mu.Lock()
		ready, ch := h.ready, h.changed
		h.mu.Unlock()
		if ready || timeout == 0 {
			return ready
		}
		select {
		case <-ch:
		case <-expired:
			return false
		}
	}
}

// Model blocks until the next model is available. It returns nil once the
// search is finished.
func (h *SolveHandle) Model() (*Model, error) {
	h.Wait(-1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	return h.model, nil
}

// Resume continues the search after the current model.
func (h *SolveHandle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done || h.model == nil {
		return
	}
	h.model = nil
	h.ready = false
	h.notifyLocked()
	h.resume <- struct{}{}
}

// Get waits for the search to finish and returns its result.
func (h *SolveHandle) Get() (SolveResult, error) {
	for {
		h.Wait(-1)
		h.mu.Lock()
		done, result, err := h.done, h.result, h.err
		h.mu.Unlock()
		if done {
			return result, err
		}
		h.Resume()
	}
}

func (h *SolveHandle) Cancel() {
	h.stopped.Do(func() { close(h.stop) })
}

// Close stops the search and returns the control object for further use.
func (h *SolveHandle) Close() (*Control, error) {
	h.Cancel()
	<-h.exited
	h.ctl.solving = false
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctl, h.err
}

func (h *SolveHandle) publish(m *Model) bool {
	h.mu.Lock()
	h.model = m
	h.ready = true
	h.notifyLocked()
	h.mu.Unlock()
	select {
	case <-h.resume:
		return true
	case <-h.stop:
		return false
	}
}

func (h *SolveHandle) finish(result SolveResult, err error) {
	h.mu.Lock()
	h.model = nil
	h.ready = true
	h.done = true
	h.result = result
	h.err = err
	h.notifyLocked()
	h.mu.Unlock()
	close(h.exited)
}

const pollInterval = time.Millisecond

type search struct {
	ctl         *Control
	h           *SolveHandle
	enc         *encoding
	assumptions []Literal
	handler     SolveEventHandler
	limit       uint64
	models      uint64
	loops       int
	conflicts   int
	calls       int
}

// solveOnce runs gini under the current assumptions until it finishes or
// the handle is cancelled.
func (s *search) solveOnce() (int, bool) {
	s.calls++
	s.enc.g.Assume(s.enc.assumptions(s.assumptions)...)
	gs := s.enc.g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if res, done := gs.Test(); done {
			return res, false
		}
		select {
		case <-s.h.stop:
			gs.Stop()
			return 0, true
		case <-ticker.C:
		}
	}
}

func (s *search) run() {
	start := time.Now()
	result, err := s.loop()
	s.ctl.recordStatistics(s, result, time.Since(start))
	if err == nil && s.handler != nil {
		step, accu := s.ctl.userStatistics()
		_, err = s.handler.OnSolveEvent(SolveEvent{Type: SolveEventStatistics, Step: step, Accumulated: accu})
		if err == nil {
			_, err = s.handler.OnSolveEvent(SolveEvent{Type: SolveEventFinish, Result: result})
		}
	}
	s.h.finish(result, err)
}

func (s *search) loop() (SolveResult, error) {
	var result SolveResult
	for {
		res, interrupted := s.solveOnce()
		if interrupted {
			return result | ResultInterrupted, nil
		}
		if res != 1 {
			if s.models == 0 {
				result |= ResultUnsatisfiable
			}
			return result | ResultExhausted, nil
		}
		if set := s.enc.unfounded(); len(set) > 0 {
			s.loops++
			s.enc.addLoopNogoods(set)
			continue
		}
		accepted, err := s.checkTheory()
		if err != nil {
			return result, err
		}
		if !accepted {
			continue
		}

		s.models++
		result |= ResultSatisfiable
		m := s.ctl.buildModel(s.enc, s.models)
		goon := true
		if s.handler != nil {
			if goon, err = s.handler.OnSolveEvent(SolveEvent{Type: SolveEventModel, Model: m}); err != nil {
				return result, errors.Wrap(err, "model event")
			}
		}
		if s.h.yield && !s.h.publish(m) {
			return result | ResultInterrupted, nil
		}
		s.enc.block()
		if !goon || (s.limit > 0 && s.models >= s.limit) {
			return result, nil
		}
	}
}

func (s *search) checkTheory() (bool, error) {
	prop := s.ctl.propagator
	if prop == nil || len(s.ctl.gp.theory) == 0 {
		return true, nil
	}
	var active []*TheoryAtom
	for _, ta := range s.ctl.gp.theory {
		if s.enc.g.Value(s.enc.lit(ta.Literal)) {
			active = append(active, ta)
		}
	}
	conflict, err := prop.Check(0, active)
	if err != nil {
		return false, errors.Wrap(err, "theory check")
	}
	if len(conflict) == 0 {
		return true, nil
	}
	s.conflicts++
	clause := make([]z.Lit, len(conflict))
	for i, ta := range conflict {
		clause[i] = s.enc.lit(ta.Literal).Not()
	}
	s.enc.addClause(clause...)
	return false, nil
}
