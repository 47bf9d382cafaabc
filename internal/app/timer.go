package app

import "time"

// Ticker is the periodic signal that drives a session's elapsed-time counter.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc builds a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

// NewRealTicker is the TickerFunc backed by time.Ticker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// startTimerLocked replaces any running timer. Each timer carries a
// generation so a tick that raced with a stop is dropped.
func (s *QuizSession) startTimerLocked() {
	s.stopTimerLocked()
	if s.newTicker == nil {
		return
	}
	gen := s.timerGen
	ticker := s.newTicker(time.Second)
	done := make(chan struct{})
	s.stopTimer = func() {
		ticker.Stop()
		close(done)
	}
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				s.tickFrom(gen)
			}
		}
	}()
}

func (s *QuizSession) stopTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	s.timerGen++
}

func (s *QuizSession) tickFrom(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen {
		return
	}
	s.tickLocked()
}
