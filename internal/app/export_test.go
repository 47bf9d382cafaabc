package app

// TimerRunning reports whether a background timer is attached.
func (s *QuizSession) TimerRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopTimer != nil
}
