package domain

import "errors"

var (
	// ErrInvalidState is returned when an operation is not allowed in the session's lifecycle state.
	ErrInvalidState = errors.New("operation not allowed in current session state")
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates an answer was recorded for a question outside the current sample.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidBank indicates the supplied question bank failed validation.
	ErrInvalidBank = errors.New("invalid question bank")
	// ErrBankEmpty indicates the bank loader produced no sections.
	ErrBankEmpty = errors.New("question bank is empty")
)
