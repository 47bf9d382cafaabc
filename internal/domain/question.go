package domain

import (
	"fmt"
	"slices"
)

// QuestionType tags how a question is answered and whether it can be auto-graded.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeShortText      QuestionType = "short-text"
	TypeCodePrediction QuestionType = "code-prediction"
	TypeOutputTracing  QuestionType = "output-tracing"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeShortText, TypeCodePrediction, TypeOutputTracing:
		return true
	}
	return false
}

// Label is the human readable name shown next to a question.
func (t QuestionType) Label() string {
	switch t {
	case TypeMultipleChoice:
		return "Multiple Choice"
	case TypeShortText:
		return "Short Answer"
	case TypeCodePrediction:
		return "Code Prediction"
	case TypeOutputTracing:
		return "Output Tracing"
	default:
		return "Question"
	}
}

// Question is an immutable bank entry.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Prompt        string       `json:"question" yaml:"question"`
	Type          QuestionType `json:"type" yaml:"type"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty"`
	Code          string       `json:"code,omitempty" yaml:"code,omitempty"`
	Explanation   string       `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// AutoGradable reports whether the question can be scored by exact match.
func (q Question) AutoGradable() bool {
	return q.Type == TypeMultipleChoice && q.CorrectAnswer != ""
}

// Section is a titled pool of questions as supplied by the bank.
type Section struct {
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// SampledSection is the per-session random subset of a Section.
type SampledSection struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// ValidateBank checks the data-integrity rules of a question bank:
// unique non-empty IDs, known types, options for multiple-choice questions,
// and a correct answer that is one of the options.
func ValidateBank(sections []Section) error {
	if len(sections) == 0 {
		return ErrBankEmpty
	}
	seen := make(map[string]struct{})
	for si, section := range sections {
		if section.Title == "" {
			return fmt.Errorf("%w: section %d has no title", ErrInvalidBank, si)
		}
		for _, q := range section.Questions {
			if q.ID == "" {
				return fmt.Errorf("%w: question without id in section %q", ErrInvalidBank, section.Title)
			}
			if _, dup := seen[q.ID]; dup {
				return fmt.Errorf("%w: duplicate question id %q", ErrInvalidBank, q.ID)
			}
			seen[q.ID] = struct{}{}
			if !q.Type.Valid() {
				return fmt.Errorf("%w: question %q has unknown type %q", ErrInvalidBank, q.ID, q.Type)
			}
			if q.Type != TypeMultipleChoice {
				continue
			}
			if len(q.Options) == 0 {
				return fmt.Errorf("%w: multiple-choice question %q has no options", ErrInvalidBank, q.ID)
			}
			if q.CorrectAnswer != "" && !slices.Contains(q.Options, q.CorrectAnswer) {
				return fmt.Errorf("%w: question %q correct answer is not an option", ErrInvalidBank, q.ID)
			}
		}
	}
	return nil
}
