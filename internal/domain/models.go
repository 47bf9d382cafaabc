package domain

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle tag of a quiz session.
type State string

const (
	StateNotStarted State = "not-started"
	StateInProgress State = "in-progress"
	StateSubmitted  State = "submitted"
)

// AnswerMap maps question IDs to the raw answer text.
type AnswerMap map[string]string

// Answered reports whether the question has a non-blank answer.
func (m AnswerMap) Answered(questionID string) bool {
	return strings.TrimSpace(m[questionID]) != ""
}

// Clone returns an independent copy.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SectionResult is the per-section slice of a ScoreReport.
type SectionResult struct {
	Title       string  `json:"title"`
	Total       int     `json:"total"`
	Answered    int     `json:"answered"`
	Correct     int     `json:"correct"`
	NeedsReview int     `json:"needsReview"`
	Score       float64 `json:"score"`
}

// ScoreReport summarizes a submitted session.
type ScoreReport struct {
	TotalQuestions    int             `json:"totalQuestions"`
	AnsweredQuestions int             `json:"answeredQuestions"`
	CorrectAnswers    int             `json:"correctAnswers"`
	NeedsReview       int             `json:"needsReview"`
	OverallScore      float64         `json:"overallScore"`
	CompletionRate    float64         `json:"completionRate"`
	SectionResults    []SectionResult `json:"sectionResults"`
}

// ReviewStatus classifies a single answered or unanswered question in the results.
type ReviewStatus string

const (
	ReviewCorrect     ReviewStatus = "correct"
	ReviewIncorrect   ReviewStatus = "incorrect"
	ReviewUnanswered  ReviewStatus = "unanswered"
	ReviewNeedsReview ReviewStatus = "needs-review"
)

// QuestionReview is one row of the detailed review.
type QuestionReview struct {
	QuestionID    string       `json:"questionId"`
	Prompt        string       `json:"question"`
	Type          QuestionType `json:"type"`
	TypeLabel     string       `json:"typeLabel"`
	Status        ReviewStatus `json:"status"`
	Answer        string       `json:"answer,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
}

// SectionReview groups review rows by section.
type SectionReview struct {
	Title     string           `json:"title"`
	Questions []QuestionReview `json:"questions"`
}

// Grade is the score band used for the closing message.
type Grade struct {
	Band    string `json:"band"`
	Message string `json:"message"`
}

// ExportDocument is the downloadable results file.
type ExportDocument struct {
	TimeElapsed       string    `json:"timeElapsed"`
	Answers           AnswerMap `json:"answers"`
	Timestamp         string    `json:"timestamp"`
	TotalQuestions    int       `json:"totalQuestions"`
	AnsweredQuestions int       `json:"answeredQuestions"`
}

// SessionSnapshot is the read model pushed to the presentation layer.
type SessionSnapshot struct {
	SessionID       string                  `json:"sessionId"`
	State           State                   `json:"state"`
	SectionIndex    int                     `json:"sectionIndex"`
	QuestionIndex   int                     `json:"questionIndex"`
	ElapsedSeconds  int                     `json:"elapsedSeconds"`
	TimeElapsed     string                  `json:"timeElapsed"`
	Progress        float64                 `json:"progress"`
	Sections        []SampledSection        `json:"sections"`
	SectionAnswered []int                   `json:"sectionAnswered"`
	TypeLabels      map[QuestionType]string `json:"typeLabels"`
	Answers         AnswerMap               `json:"answers"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// FormatElapsed renders seconds as zero-padded MM:SS. Minutes are not wrapped at an hour.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Results is everything the results view needs for a submitted session.
type Results struct {
	Report      ScoreReport     `json:"report"`
	Review      []SectionReview `json:"review"`
	Grade       Grade           `json:"grade"`
	TimeElapsed string          `json:"timeElapsed"`
}
