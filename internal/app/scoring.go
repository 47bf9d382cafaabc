package app

import "examprep-quiz/internal/domain"

// Score computes the report for a set of sampled sections and answers.
// Only multiple-choice questions with a correct answer are graded, by exact
// match on the untrimmed answer; every other answered question counts as
// needing manual review.
func Score(sections []domain.SampledSection, answers domain.AnswerMap) domain.ScoreReport {
	report := domain.ScoreReport{
		SectionResults: make([]domain.SectionResult, 0, len(sections)),
	}
	for _, section := range sections {
		result := domain.SectionResult{Title: section.Title, Total: len(section.Questions)}
		for _, q := range section.Questions {
			if !answers.Answered(q.ID) {
				continue
			}
			result.Answered++
			if q.AutoGradable() {
				if answers[q.ID] == q.CorrectAnswer {
					result.Correct++
				}
			} else {
				result.NeedsReview++
			}
		}
		result.Score = percent(result.Correct, result.Total)

		report.TotalQuestions += result.Total
		report.AnsweredQuestions += result.Answered
		report.CorrectAnswers += result.Correct
		report.NeedsReview += result.NeedsReview
		report.SectionResults = append(report.SectionResults, result)
	}
	report.OverallScore = percent(report.CorrectAnswers, report.TotalQuestions)
	report.CompletionRate = percent(report.AnsweredQuestions, report.TotalQuestions)
	return report
}

// Review builds the per-question breakdown shown under the results.
// The explanation is only revealed for answered questions.
func Review(sections []domain.SampledSection, answers domain.AnswerMap) []domain.SectionReview {
	out := make([]domain.SectionReview, 0, len(sections))
	for _, section := range sections {
		rows := make([]domain.QuestionReview, 0, len(section.Questions))
		for _, q := range section.Questions {
			row := domain.QuestionReview{
				QuestionID: q.ID,
				Prompt:     q.Prompt,
				Type:       q.Type,
				TypeLabel:  q.Type.Label(),
				Status:     domain.ReviewUnanswered,
			}
			if answers.Answered(q.ID) {
				row.Answer = answers[q.ID]
				row.Explanation = q.Explanation
				switch {
				case !q.AutoGradable():
					row.Status = domain.ReviewNeedsReview
				case row.Answer == q.CorrectAnswer:
					row.Status = domain.ReviewCorrect
				default:
					row.Status = domain.ReviewIncorrect
					row.CorrectAnswer = q.CorrectAnswer
				}
			}
			rows = append(rows, row)
		}
		out = append(out, domain.SectionReview{Title: section.Title, Questions: rows})
	}
	return out
}

// GradeFor maps an overall score onto a band and closing message.
func GradeFor(score float64) domain.Grade {
	switch {
	case score >= 80:
		return domain.Grade{Band: "excellent", Message: "Excellent work! Africa needs builders. And you are one of them."}
	case score >= 60:
		return domain.Grade{Band: "good", Message: "Good effort! Keep building your skills. Africa needs builders. And you are one of them."}
	default:
		return domain.Grade{Band: "keep-learning", Message: "Every expert was once a beginner. Keep learning and building. Africa needs builders. And you are one of them."}
	}
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func countAnswered(sections []domain.SampledSection, answers domain.AnswerMap) (answered, total int) {
	for _, section := range sections {
		for _, q := range section.Questions {
			total++
			if answers.Answered(q.ID) {
				answered++
			}
		}
	}
	return answered, total
}
