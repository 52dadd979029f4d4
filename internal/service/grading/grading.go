// Package grading содержит чистую логику проверки ответов.
// Функции не возвращают ошибок: некорректные данные вопроса дают "неверно".
package grading

import (
	"strings"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// GradeMultiChoice возвращает true, если у вопроса ровно один правильный вариант
// и ответ выбирает именно его.
func GradeMultiChoice(answer *entity.Answer, question *entity.Question) bool {
	if answer == nil || question == nil || answer.SelectedChoiceID == nil {
		return false
	}
	correctID, ok := question.CorrectChoiceID()
	if !ok {
		return false
	}
	return *answer.SelectedChoiceID == correctID
}

// GradeFreeForm сравнивает ответ с эталоном без учета регистра.
// Пробелы не обрезаются: "paris " не равно "Paris".
func GradeFreeForm(answer *entity.Answer, question *entity.Question) bool {
	if answer == nil || question == nil || answer.AnswerText == nil {
		return false
	}
	return strings.EqualFold(*answer.AnswerText, question.ReferenceAnswer)
}

// GradeAnswer выбирает проверку по виду вопроса.
// Ответ другого вида или неизвестный вид вопроса считаются неверными.
func GradeAnswer(answer *entity.Answer, question *entity.Question) bool {
	if answer == nil || question == nil || answer.Kind != question.Kind {
		return false
	}
	switch question.Kind {
	case entity.QuestionKindMultiChoice:
		return GradeMultiChoice(answer, question)
	case entity.QuestionKindFreeForm:
		return GradeFreeForm(answer, question)
	default:
		return false
	}
}

// Result - результат проверки одного ответа
type Result struct {
	AnswerID uint
	IsValid  bool
	Points   int
}

// Score - итог проверки попытки
type Score struct {
	Results     []Result
	TotalPoints int
}

// ScoreAttempt проверяет все ответы попытки. Ответы на отсутствующие
// (удаленные) вопросы засчитываются как неверные.
func ScoreAttempt(answers []entity.Answer, questions map[uint]*entity.Question) Score {
	score := Score{Results: make([]Result, 0, len(answers))}
	for i := range answers {
		answer := &answers[i]
		res := Result{AnswerID: answer.ID}
		if question, ok := questions[answer.QuestionID]; ok {
			res.IsValid = GradeAnswer(answer, question)
			if res.IsValid {
				res.Points = question.Points
			}
		}
		score.TotalPoints += res.Points
		score.Results = append(score.Results, res)
	}
	return score
}

// TotalAvailable возвращает сумму баллов всех вопросов
func TotalAvailable(questions []entity.Question) int {
	total := 0
	for i := range questions {
		total += questions[i].Points
	}
	return total
}
