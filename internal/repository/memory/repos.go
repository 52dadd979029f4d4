package memory

import (
	"context"
	"sort"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

type videoTutorialRepo struct{ s *Store }

func (r *videoTutorialRepo) Create(_ context.Context, tutorial *entity.VideoTutorial) error {
	return r.s.view(func(t *tables) error {
		tutorial.ID = t.newID()
		t.tutorials[tutorial.ID] = *tutorial
		return nil
	})
}

func (r *videoTutorialRepo) GetByID(_ context.Context, id uint) (*entity.VideoTutorial, error) {
	var out entity.VideoTutorial
	err := r.s.view(func(t *tables) error {
		v, ok := t.tutorials[id]
		if !ok || !v.IsActive {
			return apperrors.ErrNotFound
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type quizRepo struct{ s *Store }

func (r *quizRepo) Create(_ context.Context, quiz *entity.Quiz) error {
	return r.s.view(func(t *tables) error {
		for _, q := range t.quizzes {
			if q.VideoTutorialID == quiz.VideoTutorialID {
				return conflict("idx_quizzes_video_tutorial_id")
			}
		}
		quiz.ID = t.newID()
		stored := *quiz
		stored.VideoTutorial = nil
		stored.Questions = nil
		t.quizzes[quiz.ID] = stored
		return nil
	})
}

func (r *quizRepo) GetByID(_ context.Context, id uint) (*entity.Quiz, error) {
	var out entity.Quiz
	err := r.s.view(func(t *tables) error {
		q, ok := t.quizzes[id]
		if !ok || !q.IsActive {
			return apperrors.ErrNotFound
		}
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *quizRepo) GetWithTutorial(ctx context.Context, id uint) (*entity.Quiz, error) {
	var out entity.Quiz
	err := r.s.view(func(t *tables) error {
		q, ok := t.quizzes[id]
		if !ok || !q.IsActive {
			return apperrors.ErrNotFound
		}
		out = q
		if v, ok := t.tutorials[q.VideoTutorialID]; ok && v.IsActive {
			out.VideoTutorial = &v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *quizRepo) List(_ context.Context, filters repository.QuizFilters, limit, offset int) ([]entity.Quiz, int64, error) {
	var out []entity.Quiz
	_ = r.s.view(func(t *tables) error {
		for _, q := range t.quizzes {
			if !q.IsActive {
				continue
			}
			if filters.VideoTutorialID != nil && q.VideoTutorialID != *filters.VideoTutorialID {
				continue
			}
			if filters.CreatedBy != nil && q.CreatedBy != *filters.CreatedBy {
				continue
			}
			out = append(out, q)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), int64(len(out)), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type questionRepo struct{ s *Store }

// assemble подставляет активные варианты ответа, упорядоченные по position
func assemble(t *tables, q entity.Question) entity.Question {
	q.Choices = nil
	for _, c := range t.choices {
		if c.QuestionID == q.ID && c.IsActive {
			q.Choices = append(q.Choices, c)
		}
	}
	sort.Slice(q.Choices, func(i, j int) bool { return q.Choices[i].Position < q.Choices[j].Position })
	return q
}

func questionPositionTaken(t *tables, quizID uint, position int, excludeID uint) bool {
	for _, q := range t.questions {
		if q.IsActive && q.ID != excludeID && q.QuizID == quizID && q.Position == position {
			return true
		}
	}
	return false
}

func choicePositionTaken(t *tables, questionID uint, position int, excludeID uint) bool {
	for _, c := range t.choices {
		if c.IsActive && c.ID != excludeID && c.QuestionID == questionID && c.Position == position {
			return true
		}
	}
	return false
}

func (r *questionRepo) Create(_ context.Context, question *entity.Question) error {
	return r.s.view(func(t *tables) error {
		if question.IsActive && questionPositionTaken(t, question.QuizID, question.Position, 0) {
			return conflict("idx_questions_quiz_position")
		}
		seen := make(map[int]bool, len(question.Choices))
		for _, c := range question.Choices {
			if c.IsActive && seen[c.Position] {
				return conflict("idx_choices_question_position")
			}
			seen[c.Position] = true
		}

		question.ID = t.newID()
		for i := range question.Choices {
			question.Choices[i].ID = t.newID()
			question.Choices[i].QuestionID = question.ID
			t.choices[question.Choices[i].ID] = question.Choices[i]
		}
		stored := *question
		stored.Choices = nil
		t.questions[question.ID] = stored
		return nil
	})
}

func (r *questionRepo) GetByID(_ context.Context, id uint) (*entity.Question, error) {
	var out entity.Question
	err := r.s.view(func(t *tables) error {
		q, ok := t.questions[id]
		if !ok || !q.IsActive {
			return apperrors.ErrNotFound
		}
		out = assemble(t, q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *questionRepo) GetByQuizID(_ context.Context, quizID uint) ([]entity.Question, error) {
	out := []entity.Question{}
	_ = r.s.view(func(t *tables) error {
		for _, q := range t.questions {
			if q.IsActive && q.QuizID == quizID {
				out = append(out, assemble(t, q))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *questionRepo) GetByQuizAndPosition(_ context.Context, quizID uint, position int) (*entity.Question, error) {
	var out *entity.Question
	_ = r.s.view(func(t *tables) error {
		for _, q := range t.questions {
			if q.IsActive && q.QuizID == quizID && q.Position == position {
				found := assemble(t, q)
				out = &found
				return nil
			}
		}
		return nil
	})
	if out == nil {
		return nil, apperrors.ErrNotFound
	}
	return out, nil
}

func (r *questionRepo) GetByIDs(_ context.Context, ids []uint) ([]entity.Question, error) {
	out := []entity.Question{}
	_ = r.s.view(func(t *tables) error {
		for _, id := range ids {
			if q, ok := t.questions[id]; ok && q.IsActive {
				out = append(out, assemble(t, q))
			}
		}
		return nil
	})
	return out, nil
}

func (r *questionRepo) Update(_ context.Context, question *entity.Question) error {
	return r.s.view(func(t *tables) error {
		if _, ok := t.questions[question.ID]; !ok {
			return apperrors.ErrNotFound
		}
		if question.IsActive && questionPositionTaken(t, question.QuizID, question.Position, question.ID) {
			return conflict("idx_questions_quiz_position")
		}
		stored := *question
		stored.Choices = nil
		t.questions[question.ID] = stored
		return nil
	})
}

func (r *questionRepo) SoftDelete(_ context.Context, question *entity.Question) error {
	return r.s.view(func(t *tables) error {
		if _, ok := t.questions[question.ID]; !ok {
			return apperrors.ErrNotFound
		}
		stored := *question
		stored.Choices = nil
		t.questions[question.ID] = stored
		for id, c := range t.choices {
			if c.QuestionID == question.ID && c.IsActive {
				c.IsActive = false
				c.UpdatedBy = question.UpdatedBy
				c.UpdatedAt = question.UpdatedAt
				t.choices[id] = c
			}
		}
		return nil
	})
}

type choiceRepo struct{ s *Store }

func (r *choiceRepo) Create(_ context.Context, choice *entity.Choice) error {
	return r.s.view(func(t *tables) error {
		if choice.IsActive && choicePositionTaken(t, choice.QuestionID, choice.Position, 0) {
			return conflict("idx_choices_question_position")
		}
		choice.ID = t.newID()
		t.choices[choice.ID] = *choice
		return nil
	})
}

func (r *choiceRepo) GetByID(_ context.Context, id uint) (*entity.Choice, error) {
	var out entity.Choice
	err := r.s.view(func(t *tables) error {
		c, ok := t.choices[id]
		if !ok || !c.IsActive {
			return apperrors.ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *choiceRepo) Update(_ context.Context, choice *entity.Choice) error {
	return r.s.view(func(t *tables) error {
		if _, ok := t.choices[choice.ID]; !ok {
			return apperrors.ErrNotFound
		}
		if choice.IsActive && choicePositionTaken(t, choice.QuestionID, choice.Position, choice.ID) {
			return conflict("idx_choices_question_position")
		}
		t.choices[choice.ID] = *choice
		return nil
	})
}

func (r *choiceRepo) SoftDelete(ctx context.Context, choice *entity.Choice) error {
	return r.Update(ctx, choice)
}

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(_ context.Context, id uint) (*entity.User, error) {
	var out entity.User
	err := r.s.view(func(t *tables) error {
		u, ok := t.users[id]
		if !ok || !u.IsActive {
			return apperrors.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
