// Package memory реализует хранилище в памяти с теми же ограничениями уникальности,
// что и схема Postgres. Используется в тестах и в режиме database.driver=memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

// tables - снимок всех таблиц. Транзакция работает с копией и подменяет ее при коммите.
type tables struct {
	nextID     uint
	tutorials  map[uint]entity.VideoTutorial
	quizzes    map[uint]entity.Quiz
	questions  map[uint]entity.Question
	choices    map[uint]entity.Choice
	attempts   map[uint]entity.Attempt
	answers    map[uint]entity.Answer
	activities map[uint]entity.AttemptActivity
	users      map[uint]entity.User
}

func newTables() *tables {
	return &tables{
		tutorials:  make(map[uint]entity.VideoTutorial),
		quizzes:    make(map[uint]entity.Quiz),
		questions:  make(map[uint]entity.Question),
		choices:    make(map[uint]entity.Choice),
		attempts:   make(map[uint]entity.Attempt),
		answers:    make(map[uint]entity.Answer),
		activities: make(map[uint]entity.AttemptActivity),
		users:      make(map[uint]entity.User),
	}
}

func cloneMap[V any](m map[uint]V) map[uint]V {
	out := make(map[uint]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *tables) clone() *tables {
	return &tables{
		nextID:     t.nextID,
		tutorials:  cloneMap(t.tutorials),
		quizzes:    cloneMap(t.quizzes),
		questions:  cloneMap(t.questions),
		choices:    cloneMap(t.choices),
		attempts:   cloneMap(t.attempts),
		answers:    cloneMap(t.answers),
		activities: cloneMap(t.activities),
		users:      cloneMap(t.users),
	}
}

func (t *tables) newID() uint {
	t.nextID++
	return t.nextID
}

// Store реализует repository.Store в памяти.
// Все операции и транзакции сериализуются одним мьютексом, что дает изоляцию SERIALIZABLE.
type Store struct {
	mu   *sync.Mutex
	data *tables
	tx   bool
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, data: newTables()}
}

// AddUser добавляет пользователя (таблица пользователей принадлежит сервису идентификации)
func (s *Store) AddUser(user entity.User) {
	_ = s.view(func(t *tables) error {
		if user.ID == 0 {
			user.ID = t.newID()
		} else if user.ID > t.nextID {
			t.nextID = user.ID
		}
		t.users[user.ID] = user
		return nil
	})
}

// view выполняет fn над таблицами. Вне транзакции операция берет глобальную блокировку.
func (s *Store) view(fn func(t *tables) error) error {
	if s.tx {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// WithTx выполняет fn над копией таблиц и применяет ее только при успехе.
// Вложенный вызов работает как savepoint.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if !s.tx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	txStore := &Store{mu: s.mu, data: s.data.clone(), tx: true}
	if err := fn(txStore); err != nil {
		return err
	}
	*s.data = *txStore.data
	return nil
}

func (s *Store) Quizzes() repository.QuizRepository {
	return &quizRepo{s: s}
}

func (s *Store) VideoTutorials() repository.VideoTutorialRepository {
	return &videoTutorialRepo{s: s}
}

func (s *Store) Questions() repository.QuestionRepository {
	return &questionRepo{s: s}
}

func (s *Store) Choices() repository.ChoiceRepository {
	return &choiceRepo{s: s}
}

func (s *Store) Attempts() repository.AttemptRepository {
	return &attemptRepo{s: s}
}

func (s *Store) Answers() repository.AnswerRepository {
	return &answerRepo{s: s}
}

func (s *Store) Activities() repository.ActivityRepository {
	return &activityRepo{s: s}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepo{s: s}
}

func conflict(index string) error {
	return fmt.Errorf("%w: duplicate key value violates unique constraint %q", apperrors.ErrConflict, index)
}

var _ repository.Store = (*Store)(nil)
