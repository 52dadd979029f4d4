package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// NotificationSweeper периодически дослает письма, которые не удалось отправить сразу
type NotificationSweeper struct {
	notifications *NotificationService
	cron          *cron.Cron
	spec          string
	batch         int
	timeout       time.Duration
}

// NewNotificationSweeper создает планировщик. spec - стандартное cron-выражение из 5 полей.
func NewNotificationSweeper(notifications *NotificationService, spec string, batch int, timeout time.Duration) *NotificationSweeper {
	return &NotificationSweeper{
		notifications: notifications,
		cron:          cron.New(),
		spec:          spec,
		batch:         batch,
		timeout:       timeout,
	}
}

// Start регистрирует задачу и запускает планировщик
func (s *NotificationSweeper) Start() error {
	if s.batch <= 0 {
		return fmt.Errorf("notification sweep batch must be positive, got %d", s.batch)
	}
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[NotificationSweeper] Запущен, расписание %q", s.spec)
	return nil
}

// RunOnce выполняет один проход
func (s *NotificationSweeper) RunOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout*time.Duration(s.batch))
		defer cancel()
	}
	sent, err := s.notifications.SweepPending(ctx, s.batch)
	if err != nil {
		log.Printf("[NotificationSweeper] Ошибка выборки попыток: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("[NotificationSweeper] Отправлено %d писем", sent)
	}
}

// Stop останавливает планировщик и ждет завершения текущего прохода
func (s *NotificationSweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[NotificationSweeper] Остановлен")
}
