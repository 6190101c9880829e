// Package notification 维护每个用户的站内收件箱，
// 并在用户开启邮件通知时把消息异步投递到邮件队列
package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/store"
)

// Service 是其他组件的被动副作用出口，自身不产生任何事件
type Service struct {
	store          *store.Store
	mailChannel    *amqp.Channel // 为 nil 时不做外部投递
	publishTimeout time.Duration
	now            func() time.Time
}

type Option func(*Service)

// WithMailChannel 启用通过 RabbitMQ 的外部邮件投递
func WithMailChannel(ch *amqp.Channel, publishTimeout time.Duration) Option {
	return func(s *Service) {
		s.mailChannel = ch
		s.publishTimeout = publishTimeout
	}
}

// WithClock 注入时钟，仅用于测试
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:          st,
		publishTimeout: 10 * time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add 向用户的收件箱插入一条通知，返回是否成功
// 用户不存在时是幂等的空操作；外部邮件投递失败只记录日志，不影响结果
func (s *Service) Add(username string, message string, typ domain.NotificationType, link string) bool {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		return false
	}

	n := &domain.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      typ,
		Link:      link,
		CreatedAt: s.now(),
		Read:      false,
	}

	if err := s.store.AddNotification(username, n); err != nil {
		slog.Error("通知写入收件箱失败", "username", username, "error", err)
		return false
	}

	s.deliverMail(user, message, link)

	return true
}

func (s *Service) MarkRead(username string, id string) bool {
	ok, err := s.store.MarkNotificationRead(username, id)
	if err != nil {
		slog.Error("标记通知已读失败", "username", username, "id", id, "error", err)
		return false
	}
	return ok
}

func (s *Service) Delete(username string, id string) bool {
	ok, err := s.store.DeleteNotification(username, id)
	if err != nil {
		slog.Error("删除通知失败", "username", username, "id", id, "error", err)
		return false
	}
	return ok
}

func (s *Service) UnreadCount(username string) int {
	return s.store.UnreadNotificationCount(username)
}

func (s *Service) List(username string) []*domain.Notification {
	return s.store.GetNotifications(username)
}

// deliverMail 把通知投递到邮件队列，属于发后不管：
// 任何失败都只记录日志，绝不让核心操作失败
func (s *Service) deliverMail(user *domain.User, message string, link string) {
	if s.mailChannel == nil {
		return
	}

	if !s.store.GetPreferences(user.Username).EmailNotifications {
		return
	}

	mailMessage := domain.MailMessage{
		Type: "notification",
		To:   user.Email,
		Data: domain.NotificationMailData{
			Name:    user.Name,
			Message: message,
			Link:    link,
		},
	}

	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		slog.Error("通知邮件序列化失败", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.publishTimeout)
	defer cancel()

	if err := s.mailChannel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		slog.Error("通知邮件入队失败", "to", user.Email, "error", err)
	}
}
