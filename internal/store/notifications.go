package store

import (
	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

func (s *Store) loadNotifications() {
	inboxes := make(map[string][]*domain.Notification)
	if !s.loadCollection(notificationsFile, &inboxes) {
		s.inboxes = make(map[string][]*domain.Notification)
		_ = s.saveCollection(notificationsFile, map[string][]*domain.Notification{})
		return
	}

	// 历史数据可能超过容量上限，在加载时一并截断
	for username, inbox := range inboxes {
		if len(inbox) > domain.MaxNotificationsPerUser {
			inboxes[username] = inbox[:domain.MaxNotificationsPerUser]
		}
	}

	s.inboxes = inboxes
}

func (s *Store) saveNotificationsLocked() error {
	return s.saveCollection(notificationsFile, s.inboxes)
}

// AddNotification 把通知插入收件箱头部（最新在前），超出容量的最旧通知在插入时被丢弃
func (s *Store) AddNotification(username string, n *domain.Notification) error {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	prev := s.inboxes[username]

	inbox := make([]*domain.Notification, 0, len(prev)+1)
	inbox = append(inbox, n)
	inbox = append(inbox, prev...)
	if len(inbox) > domain.MaxNotificationsPerUser {
		inbox = inbox[:domain.MaxNotificationsPerUser]
	}

	s.inboxes[username] = inbox
	if err := s.saveNotificationsLocked(); err != nil {
		s.inboxes[username] = prev
		return err
	}

	return nil
}

func (s *Store) GetNotifications(username string) []*domain.Notification {
	s.notifMu.RLock()
	defer s.notifMu.RUnlock()

	inbox := make([]*domain.Notification, 0, len(s.inboxes[username]))
	for _, n := range s.inboxes[username] {
		copied := *n
		inbox = append(inbox, &copied)
	}
	return inbox
}

// MarkNotificationRead 把通知标记为已读
// 用户或通知不存在时返回 false 而不是错误
func (s *Store) MarkNotificationRead(username string, id string) (bool, error) {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	for _, n := range s.inboxes[username] {
		if n.ID == id {
			if n.Read {
				return true, nil
			}
			n.Read = true
			if err := s.saveNotificationsLocked(); err != nil {
				n.Read = false
				return false, err
			}
			return true, nil
		}
	}

	return false, nil
}

func (s *Store) DeleteNotification(username string, id string) (bool, error) {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	inbox := s.inboxes[username]
	for i, n := range inbox {
		if n.ID == id {
			next := make([]*domain.Notification, 0, len(inbox)-1)
			next = append(next, inbox[:i]...)
			next = append(next, inbox[i+1:]...)

			s.inboxes[username] = next
			if err := s.saveNotificationsLocked(); err != nil {
				s.inboxes[username] = inbox
				return false, err
			}
			return true, nil
		}
	}

	return false, nil
}

func (s *Store) UnreadNotificationCount(username string) int {
	s.notifMu.RLock()
	defer s.notifMu.RUnlock()

	count := 0
	for _, n := range s.inboxes[username] {
		if !n.Read {
			count++
		}
	}
	return count
}
