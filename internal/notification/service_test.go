package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.CreateUser(&domain.User{
		Username: "alice",
		Name:     "Alice",
		Team:     "客服组",
		Email:    "alice@example.com",
		Role:     domain.RoleRegular,
	}))

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	svc := NewService(s, WithClock(func() time.Time { return now }))
	return svc, s
}

func TestAdd(t *testing.T) {
	t.Run("通知进入收件箱且最新在前", func(t *testing.T) {
		svc, _ := newTestService(t)

		require.True(t, svc.Add("alice", "第一条", domain.NotificationInfo, "/schedule"))
		require.True(t, svc.Add("alice", "第二条", domain.NotificationSuccess, ""))

		inbox := svc.List("alice")
		require.Len(t, inbox, 2)
		require.Equal(t, "第二条", inbox[0].Message)
		require.Equal(t, domain.NotificationSuccess, inbox[0].Type)
		require.Equal(t, "第一条", inbox[1].Message)
		require.Equal(t, "/schedule", inbox[1].Link)
		require.False(t, inbox[0].Read)
		require.NotEqual(t, inbox[0].ID, inbox[1].ID)
	})

	t.Run("用户不存在时为空操作", func(t *testing.T) {
		svc, _ := newTestService(t)

		require.False(t, svc.Add("missing", "消息", domain.NotificationInfo, ""))
		require.Empty(t, svc.List("missing"))
	})
}

func TestMarkRead(t *testing.T) {
	svc, _ := newTestService(t)
	require.True(t, svc.Add("alice", "消息", domain.NotificationInfo, ""))

	id := svc.List("alice")[0].ID
	require.True(t, svc.MarkRead("alice", id))
	require.Equal(t, 0, svc.UnreadCount("alice"))

	// 重复标记和未知 ID 都不报错
	require.True(t, svc.MarkRead("alice", id))
	require.False(t, svc.MarkRead("alice", "missing"))
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	require.True(t, svc.Add("alice", "消息", domain.NotificationInfo, ""))

	id := svc.List("alice")[0].ID
	require.True(t, svc.Delete("alice", id))
	require.Empty(t, svc.List("alice"))
	require.False(t, svc.Delete("alice", id))
}

func TestUnreadCount(t *testing.T) {
	svc, _ := newTestService(t)
	require.Equal(t, 0, svc.UnreadCount("alice"))

	require.True(t, svc.Add("alice", "第一条", domain.NotificationInfo, ""))
	require.True(t, svc.Add("alice", "第二条", domain.NotificationInfo, ""))
	require.Equal(t, 2, svc.UnreadCount("alice"))

	id := svc.List("alice")[0].ID
	require.True(t, svc.MarkRead("alice", id))
	require.Equal(t, 1, svc.UnreadCount("alice"))
}
