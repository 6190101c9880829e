package workflow

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/notification"
	"github.com/teamshift-dev/workshift-manager/backend/internal/scheduler"
	"github.com/teamshift-dev/workshift-manager/backend/internal/store"
)

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func newTestWorkflow(t *testing.T) (*SwapWorkflow, *store.Store) {
	t.Helper()

	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	for _, u := range []*domain.User{
		{Username: "alice", Name: "Alice", Team: "客服组", Email: "alice@example.com", Role: domain.RoleRegular},
		{Username: "bob", Name: "Bob", Team: "运维组", Email: "bob@example.com", Role: domain.RoleRegular},
	} {
		require.NoError(t, s.CreateUser(u))
	}

	notifier := notification.NewService(s, notification.WithClock(func() time.Time { return testNow }))
	w := NewSwapWorkflow(s, notifier, WithClock(func() time.Time { return testNow }))
	return w, s
}

func createEntry(t *testing.T, s *store.Store, username string, name string, date string, start string, end string) *domain.ScheduleEntry {
	t.Helper()

	entry := &domain.ScheduleEntry{
		Date:      date,
		Username:  username,
		Name:      name,
		Team:      "客服组",
		StartTime: start,
		EndTime:   end,
		Location:  domain.LocationOffice,
	}
	require.NoError(t, s.CreateEntry(entry))
	return entry
}

func TestCreateRequest(t *testing.T) {
	t.Run("创建后为待处理状态且保留原班次快照", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		entry := createEntry(t, s, "alice", "Alice", "2025-06-02", "09:00", "17:00")

		req, err := w.CreateRequest(CreateRequestCommand{
			ActorUsername:  "alice",
			ScheduleID:     entry.ID,
			TargetUsername: "bob",
		})
		require.NoError(t, err)

		require.NotEmpty(t, req.RequestID)
		require.Equal(t, domain.SwapStatusPending, req.Status)
		require.Equal(t, "alice", req.RequesterUsername)
		require.Equal(t, "Alice", req.RequesterName)
		require.Equal(t, "bob", req.TargetUsername)
		require.Equal(t, "Bob", req.TargetName)
		require.Equal(t, entry.ID, req.ScheduleID)
		require.Equal(t, "2025-06-02", req.Date)
		require.Equal(t, "09:00", req.StartTime)
		require.Equal(t, "17:00", req.EndTime)
		require.Equal(t, domain.LocationOffice, req.Location)

		// 双方都收到通知
		require.Len(t, s.GetNotifications("bob"), 1)
		require.Len(t, s.GetNotifications("alice"), 1)
	})

	t.Run("目标用户当天已有重叠班次时额外预警", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		entry := createEntry(t, s, "alice", "Alice", "2025-06-02", "09:00", "17:00")
		createEntry(t, s, "bob", "Bob", "2025-06-02", "10:00", "18:00")

		_, err := w.CreateRequest(CreateRequestCommand{
			ActorUsername:  "alice",
			ScheduleID:     entry.ID,
			TargetUsername: "bob",
		})
		require.NoError(t, err)

		inbox := s.GetNotifications("bob")
		require.Len(t, inbox, 2)
		require.Equal(t, domain.NotificationWarning, inbox[0].Type)
	})

	t.Run("只能为自己的班次发起换班", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		entry := createEntry(t, s, "alice", "Alice", "2025-06-02", "09:00", "17:00")

		_, err := w.CreateRequest(CreateRequestCommand{
			ActorUsername:  "bob",
			ScheduleID:     entry.ID,
			TargetUsername: "alice",
		})
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("不能和自己换班", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		entry := createEntry(t, s, "alice", "Alice", "2025-06-02", "09:00", "17:00")

		_, err := w.CreateRequest(CreateRequestCommand{
			ActorUsername:  "alice",
			ScheduleID:     entry.ID,
			TargetUsername: "alice",
		})
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("班次或目标用户不存在时返回未找到", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		entry := createEntry(t, s, "alice", "Alice", "2025-06-02", "09:00", "17:00")

		_, err := w.CreateRequest(CreateRequestCommand{
			ActorUsername:  "alice",
			ScheduleID:     999,
			TargetUsername: "bob",
		})
		require.ErrorIs(t, err, domain.ErrEntryNotFound)

		_, err = w.CreateRequest(CreateRequestCommand{
			ActorUsername:  "alice",
			ScheduleID:     entry.ID,
			TargetUsername: "carol",
		})
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestRespond(t *testing.T) {
	pending := func(t *testing.T, w *SwapWorkflow, s *store.Store) (*domain.ShiftSwapRequest, *domain.ScheduleEntry) {
		t.Helper()
		entry := createEntry(t, s, "alice", "Alice", "2025-06-02", "09:00", "17:00")
		req, err := w.CreateRequest(CreateRequestCommand{
			ActorUsername:  "alice",
			ScheduleID:     entry.ID,
			TargetUsername: "bob",
		})
		require.NoError(t, err)
		return req, entry
	}

	t.Run("目标用户批准后班次转移", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		req, entry := pending(t, w, s)

		updated, err := w.Respond(RespondCommand{
			ActorUsername: "bob",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusApproved,
		})
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusApproved, updated.Status)

		require.Empty(t, s.GetEntriesByUser("alice"))
		transferred := s.GetEntriesByUser("bob")
		require.Len(t, transferred, 1)
		require.Equal(t, "Swapped with Alice", transferred[0].Notes)
		require.Equal(t, entry.StartTime, transferred[0].StartTime)

		// 双方都收到批准成功的通知
		require.Equal(t, domain.NotificationSuccess, s.GetNotifications("alice")[0].Type)
		require.Equal(t, domain.NotificationSuccess, s.GetNotifications("bob")[0].Type)
	})

	t.Run("只有目标用户才能批准", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		req, _ := pending(t, w, s)

		_, err := w.Respond(RespondCommand{
			ActorUsername: "alice",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusApproved,
		})
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Len(t, s.GetEntriesByUser("alice"), 1)
	})

	t.Run("重复批准时第二次失败并通知双方", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		req, _ := pending(t, w, s)

		_, err := w.Respond(RespondCommand{
			ActorUsername: "bob",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusApproved,
		})
		require.NoError(t, err)

		_, err = w.Respond(RespondCommand{
			ActorUsername: "bob",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusApproved,
		})
		require.ErrorIs(t, err, domain.ErrEntryNotFound)

		// 第二次失败不会产生额外的班次，双方收到失败通知
		require.Len(t, s.GetEntriesByUser("bob"), 1)
		require.Equal(t, domain.NotificationError, s.GetNotifications("alice")[0].Type)
		require.Equal(t, domain.NotificationError, s.GetNotifications("bob")[0].Type)
	})

	t.Run("目标用户拒绝后班次保持不变", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		req, _ := pending(t, w, s)

		updated, err := w.Respond(RespondCommand{
			ActorUsername: "bob",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusRejected,
		})
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusRejected, updated.Status)

		require.Len(t, s.GetEntriesByUser("alice"), 1)
		require.Empty(t, s.GetEntriesByUser("bob"))
		require.Equal(t, domain.NotificationWarning, s.GetNotifications("alice")[0].Type)
	})

	t.Run("申请人取消后目标用户收到通知", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		req, _ := pending(t, w, s)

		updated, err := w.Respond(RespondCommand{
			ActorUsername: "alice",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusCancelled,
		})
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusCancelled, updated.Status)
		require.Equal(t, domain.NotificationInfo, s.GetNotifications("bob")[0].Type)
	})

	t.Run("只有申请人才能取消", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		req, _ := pending(t, w, s)

		_, err := w.Respond(RespondCommand{
			ActorUsername: "bob",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusCancelled,
		})
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("终态之后不允许再响应", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		req, _ := pending(t, w, s)

		_, err := w.Respond(RespondCommand{
			ActorUsername: "alice",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusCancelled,
		})
		require.NoError(t, err)

		_, err = w.Respond(RespondCommand{
			ActorUsername: "bob",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusRejected,
		})
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("无效的目标状态被拒绝", func(t *testing.T) {
		w, s := newTestWorkflow(t)
		req, _ := pending(t, w, s)

		_, err := w.Respond(RespondCommand{
			ActorUsername: "bob",
			RequestID:     req.RequestID,
			NewStatus:     domain.SwapStatusPending,
		})
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("申请不存在时返回未找到", func(t *testing.T) {
		w, _ := newTestWorkflow(t)

		_, err := w.Respond(RespondCommand{
			ActorUsername: "bob",
			RequestID:     "missing",
			NewStatus:     domain.SwapStatusApproved,
		})
		require.ErrorIs(t, err, domain.ErrRequestNotFound)
	})
}

func TestApprovePartialPersistence(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir)
	require.NoError(t, err)

	for _, u := range []*domain.User{
		{Username: "alice", Name: "Alice", Team: "客服组", Email: "alice@example.com", Role: domain.RoleRegular},
		{Username: "bob", Name: "Bob", Team: "运维组", Email: "bob@example.com", Role: domain.RoleRegular},
	} {
		require.NoError(t, s.CreateUser(u))
	}

	notifier := notification.NewService(s, notification.WithClock(func() time.Time { return testNow }))
	w := NewSwapWorkflow(s, notifier, WithClock(func() time.Time { return testNow }))

	entry := createEntry(t, s, "alice", "Alice", "2025-06-02", "09:00", "17:00")
	req, err := w.CreateRequest(CreateRequestCommand{
		ActorUsername:  "alice",
		ScheduleID:     entry.ID,
		TargetUsername: "bob",
	})
	require.NoError(t, err)

	// 把班次集合文件换成同名目录，批准时换班集合落盘成功而班次集合落盘失败
	schedulePath := filepath.Join(dir, "schedule.json")
	require.NoError(t, os.Remove(schedulePath))
	require.NoError(t, os.Mkdir(schedulePath, 0o755))

	_, err = w.Respond(RespondCommand{
		ActorUsername: "bob",
		RequestID:     req.RequestID,
		NewStatus:     domain.SwapStatusApproved,
	})
	require.ErrorIs(t, err, domain.ErrSwapPartiallyApplied)

	// 双方都收到错误通知，内存中转移已生效
	require.Equal(t, domain.NotificationError, s.GetNotifications("alice")[0].Type)
	require.Equal(t, domain.NotificationError, s.GetNotifications("bob")[0].Type)
	require.Empty(t, s.GetEntriesByUser("alice"))
	require.Len(t, s.GetEntriesByUser("bob"), 1)
}

// 端到端：自动排班生成的班次经过换班流程完整转移
func TestAutoAssignedSwap(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	users := []*domain.User{
		{Username: "alice", Name: "alice", Team: "Brokerage", Email: "alice@example.com", Role: domain.RoleRegular},
		{Username: "bob", Name: "bob", Team: "Brokerage", Email: "bob@example.com", Role: domain.RoleRegular},
	}
	for _, u := range users {
		require.NoError(t, s.CreateUser(u))
	}
	require.NoError(t, s.SavePreferences(&domain.SchedulePreferences{
		Username:            "alice",
		PreferredLocation:   domain.LocationOffice,
		PreferredRemoteDays: []string{},
		PreferredStart:      "09:00",
		PreferredHours:      8,
		EmailNotifications:  true,
	}))

	// 周一只会排一个人：两人团队 membersPerDay = 1，轮转起点是 alice
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	entries := scheduler.GenerateEntries(s.GetAllUsers(), s.AllPreferences(), []time.Time{monday}, testNow)
	require.Len(t, entries, 1)
	require.NoError(t, s.ReplaceWindow([]string{"2025-06-02"}, entries))

	generated := s.GetEntriesByUser("alice")
	require.Len(t, generated, 1)
	require.Equal(t, "09:00", generated[0].StartTime)
	require.Equal(t, "17:00", generated[0].EndTime)
	require.True(t, generated[0].AutoAssigned)

	notifier := notification.NewService(s, notification.WithClock(func() time.Time { return testNow }))
	w := NewSwapWorkflow(s, notifier, WithClock(func() time.Time { return testNow }))

	req, err := w.CreateRequest(CreateRequestCommand{
		ActorUsername:  "alice",
		ScheduleID:     generated[0].ID,
		TargetUsername: "bob",
	})
	require.NoError(t, err)
	require.Equal(t, domain.SwapStatusPending, req.Status)

	updated, err := w.Respond(RespondCommand{
		ActorUsername: "bob",
		RequestID:     req.RequestID,
		NewStatus:     domain.SwapStatusApproved,
	})
	require.NoError(t, err)
	require.Equal(t, domain.SwapStatusApproved, updated.Status)

	require.Empty(t, s.GetEntriesByUser("alice"))
	transferred := s.GetEntriesByUser("bob")
	require.Len(t, transferred, 1)
	require.Equal(t, "2025-06-02", transferred[0].Date)
	require.Equal(t, "09:00", transferred[0].StartTime)
	require.Equal(t, "17:00", transferred[0].EndTime)
	require.Equal(t, generated[0].Location, transferred[0].Location)
	require.Equal(t, "Swapped with alice", transferred[0].Notes)
	require.True(t, transferred[0].AutoAssigned)

	require.Equal(t, domain.NotificationSuccess, s.GetNotifications("alice")[0].Type)
}
