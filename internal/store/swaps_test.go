package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

func newPendingSwap(t *testing.T, s *Store, entry *domain.ScheduleEntry) *domain.ShiftSwapRequest {
	t.Helper()

	req := &domain.ShiftSwapRequest{
		RequestID:         "req-" + entry.Date,
		RequesterUsername: entry.Username,
		RequesterName:     entry.Name,
		ScheduleID:        entry.ID,
		Date:              entry.Date,
		StartTime:         entry.StartTime,
		EndTime:           entry.EndTime,
		Location:          entry.Location,
		TargetUsername:    "bob",
		TargetName:        "Bob",
		Status:            domain.SwapStatusPending,
		CreatedAt:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.CreateSwapRequest(req))
	return req
}

func TestApproveSwap(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	bob := testUser("bob", "Bob", "运维组")

	t.Run("班次所有权完整转移", func(t *testing.T) {
		s := newTestStore(t)
		entry := testEntry("alice", "Alice", "2025-06-02", "09:00", "17:00")
		entry.AutoAssigned = true
		require.NoError(t, s.CreateEntry(entry))
		req := newPendingSwap(t, s, entry)

		updated, transferred, err := s.ApproveSwap(req.RequestID, bob, now)
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusApproved, updated.Status)

		// 原班次消失，新班次归目标用户所有且保留日期、时间、地点
		_, err = s.GetEntryByID(entry.ID)
		require.ErrorIs(t, err, domain.ErrEntryNotFound)

		require.Equal(t, "bob", transferred.Username)
		require.Equal(t, "Bob", transferred.Name)
		require.Equal(t, "运维组", transferred.Team)
		require.Equal(t, entry.Date, transferred.Date)
		require.Equal(t, entry.StartTime, transferred.StartTime)
		require.Equal(t, entry.EndTime, transferred.EndTime)
		require.Equal(t, entry.Location, transferred.Location)
		require.Equal(t, "Swapped with Alice", transferred.Notes)
		require.True(t, transferred.AutoAssigned)
		require.Greater(t, transferred.ID, entry.ID)
	})

	t.Run("重复批准时第二次以班次未找到失败", func(t *testing.T) {
		s := newTestStore(t)
		entry := testEntry("alice", "Alice", "2025-06-02", "09:00", "17:00")
		require.NoError(t, s.CreateEntry(entry))
		req := newPendingSwap(t, s, entry)

		_, _, err := s.ApproveSwap(req.RequestID, bob, now)
		require.NoError(t, err)

		_, _, err = s.ApproveSwap(req.RequestID, bob, now)
		require.ErrorIs(t, err, domain.ErrEntryNotFound)

		// 第二次失败不会产生额外的班次
		require.Len(t, s.GetEntriesByUser("bob"), 1)
	})

	t.Run("原班次已被删除时批准失败", func(t *testing.T) {
		s := newTestStore(t)
		entry := testEntry("alice", "Alice", "2025-06-02", "09:00", "17:00")
		require.NoError(t, s.CreateEntry(entry))
		req := newPendingSwap(t, s, entry)
		require.NoError(t, s.DeleteEntry(entry.ID))

		_, _, err := s.ApproveSwap(req.RequestID, bob, now)
		require.ErrorIs(t, err, domain.ErrEntryNotFound)

		got, err := s.GetSwapRequestByID(req.RequestID)
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusPending, got.Status)
	})

	t.Run("已拒绝的申请不能再批准", func(t *testing.T) {
		s := newTestStore(t)
		entry := testEntry("alice", "Alice", "2025-06-02", "09:00", "17:00")
		require.NoError(t, s.CreateEntry(entry))
		req := newPendingSwap(t, s, entry)

		_, err := s.SetSwapStatus(req.RequestID, domain.SwapStatusRejected, now)
		require.NoError(t, err)

		_, _, err = s.ApproveSwap(req.RequestID, bob, now)
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)

		// 班次仍然属于申请人
		require.Len(t, s.GetEntriesByUser("alice"), 1)
		require.Empty(t, s.GetEntriesByUser("bob"))
	})
}

func TestApproveSwapAfterRestart(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	bob := testUser("bob", "Bob", "运维组")

	t.Run("已删除班次的主键不会在重启后被重新分配", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(dir, WithClock(advancingClock()))
		require.NoError(t, err)

		entry := testEntry("alice", "Alice", "2025-07-01", "09:00", "17:00")
		require.NoError(t, s.CreateEntry(entry))
		req := newPendingSwap(t, s, entry)
		require.NoError(t, s.DeleteEntry(entry.ID))

		// 重启后换班申请中的引用继续占用旧主键
		reopened, err := Open(dir, WithClock(advancingClock()))
		require.NoError(t, err)

		unrelated := testEntry("carol", "Carol", "2025-07-01", "10:00", "12:00")
		require.NoError(t, reopened.CreateEntry(unrelated))
		require.Greater(t, unrelated.ID, entry.ID)

		// 批准必须以班次未找到失败，不能把 carol 的班次转移出去
		_, _, err = reopened.ApproveSwap(req.RequestID, bob, now)
		require.ErrorIs(t, err, domain.ErrEntryNotFound)

		entries := reopened.GetEntriesByUser("carol")
		require.Len(t, entries, 1)
		require.Equal(t, "10:00", entries[0].StartTime)
		require.Empty(t, reopened.GetEntriesByUser("bob"))

		got, err := reopened.GetSwapRequestByID(req.RequestID)
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusPending, got.Status)
	})

	t.Run("解析到的班次不属于申请人时拒绝转移", func(t *testing.T) {
		s := newTestStore(t)

		unrelated := testEntry("carol", "Carol", "2025-07-01", "10:00", "12:00")
		require.NoError(t, s.CreateEntry(unrelated))

		// 过期的申请快照指向的主键如今属于别人的班次
		stale := &domain.ShiftSwapRequest{
			RequestID:         "stale",
			RequesterUsername: "alice",
			RequesterName:     "Alice",
			ScheduleID:        unrelated.ID,
			Date:              "2025-06-02",
			StartTime:         "09:00",
			EndTime:           "17:00",
			Location:          domain.LocationOffice,
			TargetUsername:    "bob",
			TargetName:        "Bob",
			Status:            domain.SwapStatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		require.NoError(t, s.CreateSwapRequest(stale))

		_, _, err := s.ApproveSwap(stale.RequestID, bob, now)
		require.ErrorIs(t, err, domain.ErrEntryNotFound)
		require.Len(t, s.GetEntriesByUser("carol"), 1)
		require.Empty(t, s.GetEntriesByUser("bob"))
	})
}

func TestApproveSwapPersistenceFailure(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	bob := testUser("bob", "Bob", "运维组")

	t.Run("换班集合落盘失败时完整回滚", func(t *testing.T) {
		s := newTestStore(t)
		entry := testEntry("alice", "Alice", "2025-06-02", "09:00", "17:00")
		require.NoError(t, s.CreateEntry(entry))
		req := newPendingSwap(t, s, entry)

		breakCollection(t, s, swapRequestsFile)

		_, _, err := s.ApproveSwap(req.RequestID, bob, now)
		var persistenceErr *domain.PersistenceError
		require.ErrorAs(t, err, &persistenceErr)

		// 内存完整回滚：申请仍是 Pending，班次仍属于申请人
		got, err := s.GetSwapRequestByID(req.RequestID)
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusPending, got.Status)
		require.Len(t, s.GetEntriesByUser("alice"), 1)
		require.Empty(t, s.GetEntriesByUser("bob"))

		// 恢复可写后重试即可成功
		repairCollection(t, s, swapRequestsFile)
		_, transferred, err := s.ApproveSwap(req.RequestID, bob, now)
		require.NoError(t, err)
		require.Equal(t, "bob", transferred.Username)
	})

	t.Run("班次集合落盘失败时返回部分持久化错误", func(t *testing.T) {
		s := newTestStore(t)
		entry := testEntry("alice", "Alice", "2025-06-02", "09:00", "17:00")
		require.NoError(t, s.CreateEntry(entry))
		req := newPendingSwap(t, s, entry)

		breakCollection(t, s, scheduleFile)

		updated, transferred, err := s.ApproveSwap(req.RequestID, bob, now)
		require.ErrorIs(t, err, domain.ErrSwapPartiallyApplied)
		require.Equal(t, domain.SwapStatusApproved, updated.Status)
		require.Equal(t, "bob", transferred.Username)

		// 内存中转移已生效
		require.Empty(t, s.GetEntriesByUser("alice"))
		require.Len(t, s.GetEntriesByUser("bob"), 1)

		// 下一次成功的保存消除内存和磁盘的差异
		repairCollection(t, s, scheduleFile)
		require.NoError(t, s.CreateEntry(testEntry("carol", "Carol", "2025-06-03", "09:00", "17:00")))

		reopened, err := Open(s.dataDir, WithClock(advancingClock()))
		require.NoError(t, err)
		require.Len(t, reopened.GetEntriesByUser("bob"), 1)
		require.Empty(t, reopened.GetEntriesByUser("alice"))
	})
}

func TestSetSwapStatus(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	t.Run("终态之后不允许再变更", func(t *testing.T) {
		s := newTestStore(t)
		entry := testEntry("alice", "Alice", "2025-06-02", "09:00", "17:00")
		require.NoError(t, s.CreateEntry(entry))
		req := newPendingSwap(t, s, entry)

		_, err := s.SetSwapStatus(req.RequestID, domain.SwapStatusCancelled, now)
		require.NoError(t, err)

		_, err = s.SetSwapStatus(req.RequestID, domain.SwapStatusRejected, now)
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("申请不存在时返回未找到", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.SetSwapStatus("missing", domain.SwapStatusRejected, now)
		require.ErrorIs(t, err, domain.ErrRequestNotFound)
	})
}

func TestGetSwapRequestsByUser(t *testing.T) {
	s := newTestStore(t)

	first := testEntry("alice", "Alice", "2025-06-02", "09:00", "17:00")
	second := testEntry("alice", "Alice", "2025-06-03", "09:00", "17:00")
	require.NoError(t, s.CreateEntry(first))
	require.NoError(t, s.CreateEntry(second))

	older := newPendingSwap(t, s, first)
	newer := newPendingSwap(t, s, second)
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	// 申请人和目标用户都能看到，按创建时间从新到旧
	requests := s.GetSwapRequestsByUser("bob")
	require.Len(t, requests, 2)
	require.Equal(t, newer.RequestID, requests[0].RequestID)

	require.Len(t, s.GetSwapRequestsByUser("alice"), 2)
	require.Empty(t, s.GetSwapRequestsByUser("carol"))
}
