package store

import (
	"sort"
	"time"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

func (s *Store) loadSwapRequests() {
	swaps := make([]*domain.ShiftSwapRequest, 0)
	if !s.loadCollection(swapRequestsFile, &swaps) {
		s.swaps = make([]*domain.ShiftSwapRequest, 0)
		_ = s.saveCollection(swapRequestsFile, []*domain.ShiftSwapRequest{})
		return
	}

	for _, req := range swaps {
		if req.Status == "" {
			req.Status = domain.SwapStatusPending
		}
		// 换班申请中引用的班次主键也参与主键播种：
		// 班次被删除后其主键可能只剩申请中的引用，重启后不允许把它重新分配给新班次
		if req.ScheduleID >= s.nextID {
			s.nextID = req.ScheduleID + 1
		}
	}

	s.swaps = swaps
}

func (s *Store) saveSwapRequestsLocked() error {
	return s.saveCollection(swapRequestsFile, s.swaps)
}

func (s *Store) CreateSwapRequest(req *domain.ShiftSwapRequest) error {
	s.swapsMu.Lock()
	defer s.swapsMu.Unlock()

	s.swaps = append(s.swaps, req)
	if err := s.saveSwapRequestsLocked(); err != nil {
		s.swaps = s.swaps[:len(s.swaps)-1]
		return err
	}

	return nil
}

func (s *Store) GetSwapRequestByID(requestID string) (*domain.ShiftSwapRequest, error) {
	s.swapsMu.RLock()
	defer s.swapsMu.RUnlock()

	for _, req := range s.swaps {
		if req.RequestID == requestID {
			copied := *req
			return &copied, nil
		}
	}
	return nil, domain.ErrRequestNotFound
}

// GetSwapRequestsByUser 返回某个用户作为申请人或目标人参与的所有换班申请，按创建时间从新到旧
func (s *Store) GetSwapRequestsByUser(username string) []*domain.ShiftSwapRequest {
	s.swapsMu.RLock()
	defer s.swapsMu.RUnlock()

	requests := make([]*domain.ShiftSwapRequest, 0)
	for _, req := range s.swaps {
		if req.RequesterUsername == username || req.TargetUsername == username {
			copied := *req
			requests = append(requests, &copied)
		}
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})

	return requests
}

// SetSwapStatus 把一个 Pending 的申请转移到 Rejected 或 Cancelled 终态
// Approved 必须走 ApproveSwap，因为批准会同时触发班次转移
func (s *Store) SetSwapStatus(requestID string, status domain.SwapStatus, now time.Time) (*domain.ShiftSwapRequest, error) {
	s.swapsMu.Lock()
	defer s.swapsMu.Unlock()

	req := s.findSwapLocked(requestID)
	if req == nil {
		return nil, domain.ErrRequestNotFound
	}
	if req.Status != domain.SwapStatusPending {
		return nil, domain.NewValidationError("该换班申请已处理，状态不允许再变更")
	}

	prevStatus, prevUpdated := req.Status, req.UpdatedAt
	req.Status = status
	req.UpdatedAt = now
	if err := s.saveSwapRequestsLocked(); err != nil {
		req.Status, req.UpdatedAt = prevStatus, prevUpdated
		return nil, err
	}

	copied := *req
	return &copied, nil
}

// ApproveSwap 在一个临界区内完成状态变更和班次所有权转移：
// 删除申请人的原班次，为目标用户插入一个日期、时间、地点相同的新班次，
// 然后依次持久化换班集合和班次集合
// 原班次已不存在时（例如已被另一次换班转移消费掉）整个操作失败，不会留下 Approved 状态
func (s *Store) ApproveSwap(requestID string, target *domain.User, now time.Time) (*domain.ShiftSwapRequest, *domain.ScheduleEntry, error) {
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()
	s.swapsMu.Lock()
	defer s.swapsMu.Unlock()

	req := s.findSwapLocked(requestID)
	if req == nil {
		return nil, nil, domain.ErrRequestNotFound
	}
	if req.Status == domain.SwapStatusRejected || req.Status == domain.SwapStatusCancelled {
		return nil, nil, domain.NewValidationError("该换班申请已处理，状态不允许再变更")
	}

	// 对已是 Approved 的申请不做提前拦截：转移已经消费掉原班次，
	// 下面的解析必然以 ErrEntryNotFound 失败，保证一个申请最多只触发一次转移
	index := -1
	for i, e := range s.entries {
		if e.ID == req.ScheduleID {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, nil, domain.ErrEntryNotFound
	}

	original := s.entries[index]

	// 主键解析成功还不够，班次必须仍然属于申请人：
	// 解析到别人的班次说明快照引用的原班次已经不存在了
	if original.Username != req.RequesterUsername {
		return nil, nil, domain.ErrEntryNotFound
	}

	newEntry := &domain.ScheduleEntry{
		ID:           s.nextScheduleIDLocked(),
		Date:         original.Date,
		Username:     target.Username,
		Name:         target.Name,
		Team:         target.Team,
		StartTime:    original.StartTime,
		EndTime:      original.EndTime,
		Location:     original.Location,
		Notes:        "Swapped with " + req.RequesterName,
		AutoAssigned: original.AutoAssigned,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	prevStatus, prevUpdated := req.Status, req.UpdatedAt
	req.Status = domain.SwapStatusApproved
	req.UpdatedAt = now

	s.entries = append(s.entries[:index], s.entries[index+1:]...)
	s.entries = append(s.entries, newEntry)

	rollback := func() {
		req.Status, req.UpdatedAt = prevStatus, prevUpdated
		s.entries = s.entries[:len(s.entries)-1]
		s.entries = append(s.entries, original)
	}

	if err := s.saveSwapRequestsLocked(); err != nil {
		rollback()
		return nil, nil, err
	}
	if err := s.saveScheduleLocked(); err != nil {
		// 换班集合已落盘为 Approved，班次集合落盘失败
		// 内存状态保持一致（转移已生效），以独立的错误类型上报，
		// 调用方据此通知双方；下一次成功的保存会消除差异
		copied := *req
		entryCopied := *newEntry
		return &copied, &entryCopied, domain.ErrSwapPartiallyApplied
	}

	copiedReq := *req
	copiedEntry := *newEntry
	return &copiedReq, &copiedEntry, nil
}

func (s *Store) findSwapLocked(requestID string) *domain.ShiftSwapRequest {
	for _, req := range s.swaps {
		if req.RequestID == requestID {
			return req
		}
	}
	return nil
}
