// Package workflow 实现换班申请的状态机
// 状态转移: Pending → {Approved, Rejected, Cancelled}，三个终态都不可逆
// 所有操作通过显式的命令对象驱动，不依赖任何会话级的隐式状态
package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/notification"
	"github.com/teamshift-dev/workshift-manager/backend/internal/scheduler"
	"github.com/teamshift-dev/workshift-manager/backend/internal/store"
)

type SwapWorkflow struct {
	store    *store.Store
	notifier *notification.Service
	now      func() time.Time
}

type Option func(*SwapWorkflow)

// WithClock 注入时钟，仅用于测试
func WithClock(now func() time.Time) Option {
	return func(w *SwapWorkflow) {
		w.now = now
	}
}

func NewSwapWorkflow(st *store.Store, notifier *notification.Service, opts ...Option) *SwapWorkflow {
	w := &SwapWorkflow{
		store:    st,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateRequestCommand 描述一次换班申请的发起
type CreateRequestCommand struct {
	ActorUsername  string
	ScheduleID     int64
	TargetUsername string
}

// RespondCommand 描述对一个申请的响应
// Approved/Rejected 由目标用户发起，Cancelled 由申请人发起
type RespondCommand struct {
	ActorUsername string
	RequestID     string
	NewStatus     domain.SwapStatus
}

// CreateRequest 对原班次做字段快照并创建一个 Pending 的换班申请，
// 成功后通知双方；目标用户当天已有时间重叠的班次时额外发出一条预警
func (w *SwapWorkflow) CreateRequest(cmd CreateRequestCommand) (*domain.ShiftSwapRequest, error) {
	entry, err := w.store.GetEntryByID(cmd.ScheduleID)
	if err != nil {
		return nil, err
	}
	if entry.Username != cmd.ActorUsername {
		return nil, domain.NewValidationError("只能为自己的班次发起换班")
	}

	target, err := w.store.GetUserByUsername(cmd.TargetUsername)
	if err != nil {
		return nil, err
	}
	if target.Username == cmd.ActorUsername {
		return nil, domain.NewValidationError("不能和自己换班")
	}

	now := w.now()
	req := &domain.ShiftSwapRequest{
		RequestID:         uuid.NewString(),
		RequesterUsername: entry.Username,
		RequesterName:     entry.Name,
		ScheduleID:        entry.ID,
		Date:              entry.Date,
		StartTime:         entry.StartTime,
		EndTime:           entry.EndTime,
		Location:          entry.Location,
		TargetUsername:    target.Username,
		TargetName:        target.Name,
		Status:            domain.SwapStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		Notes:             entry.Notes,
		AutoAssigned:      entry.AutoAssigned,
	}

	if err := w.store.CreateSwapRequest(req); err != nil {
		return nil, err
	}

	w.notifier.Add(target.Username,
		fmt.Sprintf("%s 希望把 %s %s-%s 的班次换给您", req.RequesterName, req.Date, req.StartTime, req.EndTime),
		domain.NotificationInfo, "/swap-requests")
	w.notifier.Add(req.RequesterUsername,
		fmt.Sprintf("换班申请已发送给 %s", target.Name),
		domain.NotificationSuccess, "/swap-requests")

	// 可用性预警：目标用户当天已有重叠班次时提醒，但不阻止申请
	targetEntries := w.store.GetEntriesForUserOnDate(target.Username, entry.Date)
	if conflicting, ok := scheduler.FindConflict(targetEntries, entry.StartTime, entry.EndTime, 0); ok {
		w.notifier.Add(target.Username,
			fmt.Sprintf("注意：该班次与您 %s %s-%s 的现有班次时间重叠", conflicting.Date, conflicting.StartTime, conflicting.EndTime),
			domain.NotificationWarning, "/swap-requests")
	}

	return req, nil
}

// Respond 驱动一次状态转移
func (w *SwapWorkflow) Respond(cmd RespondCommand) (*domain.ShiftSwapRequest, error) {
	req, err := w.store.GetSwapRequestByID(cmd.RequestID)
	if err != nil {
		return nil, err
	}

	switch cmd.NewStatus {
	case domain.SwapStatusApproved:
		if req.TargetUsername != cmd.ActorUsername {
			return nil, domain.NewValidationError("只有目标用户才能批准换班申请")
		}
		return w.approve(req)

	case domain.SwapStatusRejected:
		if req.TargetUsername != cmd.ActorUsername {
			return nil, domain.NewValidationError("只有目标用户才能拒绝换班申请")
		}
		updated, err := w.store.SetSwapStatus(req.RequestID, domain.SwapStatusRejected, w.now())
		if err != nil {
			return nil, err
		}
		w.notifier.Add(updated.RequesterUsername,
			fmt.Sprintf("%s 拒绝了您的换班申请", updated.TargetName),
			domain.NotificationWarning, "/swap-requests")
		return updated, nil

	case domain.SwapStatusCancelled:
		if req.RequesterUsername != cmd.ActorUsername {
			return nil, domain.NewValidationError("只有申请人才能取消换班申请")
		}
		updated, err := w.store.SetSwapStatus(req.RequestID, domain.SwapStatusCancelled, w.now())
		if err != nil {
			return nil, err
		}
		w.notifier.Add(updated.TargetUsername,
			fmt.Sprintf("%s 取消了换班申请", updated.RequesterName),
			domain.NotificationInfo, "/swap-requests")
		return updated, nil

	default:
		return nil, domain.NewValidationError("无效的目标状态")
	}
}

// approve 批准申请并触发班次所有权转移
// 状态变更和转移在存储层的同一个临界区内完成，一个申请最多触发一次成功的转移
func (w *SwapWorkflow) approve(req *domain.ShiftSwapRequest) (*domain.ShiftSwapRequest, error) {
	target, err := w.store.GetUserByUsername(req.TargetUsername)
	if err != nil {
		return nil, err
	}

	updated, _, err := w.store.ApproveSwap(req.RequestID, target, w.now())
	switch {
	case err == nil:
		w.notifier.Add(updated.RequesterUsername,
			fmt.Sprintf("%s 批准了您的换班申请，%s %s-%s 的班次已转移", updated.TargetName, updated.Date, updated.StartTime, updated.EndTime),
			domain.NotificationSuccess, "/schedule")
		w.notifier.Add(updated.TargetUsername,
			fmt.Sprintf("换班完成，%s %s-%s 的班次已转移给您", updated.Date, updated.StartTime, updated.EndTime),
			domain.NotificationSuccess, "/schedule")
		return updated, nil

	case errors.Is(err, domain.ErrEntryNotFound):
		// 原班次已不存在（例如已被另一次换班消费掉），批准失败并通知双方，
		// 而不是静默成功
		w.notifyBoth(req, "换班失败：原班次已不存在", domain.NotificationError)
		return nil, err

	case errors.Is(err, domain.ErrSwapPartiallyApplied):
		w.notifyBoth(req, "换班结果可能未完全保存，请联系管理员确认", domain.NotificationError)
		return nil, err

	default:
		return nil, err
	}
}

func (w *SwapWorkflow) notifyBoth(req *domain.ShiftSwapRequest, message string, typ domain.NotificationType) {
	w.notifier.Add(req.RequesterUsername, message, typ, "/swap-requests")
	w.notifier.Add(req.TargetUsername, message, typ, "/swap-requests")
}
