package domain

import (
	"errors"
	"fmt"
)

// 各类记录未找到时返回的哨兵错误
var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEntryNotFound        = errors.New("班次不存在")
	ErrRequestNotFound      = errors.New("换班申请不存在")
	ErrNotificationNotFound = errors.New("通知不存在")
	ErrTeamNotFound         = errors.New("团队不存在")
	ErrPreferencesNotFound  = errors.New("排班偏好不存在")
)

// ErrSwapPartiallyApplied 表示换班申请已被持久化为 Approved，
// 但班次转移的持久化失败，需要通知双方
var ErrSwapPartiallyApplied = errors.New("换班已批准但班次转移未完全持久化")

// ValidationError 表示输入不合法，此时不会有任何数据被持久化
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError 表示候选班次与已有班次时间重叠
type ConflictError struct {
	Conflicting *ScheduleEntry
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("与已有班次冲突: %s %s-%s (%s)",
		e.Conflicting.Date, e.Conflicting.StartTime, e.Conflicting.EndTime, e.Conflicting.Location)
}

// PersistenceError 表示保存或备份时的 I/O 失败
// 内存中的状态仍然是最新的，调用方可以直接重试保存
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("持久化失败 (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
