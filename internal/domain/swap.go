package domain

import "time"

type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "Pending"
	SwapStatusApproved  SwapStatus = "Approved"
	SwapStatusRejected  SwapStatus = "Rejected"
	SwapStatusCancelled SwapStatus = "Cancelled"
)

// IsTerminal 返回该状态是否为终态（终态之后不允许再变更）
func (s SwapStatus) IsTerminal() bool {
	return s == SwapStatusApproved || s == SwapStatusRejected || s == SwapStatusCancelled
}

// ShiftSwapRequest 表示一次换班申请
// 其中 date/start/end/location/notes/auto_assigned 是申请时对原班次的快照
type ShiftSwapRequest struct {
	RequestID         string     `json:"request_id"`
	RequesterUsername string     `json:"requester_username"`
	RequesterName     string     `json:"requester_name"`
	ScheduleID        int64      `json:"schedule_id"`
	Date              string     `json:"date"`
	StartTime         string     `json:"start_time"`
	EndTime           string     `json:"end_time"`
	Location          Location   `json:"location"`
	TargetUsername    string     `json:"target_username"`
	TargetName        string     `json:"target_name"`
	Status            SwapStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Notes             string     `json:"notes"`
	AutoAssigned      bool       `json:"auto_assigned"`
}
