package domain

import (
	"fmt"
	"time"
)

type Location string

const (
	LocationOffice       Location = "Office"
	LocationWFH          Location = "WFH"
	LocationHybrid       Location = "Hybrid"
	LocationOnSiteClient Location = "OnSiteClient"
	LocationTravel       Location = "Travel"
)

var Locations = []Location{
	LocationOffice,
	LocationWFH,
	LocationHybrid,
	LocationOnSiteClient,
	LocationTravel,
}

func IsValidLocation(l Location) bool {
	for _, loc := range Locations {
		if loc == l {
			return true
		}
	}
	return false
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// MaxNotesLength 是 notes 字段允许的最大长度
	MaxNotesLength = 500
)

// ScheduleEntry 表示某个用户在某一天的一个班次
// name 和 team 是创建时的快照，用户信息变更后历史记录不受影响
type ScheduleEntry struct {
	ID           int64     `json:"id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Team         string    `json:"team"`
	StartTime    string    `json:"start_time"` // HH:MM
	EndTime      string    `json:"end_time"`   // HH:MM
	Location     Location  `json:"location"`
	Notes        string    `json:"notes"`
	AutoAssigned bool      `json:"auto_assigned"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ParseTimeOfDay 将 HH:MM 格式的字符串转换为当天的分钟数
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("时间格式错误: %s", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateTimeRange 检查 end 是否严格晚于 start
func ValidateTimeRange(start string, end string) error {
	startMin, err := ParseTimeOfDay(start)
	if err != nil {
		return NewValidationError("开始时间格式错误，应为 HH:MM")
	}
	endMin, err := ParseTimeOfDay(end)
	if err != nil {
		return NewValidationError("结束时间格式错误，应为 HH:MM")
	}
	if endMin <= startMin {
		return NewValidationError("结束时间必须晚于开始时间")
	}
	return nil
}

// ValidateDate 检查日期是否为 YYYY-MM-DD 格式
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return NewValidationError("日期格式错误，应为 YYYY-MM-DD")
	}
	return nil
}
