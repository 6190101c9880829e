package domain

// SchedulePreferences 是用户的排班偏好，仅被自动排班引擎使用
// 缺省时按 DefaultPreferences 处理
type SchedulePreferences struct {
	Username            string   `json:"username"`
	PreferredLocation   Location `json:"preferred_location"`
	PreferredRemoteDays []string `json:"preferred_remote_days"`
	PreferredStart      string   `json:"preferred_start"` // HH:MM
	PreferredHours      int      `json:"preferred_hours"`
	EmailNotifications  bool     `json:"email_notifications"`
}

// DefaultPreferences 返回某个用户的默认排班偏好
func DefaultPreferences(username string) *SchedulePreferences {
	return &SchedulePreferences{
		Username:            username,
		PreferredLocation:   LocationOffice,
		PreferredRemoteDays: []string{},
		PreferredStart:      "09:00",
		PreferredHours:      8,
		EmailNotifications:  true,
	}
}
