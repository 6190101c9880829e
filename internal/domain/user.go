package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "管理员"
	RoleManager  Role = "经理"
	RoleTeamLead Role = "组长"
	RoleRegular  Role = "普通员工"
)

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Team         string    `json:"team"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// CanManage 返回该用户是否有管理权限（管理排班、触发自动排班等）
func (u *User) CanManage() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
