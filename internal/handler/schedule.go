package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/scheduler"
)

// GetSchedule 支持按用户+日期、按日期、按日期范围和按用户查询
// 不带任何条件时返回当前用户自己的全部班次
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	query := r.URL.Query()
	username := query.Get("username")
	date := query.Get("date")
	start := query.Get("start")
	end := query.Get("end")

	switch {
	case start != "" && end != "":
		if err := domain.ValidateDate(start); err != nil {
			h.domainError(w, r, err)
			return
		}
		if err := domain.ValidateDate(end); err != nil {
			h.domainError(w, r, err)
			return
		}
		h.successResponse(w, r, "获取班次成功", h.store.GetEntriesByDateRange(start, end))

	case date != "":
		if err := domain.ValidateDate(date); err != nil {
			h.domainError(w, r, err)
			return
		}
		if username != "" {
			h.successResponse(w, r, "获取班次成功", h.store.GetEntriesForUserOnDate(username, date))
			return
		}
		h.successResponse(w, r, "获取班次成功", h.store.GetEntriesByDate(date))

	case username != "":
		h.successResponse(w, r, "获取班次成功", h.store.GetEntriesByUser(username))

	default:
		h.successResponse(w, r, "获取班次成功", h.store.GetEntriesByUser(myInfo.Username))
	}
}

func (h *Handler) CreateScheduleEntry(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Username  string `json:"username"`
		Date      string `json:"date" validate:"required"`
		StartTime string `json:"start_time" validate:"required"`
		EndTime   string `json:"end_time" validate:"required"`
		Location  string `json:"location" validate:"required,oneof=Office WFH Hybrid OnSiteClient Travel"`
		Notes     string `json:"notes" validate:"max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 默认给自己排班，给别人排班需要管理权限
	owner := myInfo
	if req.Username != "" && req.Username != myInfo.Username {
		if !myInfo.CanManage() {
			h.errorResponse(w, r, "权限不足")
			return
		}

		var err error
		owner, err = h.store.GetUserByUsername(req.Username)
		if err != nil {
			h.domainError(w, r, err)
			return
		}
	}

	now := time.Now()
	entry := &domain.ScheduleEntry{
		Date:         req.Date,
		Username:     owner.Username,
		Name:         owner.Name,
		Team:         owner.Team,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Location:     domain.Location(req.Location),
		Notes:        req.Notes,
		AutoAssigned: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateEntry(entry); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建班次成功", entry)
}

func (h *Handler) UpdateScheduleEntry(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	entry := r.Context().Value(ScheduleEntryCtx).(*domain.ScheduleEntry)

	if entry.Username != myInfo.Username && !myInfo.CanManage() {
		h.errorResponse(w, r, "权限不足")
		return
	}

	var req struct {
		Date      *string `json:"date"`
		StartTime *string `json:"start_time"`
		EndTime   *string `json:"end_time"`
		Location  *string `json:"location" validate:"omitempty,oneof=Office WFH Hybrid OnSiteClient Travel"`
		Notes     *string `json:"notes" validate:"omitempty,max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 姓名和团队是创建时的快照，编辑时不允许变更
	if req.Date != nil {
		entry.Date = *req.Date
	}
	if req.StartTime != nil {
		entry.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		entry.EndTime = *req.EndTime
	}
	if req.Location != nil {
		entry.Location = domain.Location(*req.Location)
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}
	entry.UpdatedAt = time.Now()

	if err := h.store.UpdateEntry(entry); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新班次成功", entry)
}

func (h *Handler) DeleteScheduleEntry(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	entry := r.Context().Value(ScheduleEntryCtx).(*domain.ScheduleEntry)

	if entry.Username != myInfo.Username && !myInfo.CanManage() {
		h.errorResponse(w, r, "权限不足")
		return
	}

	if err := h.store.DeleteEntry(entry.ID); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除班次成功", nil)
}

// RegenerateSchedule 对默认窗口（本周和下周的工作日）重新生成自动排班
// 重新生成是对窗口的整体替换，可以安全地重复调用
func (h *Handler) RegenerateSchedule(w http.ResponseWriter, r *http.Request) {
	dates := scheduler.DefaultWindow(time.Now())
	entries := scheduler.GenerateEntries(h.store.GetAllUsers(), h.store.AllPreferences(), dates, time.Now())

	if len(entries) == 0 {
		h.successResponse(w, r, "没有可排班的用户，未生成任何班次", nil)
		return
	}

	if err := h.store.ReplaceWindow(scheduler.DateStrings(dates), entries); err != nil {
		h.domainError(w, r, err)
		return
	}

	// 每个被排班的用户收到一条汇总通知
	assigned := make(map[string]int)
	for _, e := range entries {
		assigned[e.Username]++
	}
	for username, count := range assigned {
		h.notifier.Add(username, fmt.Sprintf("系统已为您自动生成 %d 个班次", count), domain.NotificationInfo, "/schedule")
	}

	h.successResponse(w, r, "自动排班完成", map[string]int{"generated": len(entries)})
}
