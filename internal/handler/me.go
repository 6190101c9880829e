package handler

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取个人信息成功", myInfo)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(myInfo.PasswordHash), []byte(req.OldPassword)); err != nil {
		h.errorResponse(w, r, "旧密码错误")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	myInfo.PasswordHash = string(hashedPassword)

	if err := h.store.UpdateUser(myInfo); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新密码成功", nil)
}

func (h *Handler) GetMyPreferences(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取排班偏好成功", h.store.GetPreferences(myInfo.Username))
}

func (h *Handler) UpdateMyPreferences(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		PreferredLocation   string   `json:"preferred_location" validate:"required,oneof=Office WFH Hybrid OnSiteClient Travel"`
		PreferredRemoteDays []string `json:"preferred_remote_days" validate:"dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
		PreferredStart      string   `json:"preferred_start" validate:"required"`
		PreferredHours      int      `json:"preferred_hours" validate:"required,min=1,max=14"`
		EmailNotifications  bool     `json:"email_notifications"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if _, err := domain.ParseTimeOfDay(req.PreferredStart); err != nil {
		h.errorResponse(w, r, "偏好开始时间格式错误，应为 HH:MM")
		return
	}

	remoteDays := req.PreferredRemoteDays
	if remoteDays == nil {
		remoteDays = []string{}
	}

	pref := &domain.SchedulePreferences{
		Username:            myInfo.Username,
		PreferredLocation:   domain.Location(req.PreferredLocation),
		PreferredRemoteDays: remoteDays,
		PreferredStart:      req.PreferredStart,
		PreferredHours:      req.PreferredHours,
		EmailNotifications:  req.EmailNotifications,
	}

	if err := h.store.SavePreferences(pref); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新排班偏好成功", pref)
}
