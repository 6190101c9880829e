package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

func (h *Handler) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取通知成功", h.notifier.List(myInfo.Username))
}

func (h *Handler) GetUnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取未读数量成功", map[string]int{"unread": h.notifier.UnreadCount(myInfo.Username)})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	id := chi.URLParam(r, "id")

	if !h.notifier.MarkRead(myInfo.Username, id) {
		h.errorResponse(w, r, "通知不存在")
		return
	}

	h.successResponse(w, r, "已标记为已读", nil)
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	id := chi.URLParam(r, "id")

	if !h.notifier.Delete(myInfo.Username, id) {
		h.errorResponse(w, r, "通知不存在")
		return
	}

	h.successResponse(w, r, "删除通知成功", nil)
}
