package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取团队列表成功", h.store.GetTeams())
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.store.AddTeam(req.Name); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建团队成功", req.Name)
}

// RenameTeam 重命名团队并级联更新所有引用，包括历史班次中的团队字段
func (h *Handler) RenameTeam(w http.ResponseWriter, r *http.Request) {
	oldName := chi.URLParam(r, "name")

	var req struct {
		NewName string `json:"newName" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.store.RenameTeam(oldName, req.NewName); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "重命名团队成功", req.NewName)
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.store.RemoveTeam(name); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除团队成功", nil)
}
