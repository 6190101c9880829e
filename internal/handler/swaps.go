package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/workflow"
)

func (h *Handler) CreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		ScheduleID     int64  `json:"schedule_id" validate:"required"`
		TargetUsername string `json:"target_username" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	request, err := h.swaps.CreateRequest(workflow.CreateRequestCommand{
		ActorUsername:  myInfo.Username,
		ScheduleID:     req.ScheduleID,
		TargetUsername: req.TargetUsername,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "换班申请已创建", request)
}

func (h *Handler) GetMySwapRequests(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取换班申请成功", h.store.GetSwapRequestsByUser(myInfo.Username))
}

func (h *Handler) ApproveSwapRequest(w http.ResponseWriter, r *http.Request) {
	h.respondToSwap(w, r, domain.SwapStatusApproved, "换班申请已批准，班次已转移")
}

func (h *Handler) RejectSwapRequest(w http.ResponseWriter, r *http.Request) {
	h.respondToSwap(w, r, domain.SwapStatusRejected, "换班申请已拒绝")
}

func (h *Handler) CancelSwapRequest(w http.ResponseWriter, r *http.Request) {
	h.respondToSwap(w, r, domain.SwapStatusCancelled, "换班申请已取消")
}

func (h *Handler) respondToSwap(w http.ResponseWriter, r *http.Request, status domain.SwapStatus, successMsg string) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	requestID := chi.URLParam(r, "id")

	request, err := h.swaps.Respond(workflow.RespondCommand{
		ActorUsername: myInfo.Username,
		RequestID:     requestID,
		NewStatus:     status,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, successMsg, request)
}
