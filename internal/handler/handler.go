package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/teamshift-dev/workshift-manager/backend/internal/config"
	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/notification"
	"github.com/teamshift-dev/workshift-manager/backend/internal/store"
	"github.com/teamshift-dev/workshift-manager/backend/internal/workflow"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	store       *store.Store
	swaps       *workflow.SwapWorkflow
	notifier    *notification.Service
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, st *store.Store, swaps *workflow.SwapWorkflow, notifier *notification.Service, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		store:       st,
		swaps:       swaps,
		notifier:    notifier,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Get("/preferences", h.GetMyPreferences)
			r.Put("/preferences", h.UpdateMyPreferences)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 换班需要选择目标用户，因此所有人都可以获取用户列表
			r.Route("/{username}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.GetTeams)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateTeam)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/{name}", h.RenameTeam)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/{name}", h.DeleteTeam)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetSchedule)
			r.Post("/", h.CreateScheduleEntry)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleManager})).Post("/regenerate", h.RegenerateSchedule)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.scheduleEntry)
				r.Patch("/", h.UpdateScheduleEntry)
				r.Delete("/", h.DeleteScheduleEntry)
			})
		})

		r.Route("/swap-requests", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Post("/", h.CreateSwapRequest)
			r.Get("/", h.GetMySwapRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/approve", h.ApproveSwapRequest)
				r.Post("/reject", h.RejectSwapRequest)
				r.Post("/cancel", h.CancelSwapRequest)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyNotifications)
			r.Get("/unread-count", h.GetUnreadNotificationCount)
			r.Patch("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})
	})
}
