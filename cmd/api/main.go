package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamshift-dev/workshift-manager/backend/internal/config"
	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/handler"
	"github.com/teamshift-dev/workshift-manager/backend/internal/notification"
	"github.com/teamshift-dev/workshift-manager/backend/internal/scheduler"
	"github.com/teamshift-dev/workshift-manager/backend/internal/store"
	"github.com/teamshift-dev/workshift-manager/backend/internal/workflow"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 打开数据存储
	 **********************************************/
	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		logger.Error("无法打开数据存储", "error", err)
		return
	}

	/**********************************************
	 * 确保存储中存在初始管理员
	 **********************************************/
	if err := ensureInitialAdmin(cfg, st); err != nil {
		logger.Error("无法创建初始管理员", "error", err)
		return
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// 建立通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	// 声明队列
	_, err = ch.QueueDeclare(
		"email_queue",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	/**********************************************
	 * 创建通知服务和换班工作流
	 **********************************************/
	notifier := notification.NewService(st, notification.WithMailChannel(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second))
	swaps := workflow.NewSwapWorkflow(st, notifier)

	/**********************************************
	 * 启动时填充本周和下周的自动排班
	 * 失败只记录日志，绝不阻塞服务启动
	 **********************************************/
	regenerateSchedule(st, notifier)

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, st, swaps, notifier, ch, rdb)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}

func ensureInitialAdmin(cfg *config.Config, st *store.Store) error {
	// 初始管理员所在的团队可能还不存在
	if err := st.AddTeam(cfg.InitialAdmin.Team); err != nil {
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			return err
		}
		// 团队已存在，不处理
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	initialAdmin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		Name:         cfg.InitialAdmin.Name,
		Team:         cfg.InitialAdmin.Team,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,
	}

	if err := st.CreateUser(initialAdmin); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			// 存储中已经存在初始管理员，不处理
			return nil
		}
		return err
	}

	return nil
}

func regenerateSchedule(st *store.Store, notifier *notification.Service) {
	dates := scheduler.DefaultWindow(time.Now())
	entries := scheduler.GenerateEntries(st.GetAllUsers(), st.AllPreferences(), dates, time.Now())
	if len(entries) == 0 {
		return
	}

	if err := st.ReplaceWindow(scheduler.DateStrings(dates), entries); err != nil {
		slog.Error("启动时自动排班失败", "error", err)
		return
	}

	assigned := make(map[string]int)
	for _, e := range entries {
		assigned[e.Username]++
	}
	for username, count := range assigned {
		notifier.Add(username, fmt.Sprintf("系统已为您自动生成 %d 个班次", count), domain.NotificationInfo, "/schedule")
	}

	slog.Info("启动时自动排班完成", "entries", len(entries), "users", len(assigned))
}
