// Package store 实现基于文件的记录存储
// 每个集合对应数据目录下的一个 JSON 文件，每次写操作都会先备份旧文件再落盘
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

const (
	usersFile         = "users.json"
	preferencesFile   = "preferences.json"
	scheduleFile      = "schedule.json"
	swapRequestsFile  = "swap_requests.json"
	notificationsFile = "notifications.json"
	teamsFile         = "teams.json"

	backupDirName = "backups"

	// BackupRetention 是每个集合保留的备份数量，更旧的备份在写入时被淘汰
	BackupRetention = 10
)

// Store 持有所有集合的内存状态并负责持久化
// 跨集合的操作必须按照字段声明的顺序获取锁，防止死锁
type Store struct {
	dataDir string
	now     func() time.Time

	usersMu sync.RWMutex
	users   map[string]*domain.User

	prefsMu sync.RWMutex
	prefs   map[string]*domain.SchedulePreferences

	scheduleMu sync.RWMutex
	entries    []*domain.ScheduleEntry
	nextID     int64

	swapsMu sync.RWMutex
	swaps   []*domain.ShiftSwapRequest

	notifMu sync.RWMutex
	inboxes map[string][]*domain.Notification

	teamsMu sync.RWMutex
	teams   []string
}

type Option func(*Store)

// WithClock 注入时钟，仅用于测试
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open 从数据目录加载所有集合
// 文件缺失或损坏时会退化为空集合并立即持久化（读时自愈），不会导致进程启动失败
func Open(dataDir string, opts ...Option) (*Store, error) {
	s := &Store{
		dataDir: dataDir,
		now:     time.Now,
		users:   make(map[string]*domain.User),
		prefs:   make(map[string]*domain.SchedulePreferences),
		entries: make([]*domain.ScheduleEntry, 0),
		nextID:  1,
		swaps:   make([]*domain.ShiftSwapRequest, 0),
		inboxes: make(map[string][]*domain.Notification),
		teams:   make([]string, 0),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Join(dataDir, backupDirName), 0o755); err != nil {
		return nil, fmt.Errorf("无法创建数据目录: %w", err)
	}

	s.loadUsers()
	s.loadPreferences()
	s.loadSchedule()
	s.loadSwapRequests()
	s.loadNotifications()
	s.loadTeams()

	return s, nil
}

func (s *Store) path(file string) string {
	return filepath.Join(s.dataDir, file)
}
