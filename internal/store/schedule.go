package store

import (
	"log/slog"
	"sort"
	"time"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/scheduler"
)

func (s *Store) loadSchedule() {
	entries := make([]*domain.ScheduleEntry, 0)
	if !s.loadCollection(scheduleFile, &entries) {
		s.entries = make([]*domain.ScheduleEntry, 0)
		s.nextID = 1
		_ = s.saveCollection(scheduleFile, []*domain.ScheduleEntry{})
		return
	}

	// 修复缺失字段；日期字段损坏说明这批数据不可信，整体丢弃并落盘空集合
	for _, e := range entries {
		if _, err := time.Parse(domain.DateLayout, e.Date); err != nil {
			slog.Warn("班次数据中存在损坏的日期，丢弃整个集合", "id", e.ID, "date", e.Date)
			s.entries = make([]*domain.ScheduleEntry, 0)
			s.nextID = 1
			_ = s.saveCollection(scheduleFile, []*domain.ScheduleEntry{})
			return
		}
		if e.StartTime == "" {
			e.StartTime = "09:00"
		}
		if e.EndTime == "" {
			e.EndTime = "18:00"
		}
	}

	s.entries = entries
	s.nextID = 1
	for _, e := range entries {
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
}

func (s *Store) saveScheduleLocked() error {
	return s.saveCollection(scheduleFile, s.entries)
}

// nextScheduleIDLocked 分配一个单调递增的班次主键
// 计数器的播种同时考虑已加载的班次和换班申请中的引用，重启后也不会把旧主键分配给新班次
func (s *Store) nextScheduleIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func entriesForUserOnDateLocked(entries []*domain.ScheduleEntry, username string, date string) []*domain.ScheduleEntry {
	var result []*domain.ScheduleEntry
	for _, e := range entries {
		if e.Username == username && e.Date == date {
			result = append(result, e)
		}
	}
	return result
}

// CreateEntry 校验时间范围和冲突后插入班次并持久化
// 冲突检测和插入在同一个临界区内完成，两个并发的创建无法互相穿插
func (s *Store) CreateEntry(entry *domain.ScheduleEntry) error {
	if err := domain.ValidateDate(entry.Date); err != nil {
		return err
	}
	if err := domain.ValidateTimeRange(entry.StartTime, entry.EndTime); err != nil {
		return err
	}

	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	sameDay := entriesForUserOnDateLocked(s.entries, entry.Username, entry.Date)
	if conflicting, ok := scheduler.FindConflict(sameDay, entry.StartTime, entry.EndTime, 0); ok {
		return &domain.ConflictError{Conflicting: conflicting}
	}

	entry.ID = s.nextScheduleIDLocked()
	s.entries = append(s.entries, entry)
	if err := s.saveScheduleLocked(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return err
	}

	return nil
}

// UpdateEntry 整体覆盖一个班次，被编辑的班次自身不参与冲突比较
// 班次已被并发删除（例如换班转移）时返回 ErrEntryNotFound，调用方必须感知写入未生效
func (s *Store) UpdateEntry(entry *domain.ScheduleEntry) error {
	if err := domain.ValidateDate(entry.Date); err != nil {
		return err
	}
	if err := domain.ValidateTimeRange(entry.StartTime, entry.EndTime); err != nil {
		return err
	}

	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	index := -1
	for i, e := range s.entries {
		if e.ID == entry.ID {
			index = i
			break
		}
	}
	if index == -1 {
		return domain.ErrEntryNotFound
	}

	sameDay := entriesForUserOnDateLocked(s.entries, entry.Username, entry.Date)
	if conflicting, ok := scheduler.FindConflict(sameDay, entry.StartTime, entry.EndTime, entry.ID); ok {
		return &domain.ConflictError{Conflicting: conflicting}
	}

	prev := s.entries[index]
	s.entries[index] = entry
	if err := s.saveScheduleLocked(); err != nil {
		s.entries[index] = prev
		return err
	}

	return nil
}

func (s *Store) DeleteEntry(id int64) error {
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	index := -1
	for i, e := range s.entries {
		if e.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return domain.ErrEntryNotFound
	}

	prev := s.entries[index]
	s.entries = append(s.entries[:index], s.entries[index+1:]...)
	if err := s.saveScheduleLocked(); err != nil {
		s.entries = append(s.entries, prev)
		return err
	}

	return nil
}

func (s *Store) GetEntryByID(id int64) (*domain.ScheduleEntry, error) {
	s.scheduleMu.RLock()
	defer s.scheduleMu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (s *Store) GetEntriesForUserOnDate(username string, date string) []*domain.ScheduleEntry {
	s.scheduleMu.RLock()
	defer s.scheduleMu.RUnlock()

	entries := make([]*domain.ScheduleEntry, 0)
	for _, e := range entriesForUserOnDateLocked(s.entries, username, date) {
		copied := *e
		entries = append(entries, &copied)
	}
	sortEntries(entries)
	return entries
}

func (s *Store) GetEntriesByDate(date string) []*domain.ScheduleEntry {
	s.scheduleMu.RLock()
	defer s.scheduleMu.RUnlock()

	entries := make([]*domain.ScheduleEntry, 0)
	for _, e := range s.entries {
		if e.Date == date {
			copied := *e
			entries = append(entries, &copied)
		}
	}
	sortEntries(entries)
	return entries
}

// GetEntriesByDateRange 返回 [start, end] 闭区间内的所有班次
func (s *Store) GetEntriesByDateRange(start string, end string) []*domain.ScheduleEntry {
	s.scheduleMu.RLock()
	defer s.scheduleMu.RUnlock()

	entries := make([]*domain.ScheduleEntry, 0)
	for _, e := range s.entries {
		if e.Date >= start && e.Date <= end {
			copied := *e
			entries = append(entries, &copied)
		}
	}
	sortEntries(entries)
	return entries
}

func (s *Store) GetEntriesByUser(username string) []*domain.ScheduleEntry {
	s.scheduleMu.RLock()
	defer s.scheduleMu.RUnlock()

	entries := make([]*domain.ScheduleEntry, 0)
	for _, e := range s.entries {
		if e.Username == username {
			copied := *e
			entries = append(entries, &copied)
		}
	}
	sortEntries(entries)
	return entries
}

// ReplaceWindow 删除落在目标日期集合内的所有班次（无论手工还是自动），
// 再批量插入新班次并持久化一次，这是自动排班的“重新生成即整体替换”语义
func (s *Store) ReplaceWindow(dates []string, newEntries []*domain.ScheduleEntry) error {
	dateSet := make(map[string]bool, len(dates))
	for _, d := range dates {
		dateSet[d] = true
	}

	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	prev := s.entries

	kept := make([]*domain.ScheduleEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !dateSet[e.Date] {
			kept = append(kept, e)
		}
	}

	prevNextID := s.nextID
	for _, e := range newEntries {
		e.ID = s.nextScheduleIDLocked()
		kept = append(kept, e)
	}

	s.entries = kept
	if err := s.saveScheduleLocked(); err != nil {
		s.entries = prev
		s.nextID = prevNextID
		return err
	}

	return nil
}

func sortEntries(entries []*domain.ScheduleEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		return entries[i].ID < entries[j].ID
	})
}
