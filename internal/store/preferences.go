package store

import (
	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

func (s *Store) loadPreferences() {
	prefs := make(map[string]*domain.SchedulePreferences)
	if !s.loadCollection(preferencesFile, &prefs) {
		s.prefs = make(map[string]*domain.SchedulePreferences)
		_ = s.saveCollection(preferencesFile, map[string]*domain.SchedulePreferences{})
		return
	}

	// 修复缺失字段，保证内存中的偏好始终是完整的
	for username, p := range prefs {
		p.Username = username
		if p.PreferredLocation == "" {
			p.PreferredLocation = domain.LocationOffice
		}
		if p.PreferredStart == "" {
			p.PreferredStart = "09:00"
		}
		if p.PreferredHours <= 0 {
			p.PreferredHours = 8
		}
		if p.PreferredRemoteDays == nil {
			p.PreferredRemoteDays = []string{}
		}
	}

	s.prefs = prefs
}

func (s *Store) savePreferencesLocked() error {
	return s.saveCollection(preferencesFile, s.prefs)
}

// GetPreferences 返回用户的排班偏好，没有保存过偏好时返回默认值
func (s *Store) GetPreferences(username string) *domain.SchedulePreferences {
	s.prefsMu.RLock()
	defer s.prefsMu.RUnlock()

	if p, exists := s.prefs[username]; exists {
		copied := *p
		return &copied
	}
	return domain.DefaultPreferences(username)
}

// AllPreferences 返回所有显式保存过的偏好，供自动排班引擎一次性读取
func (s *Store) AllPreferences() map[string]*domain.SchedulePreferences {
	s.prefsMu.RLock()
	defer s.prefsMu.RUnlock()

	prefs := make(map[string]*domain.SchedulePreferences, len(s.prefs))
	for username, p := range s.prefs {
		copied := *p
		prefs[username] = &copied
	}
	return prefs
}

func (s *Store) SavePreferences(p *domain.SchedulePreferences) error {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	prev, existed := s.prefs[p.Username]
	s.prefs[p.Username] = p
	if err := s.savePreferencesLocked(); err != nil {
		if existed {
			s.prefs[p.Username] = prev
		} else {
			delete(s.prefs, p.Username)
		}
		return err
	}

	return nil
}
