package store

import (
	"slices"
	"sort"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

func (s *Store) loadTeams() {
	teams := make([]string, 0)
	if !s.loadCollection(teamsFile, &teams) {
		s.teams = make([]string, 0)
		_ = s.saveCollection(teamsFile, []string{})
		return
	}

	sort.Strings(teams)
	s.teams = teams
}

func (s *Store) saveTeamsLocked() error {
	return s.saveCollection(teamsFile, s.teams)
}

func (s *Store) GetTeams() []string {
	s.teamsMu.RLock()
	defer s.teamsMu.RUnlock()

	return slices.Clone(s.teams)
}

func (s *Store) TeamExists(name string) bool {
	s.teamsMu.RLock()
	defer s.teamsMu.RUnlock()

	return slices.Contains(s.teams, name)
}

func (s *Store) AddTeam(name string) error {
	s.teamsMu.Lock()
	defer s.teamsMu.Unlock()

	if slices.Contains(s.teams, name) {
		return domain.NewValidationError("团队已存在")
	}

	prev := s.teams
	s.teams = append(slices.Clone(s.teams), name)
	sort.Strings(s.teams)
	if err := s.saveTeamsLocked(); err != nil {
		s.teams = prev
		return err
	}

	return nil
}

// RenameTeam 重命名团队并级联更新所有引用该团队的用户和班次
// 三个集合在同一个临界区内更新并依次落盘
func (s *Store) RenameTeam(oldName string, newName string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()
	s.teamsMu.Lock()
	defer s.teamsMu.Unlock()

	if !slices.Contains(s.teams, oldName) {
		return domain.ErrTeamNotFound
	}
	if slices.Contains(s.teams, newName) {
		return domain.NewValidationError("团队已存在")
	}

	prevTeams := s.teams
	s.teams = slices.Clone(s.teams)
	for i, t := range s.teams {
		if t == oldName {
			s.teams[i] = newName
		}
	}
	sort.Strings(s.teams)

	var renamedUsers []*domain.User
	for _, u := range s.users {
		if u.Team == oldName {
			u.Team = newName
			renamedUsers = append(renamedUsers, u)
		}
	}

	var renamedEntries []*domain.ScheduleEntry
	for _, e := range s.entries {
		if e.Team == oldName {
			e.Team = newName
			renamedEntries = append(renamedEntries, e)
		}
	}

	rollback := func() {
		s.teams = prevTeams
		for _, u := range renamedUsers {
			u.Team = oldName
		}
		for _, e := range renamedEntries {
			e.Team = oldName
		}
	}

	if err := s.saveTeamsLocked(); err != nil {
		rollback()
		return err
	}
	if err := s.saveUsersLocked(); err != nil {
		rollback()
		return err
	}
	if err := s.saveScheduleLocked(); err != nil {
		rollback()
		return err
	}

	return nil
}

// RemoveTeam 删除一个团队，仍有用户属于该团队时拒绝删除
// 历史班次中的团队快照保留被删除的名字，这是有意为之的快照语义
func (s *Store) RemoveTeam(name string) error {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	s.teamsMu.Lock()
	defer s.teamsMu.Unlock()

	if !slices.Contains(s.teams, name) {
		return domain.ErrTeamNotFound
	}

	for _, u := range s.users {
		if u.Team == name {
			return domain.NewValidationError("该团队下仍有用户，无法删除")
		}
	}

	prev := s.teams
	next := make([]string, 0, len(s.teams)-1)
	for _, t := range s.teams {
		if t != name {
			next = append(next, t)
		}
	}

	s.teams = next
	if err := s.saveTeamsLocked(); err != nil {
		s.teams = prev
		return err
	}

	return nil
}
