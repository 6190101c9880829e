package store

import (
	"sort"
	"time"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

// userRecord 是用户在文件中的持久化形式
// 单独定义是为了让 password_hash 落盘但不出现在 API 响应中
type userRecord struct {
	Username     string      `json:"username"`
	PasswordHash string      `json:"password_hash"`
	Name         string      `json:"name"`
	Team         string      `json:"team"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

func toUserRecord(u *domain.User) *userRecord {
	return &userRecord{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Team:         u.Team,
		Email:        u.Email,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}
}

func (r *userRecord) toUser() *domain.User {
	role := r.Role
	if role == "" {
		role = domain.RoleRegular
	}
	return &domain.User{
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Name:         r.Name,
		Team:         r.Team,
		Email:        r.Email,
		Role:         role,
		CreatedAt:    r.CreatedAt,
	}
}

func (s *Store) loadUsers() {
	records := make(map[string]*userRecord)
	if !s.loadCollection(usersFile, &records) {
		s.users = make(map[string]*domain.User)
		_ = s.saveCollection(usersFile, map[string]*userRecord{})
		return
	}

	s.users = make(map[string]*domain.User, len(records))
	for username, r := range records {
		r.Username = username
		s.users[username] = r.toUser()
	}
}

func (s *Store) saveUsersLocked() error {
	records := make(map[string]*userRecord, len(s.users))
	for username, u := range s.users {
		records[username] = toUserRecord(u)
	}
	return s.saveCollection(usersFile, records)
}

func (s *Store) CreateUser(user *domain.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return domain.NewValidationError("用户名已存在")
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.NewValidationError("邮箱已存在")
		}
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}

	s.users[user.Username] = user
	if err := s.saveUsersLocked(); err != nil {
		delete(s.users, user.Username)
		return err
	}

	return nil
}

func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	user, exists := s.users[username]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

func (s *Store) GetAllUsers() []*domain.User {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		users = append(users, &copied)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})

	return users
}

// UpdateUser 整体覆盖用户（username 不可变更）
func (s *Store) UpdateUser(user *domain.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	prev, exists := s.users[user.Username]
	if !exists {
		return domain.ErrUserNotFound
	}
	for _, u := range s.users {
		if u.Username != user.Username && u.Email == user.Email {
			return domain.NewValidationError("邮箱已存在")
		}
	}

	s.users[user.Username] = user
	if err := s.saveUsersLocked(); err != nil {
		s.users[user.Username] = prev
		return err
	}

	return nil
}

// DeleteUser 删除用户身份记录和排班偏好
// 历史班次中保留的是创建时的姓名和团队快照，因此不会被级联删除
func (s *Store) DeleteUser(username string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	prev, exists := s.users[username]
	if !exists {
		return domain.ErrUserNotFound
	}

	delete(s.users, username)
	if err := s.saveUsersLocked(); err != nil {
		s.users[username] = prev
		return err
	}

	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	if _, exists := s.prefs[username]; exists {
		delete(s.prefs, username)
		if err := s.savePreferencesLocked(); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) CheckEmailIfExists(email string) bool {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return true
		}
	}
	return false
}
