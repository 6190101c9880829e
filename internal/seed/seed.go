// Package seed 生成演示用的团队、用户和排班偏好
package seed

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/teamshift-dev/workshift-manager/backend/internal/config"
	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
	"github.com/teamshift-dev/workshift-manager/backend/internal/store"
	"github.com/teamshift-dev/workshift-manager/backend/internal/utils"
)

var demoTeams = []string{"客服组", "运维组", "销售组", "研发组"}

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var startTimes = []string{"08:00", "09:00", "10:00"}

// SeedDemoData 为每个演示团队生成若干随机用户，并为其中一部分生成排班偏好
func SeedDemoData(s *store.Store, cfg *config.Config) {
	for _, team := range demoTeams {
		if err := s.AddTeam(team); err != nil {
			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				slog.Error("创建演示团队失败", "team", team, "error", err)
				return
			}
			// 团队已存在，跳过
		}

		memberCount := rand.Intn(6) + 3
		for i := 0; i < memberCount; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain, team)
			if err != nil {
				slog.Error("生成演示用户失败", "error", err)
				return
			}

			if err := s.CreateUser(user); err != nil {
				var validationErr *domain.ValidationError
				if errors.As(err, &validationErr) {
					// 随机用户名或邮箱撞车，跳过这个用户
					continue
				}
				slog.Error("创建演示用户失败", "username", user.Username, "error", err)
				return
			}

			// 大约一半的用户写入显式偏好，其余走默认值
			if rand.Intn(2) == 0 {
				if err := s.SavePreferences(randomPreferences(user.Username)); err != nil {
					slog.Error("保存演示偏好失败", "username", user.Username, "error", err)
					return
				}
			}

			slog.Info("已创建演示用户", "username", user.Username, "name", user.Name, "team", team, "role", user.Role)
		}
	}
}

func randomPreferences(username string) *domain.SchedulePreferences {
	pref := domain.DefaultPreferences(username)
	pref.PreferredStart = startTimes[rand.Intn(len(startTimes))]
	pref.PreferredHours = rand.Intn(3) + 7

	if rand.Intn(2) == 0 {
		pref.PreferredLocation = domain.LocationWFH
		days := rand.Intn(2) + 1
		for i := 0; i < days; i++ {
			pref.PreferredRemoteDays = append(pref.PreferredRemoteDays, weekdayNames[rand.Intn(len(weekdayNames))])
		}
	}

	return pref
}
