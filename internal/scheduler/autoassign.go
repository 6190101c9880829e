package scheduler

import (
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sort"
	"time"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

// AutoAssignedNotes 是自动排班生成的班次的备注内容
const AutoAssignedNotes = "Auto-assigned shift"

// DefaultWindow 返回默认的排班窗口：本周和下周的所有工作日
func DefaultWindow(now time.Time) []time.Time {
	// 回退到本周一
	offset := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -offset)

	dates := make([]time.Time, 0, 10)
	for week := 0; week < 2; week++ {
		for day := 0; day < 5; day++ {
			dates = append(dates, monday.AddDate(0, 0, week*7+day))
		}
	}
	return dates
}

// DateStrings 把日期窗口格式化为存储使用的 YYYY-MM-DD 形式
func DateStrings(dates []time.Time) []string {
	strs := make([]string, len(dates))
	for i, d := range dates {
		strs[i] = d.Format(domain.DateLayout)
	}
	return strs
}

// GenerateEntries 为给定的日期窗口生成自动排班班次
//
// 人员选择是确定性的：按团队分组后，每天取 max(1, 团队人数/5) 个人，
// 从按用户名排序的成员列表中以星期序号（周一为 0）作为起点轮转选取，
// 因此对相同的名册重复生成会选出相同的人
// 工作地点则是 Office/WFH 之间的带权随机抽取，权重由成员偏好决定
//
// 没有任何用户时记录一条警告并返回空结果，绝不向调用方抛错，
// 避免会话启动被自动排班阻塞
func GenerateEntries(users []*domain.User, prefs map[string]*domain.SchedulePreferences, dates []time.Time, now time.Time) []*domain.ScheduleEntry {
	if len(users) == 0 {
		slog.Warn("没有任何用户，跳过自动排班")
		return nil
	}

	// 按团队分组，组内按用户名排序保证轮转顺序稳定
	byTeam := make(map[string][]*domain.User)
	for _, u := range users {
		byTeam[u.Team] = append(byTeam[u.Team], u)
	}

	teamNames := make([]string, 0, len(byTeam))
	for name, members := range byTeam {
		sort.Slice(members, func(i, j int) bool {
			return members[i].Username < members[j].Username
		})
		teamNames = append(teamNames, name)
	}
	sort.Strings(teamNames)

	var entries []*domain.ScheduleEntry

	for _, date := range dates {
		dayOffset := (int(date.Weekday()) + 6) % 7
		weekdayName := date.Weekday().String()

		for _, teamName := range teamNames {
			members := byTeam[teamName]

			membersPerDay := len(members) / 5
			if membersPerDay < 1 {
				membersPerDay = 1
			}
			if membersPerDay > len(members) {
				membersPerDay = len(members)
			}

			for i := 0; i < membersPerDay; i++ {
				member := members[(dayOffset+i)%len(members)]

				pref := prefs[member.Username]
				if pref == nil {
					pref = domain.DefaultPreferences(member.Username)
				}

				start, end := shiftTimes(pref)

				entries = append(entries, &domain.ScheduleEntry{
					Date:         date.Format(domain.DateLayout),
					Username:     member.Username,
					Name:         member.Name,
					Team:         member.Team,
					StartTime:    start,
					EndTime:      end,
					Location:     drawLocation(pref, weekdayName),
					Notes:        AutoAssignedNotes,
					AutoAssigned: true,
					CreatedAt:    now,
					UpdatedAt:    now,
				})
			}
		}
	}

	return entries
}

// drawLocation 在 Office 和 WFH 之间做带权随机抽取
// 基础权重 70/30；偏好 Office 时 90/10；偏好 WFH 时 20/80；
// 偏好 WFH 且当天在偏好的远程日中时进一步偏到 10/90
// 自动排班永远不会选出 Hybrid/OnSiteClient/Travel，那些只能手工录入或通过换班产生
func drawLocation(pref *domain.SchedulePreferences, weekdayName string) domain.Location {
	officeWeight := 70

	switch pref.PreferredLocation {
	case domain.LocationOffice:
		officeWeight = 90
	case domain.LocationWFH:
		officeWeight = 20
		if slices.Contains(pref.PreferredRemoteDays, weekdayName) {
			officeWeight = 10
		}
	}

	if rand.Intn(100) < officeWeight {
		return domain.LocationOffice
	}
	return domain.LocationWFH
}

// shiftTimes 从偏好推导班次的起止时间，结束时间不跨天，最晚封顶到 23:59
func shiftTimes(pref *domain.SchedulePreferences) (string, string) {
	startMin, err := domain.ParseTimeOfDay(pref.PreferredStart)
	if err != nil {
		startMin = 9 * 60
	}

	hours := pref.PreferredHours
	if hours <= 0 {
		hours = 8
	}

	endMin := startMin + hours*60
	if endMin > 23*60+59 {
		endMin = 23*60 + 59
	}

	return formatTimeOfDay(startMin), formatTimeOfDay(endMin)
}

func formatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
