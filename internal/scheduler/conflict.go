// Package scheduler 包含排班冲突检测和自动排班引擎
// 本包不依赖存储层，输入输出都是内存中的领域对象
package scheduler

import (
	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

// FindConflict 在同一用户同一天的已有班次中查找与候选时间段重叠的班次
// 判定使用半开区间: candidateStart < existingEnd && candidateEnd > existingStart，
// 首尾相接（一个班次结束时另一个刚好开始）不算冲突
// excludeID 用于编辑场景，把被编辑的班次自身排除在比较之外；不需要排除时传 0
func FindConflict(existing []*domain.ScheduleEntry, candidateStart string, candidateEnd string, excludeID int64) (*domain.ScheduleEntry, bool) {
	startMin, err := domain.ParseTimeOfDay(candidateStart)
	if err != nil {
		return nil, false
	}
	endMin, err := domain.ParseTimeOfDay(candidateEnd)
	if err != nil {
		return nil, false
	}

	for _, entry := range existing {
		if entry.ID == excludeID {
			continue
		}

		// 历史数据可能存在坏的时间字段，按“仅供参考”处理，跳过而不是报错
		existingStart, err := domain.ParseTimeOfDay(entry.StartTime)
		if err != nil {
			continue
		}
		existingEnd, err := domain.ParseTimeOfDay(entry.EndTime)
		if err != nil {
			continue
		}

		if startMin < existingEnd && endMin > existingStart {
			return entry, true
		}
	}

	return nil, false
}
