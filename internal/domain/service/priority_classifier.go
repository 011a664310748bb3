package service

import (
	"strings"

	"CrisisConnect/internal/domain/model"
)

// priorityRules 先に一致したルールが優先される
var priorityRules = []struct {
	keyword  string
	priority model.Priority
}{
	{keyword: "medical", priority: model.PriorityHigh},
	{keyword: "food", priority: model.PriorityMedium},
	{keyword: "water", priority: model.PriorityMedium},
}

// AssignPriority needs の記述からキーワードの部分一致（大文字小文字を区別しない）で優先度を決定する
func AssignPriority(needs string) model.Priority {
	lowered := strings.ToLower(needs)
	for _, rule := range priorityRules {
		if strings.Contains(lowered, rule.keyword) {
			return rule.priority
		}
	}
	return model.PriorityLow
}
