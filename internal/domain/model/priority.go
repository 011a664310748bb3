package model

import (
	"database/sql/driver"
	"fmt"
)

// Priority 支援要請の緊急度（low < medium < high）。ゼロ値は無効
type Priority uint8

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
}

// ParsePriority "high" / "medium" / "low" を Priority に変換
func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("無効な優先度です: %q", s)
}

// Valid 定義済みの優先度かチェック
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", uint8(p))
}

// Max より緊急度の高い方を返す
func (p Priority) Max(other Priority) Priority {
	if other > p {
		return other
	}
	return p
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("無効な優先度です: %d", uint8(p))
	}
	return []byte(priorityNames[p]), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value DB にはラベル文字列として保存する
func (p Priority) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("無効な優先度です: %d", uint8(p))
	}
	return priorityNames[p], nil
}

// Scan Value で保存したラベル文字列を読み込む
func (p *Priority) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return p.UnmarshalText([]byte(v))
	case []byte:
		return p.UnmarshalText(v)
	case nil:
		return fmt.Errorf("優先度が NULL です")
	default:
		return fmt.Errorf("%T を Priority に変換できません", src)
	}
}
