// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
)

// ChartRecord 归档的命盘分析记录。完整画像以 JSONB 存储，
// 常用检索维度（日主、主格、强弱、喜用神、空亡）冗余为独立列。
type ChartRecord struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChartKey string `json:"chart_key" gorm:"type:varchar(32);uniqueIndex;not null"`

	YearPillar  string `json:"year_pillar" gorm:"type:varchar(8);not null"`
	MonthPillar string `json:"month_pillar" gorm:"type:varchar(8);not null"`
	DayPillar   string `json:"day_pillar" gorm:"type:varchar(8);not null"`
	HourPillar  string `json:"hour_pillar,omitempty" gorm:"type:varchar(8)"`
	HourKnown   bool   `json:"hour_known" gorm:"not null;default:true"`
	Gender      string `json:"gender" gorm:"type:varchar(4);not null"`

	DayMaster  string `json:"day_master" gorm:"type:varchar(4);index"`
	DayElement string `json:"day_wuxing" gorm:"type:varchar(4)"`
	Pattern    string `json:"pattern" gorm:"type:varchar(16);index"`
	Confidence string `json:"confidence" gorm:"type:varchar(4)"`
	Broken     bool   `json:"broken"`
	Strength   string `json:"strength" gorm:"type:varchar(16);index"`

	VoidBranches        pq.StringArray `json:"void_branches" gorm:"type:text[]"`
	FavorableElements   pq.StringArray `json:"favorable_elements" gorm:"type:text[]"`
	UnfavorableElements pq.StringArray `json:"unfavorable_elements" gorm:"type:text[]"`

	Profile json.RawMessage `json:"profile" gorm:"type:jsonb;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ChartRecord) TableName() string {
	return "chart_records"
}

// NewChartRecord 创建命盘归档记录，时柱传空串表示时辰不详
func NewChartRecord(year, month, day, hour, gender string) *ChartRecord {
	return &ChartRecord{
		ChartKey:    BuildChartKey(year, month, day, hour, gender),
		YearPillar:  year,
		MonthPillar: month,
		DayPillar:   day,
		HourPillar:  hour,
		HourKnown:   hour != "",
		Gender:      gender,
		CreatedAt:   time.Now(),
	}
}

// BuildChartKey 构造命盘归一化键：四柱与性别按固定顺序拼接，
// 时柱缺省以 - 占位。同键即同盘，用于缓存与归档去重。
func BuildChartKey(year, month, day, hour, gender string) string {
	if hour == "" {
		hour = "-"
	}
	return strings.Join([]string{year, month, day, hour, gender}, "|")
}

// Key 返回记录的归一化键
func (r *ChartRecord) Key() string {
	return BuildChartKey(r.YearPillar, r.MonthPillar, r.DayPillar, r.HourPillar, r.Gender)
}
