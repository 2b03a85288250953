// Package chart 定义四柱命盘模型：柱、柱位、性别与不可变的 Chart 值对象。
// 时柱允许缺失（时辰不详），缺失时所有涉及时柱的推导一律省略并标记，
// 绝不猜测补全。
package chart

import (
	"errors"
	"fmt"
	"strings"

	"bazi-engine-api/internal/domain/ganzhi"
)

var (
	// ErrInvalidPillar 柱式非法：非两字干支、干支字符无效或阴阳不配
	ErrInvalidPillar = errors.New("无效的柱式")
	// ErrInvalidGender 性别标识无法识别
	ErrInvalidGender = errors.New("无效的性别")
)

// Gender 性别
type Gender string

const (
	Male   Gender = "男"
	Female Gender = "女"
)

// ParseGender 解析性别标识，接受 男/女 及 male/female 别名
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "男", "male", "m":
		return Male, nil
	case "女", "female", "f":
		return Female, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGender, s)
	}
}

func (g Gender) String() string { return string(g) }

// Position 柱位
type Position int

const (
	PosYear Position = iota
	PosMonth
	PosDay
	PosHour
)

var positionNames = [...]string{"年柱", "月柱", "日柱", "時柱"}
var positionShorts = [...]string{"年", "月", "日", "時"}

func (p Position) String() string { return positionNames[p] }

// Short 柱位单字名，用于关系记录
func (p Position) Short() string { return positionShorts[p] }

// Pillar 一柱干支
type Pillar struct {
	Stem   ganzhi.Stem   `json:"stem"`
	Branch ganzhi.Branch `json:"branch"`
}

// ParsePillar 解析两字干支串，校验六十甲子合法性
func ParsePillar(s string) (Pillar, error) {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) != 2 {
		return Pillar{}, fmt.Errorf("%w: %q", ErrInvalidPillar, s)
	}
	stem, err := ganzhi.ParseStem(string(runes[0]))
	if err != nil {
		return Pillar{}, fmt.Errorf("%w: %q", ErrInvalidPillar, s)
	}
	branch, err := ganzhi.ParseBranch(string(runes[1]))
	if err != nil {
		return Pillar{}, fmt.Errorf("%w: %q", ErrInvalidPillar, s)
	}
	p := Pillar{Stem: stem, Branch: branch}
	if _, err := ganzhi.CycleIndex(stem, branch); err != nil {
		return Pillar{}, fmt.Errorf("%w: %q 不在六十甲子中", ErrInvalidPillar, s)
	}
	return p, nil
}

func (p Pillar) String() string {
	return string(p.Stem) + string(p.Branch)
}

// CycleIndex 柱在六十甲子中的序号
func (p Pillar) CycleIndex() (int, error) {
	return ganzhi.CycleIndex(p.Stem, p.Branch)
}

// Chart 四柱命盘，构造后不可变
type Chart struct {
	Year   Pillar
	Month  Pillar
	Day    Pillar
	Hour   Pillar
	Gender Gender

	hourKnown bool
}

// New 从四柱干支串构造命盘
func New(year, month, day, hour string, gender Gender) (*Chart, error) {
	c, err := NewWithoutHour(year, month, day, gender)
	if err != nil {
		return nil, err
	}
	hp, err := ParsePillar(hour)
	if err != nil {
		return nil, fmt.Errorf("時柱: %w", err)
	}
	c.Hour = hp
	c.hourKnown = true
	return c, nil
}

// NewWithoutHour 构造时辰不详的命盘
func NewWithoutHour(year, month, day string, gender Gender) (*Chart, error) {
	yp, err := ParsePillar(year)
	if err != nil {
		return nil, fmt.Errorf("年柱: %w", err)
	}
	mp, err := ParsePillar(month)
	if err != nil {
		return nil, fmt.Errorf("月柱: %w", err)
	}
	dp, err := ParsePillar(day)
	if err != nil {
		return nil, fmt.Errorf("日柱: %w", err)
	}
	return &Chart{Year: yp, Month: mp, Day: dp, Gender: gender}, nil
}

// FromPillars 从已构造的柱组装命盘，hourKnown 为 false 时忽略 hour
func FromPillars(year, month, day, hour Pillar, gender Gender, hourKnown bool) *Chart {
	c := &Chart{Year: year, Month: month, Day: day, Gender: gender, hourKnown: hourKnown}
	if hourKnown {
		c.Hour = hour
	}
	return c
}

// HasHour 时柱是否已知
func (c *Chart) HasHour() bool { return c.hourKnown }

// DayMaster 日主（日柱天干）
func (c *Chart) DayMaster() ganzhi.Stem { return c.Day.Stem }

// Pillar 按柱位取柱
func (c *Chart) Pillar(pos Position) Pillar {
	switch pos {
	case PosYear:
		return c.Year
	case PosMonth:
		return c.Month
	case PosDay:
		return c.Day
	default:
		return c.Hour
	}
}

// Positions 返回有效柱位，时辰不详时不含時柱
func (c *Chart) Positions() []Position {
	if c.hourKnown {
		return []Position{PosYear, PosMonth, PosDay, PosHour}
	}
	return []Position{PosYear, PosMonth, PosDay}
}

// ContainsBranch 判断某地支是否出现在有效柱位中
func (c *Chart) ContainsBranch(b ganzhi.Branch) bool {
	for _, pos := range c.Positions() {
		if c.Pillar(pos).Branch == b {
			return true
		}
	}
	return false
}

// ContainsStem 判断某天干是否出现在有效柱位天干中
func (c *Chart) ContainsStem(s ganzhi.Stem) bool {
	for _, pos := range c.Positions() {
		if c.Pillar(pos).Stem == s {
			return true
		}
	}
	return false
}

// Key 命盘的规范化键：四柱加性别，用于缓存与幂等归档
func (c *Chart) Key() string {
	parts := []string{c.Year.String(), c.Month.String(), c.Day.String()}
	if c.hourKnown {
		parts = append(parts, c.Hour.String())
	} else {
		parts = append(parts, "--")
	}
	parts = append(parts, string(c.Gender))
	return strings.Join(parts, "|")
}

func (c *Chart) String() string {
	parts := []string{c.Year.String(), c.Month.String(), c.Day.String()}
	if c.hourKnown {
		parts = append(parts, c.Hour.String())
	}
	return strings.Join(parts, " ")
}
