// Package ganzhi 定义干支历法的基础数据：十天干、十二地支、五行、阴阳、
// 藏干与六十甲子循环。所有表为包级不可变数据，全部查询均为纯函数。
package ganzhi

import "fmt"

// Element 五行，循环顺序为 木火土金水（相生顺序）
type Element string

const (
	Wood  Element = "木"
	Fire  Element = "火"
	Earth Element = "土"
	Metal Element = "金"
	Water Element = "水"
)

var elements = [...]Element{Wood, Fire, Earth, Metal, Water}

var elementIndex = buildIndex(elements[:])

// AllElements 按相生顺序返回五行
func AllElements() []Element {
	out := make([]Element, len(elements))
	copy(out, elements[:])
	return out
}

// ParseElement 解析五行字符
func ParseElement(s string) (Element, error) {
	e := Element(s)
	if !e.Valid() {
		return "", fmt.Errorf("无效的五行: %q", s)
	}
	return e, nil
}

// Valid 判断是否为合法五行
func (e Element) Valid() bool {
	_, ok := elementIndex[string(e)]
	return ok
}

// Index 返回五行在相生循环中的序号（木0 火1 土2 金3 水4），非法值返回 -1
func (e Element) Index() int {
	i, ok := elementIndex[string(e)]
	if !ok {
		return -1
	}
	return i
}

// Generates 我生者（木生火、火生土……）
func (e Element) Generates() Element {
	return elements[(e.Index()+1)%5]
}

// GeneratedBy 生我者
func (e Element) GeneratedBy() Element {
	return elements[(e.Index()+4)%5]
}

// Controls 我克者（木克土、土克水……）
func (e Element) Controls() Element {
	return elements[(e.Index()+2)%5]
}

// ControlledBy 克我者
func (e Element) ControlledBy() Element {
	return elements[(e.Index()+3)%5]
}

func (e Element) String() string { return string(e) }

// Phase 五行在月令中的旺衰状态
type Phase string

const (
	PhaseWang  Phase = "旺"
	PhaseXiang Phase = "相"
	PhaseXiu   Phase = "休"
	PhaseQiu   Phase = "囚"
	PhaseSi    Phase = "死"
)

// SeasonalPhase 日主五行对月令五行的旺衰：
// 同我为旺，我生为相，生我为休，克我为囚，我克为死
func (e Element) SeasonalPhase(month Element) Phase {
	switch month {
	case e:
		return PhaseWang
	case e.Generates():
		return PhaseXiang
	case e.GeneratedBy():
		return PhaseXiu
	case e.ControlledBy():
		return PhaseQiu
	default:
		return PhaseSi
	}
}

// Polarity 阴阳属性
type Polarity string

const (
	Yang Polarity = "陽"
	Yin  Polarity = "陰"
)

func (p Polarity) String() string { return string(p) }

// Season 季节，由月支决定
type Season string

const (
	Spring Season = "春"
	Summer Season = "夏"
	Autumn Season = "秋"
	Winter Season = "冬"
)

func (s Season) String() string { return string(s) }
