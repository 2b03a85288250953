package tengod

import (
	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
)

// Layer 十神条目所在层
type Layer string

const (
	LayerStem   Layer = "天干"
	LayerHidden Layer = "地支藏干"
)

// Item 单个十神条目。日柱天干标注为日主，不计入统计。
type Item struct {
	Position chart.Position `json:"-"`
	Layer    Layer          `json:"layer"`
	Stem     ganzhi.Stem    `json:"stem"`
	Role     ganzhi.Role    `json:"role,omitempty"`
	Weight   float64        `json:"weight"`
	God      TenGod         `json:"shishen"`
}

// Summary 全盘十神汇总
type Summary struct {
	DayMaster       ganzhi.Stem
	Items           []Item
	Counts          map[TenGod]int
	WeightedCounts  map[TenGod]float64
	CategoryWeights map[Category]float64
	HourOmitted     bool
}

// Summarize 汇总整盘十神：四柱天干层各记 1.0，藏干层按本氣1.0/中氣0.5/餘氣0.3
// 加权。时辰不详时跳过时柱并置 HourOmitted。
func Summarize(c *chart.Chart) *Summary {
	s := &Summary{
		DayMaster:       c.DayMaster(),
		Counts:          make(map[TenGod]int),
		WeightedCounts:  make(map[TenGod]float64),
		CategoryWeights: make(map[Category]float64),
		HourOmitted:     !c.HasHour(),
	}

	for _, pos := range c.Positions() {
		p := c.Pillar(pos)

		god := Resolve(c.DayMaster(), p.Stem)
		if pos == chart.PosDay {
			god = DayMasterLabel
		}
		s.add(Item{
			Position: pos,
			Layer:    LayerStem,
			Stem:     p.Stem,
			Weight:   1.0,
			God:      god,
		})

		for _, h := range p.Branch.HiddenStems() {
			s.add(Item{
				Position: pos,
				Layer:    LayerHidden,
				Stem:     h.Stem,
				Role:     h.Role,
				Weight:   h.Weight,
				God:      Resolve(c.DayMaster(), h.Stem),
			})
		}
	}
	return s
}

func (s *Summary) add(it Item) {
	s.Items = append(s.Items, it)
	if it.God == DayMasterLabel {
		return
	}
	s.Counts[it.God]++
	s.WeightedCounts[it.God] += it.Weight
	s.CategoryWeights[it.God.Category()] += it.Weight
}

// VisibleGods 天干层十神，按年月日時顺序（日柱为日主标注）
func (s *Summary) VisibleGods() []Item {
	out := make([]Item, 0, 4)
	for _, it := range s.Items {
		if it.Layer == LayerStem {
			out = append(out, it)
		}
	}
	return out
}

// HiddenGods 藏干层十神条目
func (s *Summary) HiddenGods() []Item {
	out := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		if it.Layer == LayerHidden {
			out = append(out, it)
		}
	}
	return out
}

// WeightOf 某十神的加权计数
func (s *Summary) WeightOf(t TenGod) float64 {
	return s.WeightedCounts[t]
}

// CategoryWeight 某十神类别的加权计数
func (s *Summary) CategoryWeight(c Category) float64 {
	return s.CategoryWeights[c]
}

// HasVisible 天干层（除日主外）是否出现某十神
func (s *Summary) HasVisible(t TenGod) bool {
	for _, it := range s.Items {
		if it.Layer == LayerStem && it.God == t {
			return true
		}
	}
	return false
}
