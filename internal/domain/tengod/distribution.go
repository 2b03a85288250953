package tengod

import (
	"math"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
)

// 五行统计的遍历顺序，决定 missing 列表顺序与 dominant 同分时的取舍
var countOrder = [...]ganzhi.Element{
	ganzhi.Metal, ganzhi.Wood, ganzhi.Water, ganzhi.Fire, ganzhi.Earth,
}

// ElementDistribution 全盘五行分布。天干地支各记 1，藏干按权重累加。
type ElementDistribution struct {
	Counts       map[ganzhi.Element]float64 `json:"counts"`
	StemCounts   map[ganzhi.Element]float64 `json:"stem_counts"`
	BranchCounts map[ganzhi.Element]float64 `json:"branch_counts"`
	HiddenCounts map[ganzhi.Element]float64 `json:"hidden_counts"`
	Missing      []ganzhi.Element           `json:"missing"`
	Dominant     ganzhi.Element             `json:"dominant"`
	HourOmitted  bool                       `json:"hour_omitted,omitempty"`
}

// CountElements 统计全盘五行分布，时辰不详时跳过时柱
func CountElements(c *chart.Chart) *ElementDistribution {
	d := &ElementDistribution{
		Counts:       zeroCounts(),
		StemCounts:   zeroCounts(),
		BranchCounts: zeroCounts(),
		HiddenCounts: zeroCounts(),
		HourOmitted:  !c.HasHour(),
	}

	for _, pos := range c.Positions() {
		p := c.Pillar(pos)

		ge := p.Stem.Element()
		d.Counts[ge]++
		d.StemCounts[ge]++

		be := p.Branch.Element()
		d.Counts[be]++
		d.BranchCounts[be]++

		for _, h := range p.Branch.HiddenStems() {
			he := h.Stem.Element()
			d.Counts[he] += h.Weight
			d.HiddenCounts[he] += h.Weight
		}
	}

	best := -1.0
	for _, e := range countOrder {
		if d.Counts[e] == 0 {
			d.Missing = append(d.Missing, e)
		}
		if d.Counts[e] > best {
			best = d.Counts[e]
			d.Dominant = e
		}
	}
	return d
}

// Rounded 返回按两位小数取整后的总计，用于导出
func (d *ElementDistribution) Rounded() map[ganzhi.Element]float64 {
	out := make(map[ganzhi.Element]float64, len(d.Counts))
	for e, v := range d.Counts {
		out[e] = math.Round(v*100) / 100
	}
	return out
}

func zeroCounts() map[ganzhi.Element]float64 {
	m := make(map[ganzhi.Element]float64, 5)
	for _, e := range countOrder {
		m[e] = 0
	}
	return m
}
