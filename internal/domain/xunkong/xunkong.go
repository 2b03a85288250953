// Package xunkong 实现旬空（空亡）判定：由日柱定旬首，旬内未及的两支
// 为空亡，再标注盘中落空的柱位及其本氣藏干十神。
package xunkong

import (
	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/tengod"
)

// Result 旬空判定结果。VoidPositions 与 VoidGods 按柱序对齐。
type Result struct {
	DayPillar     chart.Pillar
	XunHead       chart.Pillar
	VoidBranches  [2]ganzhi.Branch
	VoidPositions []chart.Position
	VoidGods      []tengod.TenGod
	HourOmitted   bool
}

// Resolve 计算旬空。日支必在本旬之内，故落空只可能出现在年月時三柱。
func Resolve(c *chart.Chart) *Result {
	n, _ := c.Day.CycleIndex()
	head := n - n%10

	headStem, headBranch := ganzhi.CycleFromIndex(head)
	r := &Result{
		DayPillar:   c.Day,
		XunHead:     chart.Pillar{Stem: headStem, Branch: headBranch},
		HourOmitted: !c.HasHour(),
	}
	r.VoidBranches[0] = ganzhi.BranchFromIndex(head + 10)
	r.VoidBranches[1] = ganzhi.BranchFromIndex(head + 11)

	for _, pos := range c.Positions() {
		b := c.Pillar(pos).Branch
		if b != r.VoidBranches[0] && b != r.VoidBranches[1] {
			continue
		}
		r.VoidPositions = append(r.VoidPositions, pos)
		r.VoidGods = append(r.VoidGods, tengod.Resolve(c.DayMaster(), b.PrincipalStem()))
	}
	return r
}

// IsVoid 某地支是否为本旬空亡之支
func (r *Result) IsVoid(b ganzhi.Branch) bool {
	return b == r.VoidBranches[0] || b == r.VoidBranches[1]
}
