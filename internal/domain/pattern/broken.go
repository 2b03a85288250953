package pattern

import (
	"fmt"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/tengod"
)

// Broken 破格結果。Type 取首個命中的破格類型，Notes 彙總全部命中注記。
type Broken struct {
	IsBroken bool     `json:"is_poge"`
	Type     string   `json:"po_type,omitempty"`
	Agent    string   `json:"po_element,omitempty"`
	Position string   `json:"po_position,omitempty"`
	Notes    []string `json:"notes"`
}

// checkBroken 破格檢測，按序掃描：月支被沖（沖破）、月支合化變質（合去）、
// 正官格官殺混雜、正官格見傷官（傷格）。格局柱之後沖月者注記加重。
func checkBroken(sum *tengod.Summary, rep *relation.Report, mg *MonthGe, main Ge) *Broken {
	b := &Broken{Notes: []string{}}

	for _, f := range rep.ByKind(relation.KindLiuChong) {
		if !hasMember(f.Members, string(mg.MonthBranch)) {
			continue
		}
		agent := otherMember(f.Members, string(mg.MonthBranch))
		pos := otherPosition(f.Positions)
		b.hit("沖破", agent, pos.Short(),
			fmt.Sprintf("月支%s被%s沖", mg.MonthBranch, agent))
		if pos > chart.PosMonth {
			b.Notes = append(b.Notes, "格局柱後破，加重")
		}
		break
	}

	for _, f := range rep.ByKind(relation.KindLiuHe) {
		if !hasMember(f.Members, string(mg.MonthBranch)) {
			continue
		}
		if f.Result == mg.MonthElement {
			continue
		}
		agent := otherMember(f.Members, string(mg.MonthBranch))
		b.hit("合去", agent, otherPosition(f.Positions).Short(),
			fmt.Sprintf("月支%s與%s合化%s，格神變質", mg.MonthBranch, agent, f.Result))
		break
	}

	if main == GeZhengGuan {
		guan, sha := sum.WeightOf(tengod.ZhengGuan), sum.WeightOf(tengod.QiSha)
		if guan > 0 && sha > 0 {
			b.hit("官殺混雜", "", "",
				fmt.Sprintf("官殺混雜（正官%.1f 七殺%.1f）", guan, sha))
		}
		for _, it := range sum.VisibleGods() {
			if it.God == tengod.ShangGuan {
				b.hit("傷格", string(it.Stem), it.Position.Short(),
					fmt.Sprintf("正官格見傷官（%s在%s）", it.Stem, it.Position.Short()))
				break
			}
		}
	}
	return b
}

func (b *Broken) hit(typ, agent, pos, note string) {
	if !b.IsBroken {
		b.IsBroken = true
		b.Type = typ
		b.Agent = agent
		b.Position = pos
	}
	b.Notes = append(b.Notes, note)
}

func hasMember(members []string, s string) bool {
	for _, m := range members {
		if m == s {
			return true
		}
	}
	return false
}

func otherMember(members []string, self string) string {
	for _, m := range members {
		if m != self {
			return m
		}
	}
	return ""
}

func otherPosition(positions []chart.Position) chart.Position {
	for _, p := range positions {
		if p != chart.PosMonth {
			return p
		}
	}
	return chart.PosMonth
}
