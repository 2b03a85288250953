// Package relation 实现刑沖合會检测：地支两两关系、三合三會局、自刑、
// 天干合沖剋，以及拱夾暗拱虚神推断。检测结果为有序的记录流，同一输入
// 恒定产出同一顺序。
package relation

import (
	"fmt"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
)

// Kind 关系类型
type Kind string

const (
	KindLiuHe    Kind = "六合"
	KindLiuChong Kind = "六沖"
	KindXing     Kind = "刑"
	KindHai      Kind = "害"
	KindPo       Kind = "破"
	KindSanHe    Kind = "三合"
	KindBanSanHe Kind = "半三合"
	KindSanHui   Kind = "三會"
	KindZiXing   Kind = "自刑"

	KindStemHe    Kind = "天干合"
	KindStemChong Kind = "天干沖"
	KindStemKe    Kind = "天干剋"

	KindGong   Kind = "拱"
	KindJia    Kind = "夾"
	KindAnGong Kind = "暗拱"
)

// Severity 关系强度等级，按类型查表，不做任何数值计算
type Severity string

const (
	SeverityCritical Severity = "最重"
	SeverityHeavy    Severity = "重"
	SeverityMedium   Severity = "中"
	SeverityLight    Severity = "輕"
)

var severityByKind = map[Kind]Severity{
	KindSanHe:     SeverityCritical,
	KindSanHui:    SeverityCritical,
	KindLiuChong:  SeverityHeavy,
	KindStemChong: SeverityHeavy,
	KindLiuHe:     SeverityMedium,
	KindXing:      SeverityMedium,
	KindZiXing:    SeverityMedium,
	KindStemHe:    SeverityMedium,
	KindBanSanHe:  SeverityLight,
	KindHai:       SeverityLight,
	KindPo:        SeverityLight,
	KindStemKe:    SeverityLight,
	KindGong:      SeverityLight,
	KindJia:       SeverityLight,
	KindAnGong:    SeverityLight,
}

// SeverityOf 类型对应的强度等级
func SeverityOf(k Kind) Severity {
	return severityByKind[k]
}

// Finding 单条关系记录
type Finding struct {
	Kind      Kind             `json:"type"`
	Members   []string         `json:"elements"`
	Positions []chart.Position `json:"-"`
	Result    ganzhi.Element   `json:"result,omitempty"`
	Subtype   string           `json:"subtype,omitempty"`
	Target    ganzhi.Branch    `json:"target,omitempty"`
	Severity  Severity         `json:"severity"`
	Note      string           `json:"note,omitempty"`
}

// Report 全盘关系检测结果。Findings 为实际干支关系，
// Virtuals 为拱夾暗拱推出的虚神。
type Report struct {
	Findings    []Finding
	Virtuals    []Finding
	HourOmitted bool
}

// ByKind 按类型过滤所有记录（含虚神）
func (r *Report) ByKind(k Kind) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	for _, f := range r.Virtuals {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// Has 是否存在某类型记录
func (r *Report) Has(k Kind) bool {
	return len(r.ByKind(k)) > 0
}

// Detect 检测全盘关系。时辰不详时时柱完全不参与。
func Detect(c *chart.Chart) *Report {
	r := &Report{HourOmitted: !c.HasHour()}
	positions := c.Positions()

	// 地支两两关系，同一对支可同时命中多种关系
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			pi, pj := positions[i], positions[j]
			a, b := c.Pillar(pi).Branch, c.Pillar(pj).Branch
			key := pairKey(a, b)
			members := []string{string(a), string(b)}
			poss := []chart.Position{pi, pj}

			if result, ok := liuHe[key]; ok {
				r.add(Finding{Kind: KindLiuHe, Members: members, Positions: poss, Result: result})
			}
			if a.Clash() == b {
				r.add(Finding{Kind: KindLiuChong, Members: members, Positions: poss})
			}
			if subtype, ok := xing[key]; ok {
				r.add(Finding{Kind: KindXing, Members: members, Positions: poss, Subtype: subtype})
			}
			if _, ok := liuHai[key]; ok {
				r.add(Finding{Kind: KindHai, Members: members, Positions: poss})
			}
			if _, ok := po[key]; ok {
				r.add(Finding{Kind: KindPo, Members: members, Positions: poss})
			}
		}
	}

	present := make(map[ganzhi.Branch]struct{}, len(positions))
	for _, pos := range positions {
		present[c.Pillar(pos).Branch] = struct{}{}
	}

	// 三合局：三支俱全为三合，仅得两支为半三合
	for _, t := range sanHe {
		matched := matchedBranches(t, present)
		switch len(matched) {
		case 3:
			r.add(Finding{
				Kind:      KindSanHe,
				Members:   branchStrings(matched),
				Positions: positionsWith(c, matched),
				Result:    t.element,
			})
		case 2:
			half, ok := banSanHe[pairKey(matched[0], matched[1])]
			if !ok {
				continue
			}
			r.add(Finding{
				Kind:      KindBanSanHe,
				Members:   branchStrings(matched),
				Positions: positionsWith(c, matched),
				Result:    half.element,
				Note:      fmt.Sprintf("缺%s", half.missing),
			})
		}
	}

	// 三會方
	for _, t := range sanHui {
		matched := matchedBranches(t, present)
		if len(matched) == 3 {
			r.add(Finding{
				Kind:      KindSanHui,
				Members:   branchStrings(matched),
				Positions: positionsWith(c, matched),
				Result:    t.element,
			})
		}
	}

	// 自刑：辰午酉亥重见，只记首个命中的支
	for _, pos := range positions {
		b := c.Pillar(pos).Branch
		if _, ok := ziXing[b]; !ok {
			continue
		}
		dup := positionsWith(c, []ganzhi.Branch{b})
		if len(dup) >= 2 {
			r.add(Finding{
				Kind:      KindZiXing,
				Members:   []string{string(b), string(b)},
				Positions: dup,
			})
			break
		}
	}

	// 天干两两关系
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			pi, pj := positions[i], positions[j]
			a, b := c.Pillar(pi).Stem, c.Pillar(pj).Stem
			members := []string{string(a), string(b)}
			poss := []chart.Position{pi, pj}

			combined := false
			if result, ok := a.CombinesWith(b); ok {
				combined = true
				r.add(Finding{Kind: KindStemHe, Members: members, Positions: poss, Result: result})
			}
			clashed := a.ClashesWith(b)
			if clashed {
				r.add(Finding{Kind: KindStemChong, Members: members, Positions: poss})
			}
			// 相剋仅在既不合又不沖时单独成立
			if !combined && !clashed {
				if a.Overcomes(b) {
					r.add(Finding{Kind: KindStemKe, Members: members, Positions: poss, Note: fmt.Sprintf("%s剋%s", a, b)})
				} else if b.Overcomes(a) {
					r.add(Finding{Kind: KindStemKe, Members: members, Positions: poss, Note: fmt.Sprintf("%s剋%s", b, a)})
				}
			}
		}
	}

	r.detectVirtuals(c, positions, present)
	return r
}

// detectVirtuals 拱夾暗拱。被拱夹的支必须不在盘中；推出的虚神若
// 正被盘中实支所沖，加注说明，虚神不敌明沖。
func (r *Report) detectVirtuals(c *chart.Chart, positions []chart.Position, present map[ganzhi.Branch]struct{}) {
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			pi, pj := positions[i], positions[j]
			a, b := c.Pillar(pi).Branch, c.Pillar(pj).Branch
			members := []string{string(a), string(b)}
			poss := []chart.Position{pi, pj}
			adjacent := int(pj)-int(pi) == 1

			if half, ok := gongHe[pairKey(a, b)]; ok {
				if _, exists := present[half.missing]; !exists {
					kind := KindAnGong
					if adjacent {
						kind = KindGong
					}
					r.Virtuals = append(r.Virtuals, Finding{
						Kind:      kind,
						Members:   members,
						Positions: poss,
						Result:    half.element,
						Target:    half.missing,
						Severity:  SeverityOf(kind),
						Note:      clashWarning(c, half.missing),
					})
				}
			}

			if !adjacent {
				continue
			}
			target, ok := clampTarget(a, b)
			if !ok {
				continue
			}
			if _, exists := present[target]; exists {
				continue
			}
			r.Virtuals = append(r.Virtuals, Finding{
				Kind:      KindJia,
				Members:   members,
				Positions: poss,
				Result:    target.Element(),
				Target:    target,
				Severity:  SeverityOf(KindJia),
				Note:      clashWarning(c, target),
			})
		}
	}
}

func (r *Report) add(f Finding) {
	f.Severity = SeverityOf(f.Kind)
	r.Findings = append(r.Findings, f)
}

// clashWarning 虚神被盘中实支所沖时的警示语
func clashWarning(c *chart.Chart, target ganzhi.Branch) string {
	opposite := target.Clash()
	if c.ContainsBranch(opposite) {
		return fmt.Sprintf("虛神%s逢%s沖", target, opposite)
	}
	return ""
}

func matchedBranches(t triad, present map[ganzhi.Branch]struct{}) []ganzhi.Branch {
	var out []ganzhi.Branch
	for _, b := range t.branches {
		if _, ok := present[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

func branchStrings(bs []ganzhi.Branch) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}

// positionsWith 持有指定地支集合中任一支的所有柱位，按柱序
func positionsWith(c *chart.Chart, bs []ganzhi.Branch) []chart.Position {
	var out []chart.Position
	for _, pos := range c.Positions() {
		for _, b := range bs {
			if c.Pillar(pos).Branch == b {
				out = append(out, pos)
				break
			}
		}
	}
	return out
}
