package pattern

import (
	"fmt"
	"strings"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/tengod"
)

// EvidenceMethod 取格四法中的證據來源
type EvidenceMethod string

const (
	EvidenceTianTouDiCang EvidenceMethod = "天透地藏"
	EvidenceSanHe         EvidenceMethod = "三合成局"
	EvidenceSanHui        EvidenceMethod = "三會成方"
	EvidenceSiJian        EvidenceMethod = "四見入格"
)

// Evidence 取格證據
type Evidence struct {
	Method     EvidenceMethod `json:"method"`
	Ge         Ge             `json:"ge_type"`
	Details    []string       `json:"evidence"`
	Confidence Confidence     `json:"confidence"`
}

// CollectEvidence 收集取格四法證據：天透地藏、三合成局、三會成方、四見入格。
// 三合三會成局按專旺格名歸類，屬 S 級證據。
func CollectEvidence(c *chart.Chart, rep *relation.Report, mg *MonthGe, day ganzhi.Stem) []Evidence {
	var out []Evidence

	if mg.Revealed {
		out = append(out, Evidence{
			Method: EvidenceTianTouDiCang,
			Ge:     mg.Ge,
			Details: []string{
				fmt.Sprintf("月支%s藏%s", mg.MonthBranch, mg.PrincipalStem),
				fmt.Sprintf("%s透於%s", mg.PrincipalStem, strings.Join(mg.RevealedAt, ",")),
			},
			Confidence: ConfidenceA,
		})
	}

	for _, f := range rep.ByKind(relation.KindSanHe) {
		out = append(out, Evidence{
			Method:     EvidenceSanHe,
			Ge:         zhuanwangGe[f.Result],
			Details:    []string{fmt.Sprintf("三合%s局：%s", f.Result, strings.Join(f.Members, ""))},
			Confidence: ConfidenceS,
		})
	}
	for _, f := range rep.ByKind(relation.KindSanHui) {
		out = append(out, Evidence{
			Method:     EvidenceSanHui,
			Ge:         zhuanwangGe[f.Result],
			Details:    []string{fmt.Sprintf("三會%s方：%s", f.Result, strings.Join(f.Members, ""))},
			Confidence: ConfidenceS,
		})
	}

	if ev := checkSiJian(c, day); ev != nil {
		out = append(out, *ev)
	}
	return out
}

// checkSiJian 四見入格：同一天干連同地支同字合計見足四次。
// 按首見順序取第一個滿足的天干，地支字不入格。
func checkSiJian(c *chart.Chart, day ganzhi.Stem) *Evidence {
	var seq []string
	for _, pos := range c.Positions() {
		seq = append(seq, string(c.Pillar(pos).Stem))
	}
	for _, pos := range c.Positions() {
		seq = append(seq, string(c.Pillar(pos).Branch))
	}

	counts := make(map[string]int, len(seq))
	for _, ch := range seq {
		counts[ch]++
	}

	seen := make(map[string]bool, len(seq))
	for _, ch := range seq {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		if counts[ch] < 4 {
			continue
		}
		s, err := ganzhi.ParseStem(ch)
		if err != nil {
			continue
		}
		god := tengod.Resolve(day, s)
		return &Evidence{
			Method:     EvidenceSiJian,
			Ge:         geByGod[god],
			Details:    []string{fmt.Sprintf("%s見四次，%s旺", s, god)},
			Confidence: ConfidenceA,
		}
	}
	return nil
}
