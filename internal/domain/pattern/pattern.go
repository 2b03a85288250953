// Package pattern 实现格局判定。月令主格打底（格=月令當令，不必透干亦成立），
// 再按四步顺序取格：三合三會+透干、月令藏干透干、月令本氣、比劫轉外格，
// 首个命中即定，每步留痕。判定后附顺逆用方向、取格证据、破格检测与
// 專旺/從格候選判據。
package pattern

import (
	"fmt"
	"strings"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/tengod"
)

// Ge 格局
type Ge string

const (
	GeZhengCai  Ge = "正財格"
	GePianCai   Ge = "偏財格"
	GeZhengGuan Ge = "正官格"
	GeQiSha     Ge = "七殺格"
	GeZhengYin  Ge = "正印格"
	GePianYin   Ge = "偏印格"
	GeShiShen   Ge = "食神格"
	GeShangGuan Ge = "傷官格"

	// 月令見比劫轉出的外格
	GeJianLu  Ge = "建祿格"
	GeYangRen Ge = "羊刃格"

	// 一行得氣的專旺格
	GeQuZhi    Ge = "曲直格"
	GeYanShang Ge = "炎上格"
	GeJiaSe    Ge = "稼穡格"
	GeCongGe   Ge = "從革格"
	GeRunXia   Ge = "潤下格"

	// 從格候選
	GeCongCai Ge = "從財格"
	GeCongSha Ge = "從殺格"
	GeCongEr  Ge = "從兒格"

	GeZa Ge = "雜格"
)

func (g Ge) String() string { return string(g) }

// geByGod 月令十神對應格局。比肩劫財直接落到建祿羊刃外格。
var geByGod = map[tengod.TenGod]Ge{
	tengod.ZhengCai:  GeZhengCai,
	tengod.PianCai:   GePianCai,
	tengod.ZhengGuan: GeZhengGuan,
	tengod.QiSha:     GeQiSha,
	tengod.ZhengYin:  GeZhengYin,
	tengod.PianYin:   GePianYin,
	tengod.ShiShen:   GeShiShen,
	tengod.ShangGuan: GeShangGuan,
	tengod.BiJian:    GeJianLu,
	tengod.JieCai:    GeYangRen,
}

// zhuanwangGe 五行對應的一行得氣格名
var zhuanwangGe = map[ganzhi.Element]Ge{
	ganzhi.Wood:  GeQuZhi,
	ganzhi.Fire:  GeYanShang,
	ganzhi.Earth: GeJiaSe,
	ganzhi.Metal: GeCongGe,
	ganzhi.Water: GeRunXia,
}

// ZhuanwangGe 五行對應的專旺格名
func ZhuanwangGe(e ganzhi.Element) Ge { return zhuanwangGe[e] }

// 順用格護格助格，逆用格需制化
var (
	shunYong = map[Ge]bool{
		GeZhengGuan: true, GeZhengYin: true, GeShiShen: true,
		GeZhengCai: true, GePianCai: true,
	}
	niYong = map[Ge]bool{
		GeQiSha: true, GeShangGuan: true, GePianYin: true, GeYangRen: true,
	}
)

// ShunYong 是否順用格
func ShunYong(g Ge) bool { return shunYong[g] }

// NiYong 是否逆用格
func NiYong(g Ge) bool { return niYong[g] }

// Direction 順逆用方向
type Direction string

const (
	DirectionShun    Direction = "順用"
	DirectionNi      Direction = "逆用"
	DirectionPending Direction = "待定"
)

// Confidence 取格證據等級，S/A/B/C 四級
type Confidence string

const (
	ConfidenceS Confidence = "S"
	ConfidenceA Confidence = "A"
	ConfidenceB Confidence = "B"
	ConfidenceC Confidence = "C"
)

// Method 取格方法
type Method string

const (
	MethodCombination  Method = "三合三會+透干"
	MethodHiddenReveal Method = "月令藏干透干"
	MethodPrincipalQi  Method = "月令本氣"
)

// HiddenDetail 月支藏干明細
type HiddenDetail struct {
	Stem    ganzhi.Stem    `json:"干"`
	Role    ganzhi.Role    `json:"角色"`
	Weight  float64        `json:"權重"`
	God     tengod.TenGod  `json:"十神"`
	Element ganzhi.Element `json:"五行"`
}

// MonthGe 月令主格。月支本氣對日主的十神即為格，透干只是顯化。
type MonthGe struct {
	MonthBranch   ganzhi.Branch  `json:"月支"`
	MonthElement  ganzhi.Element `json:"月支五行"`
	Hidden        []HiddenDetail `json:"藏干"`
	PrincipalStem ganzhi.Stem    `json:"本氣"`
	PrincipalGod  tengod.TenGod  `json:"本氣十神"`
	Ge            Ge             `json:"月令主格"`
	MiddleStem    ganzhi.Stem    `json:"中氣,omitempty"`
	ResidualStem  ganzhi.Stem    `json:"餘氣,omitempty"`
	Revealed      bool           `json:"透干"`
	RevealedAt    []string       `json:"透干位置"`
}

// ResolveMonthGe 解析月令主格。透干檢測掃描日柱以外的天干。
func ResolveMonthGe(c *chart.Chart) *MonthGe {
	day := c.DayMaster()
	mb := c.Month.Branch
	hs := mb.HiddenStems()

	mg := &MonthGe{
		MonthBranch:  mb,
		MonthElement: mb.Element(),
		RevealedAt:   []string{},
	}
	for _, h := range hs {
		mg.Hidden = append(mg.Hidden, HiddenDetail{
			Stem:    h.Stem,
			Role:    h.Role,
			Weight:  h.Weight,
			God:     tengod.Resolve(day, h.Stem),
			Element: h.Stem.Element(),
		})
	}
	mg.PrincipalStem = hs[0].Stem
	mg.PrincipalGod = mg.Hidden[0].God
	mg.Ge = geByGod[mg.PrincipalGod]
	if len(hs) > 1 {
		mg.MiddleStem = hs[1].Stem
	}
	if len(hs) > 2 {
		mg.ResidualStem = hs[2].Stem
	}

	for _, pos := range revealPositions(c, mg.PrincipalStem) {
		mg.Revealed = true
		mg.RevealedAt = append(mg.RevealedAt, pos.Short())
	}
	return mg
}

// revealPositions 某天干在日柱以外的出現位置
func revealPositions(c *chart.Chart, s ganzhi.Stem) []chart.Position {
	var out []chart.Position
	for _, pos := range c.Positions() {
		if pos == chart.PosDay {
			continue
		}
		if c.Pillar(pos).Stem == s {
			out = append(out, pos)
		}
	}
	return out
}

// Step 取格推導步驟
type Step struct {
	Seq       int    `json:"步驟"`
	Name      string `json:"名稱"`
	Detection string `json:"檢測結果"`
	Verdict   string `json:"結論"`
}

// Result 格局判定結果
type Result struct {
	Main            Ge          `json:"主格"`
	Secondary       Ge          `json:"兼格,omitempty"`
	Method          Method      `json:"取格方法"`
	Confidence      Confidence  `json:"置信度"`
	RevealedStem    ganzhi.Stem `json:"透出天干,omitempty"`
	Direction       Direction   `json:"順逆用"`
	DirectionReason string      `json:"順逆用理由"`
	Steps           []Step      `json:"推導過程"`

	MonthGe     *MonthGe       `json:"-"`
	Evidence    []Evidence     `json:"-"`
	Broken      *Broken        `json:"-"`
	Zhuanwang   *ZhuanwangData `json:"-"`
	Cong        *CongData      `json:"-"`
	HourOmitted bool           `json:"-"`
}

// Determine 判定主格。四步順序求值，首個命中即定，後續步驟不再参与；
// 破格檢測只附注記，不改判定結果。
func Determine(c *chart.Chart, sum *tengod.Summary, rep *relation.Report) *Result {
	day := c.DayMaster()
	mg := ResolveMonthGe(c)

	r := &Result{
		MonthGe:     mg,
		HourOmitted: !c.HasHour(),
	}

	god, done := r.stepCombination(c, day, rep)
	if !done {
		god, done = r.stepHiddenReveal(c, mg)
	}
	if !done {
		god = r.stepPrincipalQi(mg)
	}
	r.settle(god)

	r.Evidence = CollectEvidence(c, rep, mg, day)
	r.resolveDirection(rep)
	r.Broken = checkBroken(sum, rep, mg, r.Main)
	r.Zhuanwang = zhuanwangData(c, rep)
	r.Cong = congData(c, sum)
	return r
}

// stepCombination 第一步：三合三會成局且所化五行透干，比劫不取格
func (r *Result) stepCombination(c *chart.Chart, day ganzhi.Stem, rep *relation.Report) (tengod.TenGod, bool) {
	findings := rep.ByKind(relation.KindSanHe)
	findings = append(findings, rep.ByKind(relation.KindSanHui)...)

	for _, f := range findings {
		for _, pos := range c.Positions() {
			if pos == chart.PosDay {
				continue
			}
			s := c.Pillar(pos).Stem
			if s.Element() != f.Result {
				continue
			}
			god := tengod.Resolve(day, s)
			if god == tengod.BiJian || god == tengod.JieCai {
				continue
			}
			r.Method = MethodCombination
			r.Confidence = ConfidenceS
			r.RevealedStem = s
			r.addStep(1, string(MethodCombination),
				fmt.Sprintf("%s%s%s局，%s透於%s干", strings.Join(f.Members, ""), f.Kind, f.Result, s, pos.Short()),
				fmt.Sprintf("以%s立格", god))
			return god, true
		}
	}
	r.addStep(1, string(MethodCombination), "無三合三會成局，或所化五行未透干", "進入下一步")
	return "", false
}

// stepHiddenReveal 第二步：月支藏干按本氣中氣餘氣順序檢透，
// 先透者為主格，再透者記兼格
func (r *Result) stepHiddenReveal(c *chart.Chart, mg *MonthGe) (tengod.TenGod, bool) {
	var first, second *HiddenDetail
	var firstAt []chart.Position
	for i := range mg.Hidden {
		h := &mg.Hidden[i]
		poss := revealPositions(c, h.Stem)
		if len(poss) == 0 {
			continue
		}
		if first == nil {
			first, firstAt = h, poss
		} else if second == nil {
			second = h
		}
	}

	if first == nil {
		r.addStep(2, string(MethodHiddenReveal),
			fmt.Sprintf("月支%s藏干均未透出", mg.MonthBranch), "進入下一步")
		return "", false
	}

	r.Method = MethodHiddenReveal
	r.Confidence = ConfidenceA
	r.RevealedStem = first.Stem

	det := fmt.Sprintf("月支%s藏%s（%s）透於%s", mg.MonthBranch, first.Stem, first.Role, shorts(firstAt))
	verdict := fmt.Sprintf("以%s立格", first.God)
	if second != nil {
		r.Secondary = geByGod[second.God]
		det += fmt.Sprintf("，%s（%s）亦透", second.Stem, second.Role)
		verdict += fmt.Sprintf("，兼%s", r.Secondary)
	}
	r.addStep(2, string(MethodHiddenReveal), det, verdict)
	return first.God, true
}

// stepPrincipalQi 第三步：無透干時以月令本氣十神直接取格
func (r *Result) stepPrincipalQi(mg *MonthGe) tengod.TenGod {
	r.Method = MethodPrincipalQi
	r.Confidence = ConfidenceB
	r.addStep(3, string(MethodPrincipalQi),
		fmt.Sprintf("月支%s本氣%s，十神%s", mg.MonthBranch, mg.PrincipalStem, mg.PrincipalGod),
		fmt.Sprintf("以%s立格", mg.PrincipalGod))
	return mg.PrincipalGod
}

// settle 落定主格。比劫十神轉建祿羊刃外格並留第四步痕跡，僅改名不改置信度。
func (r *Result) settle(god tengod.TenGod) {
	r.Main = geByGod[god]
	if god == tengod.BiJian || god == tengod.JieCai {
		r.addStep(4, "比劫→外格轉換",
			fmt.Sprintf("取格十神為%s", god),
			fmt.Sprintf("轉%s", r.Main))
	}
}

// resolveDirection 判定順逆用。三合三會成局一律逆用。
func (r *Result) resolveDirection(rep *relation.Report) {
	switch {
	case rep.Has(relation.KindSanHe) || rep.Has(relation.KindSanHui):
		r.Direction = DirectionNi
		r.DirectionReason = "三合/三會成局，一律逆用"
	case shunYong[r.Main]:
		r.Direction = DirectionShun
		r.DirectionReason = fmt.Sprintf("%s為順用格", r.Main)
	case niYong[r.Main]:
		r.Direction = DirectionNi
		r.DirectionReason = fmt.Sprintf("%s為逆用格", r.Main)
	default:
		r.Direction = DirectionPending
		r.DirectionReason = "特殊格局，需進一步分析"
	}
}

func (r *Result) addStep(seq int, name, detection, verdict string) {
	r.Steps = append(r.Steps, Step{Seq: seq, Name: name, Detection: detection, Verdict: verdict})
}

func shorts(poss []chart.Position) string {
	parts := make([]string, len(poss))
	for i, p := range poss {
		parts[i] = p.Short()
	}
	return strings.Join(parts, ",")
}
