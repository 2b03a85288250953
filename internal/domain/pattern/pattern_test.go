package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/tengod"
)

func mustChart(t *testing.T, year, month, day, hour string) *chart.Chart {
	t.Helper()
	c, err := chart.New(year, month, day, hour, chart.Male)
	require.NoError(t, err)
	return c
}

func determine(t *testing.T, year, month, day, hour string) *Result {
	t.Helper()
	c := mustChart(t, year, month, day, hour)
	return Determine(c, tengod.Summarize(c), relation.Detect(c))
}

func TestResolveMonthGe(t *testing.T) {
	tests := []struct {
		name    string
		pillars [4]string
		branch  ganzhi.Branch
		benqi   ganzhi.Stem
		god     tengod.TenGod
		ge      Ge
	}{
		{"食神格", [4]string{"己丑", "己巳", "甲子", "辛未"}, ganzhi.BranchSi, ganzhi.StemBing, tengod.ShiShen, GeShiShen},
		{"正官格", [4]string{"甲子", "癸酉", "甲寅", "乙丑"}, ganzhi.BranchYou, ganzhi.StemXin, tengod.ZhengGuan, GeZhengGuan},
		{"七殺格", [4]string{"甲子", "壬申", "甲寅", "乙丑"}, ganzhi.BranchShen, ganzhi.StemGeng, tengod.QiSha, GeQiSha},
		{"正印格", [4]string{"甲子", "丙子", "甲寅", "乙丑"}, ganzhi.BranchZi, ganzhi.StemGui, tengod.ZhengYin, GeZhengYin},
		{"建祿格", [4]string{"甲子", "丙寅", "甲寅", "乙丑"}, ganzhi.BranchYin, ganzhi.StemJia, tengod.BiJian, GeJianLu},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustChart(t, tt.pillars[0], tt.pillars[1], tt.pillars[2], tt.pillars[3])
			mg := ResolveMonthGe(c)

			assert.Equal(t, tt.branch, mg.MonthBranch)
			assert.Equal(t, tt.benqi, mg.PrincipalStem)
			assert.Equal(t, tt.god, mg.PrincipalGod)
			assert.Equal(t, tt.ge, mg.Ge)
		})
	}
}

func TestMonthGeReveal(t *testing.T) {
	// 月支巳藏丙，丙透於年干
	mg := ResolveMonthGe(mustChart(t, "丙子", "己巳", "甲寅", "乙丑"))

	assert.True(t, mg.Revealed)
	assert.Equal(t, []string{"年"}, mg.RevealedAt)
}

func TestMonthGeHiddenDetails(t *testing.T) {
	mg := ResolveMonthGe(mustChart(t, "己丑", "己巳", "甲子", "辛未"))

	require.Len(t, mg.Hidden, 3)
	assert.Equal(t, ganzhi.RoleBenQi, mg.Hidden[0].Role)
	assert.Equal(t, tengod.ShiShen, mg.Hidden[0].God)
	assert.Equal(t, ganzhi.Fire, mg.Hidden[0].Element)
	assert.Equal(t, tengod.PianCai, mg.Hidden[1].God)
	assert.Equal(t, tengod.QiSha, mg.Hidden[2].God)
	assert.InDelta(t, 0.3, mg.Hidden[2].Weight, 1e-9)
	assert.Equal(t, ganzhi.StemWu, mg.MiddleStem)
	assert.Equal(t, ganzhi.StemGeng, mg.ResidualStem)
}

func TestDetermineStepOne(t *testing.T) {
	// 寅午戌三合火局，丙火透於年干，甲日主得食神格
	r := determine(t, "丙寅", "甲午", "甲戌", "乙丑")

	assert.Equal(t, GeShiShen, r.Main)
	assert.Equal(t, MethodCombination, r.Method)
	assert.Equal(t, ConfidenceS, r.Confidence)
	assert.Equal(t, ganzhi.StemBing, r.RevealedStem)
	assert.Equal(t, DirectionNi, r.Direction)
	assert.Equal(t, "三合/三會成局，一律逆用", r.DirectionReason)
}

func TestDetermineStepOneSanHui(t *testing.T) {
	// 寅卯辰三會木方，甲木透出，丙日主得偏印格
	r := determine(t, "甲寅", "丁卯", "丙辰", "甲申")

	assert.Equal(t, GePianYin, r.Main)
	assert.Equal(t, MethodCombination, r.Method)
	assert.Equal(t, ConfidenceS, r.Confidence)
}

func TestDetermineStepTwoBenQi(t *testing.T) {
	// 甲日生酉月，本氣辛透於年干
	r := determine(t, "辛丑", "丁酉", "甲寅", "乙丑")

	assert.Equal(t, GeZhengGuan, r.Main)
	assert.Equal(t, MethodHiddenReveal, r.Method)
	assert.Equal(t, ConfidenceA, r.Confidence)
	assert.Equal(t, ganzhi.StemXin, r.RevealedStem)
}

func TestDetermineStepTwoZhongQi(t *testing.T) {
	// 甲日生丑月，本氣己不透，中氣癸透於年干
	r := determine(t, "癸卯", "乙丑", "甲寅", "乙丑")

	assert.Equal(t, GeZhengYin, r.Main)
	assert.Equal(t, MethodHiddenReveal, r.Method)
	assert.Equal(t, ConfidenceA, r.Confidence)
	assert.Empty(t, r.Secondary)
}

func TestDetermineJianGe(t *testing.T) {
	// 甲日生申月，本氣庚與中氣壬同透，七殺為主偏印為兼
	r := determine(t, "庚子", "壬申", "甲寅", "乙丑")

	assert.Equal(t, GeQiSha, r.Main)
	assert.Equal(t, GePianYin, r.Secondary)
	assert.Equal(t, ConfidenceA, r.Confidence)
}

func TestDetermineStepThree(t *testing.T) {
	// 丙日生酉月，辛金不透，月令本氣直接取正財格
	r := determine(t, "甲子", "丁酉", "丙寅", "戊子")

	assert.Equal(t, GeZhengCai, r.Main)
	assert.Equal(t, MethodPrincipalQi, r.Method)
	assert.Equal(t, ConfidenceB, r.Confidence)
	assert.Empty(t, r.RevealedStem)
}

func TestDetermineBiJieConversion(t *testing.T) {
	t.Run("建祿格", func(t *testing.T) {
		r := determine(t, "甲子", "甲寅", "甲子", "甲子")

		assert.Equal(t, GeJianLu, r.Main)
		found := false
		for _, s := range r.Steps {
			if s.Name == "比劫→外格轉換" {
				found = true
				assert.Equal(t, 4, s.Seq)
			}
		}
		assert.True(t, found)
	})

	t.Run("羊刃格", func(t *testing.T) {
		r := determine(t, "甲子", "乙卯", "甲子", "甲子")

		assert.Equal(t, GeYangRen, r.Main)
		assert.Equal(t, DirectionNi, r.Direction)
	})
}

func TestDetermineStepTrace(t *testing.T) {
	r := determine(t, "己丑", "己巳", "甲子", "辛未")

	// 前兩步落空、第三步取格，三步全部留痕
	require.Len(t, r.Steps, 3)
	for i, s := range r.Steps {
		assert.Equal(t, i+1, s.Seq)
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.Detection)
		assert.NotEmpty(t, s.Verdict)
	}
	assert.Equal(t, GeShiShen, r.Main)
	assert.Equal(t, ConfidenceB, r.Confidence)
	assert.Equal(t, DirectionShun, r.Direction)
}

func TestDetermineDirection(t *testing.T) {
	tests := []struct {
		name      string
		pillars   [4]string
		direction Direction
	}{
		{"食神順用", [4]string{"己丑", "己巳", "甲子", "辛未"}, DirectionShun},
		{"七殺逆用", [4]string{"甲子", "壬申", "甲寅", "乙丑"}, DirectionNi},
		{"建祿待定", [4]string{"甲子", "甲寅", "甲子", "甲子"}, DirectionPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := determine(t, tt.pillars[0], tt.pillars[1], tt.pillars[2], tt.pillars[3])
			assert.Equal(t, tt.direction, r.Direction)
		})
	}
}

func TestCollectEvidence(t *testing.T) {
	t.Run("天透地藏", func(t *testing.T) {
		r := determine(t, "丙子", "己巳", "甲寅", "乙丑")

		require.Len(t, r.Evidence, 1)
		ev := r.Evidence[0]
		assert.Equal(t, EvidenceTianTouDiCang, ev.Method)
		assert.Equal(t, ConfidenceA, ev.Confidence)
		assert.Equal(t, []string{"月支巳藏丙", "丙透於年"}, ev.Details)
	})

	t.Run("三合成局", func(t *testing.T) {
		r := determine(t, "甲寅", "丙午", "甲戌", "乙丑")

		var sanhe []Evidence
		for _, ev := range r.Evidence {
			if ev.Method == EvidenceSanHe {
				sanhe = append(sanhe, ev)
			}
		}
		require.Len(t, sanhe, 1)
		assert.Equal(t, ConfidenceS, sanhe[0].Confidence)
		assert.Equal(t, GeYanShang, sanhe[0].Ge)
		assert.Contains(t, sanhe[0].Details[0], "火")
	})

	t.Run("三會成方", func(t *testing.T) {
		r := determine(t, "甲寅", "乙卯", "甲辰", "乙丑")

		var sanhui []Evidence
		for _, ev := range r.Evidence {
			if ev.Method == EvidenceSanHui {
				sanhui = append(sanhui, ev)
			}
		}
		require.Len(t, sanhui, 1)
		assert.Equal(t, ConfidenceS, sanhui[0].Confidence)
		assert.Equal(t, GeQuZhi, sanhui[0].Ge)
		assert.Contains(t, sanhui[0].Details[0], "木")
	})

	t.Run("四見入格", func(t *testing.T) {
		r := determine(t, "甲子", "甲寅", "甲子", "甲子")

		var sijian []Evidence
		for _, ev := range r.Evidence {
			if ev.Method == EvidenceSiJian {
				sijian = append(sijian, ev)
			}
		}
		require.Len(t, sijian, 1)
		assert.Equal(t, GeJianLu, sijian[0].Ge)
		assert.Equal(t, []string{"甲見四次，比肩旺"}, sijian[0].Details)
	})
}

func TestBrokenChong(t *testing.T) {
	// 巳亥沖在年月，月支被沖即破格
	r := determine(t, "乙亥", "辛巳", "甲子", "乙丑")

	b := r.Broken
	require.True(t, b.IsBroken)
	assert.Equal(t, "沖破", b.Type)
	assert.Equal(t, "亥", b.Agent)
	assert.Equal(t, "年", b.Position)
	assert.Equal(t, []string{"月支巳被亥沖"}, b.Notes)
}

func TestBrokenChongAggravated(t *testing.T) {
	// 日支亥沖月支巳，格局柱後破加重
	r := determine(t, "乙丑", "辛巳", "乙亥", "丁丑")

	b := r.Broken
	require.True(t, b.IsBroken)
	assert.Equal(t, "沖破", b.Type)
	assert.Equal(t, "日", b.Position)
	assert.Contains(t, b.Notes, "格局柱後破，加重")
}

func TestBrokenHeQu(t *testing.T) {
	// 子丑合化土，月支子水格神變質
	r := determine(t, "乙丑", "丙子", "甲寅", "乙丑")

	b := r.Broken
	require.True(t, b.IsBroken)
	assert.Equal(t, "合去", b.Type)
	assert.Equal(t, "丑", b.Agent)
	assert.Contains(t, b.Notes[0], "合化土")
}

func TestBrokenHeSameElement(t *testing.T) {
	// 午未合化火與月支午本氣同行，不作破格
	r := determine(t, "乙未", "壬午", "甲寅", "乙丑")

	assert.False(t, r.Broken.IsBroken)
}

func TestBrokenShangGuan(t *testing.T) {
	// 正官格見傷官透干
	r := determine(t, "丁丑", "癸酉", "甲寅", "乙丑")

	require.Equal(t, GeZhengGuan, r.Main)
	b := r.Broken
	require.True(t, b.IsBroken)
	assert.Equal(t, "傷格", b.Type)
	assert.Equal(t, "丁", b.Agent)
	assert.Equal(t, []string{"正官格見傷官（丁在年）"}, b.Notes)
}

func TestBrokenGuanShaHunZa(t *testing.T) {
	// 正官格而官殺並見
	r := determine(t, "庚午", "癸酉", "甲寅", "乙丑")

	require.Equal(t, GeZhengGuan, r.Main)
	b := r.Broken
	require.True(t, b.IsBroken)
	assert.Equal(t, "官殺混雜", b.Type)
}

func TestZhuanwangData(t *testing.T) {
	// 甲木生寅月，寅卯辰會木而金不見
	r := determine(t, "甲寅", "丙寅", "甲辰", "乙卯")

	z := r.Zhuanwang
	assert.Equal(t, ganzhi.Wood, z.DayElement)
	assert.Equal(t, GeQuZhi, z.Name)
	assert.True(t, z.MonthMatch)
	assert.Equal(t, 3, z.SameBranchCount)
	assert.True(t, z.HasSanHui)
	assert.Equal(t, ganzhi.Metal, z.KeElement)
	assert.False(t, z.KeInStems)
	assert.False(t, z.KeInPrincipal)
	assert.True(t, z.Candidate)
}

func TestZhuanwangNotCandidate(t *testing.T) {
	// 己丑/己巳/甲子/辛未：月令非木且辛金透干
	r := determine(t, "己丑", "己巳", "甲子", "辛未")

	z := r.Zhuanwang
	assert.False(t, z.MonthMatch)
	assert.True(t, z.KeInStems)
	assert.False(t, z.Candidate)
}

func TestCongData(t *testing.T) {
	t.Run("有根不從", func(t *testing.T) {
		r := determine(t, "己丑", "己巳", "甲子", "辛未")

		g := r.Cong
		assert.False(t, g.HasPrincipalRoot)
		assert.Equal(t, []string{"時支未藏乙（餘氣）"}, g.AllRoots)
		assert.InDelta(t, 1.8, g.SupportWeight, 1e-9)
		assert.Empty(t, g.Candidate)
	})

	t.Run("從財候選", func(t *testing.T) {
		// 乙木無根，財星成勢
		r := determine(t, "戊戌", "己巳", "乙丑", "丙午")

		g := r.Cong
		assert.False(t, g.HasPrincipalRoot)
		assert.Empty(t, g.AllRoots)
		assert.Less(t, g.SupportWeight, 1.5)
		assert.GreaterOrEqual(t, g.CaiXingWeight, 3.0)
		assert.Equal(t, GeCongCai, g.Candidate)
	})
}

func TestDetermineWithoutHour(t *testing.T) {
	c, err := chart.NewWithoutHour("己丑", "己巳", "甲子", chart.Female)
	require.NoError(t, err)
	r := Determine(c, tengod.Summarize(c), relation.Detect(c))

	assert.True(t, r.HourOmitted)
	assert.Equal(t, GeShiShen, r.Main)
	assert.Equal(t, ConfidenceB, r.Confidence)
}
