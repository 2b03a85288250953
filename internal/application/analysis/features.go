package analysis

import (
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/tengod"
)

// FeatureDim 特征向量维度：五行加权分布 5 维拼接十神加权计数 10 维
const FeatureDim = 15

// FeatureVector 从画像提取相似检索特征向量。两段各自按总量归一化，
// 时辰不详的命盘与全盘可比。画像缺少统计段时返回 nil。
func FeatureVector(p *Profile) []float32 {
	if p == nil || p.Elements == nil || p.TenGods == nil {
		return nil
	}

	vec := make([]float32, 0, FeatureDim)

	var elemTotal float64
	for _, e := range ganzhi.AllElements() {
		elemTotal += p.Elements.Counts[e]
	}
	for _, e := range ganzhi.AllElements() {
		vec = append(vec, normalized(p.Elements.Counts[e], elemTotal))
	}

	var godTotal float64
	for _, g := range tengod.AllTenGods() {
		godTotal += p.TenGods.WeightedCounts[g]
	}
	for _, g := range tengod.AllTenGods() {
		vec = append(vec, normalized(p.TenGods.WeightedCounts[g], godTotal))
	}
	return vec
}

func normalized(v, total float64) float32 {
	if total == 0 {
		return 0
	}
	return float32(v / total)
}
