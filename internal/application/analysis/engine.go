package analysis

import (
	"context"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/pattern"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/strength"
	"bazi-engine-api/internal/domain/tengod"
	"bazi-engine-api/internal/domain/xunkong"
	"bazi-engine-api/internal/domain/yongshen"
	"bazi-engine-api/pkg/errors"
	"bazi-engine-api/pkg/metrics"
	"bazi-engine-api/pkg/tracer"
)

// AnalyzeInput 排盘输入，时柱传空串表示时辰不详
type AnalyzeInput struct {
	Year   string       `json:"year"`
	Month  string       `json:"month"`
	Day    string       `json:"day"`
	Hour   string       `json:"hour,omitempty"`
	Gender chart.Gender `json:"gender"`
}

// Engine 纯计算排盘引擎。不依赖外部资源，相同输入产出相同画像。
type Engine struct{}

// NewEngine 创建排盘引擎
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze 执行完整排盘管线：四柱解析、十神汇总、五行统计、
// 干支关系、旬空、格局判定、日主强弱、六標籤用神。
func (e *Engine) Analyze(ctx context.Context, in AnalyzeInput) (*Profile, error) {
	ctx, span := tracer.Start(ctx, "analysis.engine")
	defer span.End()

	c, err := e.buildChart(in)
	if err != nil {
		return nil, err
	}

	_, stage := tracer.Start(ctx, "analysis.tengod")
	sum := tengod.Summarize(c)
	dist := tengod.CountElements(c)
	stage.End()

	_, stage = tracer.Start(ctx, "analysis.relation")
	rep := relation.Detect(c)
	stage.End()

	_, stage = tracer.Start(ctx, "analysis.xunkong")
	voids := xunkong.Resolve(c)
	stage.End()

	_, stage = tracer.Start(ctx, "analysis.pattern")
	pat := pattern.Determine(c, sum, rep)
	stage.End()

	_, stage = tracer.Start(ctx, "analysis.strength")
	str := strength.Assess(c, sum)
	stage.End()

	_, stage = tracer.Start(ctx, "analysis.yongshen")
	ys := yongshen.Resolve(yongshen.Input{
		Chart:        c,
		Distribution: dist,
		Pattern:      pat,
		Strength:     str,
		Relations:    rep,
		Voids:        voids,
	})
	stage.End()

	metrics.PatternTotal.WithLabelValues(string(pat.Main), string(pat.Confidence)).Inc()
	if pat.Broken != nil && pat.Broken.IsBroken {
		metrics.BrokenPatternTotal.WithLabelValues(pat.Broken.Type).Inc()
	}
	if !c.HasHour() {
		metrics.AmbiguousHourTotal.Inc()
	}

	return &Profile{
		SchemaVersion: SchemaVersion,
		Input: InputEcho{
			Year:   in.Year,
			Month:  in.Month,
			Day:    in.Day,
			Hour:   in.Hour,
			Gender: in.Gender,
		},
		Pillars:     newPillarViews(c),
		TenGods:     newTenGodView(sum),
		Elements:    dist,
		Relations:   newRelationsView(rep),
		Voids:       newVoidView(voids),
		Pattern:     newPatternSection(pat),
		Strength:    str,
		YongShen:    ys,
		LabelNotes:  yongshen.LabelsDescription(),
		HourOmitted: !c.HasHour(),
	}, nil
}

func (e *Engine) buildChart(in AnalyzeInput) (*chart.Chart, error) {
	var (
		c   *chart.Chart
		err error
	)
	if in.Hour == "" {
		c, err = chart.NewWithoutHour(in.Year, in.Month, in.Day, in.Gender)
	} else {
		c, err = chart.New(in.Year, in.Month, in.Day, in.Hour, in.Gender)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidPillar, "四柱解析失败")
	}
	return c, nil
}
