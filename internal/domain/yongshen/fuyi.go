package yongshen

import (
	"fmt"

	"bazi-engine-api/internal/domain/pattern"
	"bazi-engine-api/internal/domain/strength"
)

// fuYiLens 扶抑鏡頭：過旺宜洩剋耗，過弱宜生助，中和不取
func fuYiLens(in Input) *Lens {
	l := newLens(LabelFuYi)
	day := in.Chart.DayMaster().Element()

	switch in.Strength.Verdict {
	case strength.VerdictStrong:
		l.Favorable = append(l.Favorable, day.Generates(), day.Controls(), day.ControlledBy())
		l.Unfavorable = append(l.Unfavorable, day.GeneratedBy(), day)
		l.Reason = "日主偏強，宜洩宜剋宜耗"
	case strength.VerdictWeak:
		l.Favorable = append(l.Favorable, day.GeneratedBy(), day)
		l.Unfavorable = append(l.Unfavorable, day.Generates(), day.Controls(), day.ControlledBy())
		l.Reason = "日主偏弱，宜生宜助"
	default:
		l.Reason = "日主中和，無需扶抑"
	}
	return l
}

// bingYaoLens 病藥鏡頭：忌方中一行獨旺為病，剋病者為藥。
// 專旺成勢時扶抑忌方失效，此鏡頭隨之不取。
func bingYaoLens(in Input, fuYi *Lens) *Lens {
	l := newLens(LabelBingYao)

	dominant := in.Distribution.Dominant
	for _, e := range fuYi.Unfavorable {
		if e != dominant {
			continue
		}
		remedy := dominant.ControlledBy()
		l.Favorable = append(l.Favorable, remedy)
		l.Unfavorable = append(l.Unfavorable, dominant)
		l.Reason = fmt.Sprintf("%s旺為病，取%s為藥", dominant, remedy)
		break
	}
	return l
}

// zhuanWangLens 專旺鏡頭：一行得氣或棄命從格時順勢取用，壓過扶抑方向
func zhuanWangLens(in Input) *Lens {
	l := newLens(LabelZhuanWang)
	day := in.Chart.DayMaster().Element()

	if z := in.Pattern.Zhuanwang; z != nil && z.Candidate {
		l.Favorable = append(l.Favorable, day, day.Generates())
		l.Unfavorable = append(l.Unfavorable, day.ControlledBy())
		l.Reason = fmt.Sprintf("%s成勢，順勢引泄", z.Name)
		return l
	}

	cong := in.Pattern.Cong
	if cong == nil || cong.Candidate == "" {
		return l
	}
	switch cong.Candidate {
	case pattern.GeCongCai:
		l.Favorable = append(l.Favorable, day.Controls(), day.Generates())
		l.Unfavorable = append(l.Unfavorable, day.GeneratedBy(), day)
	case pattern.GeCongSha:
		l.Favorable = append(l.Favorable, day.ControlledBy(), day.Controls())
		l.Unfavorable = append(l.Unfavorable, day.GeneratedBy(), day)
	case pattern.GeCongEr:
		l.Favorable = append(l.Favorable, day.Generates(), day.Controls())
		l.Unfavorable = append(l.Unfavorable, day.GeneratedBy())
	}
	l.Reason = fmt.Sprintf("%s候選，棄命相從，順其旺勢", cong.Candidate)
	return l
}
