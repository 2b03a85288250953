package yongshen

import (
	"fmt"

	"bazi-engine-api/internal/domain/ganzhi"
)

// 兩行加權計數均達此值視為對峙
const duiZhiThreshold = 3.0

// DuiZhiRow 一對相剋五行的對峙檢測。通關五行為剋方所生，
// 使剋制轉為流通（如金木對峙取水：金生水，水生木）。
type DuiZhiRow struct {
	Controller       ganzhi.Element `json:"剋方"`
	ControllerWeight float64        `json:"剋方權重"`
	Controlled       ganzhi.Element `json:"被剋方"`
	ControlledWeight float64        `json:"被剋方權重"`
	Mediator         ganzhi.Element `json:"通關五行"`
	MediatorWeight   float64        `json:"通關五行權重"`
	Active           bool           `json:"對峙"`
}

// TongGuanData 通關鏡頭的完整取證，五對剋制關係逐一列出
type TongGuanData struct {
	Counts   map[ganzhi.Element]float64        `json:"wuxing_counts"`
	DuiZhi   []DuiZhiRow                       `json:"duizhi_data"`
	ShengMap map[ganzhi.Element]ganzhi.Element `json:"wuxing_sheng_map"`
	KeMap    map[ganzhi.Element]ganzhi.Element `json:"wuxing_ke_map"`
}

func buildTongGuanData(in Input) *TongGuanData {
	d := &TongGuanData{
		Counts:   in.Distribution.Counts,
		DuiZhi:   make([]DuiZhiRow, 0, 5),
		ShengMap: map[ganzhi.Element]ganzhi.Element{},
		KeMap:    map[ganzhi.Element]ganzhi.Element{},
	}

	for _, e := range ganzhi.AllElements() {
		d.ShengMap[e] = e.Generates()
		d.KeMap[e] = e.Controls()

		target := e.Controls()
		mediator := e.Generates()
		d.DuiZhi = append(d.DuiZhi, DuiZhiRow{
			Controller:       e,
			ControllerWeight: in.Distribution.Counts[e],
			Controlled:       target,
			ControlledWeight: in.Distribution.Counts[target],
			Mediator:         mediator,
			MediatorWeight:   in.Distribution.Counts[mediator],
			Active:           in.Distribution.Counts[e] >= duiZhiThreshold && in.Distribution.Counts[target] >= duiZhiThreshold,
		})
	}
	return d
}

// tongGuanLens 兩行皆強且相剋時取通關五行，首個對峙命中即取
func tongGuanLens(d *TongGuanData) *Lens {
	l := newLens(LabelTongGuan)
	for _, row := range d.DuiZhi {
		if !row.Active {
			continue
		}
		l.Favorable = append(l.Favorable, row.Mediator)
		l.Reason = fmt.Sprintf("%s與%s對峙，取%s通關", row.Controller, row.Controlled, row.Mediator)
		return l
	}
	return l
}
