// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/domain/chart"
)

// AnalyzeRequest 四柱排盘请求。时柱可缺省，表示出生时辰不详。
type AnalyzeRequest struct {
	Year    string `json:"year" binding:"required" example:"甲子"`
	Month   string `json:"month" binding:"required" example:"丙寅"`
	Day     string `json:"day" binding:"required" example:"戊辰"`
	Hour    string `json:"hour,omitempty" example:"壬戌"`
	Gender  string `json:"gender" binding:"required,oneof=男 女" example:"男"`
	Persist bool   `json:"persist,omitempty"`
}

// ToAnalyzeRequest 转换为应用层排盘请求
func (r *AnalyzeRequest) ToAnalyzeRequest() analysis.AnalyzeRequest {
	return analysis.AnalyzeRequest{
		AnalyzeInput: analysis.AnalyzeInput{
			Year:   r.Year,
			Month:  r.Month,
			Day:    r.Day,
			Hour:   r.Hour,
			Gender: chart.Gender(r.Gender),
		},
		Persist: r.Persist,
	}
}

// CivilAnalyzeRequest 公历生辰排盘请求。hour 缺省表示出生时辰不详。
type CivilAnalyzeRequest struct {
	Year    int    `json:"year" binding:"required" example:"1984"`
	Month   int    `json:"month" binding:"required,min=1,max=12" example:"2"`
	Day     int    `json:"day" binding:"required,min=1,max=31" example:"4"`
	Hour    *int   `json:"hour,omitempty" binding:"omitempty,min=0,max=23" example:"20"`
	Gender  string `json:"gender" binding:"required,oneof=男 女" example:"女"`
	Persist bool   `json:"persist,omitempty"`
}

// ToCivilDate 转换为应用层公历日期，时辰缺省映射为 -1
func (r *CivilAnalyzeRequest) ToCivilDate() analysis.CivilDate {
	hour := -1
	if r.Hour != nil {
		hour = *r.Hour
	}
	return analysis.CivilDate{
		Year:   r.Year,
		Month:  r.Month,
		Day:    r.Day,
		Hour:   hour,
		Gender: chart.Gender(r.Gender),
	}
}

// AnalyzeResponse 排盘响应
type AnalyzeResponse struct {
	Profile *analysis.Profile `json:"profile"`
	ChartID string            `json:"chart_id,omitempty"`
	Cached  bool              `json:"cached"`
}

// ToAnalyzeResponse 将排盘结果转换为响应 DTO
func ToAnalyzeResponse(res *analysis.AnalyzeResult) *AnalyzeResponse {
	if res == nil {
		return nil
	}
	return &AnalyzeResponse{
		Profile: res.Profile,
		ChartID: res.ChartID,
		Cached:  res.Cached,
	}
}
