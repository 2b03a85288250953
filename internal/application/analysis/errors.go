package analysis

import "errors"

var (
	// ErrSimilarDisabled 表示相似命盘检索能力未配置（Milvus 或归档库不可用）。
	ErrSimilarDisabled = errors.New("similar chart search is disabled")

	// ErrArchiveDisabled 表示归档能力未配置（Postgres 不可用）。
	ErrArchiveDisabled = errors.New("chart archive is disabled")

	// ErrAlmanacDisabled 表示公历换算能力未配置。
	ErrAlmanacDisabled = errors.New("civil calendar conversion is disabled")
)
