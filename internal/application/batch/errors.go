package batch

import "errors"

var (
	// ErrQueueDisabled 表示批量任务能力未配置（消息队列或任务库不可用）。
	ErrQueueDisabled = errors.New("batch job queue is disabled")
)
