// Package batch 实现批量排盘应用层：任务提交、单项消费与状态收敛。
// 任务按命盘拆分为独立消息投递，多个消费者可并行处理同一任务。
package batch

import "context"

// ItemMessage 批量任务单项消息
type ItemMessage struct {
	JobID string `json:"job_id"`
	Index int    `json:"index"`
}

// JobQueue 批量任务消息投递端口
type JobQueue interface {
	// PublishItem 投递单个命盘分析消息
	PublishItem(ctx context.Context, msg ItemMessage) error
}
