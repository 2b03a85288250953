// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/pkg/metrics"
)

var _ analysis.FeatureIndex = (*FeatureIndex)(nil)

// FeatureIndex 命盘特征向量索引实现
type FeatureIndex struct {
	client     *Client
	collection string
}

// NewFeatureIndex 创建命盘特征索引
func NewFeatureIndex(client *Client) *FeatureIndex {
	collection := client.config.Collection
	if collection == "" {
		collection = CollectionChartFeatures
	}
	return &FeatureIndex{client: client, collection: collection}
}

// EnsureCollection 确保集合与索引可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (f *FeatureIndex) EnsureCollection(ctx context.Context) error {
	if f == nil || f.client == nil || f.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	exists, err := f.client.HasCollection(ctx, f.collection)
	if err != nil {
		return err
	}
	if !exists {
		if err := f.createCollection(ctx); err != nil {
			return err
		}
		if err := f.createIndex(ctx); err != nil {
			return err
		}
	}

	return f.client.LoadCollection(ctx, f.collection)
}

// createCollection 创建集合
func (f *FeatureIndex) createCollection(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.FeatureIndex.createCollection",
		trace.WithAttributes(attribute.String("collection", f.collection)))
	defer span.End()

	err := f.client.milvus.CreateCollection(ctx, ChartFeaturesSchema(f.collection), entity.DefaultShardNumber)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// createIndex 创建向量索引
func (f *FeatureIndex) createIndex(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.FeatureIndex.createIndex",
		trace.WithAttributes(attribute.String("collection", f.collection)))
	defer span.End()

	var (
		idx entity.Index
		err error
	)
	switch f.client.config.IndexType {
	case "IVF_FLAT":
		idx, err = entity.NewIndexIvfFlat(f.metricType(), 128)
	default:
		idx, err = entity.NewIndexHNSW(
			f.metricType(),
			f.client.config.HNSWM,
			f.client.config.HNSWEfConstruction,
		)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := f.client.milvus.CreateIndex(ctx, f.collection, "vector", idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// metricType 距离度量，默认 L2
func (f *FeatureIndex) metricType() entity.MetricType {
	switch f.client.config.MetricType {
	case "IP":
		return entity.IP
	case "COSINE":
		return entity.COSINE
	default:
		return entity.L2
	}
}

// searchParam 与索引类型匹配的检索参数
func (f *FeatureIndex) searchParam() (entity.SearchParam, error) {
	if f.client.config.IndexType == "IVF_FLAT" {
		return entity.NewIndexIvfFlatSearchParam(16)
	}
	return entity.NewIndexHNSWSearchParam(128)
}

// Index 写入或覆盖命盘特征向量
func (f *FeatureIndex) Index(ctx context.Context, chartID string, vector []float32) error {
	if f == nil || f.client == nil || f.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.FeatureIndex.Index",
		trace.WithAttributes(
			attribute.String("collection", f.collection),
			attribute.String("chart_id", chartID),
		))
	defer span.End()

	if len(vector) != VectorDimension {
		return fmt.Errorf("unexpected vector dimension: got %d want %d", len(vector), VectorDimension)
	}

	// 先删后插实现覆盖写
	filter := fmt.Sprintf(`chart_id == "%s"`, chartID)
	if err := f.client.milvus.Delete(ctx, f.collection, "", filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete stale vector: %w", err)
	}

	idCol := entity.NewColumnVarChar("chart_id", []string{chartID})
	vecCol := entity.NewColumnFloatVector("vector", VectorDimension, [][]float32{vector})

	if _, err := f.client.milvus.Insert(ctx, f.collection, "", idCol, vecCol); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert vector: %w", err)
	}
	return nil
}

// Search 检索最近的 topK 个命盘
func (f *FeatureIndex) Search(ctx context.Context, vector []float32, topK int) ([]analysis.FeatureMatch, error) {
	if f == nil || f.client == nil || f.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.FeatureIndex.Search",
		trace.WithAttributes(
			attribute.String("collection", f.collection),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	sp, err := f.searchParam()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	start := time.Now()
	results, err := f.client.milvus.Search(ctx,
		f.collection,
		nil,
		"",
		[]string{"chart_id"},
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		f.metricType(),
		topK,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(f.collection).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.MilvusSearchTotal.WithLabelValues(f.collection, "error").Inc()
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(f.collection, "success").Inc()

	// 解析结果
	var matches []analysis.FeatureMatch
	for _, result := range results {
		idCol, ok := result.Fields.GetColumn("chart_id").(*entity.ColumnVarChar)
		if !ok {
			continue
		}
		for i := 0; i < result.ResultCount; i++ {
			matches = append(matches, analysis.FeatureMatch{
				ChartID: idCol.Data()[i],
				Score:   result.Scores[i],
			})
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(matches)))
	return matches, nil
}

// Remove 删除命盘特征向量
func (f *FeatureIndex) Remove(ctx context.Context, chartID string) error {
	if f == nil || f.client == nil || f.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.FeatureIndex.Remove",
		trace.WithAttributes(
			attribute.String("collection", f.collection),
			attribute.String("chart_id", chartID),
		))
	defer span.End()

	filter := fmt.Sprintf(`chart_id == "%s"`, chartID)
	if err := f.client.milvus.Delete(ctx, f.collection, "", filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete vector: %w", err)
	}
	return nil
}
