// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"bazi-engine-api/internal/application/analysis"
)

const (
	// CollectionChartFeatures 命盘特征集合（默认名，可由配置覆盖）
	CollectionChartFeatures = "bazi_chart_features"

	// VectorDimension 向量维度，与特征向量构造保持一致
	VectorDimension = analysis.FeatureDim
)

// ChartFeaturesSchema 命盘特征 Collection Schema
func ChartFeaturesSchema(name string) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    "Bazi chart feature vectors for similarity search",
		Fields: []*entity.Field{
			{
				Name:       "chart_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(VectorDimension),
				},
			},
		},
	}
}
