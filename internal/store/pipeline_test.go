package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/denteliv/iv-api/internal/apperrors"
)

func TestValidatePipeline_AcceptsReadOnlyStages(t *testing.T) {
	pipeline := []bson.M{
		{"$match": bson.M{"officeName": "Sunrise"}},
		{"$group": bson.M{"_id": "$completionStatus", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}
	assert.NoError(t, ValidatePipeline(pipeline))
}

func TestValidatePipeline_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		pipeline []bson.M
	}{
		{"empty", nil},
		{"out stage", []bson.M{{"$out": "dump"}}},
		{"merge stage", []bson.M{{"$match": bson.M{}}, {"$merge": bson.M{"into": "x"}}}},
		{"merge stage mixed case", []bson.M{{"$Merge": bson.M{"into": "x"}}}},
		{"two operators in one stage", []bson.M{{"$match": bson.M{}, "$sort": bson.M{}}}},
		{"not an operator", []bson.M{{"match": bson.M{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePipeline(tt.pipeline)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}
