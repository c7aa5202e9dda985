package store

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/denteliv/iv-api/internal/apperrors"
)

// Stages that write outside the cursor. The ad-hoc aggregate surface is
// read-only, so these are rejected up front.
var destructiveStages = map[string]bool{
	"$out":   true,
	"$merge": true,
}

// ValidatePipeline checks that every stage is a single-key document whose key
// is a $-prefixed stage name and that no destructive stage appears.
func ValidatePipeline(pipeline []bson.M) error {
	if len(pipeline) == 0 {
		return apperrors.NewValidation("pipeline must contain at least one stage")
	}
	for i, stage := range pipeline {
		if len(stage) != 1 {
			return apperrors.NewValidation("pipeline stage %d must have exactly one operator, got %d", i, len(stage))
		}
		for name := range stage {
			if !strings.HasPrefix(name, "$") {
				return apperrors.NewValidation("pipeline stage %d: %q is not a stage operator", i, name)
			}
			if destructiveStages[strings.ToLower(name)] {
				return apperrors.NewValidation("pipeline stage %d: %s is not allowed on a read-only pipeline", i, name)
			}
		}
	}
	return nil
}
