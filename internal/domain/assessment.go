package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Wave-size score bounds. The ladder a reviewer scores against:
//
//	FLAT            = 0
//	KNEES           = 1
//	HIP             = 2
//	CHEST           = 3
//	HEAD            = 4
//	OVERHEAD        = 5
//	HEAD_AND_HALF   = 6
//	DOUBLE_SHOULDER = 7
//	DOUBLE_OVERHEAD = 8
var (
	WaveSizeScoreMin = decimal.NewFromInt(0)
	WaveSizeScoreMax = decimal.NewFromInt(8)
)

// Assessment is a human-assigned quality label attached to exactly one
// snapshot. At most one assessment exists per snapshot, entered after
// capture by a reviewer; never auto-generated.
type Assessment struct {
	ID            int64
	SnapshotID    int64
	Created       time.Time
	WaveSizeScore decimal.Decimal
}

// ValidateScore checks the score against the documented 0-8 range.
func ValidateScore(score decimal.Decimal) error {
	if score.LessThan(WaveSizeScoreMin) || score.GreaterThan(WaveSizeScoreMax) {
		return fmt.Errorf("wave size score %s outside range [%s, %s]",
			score, WaveSizeScoreMin, WaveSizeScoreMax)
	}
	return nil
}
