package positions

import "errors"

// Sentinel kinds for position store errors.
var (
	ErrRiderNotFound = errors.New("rider not found")
)

// Validation rejection reasons, used as the statistics/metrics label.
const (
	ReasonEmptyRiderID  = "empty_rider_id"
	ReasonRankBounds    = "rank_out_of_bounds"
	ReasonLocationRange = "location_out_of_range"
	ReasonSpeedCeiling  = "speed_implausible"
	ReasonTooOld        = "too_old"
	ReasonConfidence    = "confidence_out_of_range"
)
