package models

import (
	"context"
	"time"
)

// SourceWithings identifies records fetched from the Withings API.
const SourceWithings = "withings"

// Measurement is a single body-composition reading. All numeric fields
// are optional: the vendor may omit any metric on a given occasion, and
// a nil pointer means "not reported", never zero.
type Measurement struct {
	// Timestamp has second precision and is the natural dedup key:
	// the persisted store holds at most one row per timestamp.
	Timestamp time.Time

	WeightKg     *float64
	FatMassKg    *float64
	BoneMassKg   *float64
	MuscleMassKg *float64
	HydrationKg  *float64

	Source  string
	Comment string
}

// Float returns a pointer to v, for building optional fields.
func Float(v float64) *float64 {
	return &v
}

// DeriveMuscleMass computes muscle mass from the vendor's fat-free mass
// reading. Fat-free mass combines muscle, bone and water; when a positive
// bone mass is available it is subtracted out, otherwise fat-free mass is
// used as-is. Without a fat-free mass reading there is no muscle mass.
func DeriveMuscleMass(fatFreeKg, boneKg *float64) *float64 {
	if fatFreeKg == nil {
		return nil
	}
	if boneKg != nil && *boneKg > 0 {
		return Float(*fatFreeKg - *boneKg)
	}
	return Float(*fatFreeKg)
}

// MeasurementSource retrieves measurements for a date range. Implemented
// by the Withings client; the importer depends only on this interface.
type MeasurementSource interface {
	GetMeasurements(ctx context.Context, start, end time.Time) ([]Measurement, error)
}
