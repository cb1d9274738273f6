package model

import (
	"fmt"

	"cloud.google.com/go/civil"
)

type BucketStatus string

const (
	BucketUnvisited BucketStatus = "unvisited"
	BucketAccepted  BucketStatus = "accepted"
	BucketSplit     BucketStatus = "split"
)

// DateRange is an inclusive range of creation dates, at day granularity.
type DateRange struct {
	Start civil.Date
	End   civil.Date
}

// Query renders the range as a GitHub search qualifier.
func (x DateRange) Query() string {
	return fmt.Sprintf("created:%s..%s", x.Start, x.End)
}

// SingleDay reports whether the range cannot be split further.
func (x DateRange) SingleDay() bool {
	return !x.Start.Before(x.End)
}

// Days returns the number of days covered by the range, inclusive.
func (x DateRange) Days() int {
	return x.End.DaysSince(x.Start) + 1
}

// Split bisects the range at its midpoint. The halves are disjoint and their
// union equals the original range. Must not be called on a single-day range.
func (x DateRange) Split() (DateRange, DateRange) {
	mid := x.Start.AddDays(x.End.DaysSince(x.Start) / 2)
	return DateRange{Start: x.Start, End: mid},
		DateRange{Start: mid.AddDays(1), End: x.End}
}

// Bucket is one date-range shard of the discovery space, sized by the planner
// to stay under the search API's 1000 result pagination cap.
type Bucket struct {
	Range       DateRange
	ApproxCount int
	Status      BucketStatus
}

func NewBucket(rng DateRange) *Bucket {
	return &Bucket{
		Range:  rng,
		Status: BucketUnvisited,
	}
}

func (x *Bucket) Query() string {
	return x.Range.Query()
}
