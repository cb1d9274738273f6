package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
)

// RateQuota is the API's self-reported request budget. The remote values are
// authoritative; nothing is estimated from wall clock.
type RateQuota struct {
	Cost      int
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// SearchPage is one page of search results with its continuation cursor.
type SearchPage struct {
	Repositories []*Repository
	TotalCount   int
	EndCursor    string
	HasNextPage  bool
	Quota        *RateQuota
}

// CrawlStarsInput holds the run parameters of one crawl.
type CrawlStarsInput struct {
	Target    int
	Range     DateRange
	Threshold int
	Simple    bool
}

func (x *CrawlStarsInput) Validate() error {
	if x.Target <= 0 {
		return goerr.Wrap(types.ErrValidationFailed, "target must be positive",
			goerr.V("target", x.Target))
	}
	if x.Range.End.Before(x.Range.Start) {
		return goerr.Wrap(types.ErrValidationFailed, "range start is after range end",
			goerr.V("start", x.Range.Start), goerr.V("end", x.Range.End))
	}
	if x.Threshold <= 0 {
		return goerr.Wrap(types.ErrValidationFailed, "bucket threshold must be positive",
			goerr.V("threshold", x.Threshold))
	}
	return nil
}

// SimpleQuery is the unbucketed query used in simple mode. It accepts the
// API's native 1000 result ceiling.
func (x *CrawlStarsInput) SimpleQuery() string {
	return fmt.Sprintf("created:>=%s sort:stars", x.Range.Start)
}

// CrawlReport summarizes one crawl run, including partial coverage when
// buckets failed or the planner left range unplanned.
type CrawlReport struct {
	CrawlID          types.CrawlID
	Target           int
	Collected        int
	Upserted         int
	RecordsAppended  int
	Buckets          int
	BucketsCompleted int
	BucketsFailed    int
	Workers          int
}

func (x *CrawlReport) Shortfall() int {
	if x.Collected >= x.Target {
		return 0
	}
	return x.Target - x.Collected
}
