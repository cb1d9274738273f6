package cli

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
)

// defaultSince covers the whole service history when no range is given.
const defaultSince = "2008-01-01"

// ResolveRange turns the --since / --recent-days options into the crawl's
// creation date range ending at the current day. The two options are
// mutually exclusive.
func ResolveRange(since string, recentDays int, now time.Time) (model.DateRange, error) {
	today := civil.DateOf(now.UTC())

	if since != "" && recentDays > 0 {
		return model.DateRange{}, goerr.Wrap(types.ErrInvalidOption,
			"--since and --recent-days are mutually exclusive")
	}

	if recentDays < 0 {
		return model.DateRange{}, goerr.Wrap(types.ErrInvalidOption,
			"--recent-days must be positive", goerr.V("recent_days", recentDays))
	}
	if recentDays > 0 {
		return model.DateRange{
			Start: today.AddDays(-(recentDays - 1)),
			End:   today,
		}, nil
	}

	if since == "" {
		since = defaultSince
	}
	start, err := civil.ParseDate(since)
	if err != nil {
		return model.DateRange{}, goerr.Wrap(types.ErrInvalidOption,
			"--since must be YYYY-MM-DD", goerr.V("since", since))
	}
	if today.Before(start) {
		return model.DateRange{}, goerr.Wrap(types.ErrInvalidOption,
			"--since is in the future", goerr.V("since", since))
	}

	return model.DateRange{Start: start, End: today}, nil
}
