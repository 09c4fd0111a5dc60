package pagegen

import "github.com/wikiforge/wikiforge/pkg/jobs"

// NextStatus computes the page status a failed generation attempt should
// transition to: retry_count increments, and once it reaches
// jobs.MaxPageRetries the page is promoted to permanent_failed instead of
// being left for the dispatcher to retry again (spec §4.H).
func NextStatus(retryCountAfterIncrement int) jobs.PageStatus {
	if retryCountAfterIncrement >= jobs.MaxPageRetries {
		return jobs.PageStatusPermanentFailed
	}
	return jobs.PageStatusFailed
}
