package domain

import "time"

// DependencyTag categorises a data-fetch dependency. Each tag carries
// default timeouts and retry budgets.
type DependencyTag string

const (
	TagSearch          DependencyTag = "search"
	TagPricing         DependencyTag = "pricing"
	TagProfile         DependencyTag = "profile"
	TagCMS             DependencyTag = "cms"
	TagRecommendations DependencyTag = "recommendations"
	TagInventory       DependencyTag = "inventory"
	TagReviews         DependencyTag = "reviews"
	TagAds             DependencyTag = "ads"
	TagAnalytics       DependencyTag = "analytics"
)

// DefaultTimeout returns the total fetch timeout for the tag.
func (t DependencyTag) DefaultTimeout() time.Duration {
	switch t {
	case TagPricing, TagAds:
		return 200 * time.Millisecond
	case TagProfile:
		return 300 * time.Millisecond
	case TagCMS:
		return time.Second
	case TagRecommendations:
		return 400 * time.Millisecond
	case TagInventory:
		return 150 * time.Millisecond
	case TagAnalytics:
		return 100 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// DefaultRetries returns the retry budget for the tag.
func (t DependencyTag) DefaultRetries() int {
	switch t {
	case TagPricing, TagInventory:
		return 2
	case TagAnalytics, TagAds:
		return 0
	default:
		return 1
	}
}

// Critical reports whether missing data for the tag should block the render.
func (t DependencyTag) Critical() bool {
	return t == TagPricing || t == TagInventory || t == TagSearch
}

// TimeoutConfig bounds a single fetch.
type TimeoutConfig struct {
	Connect  time.Duration
	Response time.Duration
	Total    time.Duration
}

// TimeoutFromTotal derives connect and response budgets from a total.
func TimeoutFromTotal(total time.Duration) TimeoutConfig {
	return TimeoutConfig{Connect: total / 4, Response: total / 2, Total: total}
}

// FetchRequest is what a section renderer asks of the data-fetch collaborator.
type FetchRequest struct {
	Tag     DependencyTag
	Key     string
	Timeout TimeoutConfig
	Retry   RetryPolicy
}

// DefaultFetchRequest fills timeouts and retries from the tag defaults.
func DefaultFetchRequest(tag DependencyTag, key string) FetchRequest {
	return FetchRequest{
		Tag:     tag,
		Key:     key,
		Timeout: TimeoutFromTotal(tag.DefaultTimeout()),
		Retry:   Retry(tag.DefaultRetries()),
	}
}

// Budget is the worst-case time the request may take including retries.
// A section's timeout should be at least this large.
func (r FetchRequest) Budget() time.Duration {
	total := r.Timeout.Total
	for i := 0; i < r.Retry.Retries; i++ {
		total += r.Retry.Backoff.Delay(i) + r.Timeout.Total
	}
	return total
}

// FetchResult is a successful fetch.
type FetchResult struct {
	Value    []byte
	Duration time.Duration
}
