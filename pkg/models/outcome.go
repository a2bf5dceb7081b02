package models

import "time"

type OutcomeCategory string

const (
	OutcomeTruePositive  OutcomeCategory = "TRUE_POSITIVE"
	OutcomeFalsePositive OutcomeCategory = "FALSE_POSITIVE"
	OutcomeFalseNegative OutcomeCategory = "FALSE_NEGATIVE"
	OutcomeTrueNegative  OutcomeCategory = "TRUE_NEGATIVE"
)

func AllOutcomeCategories() []OutcomeCategory {
	return []OutcomeCategory{
		OutcomeTruePositive,
		OutcomeFalsePositive,
		OutcomeFalseNegative,
		OutcomeTrueNegative,
	}
}

type ScopeLevel string

const (
	ScopeAsset     ScopeLevel = "asset"
	ScopeSite      ScopeLevel = "site"
	ScopePortfolio ScopeLevel = "portfolio"
	ScopeZone      ScopeLevel = "zone"
)

// Scope identifies the subject of a record at one hierarchy level.
type Scope struct {
	Level ScopeLevel `json:"level"`
	ID    string     `json:"id"`
}

// TimeBucket is a half-open interval [Start, Start+Size).
type TimeBucket struct {
	Start time.Time     `json:"start"`
	Size  time.Duration `json:"size"`
}

func (b TimeBucket) End() time.Time {
	return b.Start.Add(b.Size)
}

func (b TimeBucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End())
}

// BucketFor truncates t onto the bucket grid of the given size.
func BucketFor(t time.Time, size time.Duration) TimeBucket {
	return TimeBucket{Start: t.Truncate(size), Size: size}
}

// OutcomeRecord is one confusion-matrix cell for a model, bucket and
// scope. Immutable once computed; a re-run under a new threshold
// produces records under a new run id.
type OutcomeRecord struct {
	ModelName string          `json:"model_name"`
	Bucket    TimeBucket      `json:"bucket"`
	Scope     Scope           `json:"scope"`
	Category  OutcomeCategory `json:"category"`
	Count     int             `json:"count"`
	RunID     string          `json:"run_id,omitempty"`
}

// ReconciliationResult carries the outcome records for one bucket and
// scope. Unlabeled means no ground truth covered the scope, so the
// FN/TN cells are unknown rather than zero.
type ReconciliationResult struct {
	Scope     Scope           `json:"scope"`
	Bucket    TimeBucket      `json:"bucket"`
	Records   []OutcomeRecord `json:"records"`
	Unlabeled bool            `json:"unlabeled"`
}

// Count returns the count for one category, zero when absent.
func (r *ReconciliationResult) Count(cat OutcomeCategory) int {
	for _, rec := range r.Records {
		if rec.Category == cat {
			return rec.Count
		}
	}
	return 0
}
