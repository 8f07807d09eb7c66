package stats

import "fmt"

// Buckets is the number of rating histogram buckets (ratings run 1..10).
const Buckets = 10

// Ratings is the aggregate maintained per media item. Invariants:
// Count equals the sum of Dist, and Sum equals the rating-weighted sum of
// Dist. The average is always derived, never stored.
type Ratings struct {
	Count int
	Sum   int
	Dist  [Buckets]int
}

// Apply transitions the aggregate for a single user's review changing from
// oldRating to newRating. A nil oldRating means the review is new; a nil
// newRating means the review was deleted. Both nil is a no-op.
func (r *Ratings) Apply(oldRating, newRating *int) error {
	if oldRating != nil {
		if err := checkRating(*oldRating); err != nil {
			return fmt.Errorf("old rating: %w", err)
		}
		if r.Dist[*oldRating-1] == 0 || r.Count == 0 {
			return fmt.Errorf("cannot remove rating %d from empty bucket", *oldRating)
		}
		r.Count--
		r.Sum -= *oldRating
		r.Dist[*oldRating-1]--
	}

	if newRating != nil {
		if err := checkRating(*newRating); err != nil {
			return fmt.Errorf("new rating: %w", err)
		}
		r.Count++
		r.Sum += *newRating
		r.Dist[*newRating-1]++
	}

	return nil
}

// Average returns the mean rating, or 0 when there are no ratings.
func (r *Ratings) Average() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Sum) / float64(r.Count)
}

// Check verifies the aggregate invariants. Used by the reconcile task to
// detect drift before rewriting stored aggregates.
func (r *Ratings) Check() error {
	count := 0
	sum := 0
	for i, n := range r.Dist {
		if n < 0 {
			return fmt.Errorf("negative bucket %d: %d", i+1, n)
		}
		count += n
		sum += (i + 1) * n
	}

	if count != r.Count {
		return fmt.Errorf("count %d does not match distribution total %d", r.Count, count)
	}
	if sum != r.Sum {
		return fmt.Errorf("sum %d does not match distribution total %d", r.Sum, sum)
	}

	return nil
}

// FromRatings rebuilds the aggregate from raw rating values.
func FromRatings(ratings []int) (Ratings, error) {
	var r Ratings
	for _, rating := range ratings {
		v := rating
		if err := r.Apply(nil, &v); err != nil {
			return Ratings{}, err
		}
	}
	return r, nil
}

func checkRating(rating int) error {
	if rating < 1 || rating > Buckets {
		return fmt.Errorf("rating %d out of range 1..%d", rating, Buckets)
	}
	return nil
}
