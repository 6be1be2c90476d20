package histogram

import "sort"

// BucketKind distinguishes the data bins from the three catch-all buckets.
type BucketKind int

const (
	DataBucket BucketKind = iota
	UnderflowBucket
	OverflowBucket
	NullBucket
)

// Bucket is one histogram slot with its accumulated count and extrema.
// From/To are nil on the sides a bucket is unbounded on (underflow has no
// lower bound, overflow no upper bound, null neither); Min/Max are nil while
// Count is 0.
type Bucket struct {
	Kind  BucketKind
	From  *float64
	To    *float64
	Count int
	Min   *float64
	Max   *float64
}

func (b *Bucket) observe(v float64) {
	if b.Count == 0 {
		b.Min, b.Max = f64ptr(v), f64ptr(v)
	} else {
		if v < *b.Min {
			b.Min = f64ptr(v)
		}
		if v > *b.Max {
			b.Max = f64ptr(v)
		}
	}
	b.Count++
}

// Build assigns every value of the column to exactly one bucket. Intervals
// are lower-inclusive, upper-exclusive: edges[i] <= v < edges[i+1]. A value
// below edges[0] lands in underflow, a value at or above the last edge lands
// in overflow. A value exactly equal to the last edge is overflow too, so the
// top data bin is half-open like every other.
//
// Null and non-finite values are dropped unless nullBin is set, in which case
// they are counted (exclusively) in a trailing null bucket; that bucket is
// present whenever nullBin is set, even with a zero count.
//
// Bucket order is part of the contract: underflow, data bins in ascending
// edge order, overflow, then the optional null bucket.
func Build(edges []float64, col Column, nullBin bool) []Bucket {
	m := len(edges)
	if m < 2 {
		return nil
	}

	buckets := make([]Bucket, m+1, m+2)
	buckets[0] = Bucket{Kind: UnderflowBucket, To: f64ptr(edges[0])}
	for i := 0; i < m-1; i++ {
		buckets[i+1] = Bucket{Kind: DataBucket, From: f64ptr(edges[i]), To: f64ptr(edges[i+1])}
	}
	buckets[m] = Bucket{Kind: OverflowBucket, From: f64ptr(edges[m-1])}

	var nulls int
	for _, val := range col.Values {
		if !val.usable() {
			nulls++
			continue
		}
		v := val.Num
		switch {
		case v < edges[0]:
			buckets[0].observe(v)
		case v >= edges[m-1]:
			buckets[m].observe(v)
		default:
			// Smallest i with edges[i] >= v; step back unless v sits exactly
			// on its bin's lower edge.
			i := sort.SearchFloat64s(edges, v)
			if i == m || edges[i] != v {
				i--
			}
			buckets[i+1].observe(v)
		}
	}

	if nullBin {
		buckets = append(buckets, Bucket{Kind: NullBucket, Count: nulls})
	}
	return buckets
}

func f64ptr(v float64) *float64 { return &v }
