package core

import (
	"time"

	"github.com/huangsam/osshealth/schema"
)

// bucketStart is the left edge of the bucket index for a window: the earliest
// commit of the full history, or the window start when that is older.
func bucketStart(full schema.History, now time.Time, window time.Duration) time.Time {
	start := now.Add(-window)
	if earliest := full.Earliest(); !earliest.IsZero() && earliest.Before(start) {
		start = earliest
	}
	return start
}

// MonthlyBuckets counts timestamps per 30-day bucket over [start, now].
// Buckets are anchored at now: bucket 0 is (now-30d, now], bucket i is
// (now-(i+1)*30d, now-i*30d]. Months without commits are zero. Timestamps
// after now land in bucket 0 and timestamps before start are ignored.
func MonthlyBuckets(times []time.Time, start, now time.Time) []int {
	span := now.Sub(start)
	n := int(span / schema.BucketSize)
	if span%schema.BucketSize != 0 || n == 0 {
		n++
	}

	buckets := make([]int, n)
	for _, ts := range times {
		if ts.Before(start) {
			continue
		}
		age := now.Sub(ts)
		idx := 0
		if age > 0 {
			idx = int((age - 1) / schema.BucketSize)
		}
		if idx >= n {
			idx = n - 1
		}
		buckets[idx]++
	}
	return buckets
}

// IsRegular reports whether more than half of the buckets hold more than one
// commit and the mean bucket count exceeds one.
func IsRegular(buckets []int) bool {
	if len(buckets) == 0 {
		return false
	}
	busy, total := 0, 0
	for _, b := range buckets {
		if b > 1 {
			busy++
		}
		total += b
	}
	return busy*2 > len(buckets) && total > len(buckets)
}
