package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * Day)
}

func TestHistorySHAs(t *testing.T) {
	h := History{
		{SHA: "a1", Timestamp: daysAgo(3), Author: "x"},
		{SHA: "a2", Timestamp: daysAgo(2), Author: "y"},
	}
	shas := h.SHAs()
	assert.Len(t, shas, 2)
	assert.Contains(t, shas, "a1")
	assert.Contains(t, shas, "a2")
	assert.Empty(t, History{}.SHAs())
}

func TestHistoryEarliest(t *testing.T) {
	h := History{
		{SHA: "a3", Timestamp: daysAgo(1)},
		{SHA: "a1", Timestamp: daysAgo(30)},
		{SHA: "a2", Timestamp: daysAgo(10)},
	}
	assert.Equal(t, daysAgo(30), h.Earliest())
	assert.True(t, History{}.Earliest().IsZero())
}

func TestHistoryRestrict(t *testing.T) {
	h := History{
		{SHA: "new", Timestamp: daysAgo(5)},
		{SHA: "edge", Timestamp: daysAgo(60)},
		{SHA: "old", Timestamp: daysAgo(200)},
	}

	tests := []struct {
		name string
		days int
		want []string
	}{
		{"narrow window", 10, []string{"new"}},
		{"boundary is excluded", 60, []string{"new"}},
		{"wide window", 360, []string{"new", "edge", "old"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Restrict(testNow, time.Duration(tt.days)*Day)
			var shas []string
			for _, c := range got {
				shas = append(shas, c.SHA)
			}
			assert.Equal(t, tt.want, shas)
		})
	}
}

func TestHistoryRestrictMonotonic(t *testing.T) {
	var h History
	for i := range 400 {
		h = append(h, Commit{SHA: string(rune('a' + i%26)), Timestamp: daysAgo(i)})
	}
	wide := h.Restrict(testNow, 360*Day)
	narrow := h.Restrict(testNow, 60*Day)
	assert.Subset(t, wide, narrow)
	assert.Less(t, len(narrow), len(wide))
}

func TestHistoryAuthors(t *testing.T) {
	h := History{
		{Author: "zed"},
		{Author: "amy"},
		{Author: "zed"},
		{Author: NoAuthor},
	}
	assert.Equal(t, []string{"None", "amy", "zed"}, h.Authors())
}

func TestHistoryCountSHA(t *testing.T) {
	h := History{{SHA: "a"}, {SHA: "b"}, {SHA: "a"}}
	assert.Equal(t, 2, h.CountSHA("a"))
	assert.Equal(t, 0, h.CountSHA("c"))
}

func TestCacheKeyString(t *testing.T) {
	assert.Equal(t, "python/pandas-dev/pandas", CacheKey{Domain: "python", Name: "pandas-dev/pandas"}.String())
	assert.Equal(t, "python/psf/requests", CacheKey{Domain: "/python/", Name: "/psf/requests"}.String())
}
