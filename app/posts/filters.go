package posts

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"blog/app/models"

	"gorm.io/gorm"
)

// Date range presets of the created and publish filters
const (
	RangeToday      = "today"
	RangePast7Days  = "past_7_days"
	RangeThisMonth  = "this_month"
	RangeThisYear   = "this_year"
	dateParamLayout = "2006-01-02"
)

// DateRange is a half open [From, To) interval; zero bounds are open
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) apply(db *gorm.DB, column string) *gorm.DB {
	if !r.From.IsZero() {
		db = db.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		db = db.Where(column+" < ?", r.To)
	}
	return db
}

// ListFilter holds the admin list query: filters, search, date drill-down
type ListFilter struct {
	Page    int
	Status  models.PostStatus
	Query   string
	Created DateRange
	Publish DateRange

	// date hierarchy on publish
	Year  int
	Month int
	Day   int
}

// ParseListFilter reads the admin list query string. now anchors the
// relative ranges.
func ParseListFilter(values url.Values, now time.Time) (*ListFilter, error) {
	f := &ListFilter{Page: 1}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		f.Page = page
	}

	switch status := models.PostStatus(values.Get("status")); status {
	case "", models.StatusDraft, models.StatusPublished:
		f.Status = status
	default:
		return nil, fmt.Errorf("invalid status filter %q", status)
	}

	f.Query = values.Get("q")

	var err error
	if f.Created, err = parseRange(values, "created", now); err != nil {
		return nil, err
	}
	if f.Publish, err = parseRange(values, "publish", now); err != nil {
		return nil, err
	}

	for _, part := range []struct {
		name string
		dst  *int
		max  int
	}{
		{"year", &f.Year, 9999},
		{"month", &f.Month, 12},
		{"day", &f.Day, 31},
	} {
		raw := values.Get(part.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > part.max {
			return nil, fmt.Errorf("invalid %s %q", part.name, raw)
		}
		*part.dst = n
	}
	if (f.Month > 0 && f.Year == 0) || (f.Day > 0 && f.Month == 0) {
		return nil, fmt.Errorf("date hierarchy needs year before month and month before day")
	}
	if f.Day > 0 {
		date := time.Date(f.Year, time.Month(f.Month), f.Day, 0, 0, 0, 0, time.UTC)
		if date.Month() != time.Month(f.Month) {
			return nil, fmt.Errorf("invalid day %d for %d-%02d", f.Day, f.Year, f.Month)
		}
	}

	return f, nil
}

// parseRange reads <name>=<preset> or <name>_from / <name>_to dates
func parseRange(values url.Values, name string, now time.Time) (DateRange, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	switch preset := values.Get(name); preset {
	case "":
	case RangeToday:
		return DateRange{From: today, To: tomorrow}, nil
	case RangePast7Days:
		return DateRange{From: today.AddDate(0, 0, -7), To: tomorrow}, nil
	case RangeThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{From: first, To: first.AddDate(0, 1, 0)}, nil
	case RangeThisYear:
		first := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{From: first, To: first.AddDate(1, 0, 0)}, nil
	default:
		return DateRange{}, fmt.Errorf("invalid %s filter %q", name, preset)
	}

	var r DateRange
	if raw := values.Get(name + "_from"); raw != "" {
		from, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid %s_from %q", name, raw)
		}
		r.From = from
	}
	if raw := values.Get(name + "_to"); raw != "" {
		to, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid %s_to %q", name, raw)
		}
		// inclusive end date
		r.To = to.AddDate(0, 0, 1)
	}
	return r, nil
}

// hierarchyRange is the publish interval selected by year/month/day
func (f *ListFilter) hierarchyRange() DateRange {
	switch {
	case f.Day > 0:
		from := time.Date(f.Year, time.Month(f.Month), f.Day, 0, 0, 0, 0, time.UTC)
		return DateRange{From: from, To: from.AddDate(0, 0, 1)}
	case f.Month > 0:
		from := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{From: from, To: from.AddDate(0, 1, 0)}
	case f.Year > 0:
		from := time.Date(f.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{From: from, To: from.AddDate(1, 0, 0)}
	}
	return DateRange{}
}

// Apply is a gorm scope adding every active filter
func (f *ListFilter) Apply(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	// every word must appear in the body or the title, in any order
	for _, word := range strings.Fields(strings.ToLower(f.Query)) {
		pattern := likePattern(word)
		db = db.Where("LOWER(body) LIKE ? ESCAPE '!' OR LOWER(title) LIKE ? ESCAPE '!'", pattern, pattern)
	}
	db = f.Created.apply(db, "created_at")
	db = f.Publish.apply(db, "publish")
	return f.hierarchyRange().apply(db, "publish")
}

// DateHierarchy is the next drill-down level of the publish date
type DateHierarchy struct {
	Level   string       `json:"level"`
	Buckets []DateBucket `json:"buckets"`
}

// DateBucket is one year, month or day with its number of posts
type DateBucket struct {
	Year  int    `json:"year"`
	Month int    `json:"month,omitempty"`
	Day   int    `json:"day,omitempty"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

func buildDateHierarchy(f *ListFilter, posts []models.Post) *DateHierarchy {
	level := "year"
	switch {
	case f.Day > 0:
		level = "day"
	case f.Month > 0:
		level = "day"
	case f.Year > 0:
		level = "month"
	}

	counts := make(map[DateBucket]int)
	for _, post := range posts {
		t := post.Publish.UTC()
		key := DateBucket{Year: t.Year()}
		switch level {
		case "month":
			key.Month = int(t.Month())
		case "day":
			key.Month = int(t.Month())
			key.Day = t.Day()
		}
		counts[key]++
	}

	buckets := make([]DateBucket, 0, len(counts))
	for key, count := range counts {
		key.Count = count
		key.Label = bucketLabel(key)
		buckets = append(buckets, key)
	}
	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Day < b.Day
	})

	return &DateHierarchy{Level: level, Buckets: buckets}
}

func bucketLabel(b DateBucket) string {
	switch {
	case b.Day > 0:
		return time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC).Format("January 2")
	case b.Month > 0:
		return time.Month(b.Month).String() + " " + strconv.Itoa(b.Year)
	default:
		return strconv.Itoa(b.Year)
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches word anywhere, with LIKE wildcards in word taken literally
func likePattern(word string) string {
	return "%" + likeEscaper.Replace(word) + "%"
}
