package messaging

import (
	"sort"
	"time"

	"eventcraft/internal/domain/entity"
)

const dayLayout = "2006-01-02"

// DateGroup is one calendar day of messages.
type DateGroup struct {
	Day      string
	Date     time.Time
	Messages []*entity.Message
}

// GroupByDate orders messages by creation time and splits them by calendar
// day in loc. A nil loc means UTC.
func GroupByDate(messages []*entity.Message, loc *time.Location) []DateGroup {
	if loc == nil {
		loc = time.UTC
	}

	ordered := make([]*entity.Message, 0, len(messages))
	for _, m := range messages {
		if m != nil {
			ordered = append(ordered, m)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	var groups []DateGroup
	for _, m := range ordered {
		local := m.CreatedAt.In(loc)
		day := local.Format(dayLayout)
		if len(groups) == 0 || groups[len(groups)-1].Day != day {
			y, mo, d := local.Date()
			groups = append(groups, DateGroup{
				Day:  day,
				Date: time.Date(y, mo, d, 0, 0, 0, 0, loc),
			})
		}
		last := &groups[len(groups)-1]
		last.Messages = append(last.Messages, m)
	}
	return groups
}
