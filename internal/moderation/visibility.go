package moderation

import (
	"fmt"
	"sort"

	"github.com/gossip-stories/gossip/internal/model"
)

// Mode selects which stories of an event a viewer gets.
type Mode string

const (
	// ModeManagement shows the owner every story regardless of status.
	ModeManagement Mode = "management"
	// ModeReading shows only approved stories.
	ModeReading Mode = "reading"
)

// ParseMode maps a query value to a Mode. The empty string means management.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "", ModeManagement:
		return ModeManagement, nil
	case ModeReading:
		return ModeReading, nil
	}
	return "", fmt.Errorf("unknown mode %q", raw)
}

// VisibleStories returns the stories a viewer in mode may see, newest first.
// The input slice is not modified.
func VisibleStories(stories []model.Story, mode Mode) []model.Story {
	out := make([]model.Story, 0, len(stories))
	for _, s := range stories {
		if mode == ModeReading && s.Status != model.StatusApproved {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

// Count tallies stories by status.
func Count(stories []model.Story) model.StoryCounts {
	c := model.StoryCounts{Total: len(stories)}
	for _, s := range stories {
		switch s.Status {
		case model.StatusPendingReview:
			c.Pending++
		case model.StatusApproved:
			c.Approved++
		case model.StatusRejected:
			c.Rejected++
		case model.StatusRead:
			c.Read++
		}
	}
	return c
}
