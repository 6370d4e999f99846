package model

import (
	"fmt"
	"time"
)

// StoryStatus is the review state of a story. Every status is reachable from
// every other one.
type StoryStatus string

const (
	StatusPendingReview StoryStatus = "PENDING_REVIEW"
	StatusApproved      StoryStatus = "APPROVED"
	StatusRejected      StoryStatus = "REJECTED"
	StatusRead          StoryStatus = "READ"
)

// Statuses lists every persisted status value.
var Statuses = []StoryStatus{StatusPendingReview, StatusApproved, StatusRejected, StatusRead}

// Valid reports whether s is one of the four known statuses.
func (s StoryStatus) Valid() bool {
	switch s {
	case StatusPendingReview, StatusApproved, StatusRejected, StatusRead:
		return true
	}
	return false
}

// ParseStoryStatus converts raw input into a StoryStatus.
func ParseStoryStatus(raw string) (StoryStatus, error) {
	s := StoryStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid story status %q", raw)
	}
	return s, nil
}

// Story is a single submission attached to one Event.
//
// Anonymous stories always have empty SubmitterEmail and SubmitterUsername.
type Story struct {
	ID                string      `json:"id"`
	EventID           string      `json:"eventId"`
	Title             string      `json:"title"`
	Content           string      `json:"content"`
	SubmitterEmail    string      `json:"submitterEmail"`
	SubmitterUsername string      `json:"submitterUsername"`
	Anonymous         bool        `json:"anonymous"`
	Tags              []string    `json:"tags"`
	Status            StoryStatus `json:"status"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// PublicStory is what a reading-mode viewer sees. The submitter's email is
// never part of it.
type PublicStory struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Username  string    `json:"username,omitempty"`
	Anonymous bool      `json:"anonymous"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public projects s for reading mode.
func (s Story) Public() PublicStory {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return PublicStory{
		ID:        s.ID,
		Title:     s.Title,
		Content:   s.Content,
		Username:  s.SubmitterUsername,
		Anonymous: s.Anonymous,
		Tags:      tags,
		CreatedAt: s.CreatedAt,
	}
}
