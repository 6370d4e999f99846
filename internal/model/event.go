package model

import "time"

// Event is an owner-created container that accepts public story submissions
// while IsActive is set.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StoryCounts are derived on every read and never stored.
type StoryCounts struct {
	Total    int `json:"totalStories"`
	Pending  int `json:"pendingCount"`
	Approved int `json:"approvedCount"`
	Rejected int `json:"rejectedCount"`
	Read     int `json:"readCount"`
}

// EventSummary is one row of the owner dashboard.
type EventSummary struct {
	Event  Event       `json:"event"`
	Counts StoryCounts `json:"counts"`
}
