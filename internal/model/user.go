// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an authenticated principal.
//
// ProviderID is the identity provider's subject id, e.g. "github|1234567".
// It is the stable external key; Email is unique as well so that an account
// can be found again when the provider hands out a new subject id.
type User struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"-"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
