package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gossip-stories/gossip/internal/apperror"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 10000
)

// emailPattern accepts anything shaped like local@domain.tld.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Submission is the public story form as typed by the visitor.
type Submission struct {
	EventID           string   `json:"eventId"`
	Title             string   `json:"title"`
	Content           string   `json:"content"`
	Anonymous         bool     `json:"anonymous"`
	SubmitterEmail    string   `json:"submitterEmail"`
	SubmitterUsername string   `json:"submitterUsername"`
	Tags              []string `json:"tags"`
}

// ValidateSubmission checks every field of s and returns all failures at
// once. Submitter fields are only checked for non-anonymous submissions.
func ValidateSubmission(s Submission) apperror.FieldErrors {
	fields := apperror.FieldErrors{}

	validateTitle(fields, s.Title, "story title is required")

	content := strings.TrimSpace(s.Content)
	switch {
	case content == "":
		fields.Add("content", "story content is required")
	case utf8.RuneCountInString(s.Content) > MaxContentLength:
		fields.Add("content", fmt.Sprintf("story content must be %d characters or less", MaxContentLength))
	}

	if !s.Anonymous {
		email := strings.TrimSpace(s.SubmitterEmail)
		switch {
		case email == "":
			fields.Add("submitterEmail", "email is required for non-anonymous submissions")
		case !emailPattern.MatchString(email):
			fields.Add("submitterEmail", "please enter a valid email address")
		}

		if strings.TrimSpace(s.SubmitterUsername) == "" {
			fields.Add("submitterUsername", "username is required for non-anonymous submissions")
		}
	}

	return fields
}

// ValidateEvent checks the owner-editable text fields of an event.
func ValidateEvent(title, description string) apperror.FieldErrors {
	fields := apperror.FieldErrors{}

	validateTitle(fields, title, "event title is required")

	if strings.TrimSpace(description) == "" {
		fields.Add("description", "event description is required")
	}

	return fields
}

func validateTitle(fields apperror.FieldErrors, title, requiredMsg string) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		fields.Add("title", requiredMsg)
	case utf8.RuneCountInString(title) > MaxTitleLength:
		fields.Add("title", fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
}
