package moderation

import (
	"strings"
	"testing"
)

func validSubmission() Submission {
	return Submission{
		EventID:           "evt-1",
		Title:             "How we met",
		Content:           "It was raining.",
		SubmitterEmail:    "guest@example.com",
		SubmitterUsername: "guest",
	}
}

func TestValidateSubmission_Valid(t *testing.T) {
	if fields := ValidateSubmission(validSubmission()); len(fields) != 0 {
		t.Errorf("ValidateSubmission() = %v, want no errors", fields)
	}
}

func TestValidateSubmission_FieldErrors(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Submission)
		wantFields []string
	}{
		{
			name:       "empty email on a signed submission",
			mutate:     func(s *Submission) { s.SubmitterEmail = "" },
			wantFields: []string{"submitterEmail"},
		},
		{
			name:       "malformed email",
			mutate:     func(s *Submission) { s.SubmitterEmail = "not-an-email" },
			wantFields: []string{"submitterEmail"},
		},
		{
			name:       "missing username",
			mutate:     func(s *Submission) { s.SubmitterUsername = "  " },
			wantFields: []string{"submitterUsername"},
		},
		{
			name:       "whitespace title",
			mutate:     func(s *Submission) { s.Title = "   " },
			wantFields: []string{"title"},
		},
		{
			name:       "title too long",
			mutate:     func(s *Submission) { s.Title = strings.Repeat("t", MaxTitleLength+1) },
			wantFields: []string{"title"},
		},
		{
			name:       "empty content",
			mutate:     func(s *Submission) { s.Content = "\n\n" },
			wantFields: []string{"content"},
		},
		{
			name:       "content over the cap",
			mutate:     func(s *Submission) { s.Content = strings.Repeat("c", MaxContentLength+1) },
			wantFields: []string{"content"},
		},
		{
			name: "every field wrong is reported at once",
			mutate: func(s *Submission) {
				s.Title = ""
				s.Content = ""
				s.SubmitterEmail = ""
				s.SubmitterUsername = ""
			},
			wantFields: []string{"title", "content", "submitterEmail", "submitterUsername"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(&s)

			fields := ValidateSubmission(s)
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("got %d field errors (%v), want %d", len(fields), fields, len(tt.wantFields))
			}
			for _, f := range tt.wantFields {
				if fields[f] == "" {
					t.Errorf("missing error for field %q in %v", f, fields)
				}
			}
		})
	}
}

func TestValidateSubmission_ContentAtCapIsAccepted(t *testing.T) {
	s := validSubmission()
	s.Content = strings.Repeat("ü", MaxContentLength)

	if fields := ValidateSubmission(s); len(fields) != 0 {
		t.Errorf("ValidateSubmission() = %v, want no errors", fields)
	}
}

func TestValidateSubmission_AnonymousSkipsSubmitterFields(t *testing.T) {
	s := validSubmission()
	s.Anonymous = true
	s.SubmitterEmail = "garbage"
	s.SubmitterUsername = ""

	if fields := ValidateSubmission(s); len(fields) != 0 {
		t.Errorf("ValidateSubmission() = %v, want no errors", fields)
	}
}

func TestValidateEvent(t *testing.T) {
	if fields := ValidateEvent("Summer Wedding!!", "d"); len(fields) != 0 {
		t.Errorf("ValidateEvent() = %v, want no errors", fields)
	}

	fields := ValidateEvent(" ", "")
	if fields["title"] == "" || fields["description"] == "" {
		t.Errorf("ValidateEvent() = %v, want title and description errors", fields)
	}
}
