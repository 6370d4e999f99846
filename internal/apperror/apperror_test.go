package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("event", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("event", "summer-wedding"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("sign in required"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("loading story: %w", NotFound("story", "s1")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("event", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("story", "abc123"),
			wantMessage: "story not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("event", "summer-wedding"),
			wantMessage: "event conflict with id summer-wedding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestFieldErrors_Empty(t *testing.T) {
	if err := (FieldErrors{}).Err(); err != nil {
		t.Errorf("Err() on empty FieldErrors = %v, want nil", err)
	}
}

func TestFieldErrors_CollectsEveryField(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("title", "title is required")
	fields.Add("submitterEmail", "email is required")
	fields.Add("title", "a second title message is ignored")

	err := fields.Err()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Err() = %v, want ErrValidation", err)
	}

	got := FieldsOf(err)
	if len(got) != 2 {
		t.Fatalf("FieldsOf() returned %d fields, want 2", len(got))
	}
	if got["title"] != "title is required" {
		t.Errorf("title message = %q", got["title"])
	}
	if got["submitterEmail"] != "email is required" {
		t.Errorf("submitterEmail message = %q", got["submitterEmail"])
	}
}

func TestFieldsOf_NonValidation(t *testing.T) {
	if got := FieldsOf(NotFound("event", "x")); got != nil {
		t.Errorf("FieldsOf(NotFound) = %v, want nil", got)
	}
	if got := FieldsOf(errors.New("boom")); got != nil {
		t.Errorf("FieldsOf(plain error) = %v, want nil", got)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("submitterEmail", "please enter a valid email address")

	if err.Field != "submitterEmail" {
		t.Errorf("Field = %q, want %q", err.Field, "submitterEmail")
	}
	if err.Fields["submitterEmail"] == "" {
		t.Error("Fields should contain the failing field")
	}
}
