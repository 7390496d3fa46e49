package validate

import (
	"testing"

	"github.com/Taswoor2507/movie-api/internal/apperr"
)

type sample struct {
	Email   string `json:"email" validate:"required,email"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"review" validate:"required,min=4,max=300"`
	Code    string `json:"otp" validate:"omitempty,len=6,numeric"`
}

func TestStruct(t *testing.T) {
	cases := []struct {
		name string
		in   sample
		want string
	}{
		{"valid", sample{Email: "a@x.com", Rating: 3, Comment: "good"}, ""},
		{"missing email", sample{Rating: 3, Comment: "good"}, "email is required"},
		{"bad email", sample{Email: "nope", Rating: 3, Comment: "good"}, "email must be a valid email address"},
		{"rating high", sample{Email: "a@x.com", Rating: 6, Comment: "good"}, "rating must be at most 5"},
		{"rating low", sample{Email: "a@x.com", Rating: 0, Comment: "good"}, "rating must be at least 1"},
		{"short comment", sample{Email: "a@x.com", Rating: 3, Comment: "ok"}, "review must be at least 4 characters"},
		{"bad code", sample{Email: "a@x.com", Rating: 3, Comment: "good", Code: "12"}, "otp must be 6 characters long"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			appErr, ok := apperr.As(err)
			if !ok || appErr.Kind != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if appErr.Message != tc.want {
				t.Fatalf("unexpected message %q want %q", appErr.Message, tc.want)
			}
		})
	}
}
