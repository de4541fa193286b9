package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/garnizeh/staffdir/pkg/apperror"
)

func TestCheckBody(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "Create", body: `{"full_name":"Somchai","position":"Teacher"}`},
		{name: "CreateMissingName", body: `{"position":"Teacher"}`, wantErr: true},
		{name: "CreateEmptyName", body: `{"full_name":""}`, wantErr: true},
		{name: "CreateTooLong", body: `{"full_name":"A","contact_number":"` + strings.Repeat("9", 51) + `"}`, wantErr: true},
		{name: "NotAnObject", body: `[1,2]`, wantErr: true},
		{name: "Truncated", body: `{"full_name"`, wantErr: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := checkBody(ctx, createStaffSchema, []byte(c.body))
			if c.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v got %v", c.wantErr, err)
			}
			if err != nil && !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}

	if err := checkBody(ctx, updateStaffSchema, []byte(`{}`)); err != nil {
		t.Fatalf("empty update should be accepted: %v", err)
	}
	if err := checkBody(ctx, updateStaffSchema, []byte(`{"clear_photo":"yes"}`)); err == nil {
		t.Fatalf("expected clear_photo to require a boolean")
	}
}
