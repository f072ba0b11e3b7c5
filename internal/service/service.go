// Package service contains the business rules of the platform.
//
// Handlers parse HTTP and call a service; services validate input, enforce
// ownership and moderation rules and delegate persistence to the interfaces
// in package repository:
//
//	Handler (HTTP) → Service (rules) → Repository (SQLite)
//
// Services return apperror values and never know about status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
)

// slugAttempts bounds how often a clashing slug is retried with a suffix.
const slugAttempts = 3

// makeSlug turns a title into a URL slug. Titles made only of punctuation
// fall back to fallback.
func makeSlug(title, fallback string) string {
	s := slug.Make(title)
	if s == "" {
		return fallback
	}
	return s
}

// createWithSlug calls insert with base, then with base-<suffix> while the
// store reports a Conflict. Any other error is returned as is.
func createWithSlug(ctx context.Context, base string, insert func(ctx context.Context, slug string) error) error {
	candidate := base
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		err = insert(ctx, candidate)
		if !errors.Is(err, apperror.ErrConflict) {
			return err
		}
		id := xid.New().String()
		candidate = base + "-" + id[len(id)-6:]
	}
	return fmt.Errorf("allocating slug for %q: %w", base, err)
}

// required returns a ValidationFailed when the trimmed value is empty.
func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.ValidationFailed(field, field+" is required")
	}
	return nil
}

// maxLen rejects values longer than n runes.
func maxLen(field, value string, n int) error {
	if len([]rune(value)) > n {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be %d characters or less", field, n))
	}
	return nil
}

// cleanList trims every entry and drops empties and duplicates, keeping order.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
