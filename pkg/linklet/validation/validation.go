// Package validation holds the input policy for links: shape rules for
// slug and destination URL, and the scheme allow-list that keeps the
// redirect path from becoming an open redirect.
package validation

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Slugs that collide with routes or that we never want handed out.
var reservedSlugs = []string{"api", "health", "l", "login", "logout", "register", "auth", "admin"}

var (
	// ErrMalformedURL means the value does not parse as an absolute URL.
	ErrMalformedURL = errors.New("Invalid URL format")
	// ErrSchemeNotAllowed means the URL parsed but its scheme is outside
	// the allow-list.
	ErrSchemeNotAllowed = errors.New("Invalid URL protocol")
)

// Input is the mutable part of a link, as submitted by a caller.
type Input struct {
	Slug string
	URL  string
}

// RuleError reports the first shape rule an input violated.
type RuleError struct {
	Rule    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

type rule struct {
	name    string
	message string
	ok      func(Input) bool
}

// Shape rules run in declaration order; the first failure is surfaced and
// the rest are never evaluated.
var shapeRules = []rule{
	{"slug-min-length", "Slug must be at least 3 characters", func(in Input) bool {
		return len(in.Slug) >= 3
	}},
	{"slug-max-length", "Slug must be at most 50 characters", func(in Input) bool {
		return len(in.Slug) <= 50
	}},
	{"slug-charset", "Slug must contain only letters, numbers, hyphens, and underscores", func(in Input) bool {
		return slugPattern.MatchString(in.Slug)
	}},
	{"slug-reserved", "This slug is reserved", func(in Input) bool {
		for _, r := range reservedSlugs {
			if strings.EqualFold(in.Slug, r) {
				return false
			}
		}
		return true
	}},
	{"url-absolute", "Invalid URL format", func(in Input) bool {
		return !errors.Is(CheckScheme(in.URL), ErrMalformedURL)
	}},
}

// CheckShape validates slug and URL shape, returning the first violated
// rule or nil.
func CheckShape(in Input) *RuleError {
	for _, r := range shapeRules {
		if !r.ok(in) {
			return &RuleError{Rule: r.name, Message: r.message}
		}
	}
	return nil
}

// CheckScheme enforces the {http, https} allow-list on a raw URL. It runs
// before every persist and again on every resolve: a stored row is not
// trusted to still satisfy the write-time check.
func CheckScheme(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return ErrMalformedURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return ErrMalformedURL
		}
		return nil
	}
	return ErrSchemeNotAllowed
}
