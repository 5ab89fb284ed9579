package redirect

import (
	"errors"
	"fmt"

	"github.com/linklet/linklet/pkg/linklet/links"
	"github.com/linklet/linklet/pkg/linklet/validation"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no link exists for a slug.
var ErrNotFound = errors.New("link not found")

// Resolver turns a slug into a destination URL. The stored URL is checked
// against the scheme allow-list on every resolve: rows written before the
// current policy, or edited outside the service, must not turn into open
// redirects.
type Resolver struct {
	repo links.Repository
}

// NewResolver creates a new resolver backed by the link repository.
func NewResolver(repo links.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the destination URL for slug. Unknown slugs yield
// ErrNotFound; stored URLs that fail re-validation yield the validation
// sentinels. Any other error is a store failure. Resolution has no side
// effects, so repeated calls on an unchanged slug return the same answer.
func (r *Resolver) Resolve(slug string) (string, error) {
	link, err := r.repo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("resolve %q: %w", slug, err)
	}

	if err := validation.CheckScheme(link.OriginalURL); err != nil {
		return "", err
	}
	return link.OriginalURL, nil
}
