package links

import (
	"errors"
	"math/rand"
	"time"

	"github.com/linklet/linklet/pkg/linklet/models"
	"github.com/linklet/linklet/pkg/linklet/ratelimit"
	"github.com/linklet/linklet/pkg/linklet/validation"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Per-actor mutation budgets. Keys are scoped per operation, so a burst of
// creates never eats into the update or delete budget.
const (
	createLimit = 10
	updateLimit = 20
	deleteLimit = 20
	limitWindow = time.Minute
)

const slugCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// Service is the mutation core. Every operation walks the same gate
// ladder: authenticate, rate-limit, validate shape, validate scheme,
// check ownership, check slug uniqueness, persist, invalidate the owner's
// cached listing. The first failing gate decides the outcome and later
// gates never run.
type Service struct {
	repo    Repository
	limiter *ratelimit.Limiter
	cache   *ListingCache
	log     zerolog.Logger
}

// NewService wires the mutation core.
func NewService(repo Repository, limiter *ratelimit.Limiter, cache *ListingCache, log zerolog.Logger) *Service {
	return &Service{repo: repo, limiter: limiter, cache: cache, log: log}
}

// CreateInput is the payload for Create. An empty Slug asks the service to
// generate one.
type CreateInput struct {
	URL  string
	Slug string
}

// UpdateInput is the full replacement payload for Update.
type UpdateInput struct {
	URL  string
	Slug string
}

// Create makes a new link owned by actorID.
func (s *Service) Create(actorID string, in CreateInput) (*models.Link, *Fault) {
	if actorID == "" {
		return nil, fault(FaultUnauthenticated, "Authentication required")
	}
	if !s.limiter.Allow("create:"+actorID, createLimit, limitWindow) {
		return nil, fault(FaultRateLimited, "Too many requests, please try again later")
	}

	slug := in.Slug
	if slug == "" {
		slug = s.generateSlug()
	}
	if f := checkInput(slug, in.URL); f != nil {
		return nil, f
	}

	// Pre-check uniqueness for a friendly error; the unique index remains
	// the authority when two creates race.
	if f := s.checkSlugFree(slug, 0); f != nil {
		return nil, f
	}

	link := &models.Link{
		OwnerID:     actorID,
		Slug:        slug,
		OriginalURL: in.URL,
	}
	if err := s.repo.Create(link); err != nil {
		return nil, s.storeFault("create", err)
	}

	s.cache.Invalidate(actorID)
	return link, nil
}

// Update replaces the slug and URL of a link owned by actorID.
func (s *Service) Update(actorID string, id uint, in UpdateInput) (*models.Link, *Fault) {
	if actorID == "" {
		return nil, fault(FaultUnauthenticated, "Authentication required")
	}
	if !s.limiter.Allow("update:"+actorID, updateLimit, limitWindow) {
		return nil, fault(FaultRateLimited, "Too many requests, please try again later")
	}
	if f := checkInput(in.Slug, in.URL); f != nil {
		return nil, f
	}

	link, f := s.ownedLink(actorID, id, "update lookup")
	if f != nil {
		return nil, f
	}

	if in.Slug != link.Slug {
		if f := s.checkSlugFree(in.Slug, link.ID); f != nil {
			return nil, f
		}
	}

	link.Slug = in.Slug
	link.OriginalURL = in.URL
	if err := s.repo.Update(link); err != nil {
		return nil, s.storeFault("update", err)
	}

	s.cache.Invalidate(actorID)
	return link, nil
}

// Delete permanently removes a link owned by actorID.
func (s *Service) Delete(actorID string, id uint) *Fault {
	if actorID == "" {
		return fault(FaultUnauthenticated, "Authentication required")
	}
	if !s.limiter.Allow("delete:"+actorID, deleteLimit, limitWindow) {
		return fault(FaultRateLimited, "Too many requests, please try again later")
	}

	link, f := s.ownedLink(actorID, id, "delete lookup")
	if f != nil {
		return f
	}

	if err := s.repo.Delete(link.ID); err != nil {
		return s.storeFault("delete", err)
	}

	s.cache.Invalidate(actorID)
	return nil
}

// ListByOwner returns the actor's links, newest first, served through the
// listing cache.
func (s *Service) ListByOwner(actorID string) ([]models.Link, *Fault) {
	if actorID == "" {
		return nil, fault(FaultUnauthenticated, "Authentication required")
	}
	if cached, ok := s.cache.Get(actorID); ok {
		return cached, nil
	}
	links, err := s.repo.ListByOwner(actorID)
	if err != nil {
		return nil, s.storeFault("list", err)
	}
	s.cache.Put(actorID, links)
	return links, nil
}

// checkInput runs the shape rules and then the scheme allow-list, in that
// order. Shape failures and scheme failures are distinct fault kinds.
func checkInput(slug, rawURL string) *Fault {
	if re := validation.CheckShape(validation.Input{Slug: slug, URL: rawURL}); re != nil {
		return fault(FaultInvalidInput, re.Message)
	}
	if err := validation.CheckScheme(rawURL); err != nil {
		return fault(FaultUnsafeURL, err.Error())
	}
	return nil
}

// ownedLink fetches the target and enforces ownership. A non-owner learns
// nothing beyond the permission denial.
func (s *Service) ownedLink(actorID string, id uint, op string) (*models.Link, *Fault) {
	link, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault(FaultNotFound, "Link not found")
		}
		return nil, s.storeFault(op, err)
	}
	if link.OwnerID != actorID {
		return nil, fault(FaultForbidden, "You don't have permission to modify this link")
	}
	return link, nil
}

// checkSlugFree reports a SlugTaken fault if slug belongs to a different
// link than excludeID.
func (s *Service) checkSlugFree(slug string, excludeID uint) *Fault {
	existing, err := s.repo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return s.storeFault("slug lookup", err)
	}
	if existing.ID != excludeID {
		return fault(FaultSlugTaken, "This slug is already taken")
	}
	return nil
}

// storeFault classifies a repository error. A lost uniqueness race shows
// up here as a duplicated key and becomes SlugTaken; everything else is
// logged in full server-side and surfaced as a generic message.
func (s *Service) storeFault(op string, err error) *Fault {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fault(FaultSlugTaken, "This slug is already taken")
	}
	s.log.Error().Err(err).Str("op", op).Msg("link store failure")
	return fault(FaultPersistence, "Something went wrong, please try again")
}

// generateSlug picks a random free slug, falling back to a longer one if
// the short space is crowded.
func (s *Service) generateSlug() string {
	const length = 8

	for attempts := 0; attempts < 10; attempts++ {
		slug := generateRandomString(length, slugCharset)
		if _, err := s.repo.GetBySlug(slug); err != nil {
			return slug
		}
	}
	return generateRandomString(12, slugCharset)
}

// generateRandomString creates a random string of given length. The global
// source keeps consecutive collision-retry draws independent even on a
// coarse clock.
func generateRandomString(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
