package links

import "net/http"

// FaultKind tags the single failure a mutation surfaces. Each gate in the
// service maps to exactly one kind; a failed gate short-circuits the rest.
type FaultKind string

const (
	FaultUnauthenticated FaultKind = "unauthenticated"
	FaultRateLimited     FaultKind = "rate_limited"
	FaultInvalidInput    FaultKind = "invalid_input"
	FaultUnsafeURL       FaultKind = "unsafe_url"
	FaultNotFound        FaultKind = "not_found"
	FaultForbidden       FaultKind = "forbidden"
	FaultSlugTaken       FaultKind = "slug_taken"
	FaultPersistence     FaultKind = "persistence"
)

// Fault pairs a failure kind with its one user-facing message. Service
// operations return a Fault instead of an error: every call ends in a
// value, never a panic or a raw store error.
type Fault struct {
	Kind    FaultKind
	Message string
}

func fault(kind FaultKind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

// Status maps the fault to its HTTP status code.
func (f *Fault) Status() int {
	switch f.Kind {
	case FaultUnauthenticated:
		return http.StatusUnauthorized
	case FaultRateLimited:
		return http.StatusTooManyRequests
	case FaultInvalidInput, FaultUnsafeURL:
		return http.StatusBadRequest
	case FaultNotFound:
		return http.StatusNotFound
	case FaultForbidden:
		return http.StatusForbidden
	case FaultSlugTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
