package lifecycle

import "errors"

// Transition failures fall into three buckets. Handlers map them to HTTP
// statuses; clients key retry behavior off them.
var (
	// ErrPermissionDenied: the actor is not allowed to perform this
	// transition (wrong owner, wrong claimant, claiming your own listing).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAlreadyClaimed: the listing is no longer available, either because
	// another claim won the approval race or the listing expired. Expected
	// under concurrency, not a bug.
	ErrAlreadyClaimed = errors.New("listing is no longer available")

	// ErrInvalidTransition: the claim is in a terminal or ineligible state
	// for the requested operation.
	ErrInvalidTransition = errors.New("invalid claim transition")
)
