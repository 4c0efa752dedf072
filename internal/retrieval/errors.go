package retrieval

import "errors"

var (
	// ErrRetrieval covers failures before generation: the query embedding call
	// or the chunk fetch. The user sees a generic try-again message.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrProvider covers a failed generation call. The provider's message is
	// surfaced with success=false; there is no automatic retry.
	ErrProvider = errors.New("generation provider error")
)

// FailureMessage is the generic user-facing text for retrieval failures.
const FailureMessage = "Something went wrong while searching your documents. Please try again."
