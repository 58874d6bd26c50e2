package indexer

// Outcome is the verdict on a failed indexing attempt.
type Outcome int

const (
	// OutcomeRetry returns the document to PENDING for another attempt.
	OutcomeRetry Outcome = iota + 1
	// OutcomeFail marks the document FAILED; no further attempts are made.
	OutcomeFail
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeRetry:
		return "retry"
	case OutcomeFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Decide determines what happens to a document after a failed attempt.
// failures is the consecutive failure count including the attempt that
// just failed. Below maxRetries the document goes back to PENDING; the
// maxRetries-th failure is permanent, so a document gets exactly
// maxRetries attempts. A non-positive maxRetries disables retries
// entirely.
//
// Decide is a pure function of its inputs so the retry policy can be
// tested without a ledger.
func Decide(failures, maxRetries int) Outcome {
	if maxRetries <= 0 {
		return OutcomeFail
	}
	if failures >= maxRetries {
		return OutcomeFail
	}
	return OutcomeRetry
}
