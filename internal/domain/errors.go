package domain

import "errors"

// ErrorKind classifies pipeline failures for retry decisions and for the
// failure shape surfaced to callers. The kind travels unchanged from the
// component that produced it up through the coordinator to the workflow
// engine, which alone decides fatal versus non-fatal per stage.
type ErrorKind string

const (
	// ErrKindMalformedPayload indicates a bad input shape. Not retryable.
	ErrKindMalformedPayload ErrorKind = "MalformedPayload"

	// ErrKindConfigurationMissing indicates required configuration or a
	// weight entry is absent. Not retryable.
	ErrKindConfigurationMissing ErrorKind = "ConfigurationMissing"

	// ErrKindUpstreamUnavailable indicates a transient external failure.
	// Retried with bounded backoff before surfacing as a run failure.
	ErrKindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"

	// ErrKindAggregationFailure indicates invalid weights or scores.
	// Not retryable.
	ErrKindAggregationFailure ErrorKind = "AggregationFailure"

	// ErrKindNotificationFailure indicates the terminal notification failed.
	// Logged only; never fails the run.
	ErrKindNotificationFailure ErrorKind = "NotificationFailure"
)

// String returns the kind identifier.
func (k ErrorKind) String() string { return string(k) }

// Retryable reports whether failures of this kind warrant retry.
// Only transient upstream failures are retried.
func (k ErrorKind) Retryable() bool { return k == ErrKindUpstreamUnavailable }

// NonRetryableKinds lists the error kinds an activity retry policy must not
// retry, in the string form Temporal expects for NonRetryableErrorTypes.
func NonRetryableKinds() []string {
	return []string{
		ErrKindMalformedPayload.String(),
		ErrKindConfigurationMissing.String(),
		ErrKindAggregationFailure.String(),
		ErrKindNotificationFailure.String(),
	}
}

// Sentinel errors shared by collaborator implementations.
var (
	// ErrMissingCaseID indicates an envelope normalized to a fragment
	// without the required case identifier.
	ErrMissingCaseID = errors.New("missing caseId in payload")

	// ErrMissingDocumentRef indicates a start request without a document
	// reference.
	ErrMissingDocumentRef = errors.New("missing documentRef in payload")

	// ErrEmptyExtractedText indicates a document yielded no text; the run
	// must fail at the extraction boundary rather than score an empty case.
	ErrEmptyExtractedText = errors.New("document text extraction produced no text")

	// ErrWeightsNotFound indicates no weight entry exists for the
	// configured jurisdiction.
	ErrWeightsNotFound = errors.New("no weights found for jurisdiction")
)
