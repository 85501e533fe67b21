package analysis

import (
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/llm"
)

// retryableErr builds an application error tagged with an error kind the
// retry policy will retry.
func retryableErr(kind domain.ErrorKind, cause error, msg string) error {
	return temporal.NewApplicationError(msg, kind.String(), cause)
}

// nonRetryableErr builds an application error tagged with an error kind the
// retry policy must not retry.
func nonRetryableErr(kind domain.ErrorKind, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, kind.String(), cause)
}

// classifyErr wraps a prompt-fetch or completion failure with the retry
// behavior its error kind dictates.
func classifyErr(err error, msg string) error {
	kind := llm.Classify(err)
	if errors.Is(err, errTemplateMissing) {
		kind = domain.ErrKindConfigurationMissing
	}
	if kind.Retryable() {
		return retryableErr(kind, err, msg)
	}
	return nonRetryableErr(kind, err, msg)
}
