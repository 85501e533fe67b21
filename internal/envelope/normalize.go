// Package envelope normalizes the invocation envelopes accepted by the
// scoring pipeline into canonical case-context fragments. Upstream callers
// wrap the same payload in several shapes (API-gateway body strings, task
// invocation Payload strings, structured Payload objects, or bare fragments);
// every stage consumes only the canonical form produced here.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
)

// ErrMalformed indicates an envelope that could not be reduced to a
// canonical fragment. Callers map it to the MalformedPayload error kind,
// which is never retried.
var ErrMalformed = errors.New("malformed payload envelope")

// maxDepth bounds envelope unwrapping. Every accepted shape strictly
// descends, so legitimate envelopes nest only a couple of levels.
const maxDepth = 8

// Unwrap reduces an envelope to its innermost JSON object by applying the
// accepted shapes in precedence order:
//
//  1. a string-encoded JSON body under a "body" key — parse and recurse;
//  2. a "Payload" key holding string-encoded JSON — parse and recurse;
//  3. a "Payload" key holding a structured object — descend into it;
//  4. otherwise the input itself is the fragment.
func Unwrap(raw []byte) (json.RawMessage, error) {
	return unwrap(raw, 0)
}

func unwrap(raw []byte, depth int) (json.RawMessage, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting exceeds %d levels", ErrMalformed, maxDepth)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if body, ok := probe["body"]; ok {
		var encoded string
		if err := json.Unmarshal(body, &encoded); err == nil {
			return unwrap([]byte(encoded), depth+1)
		}
	}

	if payload, ok := probe["Payload"]; ok {
		var encoded string
		if err := json.Unmarshal(payload, &encoded); err == nil {
			return unwrap([]byte(encoded), depth+1)
		}
		if bytes.HasPrefix(bytes.TrimSpace(payload), []byte("{")) {
			return unwrap(payload, depth+1)
		}
	}

	return json.RawMessage(trimmed), nil
}

// Normalize converts a single envelope of any accepted shape into a
// canonical case-context fragment. Equivalent content produces an identical
// fragment regardless of the envelope shape it arrived in.
func Normalize(raw []byte) (domain.CaseContext, error) {
	inner, err := Unwrap(raw)
	if err != nil {
		return domain.CaseContext{}, err
	}

	var frag domain.CaseContext
	if err := json.Unmarshal(inner, &frag); err != nil {
		return domain.CaseContext{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	frag.CaseSummary = unwrapSummary(frag.CaseSummary)
	return frag, nil
}

// RequireIdentity verifies that a normalized fragment carries the fields a
// run cannot start without. A violation is a MalformedPayload input error.
func RequireIdentity(frag domain.CaseContext) error {
	if frag.CaseID == "" {
		return fmt.Errorf("%w: %w", ErrMalformed, domain.ErrMissingCaseID)
	}
	if frag.DocumentRef.IsZero() {
		return fmt.Errorf("%w: %w", ErrMalformed, domain.ErrMissingDocumentRef)
	}
	return nil
}

// unwrapSummary tolerates one level of double-encoded case summaries: a
// summary that is itself valid JSON containing a "caseSummary" key is
// unwrapped once. Anything that fails to parse stays the literal value;
// this never raises.
func unwrapSummary(summary string) string {
	if summary == "" {
		return summary
	}
	var inner struct {
		CaseSummary *string `json:"caseSummary"`
	}
	if err := json.Unmarshal([]byte(summary), &inner); err == nil && inner.CaseSummary != nil {
		return *inner.CaseSummary
	}
	return summary
}
