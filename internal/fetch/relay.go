package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrRelayEnvelope is returned when a relay wraps the target in an envelope that reports failure.
var ErrRelayEnvelope = errors.New("relay envelope reports failure")

// Envelope is the JSON wrapper some relays return instead of raw HTML.
// Contents is nil when the relay could not fetch the target.
type Envelope struct {
	Contents *string         `json:"contents"`
	Status   *EnvelopeStatus `json:"status"`
}

// EnvelopeStatus carries the upstream response status as seen by the relay.
type EnvelopeStatus struct {
	URL      string `json:"url"`
	HTTPCode int    `json:"http_code"`
}

// RelayURL builds the request URL for a relay endpoint. Endpoints ending in "=" take the
// escaped target as a query value; any other endpoint gets the raw target appended.
func RelayURL(endpoint, target string) string {
	if strings.HasSuffix(endpoint, "=") {
		return endpoint + url.QueryEscape(target)
	}
	return endpoint + target
}

// UnwrapRelayBody returns the page body carried by a relay response. A JSON object with a
// contents or status field is an envelope: it is unwrapped, and an envelope with no contents
// or a non-2xx upstream status yields ErrRelayEnvelope. Any other body is returned as-is.
func UnwrapRelayBody(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return body, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return body, nil
	}
	_, hasContents := fields["contents"]
	_, hasStatus := fields["status"]
	if !hasContents && !hasStatus {
		return body, nil
	}

	var env Envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRelayEnvelope, err)
	}
	if env.Status != nil && env.Status.HTTPCode != 0 &&
		(env.Status.HTTPCode < 200 || env.Status.HTTPCode > 299) {
		return "", &Error{
			URL:        env.Status.URL,
			Message:    fmt.Sprintf("upstream HTTP status %d", env.Status.HTTPCode),
			StatusCode: env.Status.HTTPCode,
			Cause:      ErrRelayEnvelope,
		}
	}
	if env.Contents == nil || strings.TrimSpace(*env.Contents) == "" {
		return "", fmt.Errorf("%w: empty contents", ErrRelayEnvelope)
	}
	return *env.Contents, nil
}
