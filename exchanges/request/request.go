// Package request handles the building, dispatch and classification of
// authenticated exchange HTTP requests. The classifier turns raw
// transport/JSON/status outcomes into typed remote errors; it never retries
// — a failed call is reported to the caller, which decides what to do.
package request

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/trackfolio/exchangesync/exchanges/nonce"
	"github.com/trackfolio/exchangesync/log"
)

// New returns a new Requester
func New(name string, client *http.Client, opts ...RequesterOption) *Requester {
	r := &Requester{
		name:   name,
		client: client,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Name returns the service name the requester was initialised with
func (r *Requester) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// GetNonceMilli returns a millisecond epoch freshness token for request
// signing, monotonically non-decreasing across the lifetime of the requester
func (r *Requester) GetNonceMilli() nonce.Value {
	return r.nonce.GetMilli()
}

// SendPayload builds, dispatches and classifies one HTTP request. The
// response body is returned raw for callers that drive pagination off
// payload markers; when item.Result is set the body is additionally
// unmarshalled into it.
func (r *Requester) SendPayload(ctx context.Context, newRequest Generate) (json.RawMessage, error) {
	if r == nil {
		return nil, errRequestSystemIsNil
	}
	if newRequest == nil {
		return nil, errRequestFunctionIsNil
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s rate limit wait failed: %v", ErrRemote, r.name, err)
		}
	}

	item, err := newRequest()
	if err != nil {
		return nil, err
	}

	req, err := item.validateRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	if item.Verbose {
		log.Debugf(log.RequestSys, "%s request path: %s", r.name, item.Path)
		for k, d := range req.Header {
			log.Debugf(log.RequestSys, "%s request header [%s]: %s", r.name, k, d)
		}
		log.Debugf(log.RequestSys, "%s request type: %s", r.name, item.Method)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		// Transport failure: connection error or bounded timeout elapsed
		return nil, fmt.Errorf("%w: %s API request failed due to %v", ErrRemote, r.name, err)
	}
	defer resp.Body.Close()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s failed to read response body: %v", ErrRemote, r.name, err)
	}

	if item.Verbose {
		log.Debugf(log.RequestSys, "HTTP status: %s, Code: %v", resp.Status, resp.StatusCode)
		log.Debugf(log.RequestSys, "%s raw response: %s", r.name, string(contents))
	}

	// The body is parsed before the status is inspected; rejected statuses
	// commonly carry a structured error payload worth surfacing verbatim
	if !json.Valid(contents) {
		return nil, fmt.Errorf("%w: %s returned invalid JSON response", ErrRemote, r.name)
	}

	if !item.statusAccepted(resp.StatusCode) {
		if item.ErrorParser != nil {
			if apiErr := item.ErrorParser(resp.StatusCode, contents); apiErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrRemote, apiErr)
			}
		}
		return nil, fmt.Errorf("%w: %s api request for %s failed with HTTP status code %d",
			ErrRemote,
			r.name,
			item.Path,
			resp.StatusCode)
	}

	if item.RequireObject && !isJSONObject(contents) {
		return nil, fmt.Errorf("%w: %s returned invalid non-object response", ErrRemote, r.name)
	}

	if item.Result != nil {
		if err := json.Unmarshal(contents, item.Result); err != nil {
			return nil, fmt.Errorf("%w: %s unable to unmarshal response: %v", ErrRemote, r.name, err)
		}
	}
	return contents, nil
}

// validateRequest validates the requester item fields and builds the
// outbound request
func (i *Item) validateRequest(ctx context.Context, r *Requester) (*http.Request, error) {
	if i == nil {
		return nil, errRequestItemNil
	}
	if i.Path == "" {
		return nil, errInvalidPath
	}
	if i.Method != http.MethodGet && i.Method != http.MethodPost {
		return nil, fmt.Errorf("%w: %s", errInvalidMethod, i.Method)
	}

	req, err := http.NewRequestWithContext(ctx, i.Method, i.Path, i.Body)
	if err != nil {
		return nil, err
	}

	for k, v := range i.Headers {
		req.Header.Add(k, v)
	}

	if r.userAgent != "" && req.Header.Get(userAgent) == "" {
		req.Header.Add(userAgent, r.userAgent)
	}
	return req, nil
}

// statusAccepted reports whether the status code's body is treated as a
// parseable result for this exchange
func (i *Item) statusAccepted(status int) bool {
	if len(i.StatusAccepted) == 0 {
		return status == http.StatusOK
	}
	for _, s := range i.StatusAccepted {
		if s == status {
			return true
		}
	}
	return false
}

func isJSONObject(contents []byte) bool {
	for _, c := range contents {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
