// Package pagination drives repeated dispatcher calls across result pages.
// Exchanges share no API contract guaranteeing exhaustiveness, so the
// termination rule is a per-exchange policy. Records accumulate strictly in
// arrival order; ordering and de-duplication concerns are resolved later by
// the consumer using (location, external id).
package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

var (
	errPolicyIsNil      = errors.New("pagination policy is nil")
	errDispatchIsNil    = errors.New("dispatch function is nil")
	errRecordKeysUnset  = errors.New("record keys unset")
	errRecordsNotFound  = errors.New("response missing records field")
	errMalformedMarkers = errors.New("malformed pagination markers")
)

// Dispatch requests a single page from the exchange. Implementations wrap
// the request dispatcher; any error aborts the whole fetch.
type Dispatch func(ctx context.Context, page int64) (json.RawMessage, error)

// Policy decides where pagination starts and whether it continues after
// inspecting a fetched page
type Policy interface {
	// Origin is the page number of the first request
	Origin() int64
	// Next returns the next page number to request, or ok=false to
	// terminate. current is the page number just fetched and records the
	// number of records it carried.
	Next(page json.RawMessage, current int64, records int) (next int64, ok bool, err error)
}

// Indexed continues while the response's current-page marker is below its
// last-page marker; the next request uses current+1. Responses without
// markers are treated as the entire result.
type Indexed struct {
	// StartPage is the exchange-defined page origin
	StartPage int64
	// CurrentKeys is the JSON key path of the current-page marker
	CurrentKeys []string
	// LastKeys is the JSON key path of the last-page marker
	LastKeys []string
}

// Origin implements the Policy interface
func (p Indexed) Origin() int64 {
	return p.StartPage
}

// Next implements the Policy interface
func (p Indexed) Next(page json.RawMessage, _ int64, _ int) (int64, bool, error) {
	current, err := jsonparser.GetInt(page, p.CurrentKeys...)
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			// No markers: the single page is the entire result
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %v", errMalformedMarkers, err)
	}
	last, err := jsonparser.GetInt(page, p.LastKeys...)
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %v", errMalformedMarkers, err)
	}
	if current >= last {
		return 0, false, nil
	}
	return current + 1, true, nil
}

// EmptySentinel terminates the moment a page returns zero records,
// regardless of any page-count markers
type EmptySentinel struct {
	// StartPage is the exchange-defined page origin
	StartPage int64
}

// Origin implements the Policy interface
func (p EmptySentinel) Origin() int64 {
	return p.StartPage
}

// Next implements the Policy interface
func (EmptySentinel) Next(_ json.RawMessage, current int64, records int) (int64, bool, error) {
	if records == 0 {
		return 0, false, nil
	}
	return current + 1, true, nil
}

// Fetcher accumulates raw records across pages using a termination policy
type Fetcher struct {
	// Policy is the exchange-specific termination rule
	Policy Policy
	// Dispatch performs the page request
	Dispatch Dispatch
	// RecordKeys is the JSON key path of the records array within a page
	RecordKeys []string
}

// FetchAll drives the dispatcher page by page and returns the concatenation
// of every page's records in arrival order. The contract is all-or-nothing:
// a dispatcher error on any page discards pages already accumulated.
// Cancellation is cooperative between iterations via the supplied context.
func (f *Fetcher) FetchAll(ctx context.Context) ([]json.RawMessage, error) {
	if f.Policy == nil {
		return nil, errPolicyIsNil
	}
	if f.Dispatch == nil {
		return nil, errDispatchIsNil
	}
	if len(f.RecordKeys) == 0 {
		return nil, errRecordKeysUnset
	}

	var records []json.RawMessage
	page := f.Policy.Origin()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := f.Dispatch(ctx, page)
		if err != nil {
			return nil, err
		}

		pageRecords, err := extractRecords(raw, f.RecordKeys)
		if err != nil {
			return nil, err
		}
		records = append(records, pageRecords...)

		next, ok, err := f.Policy.Next(raw, page, len(pageRecords))
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}
		page = next
	}
}

func extractRecords(raw json.RawMessage, keys []string) ([]json.RawMessage, error) {
	var records []json.RawMessage
	var cbErr error
	_, err := jsonparser.ArrayEach(raw, func(value []byte, _ jsonparser.ValueType, _ int, err error) {
		if err != nil && cbErr == nil {
			cbErr = err
			return
		}
		records = append(records, json.RawMessage(value))
	}, keys...)
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil, fmt.Errorf("%w: %q", errRecordsNotFound, keys)
		}
		return nil, err
	}
	if cbErr != nil {
		return nil, cbErr
	}
	return records, nil
}
