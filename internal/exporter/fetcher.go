package exporter

import (
	"context"

	"github.com/avojak/pihole-influxdb/internal/pihole"
)

// Category identifies one metric category fetched from a Pi-hole per cycle.
type Category string

// Metric categories, one per upstream read call.
const (
	CategorySummary    Category = "summary"
	CategoryQueryTypes Category = "query_types"
	CategoryTopPermit  Category = "top_permitted_domains"
	CategoryTopBlocked Category = "top_blocked_domains"
	CategoryTopClients Category = "top_clients"
	CategoryUpstreams  Category = "upstreams"
	CategoryHistory    Category = "history"
	CategoryBlocking   Category = "blocking"
)

// Bundle is the transient set of raw responses for one instance within one
// polling cycle. Each category is a tagged result: either its pointer is set,
// or Failures records why it is absent. A Bundle never outlives its cycle.
type Bundle struct {
	Summary      *pihole.Summary
	QueryTypes   *pihole.QueryTypes
	TopPermitted *pihole.TopDomains
	TopBlocked   *pihole.TopDomains
	TopClients   *pihole.TopClients
	Upstreams    *pihole.Upstreams
	History      *pihole.History
	Blocking     *pihole.Blocking

	Failures map[Category]error
}

// fail records a category failure.
func (b *Bundle) fail(cat Category, err error) {
	if b.Failures == nil {
		b.Failures = make(map[Category]error)
	}
	b.Failures[cat] = err
}

// HasAuthFailure reports whether any category failed with a 401/403,
// signalling that the session is stale and one re-authentication should be
// attempted this tick.
func (b *Bundle) HasAuthFailure() bool {
	for _, err := range b.Failures {
		if pihole.IsAuthError(err) {
			return true
		}
	}
	return false
}

// Fetcher issues the fixed set of read calls for one instance and aggregates
// the results into a Bundle.
//
// Calls are independent: a failing category records its error and does not
// abort sibling calls. Each underlying request carries the client's bounded
// timeout, so a hung call costs at most that timeout and degrades only its
// own category.
type Fetcher struct {
	client        *pihole.Client
	numTopItems   int
	numTopClients int
}

// NewFetcher creates a Fetcher using the given API client and top-N bounds.
func NewFetcher(client *pihole.Client, numTopItems, numTopClients int) *Fetcher {
	return &Fetcher{
		client:        client,
		numTopItems:   numTopItems,
		numTopClients: numTopClients,
	}
}

// Fetch retrieves all metric categories for the instance using the given
// session ID. With an empty SID every category fails with
// pihole.ErrNoSession and the instance is effectively skipped for the cycle;
// the caller decides how loudly to log that.
func (f *Fetcher) Fetch(ctx context.Context, inst pihole.Instance, sid string) *Bundle {
	bundle := &Bundle{}

	if summary, err := f.client.Summary(ctx, inst, sid); err != nil {
		bundle.fail(CategorySummary, err)
	} else {
		bundle.Summary = summary
	}

	if types, err := f.client.QueryTypes(ctx, inst, sid); err != nil {
		bundle.fail(CategoryQueryTypes, err)
	} else {
		bundle.QueryTypes = types
	}

	if domains, err := f.client.TopDomains(ctx, inst, sid, f.numTopItems, false); err != nil {
		bundle.fail(CategoryTopPermit, err)
	} else {
		bundle.TopPermitted = domains
	}

	if domains, err := f.client.TopDomains(ctx, inst, sid, f.numTopItems, true); err != nil {
		bundle.fail(CategoryTopBlocked, err)
	} else {
		bundle.TopBlocked = domains
	}

	if clients, err := f.client.TopClients(ctx, inst, sid, f.numTopClients); err != nil {
		bundle.fail(CategoryTopClients, err)
	} else {
		bundle.TopClients = clients
	}

	if upstreams, err := f.client.Upstreams(ctx, inst, sid); err != nil {
		bundle.fail(CategoryUpstreams, err)
	} else {
		bundle.Upstreams = upstreams
	}

	if history, err := f.client.History(ctx, inst, sid); err != nil {
		bundle.fail(CategoryHistory, err)
	} else {
		bundle.History = history
	}

	if blocking, err := f.client.Blocking(ctx, inst, sid); err != nil {
		bundle.fail(CategoryBlocking, err)
	} else {
		bundle.Blocking = blocking
	}

	return bundle
}
