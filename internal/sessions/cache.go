// Package sessions keeps logged in portal clients around so that repeated
// work for the same account does not go through the matrix login every time.
package sessions

import (
	"context"
	"errors"
	"time"
	"titechportal/internal/components/assert"
	"titechportal/internal/components/telemetry"
	"titechportal/pkg/portal"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	report_cache_hit     = "cache.hit"
	report_cache_miss    = "cache.miss"
	report_cache_stale   = "cache.stale"
	report_cache_probe   = "cache.probe"
	report_cache_login   = "cache.login"
	report_cache_factory = "cache.new-client"
)

type Options struct {
	// Size is the max number of accounts kept, 0 uses 256.
	Size int
	// TTL is how long a session is trusted before it is dropped, 0 uses 15 minutes.
	TTL time.Duration
}

// ClientFactory returns a new client with an empty session.
type ClientFactory func() (*portal.Client, error)

// Cache maps a username to a logged in client, every client has its own
// cookies so sessions of different accounts never mix.
type Cache struct {
	cache     *expirable.LRU[string, *portal.Client]
	group     *singleflight.Group
	newClient ClientFactory
	tel       telemetry.API
}

func NewCache(opts Options, newClient ClientFactory, tel telemetry.API) Cache {
	assert.NotNil(newClient)
	assert.NotNil(tel)

	if opts.Size <= 0 {
		opts.Size = 256
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Minute * 15
	}

	return Cache{
		cache:     expirable.NewLRU[string, *portal.Client](opts.Size, nil, opts.TTL),
		group:     &singleflight.Group{},
		newClient: newClient,
		tel:       telemetry.NewScopedAPI("sessions", tel),
	}
}

// Get returns a client logged in as `account`. A cached client is probed
// before it is returned, if the portal dropped its session a new client is
// logged in in its place.
//
// Concurrent calls for the same username share a single login, they all
// observe the context of the call that started it.
func (c Cache) Get(ctx context.Context, account portal.Account) (*portal.Client, error) {
	result, err, _ := c.group.Do(account.Username, func() (any, error) {
		return c.get(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return result.(*portal.Client), nil
}

func (c Cache) get(ctx context.Context, account portal.Account) (*portal.Client, error) {
	cached, hit := c.cache.Get(account.Username)
	if hit {
		loggedIn, err := cached.IsLoggedIn(ctx)
		if err != nil {
			c.tel.ReportWarning(report_cache_probe, account.Username, err)
		}
		if loggedIn {
			c.tel.ReportCount(report_cache_hit, 1)
			return cached, nil
		}
		c.tel.ReportCount(report_cache_stale, 1)
		c.cache.Remove(account.Username)
	} else {
		c.tel.ReportCount(report_cache_miss, 1)
	}

	client, err := c.newClient()
	if err != nil {
		c.tel.ReportBroken(report_cache_factory, err)
		return nil, err
	}
	err = client.Login(ctx, account)
	if err != nil && !errors.Is(err, portal.ErrAlreadyLoggedIn) {
		c.tel.ReportWarning(report_cache_login, account.Username, err)
		return nil, err
	}

	c.cache.Add(account.Username, client)
	return client, nil
}

// Evict drops the cached client of `username`, the next Get logs in again.
func (c Cache) Evict(username string) {
	c.cache.Remove(username)
}

// Len is the number of cached clients, expired entries are counted until
// the background purge removes them.
func (c Cache) Len() int {
	return c.cache.Len()
}
