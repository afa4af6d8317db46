package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/query"
)

// Fetcher performs one GET and decodes the JSON body into out.
// *http.Client from internal/common/http satisfies it.
type Fetcher interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
}

// Key is the cache key of a listing request: endpoint plus the serialized
// query, without "?" when the query is empty.
func Key(endpoint string, q url.Values) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	encoded := EncodeQuery(q)
	if encoded == "" {
		return endpoint
	}
	return endpoint + "?" + encoded
}

// Result is what a Binding currently shows.
type Result[T any] struct {
	Data         []T
	Meta         query.Meta
	IsLoading    bool
	IsValidating bool
	Err          error
}

// Binding fetches the envelope for whatever query it was last given. It
// keeps showing the previous envelope while a new key loads, and only the
// most recent key's response is ever shown.
type Binding[T any] struct {
	fetcher  Fetcher
	endpoint string
	cache    *lru.Cache[string, *query.Envelope[T]]
	logger   logger.Logger

	mu         sync.Mutex
	key        string
	state      State
	generation uint64
	shown      *query.Envelope[T]
	err        error
	validating bool
	cancel     context.CancelFunc
	parent     context.Context
}

func NewBinding[T any](fetcher Fetcher, endpoint string, cacheSize int, log logger.Logger) (*Binding[T], error) {
	cache, err := lru.New[string, *query.Envelope[T]](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Binding[T]{
		fetcher:  fetcher,
		endpoint: endpoint,
		cache:    cache,
		logger:   log.WithFields(map[string]interface{}{"endpoint": endpoint}),
		parent:   context.Background(),
	}, nil
}

// Load points the binding at q. An unchanged key is a no-op; a new key shows
// its cached envelope if there is one and revalidates in the background.
// The returned channel closes when that fetch settles.
func (b *Binding[T]) Load(ctx context.Context, q url.Values) <-chan struct{} {
	key := Key(b.endpoint, q)

	b.mu.Lock()
	defer b.mu.Unlock()

	if key == b.key && (b.validating || b.shown != nil) {
		return closed()
	}

	b.key = key
	b.state = StateOf(q)
	b.parent = ctx
	b.err = nil
	if cached, ok := b.cache.Get(key); ok {
		b.shown = cached
	}
	return b.start()
}

// Revalidate refetches the current key. Failed reads are never retried on
// their own; this is how a caller retries.
func (b *Binding[T]) Revalidate() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.key == "" {
		return closed()
	}
	return b.start()
}

// Follow loads the navigator's query now and after every replace until ctx
// is done.
func (b *Binding[T]) Follow(ctx context.Context, nav *MemoryNavigator) {
	changes := nav.Subscribe()
	b.Load(ctx, nav.Query())
	for {
		select {
		case <-ctx.Done():
			b.Stop()
			return
		case <-changes:
			b.Load(ctx, nav.Query())
		}
	}
}

// Stop cancels the in-flight request, if any.
func (b *Binding[T]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.validating = false
}

func (b *Binding[T]) Snapshot() Result[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := Result[T]{
		Data:         []T{},
		Meta:         query.Meta{Page: b.state.Page, Limit: b.state.Limit},
		IsLoading:    b.validating && b.shown == nil,
		IsValidating: b.validating,
		Err:          b.err,
	}
	if b.shown != nil {
		res.Data = b.shown.Data
		res.Meta = b.shown.Meta
	}
	return res
}

// start must be called with b.mu held.
func (b *Binding[T]) start() <-chan struct{} {
	if b.cancel != nil {
		b.cancel()
	}

	b.generation++
	gen := b.generation
	key := b.key
	ctx, cancel := context.WithCancel(b.parent)
	b.cancel = cancel
	b.validating = true

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		env := &query.Envelope[T]{}
		err := b.fetcher.GetJSON(ctx, key, env)
		b.settle(gen, key, env, err)
	}()
	return done
}

func (b *Binding[T]) settle(gen uint64, key string, env *query.Envelope[T], err error) {
	if err == nil {
		if env.Data == nil {
			env.Data = []T{}
		}
		b.cache.Add(key, env)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		b.logger.Debug("Discarding superseded response", map[string]interface{}{"key": key})
		return
	}

	b.validating = false
	b.cancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		b.logger.Warn("Listing fetch failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		b.err = err
		return
	}

	b.shown = env
	b.err = nil
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
