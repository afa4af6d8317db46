// Package client is the Go consumer of the listing API. The query string is
// the only state store: a Synchronizer reads and rewrites it through a
// Navigator, and a Binding fetches the envelope the current query names.
package client

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cafe-directory/internal/query"
)

const (
	keyPage     = query.ParamPage
	keyLimit    = query.ParamLimit
	keyOrderBy  = query.ParamOrderBy
	keyOrderDir = query.ParamOrderDir
	keySearch   = query.ParamSearch
	keyKeyword  = "keyword"
)

// preserved survive ClearFilters with no keys.
var preserved = map[string]bool{keyPage: true, keyLimit: true, keyOrderBy: true, keyOrderDir: true}

// reserved are never reported as filters.
var reserved = map[string]bool{
	keyPage: true, keyLimit: true, keyOrderBy: true, keyOrderDir: true, keySearch: true, keyKeyword: true,
}

// EncodeValue renders a filter value as one query parameter. ok is false for
// nil, "" and slices with no non-empty element, meaning the key must be removed.
func EncodeValue(v interface{}) (string, bool) {
	var s string
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		s = val
	case []string:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			if p != "" {
				parts = append(parts, p)
			}
		}
		s = strings.Join(parts, ",")
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		s = strings.Join(parts, ",")
	case []float64:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.FormatFloat(n, 'f', -1, 64)
		}
		s = strings.Join(parts, ",")
	case bool:
		s = strconv.FormatBool(val)
	default:
		return "", false
	}
	return s, s != ""
}

// DecodeValue reverses EncodeValue: comma lists become []string, numeric
// strings float64, anything else stays a string.
func DecodeValue(raw string) interface{} {
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return n
	}
	return raw
}

// EncodeQuery serializes q with sorted keys, leaving commas readable.
func EncodeQuery(q url.Values) string {
	return strings.ReplaceAll(q.Encode(), "%2C", ",")
}

// State is the listing view derived from a query string.
type State struct {
	Page    int
	Limit   int
	SortKey string
	SortDir string
	Search  string
	Filters map[string]interface{}
}

// StateOf derives State from q without touching it.
func StateOf(q url.Values) State {
	st := State{
		Page:    positiveOr(q.Get(keyPage), query.DefaultPage),
		Limit:   positiveOr(q.Get(keyLimit), query.DefaultLimit),
		SortKey: q.Get(keyOrderBy),
		SortDir: q.Get(keyOrderDir),
		Search:  q.Get(keySearch),
		Filters: make(map[string]interface{}),
	}
	if st.Search == "" {
		st.Search = q.Get(keyKeyword)
	}
	for key := range q {
		if reserved[key] {
			continue
		}
		st.Filters[key] = DecodeValue(q.Get(key))
	}
	return st
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Navigator owns the current location. Replace swaps the query in one step
// and must not block on whoever observes the change.
type Navigator interface {
	Query() url.Values
	Replace(q url.Values)
}

// MemoryNavigator is a Navigator holding the location in memory, standing in
// for a browser address bar.
type MemoryNavigator struct {
	mu          sync.RWMutex
	path        string
	query       url.Values
	replaces    int
	subscribers []chan struct{}
}

func NewMemoryNavigator(path string, q url.Values) *MemoryNavigator {
	return &MemoryNavigator{path: path, query: cloneValues(q)}
}

func (n *MemoryNavigator) Query() url.Values {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return cloneValues(n.query)
}

func (n *MemoryNavigator) Replace(q url.Values) {
	n.mu.Lock()
	n.query = cloneValues(q)
	n.replaces++
	subs := n.subscribers
	n.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel signalled after each Replace. Signals coalesce:
// a slow reader sees one pending signal, never a backlog.
func (n *MemoryNavigator) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subscribers = append(n.subscribers, ch)
	n.mu.Unlock()
	return ch
}

// Location returns path?query, or just the path when the query is empty.
func (n *MemoryNavigator) Location() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.query) == 0 {
		return n.path
	}
	return n.path + "?" + EncodeQuery(n.query)
}

// Replaces counts Replace calls.
func (n *MemoryNavigator) Replaces() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.replaces
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Synchronizer exposes the listing state held in a Navigator's query string.
// Mutators read, modify and replace under one lock so they are safe to issue
// back to back from several goroutines.
type Synchronizer struct {
	mu  sync.Mutex
	nav Navigator
}

func NewSynchronizer(nav Navigator) *Synchronizer {
	return &Synchronizer{nav: nav}
}

func (s *Synchronizer) Query() url.Values {
	return s.nav.Query()
}

func (s *Synchronizer) State() State {
	return StateOf(s.nav.Query())
}

// Filter returns the decoded value of one filter.
func (s *Synchronizer) Filter(key string) (interface{}, bool) {
	raw := s.nav.Query().Get(key)
	if raw == "" {
		return nil, false
	}
	return DecodeValue(raw), true
}

func (s *Synchronizer) SetPage(page int) {
	s.update(false, func(q url.Values) {
		q.Set(keyPage, strconv.Itoa(page))
	})
}

func (s *Synchronizer) SetLimit(limit int) {
	s.update(true, func(q url.Values) {
		q.Set(keyLimit, strconv.Itoa(limit))
	})
}

// SetSearch writes search and drops the legacy keyword alias.
func (s *Synchronizer) SetSearch(term string) {
	s.update(true, func(q url.Values) {
		q.Del(keyKeyword)
		if term == "" {
			q.Del(keySearch)
			return
		}
		q.Set(keySearch, term)
	})
}

// SetSort selects key ascending, or flips to descending when key is already
// the active ascending sort.
func (s *Synchronizer) SetSort(key string) {
	s.update(false, func(q url.Values) {
		dir := string(query.Asc)
		if q.Get(keyOrderBy) == key && q.Get(keyOrderDir) == string(query.Asc) {
			dir = string(query.Desc)
		}
		q.Set(keyOrderBy, key)
		q.Set(keyOrderDir, dir)
	})
}

func (s *Synchronizer) SetFilter(key string, value interface{}) {
	s.update(true, func(q url.Values) {
		setEncoded(q, key, value)
	})
}

// SetFilters applies several filters in one replace.
func (s *Synchronizer) SetFilters(values map[string]interface{}) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s.update(true, func(q url.Values) {
		for _, k := range keys {
			setEncoded(q, k, values[k])
		}
	})
}

// ClearFilters removes keys, or with no keys every parameter except paging
// and sorting.
func (s *Synchronizer) ClearFilters(keys ...string) {
	s.update(true, func(q url.Values) {
		if len(keys) > 0 {
			for _, k := range keys {
				q.Del(k)
			}
			return
		}
		for k := range q {
			if !preserved[k] {
				q.Del(k)
			}
		}
	})
}

func setEncoded(q url.Values, key string, value interface{}) {
	encoded, ok := EncodeValue(value)
	if !ok {
		q.Del(key)
		return
	}
	q.Set(key, encoded)
}

// update replaces the query with fn's result. A mutation that leaves the
// query unchanged does not navigate.
func (s *Synchronizer) update(resetPage bool, fn func(q url.Values)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.nav.Query()
	before := EncodeQuery(q)

	fn(q)
	if resetPage {
		q.Set(keyPage, strconv.Itoa(query.DefaultPage))
	}

	if EncodeQuery(q) == before {
		return
	}
	s.nav.Replace(q)
}
