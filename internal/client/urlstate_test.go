package client

import (
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newSync(t *testing.T, raw string) (*Synchronizer, *MemoryNavigator) {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	nav := NewMemoryNavigator("/cafes", q)
	return NewSynchronizer(nav), nav
}

// ==========================
// Value Encoding
// ==========================

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"empty string", "", "", false},
		{"empty slice", []string{}, "", false},
		{"string", "sukabirus", "sukabirus", true},
		{"slice", []string{"wifi", "parking"}, "wifi,parking", true},
		{"slice of empties", []string{"", ""}, "", false},
		{"slice with gaps", []string{"", "wifi", "", "parking"}, "wifi,parking", true},
		{"int", 15000, "15000", true},
		{"zero", 0, "0", true},
		{"float", 4.5, "4.5", true},
		{"int slice", []int{1, 2}, "1,2", true},
		{"unsupported", struct{}{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EncodeValue(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		raw  string
		want interface{}
	}{
		{"wifi,parking", []string{"wifi", "parking"}},
		{"wifi,,parking,", []string{"wifi", "parking"}},
		{"15000", float64(15000)},
		{"4.5", 4.5},
		{"sukabirus", "sukabirus"},
		{"Infinity", "Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeValue(tt.raw))
		})
	}
}

func TestEncodeQuery_KeepsCommasReadable(t *testing.T) {
	q := url.Values{"facilities": {"wifi,parking"}, "search": {"kopi susu"}}
	assert.Equal(t, "facilities=wifi,parking&search=kopi+susu", EncodeQuery(q))
}

// ==========================
// State
// ==========================

func TestStateOf(t *testing.T) {
	q, err := url.ParseQuery("page=abc&limit=0&orderBy=rating&orderDir=asc&keyword=senja&region=sukabirus,sukapura&minPrice=10000&cafeType=indoor_cafe")
	require.NoError(t, err)

	st := StateOf(q)

	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 10, st.Limit)
	assert.Equal(t, "rating", st.SortKey)
	assert.Equal(t, "asc", st.SortDir)
	assert.Equal(t, "senja", st.Search)
	assert.Equal(t, map[string]interface{}{
		"region":   []string{"sukabirus", "sukapura"},
		"minPrice": float64(10000),
		"cafeType": "indoor_cafe",
	}, st.Filters)
}

func TestStateOf_SearchWinsOverKeyword(t *testing.T) {
	st := StateOf(url.Values{"search": {"latte"}, "keyword": {"mocha"}})
	assert.Equal(t, "latte", st.Search)
}

// ==========================
// Mutators
// ==========================

func TestSetFilter_RoundTrip(t *testing.T) {
	s, nav := newSync(t, "page=3")

	s.SetFilter("region", []string{"a", "b"})
	assert.Equal(t, "/cafes?page=1&region=a,b", nav.Location())
	got, ok := s.Filter("region")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	s.SetFilter("region", []string{})
	assert.Equal(t, "/cafes?page=1", nav.Location())
	replaces := nav.Replaces()

	s.SetFilter("region", nil)
	assert.Equal(t, "/cafes?page=1", nav.Location())
	assert.Equal(t, replaces, nav.Replaces(), "clearing an absent key must not navigate")

	s.SetFilter("region", []string{"", ""})
	assert.Equal(t, "/cafes?page=1", nav.Location())
	_, ok = s.Filter("region")
	assert.False(t, ok)
	assert.NotContains(t, s.State().Filters, "region")
}

func TestMutators_ResetPage(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Synchronizer)
		want   string
	}{
		{"search", func(s *Synchronizer) { s.SetSearch("senja") }, "limit=20&orderBy=name&orderDir=asc&page=1&region=sukabirus&search=senja"},
		{"clearing search drops keyword", func(s *Synchronizer) { s.SetSearch("") }, "limit=20&orderBy=name&orderDir=asc&page=1&region=sukabirus"},
		{"limit", func(s *Synchronizer) { s.SetLimit(50) }, "keyword=old&limit=50&orderBy=name&orderDir=asc&page=1&region=sukabirus"},
		{"filter", func(s *Synchronizer) { s.SetFilter("priceRange", "murah") }, "keyword=old&limit=20&orderBy=name&orderDir=asc&page=1&priceRange=murah&region=sukabirus"},
		{"page leaves the rest", func(s *Synchronizer) { s.SetPage(5) }, "keyword=old&limit=20&orderBy=name&orderDir=asc&page=5&region=sukabirus"},
		{"sort keeps page", func(s *Synchronizer) { s.SetSort("rating") }, "keyword=old&limit=20&orderBy=rating&orderDir=asc&page=3&region=sukabirus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSync(t, "page=3&limit=20&orderBy=name&orderDir=asc&region=sukabirus&keyword=old")
			tt.mutate(s)
			assert.Equal(t, tt.want, EncodeQuery(s.Query()))
		})
	}
}

func TestSetSort_Toggles(t *testing.T) {
	s, _ := newSync(t, "")

	s.SetSort("rating")
	assert.Equal(t, "asc", s.State().SortDir)

	s.SetSort("rating")
	assert.Equal(t, "desc", s.State().SortDir)

	s.SetSort("rating")
	assert.Equal(t, "asc", s.State().SortDir)

	s.SetSort("rating")
	s.SetSort("name")
	st := s.State()
	assert.Equal(t, "name", st.SortKey)
	assert.Equal(t, "asc", st.SortDir)
}

func TestSetFilters_SingleReplace(t *testing.T) {
	s, nav := newSync(t, "region=sukabirus")

	s.SetFilters(map[string]interface{}{
		"region":     nil,
		"facilities": []string{"wifi", "musholla"},
		"minPrice":   10000,
	})

	assert.Equal(t, 1, nav.Replaces())
	assert.Equal(t, "facilities=wifi,musholla&minPrice=10000&page=1", EncodeQuery(s.Query()))
}

func TestClearFilters(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		s, _ := newSync(t, "page=4&limit=25&orderBy=price&orderDir=desc&search=kopi&region=sukabirus&terms=no-smoking")
		s.ClearFilters()
		assert.Equal(t, "limit=25&orderBy=price&orderDir=desc&page=1", EncodeQuery(s.Query()))
	})

	t.Run("named keys", func(t *testing.T) {
		s, _ := newSync(t, "page=4&search=kopi&region=sukabirus&terms=no-smoking")
		s.ClearFilters("region", "absent")
		assert.Equal(t, "page=1&search=kopi&terms=no-smoking", EncodeQuery(s.Query()))
	})

	t.Run("twice is a no-op", func(t *testing.T) {
		s, nav := newSync(t, "region=sukabirus")
		s.ClearFilters()
		n := nav.Replaces()
		s.ClearFilters()
		assert.Equal(t, n, nav.Replaces())
	})
}

func TestSynchronizer_ConcurrentMutations(t *testing.T) {
	s, _ := newSync(t, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetFilter(fmt.Sprintf("f%d", i), i+1)
		}(i)
	}
	wg.Wait()

	st := s.State()
	assert.Len(t, st.Filters, 20)
	assert.Equal(t, 1, st.Page)
}

func TestMemoryNavigator_SubscribeCoalesces(t *testing.T) {
	nav := NewMemoryNavigator("/reviews", nil)
	ch := nav.Subscribe()

	nav.Replace(url.Values{"page": {"2"}})
	nav.Replace(url.Values{"page": {"3"}})

	<-ch
	select {
	case <-ch:
		t.Fatal("expected signals to coalesce")
	default:
	}
	assert.Equal(t, "/reviews?page=3", nav.Location())
}
