// Package query turns untrusted listing query strings into validated,
// paginated, sorted, multi-condition SQL reads and wraps the results in the
// {data, meta} envelope shared by every listing endpoint.
package query

import (
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
)

// Reserved query parameters understood by every listing endpoint.
const (
	ParamPage     = "page"
	ParamLimit    = "limit"
	ParamOrderBy  = "orderBy"
	ParamOrderDir = "orderDir"
	ParamSearch   = "search"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 100
)

// Kind is the semantic type of a filter field.
type Kind int

const (
	// KindExact matches a single value by equality.
	KindExact Kind = iota
	// KindEnumSet is a comma list whose tokens must belong to Field.Domain.
	KindEnumSet
	// KindTokenSet is a comma list of free-form tokens such as slugs.
	KindTokenSet
	// KindMin is an inclusive numeric lower bound.
	KindMin
	// KindMax is an inclusive numeric upper bound.
	KindMax
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindEnumSet:
		return "enum-set"
	case KindTokenSet:
		return "token-set"
	case KindMin:
		return "min"
	case KindMax:
		return "max"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field declares one recognized query parameter.
type Field struct {
	Name   string
	Kind   Kind
	Column string
	Domain []string
	// Clause overrides the default predicate for the field's kind.
	Clause func(Value) sq.Sqlizer
}

// Spec declares the filterable fields and sort keys of one listable entity.
type Spec struct {
	Entity        string
	IDColumn      string
	Fields        []Field
	SearchColumns []string
	SearchAliases []string
	SortColumns   map[string]string
	DefaultSort   string
}

func (s *Spec) sortKeys() []string {
	keys := make([]string, 0, len(s.SortColumns))
	for k := range s.SortColumns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Check reports declaration mistakes: duplicate or reserved field names,
// missing columns, enum sets without a domain and an unknown default sort.
func (s *Spec) Check() error {
	if s.Entity == "" {
		return fmt.Errorf("spec has no entity name")
	}
	if _, ok := s.SortColumns[s.DefaultSort]; !ok {
		return fmt.Errorf("%s: default sort %q is not in the sort whitelist", s.Entity, s.DefaultSort)
	}

	reserved := map[string]bool{
		ParamPage: true, ParamLimit: true, ParamOrderBy: true, ParamOrderDir: true, ParamSearch: true,
	}
	for _, alias := range s.SearchAliases {
		reserved[alias] = true
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if reserved[f.Name] {
			return fmt.Errorf("%s: field %q shadows a reserved parameter", s.Entity, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%s: duplicate field %q", s.Entity, f.Name)
		}
		seen[f.Name] = true
		if f.Column == "" && f.Clause == nil {
			return fmt.Errorf("%s: field %q has neither a column nor a clause", s.Entity, f.Name)
		}
		if f.Kind == KindEnumSet && len(f.Domain) == 0 {
			return fmt.Errorf("%s: enum-set field %q has an empty domain", s.Entity, f.Name)
		}
	}
	return nil
}

// Value is the decoded value of a present field.
type Value struct {
	Text   string
	Tokens []string
	Number float64
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a whitelisted public sort key and its direction.
type Sort struct {
	Key string
	Dir Direction
}

// Filter is a validated listing request: present field values, search term,
// sort and window.
type Filter struct {
	Values map[string]Value
	Search string
	Sort   Sort
	Page   int
	Limit  int
}

// NewFilter returns the filter an empty query string decodes to.
func (s *Spec) NewFilter() *Filter {
	return &Filter{
		Values: make(map[string]Value),
		Sort:   Sort{Key: s.DefaultSort, Dir: Desc},
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}
}

// Lookup returns a one-row filter matching field exactly; used for single-record reads.
func (s *Spec) Lookup(field, value string) *Filter {
	f := s.NewFilter()
	f.Values[field] = Value{Text: value}
	f.Limit = 1
	return f
}
