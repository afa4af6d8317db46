package query

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so the term matches literally.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Predicate composes one AND over the present fields. The free-text search
// contributes a single OR group of ILIKE matches. An empty result matches all rows.
func (s *Spec) Predicate(f *Filter) sq.And {
	pred := sq.And{}

	for _, field := range s.Fields {
		v, ok := f.Values[field.Name]
		if !ok {
			continue
		}

		if field.Clause != nil {
			if c := field.Clause(v); c != nil {
				pred = append(pred, c)
			}
			continue
		}

		switch field.Kind {
		case KindExact:
			pred = append(pred, sq.Eq{field.Column: v.Text})
		case KindEnumSet, KindTokenSet:
			pred = append(pred, sq.Eq{field.Column: v.Tokens})
		case KindMin:
			pred = append(pred, sq.GtOrEq{field.Column: v.Number})
		case KindMax:
			pred = append(pred, sq.LtOrEq{field.Column: v.Number})
		}
	}

	if f.Search != "" && len(s.SearchColumns) > 0 {
		pattern := "%" + EscapeLike(f.Search) + "%"
		group := make(sq.Or, 0, len(s.SearchColumns))
		for _, col := range s.SearchColumns {
			group = append(group, sq.ILike{col: pattern})
		}
		pred = append(pred, group)
	}

	return pred
}

// applyWhere attaches pred to b unless it is empty.
func applyWhere(b sq.SelectBuilder, pred sq.And) sq.SelectBuilder {
	if len(pred) == 0 {
		return b
	}
	return b.Where(pred)
}
