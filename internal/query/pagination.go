package query

import (
	sq "github.com/Masterminds/squirrel"
)

// Offset returns the number of rows skipped before page.
func Offset(page, limit int) uint64 {
	if page < 1 || limit < 1 {
		return 0
	}
	return uint64(page-1) * uint64(limit)
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit < 1 || total < 1 {
		return 0
	}
	return (total + limit - 1) / limit
}

// OrderBy resolves srt through the whitelist and appends the id tie-break.
// Unknown keys fall back to the default sort.
func (s *Spec) OrderBy(srt Sort) []string {
	col, ok := s.SortColumns[srt.Key]
	if !ok {
		col = s.SortColumns[s.DefaultSort]
	}

	dir := "DESC"
	if srt.Dir == Asc {
		dir = "ASC"
	}

	clauses := []string{col + " " + dir}
	if s.IDColumn != "" && s.IDColumn != col {
		clauses = append(clauses, s.IDColumn+" ASC")
	}
	return clauses
}

// Window applies sort, limit and offset to b.
func (s *Spec) Window(b sq.SelectBuilder, f *Filter) sq.SelectBuilder {
	return b.
		OrderBy(s.OrderBy(f.Sort)...).
		Limit(uint64(f.Limit)).
		Offset(Offset(f.Page, f.Limit))
}
