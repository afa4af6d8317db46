package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	apperrors "cafe-directory/internal/common/errors"
)

// ValidationErrors lists every offending query parameter of a rejected request.
type ValidationErrors []apperrors.FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid query parameters: " + strings.Join(parts, "; ")
}

// StandardError converts the list into the VALIDATION_FAILED error written at the boundary.
func (v ValidationErrors) StandardError() *apperrors.StandardError {
	return apperrors.NewValidationError("Invalid parameters", []apperrors.FieldError(v))
}

func (v *ValidationErrors) add(field, format string, args ...interface{}) {
	*v = append(*v, apperrors.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Decode validates raw query values against the entity's declared fields. Unknown keys are ignored.
// Any invalid reserved parameter or enum token rejects the whole query.
func (s *Spec) Decode(values url.Values) (*Filter, error) {
	var errs ValidationErrors
	f := s.NewFilter()

	if raw, ok := param(values, ParamPage); ok {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.add(ParamPage, "must be an integer")
		case n < DefaultPage:
			errs.add(ParamPage, "must be at least %d", DefaultPage)
		default:
			f.Page = n
		}
	}

	if raw, ok := param(values, ParamLimit); ok {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.add(ParamLimit, "must be an integer")
		case n < MinLimit || n > MaxLimit:
			errs.add(ParamLimit, "must be between %d and %d", MinLimit, MaxLimit)
		default:
			f.Limit = n
		}
	}

	if raw, ok := param(values, ParamOrderBy); ok {
		key := strings.ToLower(raw)
		if _, known := s.SortColumns[key]; known {
			f.Sort.Key = key
		} else {
			errs.add(ParamOrderBy, "must be one of: %s", strings.Join(s.sortKeys(), ", "))
		}
	}

	if raw, ok := param(values, ParamOrderDir); ok {
		switch Direction(strings.ToLower(raw)) {
		case Asc:
			f.Sort.Dir = Asc
		case Desc:
			f.Sort.Dir = Desc
		default:
			errs.add(ParamOrderDir, "must be one of: asc, desc")
		}
	}

	for _, key := range append([]string{ParamSearch}, s.SearchAliases...) {
		if raw, ok := param(values, key); ok {
			f.Search = raw
			break
		}
	}

	for _, field := range s.Fields {
		raw, ok := param(values, field.Name)
		if !ok {
			continue
		}

		switch field.Kind {
		case KindExact:
			f.Values[field.Name] = Value{Text: raw}

		case KindEnumSet, KindTokenSet:
			tokens := splitTokens(raw)
			if len(tokens) == 0 {
				continue
			}
			if field.Kind == KindEnumSet {
				if bad := outsideDomain(tokens, field.Domain); len(bad) > 0 {
					errs.add(field.Name, "invalid value %s, expected one of: %s",
						strings.Join(bad, ", "), strings.Join(field.Domain, ", "))
					continue
				}
			}
			f.Values[field.Name] = Value{Tokens: tokens}

		case KindMin, KindMax:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
				continue
			}
			f.Values[field.Name] = Value{Number: n}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return f, nil
}

// param returns the trimmed value of key, merging repeated keys with commas.
// Empty values are reported as absent.
func param(values url.Values, key string) (string, bool) {
	raw, ok := values[key]
	if !ok {
		return "", false
	}
	v := strings.TrimSpace(strings.Join(raw, ","))
	return v, v != ""
}

// splitTokens splits a comma list, trimming and lowercasing each token and
// dropping empty and repeated ones.
func splitTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.TrimSpace(p))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tokens = append(tokens, t)
	}
	return tokens
}

func outsideDomain(tokens, domain []string) []string {
	var bad []string
	for _, t := range tokens {
		found := false
		for _, d := range domain {
			if t == d {
				found = true
				break
			}
		}
		if !found {
			bad = append(bad, t)
		}
	}
	return bad
}
