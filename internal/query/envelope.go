package query

// Meta describes the window a listing response covers.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Envelope is the {data, meta} body of every listing response.
type Envelope[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// NewEnvelope wraps one page of rows. Data is never nil so it encodes as [].
func NewEnvelope[T any](data []T, total int, f *Filter) *Envelope[T] {
	if data == nil {
		data = make([]T, 0)
	}
	return &Envelope[T]{
		Data: data,
		Meta: Meta{
			Total:      total,
			Page:       f.Page,
			Limit:      f.Limit,
			TotalPages: TotalPages(total, f.Limit),
		},
	}
}
