package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	limitKey  = "limit"
	offsetKey = "offset"

	DefaultLimit  = uint64(100)
	DefaultOffset = uint64(0)

	MaximumLimit = uint64(1000)
)

// Pagination selects a page of the live window. Offset counts from the
// first available index.
type Pagination struct {
	Limit  uint64
	Offset uint64
}

// NewPagination extracts pagination parameters from an http request.
func NewPagination(r *http.Request) (Pagination, error) {
	values := r.URL.Query()
	p := Pagination{Limit: DefaultLimit, Offset: DefaultOffset}

	var err error
	if v := values.Get(limitKey); v != "" {
		if p.Limit, err = strconv.ParseUint(v, 10, 64); err != nil {
			return p, fmt.Errorf("%w: limit '%s'", ErrBadRequest, v)
		}
	}
	if p.Limit > MaximumLimit {
		p.Limit = MaximumLimit
	}
	if v := values.Get(offsetKey); v != "" {
		if p.Offset, err = strconv.ParseUint(v, 10, 64); err != nil {
			return p, fmt.Errorf("%w: offset '%s'", ErrBadRequest, v)
		}
	}
	return p, nil
}
