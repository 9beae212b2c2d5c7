package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/0glabs/storage-ops/hashing"
	"github.com/0glabs/storage-ops/history"
)

// InsertRequest carries either a digest or raw data to hash into one.
type InsertRequest struct {
	Digest *history.Digest `json:"digest,omitempty"`
	Data   *hexutil.Bytes  `json:"data,omitempty"`
}

// DigestResponse is a digest and its logical index.
type DigestResponse struct {
	Index  uint64         `json:"index"`
	Digest history.Digest `json:"digest"`
}

// DigestListResponse is a page of the live window.
type DigestListResponse struct {
	FirstIndex uint64           `json:"first_index"`
	NextIndex  uint64           `json:"next_index"`
	Digests    []DigestResponse `json:"digests"`
}

// AvailableResponse answers an availability query.
type AvailableResponse struct {
	Index     uint64 `json:"index"`
	Available bool   `json:"available"`
}

// ContainsResponse answers a membership query.
type ContainsResponse struct {
	Digest   history.Digest `json:"digest"`
	Contains bool           `json:"contains"`
}

// StatusResponse describes the live window.
type StatusResponse struct {
	Name       string `json:"name"`
	Storage    string `json:"storage"`
	Capacity   uint64 `json:"capacity"`
	FirstIndex uint64 `json:"first_index"`
	NextIndex  uint64 `json:"next_index"`
	Size       uint64 `json:"size"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func indexParam(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: index '%s' is not an unsigned integer", ErrBadRequest, raw)
	}
	return index, nil
}

func (a *HistoryAPI) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		HumanReadableJsonErrorHandler(w, r, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	var d history.Digest
	switch {
	case req.Digest != nil && req.Data == nil:
		d = *req.Digest
	case req.Data != nil && req.Digest == nil:
		d = hashing.Digest(*req.Data)
	default:
		HumanReadableJsonErrorHandler(w, r, fmt.Errorf("%w: exactly one of digest and data is required", ErrBadRequest))
		return
	}

	index, err := a.Insert(r.Context(), d)
	if err != nil {
		HumanReadableJsonErrorHandler(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DigestResponse{Index: index, Digest: d})
}

func (a *HistoryAPI) handleAt(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		HumanReadableJsonErrorHandler(w, r, err)
		return
	}
	d, err := a.store.At(index)
	if err != nil {
		a.metrics.Lookup("at", "miss")
		HumanReadableJsonErrorHandler(w, r, err)
		return
	}
	a.metrics.Lookup("at", "hit")
	writeJSON(w, http.StatusOK, DigestResponse{Index: index, Digest: d})
}

func (a *HistoryAPI) handleList(w http.ResponseWriter, r *http.Request) {
	p, err := NewPagination(r)
	if err != nil {
		HumanReadableJsonErrorHandler(w, r, err)
		return
	}
	first, next, digests := a.store.Range(p.Offset, p.Limit)
	resp := DigestListResponse{
		FirstIndex: first,
		NextIndex:  next,
		Digests:    make([]DigestResponse, 0, len(digests)),
	}
	lo := first + p.Offset
	for i, d := range digests {
		resp.Digests = append(resp.Digests, DigestResponse{Index: lo + uint64(i), Digest: d})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *HistoryAPI) handleAvailable(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		HumanReadableJsonErrorHandler(w, r, err)
		return
	}
	available := a.store.Available(index)
	a.metrics.Lookup("available", strconv.FormatBool(available))
	writeJSON(w, http.StatusOK, AvailableResponse{Index: index, Available: available})
}

func (a *HistoryAPI) handleContains(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "digest")
	d, err := history.ParseDigest(raw)
	if err != nil {
		HumanReadableJsonErrorHandler(w, r, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	contains := a.store.Contains(d)
	a.metrics.Lookup("contains", strconv.FormatBool(contains))
	writeJSON(w, http.StatusOK, ContainsResponse{Digest: d, Contains: contains})
}

func (a *HistoryAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	capacity, first, next := a.store.Status()
	writeJSON(w, http.StatusOK, StatusResponse{
		Name:       a.name,
		Storage:    a.backend.Name(),
		Capacity:   capacity,
		FirstIndex: first,
		NextIndex:  next,
		Size:       next - first,
	})
}
