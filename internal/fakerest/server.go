// Package fakerest is a fake PostgREST (Supabase table API) backed by a local store.
//
// It understands the subset of the protocol the rest backend speaks: eq./is.null filters,
// select, order and limit on GET, inserts on POST, filtered PATCH and DELETE with
// return=representation, and the add_statistic rpc. Failures can be injected per request
// to exercise error handling.
package fakerest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/ray-remotestate/restro/database"
)

const prefix = "/rest/v1/"

// Request is what the server saw, recorded for assertions.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// Failure makes the next matching request answer with an error payload.
type Failure struct {
	Status  int
	Code    string
	Message string
}

type Server struct {
	store *database.Store

	mu       sync.Mutex
	requests []Request
	failures []Failure
}

func New(store *database.Store) *Server {
	return &Server{store: store}
}

// FailNext queues a failure for the next request.
func (s *Server) FailNext(f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})
	var fail *Failure
	if len(s.failures) > 0 {
		fail = &s.failures[0]
		s.failures = s.failures[1:]
	}
	s.mu.Unlock()

	if fail != nil {
		writeError(w, fail.Status, fail.Code, fail.Message)
		return
	}
	if r.Header.Get("apikey") == "" || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeError(w, http.StatusUnauthorized, "PGRST301", "missing api key")
		return
	}
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusNotFound, "PGRST000", "unknown path")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, prefix)
	if fn, ok := strings.CutPrefix(path, "rpc/"); ok {
		s.rpc(w, r, fn)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.get(w, r, path)
	case http.MethodPost:
		s.post(w, r, path)
	case http.MethodPatch:
		s.patch(w, r, path)
	case http.MethodDelete:
		s.delete(w, r, path)
	default:
		writeError(w, http.StatusMethodNotAllowed, "PGRST000", "method not allowed")
	}
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, table string) {
	q := r.URL.Query()
	in := database.Select(table)
	if sel := q.Get("select"); sel != "" && sel != "*" {
		in.Columns = strings.Split(sel, ",")
	}
	if order := q.Get("order"); order != "" {
		col, dir, _ := strings.Cut(order, ".")
		in.OrderBy(col, dir == "desc")
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "PGRST103", "invalid limit")
			return
		}
		in.Take(n)
	}
	if err := applyFilters(in, q); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}

	rows, err := s.store.Find(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) post(w http.ResponseWriter, r *http.Request, table string) {
	record, err := readRecord(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", err.Error())
		return
	}

	in := database.Insert(table)
	for col, v := range record {
		in.Value(col, v)
	}
	res, err := s.store.Exec(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	rows, err := s.store.Find(r.Context(), database.Select(table).Where("id", res.LastInsertID))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rows)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request, table string) {
	record, err := readRecord(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", err.Error())
		return
	}
	ids, ok := s.matching(w, r, table)
	if !ok {
		return
	}

	in := database.Update(table)
	for col, v := range record {
		in.Assign(col, v)
	}
	if err := applyFilters(in, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}
	if _, err := s.store.Exec(r.Context(), in); err != nil {
		writeStoreError(w, err)
		return
	}

	rows := []database.Row{}
	for _, id := range ids {
		row, err := s.store.First(r.Context(), database.Select(table).Where("id", id))
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, table string) {
	find := database.Select(table)
	if err := applyFilters(find, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}
	rows, err := s.store.Find(r.Context(), find)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	in := database.Delete(table)
	if err := applyFilters(in, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}
	if _, err := s.store.Exec(r.Context(), in); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// matching returns the ids of the rows a PATCH filter selects.
func (s *Server) matching(w http.ResponseWriter, r *http.Request, table string) ([]any, bool) {
	find := database.Select(table, "id")
	if err := applyFilters(find, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST100", err.Error())
		return nil, false
	}
	rows, err := s.store.Find(r.Context(), find)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	ids := make([]any, len(rows))
	for i, row := range rows {
		ids[i] = row["id"]
	}
	return ids, true
}

type statisticArgs struct {
	RestaurantID int64  `json:"p_restaurant_id"`
	Date         string `json:"p_date"`
	Counter      string `json:"p_counter"`
}

func (s *Server) rpc(w http.ResponseWriter, r *http.Request, fn string) {
	if fn != "add_statistic" || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "PGRST202", fmt.Sprintf("function %s not found", fn))
		return
	}

	var args statisticArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", err.Error())
		return
	}
	if !database.Counter(args.Counter).Valid() {
		writeError(w, http.StatusBadRequest, "P0001", "unknown counter "+args.Counter)
		return
	}

	query := fmt.Sprintf(`INSERT INTO statistics (restaurant_id, date, %[1]s) VALUES (?, ?, 1)
		ON CONFLICT(restaurant_id, date) DO UPDATE SET %[1]s = statistics.%[1]s + 1`, args.Counter)
	if _, err := s.store.Run(r.Context(), query, args.RestaurantID, args.Date); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var reserved = map[string]bool{"select": true, "order": true, "limit": true}

func applyFilters(in *database.Intent, q url.Values) error {
	for col, values := range q {
		if reserved[col] {
			continue
		}
		for _, v := range values {
			switch {
			case v == "is.null":
				in.Where(col, nil)
			case strings.HasPrefix(v, "eq."):
				in.Where(col, strings.TrimPrefix(v, "eq."))
			default:
				return fmt.Errorf("unsupported filter %s=%s", col, v)
			}
		}
	}
	return nil
}

func readRecord(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	if len(record) == 0 {
		return nil, errors.New("empty body")
	}
	return record, nil
}

func writeStoreError(w http.ResponseWriter, err error) {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		writeError(w, http.StatusConflict, "23505", msg)
		return
	}
	if strings.Contains(msg, "constraint failed") {
		writeError(w, http.StatusBadRequest, "23514", msg)
		return
	}
	writeError(w, http.StatusBadRequest, "PGRST000", msg)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
