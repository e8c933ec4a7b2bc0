// Package remotetest provides an in-memory storage provider speaking the
// subset of the Drive v3 REST surface used by package remote.
package remotetest

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Object is a stored file.
type Object struct {
	ID       string
	Name     string
	Data     []byte
	Modified time.Time
	Trashed  bool
}

// Server is a fake Drive. Its URL is the API root to hand to
// remote.NewClient.
type Server struct {
	URL string

	srv *httptest.Server

	mu       sync.Mutex
	objects  map[string]*Object
	seq      int
	clock    time.Time
	ops      []string
	failures map[string]int

	token        string
	deleteStatus int
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		objects:  map[string]*Object{},
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		failures: map[string]int{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	s.URL = s.srv.URL + "/"
	t.Cleanup(s.srv.Close)
	return s
}

// Put seeds an object and returns its id. Each call is stamped later than
// the previous one.
func (s *Server) Put(name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(name, data).ID
}

// RequireToken makes every request carry token as bearer.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetDeleteStatus overrides the status of successful deletes.
func (s *Server) SetDeleteStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteStatus = status
}

// Trash marks an object as trashed.
func (s *Server) Trash(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.objects[id]; ok {
		o.Trashed = true
	}
}

// Objects returns the stored objects, oldest first.
func (s *Server) Objects() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Object, 0, len(s.objects))
	for _, o := range s.objects {
		cp := *o
		cp.Data = append([]byte(nil), o.Data...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Modified.Before(out[j].Modified) })
	return out
}

// Ops returns the sequence of handled operations: list, upload, download,
// delete.
func (s *Server) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

// Fail makes the next call of op answer with status.
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = status
}

func (s *Server) put(name string, data []byte) *Object {
	s.seq++
	s.clock = s.clock.Add(time.Second)
	o := &Object{
		ID:       "file-" + strconv.Itoa(s.seq),
		Name:     name,
		Data:     append([]byte(nil), data...),
		Modified: s.clock,
	}
	s.objects[o.ID] = o
	return o
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
		writeError(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/files"):
		s.handle(w, "upload", func() { s.upload(w, r) })
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/files"):
		s.handle(w, "list", func() { s.list(w, r) })
	case r.Method == http.MethodGet && strings.Contains(path, "/files/"):
		s.handle(w, "download", func() { s.download(w, r, lastSegment(path)) })
	case r.Method == http.MethodDelete && strings.Contains(path, "/files/"):
		s.handle(w, "delete", func() { s.delete(w, lastSegment(path)) })
	default:
		writeError(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) handle(w http.ResponseWriter, op string, fn func()) {
	s.mu.Lock()
	s.ops = append(s.ops, op)
	status, fail := s.failures[op]
	delete(s.failures, op)
	s.mu.Unlock()

	if fail {
		writeError(w, status, fmt.Sprintf("injected %s failure", op))
		return
	}
	fn()
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if ut := r.URL.Query().Get("uploadType"); ut != "multipart" {
		writeError(w, http.StatusBadRequest, "unsupported uploadType "+ut)
		return
	}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		writeError(w, http.StatusBadRequest, "expected multipart body")
		return
	}

	mr := multipart.NewReader(r.Body, params["boundary"])
	metaPart, err := mr.NextPart()
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing metadata part")
		return
	}
	var meta struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(metaPart).Decode(&meta); err != nil {
		writeError(w, http.StatusBadRequest, "bad metadata")
		return
	}
	mediaPart, err := mr.NextPart()
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing media part")
		return
	}
	data, err := io.ReadAll(mediaPart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad media")
		return
	}

	s.mu.Lock()
	o := s.put(meta.Name, data)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"id": o.ID, "name": o.Name})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	marker := between(q.Get("q"), "name contains '", "'")
	excludeTrashed := strings.Contains(q.Get("q"), "trashed = false")
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	s.mu.Lock()
	var found []*Object
	for _, o := range s.objects {
		if marker != "" && !strings.Contains(o.Name, marker) {
			continue
		}
		if excludeTrashed && o.Trashed {
			continue
		}
		found = append(found, o)
	}
	s.mu.Unlock()

	if q.Get("orderBy") == "modifiedTime desc" {
		sort.Slice(found, func(i, j int) bool { return found[i].Modified.After(found[j].Modified) })
	}
	if pageSize > 0 && len(found) > pageSize {
		found = found[:pageSize]
	}

	files := make([]map[string]string, 0, len(found))
	for _, o := range found {
		files = append(files, map[string]string{
			"id":           o.ID,
			"name":         o.Name,
			"modifiedTime": o.Modified.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	o, ok := s.objects[id]
	var data []byte
	if ok {
		data = append([]byte(nil), o.Data...)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "File not found: "+id+".")
		return
	}
	if r.URL.Query().Get("alt") != "media" {
		writeJSON(w, http.StatusOK, map[string]string{"id": o.ID, "name": o.Name})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (s *Server) delete(w http.ResponseWriter, id string) {
	s.mu.Lock()
	_, ok := s.objects[id]
	delete(s.objects, id)
	status := s.deleteStatus
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "File not found: "+id+".")
		return
	}
	if status == 0 {
		status = http.StatusNoContent
	}
	w.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": msg},
	})
}

func lastSegment(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	rest := s[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return ""
	}
	return rest[:j]
}
