package oauth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sync"
	"sync/atomic"
)

// callback is what the provider redirect carried.
type callback struct {
	code string
	err  error
}

// callbackHandler accepts exactly one request on path. The first request
// resolves the flow; later ones get 410. The browser response is written
// only once the flow has an outcome.
type callbackHandler struct {
	path  string
	state string

	claimed  atomic.Bool
	received chan callback

	once    sync.Once
	done    chan struct{}
	outcome error
}

func newCallbackHandler(path, state string) *callbackHandler {
	return &callbackHandler{
		path:     path,
		state:    state,
		received: make(chan callback, 1),
		done:     make(chan struct{}),
	}
}

// finish records the flow outcome and releases any waiting request.
func (h *callbackHandler) finish(err error) {
	h.once.Do(func() {
		h.outcome = err
		close(h.done)
	})
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != h.path {
		http.NotFound(w, r)
		return
	}
	if !h.claimed.CompareAndSwap(false, true) {
		http.Error(w, "authorization already completed", http.StatusGone)
		return
	}

	q := r.URL.Query()
	cb := callback{code: q.Get("code")}
	switch {
	case subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(h.state)) != 1:
		cb.err = ErrStateMismatch
	case q.Get("error") != "":
		cb.err = fmt.Errorf("%w: %s", ErrAuthorizationDenied, q.Get("error"))
	case cb.code == "":
		cb.err = fmt.Errorf("%w: no authorization code", ErrAuthorizationDenied)
	}
	h.received <- cb

	select {
	case <-h.done:
	case <-r.Context().Done():
		return
	}
	writePage(w, h.outcome)
}

const pageTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>KOLP</title></head>
<body style="font-family:sans-serif;text-align:center;margin-top:4em">
<h2>%s</h2><p>%s</p></body></html>`

func writePage(w http.ResponseWriter, outcome error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if outcome == nil {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, pageTemplate, "Connected", "You can close this window and return to KOLP.")
		return
	}

	status := http.StatusBadRequest
	if errors.Is(outcome, ErrExchangeFailed) {
		status = http.StatusBadGateway
	}
	w.WriteHeader(status)
	fmt.Fprintf(w, pageTemplate, "Authorization failed", html.EscapeString(outcome.Error()))
}
