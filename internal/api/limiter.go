package api

import (
	"net/http"
	"sync"

	"github.com/campusbook/classwork/internal/ctxutil"
)

// principalLimiter serializes mutating requests from the same principal.
// Lifecycle transitions are guarded in SQL either way; this just keeps a
// double-clicked publish or submit from burning a round trip on the
// losing side.
type principalLimiter struct {
	mu   sync.Mutex
	byID map[int64]*sync.Mutex
}

func newPrincipalLimiter() *principalLimiter {
	return &principalLimiter{byID: make(map[int64]*sync.Mutex)}
}

func (l *principalLimiter) lock(id int64) func() {
	l.mu.Lock()
	m, ok := l.byID[id]
	if !ok {
		m = &sync.Mutex{}
		l.byID[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }
}

func (l *principalLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		if p, ok := ctxutil.Principal(r.Context()); ok {
			defer l.lock(p.ID)()
		}
		next.ServeHTTP(w, r)
	})
}
