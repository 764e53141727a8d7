// Package api is the thin REST front over the workflow engine. Payloads
// map one-to-one onto service operations; error kinds map onto HTTP
// statuses. Anything heavier (auth issuance, file bytes) lives upstream.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/campusbook/classwork/internal/analytics"
	"github.com/campusbook/classwork/internal/assignment"
	"github.com/campusbook/classwork/internal/classroom"
	"github.com/campusbook/classwork/internal/metrics"
	"github.com/campusbook/classwork/internal/records"
	"github.com/campusbook/classwork/internal/submission"
)

type API struct {
	DB          *sql.DB
	Log         *zap.SugaredLogger
	Classrooms  *classroom.Service
	Assignments *assignment.Service
	Submissions *submission.Service
	Records     *records.Service
	Analytics   *analytics.Service
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", a.handleHealthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(a.withPrincipal)
		r.Use(newPrincipalLimiter().middleware)

		r.Post("/classrooms", a.handleCreateClassroom)
		r.Post("/classrooms/join", a.handleJoinClassroom)
		r.Post("/classrooms/{id}/students", a.handleAddStudent)
		r.Delete("/classrooms/{id}/students/{studentID}", a.handleRemoveStudent)
		r.Post("/classrooms/{id}/archive", a.handleArchiveClassroom)
		r.Get("/classrooms/{id}/gradebook", a.handleGradebook)

		r.Post("/assignments", a.handleCreateAssignment)
		r.Patch("/assignments/{id}", a.handleEditAssignment)
		r.Post("/assignments/{id}/publish", a.handlePublishAssignment)
		r.Post("/assignments/{id}/close", a.handleCloseAssignment)
		r.Delete("/assignments/{id}", a.handleDeleteAssignment)
		r.Post("/assignments/{id}/submit", a.handleSubmit)
		r.Get("/assignments/{id}/summary", a.handleAssignmentSummary)

		r.Post("/submissions/{id}/grade", a.handleGrade)
		r.Post("/submissions/{id}/return", a.handleReturnForRevision)

		r.Post("/records", a.handleCreateRecord)
		r.Put("/records/{id}", a.handleUpdateRecord)
		r.Get("/students/{id}/cgpa", a.handleCGPA)
		r.Get("/students/{id}/performance", a.handleStudentPerformance)

		r.Post("/notifications/telegram-link", a.handleLinkChat)

		r.Post("/admin/backup", a.handleBackup)
		r.Post("/admin/restore", a.handleRestore)
	})
	return r
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := a.DB.PingContext(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}

type HTTPServer struct {
	srv *http.Server
}

// StartHTTP serves the router and shuts down with the context.
func StartHTTP(ctx context.Context, addr string, handler http.Handler) *HTTPServer {
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		_ = srv.ListenAndServe()
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}
