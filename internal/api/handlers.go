package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/ctxutil"
	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/export"
	"github.com/campusbook/classwork/internal/models"
	"github.com/campusbook/classwork/internal/records"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.E(apperr.NotFound, "invalid %s", name)
	}
	return id, nil
}

func principal(r *http.Request) models.Principal {
	p, _ := ctxutil.Principal(r.Context())
	return p
}

// --- classrooms ---

type createClassroomReq struct {
	Name       string `json:"name" validate:"required"`
	Section    string `json:"section"`
	Department string `json:"department"`
}

func (a *API) handleCreateClassroom(w http.ResponseWriter, r *http.Request) {
	var req createClassroomReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	c, err := a.Classrooms.Create(r.Context(), principal(r).ID, req.Name, req.Section, req.Department)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, c)
}

type joinClassroomReq struct {
	Code string `json:"code" validate:"required,len=6"`
}

func (a *API) handleJoinClassroom(w http.ResponseWriter, r *http.Request) {
	var req joinClassroomReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	c, err := a.Classrooms.JoinByCode(r.Context(), principal(r).ID, req.Code)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, c)
}

type addStudentReq struct {
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
}

func (a *API) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	var req addStudentReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	if err := a.Classrooms.AddStudent(r.Context(), principal(r), id, req.StudentID); err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleRemoveStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	studentID, err := pathID(r, "studentID")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	if err := a.Classrooms.RemoveStudent(r.Context(), principal(r), id, studentID); err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleArchiveClassroom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	if err := a.Classrooms.Archive(r.Context(), principal(r), id); err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleGradebook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	c, err := a.Classrooms.Get(r.Context(), id)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	p := principal(r)
	if !p.IsAdmin() && p.ID != c.TeacherID {
		a.respondErr(w, apperr.E(apperr.Forbidden, "only the owning teacher may export the gradebook"))
		return
	}
	f, err := export.ClassroomGradebook(r.Context(), a.DB, id)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.GradebookFilename(c.Name)+`"`)
	if err := f.Write(w); err != nil {
		a.Log.Warnw("write gradebook", "err", err)
	}
}

// --- assignments ---

type assignmentReq struct {
	ClassroomID   int64     `json:"classroom_id" validate:"required,gt=0"`
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description"`
	Instructions  string    `json:"instructions"`
	AttachmentRef *string   `json:"attachment_ref"`
	DueAt         time.Time `json:"due_at" validate:"required"`
	MaxPoints     int       `json:"max_points" validate:"required,gt=0"`
}

func (req assignmentReq) update() models.AssignmentUpdate {
	return models.AssignmentUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Instructions:  req.Instructions,
		AttachmentRef: req.AttachmentRef,
		DueAt:         req.DueAt,
		MaxPoints:     req.MaxPoints,
	}
}

func (a *API) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	created, err := a.Assignments.Create(r.Context(), principal(r), req.ClassroomID, req.update())
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, created)
}

type editAssignmentReq struct {
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description"`
	Instructions  string    `json:"instructions"`
	AttachmentRef *string   `json:"attachment_ref"`
	DueAt         time.Time `json:"due_at" validate:"required"`
	MaxPoints     int       `json:"max_points" validate:"required,gt=0"`
}

func (a *API) handleEditAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	var req editAssignmentReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	u := models.AssignmentUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Instructions:  req.Instructions,
		AttachmentRef: req.AttachmentRef,
		DueAt:         req.DueAt,
		MaxPoints:     req.MaxPoints,
	}
	if err := a.Assignments.Edit(r.Context(), principal(r), id, u); err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}

type publishResp struct {
	Assignment any  `json:"assignment"`
	RosterSize int  `json:"roster_size"`
	Created    int  `json:"created"`
	Skipped    int  `json:"skipped"`
	Complete   bool `json:"complete"`
}

func (a *API) handlePublishAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	published, res, err := a.Assignments.Publish(r.Context(), principal(r), id)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, publishResp{
		Assignment: published,
		RosterSize: res.RosterSize,
		Created:    res.Created,
		Skipped:    res.Skipped,
		Complete:   res.Complete(),
	})
}

func (a *API) handleCloseAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	if err := a.Assignments.Close(r.Context(), principal(r), id); err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	if err := a.Assignments.Delete(r.Context(), principal(r), id); err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}

// --- submissions ---

type submitReq struct {
	Content       string  `json:"content"`
	AttachmentRef *string `json:"attachment_ref"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	var req submitReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	sub, err := a.Submissions.Submit(r.Context(), principal(r).ID, id, req.Content, req.AttachmentRef)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, sub)
}

type gradeReq struct {
	Grade    *int    `json:"grade" validate:"required"`
	Feedback *string `json:"feedback"`
}

func (a *API) handleGrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	var req gradeReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	sub, err := a.Submissions.Grade(r.Context(), principal(r), id, *req.Grade, req.Feedback)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, sub)
}

type returnReq struct {
	Feedback *string `json:"feedback"`
}

func (a *API) handleReturnForRevision(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	var req returnReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	sub, err := a.Submissions.ReturnForRevision(r.Context(), principal(r), id, req.Feedback)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, sub)
}

// --- analytics ---

func (a *API) handleAssignmentSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	sum, err := a.Analytics.AssignmentSummary(r.Context(), id)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, sum)
}

func (a *API) handleStudentPerformance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	p := principal(r)
	if !p.IsAdmin() && !p.IsTeacher() && p.ID != id {
		a.respondErr(w, apperr.E(apperr.Forbidden, "students may only view their own performance"))
		return
	}
	perf, err := a.Analytics.StudentPerformance(r.Context(), id)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, perf)
}

// --- notifications ---

type linkChatReq struct {
	ChatID int64 `json:"chat_id" validate:"required"`
}

// handleLinkChat records the caller's Telegram chat so the notifier can
// reach them. Unlinked users just never receive Telegram delivery.
func (a *API) handleLinkChat(w http.ResponseWriter, r *http.Request) {
	var req linkChatReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	if err := db.UpsertNotificationChat(ctx, a.DB, principal(r).ID, req.ChatID); err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}

// --- academic records ---

type subjectReq struct {
	Code          string  `json:"code" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	InternalMarks float64 `json:"internal_marks" validate:"gte=0,lte=100"`
	EndTermMarks  float64 `json:"end_term_marks" validate:"gte=0,lte=100"`
}

type createRecordReq struct {
	StudentID int64        `json:"student_id" validate:"required,gt=0"`
	Semester  int          `json:"semester" validate:"required,gt=0"`
	Subjects  []subjectReq `json:"subjects" validate:"required,min=1,dive"`
	Remarks   string       `json:"remarks"`
}

func toSubjectMarks(in []subjectReq) []records.SubjectMarks {
	out := make([]records.SubjectMarks, 0, len(in))
	for _, s := range in {
		out = append(out, records.SubjectMarks{
			Code:          s.Code,
			Name:          s.Name,
			InternalMarks: s.InternalMarks,
			EndTermMarks:  s.EndTermMarks,
		})
	}
	return out
}

func (a *API) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	p := principal(r)
	if !p.IsAdmin() && !p.IsTeacher() {
		a.respondErr(w, apperr.E(apperr.Forbidden, "only staff may enter academic records"))
		return
	}
	rec, err := a.Records.Create(r.Context(), req.StudentID, req.Semester, toSubjectMarks(req.Subjects), req.Remarks)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, rec)
}

type updateRecordReq struct {
	Subjects []subjectReq `json:"subjects" validate:"required,min=1,dive"`
	Remarks  string       `json:"remarks"`
}

func (a *API) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	var req updateRecordReq
	if err := a.decode(r, &req); err != nil {
		a.respondErr(w, err)
		return
	}
	p := principal(r)
	if !p.IsAdmin() && !p.IsTeacher() {
		a.respondErr(w, apperr.E(apperr.Forbidden, "only staff may update academic records"))
		return
	}
	rec, err := a.Records.Update(r.Context(), id, toSubjectMarks(req.Subjects), req.Remarks)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, rec)
}

type cgpaResp struct {
	StudentID int64   `json:"student_id"`
	CGPA      float64 `json:"cgpa"`
}

func (a *API) handleCGPA(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondErr(w, err)
		return
	}
	cgpa, err := a.Records.CGPAForStudent(r.Context(), id)
	if err != nil {
		a.respondErr(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, cgpaResp{StudentID: id, CGPA: cgpa})
}
