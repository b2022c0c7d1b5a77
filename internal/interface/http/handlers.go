package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/physed-hub/phys-ed-journal/internal/application/command"
	"github.com/physed-hub/phys-ed-journal/internal/domain/archive"
	"github.com/physed-hub/phys-ed-journal/internal/domain/group"
	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
	"github.com/physed-hub/phys-ed-journal/pkg/logger"
	"github.com/physed-hub/phys-ed-journal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a domain failure to an HTTP status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	var notEnough *archive.NotEnoughPointsError
	if errors.As(err, &notEnough) {
		writeJSONError(w, http.StatusConflict, "not_enough_points", notEnough.Error())
		return
	}

	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, shared.ErrFutureDate):
		writeJSONError(w, http.StatusBadRequest, "date_in_future", err.Error())
	case errors.Is(err, shared.ErrExpired):
		writeJSONError(w, http.StatusBadRequest, "visit_expired", err.Error())
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsTransient(err):
		writeJSONError(w, http.StatusServiceUnavailable, "storage_unavailable", "Temporary storage failure, please retry")
	default:
		writeJSONError(w, http.StatusBadRequest, "bad_request", err.Error())
	}
}

// validGUID rejects malformed identifiers before they reach storage.
func validGUID(s string) bool {
	return uuid.Validate(s) == nil
}

// parseDate accepts "YYYY-MM-DD" and RFC 3339.
func parseDate(value string) (time.Time, error) {
	if d, err := timeutil.ParseDate(value); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, value)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")

	if s.deps.Summaries != nil {
		if summary, err := s.deps.Summaries.Get(r.Context(), guid); err == nil {
			writeJSON(w, http.StatusOK, summary)
			return
		}
	}

	summary, err := s.deps.GetStudentSummary.Handle(r.Context(), guid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.deps.Summaries != nil {
		if err := s.deps.Summaries.Set(r.Context(), summary); err != nil {
			s.log.Warn("summary cache write failed", logger.StudentGUID(guid), logger.Err(err))
		}
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetStudentHistory(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	history, err := s.deps.GetStudentHistory.Handle(r.Context(), guid, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetStudentArchive(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.deps.ListArchivedStudents.ByStudent(r.Context(), r.PathValue("guid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleGetSemesterArchive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_semester_id", "Semester ID must be an integer")
		return
	}

	snapshots, err := s.deps.ListArchivedStudents.BySemester(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Groups.GetAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// ══════════════════════════════════════════════════════════════════════════════
// TEACHER ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type recordVisitRequest struct {
	StudentGUID string `json:"student_guid"`
	Date        string `json:"date"`
}

func (s *Server) handleRecordVisit(w http.ResponseWriter, r *http.Request) {
	var req recordVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}
	if !validGUID(req.StudentGUID) {
		writeJSONError(w, http.StatusBadRequest, "invalid_student_guid", "Student GUID must be a valid UUID")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_date", "Date must be YYYY-MM-DD or RFC 3339")
		return
	}

	record, err := s.deps.RecordVisit.Handle(r.Context(), command.RecordVisitCommand{
		StudentGUID: req.StudentGUID,
		TeacherGUID: teacherGUID(r),
		Date:        date,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.log.Info("visit recorded",
		logger.StudentGUID(req.StudentGUID),
		logger.TeacherGUID(teacherGUID(r)),
	)
	s.invalidateSummary(r, req.StudentGUID)
	writeJSON(w, http.StatusCreated, record)
}

type recordPointsRequest struct {
	StudentGUID string `json:"student_guid"`
	Points      int    `json:"points"`
	Date        string `json:"date"`
	WorkType    string `json:"work_type"`
	Comment     string `json:"comment"`
}

func (s *Server) handleRecordPoints(w http.ResponseWriter, r *http.Request) {
	var req recordPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}
	if !validGUID(req.StudentGUID) {
		writeJSONError(w, http.StatusBadRequest, "invalid_student_guid", "Student GUID must be a valid UUID")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_date", "Date must be YYYY-MM-DD or RFC 3339")
		return
	}

	record, err := s.deps.RecordPoints.Handle(r.Context(), command.RecordPointsCommand{
		StudentGUID: req.StudentGUID,
		TeacherGUID: teacherGUID(r),
		Points:      req.Points,
		Date:        date,
		WorkType:    journal.WorkType(req.WorkType),
		Comment:     req.Comment,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.log.Info("points recorded",
		logger.StudentGUID(req.StudentGUID),
		logger.TeacherGUID(teacherGUID(r)),
		logger.Points(req.Points),
		logger.String("work_type", req.WorkType),
	)
	s.invalidateSummary(r, req.StudentGUID)
	writeJSON(w, http.StatusCreated, record)
}

type recordStandardsRequest struct {
	StudentGUID string `json:"student_guid"`
	Points      int    `json:"points"`
	Date        string `json:"date"`
	Comment     string `json:"comment"`
}

func (s *Server) handleRecordStandards(w http.ResponseWriter, r *http.Request) {
	var req recordStandardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}
	if !validGUID(req.StudentGUID) {
		writeJSONError(w, http.StatusBadRequest, "invalid_student_guid", "Student GUID must be a valid UUID")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_date", "Date must be YYYY-MM-DD or RFC 3339")
		return
	}

	record, err := s.deps.RecordStandards.Handle(r.Context(), command.RecordStandardsCommand{
		StudentGUID: req.StudentGUID,
		TeacherGUID: teacherGUID(r),
		Points:      req.Points,
		Date:        date,
		Comment:     req.Comment,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.log.Info("standards points recorded",
		logger.StudentGUID(req.StudentGUID),
		logger.TeacherGUID(teacherGUID(r)),
		logger.Points(req.Points),
	)
	s.invalidateSummary(r, req.StudentGUID)
	writeJSON(w, http.StatusCreated, record)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type archiveStudentRequest struct {
	Force bool `json:"force"`
}

func (s *Server) handleArchiveStudent(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")
	if !validGUID(guid) {
		writeJSONError(w, http.StatusBadRequest, "invalid_student_guid", "Student GUID must be a valid UUID")
		return
	}

	var req archiveStudentRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
			return
		}
	}

	archived, err := s.deps.ArchiveStudent.Handle(r.Context(), command.ArchiveStudentCommand{
		StudentGUID: guid,
		ForceMode:   req.Force,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateSummary(r, guid)
	writeJSON(w, http.StatusOK, archived)
}

type startSemesterRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleStartSemester(w http.ResponseWriter, r *http.Request) {
	var req startSemesterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	created, err := s.deps.StartSemester.Handle(r.Context(), command.StartSemesterCommand{Name: req.Name})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSyncStudents(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.SyncStudents.Handle(r.Context(), command.SyncStudentsCommand{})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_students": result.TotalStudents,
		"batches":        result.BatchCount,
		"failed_batches": result.FailedBatches,
	})
}

type createGroupRequest struct {
	GroupName   string  `json:"group_name"`
	VisitValue  float64 `json:"visit_value"`
	CuratorGUID string  `json:"curator_guid"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}
	if req.VisitValue == 0 {
		req.VisitValue = group.DefaultVisitValue
	}

	g, err := group.NewGroup(req.GroupName, req.VisitValue)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.CuratorGUID != "" {
		if err := g.AssignCurator(req.CuratorGUID); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	if err := s.deps.Groups.Create(r.Context(), g); err != nil {
		writeDomainError(w, err)
		return
	}

	s.log.Info("group created",
		logger.GroupName(req.GroupName),
		logger.Float64("visit_value", req.VisitValue),
	)
	writeJSON(w, http.StatusCreated, g)
}

type updateVisitValueRequest struct {
	VisitValue float64 `json:"visit_value"`
}

func (s *Server) handleUpdateVisitValue(w http.ResponseWriter, r *http.Request) {
	var req updateVisitValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}
	if req.VisitValue <= 0 {
		writeDomainError(w, group.ErrInvalidVisitValue)
		return
	}

	if err := s.deps.Groups.UpdateVisitValue(r.Context(), r.PathValue("name"), req.VisitValue); err != nil {
		writeDomainError(w, err)
		return
	}

	s.log.Info("group visit value updated",
		logger.GroupName(r.PathValue("name")),
		logger.Float64("visit_value", req.VisitValue),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"group_name":  r.PathValue("name"),
		"visit_value": req.VisitValue,
	})
}

// invalidateSummary drops the cached summary after a write.
func (s *Server) invalidateSummary(r *http.Request, studentGUID string) {
	if s.deps.Summaries == nil {
		return
	}
	if err := s.deps.Summaries.Invalidate(r.Context(), studentGUID); err != nil {
		s.log.Warn("summary cache invalidation failed", logger.StudentGUID(studentGUID), logger.Err(err))
	}
}
