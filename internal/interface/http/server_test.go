package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/physed-hub/phys-ed-journal/internal/domain/archive"
	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
)

func mustHash(t *testing.T, key string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.TeacherKeyHashes = []string{mustHash(t, "teacher-key")}
	cfg.AdminKeyHash = mustHash(t, "admin-key")
	return NewServer(cfg, Dependencies{})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestTeacherAuth(t *testing.T) {
	s := newTestServer(t)
	protected := s.teacherAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		key        string
		guid       string
		wantStatus int
	}{
		{"no key", "", "t-1", http.StatusUnauthorized},
		{"wrong key", "nope", "t-1", http.StatusUnauthorized},
		{"teacher key without guid", "teacher-key", "", http.StatusBadRequest},
		{"teacher key", "teacher-key", "t-1", http.StatusNoContent},
		{"admin key works too", "admin-key", "t-1", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", nil)
			if tt.key != "" {
				req.Header.Set("Authorization", "Bearer "+tt.key)
			}
			if tt.guid != "" {
				req.Header.Set(teacherGUIDHeader, tt.guid)
			}

			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAdminAuth_RejectsTeacherKey(t *testing.T) {
	s := newTestServer(t)
	protected := s.adminAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/semesters", nil)
	req.Header.Set("Authorization", "Bearer teacher-key")

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set("Authorization", "Bearer admin-key")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", student.ErrStudentNotFound, http.StatusNotFound, "not_found"},
		{"duplicate visit", &journal.VisitAlreadyExistsError{}, http.StatusConflict, "already_exists"},
		{"future date", &journal.ActionFromFutureError{}, http.StatusBadRequest, "date_in_future"},
		{"expired visit", &journal.VisitExpiredError{}, http.StatusBadRequest, "visit_expired"},
		{"inactive semester", semester.ErrSemesterNotFound, http.StatusNotFound, "not_found"},
		{"not enough points", &archive.NotEnoughPointsError{StudentGUID: "s1", TotalPoints: 31}, http.StatusConflict, "not_enough_points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp JSONResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleRecordVisit_BadBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	s.handleRecordVisit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_body")
}

func TestHandleRecordVisit_BadGUID(t *testing.T) {
	s := newTestServer(t)

	body := `{"student_guid": "not-a-uuid", "date": "2025-09-22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleRecordVisit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_student_guid")
}

func TestHandleRecordVisit_BadDate(t *testing.T) {
	s := newTestServer(t)

	body := `{"student_guid": "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b", "date": "22.09.2025"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleRecordVisit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_date")
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	rl.stop()
	rl.stop()

	// Допуск продолжает работать и после остановки фоновой очистки.
	assert.True(t, rl.Allow("10.0.0.2"))

	select {
	case <-rl.done:
	default:
		t.Fatal("done channel must be closed after stop")
	}
}

func TestHandleGetSemesterArchive_BadID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/semesters/abc/archive", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	s.handleGetSemesterArchive(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_semester_id")
}
