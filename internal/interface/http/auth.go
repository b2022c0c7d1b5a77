package http

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Teacher identity travels in a header alongside the shared key: the
// journal records WHO marked a visit, bcrypt only proves the caller is a
// teacher at all.
const teacherGUIDHeader = "X-Teacher-GUID"

// teacherAuth requires a valid teacher (or admin) API key and a teacher
// GUID header.
func (s *Server) teacherAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "API key is required")
			return
		}

		if !s.isTeacherKey(key) && !s.isAdminKey(key) {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
			return
		}

		if r.Header.Get(teacherGUIDHeader) == "" {
			writeJSONError(w, http.StatusBadRequest, "missing_teacher_guid", teacherGUIDHeader+" header is required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// adminAuth requires the admin API key.
func (s *Server) adminAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "API key is required")
			return
		}

		if !s.isAdminKey(key) {
			writeJSONError(w, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) isTeacherKey(key string) bool {
	for _, hash := range s.config.TeacherKeyHashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
			return true
		}
	}
	return false
}

func (s *Server) isAdminKey(key string) bool {
	if s.config.AdminKeyHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.config.AdminKeyHash), []byte(key)) == nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

func teacherGUID(r *http.Request) string {
	return r.Header.Get(teacherGUIDHeader)
}
