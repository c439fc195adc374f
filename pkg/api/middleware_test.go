package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittoexplorer/internal/ratelimiter"
	"github.com/marmos91/dittoexplorer/pkg/explorer"
	"github.com/marmos91/dittoexplorer/pkg/navigation"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu          sync.Mutex
	routes      []string
	statuses    []int
	inFlight    int
	rateLimited int
	uploaded    int64
}

func (m *recordingMetrics) RecordRequest(_, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route)
	m.statuses = append(m.statuses, status)
}

func (m *recordingMetrics) RecordRequestStart(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
}

func (m *recordingMetrics) RecordRequestEnd(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func (m *recordingMetrics) RecordRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited++
}

func (m *recordingMetrics) RecordUploadBytes(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded += n
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryMiddleware())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestMetricsMiddleware_RouteTemplate(t *testing.T) {
	m := &recordingMetrics{}
	router := gin.New()
	router.Use(MetricsMiddleware(m))
	router.GET("/entities/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for _, path := range []string{"/entities/a", "/entities/b", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, []string{"/entities/:id", "/entities/:id", unmatchedRoute}, m.routes)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusNotFound}, m.statuses)
	assert.Zero(t, m.inFlight)
}

func TestRateLimitMiddleware(t *testing.T) {
	m := &recordingMetrics{}
	router := gin.New()
	router.Use(RateLimitMiddleware(ratelimiter.NewKeyed(1, 2, time.Minute), m))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	send := func(remote string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"), "other clients keep their budget")
	assert.Equal(t, 1, m.rateLimited)
}

func TestServer_RateLimitEnabled(t *testing.T) {
	session := explorer.New(vfs.New(vfs.Seed()))
	srv := New(session, Config{
		Mode:      gin.TestMode,
		RateLimit: RateLimit{Enabled: true, RequestsPerSecond: 1, Burst: 1},
	}, nil)

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		codes[i] = w.Code
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestServer_NameAndAddr(t *testing.T) {
	srv := New(explorer.New(vfs.New(vfs.Seed())), Config{Mode: gin.TestMode}, nil)

	assert.Equal(t, "api server", srv.Name())
	assert.Equal(t, ":8080", srv.Addr())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: &vfs.ModelError{Code: vfs.ErrNotFound, Message: "x"}, status: http.StatusNotFound, code: "NotFound"},
		{name: "wrapped not found", err: fmt.Errorf("move: %w", &vfs.ModelError{Code: vfs.ErrNotFound}), status: http.StatusNotFound, code: "NotFound"},
		{name: "invalid parent", err: &vfs.ModelError{Code: vfs.ErrInvalidParent}, status: http.StatusConflict, code: "InvalidParent"},
		{name: "cycle", err: &vfs.ModelError{Code: vfs.ErrCycleDetected}, status: http.StatusConflict, code: "CycleDetected"},
		{name: "invalid name", err: &vfs.ModelError{Code: vfs.ErrInvalidName}, status: http.StatusUnprocessableEntity, code: "InvalidName"},
		{name: "invalid argument", err: &vfs.ModelError{Code: vfs.ErrInvalidArgument}, status: http.StatusUnprocessableEntity, code: "InvalidArgument"},
		{name: "tab not found", err: navigation.ErrTabNotFound, status: http.StatusNotFound, code: "TabNotFound"},
		{name: "last tab", err: navigation.ErrLastTab, status: http.StatusConflict, code: "LastTab"},
		{name: "trash view", err: explorer.ErrTrashView, status: http.StatusConflict, code: "TrashView"},
		{name: "no pending", err: explorer.ErrNoPending, status: http.StatusConflict, code: "NoPending"},
		{name: "bad request", err: badRequest(errors.New("bad json")), status: http.StatusBadRequest, code: "BadRequest"},
		{name: "unknown", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestEntryPath(t *testing.T) {
	tests := []struct {
		field, filename, want string
	}{
		{field: "file", filename: "a.txt", want: "a.txt"},
		{field: "", filename: "a.txt", want: "a.txt"},
		{field: "a.txt", filename: "a.txt", want: "a.txt"},
		{field: "docs/a.txt", filename: "a.txt", want: "docs/a.txt"},
		{field: "/docs/sub/", filename: "a.txt", want: "docs/sub/a.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, entryPath(tt.field, tt.filename), "field %q", tt.field)
	}
}

func TestToEntityDTO(t *testing.T) {
	e := vfs.Entity{
		ID:        "f1",
		ParentID:  "documents",
		Name:      "report.pdf",
		Kind:      vfs.KindPDF,
		SizeBytes: vfs.Int64(1500000),
		MediaRef:  "blob:s/1",
	}

	dto := toEntityDTO(e)

	assert.Equal(t, "pdf", dto.Kind)
	assert.Equal(t, "1.5 MB", dto.Size)
	assert.Equal(t, "/media/blob:s/1", dto.MediaURL)
	assert.False(t, dto.IsContainer)

	folder := toEntityDTO(vfs.Entity{ID: "d", Name: "D", Kind: vfs.KindFolder})
	assert.Empty(t, folder.Size)
	require.True(t, folder.IsContainer)
}
