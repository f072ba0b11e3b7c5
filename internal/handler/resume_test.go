package handler_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/edtech-platform/internal/auth"
	"github.com/sakif/edtech-platform/internal/handler"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/resume"
)

// MockUploads records uploads in memory.
type MockUploads struct {
	Created []model.ResumeUpload
}

func (m *MockUploads) CreateUpload(ctx context.Context, u *model.ResumeUpload) error {
	m.Created = append(m.Created, *u)
	return nil
}

func (m *MockUploads) ListUploads(ctx context.Context, userID string) ([]model.ResumeUpload, error) {
	var out []model.ResumeUpload
	for _, u := range m.Created {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}

func newResumeHandler(t *testing.T, uploads *MockUploads) *handler.ResumeHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	screener := resume.NewScreener(resume.Config{
		ScreenURL: "http://127.0.0.1:1/unused",
		MaxBytes:  1024,
		UploadDir: t.TempDir(),
	}, uploads, logger)
	return handler.NewResumeHandler(screener, logger)
}

func resumeRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "cv.pdf")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: userID, Role: model.RoleUser}))
}

func TestResumeHandler_HandleUpload(t *testing.T) {
	t.Run("stores a valid pdf", func(t *testing.T) {
		uploads := &MockUploads{}
		h := newResumeHandler(t, uploads)

		rr := httptest.NewRecorder()
		h.HandleUpload(rr, withUser(resumeRequest(t, "file", []byte("%PDF-1.7 hello")), "u1"))

		assert.Equal(t, http.StatusCreated, rr.Code)
		require.Len(t, uploads.Created, 1)
		assert.Equal(t, "u1", uploads.Created[0].UserID)
		assert.Equal(t, "cv.pdf", uploads.Created[0].Filename)
	})

	t.Run("requires a signed-in user", func(t *testing.T) {
		h := newResumeHandler(t, &MockUploads{})

		rr := httptest.NewRecorder()
		h.HandleUpload(rr, resumeRequest(t, "file", []byte("%PDF-1.7 hello")))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong form field", func(t *testing.T) {
		uploads := &MockUploads{}
		h := newResumeHandler(t, uploads)

		rr := httptest.NewRecorder()
		h.HandleUpload(rr, withUser(resumeRequest(t, "resume", []byte("%PDF-1.7 hello")), "u1"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, uploads.Created)
	})

	t.Run("not multipart", func(t *testing.T) {
		h := newResumeHandler(t, &MockUploads{})
		req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		h.HandleUpload(rr, withUser(req, "u1"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("oversized", func(t *testing.T) {
		uploads := &MockUploads{}
		h := newResumeHandler(t, uploads)

		rr := httptest.NewRecorder()
		h.HandleUpload(rr, withUser(resumeRequest(t, "file", bytes.Repeat([]byte("%"), 4096)), "u1"))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Contains(t, rr.Body.String(), resume.TooLargeMessage)
		assert.Empty(t, uploads.Created)
	})
}
