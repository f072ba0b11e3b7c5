// Package resume validates, stores and screens uploaded resumes.
//
// Screening forwards the PDF to an external ATS-style scoring API, once per
// request. Failures surface as a 502 and the user retries by resubmitting.
package resume

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
)

const (
	// DefaultMaxBytes is the 20MB upload ceiling.
	DefaultMaxBytes int64 = 20 << 20

	TooLargeMessage = "File should be less than 20MB"
)

// CheckSize rejects uploads larger than maxBytes with the message users see.
func CheckSize(size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if size > maxBytes {
		return apperror.TooLarge("file", TooLargeMessage)
	}
	return nil
}

// Validate checks size first, so an oversized upload is rejected without
// reading it, then requires a PDF by extension or magic bytes.
func Validate(filename string, size, maxBytes int64, head []byte) error {
	if err := CheckSize(size, maxBytes); err != nil {
		return err
	}
	if size == 0 {
		return apperror.ValidationFailed("file", "file is empty")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") && !bytes.HasPrefix(head, []byte("%PDF")) {
		return apperror.ValidationFailed("file", "only PDF resumes are accepted")
	}
	return nil
}

// UploadRepository records every stored resume.
type UploadRepository interface {
	CreateUpload(ctx context.Context, upload *model.ResumeUpload) error
	ListUploads(ctx context.Context, userID string) ([]model.ResumeUpload, error)
}

type Config struct {
	ScreenURL string
	MaxBytes  int64
	Timeout   time.Duration
	UploadDir string
}

type Screener struct {
	cfg     Config
	client  *http.Client
	uploads UploadRepository
	logger  *slog.Logger
}

func NewScreener(cfg Config, uploads UploadRepository, logger *slog.Logger) *Screener {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Screener{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		uploads: uploads,
		logger:  logger,
	}
}

func (s *Screener) MaxBytes() int64 { return s.cfg.MaxBytes }

// Upload validates data, writes it under UploadDir and records the audit row.
func (s *Screener) Upload(ctx context.Context, userID, filename string, data []byte) (*model.ResumeUpload, error) {
	if err := Validate(filename, int64(len(data)), s.cfg.MaxBytes, data); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("resume: creating upload dir: %w", err)
	}

	id := xid.New().String()
	storedAs := id + ".pdf"
	path := filepath.Join(s.cfg.UploadDir, storedAs)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return nil, fmt.Errorf("resume: writing upload: %w", err)
	}

	upload := &model.ResumeUpload{
		ID:       id,
		UserID:   userID,
		Filename: filepath.Base(filename),
		StoredAs: storedAs,
		Size:     int64(len(data)),
	}
	if err := s.uploads.CreateUpload(ctx, upload); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.logger.Warn("failed to remove unrecorded resume",
				slog.String("path", path), slog.String("error", rmErr.Error()))
		}
		return nil, err
	}

	s.logger.Info("resume uploaded",
		slog.String("userID", userID),
		slog.String("uploadID", id),
		slog.Int64("size", upload.Size),
	)
	return upload, nil
}

func (s *Screener) Uploads(ctx context.Context, userID string) ([]model.ResumeUpload, error) {
	return s.uploads.ListUploads(ctx, userID)
}

// Screen sends data to the scoring API and decodes its verdict.
func (s *Screener) Screen(ctx context.Context, filename string, data []byte) (*ScreeningResult, error) {
	if err := Validate(filename, int64(len(data)), s.cfg.MaxBytes, data); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("resume: building form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("resume: building form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("resume: building form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ScreenURL, &body)
	if err != nil {
		return nil, fmt.Errorf("resume: building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("resume screening request failed", slog.String("error", err.Error()))
		return nil, apperror.Upstream("resume screening service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperror.Upstream("resume screening service", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Error("resume screening returned an error",
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)),
		)
		return nil, apperror.Upstream("resume screening service",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	result, err := DecodeResult(raw)
	if err != nil {
		return nil, apperror.Upstream("resume screening service",
			fmt.Errorf("decoding response: %w", err))
	}

	s.logger.Info("resume screened", slog.Duration("duration", time.Since(start)))
	return result, nil
}
