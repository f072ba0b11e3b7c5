// Package apiclient is a typed client for the platform's REST API.
//
// A Client carries an explicit Session instead of reading tokens from
// ambient storage. Any 401 clears the session, so callers treat
// ErrUnauthorized as "sign in again".
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/resume"
)

// DefaultBaseURL is used when neither New nor API_BASE_URL names one.
const DefaultBaseURL = "http://localhost:5000/api"

// ErrUnauthorized is returned for any 401; the session has been cleared by
// the time it is seen.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// APIError is a non-2xx response other than 401.
type APIError struct {
	Status  int
	Type    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apiclient: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("apiclient: %d %s: %s", e.Status, e.Type, e.Message)
}

// Session holds the caller's credentials. It is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	token  string
	userID string
}

func NewSession(token, userID string) *Session {
	return &Session{token: token, userID: userID}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Set(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.userID = token, userID
}

func (s *Session) Clear() { s.Set("", "") }

func (s *Session) Active() bool { return s.Token() != "" }

type Client struct {
	baseURL   string
	session   *Session
	http      *http.Client
	maxUpload int64
	onLogout  func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithMaxUpload changes the client-side resume size gate.
func WithMaxUpload(n int64) Option { return func(c *Client) { c.maxUpload = n } }

// WithLogoutHook is called after a 401 clears the session.
func WithLogoutHook(fn func()) Option { return func(c *Client) { c.onLogout = fn } }

// New returns a client for baseURL. An empty baseURL falls back to
// API_BASE_URL and then DefaultBaseURL; a nil session starts signed out.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("API_BASE_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if session == nil {
		session = &Session{}
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		session:   session,
		http:      &http.Client{Timeout: 90 * time.Second},
		maxUpload: resume.DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Clear()
		if c.onLogout != nil {
			c.onLogout()
		}
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
			Field   string `json:"field"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload) == nil {
			apiErr.Type, apiErr.Message, apiErr.Field = payload.Error, payload.Message, payload.Field
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decoding response: %w", err)
	}
	return nil
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login signs in and stores the token on the session.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.session.Set(res.Token, res.User.ID)
	return &res, nil
}

func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type ArticleQuery struct {
	Tag    string
	Search string
	Limit  int
	Offset int
}

func (c *Client) ListArticles(ctx context.Context, q ArticleQuery) ([]model.Article, error) {
	v := url.Values{}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	path := "/articles"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out []model.Article
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type ArticleInput struct {
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	Tags         []string            `json:"tags,omitempty"`
	CodeSnippets []model.CodeSnippet `json:"codeSnippets,omitempty"`
	Images       []string            `json:"images,omitempty"`
	PDFs         []string            `json:"pdfs,omitempty"`
}

func (c *Client) CreateArticle(ctx context.Context, in ArticleInput) (*model.Article, error) {
	var a model.Article
	if err := c.do(ctx, http.MethodPost, "/articles", in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

type Application struct {
	CollegeID  string   `json:"collegeId"`
	Name       string   `json:"name"`
	DOB        string   `json:"dob"`
	FatherName string   `json:"fatherName"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Address    string   `json:"address"`
	Courses    []string `json:"courses"`
}

// SubmitApplication returns the server-assigned reference id unchanged.
func (c *Client) SubmitApplication(ctx context.Context, app Application) (string, error) {
	var res struct {
		ReferenceID string `json:"referenceId"`
	}
	if err := c.do(ctx, http.MethodPost, "/applications", app, &res); err != nil {
		return "", err
	}
	return res.ReferenceID, nil
}

// Progress mirrors the tracker's progress summary.
type Progress struct {
	SolvedCount     int               `json:"solvedCount"`
	InProgressCount int               `json:"inProgressCount"`
	Total           int               `json:"total"`
	Percentage      float64           `json:"percentage"`
	Statuses        map[string]string `json:"statuses"`
	DailyStreak     int               `json:"dailyStreak"`
	DailyGoal       int               `json:"dailyGoal"`
	TodayCompleted  int               `json:"todayCompleted"`
}

func (c *Client) SetQuestionStatus(ctx context.Context, questionID, status string) (*Progress, error) {
	var p Progress
	path := "/dsapractice/questions/" + url.PathEscape(questionID) + "/status"
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"status": status}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ScreenResume uploads data for scoring. Files over the size gate fail
// with resume.TooLargeMessage without touching the network.
func (c *Client) ScreenResume(ctx context.Context, filename string, data []byte) (*resume.ScreeningResult, error) {
	if err := resume.CheckSize(int64(len(data)), c.maxUpload); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("apiclient: building form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("apiclient: building form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("apiclient: building form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resume/screen", &body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res struct {
		Result resume.ScreeningResult `json:"result"`
	}
	if err := c.send(req, &res); err != nil {
		return nil, err
	}
	return &res.Result, nil
}
