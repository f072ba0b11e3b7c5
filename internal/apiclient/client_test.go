package apiclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/edtech-platform/internal/apiclient"
	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/resume"
)

func TestNew_BaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	c := apiclient.New("", nil)
	assert.False(t, c.Session().Active())

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	t.Setenv("API_BASE_URL", srv.URL+"/api/")
	c = apiclient.New("", nil, apiclient.WithHTTPClient(srv.Client()))
	_, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/profile", got)
}

func TestLogin_StoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ada@example.com", body["email"])
			w.Write([]byte(`{"token":"tok-1","user":{"id":"u1","email":"ada@example.com"}}`))
		case "/auth/profile":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.Write([]byte(`{"id":"u1","email":"ada@example.com","coins":40}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, nil)
	res, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "u1", c.Session().UserID())

	u, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, u.Coins)
}

func TestUnauthorized_ClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized","message":"token expired"}`))
	}))
	defer srv.Close()

	loggedOut := false
	session := apiclient.NewSession("stale", "u1")
	c := apiclient.New(srv.URL, session, apiclient.WithLogoutHook(func() { loggedOut = true }))

	_, err := c.Profile(context.Background())

	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.False(t, session.Active())
	assert.Empty(t, session.UserID())
	assert.True(t, loggedOut)
}

func TestAPIError_Decoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"validation_error","message":"title is required","field":"title"}`))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, apiclient.NewSession("tok", "u1"))
	_, err := c.CreateArticle(context.Background(), apiclient.ArticleInput{Content: "body"})

	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "validation_error", apiErr.Type)
	assert.Equal(t, "title", apiErr.Field)
	assert.True(t, c.Session().Active())
}

func TestListArticles_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "graphs", r.URL.Query().Get("tag"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("offset"))
		w.Write([]byte(`[{"id":"a1","title":"BFS"}]`))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, nil)
	articles, err := c.ListArticles(context.Background(), apiclient.ArticleQuery{Tag: "graphs", Limit: 10})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "BFS", articles[0].Title)
}

func TestSubmitApplication_ReturnsReferenceVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"referenceId":"APP-1A2B3C4D","application":{}}`))
	}))
	defer srv.Close()

	ref, err := apiclient.New(srv.URL, nil).SubmitApplication(context.Background(), apiclient.Application{Name: "Ravi"})
	require.NoError(t, err)
	assert.Equal(t, "APP-1A2B3C4D", ref)
}

func TestSetQuestionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/dsapractice/questions/q1/status", r.URL.Path)
		w.Write([]byte(`{"solvedCount":1,"total":4,"percentage":25,"statuses":{"q1":"solved"}}`))
	}))
	defer srv.Close()

	p, err := apiclient.New(srv.URL, apiclient.NewSession("tok", "u1")).
		SetQuestionStatus(context.Background(), "q1", "solved")
	require.NoError(t, err)
	assert.Equal(t, 1, p.SolvedCount)
	assert.Equal(t, "solved", p.Statuses["q1"])
}

func TestScreenResume_SizeGateSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, apiclient.NewSession("tok", "u1"), apiclient.WithMaxUpload(10))
	_, err := c.ScreenResume(context.Background(), "cv.pdf", bytes.Repeat([]byte("x"), 11))

	require.ErrorIs(t, err, apperror.ErrTooLarge)
	assert.Equal(t, resume.TooLargeMessage, err.Error())
	assert.Zero(t, calls)
}

func TestScreenResume_SendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		file.Close()
		assert.Equal(t, "cv.pdf", header.Filename)
		w.Write([]byte(`{"upload":{},"result":{"atsScore":71,"issues":["Too long"]}}`))
	}))
	defer srv.Close()

	res, err := apiclient.New(srv.URL, apiclient.NewSession("tok", "u1")).
		ScreenResume(context.Background(), "/home/me/cv.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NotNil(t, res.ATSScore)
	assert.Equal(t, 71.0, *res.ATSScore)
	assert.Equal(t, []string{"Too long"}, res.Issues)
}
