package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mailprobe"
	"github.com/optimode/mailprobe/internal/server"
)

type fakeVerifier struct {
	results []mailprobe.Result
	err     error

	batches [][]string
	people  []mailprobe.Person
}

func (f *fakeVerifier) VerifyBatch(_ context.Context, emails []string) ([]mailprobe.Result, error) {
	f.batches = append(f.batches, emails)
	return f.results, f.err
}

func (f *fakeVerifier) VerifyPerson(_ context.Context, p mailprobe.Person) ([]mailprobe.Result, error) {
	f.people = append(f.people, p)
	return f.results, f.err
}

type response struct {
	Success    bool               `json:"success"`
	TotalFound int                `json:"totalFound"`
	Results    []mailprobe.Result `json:"results"`
	Reason     string             `json:"reason"`
	Message    string             `json:"message"`
}

func newServer(t *testing.T, v server.Verifier) (*server.Server, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return server.New(v, server.Options{MaxBatch: 3, Logger: log}), hook
}

func post(t *testing.T, s *server.Server, path, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out response
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	s, _ := newServer(t, &fakeVerifier{})
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifyEmails_OK(t *testing.T) {
	fv := &fakeVerifier{results: []mailprobe.Result{
		{Email: "a@example.org", Status: mailprobe.StatusValid, Confidence: 95},
		{Email: "bad", Status: mailprobe.StatusInvalid},
	}}
	s, _ := newServer(t, fv)

	code, out := post(t, s, "/api/verify-emails", `{"emails":["a@example.org","bad"]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.TotalFound)
	assert.Equal(t, fv.results, out.Results)
	require.Len(t, fv.batches, 1)
	assert.Equal(t, []string{"a@example.org", "bad"}, fv.batches[0])
}

func TestVerifyEmails_BadRequests(t *testing.T) {
	cases := map[string]string{
		"not json":    `{"emails":`,
		"missing":     `{}`,
		"empty list":  `{"emails":[]}`,
		"over limit":  `{"emails":["a@x.org","b@x.org","c@x.org","d@x.org"]}`,
		"wrong types": `{"emails":"a@x.org"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fv := &fakeVerifier{}
			s, _ := newServer(t, fv)
			code, out := post(t, s, "/api/verify-emails", body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, out.Success)
			assert.NotEmpty(t, out.Message)
			assert.Empty(t, fv.batches)
		})
	}
}

func TestVerifyEmails_Unavailable(t *testing.T) {
	fv := &fakeVerifier{err: fmt.Errorf("verifying %q: %w", "a@example.org",
		&mailprobe.UnavailableError{Host: "mx.example.org", Reason: "timeout"})}
	s, hook := newServer(t, fv)

	code, out := post(t, s, "/api/verify-emails", `{"emails":["a@example.org"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, out.Success)
	assert.Equal(t, "smtp_unavailable", out.Reason)
	assert.Empty(t, out.Results)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["reason"] == "timeout" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestVerifyEmails_InternalError(t *testing.T) {
	fv := &fakeVerifier{err: errors.New("boom")}
	s, _ := newServer(t, fv)

	code, out := post(t, s, "/api/verify-emails", `{"emails":["a@example.org"]}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, out.Success)
	assert.Empty(t, out.Reason)
	assert.NotContains(t, out.Message, "boom")
}

func TestFindEmails_Names(t *testing.T) {
	fv := &fakeVerifier{results: []mailprobe.Result{
		{Email: "ada.lovelace@example.org", Status: mailprobe.StatusRisky, Confidence: 50},
	}}
	s, _ := newServer(t, fv)

	code, out := post(t, s, "/api/find-emails",
		`{"firstName":" Ada ","lastName":"Lovelace","domain":"example.org"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, out.TotalFound)
	require.Len(t, fv.people, 1)
	assert.Equal(t, mailprobe.Person{FirstName: "Ada", LastName: "Lovelace", Domain: "example.org"}, fv.people[0])
}

func TestFindEmails_FullName(t *testing.T) {
	fv := &fakeVerifier{}
	s, _ := newServer(t, fv)

	code, out := post(t, s, "/api/find-emails",
		`{"fullName":"Ada King Lovelace","domain":"example.org"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, out.Success)
	assert.Equal(t, 0, out.TotalFound)
	assert.NotNil(t, out.Results)
	require.Len(t, fv.people, 1)
	assert.Equal(t, "Ada", fv.people[0].FirstName)
	assert.Equal(t, "Lovelace", fv.people[0].LastName)
}

func TestFindEmails_BadRequests(t *testing.T) {
	cases := map[string]string{
		"no names":       `{"domain":"example.org"}`,
		"single token":   `{"fullName":"Ada","domain":"example.org"}`,
		"missing domain": `{"firstName":"Ada","lastName":"Lovelace"}`,
		"invalid domain": `{"firstName":"Ada","lastName":"Lovelace","domain":"not a domain"}`,
		"malformed body": `nope`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fv := &fakeVerifier{}
			s, _ := newServer(t, fv)
			code, out := post(t, s, "/api/find-emails", body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, out.Success)
			assert.Empty(t, fv.people)
		})
	}
}

func TestFindEmails_Unavailable(t *testing.T) {
	fv := &fakeVerifier{err: mailprobe.ErrUnavailable}
	s, _ := newServer(t, fv)

	code, out := post(t, s, "/api/find-emails",
		`{"firstName":"Ada","lastName":"Lovelace","domain":"example.org"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "smtp_unavailable", out.Reason)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newServer(t, &fakeVerifier{})
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestsAreLogged(t *testing.T) {
	s, hook := newServer(t, &fakeVerifier{})
	_, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, "/healthz", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}
