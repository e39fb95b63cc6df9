package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factweave/factweave/job"
)

// fakeJobs records submissions and serves canned records.
type fakeJobs struct {
	submitted []GenerateRequest
	records   map[string]job.Record
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{records: make(map[string]job.Record)}
}

func (f *fakeJobs) Submit(topic string, verbose bool) string {
	f.submitted = append(f.submitted, GenerateRequest{Topic: topic, Verbose: verbose})
	id := "job-1"
	f.records[id] = job.Record{ID: id, Status: job.StatusRunning, MaxIterations: 3}
	return id
}

func (f *fakeJobs) Get(id string) (job.Record, bool) {
	rec, ok := f.records[id]
	return rec, ok
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h := NewHandler(Deps{Jobs: newFakeJobs()})

	rr := doJSON(t, h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestGenerate_SubmitsAndReturnsJobID(t *testing.T) {
	jobs := newFakeJobs()
	h := NewHandler(Deps{Jobs: jobs})

	rr := doJSON(t, h, http.MethodPost, "/api/generate", `{"topic":"solar power","verbose":true}`, nil)

	require.Equal(t, http.StatusAccepted, rr.Code)
	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.JobID)

	require.Len(t, jobs.submitted, 1)
	assert.Equal(t, "solar power", jobs.submitted[0].Topic)
	assert.True(t, jobs.submitted[0].Verbose)
}

func TestGenerate_MissingTopic(t *testing.T) {
	jobs := newFakeJobs()
	h := NewHandler(Deps{Jobs: jobs})

	rr := doJSON(t, h, http.MethodPost, "/api/generate", `{"verbose":true}`, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "topic is required")
	assert.Empty(t, jobs.submitted)
}

func TestGenerate_MalformedBody(t *testing.T) {
	h := NewHandler(Deps{Jobs: newFakeJobs()})

	rr := doJSON(t, h, http.MethodPost, "/api/generate", `{"topic":`, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestGetJob_ReturnsRecord(t *testing.T) {
	jobs := newFakeJobs()
	jobs.records["abc"] = job.Record{
		ID:            "abc",
		Status:        job.StatusDone,
		Iteration:     2,
		MaxIterations: 3,
	}
	h := NewHandler(Deps{Jobs: jobs})

	rr := doJSON(t, h, http.MethodGet, "/api/jobs/abc", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var rec job.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, job.StatusDone, rec.Status)
	assert.Equal(t, 2, rec.Iteration)
}

func TestGetJob_UnknownID(t *testing.T) {
	h := NewHandler(Deps{Jobs: newFakeJobs()})

	rr := doJSON(t, h, http.MethodGet, "/api/jobs/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown job id")
}

func TestBearerAuth(t *testing.T) {
	jobs := newFakeJobs()
	h := NewHandler(Deps{Jobs: jobs, Token: "open-sesame"})

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"missing header", nil, http.StatusUnauthorized},
		{"wrong scheme", map[string]string{"Authorization": "Basic open-sesame"}, http.StatusUnauthorized},
		{"wrong token", map[string]string{"Authorization": "Bearer guess"}, http.StatusUnauthorized},
		{"valid token", map[string]string{"Authorization": "Bearer open-sesame"}, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, "/api/generate", `{"topic":"x"}`, tt.header)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestBearerAuth_HealthStaysOpen(t *testing.T) {
	h := NewHandler(Deps{Jobs: newFakeJobs(), Token: "open-sesame"})

	rr := doJSON(t, h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
}
