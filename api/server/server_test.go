package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/server/api"
	"research-assistant/server/events"
	"research-assistant/server/research"
	"research-assistant/server/store"
)

type fakeRunner struct {
	results *research.Results
	err     error
	block   chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, cfg research.Config, cb research.Callbacks) (*research.Results, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	cb.Progress(10, "Generating research analysts...")
	cb.AnalystsCreated(f.results.Analysts)
	for _, s := range f.results.Sections {
		cb.SectionComplete(s)
	}
	return f.results, nil
}

type fakeGenerator struct {
	analysts []research.Analyst
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, topic string, maxAnalysts int, feedback string) ([]research.Analyst, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.analysts, nil
}

func testResults() *research.Results {
	return &research.Results{
		Topic:       "mesh networking",
		Analysts:    []research.Analyst{{Name: "Dr. Ada Reyes", Role: "Researcher"}},
		Sections:    []string{"## Mesh Basics"},
		FinalReport: "# Mesh Report\nfindings",
	}
}

func newTestServer(t *testing.T, runner *fakeRunner, gen *fakeGenerator) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	s := New(nil, runner, gen, memStore, events.NewBroker(), zerolog.Nop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, memStore
}

func startRun(t *testing.T, ts *httptest.Server, body string) api.ResearchAccepted {
	t.Helper()
	resp, err := http.Post(ts.URL+"/research", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted api.ResearchAccepted
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	require.NotEmpty(t, accepted.ID)
	return accepted
}

func getRun(t *testing.T, ts *httptest.Server, id string) api.RunResponse {
	t.Helper()
	resp, err := http.Get(ts.URL + "/research/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run api.RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	return run
}

func TestResearchRunEndToEnd(t *testing.T) {
	runner := &fakeRunner{results: testResults()}
	ts, _ := newTestServer(t, runner, &fakeGenerator{})

	accepted := startRun(t, ts, `{"topic": "mesh networking", "max_analysts": 2}`)
	assert.Equal(t, string(store.StatusPending), accepted.Status)

	require.Eventually(t, func() bool {
		return getRun(t, ts, accepted.ID).Status == string(store.StatusCompleted)
	}, 5*time.Second, 10*time.Millisecond)

	run := getRun(t, ts, accepted.ID)
	assert.Equal(t, 100, run.Progress)
	assert.Equal(t, "mesh networking", run.Topic)
	assert.Equal(t, []research.Analyst{{Name: "Dr. Ada Reyes", Role: "Researcher"}}, run.Analysts)
	assert.Equal(t, []string{"## Mesh Basics"}, run.Sections)

	resp, err := http.Get(ts.URL + "/research/" + accepted.ID + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report api.ReportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "# Mesh Report\nfindings", report.FinalReport)
}

func TestStartResearchRejectsBadRequests(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRunner{results: testResults()}, &fakeGenerator{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"topic":`},
		{"missing topic", `{"max_analysts": 3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/research", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var errResp api.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestRunFailureIsRecorded(t *testing.T) {
	runner := &fakeRunner{err: errors.New("provider unavailable")}
	ts, _ := newTestServer(t, runner, &fakeGenerator{})

	accepted := startRun(t, ts, `{"topic": "mesh networking"}`)

	require.Eventually(t, func() bool {
		return getRun(t, ts, accepted.ID).Status == string(store.StatusFailed)
	}, 5*time.Second, 10*time.Millisecond)

	run := getRun(t, ts, accepted.ID)
	assert.Contains(t, run.Error, "provider unavailable")
}

func TestGetRunNotFound(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRunner{results: testResults()}, &fakeGenerator{})

	resp, err := http.Get(ts.URL + "/research/deadbeef")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetReportBeforeCompletion(t *testing.T) {
	runner := &fakeRunner{results: testResults(), block: make(chan struct{})}
	defer close(runner.block)
	ts, _ := newTestServer(t, runner, &fakeGenerator{})

	accepted := startRun(t, ts, `{"topic": "mesh networking"}`)

	resp, err := http.Get(ts.URL + "/research/" + accepted.ID + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListRuns(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRunner{results: testResults()}, &fakeGenerator{})

	startRun(t, ts, `{"topic": "first"}`)
	startRun(t, ts, `{"topic": "second"}`)

	resp, err := http.Get(ts.URL + "/research")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []api.RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Len(t, runs, 2)
}

func TestGenerateAnalysts(t *testing.T) {
	gen := &fakeGenerator{analysts: []research.Analyst{
		{Name: "Dr. Ada Reyes", Role: "Researcher", Affiliation: "Net Lab", Description: "Protocols."},
	}}
	ts, _ := newTestServer(t, &fakeRunner{results: testResults()}, gen)

	body := bytes.NewReader([]byte(`{"topic": "mesh networking", "max_analysts": 2}`))
	resp, err := http.Post(ts.URL+"/analysts", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.AnalystsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Analysts, 1)
	assert.Equal(t, "Dr. Ada Reyes", out.Analysts[0].Name)
}

func TestGenerateAnalystsErrors(t *testing.T) {
	tests := []struct {
		name     string
		gen      *fakeGenerator
		body     string
		expected int
	}{
		{"missing topic", &fakeGenerator{}, `{}`, http.StatusBadRequest},
		{"generation failure", &fakeGenerator{err: errors.New("quota exceeded")}, `{"topic": "t"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, &fakeRunner{results: testResults()}, tt.gen)

			resp, err := http.Post(ts.URL+"/analysts", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expected, resp.StatusCode)
		})
	}
}

func TestStreamEventsForFinishedRun(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRunner{results: testResults()}, &fakeGenerator{})

	accepted := startRun(t, ts, `{"topic": "mesh networking"}`)
	require.Eventually(t, func() bool {
		return getRun(t, ts, accepted.ID).Status == string(store.StatusCompleted)
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("%s/research/%s/events", ts.URL, accepted.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// A finished run gets a snapshot event and the stream closes.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: progress")
	assert.Contains(t, string(body), `"progress":100`)
}

func TestStreamEventsClosesWhenRunFinishes(t *testing.T) {
	runner := &fakeRunner{results: testResults(), block: make(chan struct{})}
	ts, _ := newTestServer(t, runner, &fakeGenerator{})

	accepted := startRun(t, ts, `{"topic": "mesh networking"}`)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s/research/%s/events", ts.URL, accepted.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Headers are only written after the handler has subscribed, so
	// finishing the run now must close the stream.
	close(runner.block)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: done")
}

func TestStreamEventsUnknownRun(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRunner{results: testResults()}, &fakeGenerator{})

	resp, err := http.Get(ts.URL + "/research/deadbeef/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndCORS(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRunner{results: testResults()}, &fakeGenerator{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/research", nil)
	require.NoError(t, err)
	opts, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer opts.Body.Close()
	assert.Equal(t, http.StatusOK, opts.StatusCode)
	assert.Equal(t, "*", opts.Header.Get("Access-Control-Allow-Origin"))
}
