package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/rankmorph/internal/matrix"
	"github.com/cwbudde/rankmorph/internal/quant"
	"github.com/cwbudde/rankmorph/internal/store"
)

func createTestMatrixFile(t *testing.T, n int) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.rkm")

	data := make([]int64, n)
	for i := range data {
		data[i] = int64(i % 256)
	}
	d := matrix.NewDenseInt(quant.U8, data)
	if err := matrix.SaveFile(path, d); err != nil {
		t.Fatalf("failed to write test matrix: %v", err)
	}
	return path
}

func TestServer_CreateJob(t *testing.T) {
	matrixPath := createTestMatrixFile(t, 64)

	s := NewServer(":8080", nil)

	config := JobConfig{
		MatrixPath:           matrixPath,
		ElementType:          "u8",
		NumberOfAnalysedBits: 8,
		Kernel:               "averager",
		Radius:               2,
		P2:                   1,
		Count:                64,
	}

	body, _ := json.Marshal(config)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending && job.State != StateRunning {
		t.Errorf("Expected pending or running state, got %s", job.State)
	}
}

func TestServer_CreateJob_MissingMatrixPath(t *testing.T) {
	s := NewServer(":8080", nil)

	config := JobConfig{Kernel: "averager"}
	body, _ := json.Marshal(config)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestServer_ListJobs(t *testing.T) {
	matrixPath := createTestMatrixFile(t, 64)

	s := NewServer(":8080", nil)

	s.jobManager.CreateJob(JobConfig{MatrixPath: matrixPath})
	s.jobManager.CreateJob(JobConfig{MatrixPath: matrixPath})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()

	s.handleListJobs(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var jobs []*Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestServer_GetJobStatus(t *testing.T) {
	matrixPath := createTestMatrixFile(t, 64)

	s := NewServer(":8080", nil)

	job := s.jobManager.CreateJob(JobConfig{MatrixPath: matrixPath, Kernel: "averager"})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["id"] != job.ID {
		t.Error("Response should contain job ID")
	}

	if response["state"] != string(StatePending) {
		t.Errorf("Expected pending state, got %v", response["state"])
	}
}

func TestServer_GetJobStatus_NotFound(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/status", nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	matrixPath := createTestMatrixFile(t, 64)

	s := NewServer("localhost:0", nil)
	srv := httptest.NewServer(s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/jobs" && r.Method == http.MethodPost {
			s.handleCreateJob(w, r)
		} else if r.URL.Path == "/api/v1/jobs" && r.Method == http.MethodGet {
			s.handleListJobs(w, r)
		} else {
			s.handleJobsWithID(w, r)
		}
	})))
	defer srv.Close()

	config := JobConfig{
		MatrixPath:           matrixPath,
		ElementType:          "u8",
		NumberOfAnalysedBits: 8,
		Kernel:               "averager",
		Radius:               2,
		P2:                   1,
		Count:                64,
	}

	body, _ := json.Marshal(config)
	resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	defer resp.Body.Close()

	var job Job
	json.NewDecoder(resp.Body).Decode(&job)

	maxAttempts := 50
	for i := 0; i < maxAttempts; i++ {
		resp, err := http.Get(srv.URL + "/api/v1/jobs/" + job.ID + "/status")
		if err != nil {
			t.Fatalf("Failed to get status: %v", err)
		}

		var status map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()

		if status["state"] == string(StateCompleted) {
			break
		}

		if status["state"] == string(StateFailed) {
			t.Fatalf("Job failed: %v", status["error"])
		}

		if i == maxAttempts-1 {
			t.Fatal("Job did not complete in time")
		}

		time.Sleep(50 * time.Millisecond)
	}
}

func TestServer_JobDetailPage(t *testing.T) {
	matrixPath := createTestMatrixFile(t, 64)

	s := NewServer(":8080", nil)

	job := s.jobManager.CreateJob(JobConfig{
		MatrixPath: matrixPath,
		Kernel:     "averager",
		Radius:     2,
	})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleJobDetail(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Error("Expected text/html content type")
	}

	body := w.Body.String()
	if !containsString(body, job.ID) {
		t.Error("Response should contain job ID")
	}
	if !containsString(body, matrixPath) {
		t.Error("Response should contain matrix path")
	}
}

func TestServer_JobDetailPage_NotFound(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/nonexistent", nil)
	w := httptest.NewRecorder()

	s.handleJobDetail(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 (with not found message), got %d", w.Code)
	}

	body := w.Body.String()
	if !containsString(body, "not found") {
		t.Error("Response should contain a not-found message")
	}
}

func TestServer_JobStream_SSE(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping SSE test in short mode")
	}

	matrixPath := createTestMatrixFile(t, 1<<16)

	s := NewServer(":8080", nil)

	job := s.jobManager.CreateJob(JobConfig{
		MatrixPath: matrixPath,
		Kernel:     "averager",
		Radius:     8,
		P2:         1,
		Count:      1 << 16,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go runJob(ctx, s.jobManager, nil, job.ID)

	time.Sleep(50 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/stream", job.ID), nil)
	w := httptest.NewRecorder()

	done := make(chan bool)
	go func() {
		s.handleJobStream(w, req, job.ID)
		done <- true
	}()

	timeout := time.After(3 * time.Second)
	select {
	case <-done:
	case <-timeout:
	}

	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Error("Expected text/event-stream content type")
	}

	body := w.Body.String()
	if !containsString(body, "data:") {
		t.Error("Expected SSE data in response")
	}
}

func TestServer_JobStream_NotFound(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/stream", nil)
	w := httptest.NewRecorder()

	s.handleJobStream(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_GetJobTrace(t *testing.T) {
	matrixPath := createTestMatrixFile(t, 64)

	recordStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	s := &Server{jobManager: NewJobManager(), store: recordStore}

	job := s.jobManager.CreateJob(JobConfig{
		MatrixPath:           matrixPath,
		ElementType:          "u8",
		NumberOfAnalysedBits: 8,
		Kernel:               "averager",
		Radius:               2,
		P2:                   1,
		Count:                64,
	})

	if err := runJob(context.Background(), s.jobManager, recordStore, job.ID); err != nil {
		t.Fatalf("runJob: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/trace", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobTrace(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var entries []store.TraceEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("Expected at least one trace entry")
	}
	last := entries[len(entries)-1]
	if last.Done != last.Total {
		t.Errorf("Expected final entry Done == Total, got %d/%d", last.Done, last.Total)
	}
}

func TestServer_GetJobTrace_NotFound(t *testing.T) {
	recordStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	s := &Server{jobManager: NewJobManager(), store: recordStore}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/trace", nil)
	w := httptest.NewRecorder()

	s.handleGetJobTrace(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_GetJobTrace_NoStoreConfigured(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/anything/trace", nil)
	w := httptest.NewRecorder()

	s.handleGetJobTrace(w, req, "anything")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	event := ProgressEvent{
		JobID:     "job1",
		State:     StateRunning,
		Done:      10,
		Total:     100,
		Timestamp: time.Now(),
	}
	eb.Broadcast(event)

	select {
	case received := <-ch:
		if received.JobID != "job1" {
			t.Errorf("Expected jobID job1, got %s", received.JobID)
		}
		if received.Done != 10 {
			t.Errorf("Expected Done=10, got %d", received.Done)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	eb.CleanupJob("job1")
}

func containsString(haystack, needle string) bool {
	return bytes.Contains([]byte(haystack), []byte(needle))
}

func TestServer_CreatePageGet(t *testing.T) {
	server := NewServer(":0", nil)

	req := httptest.NewRequest(http.MethodGet, "/create", nil)
	rec := httptest.NewRecorder()

	server.handleCreatePage(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !containsString(body, "New job") {
		t.Error("Expected page to contain 'New job'")
	}
	if !containsString(body, "Matrix path") {
		t.Error("Expected page to contain 'Matrix path'")
	}
}

func TestServer_CreatePagePost_Success(t *testing.T) {
	matrixPath := createTestMatrixFile(t, 64)

	server := NewServer(":0", nil)

	form := url.Values{}
	form.Add("matrixPath", matrixPath)
	form.Add("elementType", "u8")
	form.Add("kernel", "averager")
	form.Add("radius", "2")
	form.Add("numberOfAnalysedBits", "8")

	req := httptest.NewRequest(http.MethodPost, "/create", bytes.NewBufferString(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	server.handleCreatePage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("Expected status 303, got %d", rec.Code)
	}

	location := rec.Header().Get("Location")
	if !bytes.Contains([]byte(location), []byte("/jobs/")) {
		t.Errorf("Expected redirect to /jobs/, got %s", location)
	}

	jobs := server.jobManager.ListJobs()
	if len(jobs) != 1 {
		t.Errorf("Expected 1 job, got %d", len(jobs))
	}

	job := jobs[0]
	if job.Config.MatrixPath != matrixPath {
		t.Errorf("Expected matrixPath %s, got %s", matrixPath, job.Config.MatrixPath)
	}
	if job.Config.Kernel != "averager" {
		t.Errorf("Expected kernel averager, got %s", job.Config.Kernel)
	}
	if job.Config.Radius != 2 {
		t.Errorf("Expected radius 2, got %d", job.Config.Radius)
	}
	if job.Config.NumberOfAnalysedBits != 8 {
		t.Errorf("Expected numberOfAnalysedBits 8, got %d", job.Config.NumberOfAnalysedBits)
	}
}

func TestServer_CreatePagePost_ValidationErrors(t *testing.T) {
	server := NewServer(":0", nil)

	tests := []struct {
		name     string
		formData map[string]string
		errMsg   string
	}{
		{
			name: "missing matrixPath",
			formData: map[string]string{
				"elementType":          "u8",
				"kernel":               "averager",
				"radius":               "2",
				"numberOfAnalysedBits": "8",
			},
			errMsg: "Matrix path is required",
		},
		{
			name: "invalid radius",
			formData: map[string]string{
				"matrixPath":           "test.rkm",
				"elementType":          "u8",
				"kernel":               "averager",
				"radius":               "not-a-number",
				"numberOfAnalysedBits": "8",
			},
			errMsg: "Radius must be a non-negative integer",
		},
		{
			name: "invalid nab",
			formData: map[string]string{
				"matrixPath":           "test.rkm",
				"elementType":          "u8",
				"kernel":               "averager",
				"radius":               "2",
				"numberOfAnalysedBits": "0",
			},
			errMsg: "Number of analysed bits must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			for k, v := range tt.formData {
				form.Add(k, v)
			}

			req := httptest.NewRequest(http.MethodPost, "/create", bytes.NewBufferString(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			server.handleCreatePage(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", rec.Code)
			}

			body := rec.Body.String()
			if !containsString(body, tt.errMsg) {
				t.Errorf("Expected error message '%s' in body", tt.errMsg)
			}
		})
	}
}
