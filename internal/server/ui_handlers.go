package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cwbudde/rankmorph/internal/ui"
)

// handleIndex handles GET /.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	jobs := s.jobManager.ListJobs()

	jobItems := make([]ui.JobListItem, len(jobs))
	for i, job := range jobs {
		jobItems[i] = ui.JobListItem{
			ID:         job.ID,
			State:      string(job.State),
			MatrixPath: job.Config.MatrixPath,
			Kernel:     job.Config.Kernel,
			Done:       job.Done,
			Total:      job.Total,
			StartTime:  job.StartTime,
			EndTime:    job.EndTime,
			Error:      job.Error,
		}
	}

	if err := ui.JobList(jobItems).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}

// handleJobDetail handles GET /jobs/:id.
func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Path[len("/jobs/"):]

	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ui.JobNotFound(jobID).Render(r.Context(), w); err != nil {
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var elapsed float64
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime).Seconds()
	} else {
		elapsed = time.Since(job.StartTime).Seconds()
	}

	detail := ui.JobDetail{
		ID:          job.ID,
		State:       string(job.State),
		MatrixPath:  job.Config.MatrixPath,
		ElementType: job.Config.ElementType,
		Kernel:      job.Config.Kernel,
		Radius:      job.Config.Radius,
		Done:        job.Done,
		Total:       job.Total,
		StartTime:   job.StartTime,
		EndTime:     job.EndTime,
		ElapsedSec:  elapsed,
		Error:       job.Error,
	}
	if job.Result != nil {
		detail.HasResult = true
		detail.Min = job.Result.Min
		detail.Max = job.Result.Max
		detail.Mean = job.Result.Mean
	}

	if err := ui.JobDetailPage(detail).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}

// handleCreatePage handles GET /create and POST /create.
func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.handleCreatePageGet(w, r)
	} else if r.Method == http.MethodPost {
		s.handleCreatePagePost(w, r)
	} else {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCreatePageGet renders the job creation form.
func (s *Server) handleCreatePageGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := ui.CreateJobPage("").Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}

// handleCreatePagePost processes the job creation form submission.
func (s *Server) handleCreatePagePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		ui.CreateJobPage("Failed to parse form data").Render(r.Context(), w)
		return
	}

	matrixPath := r.FormValue("matrixPath")
	elementType := r.FormValue("elementType")
	kernel := r.FormValue("kernel")
	radiusStr := r.FormValue("radius")
	nabStr := r.FormValue("numberOfAnalysedBits")

	if matrixPath == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		ui.CreateJobPage("Matrix path is required").Render(r.Context(), w)
		return
	}

	radius, err := strconv.ParseInt(radiusStr, 10, 64)
	if err != nil || radius < 0 {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		ui.CreateJobPage("Radius must be a non-negative integer").Render(r.Context(), w)
		return
	}

	nab, err := strconv.Atoi(nabStr)
	if err != nil || nab < 1 {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		ui.CreateJobPage("Number of analysed bits must be a positive integer").Render(r.Context(), w)
		return
	}

	config := JobConfig{
		MatrixPath:           matrixPath,
		ElementType:          elementType,
		NumberOfAnalysedBits: nab,
		Kernel:               kernel,
		Radius:               radius,
		P2:                   1,
	}

	job := s.jobManager.CreateJob(config)

	// context.Background() so the job survives this request's lifetime.
	go runJob(context.Background(), s.jobManager, s.store, job.ID)

	http.Redirect(w, r, "/jobs/"+job.ID, http.StatusSeeOther)
}
