package store

import (
	"fmt"
	"time"
)

// JobConfig holds the parameters of one ranged-read kernel invocation (job
// record copy, avoids an import cycle with the server package).
type JobConfig struct {
	MatrixPath           string  `json:"matrixPath"`
	ElementType          string  `json:"elementType"` // bit, u8, u16, i32, i64, f32, f64
	NumberOfAnalysedBits int     `json:"numberOfAnalysedBits"`
	Kernel               string  `json:"kernel"` // averager, summator
	Interpolated         bool    `json:"interpolated,omitempty"`
	P1                   float64 `json:"p1,omitempty"`
	P2                   float64 `json:"p2,omitempty"`
	Radius               int64   `json:"radius"`
	PostProcess          string  `json:"postProcess,omitempty"` // identity, linear, pow2
	PostA                float64 `json:"postA,omitempty"`
	PostB                float64 `json:"postB,omitempty"`
	PostLog              uint    `json:"postLog,omitempty"`
	ArrayPos             int64   `json:"arrayPos"`
	Count                int64   `json:"count"`
}

// JobRecord is a persisted summary of one completed kernel run.
//
// A rank/sum kernel invocation is a single deterministic pass with no
// internal optimizer state to resume from: there is no population, no
// velocities, nothing that benefits from being reinitialized and
// continued. A record exists purely as the queryable result of a finished
// job, so it keeps a bounded-size sample of the output plus aggregate
// statistics rather than the full result array,
// which can be arbitrarily large for a big matrix.
type JobRecord struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"jobId"`

	// Config holds the job configuration that produced this record.
	Config JobConfig `json:"config"`

	// Count is the number of output elements computed.
	Count int64 `json:"count"`

	// Min, Max, Mean summarize the computed output.
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`

	// Sample holds the first few output values, for quick inspection
	// without loading a full result file.
	Sample []float64 `json:"sample,omitempty"`

	// Elapsed is how long the kernel invocation took.
	Elapsed time.Duration `json:"elapsed"`

	// Timestamp records when this record was created.
	Timestamp time.Time `json:"timestamp"`
}

// JobRecordInfo is JobRecord metadata without the sample payload, used for
// listing records efficiently.
type JobRecordInfo struct {
	JobID      string        `json:"jobId"`
	Kernel     string        `json:"kernel"`
	MatrixPath string        `json:"matrixPath"`
	Count      int64         `json:"count"`
	Elapsed    time.Duration `json:"elapsed"`
	Timestamp  time.Time     `json:"timestamp"`
}

const sampleLimit = 16

// NewJobRecord builds a JobRecord from a completed job's output, keeping
// only the first sampleLimit values verbatim.
func NewJobRecord(jobID string, config JobConfig, output []float64, elapsed time.Duration) *JobRecord {
	rec := &JobRecord{
		JobID:     jobID,
		Config:    config,
		Count:     int64(len(output)),
		Elapsed:   elapsed,
		Timestamp: time.Now(),
	}
	if len(output) == 0 {
		return rec
	}

	rec.Min, rec.Max = output[0], output[0]
	var sum float64
	for _, v := range output {
		if v < rec.Min {
			rec.Min = v
		}
		if v > rec.Max {
			rec.Max = v
		}
		sum += v
	}
	rec.Mean = sum / float64(len(output))

	n := len(output)
	if n > sampleLimit {
		n = sampleLimit
	}
	rec.Sample = append([]float64(nil), output[:n]...)
	return rec
}

// ToInfo converts a full JobRecord to JobRecordInfo (metadata only).
func (r *JobRecord) ToInfo() JobRecordInfo {
	return JobRecordInfo{
		JobID:      r.JobID,
		Kernel:     r.Config.Kernel,
		MatrixPath: r.Config.MatrixPath,
		Count:      r.Count,
		Elapsed:    r.Elapsed,
		Timestamp:  r.Timestamp,
	}
}

// Validate checks that the record has internally consistent data.
func (r *JobRecord) Validate() error {
	if r.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if r.Config.MatrixPath == "" {
		return &ValidationError{Field: "Config.MatrixPath", Reason: "cannot be empty"}
	}
	if r.Config.Kernel == "" {
		return &ValidationError{Field: "Config.Kernel", Reason: "cannot be empty"}
	}
	if r.Count < 0 {
		return &ValidationError{Field: "Count", Reason: "cannot be negative"}
	}
	if int64(len(r.Sample)) > r.Count {
		return &ValidationError{Field: "Sample", Reason: fmt.Sprintf("longer (%d) than Count (%d)", len(r.Sample), r.Count)}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a job record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
