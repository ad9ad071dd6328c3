package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexAkulov/orgfox"
	"github.com/AlexAkulov/orgfox/cloner"
	"github.com/AlexAkulov/orgfox/helpers"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/rs/zerolog"
	sync "github.com/sasha-s/go-deadlock"
	"gopkg.in/tomb.v2"
)

const DefaultWorkers = 5

type Metrics struct {
	JobsDone      metrics.Counter
	JobsAborted   metrics.Counter
	Matches       metrics.Counter
	ScanFailures  metrics.Counter
	ActiveJobs    metrics.Gauge
	CloneDuration metrics.Histogram
	ScanDuration  metrics.Histogram
}

func (m *Metrics) fill() {
	if m.JobsDone == nil {
		m.JobsDone = discard.NewCounter()
	}
	if m.JobsAborted == nil {
		m.JobsAborted = discard.NewCounter()
	}
	if m.Matches == nil {
		m.Matches = discard.NewCounter()
	}
	if m.ScanFailures == nil {
		m.ScanFailures = discard.NewCounter()
	}
	if m.ActiveJobs == nil {
		m.ActiveJobs = discard.NewGauge()
	}
	if m.CloneDuration == nil {
		m.CloneDuration = discard.NewHistogram()
	}
	if m.ScanDuration == nil {
		m.ScanDuration = discard.NewHistogram()
	}
}

// Scheduler - run clone and scan pipelines for many repositories with at most Workers at once
type Scheduler struct {
	Workers       int
	ClonePath     string
	JobTimeout    time.Duration
	Cloner        orgfox.ICloner
	Scanner       orgfox.IScanner
	ReportChannel chan<- *orgfox.Report
	Log           zerolog.Logger
	Metrics       Metrics

	jobsSync sync.RWMutex
	jobs     map[string]orgfox.JobStatus
	order    []string
}

// Status - snapshot of all jobs of the current run in submission order
func (s *Scheduler) Status() []orgfox.JobStatus {
	s.jobsSync.RLock()
	defer s.jobsSync.RUnlock()
	result := make([]orgfox.JobStatus, 0, len(s.order))
	for _, url := range s.order {
		result = append(result, s.jobs[url])
	}
	return result
}

// Counts - number of jobs per state
func (s *Scheduler) Counts() map[orgfox.JobState]int {
	s.jobsSync.RLock()
	defer s.jobsSync.RUnlock()
	result := map[orgfox.JobState]int{}
	for _, status := range s.jobs {
		result[status.State]++
	}
	return result
}

// register keys jobs by local path, so one repository written as several urls is processed once
func (s *Scheduler) register(targets []orgfox.RepositoryTarget) []orgfox.RepositoryTarget {
	s.jobsSync.Lock()
	defer s.jobsSync.Unlock()
	s.jobs = make(map[string]orgfox.JobStatus, len(targets))
	s.order = make([]string, 0, len(targets))
	unique := make([]orgfox.RepositoryTarget, 0, len(targets))
	for _, target := range targets {
		path := cloner.LocalPath(s.ClonePath, target)
		if _, ok := s.jobs[path]; ok {
			s.Log.Debug().Str("repo", target.CloneURL).Str("path", path).Msg("duplicate target skipped")
			continue
		}
		s.jobs[path] = orgfox.JobStatus{Target: target, State: orgfox.Queued}
		s.order = append(s.order, path)
		unique = append(unique, target)
	}
	return unique
}

func (s *Scheduler) record(path string, state orgfox.JobState) {
	s.jobsSync.Lock()
	defer s.jobsSync.Unlock()
	status := s.jobs[path]
	if state == orgfox.Cloning {
		status.StartTime = time.Now()
	}
	status.State = state
	s.jobs[path] = status
}

// Run blocks until every target is Done or Aborted. Targets sharing a local path are processed once.
// Results keep the order of the first appearance of every target.
func (s *Scheduler) Run(ctx context.Context, targets []orgfox.RepositoryTarget) ([]orgfox.JobResult, error) {
	if s.Workers < 1 {
		return nil, fmt.Errorf("workers count can't be less than 1")
	}
	if s.ClonePath == "" {
		return nil, fmt.Errorf("clone path is empty")
	}
	if s.Cloner == nil || s.Scanner == nil {
		return nil, fmt.Errorf("cloner and scanner are required")
	}
	s.Metrics.fill()

	unique := s.register(targets)
	results := make([]orgfox.JobResult, len(unique))
	queue := make(chan int, len(unique))
	for i := range unique {
		queue <- i
	}
	close(queue)

	workers := s.Workers
	if workers > len(unique) {
		workers = len(unique)
	}
	s.Log.Info().Int("repos", len(unique)).Int("workers", workers).Msg("run")

	var t tomb.Tomb
	t.Go(func() error {
		for i := 0; i < workers; i++ {
			t.Go(func() error {
				for index := range queue {
					results[index] = s.process(ctx, unique[index])
				}
				return nil
			})
		}
		return nil
	})
	t.Wait()
	return results, nil
}

func (s *Scheduler) abort(job *orgfox.CloneJob, err error) orgfox.JobResult {
	job.Err = err
	job.SetState(orgfox.Aborted)
	s.Metrics.JobsAborted.Add(1)
	s.Log.Error().Str("repo", job.Target.CloneURL).Int("attempt", job.Attempt).Str("error", err.Error()).Msg("aborted")
	return orgfox.JobResult{Target: job.Target, State: orgfox.Aborted, Attempts: job.Attempt, Err: err}
}

func (s *Scheduler) process(ctx context.Context, target orgfox.RepositoryTarget) (result orgfox.JobResult) {
	job := &orgfox.CloneJob{
		Target:    target,
		LocalPath: cloner.LocalPath(s.ClonePath, target),
		State:     orgfox.Queued,
	}
	job.OnState = func(state orgfox.JobState) {
		s.record(job.LocalPath, state)
	}
	if err := ctx.Err(); err != nil {
		return s.abort(job, fmt.Errorf("not started: %v", err))
	}
	if s.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.JobTimeout)
		defer cancel()
	}

	s.Metrics.ActiveJobs.Add(1)
	defer s.Metrics.ActiveJobs.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			result = s.abort(job, fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	job.SetState(orgfox.Cloning)
	cloneStart := time.Now()
	if err := s.Cloner.Clone(ctx, job); err != nil {
		return s.abort(job, err)
	}
	s.Metrics.CloneDuration.Observe(time.Since(cloneStart).Seconds())
	job.SetState(orgfox.Cloned)
	s.Log.Debug().Str("repo", target.CloneURL).Str("duration", helpers.PrettyDuration(time.Since(cloneStart))).Msg("cloned")

	job.SetState(orgfox.Scanning)
	report, err := s.Scanner.Scan(ctx, job)
	job.SetState(orgfox.Cleanup)
	if err != nil {
		s.Log.Error().Str("repo", target.CloneURL).Str("error", err.Error()).Msg("cleanup failed")
	}
	job.SetState(orgfox.Done)
	s.Metrics.JobsDone.Add(1)

	result = orgfox.JobResult{Target: target, State: orgfox.Done, Attempts: job.Attempt, Err: err}
	if report == nil {
		return result
	}
	s.Metrics.ScanDuration.Observe(report.EndTime.Sub(report.StartTime).Seconds())
	s.Metrics.Matches.Add(float64(len(report.Matches)))
	s.Metrics.ScanFailures.Add(float64(len(report.Failures)))
	result.Matches = len(report.Matches)
	s.Log.Info().Str("repo", target.CloneURL).Int("matches", len(report.Matches)).Int("failures", len(report.Failures)).Msg("scanned")
	if s.ReportChannel != nil {
		s.ReportChannel <- report
	}
	return result
}
