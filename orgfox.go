package orgfox

import (
	"context"
	"time"
)

type JobState int

const (
	Queued JobState = iota
	Cloning
	Retrying
	Cloned
	Aborted
	Scanning
	Cleanup
	Done
)

var jobStateNames = [...]string{"queued", "cloning", "retrying", "cloned", "aborted", "scanning", "cleanup", "done"}

func (s JobState) String() string {
	if s < 0 || int(s) >= len(jobStateNames) {
		return "unknown"
	}
	return jobStateNames[s]
}

// IsTerminal reports whether no further transitions follow.
func (s JobState) IsTerminal() bool {
	return s == Done || s == Aborted
}

// IsActive reports whether the job holds a worker.
func (s JobState) IsActive() bool {
	return s != Queued && !s.IsTerminal()
}

type Credentials struct {
	Username string
	Token    string
}

func (c Credentials) IsEmpty() bool {
	return c.Username == "" && c.Token == ""
}

type RepositoryTarget struct {
	CloneURL      string
	Owner         string
	Name          string
	DefaultBranch string
	Fork          bool
}

// FullName - owner/name
func (t RepositoryTarget) FullName() string {
	return t.Owner + "/" + t.Name
}

type CloneJob struct {
	Target    RepositoryTarget
	LocalPath string
	Attempt   int
	State     JobState
	Err       error
	// OnState is called after every SetState
	OnState func(JobState)
}

func (j *CloneJob) SetState(state JobState) {
	j.State = state
	if j.OnState != nil {
		j.OnState(state)
	}
}

type ScanMatch struct {
	RuleName     string `json:"rule"`
	RelativePath string `json:"path"`
	Line         int    `json:"line,omitempty"`
	Snippet      string `json:"snippet,omitempty"`
	Link         string `json:"link"`
	Repo         string `json:"repo"`
}

type Report struct {
	Target    RepositoryTarget
	Branch    string
	Matches   []ScanMatch
	Failures  []error
	StartTime time.Time
	EndTime   time.Time
}

// ByRule groups matches by rule name keeping the rule evaluation order.
func (r *Report) ByRule() (names []string, groups map[string][]ScanMatch) {
	groups = map[string][]ScanMatch{}
	for _, m := range r.Matches {
		if _, ok := groups[m.RuleName]; !ok {
			names = append(names, m.RuleName)
		}
		groups[m.RuleName] = append(groups[m.RuleName], m)
	}
	return names, groups
}

type JobResult struct {
	Target   RepositoryTarget
	State    JobState
	Attempts int
	Matches  int
	Err      error
}

type JobStatus struct {
	Target    RepositoryTarget
	State     JobState
	StartTime time.Time
}

type ICloner interface {
	Clone(ctx context.Context, job *CloneJob) error
}

// IScanner must release job.LocalPath before returning.
type IScanner interface {
	Scan(ctx context.Context, job *CloneJob) (*Report, error)
}

type IReportSender interface {
	Start() error
	Send(Report) error
	Stop() error
}
