package scanner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlexAkulov/orgfox"
	"github.com/AlexAkulov/orgfox/helpers"
	"github.com/AlexAkulov/orgfox/signatures"
	"github.com/AlexAkulov/orgfox/suppression"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://github.com"
	DefaultBranch  = "master"
)

// Scanner - apply signatures to a cloned tree and remove the tree afterwards
type Scanner struct {
	Rules                *signatures.RuleSet
	BaseURL              string
	DefaultBranch        string
	ResolveDefaultBranch bool
	MaxFileSize          int64
	Suppressions         []suppression.Suppression
	Log                  zerolog.Logger

	removeAll func(path string) error
}

func (s *Scanner) branch(target orgfox.RepositoryTarget) string {
	if s.ResolveDefaultBranch && target.DefaultBranch != "" {
		return target.DefaultBranch
	}
	if s.DefaultBranch != "" {
		return s.DefaultBranch
	}
	return DefaultBranch
}

// Link - https://github.com/{owner}/{repo}/blob/{branch}/{path}
func (s *Scanner) Link(target orgfox.RepositoryTarget, branch, relativePath string) string {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return fmt.Sprintf("%s/%s/%s/blob/%s/%s",
		strings.TrimSuffix(baseURL, "/"),
		target.Owner,
		strings.TrimSuffix(target.Name, ".git"),
		branch,
		strings.TrimPrefix(relativePath, "/"),
	)
}

// Scan never leaves job.LocalPath behind. The returned error is a CleanupError or nil,
// rule failures go to Report.Failures.
func (s *Scanner) Scan(ctx context.Context, job *orgfox.CloneJob) (report *orgfox.Report, err error) {
	report = &orgfox.Report{
		Target:    job.Target,
		Branch:    s.branch(job.Target),
		StartTime: time.Now(),
	}
	defer func() {
		job.SetState(orgfox.Cleanup)
		removeAll := s.removeAll
		if removeAll == nil {
			removeAll = os.RemoveAll
		}
		if rmErr := removeAll(job.LocalPath); rmErr != nil {
			err = &orgfox.CleanupError{Path: job.LocalPath, Err: rmErr}
		}
		report.EndTime = time.Now()
	}()

	repo := job.Target.FullName()
	for _, rule := range s.Rules.Rules() {
		hits, ruleErr := s.apply(ctx, rule, job.LocalPath)
		for _, hit := range hits {
			report.Matches = append(report.Matches, orgfox.ScanMatch{
				RuleName:     rule.Name,
				RelativePath: hit.Path,
				Line:         hit.Line,
				Snippet:      hit.Snippet,
				Link:         s.Link(job.Target, report.Branch, hit.Path),
				Repo:         repo,
			})
		}
		if ruleErr != nil {
			scanErr := &orgfox.ScanError{Rule: rule.Name, Repo: repo, Err: ruleErr}
			report.Failures = append(report.Failures, scanErr)
			s.Log.Error().Str("repo", repo).Str("rule", rule.Name).Str("error", ruleErr.Error()).Msg("rule failed")
		}
		if ctx.Err() != nil {
			break
		}
		if len(hits) > 0 {
			s.Log.Debug().Str("repo", repo).Str("rule", rule.Name).Int("matches", len(hits)).Msg("matched")
		}
	}
	found := len(report.Matches)
	report.Matches = suppression.FilterSuppressed(report.Matches, s.Suppressions)
	if suppressed := found - len(report.Matches); suppressed > 0 {
		s.Log.Debug().Str("repo", repo).Int("suppressed", suppressed).Msg("matches suppressed")
	}
	return report, nil
}

func (s *Scanner) apply(ctx context.Context, rule signatures.Rule, root string) (hits []signatures.Hit, err error) {
	defer helpers.RecoverTo(&err)
	return rule.Search(ctx, root, signatures.SearchOptions{MaxFileSize: s.MaxFileSize})
}
