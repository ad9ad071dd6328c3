package cloner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlexAkulov/orgfox"

	"github.com/rs/zerolog"
	"gopkg.in/src-d/go-git.v4/plumbing/transport"
	"gopkg.in/src-d/go-git.v4/plumbing/transport/http"
)

const (
	DefaultRetryDelay = 5 * time.Second
	maxAttempts       = 2
	defaultUsername   = "orgfox"
)

type IGit interface {
	Clone(ctx context.Context, url, path string, auth transport.AuthMethod) error
	Update(ctx context.Context, path string, auth transport.AuthMethod) error
	IsRepository(path string) bool
}

// Cloner - clone or update one repository, retry once after RetryDelay
type Cloner struct {
	Credentials orgfox.Credentials
	RetryDelay  time.Duration
	Git         IGit
	Log         zerolog.Logger
}

// LocalPath - <root>/<owner>/<name> without .git suffix
func LocalPath(root string, target orgfox.RepositoryTarget) string {
	return filepath.Join(root, target.Owner, strings.TrimSuffix(target.Name, ".git"))
}

func (c *Cloner) git() IGit {
	if c.Git == nil {
		return &GoGit{}
	}
	return c.Git
}

func (c *Cloner) auth() transport.AuthMethod {
	if c.Credentials.Token == "" {
		return nil
	}
	username := c.Credentials.Username
	if username == "" {
		username = defaultUsername
	}
	return &http.BasicAuth{Username: username, Password: c.Credentials.Token}
}

func (c *Cloner) Clone(ctx context.Context, job *orgfox.CloneJob) error {
	url, err := orgfox.NormalizeURL(job.Target.CloneURL)
	if err != nil {
		return &orgfox.CloneError{URL: job.Target.CloneURL, Attempts: 0, Err: err}
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	for job.Attempt = 1; ; job.Attempt++ {
		err = c.cloneOrUpdate(ctx, url, job.LocalPath)
		if err == nil {
			return nil
		}
		if job.Attempt >= maxAttempts || ctx.Err() != nil {
			break
		}
		job.SetState(orgfox.Retrying)
		c.Log.Warn().Str("repo", url).Int("attempt", job.Attempt).Str("error", err.Error()).Str("wait", delay.String()).Msg("clone failed, retry")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &orgfox.CloneError{URL: url, Attempts: job.Attempt, Err: ctx.Err()}
		case <-timer.C:
		}
	}
	return &orgfox.CloneError{URL: url, Attempts: job.Attempt, Err: err}
}

func (c *Cloner) cloneOrUpdate(ctx context.Context, url, path string) error {
	_, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err == nil {
		if c.git().IsRepository(path) {
			c.Log.Debug().Str("repo", url).Str("path", path).Msg("update")
			return c.git().Update(ctx, path, c.auth())
		}
		c.Log.Warn().Str("repo", url).Str("path", path).Msg("path is not a repository, clone again")
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	c.Log.Debug().Str("repo", url).Str("path", path).Msg("clone")
	if err := c.git().Clone(ctx, url, path, c.auth()); err != nil {
		os.RemoveAll(path)
		return err
	}
	return nil
}
