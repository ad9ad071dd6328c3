package cloner

import (
	"context"
	"io"

	"gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing/transport"
)

// GoGit - IGit on top of go-git
type GoGit struct {
	Progress io.Writer
}

func (g *GoGit) Clone(ctx context.Context, url, path string, auth transport.AuthMethod) error {
	_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:      url,
		Auth:     auth,
		Progress: g.Progress,
	})
	return err
}

func (g *GoGit) Update(ctx context.Context, path string, auth transport.AuthMethod) error {
	repository, err := git.PlainOpen(path)
	if err != nil {
		return err
	}
	worktree, err := repository.Worktree()
	if err != nil {
		return err
	}
	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       auth,
		Progress:   g.Progress,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return err
	}
	return nil
}

func (g *GoGit) IsRepository(path string) bool {
	_, err := git.PlainOpen(path)
	return err == nil
}
