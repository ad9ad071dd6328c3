package harvester

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlexAkulov/orgfox"
	"github.com/AlexAkulov/orgfox/repolist"

	"github.com/rs/zerolog"
)

// ISource - where repositories come from
type ISource interface {
	ListOrgMembers(ctx context.Context, org string) ([]string, error)
	ListUserRepos(ctx context.Context, user string) ([]orgfox.RepositoryTarget, error)
	GetRepo(ctx context.Context, owner, name string) (orgfox.RepositoryTarget, error)
	HasCommits(ctx context.Context, owner, name string) (bool, error)
}

// Harvester - collect repositories of organization members, users and explicit repos
type Harvester struct {
	Source       ISource
	Orgs         []string
	Users        []string
	Repos        []string
	IncludeForks bool
	SkipEmpty    bool
	// WebURL is used for explicit repos the API can't describe
	WebURL string
	Log    zerolog.Logger

	repoList repolist.RepoList
}

// Harvest - targets without duplicates in discovery order
func (h *Harvester) Harvest(ctx context.Context) ([]orgfox.RepositoryTarget, error) {
	if h.Source == nil {
		return nil, fmt.Errorf("repository source is not set")
	}
	h.repoList.Clear()

	users := append([]string{}, h.Users...)
	for _, org := range h.Orgs {
		h.Log.Debug().Str("organisation", org).Msg("get members")
		members, err := h.Source.ListOrgMembers(ctx, org)
		if err != nil {
			h.Log.Error().Str("error", err.Error()).Str("organisation", org).Msg("can't fetch members from github")
		}
		h.Log.Info().Str("organisation", org).Int("count", len(members)).Msg("members")
		users = append(users, members...)
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return h.repoList.Targets(), err
		}
		h.Log.Debug().Str("user", user).Msg("get repos")
		repos, err := h.Source.ListUserRepos(ctx, user)
		if err != nil {
			h.Log.Error().Str("error", err.Error()).Str("user", user).Msg("can't fetch repos from github")
			continue
		}
		for _, repo := range repos {
			if repo.Fork && !h.IncludeForks {
				h.Log.Debug().Str("repo", repo.FullName()).Msg("fork skipped")
				continue
			}
			h.add(ctx, repo, h.SkipEmpty)
		}
	}

	for _, fullName := range h.Repos {
		if err := ctx.Err(); err != nil {
			return h.repoList.Targets(), err
		}
		parts := strings.SplitN(fullName, "/", 2)
		if len(parts) != 2 {
			h.Log.Error().Str("repo", fullName).Msg("repo must be owner/name")
			continue
		}
		repo, err := h.Source.GetRepo(ctx, parts[0], parts[1])
		if err != nil {
			h.Log.Warn().Str("error", err.Error()).Str("repo", fullName).Msg("can't get repo from github, use plain url")
			// explicit repos are always scanned
			h.add(ctx, h.plainTarget(parts[0], parts[1]), false)
			continue
		}
		// fresh API data wins over a harvested copy of the same repo
		if !h.repoList.UpdateRepo(repo) {
			h.Log.Debug().Str("repo", repo.FullName()).Msg("updated in list")
		}
	}
	h.Log.Info().Int("count", h.repoList.GetTotalRepos()).Msg("harvested")
	return h.repoList.Targets(), nil
}

func (h *Harvester) plainTarget(owner, name string) orgfox.RepositoryTarget {
	webURL := h.WebURL
	if webURL == "" {
		webURL = "https://github.com"
	}
	return orgfox.RepositoryTarget{
		CloneURL: fmt.Sprintf("%s/%s/%s.git", strings.TrimSuffix(webURL, "/"), owner, name),
		Owner:    owner,
		Name:     name,
	}
}

func (h *Harvester) add(ctx context.Context, repo orgfox.RepositoryTarget, skipEmpty bool) {
	if skipEmpty {
		ok, err := h.Source.HasCommits(ctx, repo.Owner, repo.Name)
		if err != nil {
			h.Log.Error().Str("error", err.Error()).Str("repo", repo.FullName()).Msg("can't check commits")
			return
		}
		if !ok {
			h.Log.Debug().Str("repo", repo.FullName()).Msg("empty repo skipped")
			return
		}
	}
	if !h.repoList.AddRepo(repo) {
		h.Log.Debug().Str("repo", repo.FullName()).Msg("already in list")
	}
}
