package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/AlexAkulov/orgfox"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

const perPage = 100

// Client - GitHub API access used to harvest repositories
type Client struct {
	Token string
	// BaseURL of the API, empty for github.com
	BaseURL string
	client  *github.Client
}

func (c *Client) connect() error {
	if c.client != nil {
		return nil
	}
	client := github.NewClient(c.getTokenClient())
	if c.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(c.BaseURL, "/") + "/")
		if err != nil {
			return fmt.Errorf("can't parse github base url with: %v", err)
		}
		client.BaseURL = baseURL
	}
	c.client = client
	return nil
}

// ListOrgMembers - logins of all members of the organization
func (c *Client) ListOrgMembers(ctx context.Context, orgName string) ([]string, error) {
	if err := c.connect(); err != nil {
		return nil, err
	}
	opts := &github.ListMembersOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var members []string
	for {
		users, resp, err := c.client.Organizations.ListMembers(ctx, orgName, opts)
		if err != nil {
			return members, fmt.Errorf("can't list members of %s with: %v", orgName, err)
		}
		for _, user := range users {
			members = append(members, user.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return members, nil
}

// ListUserRepos - all repositories owned by the user
func (c *Client) ListUserRepos(ctx context.Context, userName string) ([]orgfox.RepositoryTarget, error) {
	if err := c.connect(); err != nil {
		return nil, err
	}
	opts := &github.RepositoryListOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var repoList []orgfox.RepositoryTarget
	for {
		repos, resp, err := c.client.Repositories.List(ctx, userName, opts)
		if err != nil {
			return repoList, fmt.Errorf("can't list repos of %s with: %v", userName, err)
		}
		repoList = append(repoList, convertRepoList(repos)...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repoList, nil
}

// GetRepo - single repository by owner and name
func (c *Client) GetRepo(ctx context.Context, owner, name string) (orgfox.RepositoryTarget, error) {
	if err := c.connect(); err != nil {
		return orgfox.RepositoryTarget{}, err
	}
	repo, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return orgfox.RepositoryTarget{}, fmt.Errorf("can't get repo %s/%s with: %v", owner, name, err)
	}
	return convertRepo(repo), nil
}

// HasCommits - false for a repository without any commit, GitHub answers 409 for it
func (c *Client) HasCommits(ctx context.Context, owner, name string) (bool, error) {
	if err := c.connect(); err != nil {
		return false, err
	}
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	}
	commits, _, err := c.client.Repositories.ListCommits(ctx, owner, name, opts)
	if err != nil {
		if errResp, ok := err.(*github.ErrorResponse); ok && errResp.Response != nil && errResp.Response.StatusCode == http.StatusConflict {
			return false, nil
		}
		return false, fmt.Errorf("can't list commits of %s/%s with: %v", owner, name, err)
	}
	return len(commits) > 0, nil
}

func convertRepo(repo *github.Repository) orgfox.RepositoryTarget {
	return orgfox.RepositoryTarget{
		CloneURL:      repo.GetCloneURL(),
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		DefaultBranch: repo.GetDefaultBranch(),
		Fork:          repo.GetFork(),
	}
}

func convertRepoList(list []*github.Repository) (targets []orgfox.RepositoryTarget) {
	for _, repo := range list {
		targets = append(targets, convertRepo(repo))
	}
	return
}

func (c *Client) getTokenClient() *http.Client {
	if c.Token == "" {
		return nil
	}
	return oauth2.NewClient(
		context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token}),
	)
}

// WebURL - browsable base for an API base url, empty for github.com
func WebURL(apiBaseURL string) string {
	if apiBaseURL == "" {
		return ""
	}
	u := strings.TrimSuffix(apiBaseURL, "/")
	u = strings.TrimSuffix(u, "/api/v3")
	return strings.Replace(u, "://api.github.com", "://github.com", 1)
}
