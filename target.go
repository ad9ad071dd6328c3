package orgfox

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// NormalizeURL rewrites a clone URL to https and drops any user info.
// scp-like "git@host:owner/repo" addresses are accepted as well.
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		if i := strings.Index(rawURL, ":"); i > 0 && strings.Contains(rawURL[:i], "@") {
			rawURL = "ssh://" + rawURL[:i] + "/" + strings.TrimPrefix(rawURL[i+1:], "/")
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("can't parse url with: %v", err)
	}
	switch u.Scheme {
	case "git", "http", "https", "ssh":
	default:
		return "", fmt.Errorf("unsupported scheme '%s'", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in '%s'", rawURL)
	}
	u.Scheme = "https"
	u.User = nil
	u.Host = u.Hostname()
	return u.String(), nil
}

// ParseTarget derives owner and repository name from the last two path segments of the URL.
func ParseTarget(rawURL string) (RepositoryTarget, error) {
	cloneURL, err := NormalizeURL(rawURL)
	if err != nil {
		return RepositoryTarget{}, err
	}
	u, _ := url.Parse(cloneURL)
	p := strings.Trim(u.Path, "/")
	parts := strings.Split(p, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return RepositoryTarget{}, fmt.Errorf("can't find owner and repo in '%s'", cloneURL)
	}
	return RepositoryTarget{
		CloneURL: cloneURL,
		Owner:    parts[len(parts)-2],
		Name:     strings.TrimSuffix(path.Base(p), ".git"),
	}, nil
}
