package repolist

import (
	"github.com/AlexAkulov/orgfox"

	sync "github.com/sasha-s/go-deadlock"
)

// RepoList - targets in insertion order, one per clone URL
type RepoList struct {
	listSync sync.RWMutex
	list     []orgfox.RepositoryTarget
	index    map[string]int
}

func (l *RepoList) Clear() {
	l.listSync.Lock()
	defer l.listSync.Unlock()
	l.list = nil
	l.index = nil
}

// AddRepo returns false when the clone URL is already in the list
func (l *RepoList) AddRepo(r orgfox.RepositoryTarget) bool {
	l.listSync.Lock()
	defer l.listSync.Unlock()
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if _, ok := l.index[r.CloneURL]; ok {
		return false
	}
	l.index[r.CloneURL] = len(l.list)
	l.list = append(l.list, r)
	return true
}

// UpdateRepo replaces the stored target with the same clone URL in place or adds a new one.
// It returns false on replace.
func (l *RepoList) UpdateRepo(r orgfox.RepositoryTarget) bool {
	l.listSync.Lock()
	if i, ok := l.index[r.CloneURL]; ok {
		l.list[i] = r
		l.listSync.Unlock()
		return false
	}
	l.listSync.Unlock()
	return l.AddRepo(r)
}

func (l *RepoList) GetTotalRepos() int {
	l.listSync.RLock()
	defer l.listSync.RUnlock()
	return len(l.list)
}

// Targets - copy of the list
func (l *RepoList) Targets() []orgfox.RepositoryTarget {
	l.listSync.RLock()
	defer l.listSync.RUnlock()
	result := make([]orgfox.RepositoryTarget, len(l.list))
	copy(result, l.list)
	return result
}
