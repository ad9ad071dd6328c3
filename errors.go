package orgfox

import "fmt"

type CloneError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("can't clone '%s' after %d attempts with: %v", e.URL, e.Attempts, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

type RuleParseError struct {
	Source string
	Index  int
	Err    error
}

func (e *RuleParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("can't parse signatures '%s' with: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("can't parse signature #%d in '%s' with: %v", e.Index, e.Source, e.Err)
}

func (e *RuleParseError) Unwrap() error { return e.Err }

type ScanError struct {
	Rule string
	Repo string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("rule '%s' failed on '%s' with: %v", e.Rule, e.Repo, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("can't remove '%s' with: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
