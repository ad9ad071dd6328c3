package signatures

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/AlexAkulov/orgfox/entropy"
)

const (
	gitDir          = ".git"
	binaryProbeSize = 8000
	maxSnippetSize  = 1024
)

type Hit struct {
	Path    string
	Line    int
	Snippet string
}

type SearchOptions struct {
	// MaxFileSize skips bigger files in content search, zero means no limit.
	MaxFileSize int64
}

// Search runs the rule against the tree rooted at root. Hits carry slash separated
// paths relative to root. A non-nil error may come with partial hits.
func (r *Rule) Search(ctx context.Context, root string, opts SearchOptions) ([]Hit, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.Scope == Content {
		return r.searchContent(ctx, root, opts)
	}
	return r.searchFilename(ctx, root)
}

type visitFunc func(rel string, d fs.DirEntry) error

// walk visits everything under root except root itself and .git directories.
// Unreadable entries are skipped and the first such error is returned at the end.
func walk(ctx context.Context, root string, visit visitFunc) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}
	var firstErr error
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() && d.Name() == gitDir {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if err := visit(filepath.ToSlash(rel), d); err != nil && firstErr == nil {
			firstErr = err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return firstErr
}

func (r *Rule) subject(rel string, d fs.DirEntry) string {
	switch r.Target {
	case Extension:
		return filepath.Ext(d.Name())
	case Path:
		return rel
	default:
		return d.Name()
	}
}

func (r *Rule) matchName(subject string) bool {
	if r.Kind == Regex {
		return r.re.MatchString(subject)
	}
	if r.Target == Extension {
		return subject != "" && (subject == r.Pattern || subject == "."+r.Pattern)
	}
	return subject == r.Pattern
}

func (r *Rule) searchFilename(ctx context.Context, root string) ([]Hit, error) {
	var hits []Hit
	err := walk(ctx, root, func(rel string, d fs.DirEntry) error {
		if r.matchName(r.subject(rel, d)) {
			hits = append(hits, Hit{Path: rel})
		}
		return nil
	})
	return hits, err
}

func (r *Rule) matchLine(line string) bool {
	if r.Kind == Regex {
		if !r.re.MatchString(line) {
			return false
		}
	} else if !strings.HasSuffix(line, r.Pattern) {
		return false
	}
	if r.MinEntropy > 0 && entropy.MaxWord(line) < r.MinEntropy {
		return false
	}
	return true
}

func (r *Rule) searchContent(ctx context.Context, root string, opts SearchOptions) ([]Hit, error) {
	var hits []Hit
	err := walk(ctx, root, func(rel string, d fs.DirEntry) error {
		if !d.Type().IsRegular() {
			return nil
		}
		if opts.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > opts.MaxFileSize {
				return nil
			}
		}
		fileHits, err := r.searchFile(filepath.Join(root, filepath.FromSlash(rel)), rel)
		hits = append(hits, fileHits...)
		return err
	})
	return hits, err
}

func (r *Rule) searchFile(path, rel string) ([]Hit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 64*1024)
	head, _ := reader.Peek(binaryProbeSize)
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, nil
	}

	var hits []Hit
	for lineNumber := 1; ; lineNumber++ {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")
			if r.matchLine(line) {
				hits = append(hits, Hit{Path: rel, Line: lineNumber, Snippet: snippet(line)})
			}
		}
		if err == io.EOF {
			return hits, nil
		}
		if err != nil {
			return hits, fmt.Errorf("can't read '%s' with: %v", rel, err)
		}
	}
}

func snippet(line string) string {
	line = strings.TrimSpace(line)
	if len(line) > maxSnippetSize {
		cut := maxSnippetSize
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut]
	}
	return line
}
