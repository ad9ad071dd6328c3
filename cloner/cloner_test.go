package cloner

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AlexAkulov/orgfox"
	"github.com/rs/zerolog"
	"gopkg.in/src-d/go-git.v4/plumbing/transport"
	"gopkg.in/src-d/go-git.v4/plumbing/transport/http"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeGit struct {
	mutex      sync.Mutex
	failures   int
	clones     []string
	updates    []string
	auth       []transport.AuthMethod
	repository map[string]bool
}

func (g *fakeGit) fail() error {
	if g.failures > 0 {
		g.failures--
		return errors.New("network is down")
	}
	return nil
}

func (g *fakeGit) Clone(ctx context.Context, url, path string, auth transport.AuthMethod) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.clones = append(g.clones, url)
	g.auth = append(g.auth, auth)
	if err := g.fail(); err != nil {
		os.MkdirAll(path, 0755)
		return err
	}
	if g.repository == nil {
		g.repository = map[string]bool{}
	}
	g.repository[path] = true
	return os.MkdirAll(path, 0755)
}

func (g *fakeGit) Update(ctx context.Context, path string, auth transport.AuthMethod) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.updates = append(g.updates, path)
	return g.fail()
}

func (g *fakeGit) IsRepository(path string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.repository[path]
}

func newJob(root string) *orgfox.CloneJob {
	target := orgfox.RepositoryTarget{CloneURL: "git://github.com/octo/hello.git", Owner: "octo", Name: "hello.git"}
	return &orgfox.CloneJob{Target: target, LocalPath: LocalPath(root, target), State: orgfox.Cloning}
}

func TestLocalPath(t *testing.T) {
	Convey("owner/name without .git", t, func() {
		p := LocalPath("/data", orgfox.RepositoryTarget{Owner: "octo", Name: "hello.git"})
		So(p, ShouldEqual, filepath.Join("/data", "octo", "hello"))
	})
}

func TestClone(t *testing.T) {
	root, err := ioutil.TempDir("", "cloner")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(root)

	Convey("fresh clone over https with basic auth", t, func() {
		g := &fakeGit{}
		c := Cloner{Git: g, Log: zerolog.Nop(), Credentials: orgfox.Credentials{Username: "bob", Token: "tok"}}
		job := newJob(filepath.Join(root, "fresh"))

		So(c.Clone(context.Background(), job), ShouldBeNil)
		So(job.Attempt, ShouldEqual, 1)
		So(g.clones, ShouldResemble, []string{"https://github.com/octo/hello.git"})
		So(g.auth[0], ShouldResemble, &http.BasicAuth{Username: "bob", Password: "tok"})
		So(g.updates, ShouldBeEmpty)
	})

	Convey("no token means anonymous transport", t, func() {
		g := &fakeGit{}
		c := Cloner{Git: g, Log: zerolog.Nop()}
		So(c.Clone(context.Background(), newJob(filepath.Join(root, "anon"))), ShouldBeNil)
		So(g.auth[0], ShouldBeNil)
	})

	Convey("existing repository is updated in place", t, func() {
		g := &fakeGit{}
		c := Cloner{Git: g, Log: zerolog.Nop()}
		job := newJob(filepath.Join(root, "update"))
		So(c.Clone(context.Background(), job), ShouldBeNil)
		So(c.Clone(context.Background(), job), ShouldBeNil)
		So(g.clones, ShouldHaveLength, 1)
		So(g.updates, ShouldResemble, []string{job.LocalPath})
	})

	Convey("leftover directory that is not a repository is replaced", t, func() {
		g := &fakeGit{}
		c := Cloner{Git: g, Log: zerolog.Nop()}
		job := newJob(filepath.Join(root, "debris"))
		So(os.MkdirAll(job.LocalPath, 0755), ShouldBeNil)
		So(ioutil.WriteFile(filepath.Join(job.LocalPath, "junk"), []byte("x"), 0644), ShouldBeNil)

		So(c.Clone(context.Background(), job), ShouldBeNil)
		So(g.clones, ShouldHaveLength, 1)
		_, err := os.Stat(filepath.Join(job.LocalPath, "junk"))
		So(os.IsNotExist(err), ShouldBeTrue)
	})

	Convey("one failure is retried after the delay", t, func() {
		g := &fakeGit{failures: 1}
		c := Cloner{Git: g, Log: zerolog.Nop(), RetryDelay: 50 * time.Millisecond}
		job := newJob(filepath.Join(root, "retry"))
		var states []orgfox.JobState
		job.OnState = func(state orgfox.JobState) {
			states = append(states, state)
		}

		start := time.Now()
		So(c.Clone(context.Background(), job), ShouldBeNil)
		So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 50*time.Millisecond)
		So(job.Attempt, ShouldEqual, 2)
		So(job.State, ShouldEqual, orgfox.Retrying)
		So(states, ShouldResemble, []orgfox.JobState{orgfox.Retrying})
		So(g.clones, ShouldHaveLength, 2)
	})

	Convey("two failures give up with CloneError", t, func() {
		g := &fakeGit{failures: 5}
		c := Cloner{Git: g, Log: zerolog.Nop(), RetryDelay: time.Millisecond}
		job := newJob(filepath.Join(root, "fail"))

		err := c.Clone(context.Background(), job)
		var cloneErr *orgfox.CloneError
		So(errors.As(err, &cloneErr), ShouldBeTrue)
		So(cloneErr.Attempts, ShouldEqual, 2)
		So(cloneErr.URL, ShouldEqual, "https://github.com/octo/hello.git")
		So(g.clones, ShouldHaveLength, 2)
		_, statErr := os.Stat(job.LocalPath)
		So(os.IsNotExist(statErr), ShouldBeTrue)
	})

	Convey("cancellation during the retry delay", t, func() {
		g := &fakeGit{failures: 5}
		c := Cloner{Git: g, Log: zerolog.Nop(), RetryDelay: time.Hour}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := c.Clone(ctx, newJob(filepath.Join(root, "cancel")))
		So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		So(g.clones, ShouldHaveLength, 1)
	})

	Convey("bad url is not retried", t, func() {
		g := &fakeGit{}
		c := Cloner{Git: g, Log: zerolog.Nop()}
		job := newJob(root)
		job.Target.CloneURL = "ftp://example.com/a/b"
		So(c.Clone(context.Background(), job), ShouldNotBeNil)
		So(g.clones, ShouldBeEmpty)
	})
}
