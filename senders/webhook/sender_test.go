package webhook

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlexAkulov/orgfox"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSend(t *testing.T) {
	var (
		gotMethod string
		gotHeader http.Header
		gotBody   []byte
		status    = http.StatusOK
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header
		gotBody, _ = ioutil.ReadAll(r.Body)
		w.WriteHeader(status)
	}))
	defer server.Close()

	report := orgfox.Report{
		Target:   orgfox.RepositoryTarget{CloneURL: "https://github.com/octo/hello.git", Owner: "octo", Name: "hello"},
		Branch:   "master",
		Matches:  []orgfox.ScanMatch{{RuleName: "RSA key", RelativePath: "id_rsa", Link: "https://github.com/octo/hello/blob/master/id_rsa", Repo: "octo/hello"}},
		Failures: []error{errors.New("bad rule")},
	}

	Convey("report is posted as json", t, func() {
		s := &Sender{URL: server.URL, Headers: map[string]string{"X-Token": "secret"}}
		So(s.Start(), ShouldBeNil)
		So(s.Send(report), ShouldBeNil)
		So(gotMethod, ShouldEqual, http.MethodPost)
		So(gotHeader.Get("X-Token"), ShouldEqual, "secret")
		So(gotHeader.Get("Content-Type"), ShouldEqual, "application/json")

		var p payload
		So(json.Unmarshal(gotBody, &p), ShouldBeNil)
		So(p.Repo, ShouldEqual, "octo/hello")
		So(p.Matches, ShouldResemble, report.Matches)
		So(p.Failures, ShouldResemble, []string{"bad rule"})
	})

	Convey("empty report is not posted", t, func() {
		gotBody = nil
		s := &Sender{URL: server.URL}
		So(s.Start(), ShouldBeNil)
		So(s.Send(orgfox.Report{}), ShouldBeNil)
		So(gotBody, ShouldBeNil)
	})

	Convey("error status is an error", t, func() {
		status = http.StatusBadGateway
		defer func() { status = http.StatusOK }()
		s := &Sender{URL: server.URL, Method: http.MethodPut}
		So(s.Start(), ShouldBeNil)
		So(s.Send(report), ShouldNotBeNil)
		So(gotMethod, ShouldEqual, http.MethodPut)
	})

	Convey("url is required", t, func() {
		So((&Sender{}).Start(), ShouldNotBeNil)
	})
}
