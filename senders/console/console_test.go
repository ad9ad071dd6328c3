package console

import (
	"bytes"
	"testing"

	"github.com/AlexAkulov/orgfox"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSend(t *testing.T) {
	Convey("rule name then its links", t, func() {
		buf := &bytes.Buffer{}
		c := &Console{Writer: buf}
		So(c.Start(), ShouldBeNil)
		So(c.Send(orgfox.Report{Matches: []orgfox.ScanMatch{
			{RuleName: "Password", Link: "https://github.com/octo/hello/blob/master/a.txt"},
			{RuleName: "RSA key", Link: "https://github.com/octo/hello/blob/master/id_rsa"},
			{RuleName: "Password", Link: "https://github.com/octo/hello/blob/master/b.txt"},
		}}), ShouldBeNil)
		So(buf.String(), ShouldEqual, "Password\n"+
			"https://github.com/octo/hello/blob/master/a.txt\n"+
			"https://github.com/octo/hello/blob/master/b.txt\n"+
			"RSA key\n"+
			"https://github.com/octo/hello/blob/master/id_rsa\n")
	})

	Convey("no matches, no output", t, func() {
		buf := &bytes.Buffer{}
		c := &Console{Writer: buf}
		So(c.Send(orgfox.Report{}), ShouldBeNil)
		So(buf.Len(), ShouldEqual, 0)
	})
}
