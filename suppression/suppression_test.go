package suppression

import (
	"testing"

	"github.com/AlexAkulov/orgfox"

	. "github.com/smartystreets/goconvey/convey"
)

const suppsFile = "./test/suppressions.yml"

func TestLoadSuppressions(t *testing.T) {
	Convey("Loads suppressions", t, func() {
		supps, err := LoadSuppressionsFromPath(suppsFile)
		So(err, ShouldBeNil)
		So(supps, ShouldHaveLength, 2)
		So(supps[0].Repository.String(), ShouldEqual, "octo/hello")
		So(supps[0].FilePath.String(), ShouldEqual, "^test/")
		So(supps[0].Snippet, ShouldEqual, matchAllRegex)
		So(supps[1].Repository, ShouldEqual, matchAllRegex)
	})

	Convey("Bad regex is an error, not a panic", t, func() {
		_, err := LoadSuppressionsFromPath("./test/broken.yml")
		So(err, ShouldNotBeNil)
	})

	Convey("Filters matches", t, func() {
		supps, err := LoadSuppressionsFromPath(suppsFile)
		So(err, ShouldBeNil)

		matches := []orgfox.ScanMatch{
			{Repo: "octo/hello", RuleName: "Password", RelativePath: "test/fixtures.txt", Snippet: "password=1"},
			{Repo: "octo/hello", RuleName: "Password", RelativePath: "config.txt", Snippet: "password=1"},
			{Repo: "octo/other", RuleName: "Password", RelativePath: "test/a.txt", Snippet: "password=1"},
			{Repo: "octo/other", RuleName: "Email", RelativePath: "a.txt", Snippet: "admin@example.com"},
			{Repo: "octo/other", RuleName: "RSA key", RelativePath: "id_rsa"},
		}
		So(FilterSuppressed(matches, supps), ShouldResemble, []orgfox.ScanMatch{matches[1], matches[2], matches[4]})
		So(FilterSuppressed(matches, nil), ShouldResemble, matches)
	})
}
