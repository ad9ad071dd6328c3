package entropy

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestShannon(t *testing.T) {
	Convey("empty and uniform strings", t, func() {
		So(Shannon(""), ShouldEqual, 0)
		So(Shannon("aaaa"), ShouldEqual, 0)
	})
	Convey("two equally frequent symbols give one bit", t, func() {
		So(Shannon("abab"), ShouldEqual, 1)
	})
	Convey("four symbols give two bits", t, func() {
		So(Shannon("abcd"), ShouldEqual, 2)
	})
}

func TestMaxWord(t *testing.T) {
	Convey("picks the noisiest word", t, func() {
		So(MaxWord("aaaa abcd abab"), ShouldEqual, 2)
		So(MaxWord("   "), ShouldEqual, 0)
	})
}
