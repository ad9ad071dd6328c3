package helpers

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseDuration(t *testing.T) {
	Convey("1s", t, func() {
		result, err := ParseDuration("1s")
		So(err, ShouldBeNil)
		So(result, ShouldEqual, time.Duration(time.Second))
	})
	Convey("22m", t, func() {
		result, err := ParseDuration("22m")
		So(err, ShouldBeNil)
		So(result, ShouldEqual, time.Duration(time.Minute*22))
	})
	Convey("4444d", t, func() {
		result, err := ParseDuration("4444d")
		So(err, ShouldBeNil)
		So(result, ShouldEqual, time.Duration(time.Hour*24*4444))
	})
	Convey("3h2m1s", t, func() {
		result, err := ParseDuration("3h2m1s")
		So(err, ShouldBeNil)
		So(result, ShouldEqual, time.Duration(time.Hour*3+time.Minute*2+time.Second))
	})
	Convey("empty is zero", t, func() {
		result, err := ParseDuration("")
		So(err, ShouldBeNil)
		So(result, ShouldEqual, 0)
	})
	Convey("garbage", t, func() {
		_, err := ParseDuration("soon")
		So(err, ShouldNotBeNil)
	})
}

func TestPrettyDuration(t *testing.T) {
	Convey("trims zero tails", t, func() {
		So(PrettyDuration(time.Minute*3), ShouldEqual, "3m")
		So(PrettyDuration(time.Hour*2), ShouldEqual, "2h")
		So(PrettyDuration(time.Second*61), ShouldEqual, "1m1s")
	})
}

func TestParseSize(t *testing.T) {
	Convey("suffixes", t, func() {
		for str, expected := range map[string]int64{
			"512":  512,
			"64k":  64 << 10,
			"10MB": 10 << 20,
			"1g":   1 << 30,
		} {
			size, err := ParseSize(str)
			So(err, ShouldBeNil)
			So(size, ShouldEqual, expected)
		}
	})
	Convey("garbage", t, func() {
		_, err := ParseSize("big")
		So(err, ShouldNotBeNil)
	})
}

func TestRecoverTo(t *testing.T) {
	Convey("error panic", t, func() {
		err := func() (err error) {
			defer RecoverTo(&err)
			panic(errors.New("boom"))
		}()
		So(err.Error(), ShouldEqual, "boom")
	})
	Convey("string panic", t, func() {
		err := func() (err error) {
			defer RecoverTo(&err)
			panic("boom")
		}()
		So(err.Error(), ShouldEqual, "panic: boom")
	})
	Convey("no panic", t, func() {
		err := func() (err error) {
			defer RecoverTo(&err)
			return nil
		}()
		So(err, ShouldBeNil)
	})
}
