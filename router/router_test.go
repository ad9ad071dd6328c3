package router

import (
	"errors"
	"testing"

	"github.com/AlexAkulov/orgfox"
	"github.com/AlexAkulov/orgfox/config"
	"github.com/AlexAkulov/orgfox/senders/console"
	"github.com/AlexAkulov/orgfox/senders/file"
	"github.com/AlexAkulov/orgfox/senders/webhook"
	"github.com/rs/zerolog"
	sync "github.com/sasha-s/go-deadlock"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeSender struct {
	mutex   sync.Mutex
	started bool
	stopped bool
	fail    bool
	reports []orgfox.Report
}

func (s *fakeSender) Start() error {
	s.started = true
	return nil
}

func (s *fakeSender) Stop() error {
	s.stopped = true
	return nil
}

func (s *fakeSender) Send(report orgfox.Report) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.reports = append(s.reports, report)
	if s.fail {
		return errors.New("unavailable")
	}
	return nil
}

func TestRouter(t *testing.T) {
	Convey("every report reaches every sender and buffered ones are drained", t, func() {
		channel := make(chan *orgfox.Report, 10)
		good, bad := &fakeSender{}, &fakeSender{fail: true}
		r := &ReportsRouter{
			ReportChannel: channel,
			Senders:       map[string]orgfox.IReportSender{"good": good, "bad": bad},
			Log:           zerolog.Nop(),
		}
		So(r.Start(), ShouldBeNil)
		So(good.started, ShouldBeTrue)
		for i := 0; i < 5; i++ {
			channel <- &orgfox.Report{Branch: "master"}
		}
		So(r.Stop(), ShouldBeNil)
		So(good.reports, ShouldHaveLength, 5)
		So(bad.reports, ShouldHaveLength, 5)
		So(good.stopped, ShouldBeTrue)
		So(bad.stopped, ShouldBeTrue)
	})

	Convey("senders from config", t, func() {
		c := &config.Config{
			Common:  &config.Common{ReportFile: "leaks.json"},
			SMTP:    &config.SMTP{},
			Webhook: &config.Webhook{Enable: true, URL: "http://localhost/hook"},
		}
		r := &ReportsRouter{Config: c, Log: zerolog.Nop()}
		senders, err := r.makeSenders()
		So(err, ShouldBeNil)
		So(senders, ShouldHaveLength, 3)
		So(senders["console"], ShouldHaveSameTypeAs, &console.Console{})
		So(senders["file"], ShouldResemble, &file.File{ReportFile: "leaks.json"})
		So(senders["webhook"], ShouldHaveSameTypeAs, &webhook.Sender{})

		c.SMTP = &config.SMTP{Enable: true, Delay: "never"}
		_, err = r.makeSenders()
		So(err, ShouldNotBeNil)
	})
}
