package router

import (
	"fmt"

	"github.com/AlexAkulov/orgfox"
	"github.com/AlexAkulov/orgfox/config"
	"github.com/AlexAkulov/orgfox/helpers"
	"github.com/AlexAkulov/orgfox/senders/console"
	"github.com/AlexAkulov/orgfox/senders/email"
	"github.com/AlexAkulov/orgfox/senders/file"
	"github.com/AlexAkulov/orgfox/senders/webhook"

	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

// ReportsRouter - deliver every report to all configured senders
type ReportsRouter struct {
	ReportChannel <-chan *orgfox.Report
	Config        *config.Config
	Log           zerolog.Logger
	// Senders overrides the senders built from Config
	Senders map[string]orgfox.IReportSender

	tomb tomb.Tomb
}

func (r *ReportsRouter) makeSenders() (map[string]orgfox.IReportSender, error) {
	senders := map[string]orgfox.IReportSender{
		"console": &console.Console{},
	}
	if r.Config.SMTP.Enable {
		delay, err := helpers.ParseDuration(r.Config.SMTP.Delay)
		if err != nil {
			return nil, fmt.Errorf("can't parse delay with: %v", err)
		}
		senders["email"] = &email.Sender{
			AuditorEmail: r.Config.SMTP.Recipient,
			Config: &email.Config{
				From:        r.Config.SMTP.From,
				SMTPHost:    r.Config.SMTP.Host,
				SMTPPort:    r.Config.SMTP.Port,
				InsecureTLS: !r.Config.SMTP.TLS,
				Username:    r.Config.SMTP.Username,
				Password:    r.Config.SMTP.Password,
				Delay:       delay,
			},
			Log: r.Log,
		}
	}
	if r.Config.Common.ReportFile != "" {
		senders["file"] = &file.File{ReportFile: r.Config.Common.ReportFile}
	}
	if r.Config.Webhook.Enable {
		senders["webhook"] = &webhook.Sender{
			Method:  r.Config.Webhook.Method,
			URL:     r.Config.Webhook.URL,
			Headers: r.Config.Webhook.Headers,
		}
	}
	return senders, nil
}

func (r *ReportsRouter) Start() error {
	if r.Senders == nil {
		senders, err := r.makeSenders()
		if err != nil {
			return err
		}
		r.Senders = senders
	}

	for senderName, sender := range r.Senders {
		if err := sender.Start(); err != nil {
			return fmt.Errorf("can't start %s sender with: %v", senderName, err)
		}
		r.Log.Debug().Str("service", senderName).Msg("started")
	}

	r.tomb.Go(func() error {
		for {
			select {
			case <-r.tomb.Dying(): // Stop
				r.drain()
				return nil
			case report := <-r.ReportChannel:
				r.send(report)
			}
		}
	})
	return nil
}

func (r *ReportsRouter) drain() {
	for {
		select {
		case report := <-r.ReportChannel:
			r.send(report)
		default:
			return
		}
	}
}

func (r *ReportsRouter) send(report *orgfox.Report) {
	if report == nil {
		return
	}
	for senderName, sender := range r.Senders {
		if err := sender.Send(*report); err != nil {
			r.Log.Error().Str("service", senderName).Str("repo", report.Target.CloneURL).Str("error", err.Error()).Msg("can't send report")
		}
	}
}

// Stop - deliver reports still in the channel and flush senders
func (r *ReportsRouter) Stop() error {
	r.tomb.Kill(nil)
	r.tomb.Wait()
	for senderName, sender := range r.Senders {
		if err := sender.Stop(); err != nil {
			r.Log.Error().Str("service", senderName).Str("error", err.Error()).Msg("stop")
		}
	}
	return nil
}
