package email

import (
	"crypto/tls"
	"fmt"
	"html/template"
	"io"
	"net/smtp"
	"strings"
	"time"

	"github.com/AlexAkulov/orgfox"
	"github.com/facebookgo/muster"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Config - SMTP settings
type Config struct {
	From        string
	SMTPHost    string
	SMTPPort    int
	InsecureTLS bool
	Username    string
	Password    string
	Delay       time.Duration
}

// Sender - collects reports for Delay and sends one digest email
type Sender struct {
	AuditorEmail string
	Config       *Config
	Log          zerolog.Logger

	template *template.Template
	muster   *muster.Client
	deliver  func(recipient, subject string, messageData interface{}) error
}

// Send - queue the report for the next digest
func (s *Sender) Send(report orgfox.Report) error {
	if len(report.Matches) == 0 {
		return nil
	}
	s.muster.Work <- report
	return nil
}

// Start - check the SMTP server and start batching
func (s *Sender) Start() error {
	if err := s.probe(); err != nil {
		return fmt.Errorf("can't connect to smtp with: %v", err)
	}
	return s.start()
}

func (s *Sender) start() (err error) {
	if s.template, err = template.New("reportsmail").Parse(reportsTemplate); err != nil {
		return err
	}
	if s.deliver == nil {
		s.deliver = s.sendMessage
	}
	s.muster = &muster.Client{
		MaxBatchSize:         100,
		MaxConcurrentBatches: 1,
		BatchTimeout:         s.Config.Delay,
		BatchMaker:           s.reportBatchMaker,
	}
	return s.muster.Start()
}

func (s *Sender) probe() error {
	t, err := smtp.Dial(fmt.Sprintf("%s:%d", s.Config.SMTPHost, s.Config.SMTPPort))
	if err != nil {
		return err
	}
	defer t.Close()
	// Test TLS handshake
	if err := t.StartTLS(&tls.Config{
		InsecureSkipVerify: s.Config.InsecureTLS,
		ServerName:         s.Config.SMTPHost,
	}); err != nil {
		return err
	}
	// Test authentication
	if s.Config.Password != "" {
		if err := t.Auth(smtp.PlainAuth(
			"",
			s.Config.Username,
			s.Config.Password,
			s.Config.SMTPHost,
		)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) sendMessage(recipient string, subject string, messageData interface{}) error {
	d := gomail.Dialer{
		Host: s.Config.SMTPHost,
		Port: s.Config.SMTPPort,
		TLSConfig: &tls.Config{
			InsecureSkipVerify: s.Config.InsecureTLS,
			ServerName:         s.Config.SMTPHost,
		},
	}
	if s.Config.Password != "" {
		d.Auth = smtp.PlainAuth(
			"",
			s.Config.Username,
			s.Config.Password,
			s.Config.SMTPHost)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.Config.From)
	m.SetHeader("To", strings.Split(recipient, ",")...)

	m.SetHeader("Subject", subject)
	m.AddAlternativeWriter("text/html", func(w io.Writer) error {
		return s.template.Execute(w, messageData)
	})
	return d.DialAndSend(m)
}

// Stop - flush the pending digest
func (s *Sender) Stop() error {
	if s.muster == nil {
		return nil
	}
	return s.muster.Stop()
}
