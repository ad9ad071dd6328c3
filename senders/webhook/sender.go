package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/AlexAkulov/orgfox"
)

type Sender struct {
	Method  string
	URL     string
	Headers map[string]string
	Timeout time.Duration

	client *http.Client
}

type payload struct {
	Repo      string             `json:"repo"`
	CloneURL  string             `json:"clone_url"`
	Branch    string             `json:"branch"`
	Matches   []orgfox.ScanMatch `json:"matches"`
	Failures  []string           `json:"failures,omitempty"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
}

func (self *Sender) Start() error {
	if self.URL == "" {
		return fmt.Errorf("webhook url is not set")
	}
	if self.Method == "" {
		self.Method = http.MethodPost
	}
	if self.Timeout == 0 {
		self.Timeout = 30 * time.Second
	}
	self.client = &http.Client{Timeout: self.Timeout}
	return nil
}

func (self *Sender) Stop() error {
	return nil
}

// Send - reports without matches are not sent
func (self *Sender) Send(report orgfox.Report) error {
	if len(report.Matches) == 0 {
		return nil
	}
	p := payload{
		Repo:      report.Target.FullName(),
		CloneURL:  report.Target.CloneURL,
		Branch:    report.Branch,
		Matches:   report.Matches,
		StartTime: report.StartTime,
		EndTime:   report.EndTime,
	}
	for _, failure := range report.Failures {
		p.Failures = append(p.Failures, failure.Error())
	}
	line, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(self.Method, self.URL, bytes.NewBuffer(line))
	if err != nil {
		return fmt.Errorf("can't create request with: %v", err)
	}
	for k, v := range self.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := self.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err = ioutil.ReadAll(resp.Body); err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}
