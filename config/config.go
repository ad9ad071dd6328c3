package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/AlexAkulov/orgfox/helpers"
	"github.com/AlexAkulov/orgfox/signatures"
	yaml "gopkg.in/yaml.v2"
)

type Vault struct {
	Enable          bool   `yaml:"enable"`
	VaultURL        string `yaml:"vault_url"`
	RoleID          string `yaml:"role_id"`
	SecretID        string `yaml:"secret_id"`
	Token           string `yaml:"token"`
	CredentialsPath string `yaml:"credentials_path"`
}

type SMTP struct {
	Enable    bool   `yaml:"enable"`
	From      string `yaml:"mail_from"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	TLS       bool   `yaml:"tls"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Recipient string `yaml:"recipient"`
	Delay     string `yaml:"delay"`
}

type Webhook struct {
	Enable  bool              `yaml:"enable"`
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
}

type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Metrics struct {
	GraphiteAddress    string        `yaml:"graphite_address"`
	Prefix             string        `yaml:"prefix"`
	SendIntervalString string        `yaml:"send_interval"`
	SendInterval       time.Duration `yaml:"-"`
}

type Github struct {
	Username     string   `yaml:"username"`
	Token        string   `yaml:"token"`
	BaseURL      string   `yaml:"base_url"`
	Orgs         []string `yaml:"orgs"`
	Users        []string `yaml:"users"`
	Repos        []string `yaml:"repos"`
	IncludeForks bool     `yaml:"include_forks"`
	SkipEmpty    bool     `yaml:"skip_empty"`
}

type Common struct {
	ClonePath            string        `yaml:"clone_path"`
	SignaturesPath       string        `yaml:"signatures_path"`
	SuppressionsPath     string        `yaml:"suppressions_path"`
	Workers              int           `yaml:"workers"`
	RetryDelayString     string        `yaml:"retry_delay"`
	JobTimeoutString     string        `yaml:"job_timeout"`
	MaxFileSizeString    string        `yaml:"max_file_size"`
	DefaultBranch        string        `yaml:"default_branch"`
	ResolveDefaultBranch bool          `yaml:"resolve_default_branch"`
	ReportFile           string        `yaml:"report_file"`
	StatusIntervalString string        `yaml:"status_interval"`
	RetryDelay           time.Duration `yaml:"-"`
	JobTimeout           time.Duration `yaml:"-"`
	MaxFileSize          int64         `yaml:"-"`
	StatusInterval       time.Duration `yaml:"-"`
}

type Config struct {
	Common     *Common                `yaml:"common"`
	Github     *Github                `yaml:"github"`
	Signatures []signatures.Signature `yaml:"signatures"`
	Logging    *Logging               `yaml:"logging"`
	Metrics    *Metrics               `yaml:"metrics"`
	SMTP       *SMTP                  `yaml:"smtp"`
	Webhook    *Webhook               `yaml:"webhook"`
	Vault      *Vault                 `yaml:"vault"`
}

func defaultConfig() *Config {
	return &Config{
		Common: &Common{
			ClonePath:            "repos",
			Workers:              5,
			RetryDelayString:     "5s",
			DefaultBranch:        "master",
			StatusIntervalString: "10s",
		},
		Github: &Github{
			SkipEmpty: true,
		},
		Logging: &Logging{
			Level: "info",
		},
		Metrics: &Metrics{
			Prefix:             "orgfox",
			SendIntervalString: "1m",
		},
		SMTP: &SMTP{
			Port:  25,
			Delay: "5m",
		},
		Webhook: &Webhook{
			Method: "POST",
		},
		Vault: &Vault{},
	}
}

// env variables of the original bulk clone script win over the file
func applyEnv(config *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("GITHUB_USERNAME"); ok && v != "" {
		config.Github.Username = v
	}
	if v, ok := lookup("GITHUB_TOKEN"); ok && v != "" {
		config.Github.Token = v
	}
	if v, ok := lookup("BULK_CLONE_PATH"); ok && v != "" {
		config.Common.ClonePath = v
	}
	if v, ok := lookup("GITHUB_ORG_NAME"); ok && v != "" {
		config.Github.Orgs = []string{v}
	}
	if v, ok := lookup("SIGNATURE_JSON_FILE"); ok && v != "" {
		config.Common.SignaturesPath = v
	}
}

func (c *Config) fill() {
	d := defaultConfig()
	if c.Common == nil {
		c.Common = d.Common
	}
	if c.Github == nil {
		c.Github = d.Github
	}
	if c.Logging == nil {
		c.Logging = d.Logging
	}
	if c.Metrics == nil {
		c.Metrics = d.Metrics
	}
	if c.SMTP == nil {
		c.SMTP = d.SMTP
	}
	if c.Webhook == nil {
		c.Webhook = d.Webhook
	}
	if c.Vault == nil {
		c.Vault = d.Vault
	}
}

func (c *Config) parse() error {
	var err error
	if c.Common.RetryDelay, err = helpers.ParseDuration(c.Common.RetryDelayString); err != nil {
		return fmt.Errorf("can't parse retry_delay with: %v", err)
	}
	if c.Common.JobTimeout, err = helpers.ParseDuration(c.Common.JobTimeoutString); err != nil {
		return fmt.Errorf("can't parse job_timeout with: %v", err)
	}
	if c.Common.StatusInterval, err = helpers.ParseDuration(c.Common.StatusIntervalString); err != nil {
		return fmt.Errorf("can't parse status_interval with: %v", err)
	}
	if c.Metrics.SendInterval, err = helpers.ParseDuration(c.Metrics.SendIntervalString); err != nil {
		return fmt.Errorf("can't parse metrics send_interval with: %v", err)
	}
	if c.Common.MaxFileSizeString != "" {
		if c.Common.MaxFileSize, err = helpers.ParseSize(c.Common.MaxFileSizeString); err != nil {
			return fmt.Errorf("can't parse max_file_size with: %v", err)
		}
	}
	if c.SMTP.Enable {
		if _, err := helpers.ParseDuration(c.SMTP.Delay); err != nil {
			return fmt.Errorf("can't parse smtp delay with: %v", err)
		}
	}
	return nil
}

// Validate - check settings required for a run
func (c *Config) Validate() error {
	if c.Common.ClonePath == "" {
		return fmt.Errorf("common.clone_path (BULK_CLONE_PATH) is not set")
	}
	if c.Common.Workers < 1 {
		return fmt.Errorf("common.workers must be at least 1")
	}
	if c.Common.SignaturesPath == "" && len(c.Signatures) == 0 {
		return fmt.Errorf("common.signatures_path (SIGNATURE_JSON_FILE) is not set and no inline signatures")
	}
	if len(c.Github.Orgs) == 0 && len(c.Github.Users) == 0 && len(c.Github.Repos) == 0 {
		return fmt.Errorf("github.orgs (GITHUB_ORG_NAME), github.users or github.repos must be set")
	}
	for _, repo := range c.Github.Repos {
		if parts := strings.Split(repo, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("github.repos: '%s' is not owner/name", repo)
		}
	}
	if c.Common.DefaultBranch == "" {
		return fmt.Errorf("common.default_branch is empty")
	}
	if c.SMTP.Enable && (c.SMTP.Host == "" || c.SMTP.Recipient == "") {
		return fmt.Errorf("smtp.host and smtp.recipient are required when smtp is enabled")
	}
	if c.Webhook.Enable && c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url is required when webhook is enabled")
	}
	if c.Vault.Enable && c.Vault.CredentialsPath == "" {
		return fmt.Errorf("vault.credentials_path is required when vault is enabled")
	}
	return nil
}

func parseConfig(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("can't parse with: %v", err)
	}
	config.fill()
	applyEnv(config, lookup)
	if err := config.parse(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig - read yaml config, env variables override it. A missing file is allowed when
// everything comes from the environment.
func LoadConfig(configLocation string) (*Config, error) {
	configYaml, err := ioutil.ReadFile(configLocation)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("can't read with: %v", err)
		}
		configYaml = nil
	}
	return parseConfig(configYaml, os.LookupEnv)
}

func PrintDefaultConfig() {
	c := defaultConfig()
	d, _ := yaml.Marshal(&c)
	fmt.Print(string(d))
}
