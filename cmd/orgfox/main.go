package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexAkulov/orgfox"
	"github.com/AlexAkulov/orgfox/cloner"
	"github.com/AlexAkulov/orgfox/config"
	"github.com/AlexAkulov/orgfox/github"
	"github.com/AlexAkulov/orgfox/harvester"
	"github.com/AlexAkulov/orgfox/helpers"
	"github.com/AlexAkulov/orgfox/metrics"
	"github.com/AlexAkulov/orgfox/router"
	"github.com/AlexAkulov/orgfox/scanner"
	"github.com/AlexAkulov/orgfox/scheduler"
	"github.com/AlexAkulov/orgfox/signatures"
	"github.com/AlexAkulov/orgfox/suppression"
	"github.com/AlexAkulov/orgfox/vault"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

var (
	version         = "unknown"
	configFlag      = flag.String("config", "config.yml", "config file location")
	pprofFlag       = flag.Bool("pprof", false, "Enable listen pprof on :6060")
	printConfigFlag = flag.Bool("default-config", false, "Print default config to stdout and exit")
)

func main() {
	flag.Parse()

	if *printConfigFlag {
		config.PrintDefaultConfig()
		os.Exit(0)
	}

	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open config %s: %v\n", *configFlag, err)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "bad config: %v\n", err)
		os.Exit(1)
	}

	logger := createLogger(conf.Logging)

	rules, err := signatures.Load(conf.Signatures, conf.Common.SignaturesPath)
	if err != nil {
		logger.Error().Str("service", "signatures").Str("error", err.Error()).Msg("can't load rules")
		os.Exit(1)
	}
	for _, rule := range rules.Broken() {
		logger.Warn().Str("rule", rule.Name).Str("error", rule.Err().Error()).Msg("rule will fail on every repo")
	}
	logger.Info().Str("service", "signatures").Int("count", rules.Len()).Msg("loaded")

	var suppressions []suppression.Suppression
	if conf.Common.SuppressionsPath != "" {
		if suppressions, err = suppression.LoadSuppressionsFromPath(conf.Common.SuppressionsPath); err != nil {
			logger.Error().Str("service", "suppressions").Str("error", err.Error()).Msg("can't load suppressions")
			os.Exit(1)
		}
		logger.Info().Str("service", "suppressions").Int("count", len(suppressions)).Msg("loaded")
	}

	credentials := orgfox.Credentials{Username: conf.Github.Username, Token: conf.Github.Token}
	if conf.Vault.Enable {
		if credentials, err = vaultCredentials(conf.Vault, logger); err != nil {
			logger.Error().Str("service", "vault").Str("error", err.Error()).Msg("fail")
			os.Exit(1)
		}
	}
	if credentials.IsEmpty() {
		logger.Warn().Msg("no github credentials, anonymous access is rate limited and sees public repos only")
	}

	metricsRepo := metrics.StartMetricsRepo(conf.Metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-signalChannel
		logger.Info().Str("signal", s.String()).Msg("received signal, finishing jobs in progress")
		cancel()
	}()

	if *pprofFlag {
		go func() {
			if err := http.ListenAndServe(":6060", nil); err != nil {
				logger.Error().Str("error", err.Error()).Msg("can't start pprof")
			}
		}()
	}

	logger.Info().Str("version", version).Msg("started")
	startTime := time.Now()

	webURL := github.WebURL(conf.Github.BaseURL)
	repoHarvester := &harvester.Harvester{
		Source:       &github.Client{Token: credentials.Token, BaseURL: conf.Github.BaseURL},
		Orgs:         conf.Github.Orgs,
		Users:        conf.Github.Users,
		Repos:        conf.Github.Repos,
		IncludeForks: conf.Github.IncludeForks,
		SkipEmpty:    conf.Github.SkipEmpty,
		WebURL:       webURL,
		Log:          logger.With().Str("service", "harvester").Logger(),
	}
	targets, err := repoHarvester.Harvest(ctx)
	if err != nil {
		logger.Error().Str("service", "harvester").Str("error", err.Error()).Msg("interrupted")
	}

	reportChannel := make(chan *orgfox.Report, conf.Common.Workers)
	reportsRouter := &router.ReportsRouter{
		ReportChannel: reportChannel,
		Config:        conf,
		Log:           logger,
	}
	if err := reportsRouter.Start(); err != nil {
		logger.Error().Str("service", "reports router").Str("error", err.Error()).Msg("fail")
		os.Exit(1)
	}
	logger.Debug().Str("service", "reports router").Msg("started")

	sched := &scheduler.Scheduler{
		Workers:    conf.Common.Workers,
		ClonePath:  conf.Common.ClonePath,
		JobTimeout: conf.Common.JobTimeout,
		Cloner: &cloner.Cloner{
			Credentials: credentials,
			RetryDelay:  conf.Common.RetryDelay,
			Git:         &cloner.GoGit{},
			Log:         logger.With().Str("service", "cloner").Logger(),
		},
		Scanner: &scanner.Scanner{
			Rules:                rules,
			BaseURL:              webURL,
			DefaultBranch:        conf.Common.DefaultBranch,
			ResolveDefaultBranch: conf.Common.ResolveDefaultBranch,
			MaxFileSize:          conf.Common.MaxFileSize,
			Suppressions:         suppressions,
			Log:                  logger.With().Str("service", "scanner").Logger(),
		},
		ReportChannel: reportChannel,
		Log:           logger.With().Str("service", "scheduler").Logger(),
		Metrics: scheduler.Metrics{
			JobsDone:      metricsRepo.CreateCounter("jobs.done"),
			JobsAborted:   metricsRepo.CreateCounter("jobs.aborted"),
			Matches:       metricsRepo.CreateCounter("matches.found"),
			ScanFailures:  metricsRepo.CreateCounter("scan.failures"),
			ActiveJobs:    metricsRepo.CreateGauge("jobs.active"),
			CloneDuration: metricsRepo.CreateHistogram("clone.duration"),
			ScanDuration:  metricsRepo.CreateHistogram("scan.duration"),
		},
	}

	statusDone := make(chan struct{})
	if conf.Common.StatusInterval > 0 {
		statusTicker := time.NewTicker(conf.Common.StatusInterval)
		defer statusTicker.Stop()
		go func() {
			for {
				select {
				case <-statusDone:
					return
				case <-statusTicker.C:
					counts := sched.Counts()
					active := 0
					for state, count := range counts {
						if state.IsActive() {
							active += count
						}
					}
					logger.Info().
						Int("done", counts[orgfox.Done]).
						Int("aborted", counts[orgfox.Aborted]).
						Int("active", active).
						Int("queued", counts[orgfox.Queued]).
						Int("total", len(targets)).
						Str("duration", helpers.PrettyDuration(time.Since(startTime))).
						Msg("progress")
				}
			}
		}()
	}

	results, err := sched.Run(ctx, targets)
	close(statusDone)
	if err != nil {
		logger.Error().Str("service", "scheduler").Str("error", err.Error()).Msg("fail")
	}

	if err := reportsRouter.Stop(); err != nil {
		logger.Error().Str("error", err.Error()).Str("service", "reports router").Msg("can't stop")
	}
	logger.Debug().Str("service", "reports router").Msg("stopped")

	logger.Debug().Str("service", "metrics repository").Msg("stop")
	if err := metricsRepo.Stop(); err != nil {
		logger.Error().Str("error", err.Error()).Str("service", "metrics repository").Msg("can't stop")
	}

	matches, aborted := 0, 0
	for _, result := range results {
		matches += result.Matches
		if result.State == orgfox.Aborted {
			aborted++
		}
	}
	logger.Info().
		Int("repos", len(results)).
		Int("matches", matches).
		Int("aborted", aborted).
		Str("duration", helpers.PrettyDuration(time.Since(startTime))).
		Str("version", version).
		Msg("stopped")
}

func vaultCredentials(conf *config.Vault, logger zerolog.Logger) (orgfox.Credentials, error) {
	v := &vault.Vault{Config: conf, Log: logger}
	if err := v.Start(); err != nil {
		return orgfox.Credentials{}, err
	}
	defer v.Stop()
	return v.Credentials()
}

func createLogger(conf *config.Logging) zerolog.Logger {
	var lvl zerolog.Level
	switch conf.Level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	default:
		fmt.Fprintf(os.Stderr, "Unknown logging level '%s'", conf.Level)
		os.Exit(1)
	}
	if conf.File != "" {
		writer := &lumberjack.Logger{
			Filename: conf.File,
			MaxSize:  100, //MB
			MaxAge:   1,   //d
			Compress: true,
		}
		return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
	}
	// stdout is left to the console report
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
