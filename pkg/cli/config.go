package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/chat"
	"github.com/studymate-dev/studymate/pkg/usecase/history"
	"github.com/studymate-dev/studymate/pkg/usecase/notes"
	"github.com/studymate-dev/studymate/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	baseURL    string
	courseID   string
	logLevel   string
	configPath string
}

// fileConfig is the optional YAML configuration file. Flags and environment
// variables take precedence over it.
type fileConfig struct {
	BaseURL  string `yaml:"base_url"`
	CourseID string `yaml:"course_id"`
	Quiz     struct {
		Questions  int    `yaml:"questions"`
		Difficulty string `yaml:"difficulty"`
	} `yaml:"quiz"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Aliases:     []string{"u"},
			Usage:       "Base URL of the StudyMate backend",
			Sources:     cli.EnvVars("STUDYMATE_BASE_URL"),
			Destination: &cfg.baseURL,
		},
		&cli.StringFlag{
			Name:        "course",
			Aliases:     []string{"c"},
			Usage:       "Course ID scoping notes, chat, and quizzes",
			Sources:     cli.EnvVars("STUDYMATE_COURSE_ID"),
			Destination: &cfg.courseID,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("STUDYMATE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to YAML configuration file",
			Sources:     cli.EnvVars("STUDYMATE_CONFIG"),
			Destination: &cfg.configPath,
		},
	}
}

// loadFile merges the YAML config file into unset fields.
func (cfg *config) loadFile() (*fileConfig, error) {
	var fc fileConfig
	if cfg.configPath == "" {
		return &fc, nil
	}

	data, err := os.ReadFile(cfg.configPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configPath))
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configPath))
	}

	if cfg.baseURL == "" {
		cfg.baseURL = fc.BaseURL
	}
	if cfg.courseID == "" {
		cfg.courseID = fc.CourseID
	}
	return &fc, nil
}

// setup installs the configured logger and returns a context carrying it.
func (cfg *config) setup(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newBackend creates the HTTP backend adapter
func (cfg *config) newBackend() (adapter.Backend, error) {
	if cfg.baseURL == "" {
		return nil, goerr.New("base-url is required")
	}
	return adapter.NewHTTPBackend(cfg.baseURL)
}

func (cfg *config) course() (model.CourseID, error) {
	if cfg.courseID == "" {
		return "", goerr.New("course is required")
	}
	return model.CourseID(cfg.courseID), nil
}

// workspace bundles the per-course session state owned by one command run.
type workspace struct {
	backend  adapter.Backend
	registry *notes.Registry
	log      *chat.Log
	syncer   *history.Syncer
	courseID model.CourseID
	file     *fileConfig
}

func (cfg *config) newWorkspace(ctx context.Context) (*workspace, error) {
	fc, err := cfg.loadFile()
	if err != nil {
		return nil, err
	}

	backend, err := cfg.newBackend()
	if err != nil {
		return nil, err
	}

	courseID, err := cfg.course()
	if err != nil {
		return nil, err
	}

	return &workspace{
		backend:  backend,
		registry: notes.NewRegistry(backend),
		log:      chat.NewLog(),
		syncer:   history.NewSyncer(backend),
		courseID: courseID,
		file:     fc,
	}, nil
}

// sync rehydrates the registry and transcript from the server. Failures are
// cold-start semantics and stay silent.
func (w *workspace) sync(ctx context.Context) *history.Result {
	return w.syncer.Sync(ctx, w.courseID, w.registry, w.log)
}
