package repo

import (
	"time"

	"github.com/odvcencio/grit/pkg/object"
	"go.uber.org/zap"
)

// Repo represents an opened repository.
type Repo struct {
	RootDir string        // working directory root
	GitDir  string        // .git/ directory
	Store   *object.Store // content-addressed object store
	Config  *Config

	logger *zap.Logger
	now    func() time.Time
}

// Option configures how a Repo is opened or created.
type Option func(*options)

type options struct {
	logger *zap.Logger
	now    func() time.Time
}

// WithLogger sets the logger shared by the repository and its store.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the clock used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newRepo(rootDir, gitDir string, cfg *Config, opts []Option) *Repo {
	o := options{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repo{
		RootDir: rootDir,
		GitDir:  gitDir,
		Store:   newStore(gitDir, cfg, o.logger),
		Config:  cfg,
		logger:  o.logger,
		now:     o.now,
	}
}

func newStore(gitDir string, cfg *Config, logger *zap.Logger) *object.Store {
	return object.NewStore(gitDir,
		object.WithLogger(logger),
		object.WithCompressionLevel(cfg.Core.Compression),
	)
}
