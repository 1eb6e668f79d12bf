package main

import (
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger returns a development logger on the command's stderr when
// --verbose is set, and a no-op logger otherwise.
func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil || !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(cmd.ErrOrStderr()),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

func openRepo(cmd *cobra.Command) (*repo.Repo, error) {
	return repo.Open(".", repo.WithLogger(newLogger(cmd)))
}

func parseHashArg(s string) (object.Hash, error) {
	return object.ParseHash(strings.TrimSpace(s))
}
