// Package cli is the idp command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-idp-client/idp/api"
	"github.com/alapierre/go-idp-client/idp/config"
	"github.com/alapierre/go-idp-client/idp/handoff"
	"github.com/alapierre/go-idp-client/idp/util"
)

var logger = logrus.WithField("component", "idp.cli")

// app is shared by all subcommands. Config is loaded before any command runs.
type app struct {
	configPath string
	debug      bool

	cfg *config.Config
	out io.Writer
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(cmd.ErrOrStderr())
	logrus.SetLevel(cfg.Level())
	if a.debug || util.DebugEnabled() {
		logrus.SetLevel(logrus.DebugLevel)
	}
	a.out = cmd.OutOrStdout()
	return nil
}

func (a *app) client() *api.Client {
	return api.New(a.cfg.BaseURL(), api.WithTimeout(a.cfg.HTTPTimeout))
}

// withHandoff opens the configured store for the duration of fn.
func (a *app) withHandoff(ctx context.Context, fn func(h *handoff.Handoff) error) error {
	store, closeFn, err := a.cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.WithError(err).Warn("closing handoff store")
		}
	}()
	return fn(handoff.New(store))
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func NewRootCommand(version string) *cobra.Command {
	a := &app{out: os.Stdout}

	root := &cobra.Command{
		Use:               "idp",
		Short:             "International driving permit application and checkout client",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.idp/config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		applyCmd(a),
		checkoutCmd(a),
		confirmCmd(a),
		verifyCmd(a),
		priceCmd(a),
		signatureCmd(a),
		handoffCmd(a),
		fakeAPICmd(a),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(version string) int {
	root := NewRootCommand(version)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), "Error:", userMessage(err))
		logger.WithError(err).Debug("command failed")
		return 1
	}
	return 0
}
