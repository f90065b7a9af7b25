package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"contractor-matching/internal/bootstrap"
	"contractor-matching/internal/common/config"
	"contractor-matching/internal/common/logger"

	"github.com/spf13/cobra"
)

const app = "matchctl"

type rootOptions struct {
	cfgFile string
	debug   bool
	json    bool
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           app,
		Short:         "matchctl finds, assigns and revokes contractors for service requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "a config file (default is configs/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	cmd.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "json format for logging")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "deadline for the whole command")

	cmd.AddCommand(
		newMatchCmd(opts),
		newAssignCmd(opts),
		newRevokeCmd(opts),
		newMigrateCmd(opts),
		newSimulateCmd(opts),
	)
	return cmd
}

// logger writes to stderr so stdout carries only command output.
func (o *rootOptions) logger() logger.Logger {
	level, format := "warn", "console"
	if o.debug {
		level = "debug"
	}
	if o.json {
		format = "json"
	}
	zl, err := logger.Build(logger.Options{Level: level, Format: format, Output: "stderr"})
	if err != nil {
		return logger.NewNoOpLogger()
	}
	return logger.NewZapAdapter(zl)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.cfgFile != "" {
		return config.LoadFromFile(o.cfgFile)
	}
	return config.Load()
}

// withCore runs fn against the components the configuration describes and
// closes them afterwards.
func (o *rootOptions) withCore(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, c *bootstrap.Components) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	c, err := bootstrap.Build(ctx, cfg, bootstrap.Options{ConnectAttempts: 3, ConnectDelay: time.Second}, o.logger())
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = c.Close(closeCtx)
	}()

	return fn(ctx, c)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
