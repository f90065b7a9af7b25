package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"contractor-matching/internal/bootstrap"
	"contractor-matching/internal/common/config"
	"contractor-matching/internal/matching"

	ac "contractor-matching/internal/workers/matching/assign-contractor"
	fcm "contractor-matching/internal/workers/matching/find-contractor-matches"
	ra "contractor-matching/internal/workers/matching/revoke-assignment"

	"github.com/spf13/cobra"
)

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var (
		overrides string
		actor     string
		role      string
	)

	cmd := &cobra.Command{
		Use:   "match <serviceRequestId>",
		Short: "Rank contractors for a service request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return opts.withCore(cmd, cfg, func(ctx context.Context, c *bootstrap.Components) error {
				return runMatch(ctx, cmd, c, args[0], actor, role, overrides)
			})
		},
	}

	cmd.Flags().StringVarP(&overrides, "overrides", "o", "", `match overrides as JSON, e.g. '{"maxResults":3}'`)
	cmd.Flags().StringVar(&actor, "actor", "matchctl", "actor id recorded in the audit trail")
	cmd.Flags().StringVar(&role, "role", "employee", "actor role")
	return cmd
}

func newAssignCmd(opts *rootOptions) *cobra.Command {
	var (
		actor string
		role  string
	)

	cmd := &cobra.Command{
		Use:   "assign <serviceRequestId> <contractorId>",
		Short: "Assign a contractor to a pending service request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return opts.withCore(cmd, cfg, func(ctx context.Context, c *bootstrap.Components) error {
				h := ac.NewHandler(nil, c.Manager, c.Logger())
				out, err := h.Execute(ctx, &ac.Input{
					ServiceRequestID: args[0],
					ContractorID:     args[1],
					ActorID:          actor,
					ActorRole:        role,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "actor id performing the assignment")
	cmd.Flags().StringVar(&role, "role", "employee", "actor role")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newRevokeCmd(opts *rootOptions) *cobra.Command {
	var (
		actor  string
		role   string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "revoke <serviceRequestId>",
		Short: "Revoke the active assignment and return the request to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return opts.withCore(cmd, cfg, func(ctx context.Context, c *bootstrap.Components) error {
				h := ra.NewHandler(nil, c.Manager, c.Logger())
				out, err := h.Execute(ctx, &ra.Input{
					ServiceRequestID: args[0],
					ActorID:          actor,
					ActorRole:        role,
					Reason:           reason,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "actor id performing the revocation")
	cmd.Flags().StringVar(&role, "role", "employee", "actor role")
	cmd.Flags().StringVar(&reason, "reason", "", "why the assignment is revoked")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema and create the contractor search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return opts.withCore(cmd, cfg, func(ctx context.Context, c *bootstrap.Components) error {
				if c.SQL == nil && c.Search == nil {
					return errors.New("nothing to migrate: no postgres or elasticsearch backend configured")
				}
				if c.SQL != nil {
					if err := c.SQL.Migrate(ctx); err != nil {
						return fmt.Errorf("postgres schema: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "postgres schema applied")
				}
				if c.Search != nil {
					if err := c.Search.EnsureIndex(ctx); err != nil {
						return fmt.Errorf("search index: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "search index %q ready\n", cfg.Matching.ContractorIndex)
				}
				return nil
			})
		},
	}
}

// newSimulateCmd runs the engine against a fixture file with the built-in
// policy. It needs no configuration file or running backend.
func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var (
		fixtures  string
		overrides string
	)

	cmd := &cobra.Command{
		Use:   "simulate <serviceRequestId>",
		Short: "Rank contractors from a JSON fixture file using the in-memory store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCore(cmd, simulationConfig(fixtures), func(ctx context.Context, c *bootstrap.Components) error {
				return runMatch(ctx, cmd, c, args[0], "matchctl", "employee", overrides)
			})
		},
	}

	cmd.Flags().StringVarP(&fixtures, "fixtures", "f", "configs/fixtures.json", "fixture file with serviceRequests and contractors")
	cmd.Flags().StringVarP(&overrides, "overrides", "o", "", "match overrides as JSON")
	return cmd
}

func simulationConfig(fixtures string) *config.Config {
	engine := matching.DefaultEngineConfig()
	return &config.Config{
		Matching: config.MatchingConfig{
			ContractorSource:  config.SourceMemory,
			FixturesPath:      fixtures,
			StoreTimeout:      engine.StoreTimeout,
			ParallelThreshold: engine.ParallelThreshold,
		},
		Assignment: config.AssignmentConfig{LockBackend: config.LockBackendMemory},
		Audit:      config.AuditConfig{Backend: config.AuditBackendNone},
	}
}

func runMatch(ctx context.Context, cmd *cobra.Command, c *bootstrap.Components, requestID, actor, role, overrides string) error {
	input := &fcm.Input{
		ServiceRequestID: requestID,
		RequestedBy:      actor,
		RequestedByRole:  role,
	}
	if overrides != "" {
		if !json.Valid([]byte(overrides)) {
			return errors.New("--overrides is not valid JSON")
		}
		input.Overrides = json.RawMessage(overrides)
	}

	out, err := fcm.NewHandler(nil, c.Engine, c.Logger()).Execute(ctx, input)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}
