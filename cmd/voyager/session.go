package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nullvoyager/voyager/internal/presentation/graph"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions held by the configured store, or force a session's mode.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		sessions, err := a.sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		fmt.Fprintln(out, "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		asGraph, _ := cmd.Flags().GetBool("graph")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		state, err := a.sessions.Store().Load(cmd.Context(), sessionID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("session '%s' not found", sessionID)
			}
			return fmt.Errorf("loading session '%s': %w", sessionID, err)
		}

		if asGraph {
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(state))
			return nil
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		var errs []error
		for _, sessionID := range args {
			if err := a.sessions.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

var sessionModeCmd = &cobra.Command{
	Use:   "mode <session-id> <INSPIRATION|PLANNING|BOOKING>",
	Short: "Set the mode of a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := domain.ParseMode(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		state, err := a.sessions.TransitionMode(cmd.Context(), args[0], mode)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session '%s' is now in %s mode\n", args[0], state.Mode)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionModeCmd)

	sessionInspectCmd.Flags().Bool("graph", false, "Print the mode graph as Mermaid instead of JSON")
}
