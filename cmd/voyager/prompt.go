package main

import (
	"fmt"

	"github.com/nullvoyager/voyager/internal/runtime"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt [session-id]",
	Short: "Print the system prompt the model would receive",
	Long: `Renders the system prompt for a stored session, or for an empty session in the
mode given with --mode.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")

		state := domain.NewState()
		if len(args) == 1 {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if state, err = a.sessions.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
		}
		if modeFlag != "" {
			mode, err := domain.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			state.Mode = mode
		}

		fmt.Fprintln(cmd.OutOrStdout(), runtime.RenderSystemPrompt(state))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().String("mode", "", "Override the mode (INSPIRATION, PLANNING, BOOKING)")
}
