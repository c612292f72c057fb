package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
	voyager "github.com/nullvoyager/voyager"
	"github.com/nullvoyager/voyager/internal/presentation/tui"
	"github.com/nullvoyager/voyager/internal/runtime"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the travel concierge in the terminal",
	Long: `Starts an interactive conversation. Tool results are rendered as cards and the
assistant reply as markdown. Type 'exit' or 'quit' to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		engine, err := a.engine(ctx)
		if err != nil {
			return err
		}

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		out := cmd.OutOrStdout()
		tui.PrintBanner(out, voyager.Version)
		fmt.Fprintf(out, "Session: %s\n\n", sessionID)

		r := &repl{
			engine:    engine,
			sessionID: sessionID,
			out:       out,
			render:    tui.NewRenderer(os.Stdout),
			tools:     tui.NewToolRenderer(termenv.EnvColorProfile()),
		}
		return r.run(ctx, cmd.InOrStdin())
	},
}

// repl keeps the conversation history of one terminal session.
type repl struct {
	engine    *runtime.Engine
	sessionID string
	history   []domain.Message
	out       io.Writer
	render    func(string) (string, error)
	tools     *tui.ToolRenderer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(r.out, "Bye!")
			return nil
		}

		if err := r.turn(ctx, input); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	}
}

func (r *repl) turn(ctx context.Context, input string) error {
	r.history = append(r.history, domain.Message{ID: uuid.NewString(), Role: domain.RoleUser, Content: input})

	sink := runtime.SinkFuncs{
		OnTool: func(inv domain.ToolInvocation) {
			fmt.Fprintln(r.out, r.tools.Render(inv))
		},
	}
	res, err := r.engine.ProcessMessage(ctx, r.sessionID, r.history, sink)
	if res != nil {
		r.history = append(r.history, res.Messages...)
	}
	if err != nil {
		return err
	}

	text, err := r.render(res.Text)
	if err != nil {
		text = res.Text
	}
	fmt.Fprintln(r.out, strings.TrimRight(text, "\n"))
	if res.Truncated {
		fmt.Fprintln(r.out, "(reply cut short after reaching the step limit)")
	}
	fmt.Fprintln(r.out)
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Resume an existing session id")
}
