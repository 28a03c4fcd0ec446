package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"livechart/internal/config"
	"livechart/internal/stream"
	"livechart/internal/systemcheck"
	"livechart/internal/version"
)

// Execute runs the CLI with the provided args and manager.
func Execute(args []string, manager Manager, out, errOut io.Writer) int {
	return ExecuteContext(context.Background(), args, manager, out, errOut)
}

// ExecuteContext is Execute with a caller-controlled context; serve stops
// when ctx is cancelled.
func ExecuteContext(ctx context.Context, args []string, manager Manager, out, errOut io.Writer) int {
	cmd := NewRootCommand(manager, out, errOut)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(errOut, "Error:", err) //nolint:errcheck // best effort
			return ExitInvalidUsage
		}
		var runErr *runtimeError
		if !errors.As(err, &runErr) {
			// cobra's own flag and argument errors
			fmt.Fprintln(errOut, "Error:", err) //nolint:errcheck // best effort
			return ExitInvalidUsage
		}
		jsonOutput := false
		if f := cmd.PersistentFlags().Lookup("json"); f != nil {
			jsonOutput = f.Value.String() == "true"
		}
		if !jsonOutput {
			fmt.Fprintln(errOut, "Error:", err) //nolint:errcheck // best effort
		}
		return ExitRuntimeError
	}
	return ExitSuccess
}

// NewRootCommand builds the root CLI command tree.
func NewRootCommand(manager Manager, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "livechart",
		Short:         "live two-series chart server",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().Bool("json", false, "output JSONL")

	root.AddCommand(newServeCommand(manager))
	root.AddCommand(newVersionCommand())
	root.AddCommand(newRejectionsCommand(manager))
	root.AddCommand(newSendCommand(manager))
	root.AddCommand(newCheckCommand(manager))

	return root
}

type usageError struct {
	err error
}

func (u *usageError) Error() string {
	if u.err == nil {
		return "invalid usage"
	}
	return u.err.Error()
}

type runtimeError struct {
	err error
}

func (r *runtimeError) Error() string {
	if r.err == nil {
		return "runtime error"
	}
	return r.err.Error()
}

func newServeCommand(manager Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the chart server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			demo, _ := cmd.Flags().GetBool("demo")
			if err := manager.Serve(cmd.Context(), ServeOptions{ListenAddr: listen, Demo: demo}); err != nil {
				return writeError(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().String("listen", "", "listen address (overrides listen_addr)")
	cmd.Flags().Bool("demo", false, "feed every chart from a random source")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			jsonOutput, _ := cmd.Flags().GetBool("json")
			if jsonOutput {
				return writeEvent(cmd, Event{Type: "result", Data: info})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(),
				"livechart version %s\n  commit: %s\n  built: %s (%s)\n  go: %s\n  platform: %s\n",
				info.Version, info.Commit, info.BuildDate, version.GetVersionAge(), info.GoVersion, info.Platform)
			return err
		},
	}
}

func newRejectionsCommand(manager Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rejections",
		Short: "list recently dropped messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return &usageError{err: fmt.Errorf("--limit must be positive")}
			}

			rejections, err := manager.Rejections(cmd.Context(), limit)
			if err != nil {
				return writeError(cmd, err)
			}

			jsonOutput, _ := cmd.Flags().GetBool("json")
			if jsonOutput {
				return writeEvent(cmd, Event{Type: "result", Data: rejections})
			}
			if len(rejections) == 0 {
				return writeEvent(cmd, Event{Type: "result", Message: "no rejected messages"})
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"received", "kind", "type", "chart", "detail"})
			for _, r := range rejections {
				t.AppendRow(table.Row{r.ReceivedAt.Format(time.RFC3339), r.Kind, r.MessageType, r.ChartName, r.Detail})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "number of entries to show")
	return cmd
}

func newSendCommand(manager Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "post one chart update to a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serverURL, _ := cmd.Flags().GetString("server")
			msgType, _ := cmd.Flags().GetString("type")
			chart, _ := cmd.Flags().GetString("chart")
			x, _ := cmd.Flags().GetInt64("x")
			y0, _ := cmd.Flags().GetString("y0")
			y1, _ := cmd.Flags().GetString("y1")
			if chart == "" || y0 == "" || y1 == "" {
				return &usageError{err: fmt.Errorf("--chart, --y0 and --y1 are required")}
			}
			if x == 0 {
				x = time.Now().UnixMilli()
			}

			payload, err := json.Marshal(stream.Message{
				Name: chart,
				X:    stream.NumberString(strconv.FormatInt(x, 10)),
				Y0:   stream.NumberString(y0),
				Y1:   stream.NumberString(y1),
			})
			if err != nil {
				return writeError(cmd, err)
			}

			if err := manager.Send(cmd.Context(), SendRequest{ServerURL: serverURL, MessageType: msgType, Payload: payload}); err != nil {
				return writeError(cmd, err)
			}
			return writeEvent(cmd, Event{Type: "success", Message: "message queued"})
		},
	}
	cmd.Flags().String("server", "http://localhost"+config.DefaultPort, "server base URL")
	cmd.Flags().String("type", config.DefaultMessageType, "message type")
	cmd.Flags().String("chart", config.DefaultChartID, "chart id")
	cmd.Flags().Int64("x", 0, "timestamp in epoch milliseconds (default now)")
	cmd.Flags().String("y0", "", "raw value")
	cmd.Flags().String("y1", "", "running average value")
	return cmd
}

func newCheckCommand(manager Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "verify directories, journal, schedules and templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := manager.Check(cmd.Context())
			if err != nil {
				return writeError(cmd, err)
			}

			jsonOutput, _ := cmd.Flags().GetBool("json")
			if jsonOutput {
				if err := writeEvent(cmd, Event{Type: "result", Data: results}); err != nil {
					return err
				}
			} else {
				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"check", "status", "message"})
				for _, res := range results {
					t.AppendRow(table.Row{res.Name, res.Status, res.Message})
					for _, hint := range res.Remediation {
						t.AppendRow(table.Row{"", "", "  " + hint})
					}
				}
				t.Render()
			}

			if systemcheck.Failed(results) {
				return &runtimeError{err: fmt.Errorf("system check failed")}
			}
			return nil
		},
	}
}

func writeError(cmd *cobra.Command, err error) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		_ = writeEventWithContext(cmd.Context(), cmd, Event{
			Type:    "error",
			Message: err.Error(),
		}, true)
	}
	return &runtimeError{err: err}
}

func writeEvent(cmd *cobra.Command, event Event) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return writeEventWithContext(cmd.Context(), cmd, event, jsonOutput)
}

func writeEventWithContext(ctx context.Context, cmd *cobra.Command, event Event, jsonOutput bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		return encoder.Encode(event)
	}
	if event.Message != "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), event.Message)
		return err
	}
	return nil
}
