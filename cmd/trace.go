// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/internal/traceroute"
	"github.com/telekom/netdiag/pkg/history"
)

// traceOutput is the encoded result of a trace
type traceOutput struct {
	traceroute.Result `yaml:",inline"`
	Summary           traceroute.Summary `json:"summary" yaml:"summary"`
}

// NewCmdTrace creates the trace command
func NewCmdTrace(client traceroute.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <target> [max_hops]",
		Short: "Trace the route to a target",
		Long: "Trace sends ICMP echo requests with increasing TTL to the target and prints every hop as it answers.\n" +
			"It stops once the target answered or max_hops is reached.",
		Args:    cobra.RangeArgs(1, 2),
		PreRunE: bindFlags,
		RunE:    runTrace(client),
	}

	NewFlag("trace.maxHops", "max-hops").Int().Bind(cmd, traceroute.DefaultMaxTTL, "maximum number of hops to probe")
	NewFlag("trace.timeout", "timeout").Duration().Bind(cmd, traceroute.DefaultTimeout, "time to wait for the answer to a single probe")
	NewFlag("trace.payloadSize", "payload-size").Int().Bind(cmd, traceroute.DefaultPayloadSize, "size of the echo request payload in bytes")
	NewFlag("trace.maxConsecutiveFailures", "max-failures").Int().Bind(cmd, 0, "stop after this many unanswered hops in a row, 0 disables the limit")
	NewFlag("trace.resolveNames", "resolve").Bool().Bind(cmd, false, "resolve the names of the hops")
	NewFlag("trace.output", "output").String().Bind(cmd, string(outputText), "output format: text, json or yaml")
	NewFlag("trace.save", "save").Bool().Bind(cmd, false, "store the trace in the history database")
	NewFlag("history.path", "history-path").String().Bind(cmd, defaultHistoryPath(), "path of the history database")

	return cmd
}

func runTrace(client traceroute.Client) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logger.IntoContext(cmd.Context(), logger.NewLogger())
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		out, err := parseOutput(viper.GetString("trace.output"))
		if err != nil {
			return err
		}

		opts := traceroute.Options{
			MaxTTL:                 viper.GetInt("trace.maxHops"),
			Timeout:                viper.GetDuration("trace.timeout"),
			PayloadSize:            viper.GetInt("trace.payloadSize"),
			MaxConsecutiveFailures: viper.GetInt("trace.maxConsecutiveFailures"),
			ResolveNames:           viper.GetBool("trace.resolveNames"),
		}
		if len(args) == 2 {
			opts.MaxTTL, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid max_hops %q: %w", args[1], err)
			}
		}
		if err = opts.Validate(); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		target := args[0]
		if out == outputText {
			_, _ = fmt.Fprintf(w, "Tracing route to %s over a maximum of %d hops\n\n", target, opts.MaxTTL)
			opts.OnHop = func(h traceroute.Hop) {
				_, _ = fmt.Fprintln(w, h)
			}
		}

		res, err := client.Trace(ctx, target, &opts)
		if err != nil {
			return err
		}

		if viper.GetBool("trace.save") {
			if err := saveTrace(ctx, viper.GetString("history.path"), res); err != nil {
				return err
			}
		}

		return printTrace(w, out, res)
	}
}

func printTrace(w io.Writer, out output, res *traceroute.Result) error {
	summary := traceroute.Summarize(res)
	if out != outputText {
		return out.encode(w, traceOutput{Result: *res, Summary: summary})
	}

	if res.Status == traceroute.StatusCanceled {
		_, _ = fmt.Fprintln(w, "\nTrace canceled.")
	} else {
		_, _ = fmt.Fprintf(w, "\nTrace %s.\n", res.Status)
	}
	_, err := fmt.Fprintf(w, "Overview: %s\n", summary)
	return err
}

func saveTrace(ctx context.Context, path string, res *traceroute.Result) error {
	// canceled traces are stored as well
	ctx = context.WithoutCancel(ctx)
	store, err := history.New(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() {
		if cErr := store.Close(); cErr != nil {
			logger.FromContext(ctx).WarnContext(ctx, "Failed to close history", "error", cErr)
		}
	}()

	if err := store.Save(ctx, res); err != nil {
		return fmt.Errorf("failed to save trace: %w", err)
	}
	return nil
}
