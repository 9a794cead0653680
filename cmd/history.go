// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/pkg/history"
)

// NewCmdHistory creates the history command
func NewCmdHistory() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history [target]",
		Short:   "List stored traces",
		Long:    "History lists the traces stored by 'trace --save' or the monitor, newest first.",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: bindFlags,
		RunE:    runHistory,
	}

	NewFlag("history.limit", "limit").Int().Bind(cmd, 20, "maximum number of traces to list, 0 lists all")
	NewFlag("history.path", "history-path").String().Bind(cmd, defaultHistoryPath(), "path of the history database")
	NewFlag("history.output", "output").String().Bind(cmd, string(outputText), "output format: text, json or yaml")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := logger.IntoContext(cmd.Context(), logger.NewLogger())

	out, err := parseOutput(viper.GetString("history.output"))
	if err != nil {
		return err
	}

	f := history.Filter{Limit: viper.GetInt("history.limit")}
	if len(args) == 1 {
		f.Target = args[0]
	}

	store, err := history.New(ctx, viper.GetString("history.path"))
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() {
		if cErr := store.Close(); cErr != nil {
			logger.FromContext(ctx).WarnContext(ctx, "Failed to close history", "error", cErr)
		}
	}()

	entries, err := store.List(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}

	if out != outputText {
		return out.encode(cmd.OutOrStdout(), entries)
	}
	return printEntries(cmd.OutOrStdout(), entries)
}

func printEntries(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No traces found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTIME\tTARGET\tADDRESS\tSTATUS\tHOPS\tOVERVIEW")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.CreatedAt.Local().Format(time.DateTime), e.Target, e.Addr, e.Status, len(e.Hops), e.Summary)
	}
	return tw.Flush()
}
