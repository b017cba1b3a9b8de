package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/godilite/wellbeing-server/api/v1"
)

const defaultAddr = "localhost:50052"

// dialFunc opens a client for addr. Tests replace it with an in-memory server.
type dialFunc func(addr string) (pb.WellbeingClient, io.Closer, error)

func dialGRPC(addr string) (pb.WellbeingClient, io.Closer, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return pb.NewWellbeingClient(conn), conn, nil
}

type globalFlags struct {
	addr    string
	user    string
	timeout time.Duration
}

func newRootCmd(dial dialFunc) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:          "wellbeingctl",
		Short:        "Record and query daily wellbeing rollups",
		SilenceUsage: true,
	}

	addr := defaultAddr
	if env := os.Getenv("WELLBEING_ADDR"); env != "" {
		addr = env
	}
	root.PersistentFlags().StringVar(&g.addr, "addr", addr, "gRPC server address")
	root.PersistentFlags().StringVarP(&g.user, "user", "u", os.Getenv("WELLBEING_USER"), "user id")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 10*time.Second, "per-request timeout")

	run := func(fn func(ctx context.Context, c pb.WellbeingClient) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(g.user) == "" {
				return errors.New("--user is required")
			}
			client, closer, err := dial(g.addr)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			resp, err := fn(ctx, client)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}
	}

	root.AddCommand(
		newJournalCmd(g, run),
		newMoodCmd(g, run),
		newAssessCmd(g, run),
		newTodayCmd(g, run),
		newHistoryCmd(g, run),
		newWeeklyCmd(g, run),
		newSeriesCmd(g, run),
		newTrendCmd(g, run),
		newPendingCmd(g, run),
	)
	return root
}

type runner func(fn func(ctx context.Context, c pb.WellbeingClient) (any, error)) func(*cobra.Command, []string) error

func newJournalCmd(g *globalFlags, run runner) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "journal [text...]",
		Short: "Submit a journal entry for sentiment classification",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 timestamp (default now)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
			return c.SubmitJournal(ctx, &pb.SubmitJournalRequest{User: g.user, Text: strings.Join(args, " "), Timestamp: at})
		})(cmd, args)
	}
	return cmd
}

func newMoodCmd(g *globalFlags, run runner) *cobra.Command {
	var (
		at     string
		stress float64
	)
	cmd := &cobra.Command{
		Use:   "mood <mood>",
		Short: "Log a mood (depressed, sad, neutral, happy, excited or 0..4)",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 timestamp (default now)")
	cmd.Flags().Float64Var(&stress, "stress", 0, "stress level 0..100")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		req := &pb.LogMoodRequest{User: g.user, Mood: args[0], Timestamp: at}
		if cmd.Flags().Changed("stress") {
			req.Stress = &stress
		}
		return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
			return c.LogMood(ctx, req)
		})(cmd, args)
	}
	return cmd
}

func newAssessCmd(g *globalFlags, run runner) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "assess <answer>...",
		Short: "Submit one daily assessment session",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 timestamp (default now)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
			return c.SubmitAssessment(ctx, &pb.SubmitAssessmentRequest{User: g.user, Answers: args, Timestamp: at})
		})(cmd, args)
	}
	return cmd
}

func addFeatureFlag(cmd *cobra.Command, feature *string) {
	cmd.Flags().StringVarP(feature, "feature", "f", "mood", "journal, mood or assessment")
}

func newTodayCmd(g *globalFlags, run runner) *cobra.Command {
	var feature string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's rollup",
		Args:  cobra.NoArgs,
	}
	addFeatureFlag(cmd, &feature)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
			return c.GetToday(ctx, &pb.RollupRequest{User: g.user, Feature: feature})
		})(cmd, args)
	}
	return cmd
}

func newHistoryCmd(g *globalFlags, run runner) *cobra.Command {
	var feature string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List every stored rollup, newest first",
		Args:  cobra.NoArgs,
	}
	addFeatureFlag(cmd, &feature)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
			return c.GetHistory(ctx, &pb.RollupRequest{User: g.user, Feature: feature})
		})(cmd, args)
	}
	return cmd
}

func newWeeklyCmd(g *globalFlags, run runner) *cobra.Command {
	var feature, end string
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Show the 7 days ending at --end",
		Args:  cobra.NoArgs,
	}
	addFeatureFlag(cmd, &feature)
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (default today)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
			return c.GetWeekly(ctx, &pb.SeriesRequest{User: g.user, Feature: feature, End: end})
		})(cmd, args)
	}
	return cmd
}

func newSeriesCmd(g *globalFlags, run runner) *cobra.Command {
	var (
		feature, end string
		days         int
	)
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Show --days days ending at --end",
		Args:  cobra.NoArgs,
	}
	addFeatureFlag(cmd, &feature)
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 30, "window length in days")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
			return c.GetSeries(ctx, &pb.SeriesRequest{User: g.user, Feature: feature, End: end, Days: days})
		})(cmd, args)
	}
	return cmd
}

func newTrendCmd(g *globalFlags, run runner) *cobra.Command {
	var (
		feature, end string
		weeks        int
	)
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show weekly buckets ending at --end",
		Args:  cobra.NoArgs,
	}
	addFeatureFlag(cmd, &feature)
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&weeks, "weeks", 4, "number of 7-day buckets")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
			return c.GetTrend(ctx, &pb.TrendRequest{User: g.user, Feature: feature, End: end, Weeks: weeks})
		})(cmd, args)
	}
	return cmd
}

func newPendingCmd(g *globalFlags, run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List features with nothing recorded today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c pb.WellbeingClient) (any, error) {
				return c.GetPending(ctx, &pb.PendingRequest{User: g.user})
			})(cmd, args)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
