package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"portcall-service/internal/app"
	"portcall-service/internal/domain/entity"
	"portcall-service/internal/infrastructure/config"
	"portcall-service/internal/usecase"
	"portcall-service/pkg/logger"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "portcall",
	Short: "PortCall clearance checklist CLI",
	Long: `portcall runs the port call clearance pipeline from the command line.
It uses the same configuration as the server (environment variables or .env)
and shares its cache, so checklists generated here are served by the API and vice versa.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(cacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func checkCmd() *cobra.Command {
	var q entity.Query
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Generate a clearance checklist for one port call",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := q.Validate(); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				doc := a.Orchestrator.Run(ctx, q)
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), doc)
				}
				renderDocument(cmd.OutOrStdout(), doc)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q.Port, "port", "", "port name")
	cmd.Flags().StringVar(&q.ArrivalDate, "arrival", "", "arrival date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.ActivityType, "activity", "", "activity type (private, charter, ...)")
	cmd.Flags().StringVar(&q.YachtFlag, "flag", "", "yacht flag state")
	cmd.Flags().StringVar(&q.Country, "country", "", "country of the port")
	_ = cmd.MarkFlagRequired("port")
	_ = cmd.MarkFlagRequired("arrival")
	_ = cmd.MarkFlagRequired("activity")
	_ = cmd.MarkFlagRequired("flag")
	return cmd
}

func cacheCmd() *cobra.Command {
	c := &cobra.Command{Use: "cache", Short: "Inspect and maintain the checklist cache"}
	c.AddCommand(cacheStatsCmd())
	c.AddCommand(cachePurgeCmd())
	c.AddCommand(cacheInvalidateCmd())
	return c
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entries and their age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				stats, err := a.Cache.Stats(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), stats)
				}
				renderStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func cachePurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				removed, err := a.Cache.PurgeExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
				return nil
			})
		},
	}
}

func cacheInvalidateCmd() *cobra.Command {
	var q entity.Query
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Delete the cache entry of one port, activity and flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Cache.Invalidate(ctx, q); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", q.CacheKey())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q.Port, "port", "", "port name")
	cmd.Flags().StringVar(&q.ActivityType, "activity", "", "activity type")
	cmd.Flags().StringVar(&q.YachtFlag, "flag", "", "yacht flag state")
	_ = cmd.MarkFlagRequired("port")
	_ = cmd.MarkFlagRequired("activity")
	_ = cmd.MarkFlagRequired("flag")
	return cmd
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.NewLogger(logLevel)
	defer log.Sync()

	a, err := app.New(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(ctx, a)
}

func renderDocument(w io.Writer, doc *entity.AggregatedDocument) {
	d := doc.Decision
	fmt.Fprintf(w, "%s  %s (%s confidence)\n\n", doc.Metadata.PortName, d.Recommendation, d.ConfidenceLevel)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Section", "Summary"})
	for _, s := range doc.PortFormalities.Sections() {
		summary := ""
		if s.Base != nil {
			summary = s.Base.Summary
		}
		tw.AppendRow(table.Row{s.Key, summary})
	}
	tw.Render()

	lists := []struct {
		title string
		items []string
	}{
		{"Required actions", d.RequiredActions},
		{"Risk factors", d.RiskFactors},
		{"Critical deadlines", d.CriticalDeadlines},
		{"Operational alerts", doc.OperationalAlerts},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", l.title)
		for _, item := range l.items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}

	fmt.Fprintf(w, "\ncache used: %t (age %dh)  synthesis: %s\n",
		doc.Metadata.CacheUsed, doc.Metadata.CacheAgeHours, doc.Metadata.SynthesisStatus)
	fmt.Fprintf(w, "%s\n", doc.Metadata.Disclaimer)
}

func renderStats(w io.Writer, stats *usecase.CacheStats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Key", "Port", "Age (h)", "Expired", "Size"})
	for _, e := range stats.Entries {
		tw.AppendRow(table.Row{e.Key, e.Port, e.AgeHours, e.Expired, e.Size})
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d entries", stats.TotalEntries),
		fmt.Sprintf("%d valid", stats.ValidEntries),
		fmt.Sprintf("%d expired", stats.ExpiredEntries),
		fmt.Sprintf("ttl %.0fh", stats.TTLHours),
		stats.TotalSizeBytes,
	})
	tw.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
