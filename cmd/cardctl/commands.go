package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/engcards/internal/app"
	"github.com/example/engcards/internal/backup"
	"github.com/example/engcards/internal/config"
	"github.com/example/engcards/internal/excel"
	"github.com/example/engcards/internal/importer"
	"github.com/example/engcards/internal/logger"
	"github.com/example/engcards/internal/tracker"
	"github.com/example/engcards/pkg/models"
)

// cli carries what every subcommand needs once the catalog is open
type cli struct {
	catalog *app.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

func (c *cli) tracker() *tracker.Tracker {
	return c.catalog.Tracker
}

func newRootCmd() *cobra.Command {
	c := &cli{now: time.Now}

	root := &cobra.Command{
		Use:           "cardctl",
		Short:         "Manage the English cards catalog from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// The command line never talks to Telegram, so no token is required
			if err := os.Setenv("BOT_ENABLED", "false"); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log, err := logger.New(cfg)
			if err != nil {
				return err
			}
			c.logger = log

			catalog, err := app.OpenCatalog(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			c.catalog = catalog
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
			if c.catalog != nil {
				return c.catalog.Close()
			}
			return nil
		},
	}

	root.AddCommand(
		c.statsCmd(),
		c.historyCmd(),
		c.listCmd(),
		c.addCmd(),
		c.reviewCmd(),
		c.importCmd(),
		c.exportCmd(),
		c.templateCmd(),
		c.resetCmd(),
	)
	return root
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show learning progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			writeStats(cmd.OutOrStdout(), c.tracker().Stats())
			return nil
		},
	}
}

func writeStats(w io.Writer, s models.Statistics) {
	fmt.Fprintf(w, "Progress:           %.0f%%\n", s.Progress())
	fmt.Fprintf(w, "Words mastered:     %d / %d\n", s.MasteredWords, s.TotalWords)
	fmt.Fprintf(w, "Sentences mastered: %d / %d\n", s.MasteredSentences, s.TotalSentences)
	fmt.Fprintf(w, "Streak:             %d\n", s.StreakDays)
	if s.LastStudyDate != nil {
		fmt.Fprintf(w, "Last studied:       %s\n", s.LastStudyDate.Format("2006-01-02"))
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show reviews per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			now := c.now()
			start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))

			daily, err := c.catalog.Reviews.Daily(cmd.Context(), start, now.Location())
			if err != nil {
				return err
			}
			if len(daily) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No reviews in the last %d days\n", days)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tREVIEWS\tKNOWN")
			for _, d := range daily {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", d.Day.Format("2006-01-02"), d.Total, d.Correct)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to show, today included")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var (
		status    string
		sentences bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List words or sentences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := models.LearningStatus(status)
			if status != "" && !filter.IsValid() {
				return fmt.Errorf("unknown status %q", status)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if sentences {
				fmt.Fprintln(tw, "ID\tSTATUS\tPATTERN\tORIGINAL")
				for _, s := range c.tracker().Sentences() {
					if status == "" || s.Status == filter {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Status.Label(), s.Pattern, s.Original)
					}
				}
				return tw.Flush()
			}

			fmt.Fprintln(tw, "ID\tSTATUS\tREVIEWS\tTERM\tDEFINITION")
			for _, w := range c.tracker().Words() {
				if status == "" || w.Status == filter {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", w.ID, w.Status.Label(), w.ReviewCount, w.Term, w.Definition)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only items with this status (new, learning, review, mastered)")
	cmd.Flags().BoolVar(&sentences, "sentences", false, "list sentences instead of words")
	return cmd
}

func (c *cli) addCmd() *cobra.Command {
	var example, ipa string
	cmd := &cobra.Command{
		Use:   "add TERM DEFINITION",
		Short: "Add a word",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.tracker().AddWord(cmd.Context(), models.NewWord{
				Term: args[0], Definition: args[1], Example: example, IPA: ipa,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", w.Term, w.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&example, "example", "", "example sentence")
	cmd.Flags().StringVar(&ipa, "ipa", "", "pronunciation")
	return cmd
}

func (c *cli) reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "review ID know|again",
		Short:     "Record a review of a word",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"know", "again"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var correct bool
			switch args[1] {
			case "know":
				correct = true
			case "again":
			default:
				return fmt.Errorf("verdict must be know or again, got %q", args[1])
			}

			w, err := c.tracker().RecordReview(cmd.Context(), args[0], correct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (%d reviews)\n", w.Term, w.Status, w.ReviewCount)
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a backup (.json), workbook (.xlsx) or word list (.csv)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			batch, err := importer.Parse(args[0], f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Read %d words and %d sentences", len(batch.Words), len(batch.Sentences))
			if batch.Skipped > 0 {
				fmt.Fprintf(out, " (%d skipped)", batch.Skipped)
			}
			fmt.Fprintln(out)
			if dryRun {
				return nil
			}

			res, err := c.tracker().Merge(cmd.Context(), batch.Words, batch.Sentences)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Added %d words and %d sentences, %d already present\n",
				res.WordsAdded, res.SentencesAdded, res.WordsSkipped+res.SentencesSkipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file without importing")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as a JSON backup or a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := c.now()
			words, sentences := c.tracker().Words(), c.tracker().Sentences()

			var buf bytes.Buffer
			name := backup.FileName(now)
			switch format {
			case "json":
				if err := backup.Write(&buf, backup.Export(words, sentences, now)); err != nil {
					return err
				}
			case "xlsx":
				name = strings.TrimSuffix(name, ".json") + ".xlsx"
				if err := excel.ExportWorkbook(&buf, words, sentences); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			if out == "" {
				out = name
			}
			return writeOutput(cmd, out, buf.Bytes())
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (default: dated file name)")
	return cmd
}

func (c *cli) templateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a blank import workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var buf bytes.Buffer
			if err := excel.WriteTemplate(&buf); err != nil {
				return err
			}
			return writeOutput(cmd, out, buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", excel.TemplateFileName, "output file, - for stdout")
	return cmd
}

func (c *cli) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all progress and restore the starter data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			ctx := cmd.Context()
			if err := c.tracker().Reset(ctx); err != nil {
				return err
			}
			if _, err := c.tracker().Initialize(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Progress reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// executeContext runs the root command with args, used by tests
func executeContext(ctx context.Context, out io.Writer, args ...string) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}
