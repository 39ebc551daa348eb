package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"creative-automation/internal/app"
	"creative-automation/internal/audience"
	"creative-automation/internal/campaign"
	"creative-automation/internal/config"
	"creative-automation/internal/region"
)

type rootOptions struct {
	logLevel string
	timeout  time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "campaignctl",
		Short:         "Generate and inspect localized ad campaigns",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Overall command timeout (0 means none)")

	root.AddCommand(
		newGenerateCmd(opts),
		newRegionsCmd(),
		newAudiencesCmd(),
		newRecentCmd(opts),
		newSimilarCmd(opts),
		newBackfillCmd(opts),
		newManifestCmd(opts),
	)
	return root
}

// withApp builds the pipeline from the environment, runs fn and releases it.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	a, err := app.New(ctx, cfg, app.NewLogger(cfg.LogLevel, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)

	closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return errors.Join(runErr, a.Close(closeCtx))
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		files    []string
		brief    campaign.Brief
		asJSON   bool
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one or more campaign briefs",
		Long: `Run campaign briefs from YAML or JSON files (-f, repeatable, '-' for stdin)
or from flags. Each brief produces every product in 1:1, 16:9 and 9:16.`,
		Example: `  campaignctl generate -f brief.yaml
  campaignctl generate --product "Safety Helmet" --product "Work Boots" --region Germany --message "Professional safety equipment"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			briefs, err := collectBriefs(cmd.InOrStdin(), files, brief)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				return runBriefs(ctx, a, briefs, parallel, asJSON, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Brief file (YAML or JSON)")
	cmd.Flags().StringArrayVar(&brief.Products, "product", nil, "Product name (repeatable)")
	cmd.Flags().StringVar(&brief.Region, "region", "", "Target region or country")
	cmd.Flags().StringVar(&brief.Audience, "audience", "", "Audience description or catalog ID")
	cmd.Flags().StringVar(&brief.Message, "message", "", "Campaign message")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print campaigns as JSON")
	cmd.Flags().IntVar(&parallel, "parallel", 2, "Briefs run at the same time")
	return cmd
}

func collectBriefs(stdin io.Reader, files []string, flagBrief campaign.Brief) ([]campaign.Brief, error) {
	var briefs []campaign.Brief
	for _, f := range files {
		b, err := loadBrief(stdin, f)
		if err != nil {
			return nil, err
		}
		briefs = append(briefs, b)
	}
	if len(flagBrief.Products) > 0 || flagBrief.Region != "" || flagBrief.Message != "" {
		briefs = append(briefs, flagBrief)
	}
	if len(briefs) == 0 {
		return nil, errors.New("no brief given, use -f or --product/--region/--message")
	}
	for i := range briefs {
		briefs[i].Audience = audience.Describe(briefs[i].Audience)
	}
	return briefs, nil
}

func loadBrief(stdin io.Reader, path string) (campaign.Brief, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return campaign.Brief{}, fmt.Errorf("read brief %s: %w", path, err)
	}

	var b campaign.Brief
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return campaign.Brief{}, fmt.Errorf("parse brief %s: %w", path, err)
	}
	if _, err := b.Validate(); err != nil {
		return campaign.Brief{}, fmt.Errorf("brief %s: %w", path, err)
	}
	return b, nil
}

func runBriefs(ctx context.Context, a *app.App, briefs []campaign.Brief, parallel int, asJSON bool, out io.Writer) error {
	if parallel < 1 {
		parallel = 1
	}
	results := make([]*campaign.Campaign, len(briefs))
	errs := make([]error, len(briefs))

	var eg errgroup.Group
	eg.SetLimit(parallel)
	for i, b := range briefs {
		eg.Go(func() error {
			// a failed brief must not cancel its siblings
			results[i], errs[i] = a.Generate(ctx, b)
			return nil
		})
	}
	_ = eg.Wait()

	for i, c := range results {
		if errs[i] != nil {
			fmt.Fprintf(out, "brief %d failed: %v\n", i+1, errs[i])
			continue
		}
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(app.NewManifest(c)); err != nil {
				return err
			}
			continue
		}
		if err := printCampaign(out, c); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

func printCampaign(out io.Writer, c *campaign.Campaign) error {
	fmt.Fprintf(out, "campaign %s  %s  language=%s  compliance=%s\n", c.ID, c.Summary(), c.Language, c.Compliance.Status)
	if c.TranslationFallback {
		fmt.Fprintf(out, "  message (untranslated): %s\n", c.LocalizedMessage)
	} else {
		fmt.Fprintf(out, "  message: %s\n", c.LocalizedMessage)
	}
	for _, issue := range c.Compliance.Issues {
		fmt.Fprintf(out, "  issue: %s\n", issue)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, a := range c.Assets {
		detail := a.Path
		if a.Status == campaign.StatusFailed {
			detail = a.Error
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", a.Product, a.Variant.Ratio(), a.Status, detail)
	}
	return tw.Flush()
}

func newRegionsCmd() *cobra.Command {
	var tableFile string
	cmd := &cobra.Command{
		Use:   "regions [query]",
		Short: "List supported countries and the language each resolves to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := region.DefaultTable()
			if tableFile != "" {
				t, err := region.LoadOverrides(table, tableFile)
				if err != nil {
					return err
				}
				table = t
			}
			r := region.NewResolver(table, region.Options{DefaultLanguage: language.English})

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			countries := r.Search(query)
			if len(countries) == 0 {
				return fmt.Errorf("no country matches %q", query)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tCOUNTRY\tLANGUAGE\tAREA")
			for _, c := range countries {
				fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%s\n", c.Code, c.Name, region.LanguageName(c.Language), c.Language, c.Area)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&tableFile, "table", os.Getenv("REGION_TABLE_FILE"), "YAML file with region table overrides")
	return cmd
}

func newAudiencesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audiences",
		Short: "List predefined audiences usable as --audience",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tDESCRIPTION")
			for _, o := range audience.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", o.ID, o.Category, o.Description)
			}
			return tw.Flush()
		},
	}
}

func newRecentCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent campaigns from analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				records, err := a.Recent(ctx, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CREATED\tCAMPAIGN\tREGION\tPRODUCTS\tPRODUCED\tCOMPLIANCE")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
						r.CreatedAt.Format(time.RFC3339), r.CampaignID, r.Region,
						strings.Join(r.Products, ", "), r.Produced, r.Produced+r.Failed, r.ComplianceStatus)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of campaigns")
	return cmd
}

func newSimilarCmd(opts *rootOptions) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "similar <query>",
		Short: "Find past campaigns similar to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				matches, err := a.Similar(ctx, args[0], k)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SCORE\tCAMPAIGN\tREGION\tMESSAGE")
				for _, m := range matches {
					fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\n", m.Score, m.CampaignID, m.Metadata["region"], m.Text)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&k, "top", "k", 5, "Number of matches")
	return cmd
}

func newBackfillCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Embed stored campaigns into the vector index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				n, err := a.Backfill(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d campaigns\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 1000, "Maximum campaigns to index")
	return cmd
}

func newManifestCmd(opts *rootOptions) *cobra.Command {
	var stdout bool
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Rebuild master_manifest.json from every campaign folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if stdout {
					m, err := a.BuildMasterManifest(ctx)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(m)
				}

				rel, m, err := a.WriteMasterManifest(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "wrote %s\n", filepath.Join(a.Assets.Root(), filepath.FromSlash(rel)))
				fmt.Fprintf(w, "campaigns: %d\n", m.TotalCampaigns)
				fmt.Fprintf(w, "assets: %d of %d produced\n", m.ProducedAssets, m.TotalAssets)
				fmt.Fprintf(w, "regions: %s\n", strings.Join(m.UniqueRegions, ", "))
				fmt.Fprintf(w, "audiences: %s\n", strings.Join(m.UniqueAudiences, ", "))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the manifest instead of writing it")
	return cmd
}
