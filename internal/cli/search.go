package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/internal/usecase"
)

type searchOptions struct {
	sites    []string
	filter   string
	source   string
	category string
	sort     string
	format   string
	interval time.Duration
	quiet    bool
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Run a comparison search and print the results",
		Example: `  # Search every site
  shopsmart search "iphone 15"

  # Search two sites, cheapest Amazon listings first, as JSON
  shopsmart search "iphone 15" --site amazon --site flipkart --source Amazon --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.sites, "site", nil, "Site id to search (repeatable, default all)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only show products whose title contains this text")
	cmd.Flags().StringVar(&opts.source, "source", domain.FilterAll, "Only show products from this source")
	cmd.Flags().StringVar(&opts.category, "category", domain.FilterAll, "Only show products in this category")
	cmd.Flags().StringVar(&opts.sort, "sort", string(domain.SortPriceLow), "Sort order (price_low, price_high, rating)")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "Output format (table, json, yaml)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Status polling interval (default from configuration)")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Do not print progress")

	return cmd
}

func (a *app) runSearch(ctx context.Context, out, progress io.Writer, query string, opts searchOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	criteria := domain.SearchCriteria{
		SearchTerm:     opts.filter,
		SourceFilter:   opts.source,
		CategoryFilter: opts.category,
		SortKey:        domain.SortKey(opts.sort),
	}

	interval := opts.interval
	if interval <= 0 {
		interval = a.cfg.Polling.Interval
	}

	session := usecase.NewSearchSession(a.jobs, usecase.SearchSessionConfig{
		Sites:                a.cfg.Sites,
		PollInterval:         interval,
		StallLimit:           a.cfg.Polling.StallLimit,
		MaxConsecutiveErrors: a.cfg.Polling.MaxConsecutiveErrors,
	}, a.log)

	if err := session.SetCriteria(criteria); err != nil {
		_ = session.Close()
		return err
	}

	printed := make(chan struct{})
	events, _ := session.Subscribe(32)
	go func() {
		defer close(printed)
		printProgress(progress, events, opts.quiet)
	}()
	defer func() {
		_ = session.Close()
		<-printed
	}()

	sites := opts.sites
	if len(sites) == 0 {
		sites = session.SiteIDs()
	}

	if err := session.Submit(ctx, query, sites); err != nil {
		return err
	}

	if _, err := session.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = session.Cancel()
			return fmt.Errorf("search interrupted: %w", err)
		}
		return err
	}

	return render(out, opts.format, session.View())
}

// printProgress writes one line per status change until events is closed
func printProgress(w io.Writer, events <-chan usecase.Event, quiet bool) {
	var last domain.JobStatus
	for ev := range events {
		if quiet {
			continue
		}
		switch ev.Kind {
		case usecase.EventStatusUpdated:
			if ev.Status == last {
				continue
			}
			last = ev.Status
			fmt.Fprintf(w, "[%3d%%] %s\n", ev.Status.Progress, ev.Status.Message)
		case usecase.EventTransientError:
			fmt.Fprintf(w, "warning: %v (retrying)\n", ev.Err)
		}
	}
}
