// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lelandjfs/weekenders-app/internal/assemble"
	"github.com/lelandjfs/weekenders-app/internal/cache"
	"github.com/lelandjfs/weekenders-app/internal/engine"
	"github.com/lelandjfs/weekenders-app/internal/geodate"
	"github.com/lelandjfs/weekenders-app/internal/sources"
	"github.com/lelandjfs/weekenders-app/internal/weekender"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [location]",
	Short: "Find weekend recommendations for a location",
	Long: `Search resolves the location, picks the weekend dates, queries every
configured source concurrently, and prints deduplicated recommendations per
category (concerts, dining, events, places to visit).

Dates default to the coming weekend. Use --weekend next for the following
one, or --from/--to for an explicit range.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("weekend", "this", `weekend to search: "this" or "next"`)
	searchCmd.Flags().String("from", "", "explicit range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "explicit range end (YYYY-MM-DD)")
	searchCmd.Flags().String("sources", "sources.yaml", "source registry file")
	searchCmd.Flags().Bool("json", false, "output the full result as JSON")
	searchCmd.Flags().Bool("no-cache", false, "bypass the response cache")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	location := strings.Join(args, " ")
	cfg := loadConfig()

	req, err := requestFromFlags(cmd, location)
	if err != nil {
		return err
	}

	sourcesPath, _ := cmd.Flags().GetString("sources")
	specs, err := sources.LoadSpecs(sourcesPath)
	if err != nil {
		return err
	}

	var store engine.Cache
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		s, err := cache.NewStore(cfg.Cache)
		if err != nil {
			logger.Warn("cache unavailable, fetching everything fresh", "err", err)
		} else {
			defer s.Close()
			store = s
		}
	}

	app, err := weekender.New(cfg, specs, loadedSecrets, store, logger)
	if err != nil {
		return err
	}

	result, err := app.RunSearch(cmd.Context(), req)
	if err != nil {
		var re *geodate.ResolutionError
		if errors.As(err, &re) {
			return fmt.Errorf("could not resolve location %q: %w", re.Location, re.Err)
		}
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return assemble.FormatJSON(os.Stdout, result)
	}
	return assemble.FormatText(os.Stdout, result)
}

// requestFromFlags builds the search request from either an explicit date
// range or a weekend selector.
func requestFromFlags(cmd *cobra.Command, location string) (types.SearchRequest, error) {
	startStr, _ := cmd.Flags().GetString("from")
	endStr, _ := cmd.Flags().GetString("to")

	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			return types.SearchRequest{}, fmt.Errorf("--from and --to must be given together")
		}
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return types.SearchRequest{}, fmt.Errorf("parsing --from: %w", err)
		}
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return types.SearchRequest{}, fmt.Errorf("parsing --to: %w", err)
		}
		if end.Before(start) {
			return types.SearchRequest{}, fmt.Errorf("--to %s is before --from %s", endStr, startStr)
		}
		return types.SearchRequest{Location: location, StartDate: start, EndDate: end}, nil
	}

	weekendStr, _ := cmd.Flags().GetString("weekend")
	var sel geodate.WeekendSelector
	switch weekendStr {
	case "this":
		sel = geodate.WeekendThis
	case "next":
		sel = geodate.WeekendNext
	default:
		return types.SearchRequest{}, fmt.Errorf(`--weekend must be "this" or "next", got %q`, weekendStr)
	}
	return weekender.WeekendRequest(location, time.Now().UTC(), sel), nil
}
