// Command report generates a channel comment report on the command line.
//
// Usage:
//
//	report [-filter both|videos|shorts] <channel-url>
//
// The YouTube API key is read from configuration (APP_YOUTUBE_APIKEY).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/commentrank/channel-report-go/internal/cache"
	"github.com/commentrank/channel-report-go/internal/collector"
	"github.com/commentrank/channel-report-go/internal/config"
	"github.com/commentrank/channel-report-go/internal/report"
	"github.com/commentrank/channel-report-go/internal/resolver"
	"github.com/commentrank/channel-report-go/internal/youtube"
)

func main() {
	filterFlag := flag.String("filter", "both", "duration filter: both, videos (>3 mins), or shorts (<=3 mins)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: report [-filter both|videos|shorts] <channel-url>")
		os.Exit(2)
	}
	channelURL := flag.Arg(0)

	// Diagnostics go to stderr so stdout stays clean markdown.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	filter, err := report.ParseFilter(*filterFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	client, err := youtube.NewClient(ctx, cfg.YouTube.APIKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize YouTube client: %v\n", err)
		os.Exit(1)
	}

	memo := cache.NewMemoryCache()
	res := resolver.New(client, memo, cfg.Cache.TTL, nil, logger)
	col := collector.New(client, memo, cfg.Cache.TTL, nil, logger)

	resolution, err := res.Resolve(ctx, channelURL)
	if errors.Is(err, resolver.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "could not extract channel ID")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "channel resolution failed: %v\n", err)
		os.Exit(1)
	}

	collection, err := col.Collect(ctx, resolution.ChannelID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "video collection failed: %v\n", err)
		os.Exit(1)
	}

	r := report.Build(resolution, collection, filter)
	fmt.Print(report.RenderMarkdown(r))
}
