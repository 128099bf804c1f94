package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/app"
	"github.com/kapu/liver-streams-go/internal/config"
	"github.com/kapu/liver-streams-go/internal/filter"
	"github.com/kapu/liver-streams-go/internal/search"
	"github.com/kapu/liver-streams-go/internal/section"
	"github.com/kapu/liver-streams-go/internal/util"
)

type options struct {
	Query    string        `short:"q" long:"query" description:"Search string, e.g. 'talent:Pekora #ぺこらいぶ karaoke'"`
	Live     bool          `long:"live" description:"Only events that are live now"`
	Talents  []string      `short:"t" long:"talent" description:"Talent filter entry (repeatable)"`
	Timezone string        `long:"tz" env:"SCHEDULE_TIMEZONE" default:"Asia/Tokyo" description:"Time zone for day and hour sections"`
	JSON     bool          `long:"json" description:"Print date sections as JSON"`
	Timeout  time.Duration `long:"timeout" default:"30s" description:"Overall fetch timeout"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Refresh.Timezone = opts.Timezone

	logger, err := util.NewLogger("warn", cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	snapshot, err := container.Aggregator.Refresh(ctx)
	if err != nil {
		logger.Error("Failed to fetch schedules", zap.Error(err))
		os.Exit(1)
	}

	query := search.ParseSearchString(strings.TrimSpace(opts.Query))
	if opts.Live && !query.IsLiveOnly() {
		query = query.ToggleLiveOnly()
	}

	events := filter.GetFilteredEventList(snapshot.Events, filter.NewTalentSet(opts.Talents...), query)
	sections := section.CreateDateSectionList(events, container.Location)

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sections); err != nil {
			logger.Error("Failed to encode sections", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	out, err := container.Formatter.FormatSections(sections)
	if err != nil {
		logger.Error("Failed to format sections", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(out)
}
