package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/config"
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/service/database"
	"github.com/kapu/liver-streams-go/internal/source"
	"github.com/kapu/liver-streams-go/internal/util"
)

type options struct {
	File    string `short:"f" long:"file" env:"NIJISANJI_LIVER_FILE" default:"data/livers.json" description:"livers.json to import"`
	DryRun  bool   `long:"dry-run" description:"Parse and report without writing to the database"`
	Verbose bool   `short:"v" long:"verbose" description:"Print every liver"`
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

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	livers, err := source.LoadLiverFile(opts.File)
	if err != nil {
		logger.Error("Failed to load liver file", zap.String("file", opts.File), zap.Error(err))
		os.Exit(1)
	}

	list := make([]domain.LiverInfo, 0, len(livers))
	for _, info := range livers {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TalentID < list[j].TalentID })

	if opts.Verbose {
		for _, info := range list {
			fmt.Printf("%s\t%s\n", info.TalentID, info.Name)
		}
	}

	if opts.DryRun {
		logger.Info("Dry run, nothing written", zap.Int("livers", len(list)))
		return
	}

	postgresSvc, err := database.NewPostgresService(cfg.Postgres.DSN(), logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", zap.Error(err))
		os.Exit(1)
	}
	defer postgresSvc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo := database.NewLiverRepository(postgresSvc, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("Failed to prepare livers table", zap.Error(err))
		os.Exit(1)
	}

	count, err := repo.Upsert(ctx, list)
	if err != nil {
		logger.Error("Import failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Import complete", zap.Int("upserted", count), zap.String("file", opts.File))
}
