package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/lexitrack/internal/config"
	"github.com/example/lexitrack/internal/curriculum"
	"github.com/example/lexitrack/internal/database"
	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/internal/planner"
	"github.com/example/lexitrack/internal/review"
)

// app holds the wired components shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *database.Store
	corpus  *curriculum.Loader
	reviews *review.Service
	planner *planner.Planner
}

func newApp(envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(database.Config{Type: cfg.DBType, Path: cfg.DBPath, URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}
	store := database.NewStore(db)

	corpus := curriculum.NewLoader(cfg.CorpusPath, cfg.Levels, log)

	reviews := review.NewService(review.Stores{
		Items:    store.Items,
		Events:   store.Events,
		Contexts: store.Contexts,
		Profiles: store.Profiles,
		Activity: store,
	}, review.Options{
		Levels:            cfg.Levels,
		QueueLimit:        cfg.ReviewQueueLimit,
		RecomputeEvery:    cfg.RecomputeEvery,
		DailyNewItemLimit: cfg.DailyNewItems,
	}, log.With("component", "review"))

	plan := planner.New(store.Items, store.Recommendations, store.Profiles, corpus, cfg.DailyNewItems, log.With("component", "planner"))

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		corpus:  corpus,
		reviews: reviews,
		planner: plan,
	}, nil
}

func (a *app) Close() {
	a.reviews.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("error closing database", "error", err)
	}
	a.log.Sync()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
