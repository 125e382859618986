package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/example/lexitrack/internal/curriculum"
	"github.com/example/lexitrack/internal/notify"
	"github.com/example/lexitrack/internal/scheduler"
	"github.com/example/lexitrack/pkg/models"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var envFile string
	var a *app

	root := &cobra.Command{
		Use:           "lexitrack",
		Short:         "Spaced repetition and curriculum planning for language learners",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "optional .env file")

	// open wires the application lazily so --help never touches the database
	open := func() (*app, error) {
		if a != nil {
			return a, nil
		}
		var err error
		a, err = newApp(envFile)
		return a, err
	}
	root.PersistentPostRun = func(*cobra.Command, []string) {
		if a != nil {
			a.Close()
		}
	}

	root.AddCommand(
		newServeCmd(open),
		newImportCorpusCmd(open),
		newQueueCmd(open),
		newReviewCmd(open),
		newHistoryCmd(open),
		newContextCmd(open),
		newSummaryCmd(open),
		newBubbleCmd(open),
		newRecommendCmd(open),
		newIntroduceCmd(open),
		newSkipCmd(open),
		newProfileCmd(open),
		newRemindCmd(open),
	)
	return root
}

type opener func() (*app, error)

func newServeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background recompute and reminder jobs until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}

			sched, err := a.newScheduler()
			if err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}

			a.log.Info("lexitrack started, press Ctrl+C to stop")
			<-cmd.Context().Done()

			a.log.Info("shutting down")
			sched.Stop()
			return nil
		},
	}
}

// newScheduler builds the job runner; reminders are attached only when Telegram is configured
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	var notifier scheduler.Notifier
	if a.cfg.RemindersEnabled() {
		tg, err := notify.NewTelegram(a.cfg.TelegramToken, a.cfg.TelegramChatID, a.log.With("component", "notify"))
		if err != nil {
			return nil, err
		}
		notifier = tg
	} else {
		a.log.Info("telegram is not configured, reminders disabled")
	}

	cfg := scheduler.DefaultConfig()
	cfg.RecomputeInterval = a.cfg.RecomputeInterval
	cfg.NotificationStartHour = a.cfg.NotificationStartHour
	cfg.NotificationEndHour = a.cfg.NotificationEndHour

	return scheduler.New(a.reviews, a.planner, notifier, cfg, a.log.With("component", "scheduler")), nil
}

func newImportCorpusCmd(open opener) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "import-corpus FILE",
		Short: "Convert a JSON, YAML, XLSX or CSV corpus into the canonical JSON corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			corpus, err := curriculum.LoadCorpusFile(args[0], a.cfg.Levels)
			if err != nil {
				return err
			}

			if out == "" {
				out = a.cfg.CorpusPath
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			if err := curriculum.WriteJSON(f, corpus); err != nil {
				return err
			}

			a.log.Info("corpus imported", "source", args[0], "out", out,
				"vocabulary", len(corpus.Vocabulary), "grammar", len(corpus.Grammar))
			return printJSON(map[string]int{"vocabulary": len(corpus.Vocabulary), "grammar": len(corpus.Grammar)})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to CORPUS_PATH)")
	return cmd
}

func newQueueCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List due reviews, most overdue first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			queue, err := a.reviews.Queue(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(queue)
		},
	}
}

func newReviewCmd(open opener) *cobra.Command {
	var (
		kind, skill, grade, contextType, session string
		weight                                   float64
	)
	cmd := &cobra.Command{
		Use:   "review ITEM_ID",
		Short: "Submit a graded review for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			sub := models.ReviewSubmission{ItemID: id, SessionID: session, ContextType: contextType}
			if sub.Kind, err = models.ParseItemKind(kind); err != nil {
				return err
			}
			if sub.Skill, err = models.ParseSkill(skill); err != nil {
				return err
			}
			if sub.Grade, err = models.ParseGrade(grade); err != nil {
				return err
			}
			if cmd.Flags().Changed("weight") {
				sub.Weight = &weight
			}

			a, err := open()
			if err != nil {
				return err
			}
			res, err := a.reviews.Submit(cmd.Context(), sub)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.KindLexical), "lexical or grammar")
	cmd.Flags().StringVar(&skill, "skill", string(models.SkillRecognition), "recognition, production or cloze")
	cmd.Flags().StringVar(&grade, "grade", "good", "again, hard, good or easy")
	cmd.Flags().StringVar(&contextType, "context", "", "interaction context (defaults to "+models.DefaultContextType+")")
	cmd.Flags().StringVar(&session, "session", "", "session id")
	cmd.Flags().Float64Var(&weight, "weight", 0, "production weight override")
	return cmd
}

func newHistoryCmd(open opener) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "history ITEM_ID",
		Short: "List an item's review events, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			k, err := models.ParseItemKind(kind)
			if err != nil {
				return err
			}
			a, err := open()
			if err != nil {
				return err
			}
			events, err := a.reviews.History(cmd.Context(), k, id)
			if err != nil {
				return err
			}
			return printJSON(events)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.KindLexical), "lexical or grammar")
	return cmd
}

func newContextCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Record or list the contexts an item appeared in",
	}

	var (
		kind, contextType, modality, quote, session string
		production                                  bool
		limit, offset                               int
	)

	logCmd := &cobra.Command{
		Use:   "log ITEM_ID",
		Short: "Record that an item was used in a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			entry := models.ContextLogEntry{
				ItemID:        id,
				ContextType:   contextType,
				WasProduction: production,
				Quote:         quote,
				SessionID:     session,
			}
			if entry.Kind, err = models.ParseItemKind(kind); err != nil {
				return err
			}
			if entry.Modality, err = models.ParseModality(modality); err != nil {
				return err
			}

			a, err := open()
			if err != nil {
				return err
			}
			logged, err := a.reviews.LogContext(cmd.Context(), entry)
			if err != nil {
				return err
			}
			return printJSON(logged)
		},
	}
	logCmd.Flags().StringVar(&kind, "kind", string(models.KindLexical), "lexical or grammar")
	logCmd.Flags().StringVar(&contextType, "type", "conversation", "context type")
	logCmd.Flags().StringVar(&modality, "modality", string(models.ModalityReading), "reading, writing, listening or speaking")
	logCmd.Flags().StringVar(&quote, "quote", "", "sentence the item appeared in")
	logCmd.Flags().StringVar(&session, "session", "", "session id")
	logCmd.Flags().BoolVar(&production, "production", false, "the learner produced the item")

	listCmd := &cobra.Command{
		Use:   "list ITEM_ID",
		Short: "List an item's context history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			k, err := models.ParseItemKind(kind)
			if err != nil {
				return err
			}

			a, err := open()
			if err != nil {
				return err
			}
			entries, total, err := a.reviews.ContextHistory(cmd.Context(), k, id, limit, offset)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{"entries": entries, "total": total})
		},
	}
	listCmd.Flags().StringVar(&kind, "kind", string(models.KindLexical), "lexical or grammar")
	listCmd.Flags().IntVar(&limit, "limit", 50, "page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "page offset")

	cmd.AddCommand(logCmd, listCmd)
	return cmd
}

func newSummaryCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show today's review totals, accuracy and stage changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			summary, err := a.reviews.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

func newBubbleCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "bubble",
		Short: "Show the knowledge bubble, prioritized gaps and the mastery distribution",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			frontier, err := a.planner.Frontier(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(frontier)
		},
	}
}

func newRecommendCmd(open opener) *cobra.Command {
	var (
		regenerate         bool
		regressed, avoided []int64
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Queue the next batch of items to introduce",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}

			signals := curriculum.SignalsFromIDs(regressed, avoided)

			var recs []models.Recommendation
			if regenerate {
				recs, err = a.planner.Regenerate(cmd.Context(), signals)
			} else {
				recs, err = a.planner.Queued(cmd.Context())
				if err == nil && len(recs) == 0 {
					recs, err = a.planner.Recommend(cmd.Context(), signals)
				}
			}
			if err != nil {
				return err
			}
			return printJSON(recs)
		},
	}
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "discard queued recommendations and build a new batch")
	cmd.Flags().Int64SliceVar(&regressed, "regressed", nil, "ids of items currently regressing")
	cmd.Flags().Int64SliceVar(&avoided, "avoided", nil, "ids of grammar items the learner avoids")
	return cmd
}

func newIntroduceCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "introduce RECOMMENDATION_ID",
		Short: "Add a queued recommendation to the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid recommendation id %q", args[0])
			}
			a, err := open()
			if err != nil {
				return err
			}
			item, err := a.planner.Introduce(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(item)
		},
	}
}

func newSkipCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "skip RECOMMENDATION_ID",
		Short: "Dismiss a queued recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid recommendation id %q", args[0])
			}
			a, err := open()
			if err != nil {
				return err
			}
			return a.planner.Skip(cmd.Context(), id)
		},
	}
}

func newProfileCmd(open opener) *cobra.Command {
	var dailyLimit int
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Recompute and show the learner profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			profile, err := a.reviews.Recompute(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("daily-limit") {
				if err := a.store.Profiles.SetDailyNewItemLimit(cmd.Context(), dailyLimit); err != nil {
					return err
				}
				profile.DailyNewItemLimit = dailyLimit
			}
			return printJSON(profile)
		},
	}
	cmd.Flags().IntVar(&dailyLimit, "daily-limit", 0, "set how many new items each recommendation batch holds")
	return cmd
}

func newRemindCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send a reminder now if reviews are due",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			sched, err := a.newScheduler()
			if err != nil {
				return err
			}
			sent, err := sched.RunManualCheck(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(map[string]bool{"sent": sent})
		},
	}
}
