// serve.go
//
// `serve` and `migrate` commands: wire config, storage, the actor host and the HTTP API.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/auth"
	"github.com/robalobadob/wordle-session/internal/config"
	"github.com/robalobadob/wordle-session/internal/db"
	"github.com/robalobadob/wordle-session/internal/evaluation"
	"github.com/robalobadob/wordle-session/internal/history"
	"github.com/robalobadob/wordle-session/internal/httpserver"
	"github.com/robalobadob/wordle-session/internal/metrics"
	"github.com/robalobadob/wordle-session/internal/orchestrator"
	"github.com/robalobadob/wordle-session/internal/words"
)

// Program identities on the actor host.
const (
	orchestratorID = actor.ID("game-session")
	evaluatorID    = actor.ID("wordle")
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the actor host",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.ApplyLogLevel()
		sqlDB, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return db.Migrate(sqlDB)
	},
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ApplyLogLevel()

	if err := words.Init(cfg.WordsAnswersFile, cfg.WordsAllowedFile); err != nil {
		return fmt.Errorf("load word lists: %w", err)
	}
	answers, allowed := words.Stats()
	log.Info().Int("answers", answers).Int("allowed", allowed).Msg("word lists loaded")

	sqlDB, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()
	if err := db.Migrate(sqlDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	hist := history.NewStore(sqlDB)
	m := metrics.New()

	opts := []orchestrator.Option{
		orchestrator.WithTimeoutBlocks(cfg.TimeoutBlocks),
		orchestrator.WithHooks(hist, m),
	}
	if cfg.WinFirst {
		opts = append(opts, orchestrator.WithPrecedence(orchestrator.WinFirst))
	}
	if cfg.StrictWords {
		opts = append(opts, orchestrator.WithDictionary(words.IsAllowed))
	}
	o, err := orchestrator.New(orchestrator.Init{EvaluatorID: evaluatorID}, opts...)
	if err != nil {
		return err
	}

	host := actor.NewHost()
	if err := host.Register(orchestratorID, o); err != nil {
		return err
	}
	if err := host.Register(evaluatorID, evaluation.NewEvaluator(pickerFor(cfg))); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go host.Run(ctx, cfg.BlockInterval)

	srv := httpserver.New(httpserver.Deps{
		Config:         cfg,
		Host:           host,
		OrchestratorID: orchestratorID,
		Users:          auth.NewUsers(sqlDB),
		Signer:         auth.NewSigner(cfg.JWTSecret, cfg.JWTExpiresDays),
		History:        hist,
		Metrics:        m,
	})
	log.Info().
		Str("port", cfg.Port).
		Str("evaluator", cfg.EvaluatorMode).
		Uint64("timeout_blocks", cfg.TimeoutBlocks).
		Dur("block_interval", cfg.BlockInterval).
		Msg("starting wordle-session")
	return srv.Start(ctx, ":"+cfg.Port)
}

// pickerFor selects how the in-process evaluator chooses targets.
func pickerFor(cfg config.Config) evaluation.TargetPicker {
	switch cfg.EvaluatorMode {
	case config.EvaluatorFixed:
		return evaluation.FixedPicker(cfg.EvaluatorAnswer)
	case config.EvaluatorDaily:
		return evaluation.DailyPicker{Salt: cfg.DailySalt, Answers: words.Answers()}
	default:
		return evaluation.RandomPicker{}
	}
}
