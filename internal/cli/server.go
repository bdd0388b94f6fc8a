package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/trutoman/Apalabrazos-sub000/internal/config"
	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/events"
	"github.com/trutoman/Apalabrazos-sub000/internal/game"
	"github.com/trutoman/Apalabrazos-sub000/internal/infra/memory"
	pgloader "github.com/trutoman/Apalabrazos-sub000/internal/infra/postgres"
	redisrepo "github.com/trutoman/Apalabrazos-sub000/internal/infra/redis"
	"github.com/trutoman/Apalabrazos-sub000/internal/registry"
	"github.com/trutoman/Apalabrazos-sub000/internal/session"
	"github.com/trutoman/Apalabrazos-sub000/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticSource(sampleQuestions())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var source game.QuestionSource
	if redisClient != nil {
		source = redisrepo.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		source = memory.NewQuestionRepository(loader, questionTTL)
	}

	bus := events.NewBus()
	manager := session.NewManager(bus, source)

	// Server-side session defaults; clients override per create request.
	gameDefaults := game.Config{
		Difficulty:    domain.QuestionLevel(cfg.Game.Difficulty),
		MaxPlayers:    cfg.Game.MaxPlayers,
		QuestionCount: cfg.Game.QuestionCount,
		Duration:      cfg.Game.DurationSeconds,
		TickPeriod:    config.TTLDuration(cfg.Game.TickPeriod, 0),
	}

	reg := registry.New()
	reg.SetMatchProbe(manager.Alive)
	wsHandler := ws.NewHandler(reg, manager, bus, gameDefaults)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting game server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	manager.ClearAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides one placeholder question per alphabet letter and
// level; swap the static loader for the postgres-backed one in production.
func sampleQuestions() map[domain.QuestionLevel][]domain.Question {
	levels := []domain.QuestionLevel{domain.LevelTrivial, domain.LevelEasy, domain.LevelDifficult}
	out := make(map[domain.QuestionLevel][]domain.Question, len(levels))
	for _, level := range levels {
		qs := make([]domain.Question, 0, domain.MaxQuestions)
		for i, letter := range domain.Alphabet {
			q, err := domain.NewQuestion(
				fmt.Sprintf("With the %s: placeholder question %d", letter, i+1),
				[]string{
					fmt.Sprintf("%soption one", letter),
					fmt.Sprintf("%soption two", letter),
					fmt.Sprintf("%soption three", letter),
					fmt.Sprintf("%soption four", letter),
				},
				i%4,
				level,
			)
			if err != nil {
				continue
			}
			qs = append(qs, q)
		}
		out[level] = qs
	}
	return out
}
