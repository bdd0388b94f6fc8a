package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/events"
	"github.com/trutoman/Apalabrazos-sub000/internal/game"
	pgloader "github.com/trutoman/Apalabrazos-sub000/internal/infra/postgres"
	pgmigrations "github.com/trutoman/Apalabrazos-sub000/internal/infra/postgres/migrations"
	infraredis "github.com/trutoman/Apalabrazos-sub000/internal/infra/redis"
	"github.com/trutoman/Apalabrazos-sub000/internal/session"
)

func TestMatchEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestions(t, ctx, pgURL, 3)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pgloader.NewQuestionLoader(pool)
	repo := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute)

	bus := events.NewBus()
	manager := session.NewManager(bus, repo)
	defer manager.ClearAll()

	svc, err := manager.Create("room-1", game.Config{
		MaxPlayers:    1,
		QuestionCount: 3,
		Duration:      240,
		TickPeriod:    time.Hour,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := svc.Join("p1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	finished := make(chan events.GameFinished, 1)
	svc.Consumers().Subscribe(events.NewListenerFunc(func(e events.Event) {
		if gf, ok := e.(events.GameFinished); ok {
			select {
			case finished <- gf:
			default:
			}
		}
	}))

	bus.PublishWait(events.ControllerReady{Base: events.Now(), GameID: svc.ID()})
	bus.PublishWait(events.StartRequested{Base: events.Now(), GameID: svc.ID()})
	if state := svc.Session().State(); state != game.StatePlaying {
		t.Fatalf("state = %s, want PLAYING", state)
	}

	// The repository should now also be warm in Redis.
	if err := redisClient.Get(ctx, "questions:easy:3").Err(); err != nil {
		t.Fatalf("expected the question set cached in redis: %v", err)
	}

	// Answer the whole list: right, wrong, pass.
	for _, selected := range []int{0, 3, game.NoAnswer} {
		bus.PublishWait(events.AnswerSubmitted{
			Base:           events.Now(),
			GameID:         svc.ID(),
			PlayerID:       "p1",
			SelectedOption: selected,
		})
	}

	select {
	case gf := <-finished:
		rec := gf.Records["p1"]
		if rec.Correct != 1 || rec.Incorrect != 1 || rec.Passed != 1 {
			t.Fatalf("record = %+v", rec)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("game never finished")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "game", "POSTGRES_PASSWORD": "gamepass", "POSTGRES_DB": "gamedb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://game:gamepass@%s:%s/gamedb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestions(t *testing.T, ctx context.Context, dsn string, n int) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for i := 0; i < n; i++ {
		letter, err := domain.Letter(i)
		if err != nil {
			t.Fatalf("letter %d: %v", i, err)
		}
		q, err := domain.NewQuestion(
			fmt.Sprintf("with the %s: seed question %d", letter, i+1),
			[]string{"first", "second", "third", "fourth"},
			0,
			domain.LevelEasy,
		)
		if err != nil {
			t.Fatalf("build question: %v", err)
		}
		data, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("marshal question: %v", err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (level, data) VALUES (?, ?::jsonb)`,
			string(q.Level), string(data)); err != nil {
			t.Fatalf("insert question: %v", err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
