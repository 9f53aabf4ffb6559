package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"angostura-trivia-service/internal/app"
	"angostura-trivia-service/internal/domain"
	"angostura-trivia-service/internal/infra/memory"
	pgstore "angostura-trivia-service/internal/infra/postgres"
	pgmigrations "angostura-trivia-service/internal/infra/postgres/migrations"
	infraredis "angostura-trivia-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestFullQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	questions := pgstore.NewQuestionStore(pool)
	answerKey := make(map[string]int)
	for _, q := range seedQuestions() {
		created, err := questions.Create(ctx, q)
		if err != nil {
			t.Fatalf("seed question %s: %v", q.ID, err)
		}
		answerKey[created.ID] = q.CorrectIndex
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	results := pgstore.NewResultStore(pool)
	lbCache := infraredis.NewLeaderboardCache(redisClient, results, 5*time.Minute)
	source := infraredis.NewQuestionCache(redisClient, questions, 5*time.Minute)
	sink := pgstore.Sink{Questions: questions, Results: results}

	sessions := memory.NewSessionStore(time.Minute)
	defer sessions.Close()

	rules := app.Rules{
		QuestionsPerQuiz: 3,
		AnswerTimeout:    30 * time.Second,
		FeedbackDelay:    0,
		BasePoints:       20,
		BonusDivisor:     3,
	}
	service := app.NewQuizService(source, sink, sessions, rules, app.MultiListener{lbCache})

	snap, err := service.StartSession(ctx, "Alice")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	for snap.State != app.StateCompleted {
		if snap.Question == nil {
			t.Fatalf("awaiting answer without a question: %+v", snap)
		}
		correct, ok := answerKey[snap.Question.ID]
		if !ok {
			t.Fatalf("served unknown question %s", snap.Question.ID)
		}
		res, err := service.SubmitAnswer(snap.ID, correct)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if !res.Record.Correct {
			t.Fatalf("expected correct resolution for %s", snap.Question.ID)
		}
		snap, err = service.Advance(snap.ID)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if snap.Result == nil || snap.Result.CorrectCount != rules.QuestionsPerQuiz {
		t.Fatalf("expected a perfect result, got %+v", snap.Result)
	}

	// Result and outcome writes are asynchronous.
	waitFor(t, 10*time.Second, func() bool {
		lb, err := results.Leaderboard(ctx, 10)
		return err == nil && len(lb.Entries) == 1
	})

	lb, err := lbCache.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("cached leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].PlayerName != "Alice" {
		t.Fatalf("expected Alice on the board, got %+v", lb.Entries)
	}
	if lb.Entries[0].Score < rules.QuestionsPerQuiz*rules.BasePoints {
		t.Fatalf("expected at least base points per question, got %d", lb.Entries[0].Score)
	}

	waitFor(t, 10*time.Second, func() bool {
		stats, err := questions.Stats(ctx)
		return err == nil && stats.TotalAttempts == rules.QuestionsPerQuiz && stats.CorrectAnswers == rules.QuestionsPerQuiz
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s", timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
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
}

func seedQuestions() []domain.Question {
	pool := make([]domain.Question, 0, 3)
	for i := 0; i < 3; i++ {
		pool = append(pool, domain.Question{
			ID:           fmt.Sprintf("itest-q%d", i+1),
			Text:         fmt.Sprintf("Integration question %d?", i+1),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
			Category:     "geography",
			Difficulty:   "easy",
			Active:       true,
		})
	}
	return pool
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
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
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
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
