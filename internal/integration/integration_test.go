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

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
	pgstore "quiz-session-service/internal/infra/postgres"
	pgmigrations "quiz-session-service/internal/infra/postgres/migrations"
	redisstore "quiz-session-service/internal/infra/redis"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizRepo := redisstore.NewQuizRepository(redisClient, pgstore.NewQuizLoader(pool), 5*time.Minute)
	submissions := pgstore.NewSubmissionStore(pool)
	service := app.NewSessionService(memory.NewSessionStore(), quizRepo, submissions)

	session, err := service.Attach(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if snap := session.SnapshotNow(); snap.State != app.StateInProgress || snap.Remaining != 300 {
		t.Fatalf("expected fresh 5-minute session, got %+v", snap)
	}

	if err := session.Select(1, "1-1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := session.SnapshotNow()
	if snap.State != app.StateSubmitted || snap.Result == nil || snap.Result.Score != 1 {
		t.Fatalf("expected submitted 1/1, got %+v", snap)
	}

	// A second attach from a clean session store restores from Postgres with
	// the breakdown recomputed from quiz content.
	service2 := app.NewSessionService(memory.NewSessionStore(), quizRepo, submissions)
	restored, err := service2.Attach(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	snap = restored.SnapshotNow()
	if snap.State != app.StateSubmitted || snap.Result == nil {
		t.Fatalf("expected restored submitted session, got %+v", snap)
	}
	if snap.Result.Score != 1 || !snap.Result.Questions[0].IsCorrect {
		t.Fatalf("expected recomputed 1/1, got %+v", snap.Result)
	}

	// Retake deletes the row and resets the attempt.
	if err := restored.Retake(ctx); err != nil {
		t.Fatalf("retake: %v", err)
	}
	if _, err := submissions.FetchSubmission(ctx, "quiz-1", "u1"); err != domain.ErrSubmissionNotFound {
		t.Fatalf("expected submission deleted, got %v", err)
	}
	if snap := restored.SnapshotNow(); snap.State != app.StateInProgress || len(snap.Answers) != 0 {
		t.Fatalf("expected reset session, got %+v", snap)
	}
	restored.Close()
	session.Close()
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("init migrations: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	raw, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?)`, quiz.ID, string(raw)); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:       "quiz-1",
		CourseID: "course-1",
		Title:    "Basics",
		Duration: "00:05:00",
		Questions: []domain.Question{
			{
				ID:   1,
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "1-0", Text: "3", Correct: false},
					{ID: "1-1", Text: "4", Correct: true},
				},
			},
		},
	}
}
