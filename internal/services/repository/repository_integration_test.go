package repository

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"marketplace_backend/internal/services/domain"
	"marketplace_backend/migrations"
	"marketplace_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// These tests run against a real PostgreSQL and are skipped unless
// TEST_DATABASE_URL is set. Each test gets its own schema.

func TestBookConcurrentReservesDistinctPositions(t *testing.T) {
	ctx := context.Background()
	repo, pool := setupTestRepo(t, ctx)
	businessID, operators := seedRoster(t, ctx, pool, 1)
	operatorID := operators[0]

	const bookings = 12
	sessions := make([]uuid.UUID, bookings)
	consumers := make([]uuid.UUID, bookings)
	for i := range sessions {
		consumers[i] = insertUser(t, ctx, pool, "consumer")
		sessions[i] = openSession(t, ctx, repo, businessID, consumers[i])
	}

	var wg sync.WaitGroup
	positions := make(chan int, bookings)
	errs := make(chan error, bookings)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := repo.Book(ctx, BookParams{
				SessionID:      sessions[i],
				BusinessID:     businessID,
				ConsumerID:     consumers[i],
				OperatorID:     operatorID,
				Responses:      []domain.Response{{StepID: "device", Question: "Device?", Answer: "phone"}},
				MinutesPerTask: 15,
			})
			if err != nil {
				errs <- err
				return
			}
			positions <- result.Request.QueuePosition
		}(i)
	}
	wg.Wait()
	close(positions)
	close(errs)

	for err := range errs {
		t.Fatalf("book: %v", err)
	}
	var got []int
	for p := range positions {
		got = append(got, p)
	}
	sort.Ints(got)
	for i, p := range got {
		if p != i+1 {
			t.Fatalf("expected positions 1..%d, got %v", bookings, got)
		}
	}
	if length := queueLength(t, ctx, pool, operatorID); length != bookings {
		t.Fatalf("expected queue length %d, got %d", bookings, length)
	}
}

func TestBookSecondConfirmationLosesSessionGuard(t *testing.T) {
	ctx := context.Background()
	repo, pool := setupTestRepo(t, ctx)
	businessID, operators := seedRoster(t, ctx, pool, 1)
	consumerID := insertUser(t, ctx, pool, "consumer")
	sessionID := openSession(t, ctx, repo, businessID, consumerID)

	params := BookParams{
		SessionID:      sessionID,
		BusinessID:     businessID,
		ConsumerID:     consumerID,
		OperatorID:     operators[0],
		MinutesPerTask: 10,
	}
	first, err := repo.Book(ctx, params)
	if err != nil {
		t.Fatalf("first book: %v", err)
	}
	if !first.Reserved || first.Request.QueuePosition != 1 || first.Request.EstimatedWaitMinutes != 10 {
		t.Fatalf("unexpected first booking %+v", first)
	}

	if _, err := repo.Book(ctx, params); !errors.Is(err, ErrSessionNotOpen) {
		t.Fatalf("expected ErrSessionNotOpen, got %v", err)
	}
	if length := queueLength(t, ctx, pool, operators[0]); length != 1 {
		t.Fatalf("second confirmation must not touch the queue, got %d", length)
	}

	session, err := repo.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Status != domain.SessionCompleted {
		t.Fatalf("expected completed session, got %s", session.Status)
	}
}

func TestTransitionStatusFloorsQueueAndGuardsPreviousStatus(t *testing.T) {
	ctx := context.Background()
	repo, pool := setupTestRepo(t, ctx)
	businessID, operators := seedRoster(t, ctx, pool, 1)
	operatorID := operators[0]
	consumerID := insertUser(t, ctx, pool, "consumer")
	sessionID := openSession(t, ctx, repo, businessID, consumerID)

	booked, err := repo.Book(ctx, BookParams{
		SessionID:  sessionID,
		BusinessID: businessID,
		ConsumerID: consumerID,
		OperatorID: operatorID,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Drift the counter to zero so the decrement has to clamp.
	if _, err := pool.Exec(ctx, `UPDATE business_operators SET queue_length = 0 WHERE user_id = $1`, operatorID); err != nil {
		t.Fatalf("reset queue: %v", err)
	}

	result, err := repo.TransitionStatus(ctx, TransitionParams{
		RequestID:  booked.Request.ID,
		OperatorID: operatorID,
		From:       domain.StatusPending,
		To:         domain.StatusCompleted,
		QueueDelta: -1,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !result.QueueAdjusted || result.Request.Status != domain.StatusCompleted {
		t.Fatalf("unexpected transition result %+v", result)
	}
	if length := queueLength(t, ctx, pool, operatorID); length != 0 {
		t.Fatalf("expected queue floored at 0, got %d", length)
	}

	_, err = repo.TransitionStatus(ctx, TransitionParams{
		RequestID:  booked.Request.ID,
		OperatorID: operatorID,
		From:       domain.StatusPending,
		To:         domain.StatusConfirmed,
		QueueDelta: 0,
	})
	if !errors.Is(err, ErrStatusChanged) {
		t.Fatalf("expected ErrStatusChanged for a stale status, got %v", err)
	}
	current, err := repo.GetRequest(ctx, booked.Request.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if current.Status != domain.StatusCompleted {
		t.Fatalf("stale transition must not write, got %s", current.Status)
	}
}

func TestBookWithoutRosterRowFallsBackToFirstPosition(t *testing.T) {
	ctx := context.Background()
	repo, pool := setupTestRepo(t, ctx)
	businessID, _ := seedRoster(t, ctx, pool, 0)
	consumerID := insertUser(t, ctx, pool, "consumer")
	detached := insertUser(t, ctx, pool, "operator")
	sessionID := openSession(t, ctx, repo, businessID, consumerID)

	result, err := repo.Book(ctx, BookParams{
		SessionID:      sessionID,
		BusinessID:     businessID,
		ConsumerID:     consumerID,
		OperatorID:     detached,
		MinutesPerTask: 20,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if result.Reserved || result.Request.QueuePosition != 1 || result.Request.EstimatedWaitMinutes != 20 {
		t.Fatalf("unexpected fallback booking %+v", result)
	}
}

func setupTestRepo(t *testing.T, ctx context.Context) (*Repo, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is required for repository integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := execOnce(ctx, dsn, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema + ",public"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
		_ = execOnce(context.Background(), dsn, "DROP SCHEMA "+schema+" CASCADE")
	})

	if err := db.RunMigrations(ctx, pool, migrations.FS); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return New(pool), pool
}

func execOnce(ctx context.Context, dsn, sql string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, sql)
	return err
}

func insertUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO users (name, email, role)
		VALUES ($1, $2, $3)
		RETURNING id`, role, uuid.NewString()+"@example.test", role,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// seedRoster creates a service business with n available operators at
// queue length zero.
func seedRoster(t *testing.T, ctx context.Context, pool *pgxpool.Pool, n int) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	owner := insertUser(t, ctx, pool, "sme_owner")
	var businessID uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO businesses (owner_id, name, business_type)
		VALUES ($1, 'Fix-It', 'service')
		RETURNING id`, owner,
	).Scan(&businessID)
	if err != nil {
		t.Fatalf("insert business: %v", err)
	}

	operators := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		id := insertUser(t, ctx, pool, "operator")
		if _, err := pool.Exec(ctx, `
			INSERT INTO business_operators (user_id, business_id)
			VALUES ($1, $2)`, id, businessID); err != nil {
			t.Fatalf("insert operator: %v", err)
		}
		operators = append(operators, id)
	}
	return businessID, operators
}

func openSession(t *testing.T, ctx context.Context, repo *Repo, businessID, consumerID uuid.UUID) uuid.UUID {
	t.Helper()
	session, err := repo.CreateSession(ctx, CreateSessionParams{
		BusinessID:    businessID,
		ConsumerID:    consumerID,
		ScriptVersion: 1,
		CurrentStep:   "device",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session.ID
}

func queueLength(t *testing.T, ctx context.Context, pool *pgxpool.Pool, operatorID uuid.UUID) int {
	t.Helper()
	var length int
	if err := pool.QueryRow(ctx, `SELECT queue_length FROM business_operators WHERE user_id = $1`, operatorID).Scan(&length); err != nil {
		t.Fatalf("read queue length: %v", err)
	}
	return length
}
