package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	operatorsrepo "marketplace_backend/internal/operators/repository"
	"marketplace_backend/internal/services/domain"
	"marketplace_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	sessionNotFoundMessage = "service session not found"
	requestNotFoundMessage = "service request not found"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new service booking repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const sessionColumns = `
	id, business_id, consumer_id, operator_id, script_version, current_step,
	awaiting_confirmation, responses, status, created_at, last_active_at`

const requestColumns = `
	id, session_id, business_id, consumer_id, operator_id, answers,
	queue_position, estimated_wait_minutes, status, created_at, updated_at`

// CreateSession inserts a new in-progress session with an empty log.
func (r *Repo) CreateSession(ctx context.Context, p CreateSessionParams) (domain.Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO service_sessions (business_id, consumer_id, operator_id, script_version, current_step)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING`+sessionColumns,
		p.BusinessID, p.ConsumerID, p.OperatorID, p.ScriptVersion, p.CurrentStep,
	)
	session, err := scanSession(row)
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by id.
func (r *Repo) GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+sessionColumns+` FROM service_sessions WHERE id = $1`, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, apperr.NotFound(sessionNotFoundMessage)
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// AdvanceSession stores the new response log and step pointer while the
// session is still in progress.
func (r *Repo) AdvanceSession(ctx context.Context, p AdvanceSessionParams) (domain.Session, error) {
	responses, err := encodeResponses(p.Responses)
	if err != nil {
		return domain.Session{}, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE service_sessions
		SET responses = $2,
		    current_step = $3,
		    awaiting_confirmation = $4,
		    last_active_at = now()
		WHERE id = $1 AND status = 'in_progress'
		RETURNING`+sessionColumns,
		p.SessionID, responses, p.CurrentStep, p.AwaitingConfirmation,
	)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, ErrSessionNotOpen
		}
		return domain.Session{}, fmt.Errorf("advance session: %w", err)
	}
	return session, nil
}

// AbandonIdleSession marks one session abandoned when it is still in
// progress and has been idle since before idleBefore.
func (r *Repo) AbandonIdleSession(ctx context.Context, id uuid.UUID, idleBefore time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE service_sessions
		SET status = 'abandoned'
		WHERE id = $1 AND status = 'in_progress' AND last_active_at < $2`, id, idleBefore)
	if err != nil {
		return false, fmt.Errorf("abandon idle session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AbandonIdleSessions marks up to limit idle sessions abandoned.
func (r *Repo) AbandonIdleSessions(ctx context.Context, idleBefore time.Time, limit int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE service_sessions
		SET status = 'abandoned'
		WHERE id IN (
			SELECT id FROM service_sessions
			WHERE status = 'in_progress' AND last_active_at < $1
			ORDER BY last_active_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, idleBefore, limit)
	if err != nil {
		return 0, fmt.Errorf("abandon idle sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Book completes the session, reserves a queue slot on the operator and
// inserts the request in one transaction. The session status guard makes a
// second confirmation fail with ErrSessionNotOpen instead of booking twice.
func (r *Repo) Book(ctx context.Context, p BookParams) (BookResult, error) {
	answers, err := encodeResponses(p.Responses)
	if err != nil {
		return BookResult{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return BookResult{}, fmt.Errorf("begin book: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE service_sessions
		SET status = 'completed',
		    operator_id = $2,
		    responses = $3,
		    awaiting_confirmation = FALSE,
		    last_active_at = now()
		WHERE id = $1 AND status = 'in_progress'`, p.SessionID, p.OperatorID, answers)
	if err != nil {
		return BookResult{}, fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return BookResult{}, ErrSessionNotOpen
	}

	position, reserved, err := operatorsrepo.IncrementQueue(ctx, tx, p.OperatorID)
	if err != nil {
		return BookResult{}, err
	}
	if !reserved {
		position = 1
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO service_requests
			(session_id, business_id, consumer_id, operator_id, answers, queue_position, estimated_wait_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
		RETURNING`+requestColumns,
		p.SessionID, p.BusinessID, p.ConsumerID, p.OperatorID, answers,
		position, domain.EstimatedWait(position, p.MinutesPerTask),
	)
	request, err := scanRequest(row)
	if err != nil {
		return BookResult{}, fmt.Errorf("insert service request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return BookResult{}, fmt.Errorf("commit book: %w", err)
	}
	return BookResult{Request: request, Reserved: reserved}, nil
}

// TransitionStatus writes the new status only if the request still has the
// expected previous status, and applies the queue delta in the same
// transaction.
func (r *Repo) TransitionStatus(ctx context.Context, p TransitionParams) (TransitionResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE service_requests
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING`+requestColumns,
		p.RequestID, string(p.From), string(p.To),
	)
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransitionResult{}, ErrStatusChanged
		}
		return TransitionResult{}, fmt.Errorf("update request status: %w", err)
	}

	adjusted := true
	switch {
	case p.QueueDelta > 0:
		_, adjusted, err = operatorsrepo.IncrementQueue(ctx, tx, p.OperatorID)
	case p.QueueDelta < 0:
		_, adjusted, err = operatorsrepo.DecrementQueue(ctx, tx, p.OperatorID)
	}
	if err != nil {
		return TransitionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransitionResult{}, fmt.Errorf("commit transition: %w", err)
	}
	return TransitionResult{Request: request, QueueAdjusted: adjusted}, nil
}

// GetRequest retrieves a service request by id.
func (r *Repo) GetRequest(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+requestColumns+` FROM service_requests WHERE id = $1`, id)
	return r.oneRequest(row, "get service request")
}

// GetRequestBySession retrieves the request produced by a session.
func (r *Repo) GetRequestBySession(ctx context.Context, sessionID uuid.UUID) (domain.Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+requestColumns+` FROM service_requests WHERE session_id = $1`, sessionID)
	return r.oneRequest(row, "get service request by session")
}

// ListByOperator lists an operator's requests, active ones first, oldest first
// within each group.
func (r *Repo) ListByOperator(ctx context.Context, operatorID uuid.UUID) ([]domain.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+requestColumns+`
		FROM service_requests
		WHERE operator_id = $1
		ORDER BY (status IN ('pending', 'confirmed', 'in_progress')) DESC, created_at ASC`, operatorID)
	if err != nil {
		return nil, fmt.Errorf("list operator requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListByConsumer lists a consumer's requests, newest first.
func (r *Repo) ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]domain.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+requestColumns+`
		FROM service_requests
		WHERE consumer_id = $1
		ORDER BY created_at DESC`, consumerID)
	if err != nil {
		return nil, fmt.Errorf("list consumer requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *Repo) oneRequest(row pgx.Row, op string) (domain.Request, error) {
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Request{}, apperr.NotFound(requestNotFoundMessage)
		}
		return domain.Request{}, fmt.Errorf("%s: %w", op, err)
	}
	return request, nil
}

func collectRequests(rows pgx.Rows) ([]domain.Request, error) {
	items := make([]domain.Request, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service request: %w", err)
		}
		items = append(items, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service requests: %w", err)
	}
	return items, nil
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		s      domain.Session
		raw    []byte
		status string
	)
	if err := row.Scan(
		&s.ID, &s.BusinessID, &s.ConsumerID, &s.OperatorID, &s.ScriptVersion, &s.CurrentStep,
		&s.AwaitingConfirmation, &raw, &status, &s.CreatedAt, &s.LastActiveAt,
	); err != nil {
		return domain.Session{}, err
	}
	responses, err := decodeResponses(raw)
	if err != nil {
		return domain.Session{}, err
	}
	s.Responses = responses
	s.Status = domain.SessionStatus(status)
	return s, nil
}

func scanRequest(row pgx.Row) (domain.Request, error) {
	var (
		req    domain.Request
		raw    []byte
		status string
	)
	if err := row.Scan(
		&req.ID, &req.SessionID, &req.BusinessID, &req.ConsumerID, &req.OperatorID, &raw,
		&req.QueuePosition, &req.EstimatedWaitMinutes, &status, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return domain.Request{}, err
	}
	answers, err := decodeResponses(raw)
	if err != nil {
		return domain.Request{}, err
	}
	req.Answers = answers
	req.Status = domain.RequestStatus(status)
	return req, nil
}

func encodeResponses(responses []domain.Response) ([]byte, error) {
	if responses == nil {
		responses = []domain.Response{}
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return nil, fmt.Errorf("encode responses: %w", err)
	}
	return raw, nil
}

func decodeResponses(raw []byte) ([]domain.Response, error) {
	responses := make([]domain.Response, 0)
	if len(raw) == 0 {
		return responses, nil
	}
	if err := json.Unmarshal(raw, &responses); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return responses, nil
}
