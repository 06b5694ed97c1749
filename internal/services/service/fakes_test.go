package service

import (
	"context"
	"sync"
	"time"

	"marketplace_backend/internal/businesses"
	scriptdomain "marketplace_backend/internal/scripts/domain"
	"marketplace_backend/internal/services/domain"
	"marketplace_backend/internal/services/repository"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore backs both the booking repository and the operator roster so
// queue counters move together the way a shared database would.
type fakeStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]domain.Session
	requests  map[uuid.UUID]domain.Request
	operators map[uuid.UUID][]*fakeOperator
	now       time.Time
}

type fakeOperator struct {
	id        uuid.UUID
	available bool
	queue     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:  make(map[uuid.UUID]domain.Session),
		requests:  make(map[uuid.UUID]domain.Request),
		operators: make(map[uuid.UUID][]*fakeOperator),
		now:       time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) addOperator(businessID uuid.UUID, available bool, queue int) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	op := &fakeOperator{id: uuid.New(), available: available, queue: queue}
	f.operators[businessID] = append(f.operators[businessID], op)
	return op.id
}

func (f *fakeStore) findOperator(id uuid.UUID) *fakeOperator {
	for _, ops := range f.operators {
		for _, op := range ops {
			if op.id == id {
				return op
			}
		}
	}
	return nil
}

func (f *fakeStore) queueLength(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op := f.findOperator(id); op != nil {
		return op.queue
	}
	return -1
}

func (f *fakeStore) Roster(_ context.Context, businessID uuid.UUID) ([]RosterEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RosterEntry, 0, len(f.operators[businessID]))
	for _, op := range f.operators[businessID] {
		out = append(out, RosterEntry{OperatorID: op.id, Available: op.available, QueueLength: op.queue})
	}
	return out, nil
}

func (f *fakeStore) GetSession(_ context.Context, id uuid.UUID) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, apperr.NotFound("session not found")
	}
	return s, nil
}

func (f *fakeStore) CreateSession(_ context.Context, p repository.CreateSessionParams) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := domain.Session{
		ID:            uuid.New(),
		BusinessID:    p.BusinessID,
		ConsumerID:    p.ConsumerID,
		OperatorID:    p.OperatorID,
		ScriptVersion: p.ScriptVersion,
		CurrentStep:   p.CurrentStep,
		Responses:     []domain.Response{},
		Status:        domain.SessionInProgress,
		CreatedAt:     f.now,
		LastActiveAt:  f.now,
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) AdvanceSession(_ context.Context, p repository.AdvanceSessionParams) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[p.SessionID]
	if !ok {
		return domain.Session{}, apperr.NotFound("session not found")
	}
	if s.Status != domain.SessionInProgress {
		return domain.Session{}, repository.ErrSessionNotOpen
	}
	s.Responses = p.Responses
	s.CurrentStep = p.CurrentStep
	s.AwaitingConfirmation = p.AwaitingConfirmation
	s.LastActiveAt = f.now
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) AbandonIdleSession(_ context.Context, id uuid.UUID, idleBefore time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != domain.SessionInProgress || !s.LastActiveAt.Before(idleBefore) {
		return false, nil
	}
	s.Status = domain.SessionAbandoned
	f.sessions[id] = s
	return true, nil
}

func (f *fakeStore) AbandonIdleSessions(_ context.Context, idleBefore time.Time, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.sessions {
		if int(n) >= limit {
			break
		}
		if s.Status == domain.SessionInProgress && s.LastActiveAt.Before(idleBefore) {
			s.Status = domain.SessionAbandoned
			f.sessions[id] = s
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetRequest(_ context.Context, id uuid.UUID) (domain.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return domain.Request{}, apperr.NotFound("service request not found")
	}
	return r, nil
}

func (f *fakeStore) GetRequestBySession(_ context.Context, sessionID uuid.UUID) (domain.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.SessionID == sessionID {
			return r, nil
		}
	}
	return domain.Request{}, apperr.NotFound("service request not found")
}

func (f *fakeStore) ListByOperator(_ context.Context, operatorID uuid.UUID) ([]domain.Request, error) {
	return f.filter(func(r domain.Request) bool { return r.OperatorID == operatorID }), nil
}

func (f *fakeStore) ListByConsumer(_ context.Context, consumerID uuid.UUID) ([]domain.Request, error) {
	return f.filter(func(r domain.Request) bool { return r.ConsumerID == consumerID }), nil
}

func (f *fakeStore) filter(keep func(domain.Request) bool) []domain.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Request
	for _, r := range f.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeStore) Book(_ context.Context, p repository.BookParams) (repository.BookResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[p.SessionID]
	if !ok || s.Status != domain.SessionInProgress {
		return repository.BookResult{}, repository.ErrSessionNotOpen
	}
	s.Status = domain.SessionCompleted
	s.OperatorID = &p.OperatorID
	s.Responses = p.Responses
	f.sessions[s.ID] = s

	position, reserved := 1, false
	if op := f.findOperator(p.OperatorID); op != nil {
		op.queue++
		position, reserved = op.queue, true
	}
	r := domain.Request{
		ID:                   uuid.New(),
		SessionID:            p.SessionID,
		BusinessID:           p.BusinessID,
		ConsumerID:           p.ConsumerID,
		OperatorID:           p.OperatorID,
		Answers:              p.Responses,
		QueuePosition:        position,
		EstimatedWaitMinutes: domain.EstimatedWait(position, p.MinutesPerTask),
		Status:               domain.StatusPending,
		CreatedAt:            f.now,
		UpdatedAt:            f.now,
	}
	f.requests[r.ID] = r
	return repository.BookResult{Request: r, Reserved: reserved}, nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, p repository.TransitionParams) (repository.TransitionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[p.RequestID]
	if !ok {
		return repository.TransitionResult{}, apperr.NotFound("service request not found")
	}
	if r.Status != p.From {
		return repository.TransitionResult{}, repository.ErrStatusChanged
	}
	r.Status = p.To
	r.UpdatedAt = f.now
	f.requests[r.ID] = r

	adjusted := p.QueueDelta == 0
	if op := f.findOperator(p.OperatorID); op != nil && p.QueueDelta != 0 {
		op.queue += p.QueueDelta
		if op.queue < 0 {
			op.queue = 0
		}
		adjusted = true
	}
	return repository.TransitionResult{Request: r, QueueAdjusted: adjusted}, nil
}

type fakeScripts struct {
	mu       sync.Mutex
	current  map[uuid.UUID]scriptdomain.Script
	versions map[uuid.UUID]map[int][]scriptdomain.Step
}

func newFakeScripts() *fakeScripts {
	return &fakeScripts{
		current:  make(map[uuid.UUID]scriptdomain.Script),
		versions: make(map[uuid.UUID]map[int][]scriptdomain.Step),
	}
}

func (f *fakeScripts) put(businessID uuid.UUID, steps []scriptdomain.Step) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	version := f.current[businessID].Version + 1
	f.current[businessID] = scriptdomain.Script{BusinessID: businessID, Version: version, Steps: steps}
	if f.versions[businessID] == nil {
		f.versions[businessID] = make(map[int][]scriptdomain.Step)
	}
	f.versions[businessID][version] = steps
	return version
}

func (f *fakeScripts) GetScript(_ context.Context, businessID uuid.UUID) (scriptdomain.Script, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.current[businessID]
	if !ok {
		return scriptdomain.Script{}, apperr.NotFound("script not found")
	}
	return s, nil
}

func (f *fakeScripts) GetSnapshot(_ context.Context, businessID uuid.UUID, version int) (scriptdomain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	steps, ok := f.versions[businessID][version]
	if !ok {
		return scriptdomain.Snapshot{}, apperr.NotFound("script version not found")
	}
	return scriptdomain.NewSnapshot(businessID, version, steps), nil
}

type fakeBusinesses map[uuid.UUID]businesses.Business

func (f fakeBusinesses) GetByID(_ context.Context, id uuid.UUID) (businesses.Business, error) {
	b, ok := f[id]
	if !ok {
		return businesses.Business{}, apperr.NotFound("business not found")
	}
	return b, nil
}

type sentNotification struct {
	recipient uuid.UUID
	kind      string
	message   string
	related   *uuid.UUID
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) Notify(_ context.Context, recipientID uuid.UUID, kind, message string, relatedID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{recipient: recipientID, kind: kind, message: message, related: relatedID})
	return nil
}

type fakeExpiry struct {
	mu        sync.Mutex
	scheduled map[uuid.UUID]time.Time
}

func (f *fakeExpiry) ScheduleSessionExpiry(_ context.Context, sessionID uuid.UUID, runAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduled == nil {
		f.scheduled = make(map[uuid.UUID]time.Time)
	}
	f.scheduled[sessionID] = runAt
	return nil
}

type fixture struct {
	svc      *Service
	store    *fakeStore
	scripts  *fakeScripts
	biz      fakeBusinesses
	notifier *fakeNotifier
	business businesses.Business
}

func newFixture() *fixture {
	store := newFakeStore()
	scripts := newFakeScripts()
	business := businesses.Business{ID: uuid.New(), OwnerID: uuid.New(), Name: "Fix-It", Type: businesses.TypeService, Status: "active"}
	biz := fakeBusinesses{business.ID: business}
	notifier := &fakeNotifier{}

	svc := New(store, scripts, biz, store, nil, logger.Discard())
	svc.SetNotifier(notifier)
	svc.now = func() time.Time { return store.now }

	return &fixture{svc: svc, store: store, scripts: scripts, biz: biz, notifier: notifier, business: business}
}

func strPtr(s string) *string { return &s }

// repairScript is a branching phone repair intake:
// device -> (screen replacement -> model) | (battery -> age) -> notes.
func repairScript() []scriptdomain.Step {
	return []scriptdomain.Step{
		{
			ID:     "device",
			Kind:   scriptdomain.KindMultipleChoice,
			Prompt: "What do you need?",
			Options: []scriptdomain.Option{
				{Label: "Screen Replacement", NextStepID: strPtr("model")},
				{Label: "Battery", NextStepID: strPtr("age")},
			},
			NextStepID: strPtr("notes"),
		},
		{ID: "model", Kind: scriptdomain.KindText, Prompt: "Which model?", NextStepID: strPtr("notes")},
		{ID: "age", Kind: scriptdomain.KindNumber, Prompt: "How old is the battery?", NextStepID: strPtr("notes")},
		{ID: "notes", Kind: scriptdomain.KindText, Prompt: "Anything else?"},
	}
}
