package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/policy"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory store shared by the stub repositories
// ---------------------------------------------------------------------------

type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	seq      int
	users    map[string]*domain.User
	requests map[string]*domain.BadgeRequest
	badges   map[string]*domain.Badge

	failSetArtifact error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*domain.User),
		requests: make(map[string]*domain.BadgeRequest),
		badges:   make(map[string]*domain.Badge),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// WithinTransaction serializes transactions and restores a snapshot when fn fails.
func (m *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	users := cloneMap(m.users, cloneUser)
	requests := cloneMap(m.requests, cloneRequest)
	badges := cloneMap(m.badges, cloneBadge)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.users, m.requests, m.badges = users, requests, badges
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[T any](in map[string]*T, clone func(*T) *T) map[string]*T {
	out := make(map[string]*T, len(in))
	for k, v := range in {
		out[k] = clone(v)
	}
	return out
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneRequest(r *domain.BadgeRequest) *domain.BadgeRequest {
	c := *r
	c.RequestedZones = append([]string(nil), r.RequestedZones...)
	return &c
}

func cloneBadge(b *domain.Badge) *domain.Badge {
	c := *b
	return &c
}

// --- users ---

type memUserRepo struct{ *memStore }

func (r memUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	c := cloneUser(u)
	c.ID = r.nextID("user")
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, existing := range r.users {
		if id != u.ID && existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r memUserRepo) CountActiveAdmins(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.IsAdmin && u.IsActive {
			n++
		}
	}
	return n, nil
}

// LockAdminRoster is a no-op: memStore transactions are already serialized.
func (r memUserRepo) LockAdminRoster(context.Context) error { return nil }

// --- badge requests ---

type memRequestRepo struct{ *memStore }

func (r memRequestRepo) Create(_ context.Context, br *domain.BadgeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	br.ID = r.nextID("req")
	r.requests[br.ID] = cloneRequest(br)
	return nil
}

func (r memRequestRepo) FindByID(_ context.Context, id string) (*domain.BadgeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	br, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrBadgeRequestNotFound
	}
	return cloneRequest(br), nil
}

func (r memRequestRepo) List(_ context.Context, f ports.ListBadgeRequestsFilter) ([]*domain.BadgeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BadgeRequest
	for _, br := range r.requests {
		if f.OwnerID != "" && br.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && br.Status != f.Status {
			continue
		}
		out = append(out, cloneRequest(br))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memRequestRepo) UpdateStatus(_ context.Context, br *domain.BadgeRequest, from domain.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[br.ID]
	if !ok {
		return domain.ErrBadgeRequestNotFound
	}
	if stored.Status != from {
		return domain.ErrInvalidState
	}
	stored.Status = br.Status
	stored.AdminComment = br.AdminComment
	stored.ProcessedAt = br.ProcessedAt
	stored.UpdatedAt = br.UpdatedAt
	return nil
}

func (r memRequestRepo) DeleteByOwner(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, br := range r.requests {
		if br.OwnerID == ownerID {
			delete(r.requests, id)
		}
	}
	return nil
}

// --- badges ---

type memBadgeRepo struct{ *memStore }

func (r memBadgeRepo) Create(_ context.Context, b *domain.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.badges {
		if existing.BadgeNumber == b.BadgeNumber {
			return domain.ErrBadgeNumberTaken
		}
		if existing.BadgeRequestID == b.BadgeRequestID {
			return domain.ErrInvalidState
		}
	}
	b.ID = r.nextID("badge")
	r.badges[b.ID] = cloneBadge(b)
	return nil
}

func (r memBadgeRepo) FindByID(_ context.Context, id string) (*domain.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.badges[id]
	if !ok {
		return nil, domain.ErrBadgeNotFound
	}
	return cloneBadge(b), nil
}

func (r memBadgeRepo) FindByRequestID(_ context.Context, requestID string) (*domain.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.badges {
		if b.BadgeRequestID == requestID {
			return cloneBadge(b), nil
		}
	}
	return nil, domain.ErrBadgeNotFound
}

func (r memBadgeRepo) FindByRequestIDs(_ context.Context, ids []string) (map[string]*domain.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make(map[string]*domain.Badge)
	for _, b := range r.badges {
		if _, ok := want[b.BadgeRequestID]; ok {
			out[b.BadgeRequestID] = cloneBadge(b)
		}
	}
	return out, nil
}

func (r memBadgeRepo) List(_ context.Context, ownerID string) ([]*domain.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Badge
	for _, b := range r.badges {
		if ownerID == "" || b.OwnerID == ownerID {
			out = append(out, cloneBadge(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memBadgeRepo) SetArtifactPath(_ context.Context, id, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSetArtifact != nil {
		return r.failSetArtifact
	}
	b, ok := r.badges[id]
	if !ok {
		return domain.ErrBadgeNotFound
	}
	p := path
	b.ArtifactPath = &p
	return nil
}

func (r memBadgeRepo) DeleteByOwner(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.badges {
		if b.OwnerID == ownerID {
			delete(r.badges, id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type stubRenderer struct {
	mu    sync.Mutex
	err   error
	calls []ports.RenderInput
}

func (r *stubRenderer) Render(_ context.Context, in ports.RenderInput) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, in)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-" + in.BadgeNumber), nil
}

func (r *stubRenderer) ContentType() string { return "application/pdf" }

type stubArtifacts struct {
	mu      sync.Mutex
	saveErr error
	files   map[string][]byte
}

func newStubArtifacts() *stubArtifacts {
	return &stubArtifacts{files: make(map[string][]byte)}
}

func (a *stubArtifacts) Save(_ context.Context, name string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveErr != nil {
		return "", a.saveErr
	}
	path := "badges/" + name
	a.files[path] = append([]byte(nil), data...)
	return path, nil
}

func (a *stubArtifacts) Open(_ context.Context, path string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.files[path]
	if !ok {
		return nil, errors.New("no such artifact")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *stubArtifacts) Delete(_ context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, path)
	return nil
}

func (a *stubArtifacts) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.files)
}

type stubSessions struct {
	mu      sync.Mutex
	err     error
	revoked map[string]time.Time
}

func newStubSessions() *stubSessions {
	return &stubSessions{revoked: make(map[string]time.Time)}
}

func (s *stubSessions) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.revoked[tokenID] = until
	return nil
}

func (s *stubSessions) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok, nil
}

// ---------------------------------------------------------------------------
// Fixture wiring every service against one store
// ---------------------------------------------------------------------------

var (
	discardLogger = zerolog.Nop()
	fixedNow      = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
)

type fixture struct {
	store     *memStore
	users     memUserRepo
	requests  memRequestRepo
	badges    memBadgeRepo
	renderer  *stubRenderer
	artifacts *stubArtifacts
	sessions  *stubSessions

	auth       *AuthService
	userSvc    *UserService
	requestSvc *BadgeRequestService
	badgeSvc   *BadgeService
}

func newFixture() *fixture {
	store := newMemStore()
	f := &fixture{
		store:     store,
		users:     memUserRepo{store},
		requests:  memRequestRepo{store},
		badges:    memBadgeRepo{store},
		renderer:  &stubRenderer{},
		artifacts: newStubArtifacts(),
		sessions:  newStubSessions(),
	}
	gate := policy.New()
	clock := func() time.Time { return fixedNow }

	f.auth = NewAuthService(f.users, f.sessions, "secret", time.Hour, discardLogger)
	f.auth.now = clock
	f.userSvc = NewUserService(f.users, f.requests, f.badges, f.artifacts, store, gate, discardLogger)
	f.userSvc.now = clock
	f.requestSvc = NewBadgeRequestService(f.requests, f.badges, gate, discardLogger)
	f.requestSvc.now = clock
	f.badgeSvc = NewBadgeService(f.requests, f.badges, f.users, f.renderer, f.artifacts, store, gate, discardLogger)
	f.badgeSvc.now = clock
	return f
}

// seedUser inserts a user directly and returns its identity.
func (f *fixture) seedUser(name string, admin bool) domain.Identity {
	u, err := f.users.Create(context.Background(), &domain.User{
		Name:     name,
		Email:    name + "@airport.test",
		IsActive: true,
		IsAdmin:  admin,
	})
	if err != nil {
		panic(err)
	}
	return domain.IdentityOf(u)
}

func (f *fixture) badgeCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.badges)
}

func datePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func weekRequest() ports.CreateBadgeRequestInput {
	return ports.CreateBadgeRequestInput{
		Type:           string(domain.Type1Week),
		RequestReason:  "x",
		RequestedZones: []string{"terminal"},
		ValidFrom:      fixedNow,
		ValidUntil:     datePtr(fixedNow.AddDate(0, 0, 7)),
	}
}

// approvedRequest creates a request for owner and approves it as admin.
func (f *fixture) approvedRequest(owner, admin domain.Identity) *domain.BadgeRequest {
	ctx := context.Background()
	r, err := f.requestSvc.Create(ctx, owner, weekRequest())
	if err != nil {
		panic(err)
	}
	r, err = f.requestSvc.UpdateStatus(ctx, admin, r.ID, ports.UpdateStatusInput{Status: string(domain.StatusApproved)})
	if err != nil {
		panic(err)
	}
	return r
}
