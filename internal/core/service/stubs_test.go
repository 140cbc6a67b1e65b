package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/kalado/authentication/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Identity repository
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	mu        sync.Mutex
	byID      map[int64]*domain.Identity
	nextID    int64
	findErr   error
	updateErr error
	creates   int
	roleSaves int
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{byID: make(map[int64]*domain.Identity)}
}

func cloneIdentity(u *domain.Identity) *domain.Identity {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubIdentityRepo) seed(username, hash string, role domain.Role, verified bool) *domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u := &domain.Identity{ID: r.nextID, Username: username, PasswordHash: hash, Role: role, EmailVerified: verified}
	r.byID[u.ID] = u
	return cloneIdentity(u)
}

func (r *stubIdentityRepo) get(id int64) *domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneIdentity(r.byID[id])
}

func (r *stubIdentityRepo) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Username == username {
			return cloneIdentity(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id int64) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneIdentity(u), nil
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == identity.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	r.creates++
	created := cloneIdentity(identity)
	created.ID = r.nextID
	r.byID[created.ID] = cloneIdentity(created)
	return created, nil
}

func (r *stubIdentityRepo) UpdateRole(_ context.Context, id int64, from, to domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Role != from {
		return domain.ErrRoleConflict
	}
	u.Role = to
	r.roleSaves++
	return nil
}

func (r *stubIdentityRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubIdentityRepo) SetEmailVerified(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.EmailVerified = true
	return nil
}

// ---------------------------------------------------------------------------
// Session store
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu        sync.Mutex
	tokens    map[string]int64
	bySubject map[int64]map[string]struct{}
	saveErr   error
	getErr    error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{
		tokens:    make(map[string]int64),
		bySubject: make(map[int64]map[string]struct{}),
	}
}

func (s *stubSessionStore) Save(_ context.Context, token string, subjectID int64, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.tokens[token] = subjectID
	if s.bySubject[subjectID] == nil {
		s.bySubject[subjectID] = make(map[string]struct{})
	}
	s.bySubject[subjectID][token] = struct{}{}
	return nil
}

func (s *stubSessionStore) SubjectOf(_ context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return 0, s.getErr
	}
	id, ok := s.tokens[token]
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	return id, nil
}

func (s *stubSessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.tokens[token]; ok {
		delete(s.bySubject[id], token)
		delete(s.tokens, token)
	}
	return nil
}

func (s *stubSessionStore) DeleteAllForSubject(_ context.Context, subjectID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token := range s.bySubject[subjectID] {
		if _, ok := s.tokens[token]; ok {
			n++
		}
		delete(s.tokens, token)
	}
	delete(s.bySubject, subjectID)
	return n, nil
}

func (s *stubSessionStore) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// ---------------------------------------------------------------------------
// Reset and verification token repositories
// ---------------------------------------------------------------------------

type stubResetRepo struct {
	mu      sync.Mutex
	tokens  map[string]*domain.PasswordResetToken
	saveErr error
	// beforeConsume runs outside the lock, letting tests line up callers.
	beforeConsume func()
}

func newStubResetRepo() *stubResetRepo {
	return &stubResetRepo{tokens: make(map[string]*domain.PasswordResetToken)}
}

func (r *stubResetRepo) Replace(_ context.Context, t *domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	for k, existing := range r.tokens {
		if existing.IdentityID == t.IdentityID {
			delete(r.tokens, k)
		}
	}
	clone := *t
	r.tokens[t.Token] = &clone
	return nil
}

func (r *stubResetRepo) Consume(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	if r.beforeConsume != nil {
		r.beforeConsume()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	delete(r.tokens, token)
	return t, nil
}

func (r *stubResetRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type stubVerificationRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.VerificationToken
}

func newStubVerificationRepo() *stubVerificationRepo {
	return &stubVerificationRepo{tokens: make(map[string]*domain.VerificationToken)}
}

func (r *stubVerificationRepo) Replace(_ context.Context, t *domain.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, existing := range r.tokens {
		if existing.IdentityID == t.IdentityID {
			delete(r.tokens, k)
		}
	}
	clone := *t
	r.tokens[t.Token] = &clone
	return nil
}

func (r *stubVerificationRepo) Consume(_ context.Context, token string) (*domain.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	delete(r.tokens, token)
	return t, nil
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

type stubProfiles struct {
	mu        sync.Mutex
	profiles  map[int64]*domain.UserProfile
	users     []domain.UserProfile
	admins    []domain.AdminProfile
	getErr    error
	createErr error
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{profiles: make(map[int64]*domain.UserProfile)}
}

func (p *stubProfiles) GetUserProfile(_ context.Context, id int64) (*domain.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	profile, ok := p.profiles[id]
	if !ok {
		return nil, nil
	}
	clone := *profile
	return &clone, nil
}

func (p *stubProfiles) CreateUser(_ context.Context, profile domain.UserProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return p.createErr
	}
	p.users = append(p.users, profile)
	clone := profile
	p.profiles[profile.ID] = &clone
	return nil
}

func (p *stubProfiles) CreateAdmin(_ context.Context, profile domain.AdminProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return p.createErr
	}
	p.admins = append(p.admins, profile)
	return nil
}

type sentMail struct {
	kind  domain.MailKind
	email string
	token string
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *stubNotifier) PasswordResetRequested(_ context.Context, email, token string) error {
	return n.record(domain.MailPasswordReset, email, token)
}

func (n *stubNotifier) VerificationRequested(_ context.Context, email, token string) error {
	return n.record(domain.MailEmailVerification, email, token)
}

func (n *stubNotifier) record(kind domain.MailKind, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{kind: kind, email: email, token: token})
	return nil
}

func (n *stubNotifier) last(kind domain.MailKind) (sentMail, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].kind == kind {
			return n.sent[i], true
		}
	}
	return sentMail{}, false
}

type stubAllowlist struct {
	admins map[string]bool
	gods   map[string]bool
}

func (a stubAllowlist) IsAuthorizedForAdmin(email string) bool { return a.admins[email] }
func (a stubAllowlist) IsAuthorizedForGod(email string) bool   { return a.gods[email] }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---------------------------------------------------------------------------
// Kit: every service wired over the stubs above.
// ---------------------------------------------------------------------------

type testKit struct {
	identities    *stubIdentityRepo
	sessions      *stubSessionStore
	resets        *stubResetRepo
	verifications *stubVerificationRepo
	profiles      *stubProfiles
	notifier      *stubNotifier
	clock         *fakeClock
	hasher        *BcryptHasher

	tokens       *TokenService
	auth         *AuthService
	roles        *RoleService
	registration *RegistrationService
	passwords    *PasswordService
	verification *VerificationService
}

func newTestKit() *testKit {
	k := &testKit{
		identities:    newStubIdentityRepo(),
		sessions:      newStubSessionStore(),
		resets:        newStubResetRepo(),
		verifications: newStubVerificationRepo(),
		profiles:      newStubProfiles(),
		notifier:      &stubNotifier{},
		clock:         newFakeClock(),
		hasher:        NewBcryptHasher(bcrypt.MinCost),
	}
	log := zerolog.Nop()
	allow := stubAllowlist{
		admins: map[string]bool{"admin@x.com": true},
		gods:   map[string]bool{"god@x.com": true},
	}

	k.tokens = NewTokenService(k.sessions, k.identities, "test-secret", 24*time.Hour, log)
	k.tokens.now = k.clock.Now
	k.verification = NewVerificationService(k.identities, k.verifications, k.notifier, 24*time.Hour, log)
	k.verification.now = k.clock.Now
	k.roles = NewRoleService(k.identities, k.profiles, allow, log)
	k.auth = NewAuthService(k.identities, k.hasher, k.tokens, k.verification, k.profiles, log)
	k.registration = NewRegistrationService(k.identities, k.hasher, k.roles, k.profiles, k.verification, "US", log)
	k.registration.now = k.clock.Now
	k.passwords = NewPasswordService(k.identities, k.resets, k.hasher, k.tokens, k.notifier, 24*time.Hour, log)
	k.passwords.now = k.clock.Now
	return k
}

// seed stores an identity with a real bcrypt hash of password.
func (k *testKit) seed(username, password string, role domain.Role) *domain.Identity {
	hash, err := k.hasher.Hash(password)
	if err != nil {
		panic(err)
	}
	return k.identities.seed(username, hash, role, true)
}
