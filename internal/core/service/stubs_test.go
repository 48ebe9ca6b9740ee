package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
	"github.com/hits/carschool/internal/core/security"
)

// ---------------------------------------------------------------------------
// In-memory identity store
// ---------------------------------------------------------------------------

type stubIdentityStore struct {
	users  map[int64]*domain.Identity
	roles  map[domain.RoleName]*domain.Role
	nextID int64
	saves  int   // number of successful Save calls
	err    error // if set, every lookup returns this error
}

func newStubIdentityStore() *stubIdentityStore {
	s := &stubIdentityStore{
		users:  make(map[int64]*domain.Identity),
		roles:  make(map[domain.RoleName]*domain.Role),
		nextID: 1,
	}
	for _, r := range domain.AllRoles() {
		s.roles[r] = &domain.Role{ID: strings.ToLower(string(r)), Name: r}
	}
	return s
}

func (s *stubIdentityStore) FindByID(_ context.Context, id int64) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return u.Clone(), nil
}

func (s *stubIdentityStore) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (s *stubIdentityStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	if err == domain.ErrIdentityNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *stubIdentityStore) Search(_ context.Context, f ports.IdentityFilter) ([]*domain.Identity, error) {
	var out []*domain.Identity
	for _, u := range s.users {
		if f.Role != "" && !u.Roles.Has(f.Role) {
			continue
		}
		if f.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(f.Email)) {
			continue
		}
		out = append(out, u.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.Identity) int { return int(a.ID - b.ID) })
	return out, nil
}

// Save mirrors the version check of the real store.
func (s *stubIdentityStore) Save(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	if identity.ID == 0 {
		for _, u := range s.users {
			if u.Email == identity.Email || (identity.Phone != "" && u.Phone == identity.Phone) {
				return nil, domain.ErrDuplicateEmailOrPhone
			}
		}
		stored := identity.Clone()
		stored.ID = s.nextID
		stored.Version = 1
		s.nextID++
		s.users[stored.ID] = stored
		s.saves++
		return stored.Clone(), nil
	}

	current, ok := s.users[identity.ID]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	if current.Version != identity.Version {
		return nil, domain.ErrVersionConflict
	}
	stored := identity.Clone()
	stored.Version++
	s.users[stored.ID] = stored
	s.saves++
	return stored.Clone(), nil
}

func (s *stubIdentityStore) Delete(_ context.Context, identity *domain.Identity) error {
	if _, ok := s.users[identity.ID]; !ok {
		return domain.ErrIdentityNotFound
	}
	delete(s.users, identity.ID)
	return nil
}

func (s *stubIdentityStore) FindRoleByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	r, ok := s.roles[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *stubIdentityStore) SaveRole(_ context.Context, name domain.RoleName) error {
	if _, ok := s.roles[name]; !ok {
		s.roles[name] = &domain.Role{ID: strings.ToLower(string(name)), Name: name}
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory channel and post repositories
// ---------------------------------------------------------------------------

type stubChannelRepo struct {
	channels map[string]*domain.Channel
}

func newStubChannelRepo() *stubChannelRepo {
	return &stubChannelRepo{channels: make(map[string]*domain.Channel)}
}

func cloneChannel(ch *domain.Channel) *domain.Channel {
	c := *ch
	c.MemberIDs = slices.Clone(ch.MemberIDs)
	return &c
}

func (r *stubChannelRepo) Create(_ context.Context, ch *domain.Channel) error {
	r.channels[ch.ID] = cloneChannel(ch)
	return nil
}

func (r *stubChannelRepo) FindByID(_ context.Context, id string) (*domain.Channel, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, domain.ErrChannelNotFound
	}
	return cloneChannel(ch), nil
}

func (r *stubChannelRepo) FindByMember(_ context.Context, userID int64) ([]*domain.Channel, error) {
	var out []*domain.Channel
	for _, ch := range r.channels {
		if ch.CreatorID == userID || ch.HasMember(userID) {
			out = append(out, cloneChannel(ch))
		}
	}
	return out, nil
}

func (r *stubChannelRepo) Update(_ context.Context, ch *domain.Channel) error {
	if _, ok := r.channels[ch.ID]; !ok {
		return domain.ErrChannelNotFound
	}
	r.channels[ch.ID] = cloneChannel(ch)
	return nil
}

func (r *stubChannelRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.channels[id]; !ok {
		return domain.ErrChannelNotFound
	}
	delete(r.channels, id)
	return nil
}

type stubPostRepo struct {
	mu      sync.Mutex
	posts   map[string]*domain.Post
	creates int
	// createErr, when set, fails every Create.
	createErr error
	// createGate, when set, is awaited by Create before it stores the post.
	createGate chan struct{}
	// entered receives a value each time Create starts waiting on createGate.
	entered chan struct{}
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{posts: make(map[string]*domain.Post)}
}

func (r *stubPostRepo) Create(_ context.Context, p *domain.Post) error {
	if r.createGate != nil {
		r.entered <- struct{}{}
		<-r.createGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	clone := *p
	r.posts[p.ID] = &clone
	r.creates++
	return nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPostRepo) FindByChannel(_ context.Context, channelID string) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Post
	for _, p := range r.posts {
		if p.ChannelID == channelID {
			clone := *p
			out = append(out, &clone)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *stubPostRepo) FindTasks(ctx context.Context, channelID string, authorID int64) ([]*domain.Post, error) {
	all, _ := r.FindByChannel(ctx, channelID)
	var out []*domain.Post
	for _, p := range all {
		if p.Type == domain.PostTask && p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPostRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *stubPostRepo) createCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates
}

// stubIdempotency mirrors the SETNX reservation of the Redis store.
type stubIdempotency struct {
	mu      sync.Mutex
	keys    map[string]string
	pending map[string]bool
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string), pending: make(map[string]bool)}
}

func (s *stubIdempotency) Reserve(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + "|" + key
	if s.pending[k] {
		return "", false, domain.ErrRequestInProgress
	}
	if v, ok := s.keys[k]; ok {
		return v, false, nil
	}
	s.pending[k] = true
	return "", true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + "|" + key
	delete(s.pending, k)
	s.keys[k] = value
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, scope+"|"+key)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

const testSecret = "0123456789abcdef0123456789abcdef"

// testHasher uses the minimum cost to keep tests fast.
func testHasher() *security.PasswordHasher {
	return security.NewPasswordHasher(bcrypt.MinCost)
}

// seedIdentity stores an active identity with the given password and roles.
func seedIdentity(s *stubIdentityStore, email, password string, roles ...domain.RoleName) *domain.Identity {
	hash, err := testHasher().Hash(password)
	if err != nil {
		panic(err)
	}
	created, err := s.Save(context.Background(), &domain.Identity{
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Age:          20,
		Phone:        "+7" + email,
		Email:        email,
		PasswordHash: hash,
		Roles:        domain.NewRoleSet(roles...),
		Active:       true,
	})
	if err != nil {
		panic(err)
	}
	return created
}
