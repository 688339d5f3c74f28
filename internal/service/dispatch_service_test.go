package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	config "github.com/maheshrc27/creatortask/configs"
	"github.com/maheshrc27/creatortask/internal/events"
	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/publisher"
	"github.com/maheshrc27/creatortask/internal/repository"
)

// memStore is an in-memory PostStore with the same conditional claim rules as Postgres.
type memStore struct {
	mu        sync.Mutex
	posts     map[uuid.UUID]*models.Post
	findErr   error
	onFind    func()
	setStatus func(id uuid.UUID) error
}

func newMemStore(posts ...*models.Post) *memStore {
	s := &memStore{posts: make(map[uuid.UUID]*models.Post)}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

// FindDue snapshots the due set before calling onFind, so a test barrier in
// onFind holds cycles that have already read the same posts.
func (s *memStore) FindDue(_ context.Context, now time.Time) ([]*models.Post, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	var due []*models.Post
	for _, p := range s.posts {
		if p.IsDue(now) {
			cp := *p
			due = append(due, &cp)
		}
	}
	s.mu.Unlock()

	if s.onFind != nil {
		s.onFind()
	}
	return due, nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) Claim(_ context.Context, id uuid.UUID, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || !p.IsDue(now) {
		return false, nil
	}
	p.Status = models.PostStatusPublishing
	p.ClaimToken = &token
	p.ClaimedAt = &now
	return true, nil
}

func (s *memStore) SetStatus(_ context.Context, id uuid.UUID, token string, status models.PostStatus, errorMessage *string) error {
	if s.setStatus != nil {
		if err := s.setStatus(id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Status != models.PostStatusPublishing || p.ClaimToken == nil || *p.ClaimToken != token {
		return repository.ErrClaimLost
	}
	p.Status = status
	p.ErrorMessage = errorMessage
	p.ClaimToken = nil
	return nil
}

func (s *memStore) ReleaseStaleClaims(_ context.Context, claimedBefore time.Time, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.posts {
		if p.Status == models.PostStatusPublishing && p.ClaimedAt != nil && p.ClaimedAt.Before(claimedBefore) {
			p.Status = models.PostStatusFailed
			msg := reason
			p.ErrorMessage = &msg
			p.ClaimToken = nil
			n++
		}
	}
	return n, nil
}

func (s *memStore) post(id uuid.UUID) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.posts[id]
}

type mockAccounts struct {
	accounts map[string]*models.SocialAccount
	resolve  func(ctx context.Context, ids []string) ([]*models.SocialAccount, error)
}

func (m *mockAccounts) ResolveAccounts(ctx context.Context, ids []string) ([]*models.SocialAccount, error) {
	if m.resolve != nil {
		return m.resolve(ctx, ids)
	}
	var out []*models.SocialAccount
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			out = append(out, acc)
		}
	}
	return out, nil
}

type mockPublisher struct {
	platform models.Platform
	publish  func(ctx context.Context, req publisher.PublishRequest) error

	mu    sync.Mutex
	calls []publisher.PublishRequest
}

func (m *mockPublisher) Platform() models.Platform { return m.platform }

func (m *mockPublisher) Publish(ctx context.Context, req publisher.PublishRequest) error {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.publish != nil {
		return m.publish(ctx, req)
	}
	return nil
}

func (m *mockPublisher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockHistory struct {
	mu      sync.Mutex
	entries []*models.PostingHistory
	err     error
	// block makes Create wait for its context, like a hung database.
	block bool
}

func (m *mockHistory) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	if m.block {
		_, hasDeadline := ctx.Deadline()
		if !hasDeadline {
			return 0, errors.New("history write without deadline")
		}
		<-ctx.Done()
		return 0, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.entries = append(m.entries, ph)
	return int64(len(m.entries)), nil
}

type mockEvents struct {
	mu     sync.Mutex
	events []events.PostOutcome
}

func (m *mockEvents) PublishPostOutcome(_ context.Context, e events.PostOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func duePost(platforms models.Platforms) *models.Post {
	return &models.Post{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Content:       "hello",
		Platforms:     platforms,
		ScheduledTime: testNow.Add(-time.Minute),
		Status:        models.PostStatusScheduled,
	}
}

func account(platform models.Platform) *models.SocialAccount {
	return &models.SocialAccount{ID: uuid.New(), Platform: platform, AccessToken: "tok-" + string(platform)}
}

func accountsOf(accs ...*models.SocialAccount) *mockAccounts {
	m := &mockAccounts{accounts: make(map[string]*models.SocialAccount)}
	for _, a := range accs {
		m.accounts[a.ID.String()] = a
	}
	return m
}

func testConfig() config.Dispatch {
	return config.Dispatch{Concurrency: 4, PublishTimeout: time.Second, StaleClaimAfter: 15 * time.Minute}
}

func TestRunCycle_AllTargetsSucceed(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	ig := account(models.PlatformInstagram)
	post := duePost(models.Platforms{tw.ID.String(): true, ig.ID.String(): true})
	post.MediaFiles = models.MediaFiles{{Path: "u/a.jpg", Type: "image/jpeg"}}
	store := newMemStore(post)

	twPub := &mockPublisher{platform: models.PlatformTwitter}
	igPub := &mockPublisher{platform: models.PlatformInstagram}
	history := &mockHistory{}
	ev := &mockEvents{}

	svc := NewDispatchService(store, accountsOf(tw, ig), history, publisher.NewRegistry(twPub, igPub), ev, testConfig())
	result, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(*result, qt.DeepEquals, CycleResult{Found: 1, Processed: 1, Published: 1})

	got := store.post(post.ID)
	c.Assert(got.Status, qt.Equals, models.PostStatusPublished)
	c.Assert(got.ErrorMessage, qt.IsNil)

	c.Assert(twPub.callCount(), qt.Equals, 1)
	c.Assert(igPub.callCount(), qt.Equals, 1)
	c.Assert(twPub.calls[0].Content, qt.Equals, "hello")
	c.Assert(twPub.calls[0].Account.AccessToken, qt.Equals, "tok-twitter")
	c.Assert(igPub.calls[0].MediaFiles, qt.DeepEquals, post.MediaFiles)

	c.Assert(history.entries, qt.HasLen, 2)
	for _, h := range history.entries {
		c.Assert(h.Succeeded, qt.IsTrue)
	}
	c.Assert(ev.events, qt.HasLen, 1)
	c.Assert(ev.events[0].Type, qt.Equals, events.TypePostPublished)
}

func TestRunCycle_MissingAccountFailsPost(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	// "zz-acctB" sorts after the hex id of the twitter account.
	post := duePost(models.Platforms{tw.ID.String(): true, "zz-acctB": true})
	store := newMemStore(post)
	twPub := &mockPublisher{platform: models.PlatformTwitter}
	ev := &mockEvents{}

	svc := NewDispatchService(store, accountsOf(tw), nil, publisher.NewRegistry(twPub), ev, testConfig())
	result, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(*result, qt.DeepEquals, CycleResult{Found: 1, Processed: 1, Failed: 1})

	got := store.post(post.ID)
	c.Assert(got.Status, qt.Equals, models.PostStatusFailed)
	c.Assert(*got.ErrorMessage, qt.Equals, "account zz-acctB not found")
	c.Assert(twPub.callCount(), qt.Equals, 1)
	c.Assert(ev.events[0].Type, qt.Equals, events.TypePostFailed)
	c.Assert(ev.events[0].Payload.ErrorMessage, qt.Equals, "account zz-acctB not found")
}

func TestRunCycle_ZeroTargetsPublishes(t *testing.T) {
	c := qt.New(t)

	post := duePost(models.Platforms{"acctA": false})
	store := newMemStore(post)
	twPub := &mockPublisher{platform: models.PlatformTwitter}
	accounts := &mockAccounts{resolve: func(context.Context, []string) ([]*models.SocialAccount, error) {
		c.Fatalf("accounts must not be resolved for a post without targets")
		return nil, nil
	}}

	svc := NewDispatchService(store, accounts, nil, publisher.NewRegistry(twPub), nil, testConfig())
	result, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Published, qt.Equals, 1)
	c.Assert(store.post(post.ID).Status, qt.Equals, models.PostStatusPublished)
	c.Assert(twPub.callCount(), qt.Equals, 0)
}

func TestRunCycle_PostsAreIsolated(t *testing.T) {
	c := qt.New(t)

	good := account(models.PlatformTwitter)
	bad := account(models.PlatformInstagram)
	okPost := duePost(models.Platforms{good.ID.String(): true})
	failPost := duePost(models.Platforms{bad.ID.String(): true})
	store := newMemStore(okPost, failPost)

	twPub := &mockPublisher{platform: models.PlatformTwitter}
	igPub := &mockPublisher{platform: models.PlatformInstagram, publish: func(context.Context, publisher.PublishRequest) error {
		return &publisher.PublishError{Platform: models.PlatformInstagram, Reason: "instagram: Invalid OAuth access token."}
	}}

	svc := NewDispatchService(store, accountsOf(good, bad), nil, publisher.NewRegistry(twPub, igPub), nil, testConfig())
	result, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(*result, qt.DeepEquals, CycleResult{Found: 2, Processed: 2, Published: 1, Failed: 1})

	c.Assert(store.post(okPost.ID).Status, qt.Equals, models.PostStatusPublished)
	failed := store.post(failPost.ID)
	c.Assert(failed.Status, qt.Equals, models.PostStatusFailed)
	c.Assert(*failed.ErrorMessage, qt.Equals, "instagram: Invalid OAuth access token.")
}

func TestRunCycle_UnsupportedPlatform(t *testing.T) {
	c := qt.New(t)

	tt := account("tiktok")
	post := duePost(models.Platforms{tt.ID.String(): true})
	store := newMemStore(post)

	svc := NewDispatchService(store, accountsOf(tt), nil, publisher.NewRegistry(&mockPublisher{platform: models.PlatformTwitter}), nil, testConfig())
	_, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)

	got := store.post(post.ID)
	c.Assert(got.Status, qt.Equals, models.PostStatusFailed)
	c.Assert(*got.ErrorMessage, qt.Equals, "unsupported platform tiktok")
}

func TestRunCycle_FirstFailureInTargetOrder(t *testing.T) {
	c := qt.New(t)

	first := account(models.PlatformTwitter)
	second := account(models.PlatformTwitter)
	first.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	second.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	post := duePost(models.Platforms{second.ID.String(): true, first.ID.String(): true})
	store := newMemStore(post)

	release := make(chan struct{})
	twPub := &mockPublisher{platform: models.PlatformTwitter, publish: func(ctx context.Context, req publisher.PublishRequest) error {
		if req.Account.ID == first.ID {
			// finishes after the second account
			<-release
			return &publisher.PublishError{Reason: "first failure"}
		}
		defer close(release)
		return &publisher.PublishError{Reason: "second failure"}
	}}

	svc := NewDispatchService(store, accountsOf(first, second), nil, publisher.NewRegistry(twPub), nil, testConfig())
	_, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(*store.post(post.ID).ErrorMessage, qt.Equals, "first failure")
}

func TestRunCycle_OverlappingCyclesPublishOnce(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	var posts []*models.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, duePost(models.Platforms{tw.ID.String(): true}))
	}
	store := newMemStore(posts...)

	// Both cycles read the same due set before either claims.
	var found sync.WaitGroup
	found.Add(2)
	store.onFind = func() {
		found.Done()
		found.Wait()
	}

	twPub := &mockPublisher{platform: models.PlatformTwitter}
	svc := NewDispatchService(store, accountsOf(tw), nil, publisher.NewRegistry(twPub), nil, testConfig())

	results := make([]*CycleResult, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := svc.RunCycle(context.Background(), testNow)
			c.Check(err, qt.IsNil)
			results[i] = r
		}()
	}
	wg.Wait()

	c.Assert(twPub.callCount(), qt.Equals, 5)
	c.Assert(results[0].Found, qt.Equals, 5)
	c.Assert(results[1].Found, qt.Equals, 5)
	c.Assert(results[0].Processed+results[1].Processed, qt.Equals, 5)
	c.Assert(results[0].Skipped+results[1].Skipped, qt.Equals, 5)
	for _, p := range posts {
		c.Assert(store.post(p.ID).Status, qt.Equals, models.PostStatusPublished)
	}
}

func TestRunCycle_PersistenceErrorIsSurfaced(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	broken := duePost(models.Platforms{tw.ID.String(): true})
	healthy := duePost(models.Platforms{tw.ID.String(): true})
	store := newMemStore(broken, healthy)
	store.setStatus = func(id uuid.UUID) error {
		if id == broken.ID {
			return errors.New("connection refused")
		}
		return nil
	}

	svc := NewDispatchService(store, accountsOf(tw), nil, publisher.NewRegistry(&mockPublisher{platform: models.PlatformTwitter}), nil, testConfig())
	result, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.ErrorMatches, `set status of post .* to published: connection refused`)
	c.Assert(result, qt.IsNotNil)
	c.Assert(result.Published, qt.Equals, 1)
	c.Assert(result.Processed, qt.Equals, 1)
	c.Assert(store.post(healthy.ID).Status, qt.Equals, models.PostStatusPublished)
}

func TestRunCycle_FindDueError(t *testing.T) {
	c := qt.New(t)
	store := newMemStore()
	store.findErr = errors.New("db down")

	svc := NewDispatchService(store, accountsOf(), nil, publisher.NewRegistry(), nil, testConfig())
	result, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.ErrorMatches, "find due posts: db down")
	c.Assert(result, qt.IsNil)
}

func TestRunCycle_PublisherPanicBecomesFailure(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	post := duePost(models.Platforms{tw.ID.String(): true})
	store := newMemStore(post)
	twPub := &mockPublisher{platform: models.PlatformTwitter, publish: func(context.Context, publisher.PublishRequest) error {
		panic("nil map")
	}}

	svc := NewDispatchService(store, accountsOf(tw), nil, publisher.NewRegistry(twPub), nil, testConfig())
	_, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)

	got := store.post(post.ID)
	c.Assert(got.Status, qt.Equals, models.PostStatusFailed)
	c.Assert(*got.ErrorMessage, qt.Equals, "publishing to twitter failed unexpectedly")
}

func TestRunCycle_PublishTimeout(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	post := duePost(models.Platforms{tw.ID.String(): true})
	store := newMemStore(post)
	twPub := &mockPublisher{platform: models.PlatformTwitter, publish: func(ctx context.Context, _ publisher.PublishRequest) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	cfg := testConfig()
	cfg.PublishTimeout = 20 * time.Millisecond
	svc := NewDispatchService(store, accountsOf(tw), nil, publisher.NewRegistry(twPub), nil, cfg)
	_, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)

	got := store.post(post.ID)
	c.Assert(got.Status, qt.Equals, models.PostStatusFailed)
	c.Assert(*got.ErrorMessage, qt.Equals, context.DeadlineExceeded.Error())
}

func TestRunCycle_CancelledBeforeClaimLeavesPostsScheduled(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	post := duePost(models.Platforms{tw.ID.String(): true})
	store := newMemStore(post)
	twPub := &mockPublisher{platform: models.PlatformTwitter}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewDispatchService(store, accountsOf(tw), nil, publisher.NewRegistry(twPub), nil, testConfig())
	result, err := svc.RunCycle(ctx, testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(*result, qt.DeepEquals, CycleResult{Found: 1, Skipped: 1})
	c.Assert(store.post(post.ID).Status, qt.Equals, models.PostStatusScheduled)
	c.Assert(twPub.callCount(), qt.Equals, 0)
}

func TestRunCycle_CancelledAfterClaimStillReconciles(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	post := duePost(models.Platforms{tw.ID.String(): true})
	store := newMemStore(post)

	ctx, cancel := context.WithCancel(context.Background())
	twPub := &mockPublisher{platform: models.PlatformTwitter, publish: func(pubCtx context.Context, _ publisher.PublishRequest) error {
		cancel()
		return pubCtx.Err()
	}}

	svc := NewDispatchService(store, accountsOf(tw), nil, publisher.NewRegistry(twPub), nil, testConfig())
	result, err := svc.RunCycle(ctx, testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Published, qt.Equals, 1)
	c.Assert(store.post(post.ID).Status, qt.Equals, models.PostStatusPublished)
}

func TestRunCycle_HistoryFailureDoesNotFailPost(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	post := duePost(models.Platforms{tw.ID.String(): true})
	store := newMemStore(post)

	svc := NewDispatchService(store, accountsOf(tw), &mockHistory{err: errors.New("disk full")},
		publisher.NewRegistry(&mockPublisher{platform: models.PlatformTwitter}), nil, testConfig())
	_, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(store.post(post.ID).Status, qt.Equals, models.PostStatusPublished)
}

func TestRunCycle_HungHistoryWriteIsBounded(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	post := duePost(models.Platforms{tw.ID.String(): true})
	store := newMemStore(post)

	cfg := testConfig()
	cfg.PublishTimeout = 50 * time.Millisecond
	svc := NewDispatchService(store, accountsOf(tw), &mockHistory{block: true},
		publisher.NewRegistry(&mockPublisher{platform: models.PlatformTwitter}), nil, cfg)

	start := time.Now()
	result, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Published, qt.Equals, 1)
	c.Assert(time.Since(start) < 5*time.Second, qt.IsTrue)
	c.Assert(store.post(post.ID).Status, qt.Equals, models.PostStatusPublished)
}

func TestRunCycle_ResolveErrorFailsPost(t *testing.T) {
	c := qt.New(t)

	post := duePost(models.Platforms{"acctA": true})
	store := newMemStore(post)
	accounts := &mockAccounts{resolve: func(context.Context, []string) ([]*models.SocialAccount, error) {
		return nil, errors.New("timeout")
	}}

	svc := NewDispatchService(store, accounts, nil, publisher.NewRegistry(), nil, testConfig())
	_, err := svc.RunCycle(context.Background(), testNow)
	c.Assert(err, qt.IsNil)

	got := store.post(post.ID)
	c.Assert(got.Status, qt.Equals, models.PostStatusFailed)
	c.Assert(*got.ErrorMessage, qt.Equals, "resolve account acctA: timeout")
}

func TestDispatchPost(t *testing.T) {
	c := qt.New(t)

	tw := account(models.PlatformTwitter)
	due := duePost(models.Platforms{tw.ID.String(): true})
	future := duePost(models.Platforms{tw.ID.String(): true})
	future.ScheduledTime = testNow.Add(time.Hour)
	store := newMemStore(due, future)
	twPub := &mockPublisher{platform: models.PlatformTwitter}

	svc := NewDispatchService(store, accountsOf(tw), nil, publisher.NewRegistry(twPub), nil, testConfig())

	ok, err := svc.DispatchPost(context.Background(), future.ID, testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	ok, err = svc.DispatchPost(context.Background(), uuid.New(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	ok, err = svc.DispatchPost(context.Background(), due.ID, testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(store.post(due.ID).Status, qt.Equals, models.PostStatusPublished)

	// already terminal
	ok, err = svc.DispatchPost(context.Background(), due.ID, testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
	c.Assert(twPub.callCount(), qt.Equals, 1)
}

func TestReleaseStaleClaims(t *testing.T) {
	c := qt.New(t)

	stale := duePost(nil)
	stale.Status = models.PostStatusPublishing
	claimedAt := testNow.Add(-time.Hour)
	stale.ClaimedAt = &claimedAt
	fresh := duePost(nil)
	fresh.Status = models.PostStatusPublishing
	recent := testNow.Add(-time.Minute)
	fresh.ClaimedAt = &recent
	store := newMemStore(stale, fresh)

	svc := NewDispatchService(store, accountsOf(), nil, publisher.NewRegistry(), nil, testConfig())
	n, err := svc.ReleaseStaleClaims(context.Background(), testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(1))

	got := store.post(stale.ID)
	c.Assert(got.Status, qt.Equals, models.PostStatusFailed)
	c.Assert(*got.ErrorMessage, qt.Equals, StaleClaimReason)
	c.Assert(store.post(fresh.ID).Status, qt.Equals, models.PostStatusPublishing)
}
