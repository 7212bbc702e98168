package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/store"
	"github.com/raushankrgupta/doctor-appointment/utils"
	"golang.org/x/crypto/bcrypt"
)

type sentEmail struct {
	toEmail string
	subject string
	text    string
}

type fakeMailer struct {
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{toEmail: toEmail, subject: subject, text: textContent})
	return nil
}

type fakePictures struct {
	objects map[string][]byte
}

func (p *fakePictures) Upload(ctx context.Context, file io.Reader, objectKey string, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}
	p.objects[objectKey] = buf.Bytes()
	return objectKey, nil
}

func (p *fakePictures) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	if _, ok := p.objects[objectKey]; !ok {
		return "", errors.New("no such key")
	}
	return "https://bucket.example/" + objectKey + "?signed", nil
}

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	flushes int
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) DeleteAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.flushes++
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.Notification
}

func (p *fakePublisher) Publish(n models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, n)
}

type testEnv struct {
	store     *store.Store
	svc       *Services
	tokens    *utils.TokenManager
	mailer    *fakeMailer
	pictures  *fakePictures
	cache     *fakeCache
	publisher *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := utils.NewTokenManager("test-secret", 48*time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	// every call advances the clock so "newest first" is deterministic
	clock := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	now := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	env := &testEnv{
		store:     store.NewMemoryStore(),
		tokens:    tokens,
		mailer:    &fakeMailer{},
		pictures:  &fakePictures{objects: make(map[string][]byte)},
		cache:     &fakeCache{data: make(map[string][]byte)},
		publisher: &fakePublisher{},
	}
	env.svc = New(Deps{
		Store:     env.store,
		Tokens:    tokens,
		Mailer:    env.mailer,
		Pictures:  env.pictures,
		Cache:     env.cache,
		Publisher: env.publisher,
		ClientURL: "http://localhost:3000/",
		HashCost:  bcrypt.MinCost,
		Now:       now,
	})
	return env
}

func (e *testEnv) register(t *testing.T, first, last, email string, role models.Role) *models.User {
	t.Helper()
	u, err := e.svc.Accounts.Register(context.Background(), RegisterInput{
		Firstname: first,
		Lastname:  last,
		Email:     email,
		Password:  "secret1",
		Role:      role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

// approvedDoctor registers a user and walks it through submit and approve
func (e *testEnv) approvedDoctor(t *testing.T, first, last, email, specialization string) *models.User {
	t.Helper()
	ctx := context.Background()
	u := e.register(t, first, last, email, models.RoleDoctor)
	if _, err := e.svc.Doctors.SubmitApplication(ctx, u.ID, DoctorInput{Specialization: specialization, Experience: 5, Fees: 500}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.svc.Doctors.Approve(ctx, u.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return u
}

func expectKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
