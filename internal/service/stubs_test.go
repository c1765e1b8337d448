package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"roommatch/internal/middleware"
	"roommatch/internal/models"
	"roommatch/internal/repository"
	"roommatch/internal/testutil"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	existsFn     func(context.Context, uint) (bool, error)
	createFn     func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

type connectionRepoStub struct {
	createIfAbsentFn func(context.Context, *models.Connection) error
	getByIDFn        func(context.Context, uint) (*models.Connection, error)
	getBetweenFn     func(context.Context, uint, uint) (*models.Connection, error)
	listSentFn       func(context.Context, uint) ([]models.Connection, error)
	listReceivedFn   func(context.Context, uint) ([]models.Connection, error)
	listAcceptedFn   func(context.Context, uint) ([]models.Connection, error)
	transitionFn     func(context.Context, uint, models.ConnectionStatus) error
	deleteFn         func(context.Context, uint) error
}

func (s *connectionRepoStub) CreateIfAbsent(ctx context.Context, conn *models.Connection) error {
	return s.createIfAbsentFn(ctx, conn)
}
func (s *connectionRepoStub) GetByID(ctx context.Context, id uint) (*models.Connection, error) {
	return s.getByIDFn(ctx, id)
}
func (s *connectionRepoStub) GetBetween(ctx context.Context, a, b uint) (*models.Connection, error) {
	return s.getBetweenFn(ctx, a, b)
}
func (s *connectionRepoStub) ListSent(ctx context.Context, userID uint) ([]models.Connection, error) {
	return s.listSentFn(ctx, userID)
}
func (s *connectionRepoStub) ListReceived(ctx context.Context, userID uint) ([]models.Connection, error) {
	return s.listReceivedFn(ctx, userID)
}
func (s *connectionRepoStub) ListAccepted(ctx context.Context, userID uint) ([]models.Connection, error) {
	return s.listAcceptedFn(ctx, userID)
}
func (s *connectionRepoStub) TransitionFromPending(ctx context.Context, id uint, status models.ConnectionStatus) error {
	return s.transitionFn(ctx, id, status)
}
func (s *connectionRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

type published struct {
	room    string
	payload []byte
}

// recordingPublisher captures every PublishRoom call.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishRoom(_ context.Context, room string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{room: room, payload: payload})
	return nil
}

func (p *recordingPublisher) rooms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.room)
	}
	return out
}

// stack is every service wired against one sqlite database.
type stack struct {
	db          *gorm.DB
	publisher   *recordingPublisher
	auth        *AuthService
	profiles    *ProfileService
	connections *ConnectionService
	messages    *MessageService
	saved       *SavedProfileService
	feedback    *FeedbackService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	profiles := repository.NewProfileRepository(db)
	connections := repository.NewConnectionRepository(db)
	messages := repository.NewMessageRepository(db)
	pub := &recordingPublisher{}

	return &stack{
		db:          db,
		publisher:   pub,
		auth:        NewAuthService(users, repository.NewPasswordResetRepository(db), middleware.NewTokenManager("test-secret-test-secret-test-secret", time.Hour), bcrypt.MinCost),
		profiles:    NewProfileService(profiles),
		connections: NewConnectionService(connections, users),
		messages:    NewMessageService(messages, connections, users, pub),
		saved:       NewSavedProfileService(repository.NewSavedProfileRepository(db), profiles),
		feedback:    NewFeedbackService(repository.NewFeedbackRepository(db), users),
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
