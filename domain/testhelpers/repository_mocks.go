package testhelpers

import (
	"context"
	"time"

	"betmate/domain/entities"
	"betmate/domain/events"
	"betmate/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username, displayName string, initialBalance int64) (*entities.User, error) {
	args := m.Called(ctx, username, displayName, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateBalance(ctx context.Context, userID int64, newBalance int64) error {
	args := m.Called(ctx, userID, newBalance)
	return args.Error(0)
}

func (m *MockUserRepository) SoftDelete(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

func (m *MockBalanceHistoryRepository) GetByDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockGroupRepository is a mock implementation of GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Create(ctx context.Context, group *entities.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id int64) (*entities.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Group), args.Error(1)
}

func (m *MockGroupRepository) Update(ctx context.Context, group *entities.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) ListPublic(ctx context.Context, limit, offset int) ([]*entities.Group, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Group), args.Error(1)
}

// MockMembershipRepository is a mock implementation of MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Get(ctx context.Context, groupID, userID int64) (*entities.GroupMembership, error) {
	args := m.Called(ctx, groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GroupMembership), args.Error(1)
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *entities.GroupMembership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Update(ctx context.Context, membership *entities.GroupMembership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) ListByGroup(ctx context.Context, groupID int64, status entities.MembershipStatus) ([]*entities.GroupMembership, error) {
	args := m.Called(ctx, groupID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GroupMembership), args.Error(1)
}

func (m *MockMembershipRepository) ListModerators(ctx context.Context, groupID int64) ([]*entities.GroupMembership, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GroupMembership), args.Error(1)
}

func (m *MockMembershipRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.GroupMembership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GroupMembership), args.Error(1)
}

func (m *MockMembershipRepository) CountApproved(ctx context.Context, groupID int64) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *entities.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*entities.Message, error) {
	args := m.Called(ctx, groupID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Message), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) CreateWithOptions(ctx context.Context, bet *entities.Bet, options []*entities.BetOption) error {
	args := m.Called(ctx, bet, options)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetDetailByID(ctx context.Context, id int64) (*entities.BetDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BetDetail), args.Error(1)
}

func (m *MockBetRepository) Update(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) ListByGroup(ctx context.Context, groupID int64, status entities.BetStatus, limit int) ([]*entities.Bet, error) {
	args := m.Called(ctx, groupID, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetExpiredOpenBets(ctx context.Context, now time.Time) ([]*entities.Bet, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetParticipation(ctx context.Context, betID, userID int64) (*entities.BetParticipation, error) {
	args := m.Called(ctx, betID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BetParticipation), args.Error(1)
}

func (m *MockBetRepository) SaveParticipation(ctx context.Context, participation *entities.BetParticipation) error {
	args := m.Called(ctx, participation)
	return args.Error(0)
}

func (m *MockBetRepository) UpdateOptionTotal(ctx context.Context, optionID int64, totalAmount int64) error {
	args := m.Called(ctx, optionID, totalAmount)
	return args.Error(0)
}

func (m *MockBetRepository) UpdateParticipationResults(ctx context.Context, participations []*entities.BetParticipation) error {
	args := m.Called(ctx, participations)
	return args.Error(0)
}

func (m *MockBetRepository) AddResolver(ctx context.Context, betID, userID int64) error {
	args := m.Called(ctx, betID, userID)
	return args.Error(0)
}

func (m *MockBetRepository) IsResolver(ctx context.Context, betID, userID int64) (bool, error) {
	args := m.Called(ctx, betID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBetRepository) UpsertVote(ctx context.Context, vote *entities.ResolutionVote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

func (m *MockBetRepository) ListVotes(ctx context.Context, betID int64) ([]*entities.ResolutionVote, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ResolutionVote), args.Error(1)
}

// MockFulfillmentRepository is a mock implementation of FulfillmentRepository
type MockFulfillmentRepository struct {
	mock.Mock
}

func (m *MockFulfillmentRepository) CreateBatch(ctx context.Context, fulfillments []*entities.BetFulfillment) error {
	args := m.Called(ctx, fulfillments)
	return args.Error(0)
}

func (m *MockFulfillmentRepository) GetByBetAndWinner(ctx context.Context, betID, winnerID int64) (*entities.BetFulfillment, error) {
	args := m.Called(ctx, betID, winnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BetFulfillment), args.Error(1)
}

func (m *MockFulfillmentRepository) Update(ctx context.Context, fulfillment *entities.BetFulfillment) error {
	args := m.Called(ctx, fulfillment)
	return args.Error(0)
}

func (m *MockFulfillmentRepository) ListByBet(ctx context.Context, betID int64) ([]*entities.BetFulfillment, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BetFulfillment), args.Error(1)
}

func (m *MockFulfillmentRepository) CountConfirmed(ctx context.Context, betID int64) (int, error) {
	args := m.Called(ctx, betID)
	return args.Int(0), args.Error(1)
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*entities.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockUnitOfWork is a mock implementation of UnitOfWork backed by the repository mocks
type MockUnitOfWork struct {
	mock.Mock

	UserRepo           *MockUserRepository
	BalanceHistoryRepo *MockBalanceHistoryRepository
	GroupRepo          *MockGroupRepository
	MembershipRepo     *MockMembershipRepository
	MessageRepo        *MockMessageRepository
	BetRepo            *MockBetRepository
	FulfillmentRepo    *MockFulfillmentRepository
	NotificationRepo   *MockNotificationRepository
	Publisher          *MockEventPublisher
}

// NewMockUnitOfWork creates a unit of work whose repositories are all fresh mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		UserRepo:           new(MockUserRepository),
		BalanceHistoryRepo: new(MockBalanceHistoryRepository),
		GroupRepo:          new(MockGroupRepository),
		MembershipRepo:     new(MockMembershipRepository),
		MessageRepo:        new(MockMessageRepository),
		BetRepo:            new(MockBetRepository),
		FulfillmentRepo:    new(MockFulfillmentRepository),
		NotificationRepo:   new(MockNotificationRepository),
		Publisher:          new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() interfaces.UserRepository {
	return m.UserRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return m.BalanceHistoryRepo
}

func (m *MockUnitOfWork) GroupRepository() interfaces.GroupRepository {
	return m.GroupRepo
}

func (m *MockUnitOfWork) MembershipRepository() interfaces.MembershipRepository {
	return m.MembershipRepo
}

func (m *MockUnitOfWork) MessageRepository() interfaces.MessageRepository {
	return m.MessageRepo
}

func (m *MockUnitOfWork) BetRepository() interfaces.BetRepository {
	return m.BetRepo
}

func (m *MockUnitOfWork) FulfillmentRepository() interfaces.FulfillmentRepository {
	return m.FulfillmentRepo
}

func (m *MockUnitOfWork) NotificationRepository() interfaces.NotificationRepository {
	return m.NotificationRepo
}

func (m *MockUnitOfWork) EventBus() interfaces.EventPublisher {
	return m.Publisher
}

// MockUnitOfWorkFactory returns the same mock unit of work for every Create call
type MockUnitOfWorkFactory struct {
	UnitOfWork *MockUnitOfWork
}

func NewMockUnitOfWorkFactory() *MockUnitOfWorkFactory {
	uow := NewMockUnitOfWork()
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)
	return &MockUnitOfWorkFactory{UnitOfWork: uow}
}

func (f *MockUnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.UnitOfWork
}
