package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/forexhub/signals-platform/internal/events"
	"github.com/forexhub/signals-platform/internal/lib/clock"
	"github.com/forexhub/signals-platform/internal/models"
)

type SubsRepoMock struct{ mock.Mock }

func (m *SubsRepoMock) GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *SubsRepoMock) ReplaceSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}
func (m *SubsRepoMock) RemoveSubscription(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

type PlansRepoMock struct{ mock.Mock }

func (m *PlansRepoMock) GetPlan(ctx context.Context, planID int) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}
func (m *PlansRepoMock) GetPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type UsersRepoMock struct{ mock.Mock }

func (m *UsersRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersRepoMock) RemoveUser(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, event events.SubscriptionEvent) error {
	return m.Called(routingKey, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const (
	testUID       = "2f0c9f3a-6d1e-4b0e-9a78-0a1b2c3d4e5f"
	trialDays     = 7
	defaultPlanID = 1
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	subs      *SubsRepoMock
	plans     *PlansRepoMock
	users     *UsersRepoMock
	cache     *CacheMock
	publisher *PublisherMock
	clk       *clock.Fixed
	service   *Service
}

func newFixture() *fixture {
	f := &fixture{
		subs:      new(SubsRepoMock),
		plans:     new(PlansRepoMock),
		users:     new(UsersRepoMock),
		cache:     new(CacheMock),
		publisher: new(PublisherMock),
		clk:       clock.NewFixed(baseTime),
	}
	f.service = New(f.subs, f.plans, f.users, f.cache, f.publisher, f.clk, newNoopLogger(),
		trialDays, defaultPlanID)
	return f
}

func TestCreateTrial(t *testing.T) {
	f := newFixture()

	f.subs.On("ReplaceSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.UserUID == testUID &&
			sub.Status == models.StatusTrial &&
			sub.StartDate.Equal(baseTime) &&
			sub.EndDate.Equal(baseTime.Add(7*24*time.Hour)) &&
			sub.PlanID != nil && *sub.PlanID == defaultPlanID
	})).Return(10, nil).Once()
	f.cache.On("Invalidate", "subscription:"+testUID).Return(nil).Once()
	f.publisher.On("Publish", events.TrialCreated, mock.Anything).Return(nil).Once()

	sub, err := f.service.CreateTrial(context.Background(), testUID, trialDays, defaultPlanID)
	require.NoError(t, err)
	assert.Equal(t, 10, sub.ID)
	assert.True(t, sub.EndDate.After(sub.StartDate))

	f.subs.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCreateTrial_InvalidDuration(t *testing.T) {
	f := newFixture()

	for _, days := range []int{0, -3} {
		_, err := f.service.CreateTrial(context.Background(), testUID, days, defaultPlanID)
		assert.ErrorIs(t, err, models.ErrInvalidDuration)
	}
	f.subs.AssertNotCalled(t, "ReplaceSubscription", mock.Anything, mock.Anything)
}

func TestCreateTrial_ImmediateAccess(t *testing.T) {
	f := newFixture()

	f.subs.On("ReplaceSubscription", mock.Anything, mock.Anything).Return(1, nil).Once()
	f.cache.On("Invalidate", mock.Anything).Return(nil).Once()
	f.publisher.On("Publish", events.TrialCreated, mock.Anything).Return(nil).Once()

	sub, err := f.service.CreateTrial(context.Background(), testUID, 7, defaultPlanID)
	require.NoError(t, err)

	f.cache.On("Get", "subscription:"+testUID, mock.Anything).Return(false, nil).Once()
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).Return(sub, nil).Once()
	f.cache.On("Set", "subscription:"+testUID, sub, time.Hour).Return(nil).Once()

	decision, err := f.service.CheckAccess(context.Background(), testUID, false)
	require.NoError(t, err)
	assert.True(t, decision.HasAccess)
	assert.Equal(t, models.ReasonActiveTrial, decision.Reason)
}

func TestSetActive(t *testing.T) {
	f := newFixture()
	plan := &models.Plan{ID: 2, Name: "Pro", Price: 7900, DurationDays: 14}

	f.plans.On("GetPlan", mock.Anything, 2).Return(plan, nil).Once()
	f.subs.On("ReplaceSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.Status == models.StatusActive &&
			sub.StartDate.Equal(baseTime) &&
			sub.EndDate.Equal(baseTime.Add(14*24*time.Hour))
	})).Return(11, nil).Once()
	f.cache.On("Invalidate", mock.Anything).Return(nil).Once()
	f.publisher.On("Publish", events.Activated, mock.Anything).Return(nil).Once()

	sub, err := f.service.SetActive(context.Background(), testUID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, sub.Status)

	f.plans.AssertExpectations(t)
	f.subs.AssertExpectations(t)
}

func TestSetActive_PlanNotFound(t *testing.T) {
	f := newFixture()

	f.plans.On("GetPlan", mock.Anything, 99).Return(nil, models.ErrPlanNotFound).Once()

	_, err := f.service.SetActive(context.Background(), testUID, 99)
	assert.ErrorIs(t, err, models.ErrPlanNotFound)
	f.subs.AssertNotCalled(t, "ReplaceSubscription", mock.Anything, mock.Anything)
}

func TestSetActiveByPlanName(t *testing.T) {
	f := newFixture()
	plan := &models.Plan{ID: 3, Name: "Annual", Price: 24900, DurationDays: 365}

	f.plans.On("GetPlanByName", mock.Anything, "Annual").Return(plan, nil).Once()
	f.subs.On("ReplaceSubscription", mock.Anything, mock.Anything).Return(12, nil).Once()
	f.cache.On("Invalidate", mock.Anything).Return(nil).Once()
	f.publisher.On("Publish", events.Activated, mock.Anything).Return(nil).Once()

	sub, err := f.service.SetActiveByPlanName(context.Background(), testUID, "Annual")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.Equal(t, 3, *sub.PlanID)
}

func TestSetActiveByPlanName_PlanNotFound(t *testing.T) {
	f := newFixture()

	f.plans.On("GetPlanByName", mock.Anything, "Unknown").Return(nil, models.ErrPlanNotFound).Once()

	_, err := f.service.SetActiveByPlanName(context.Background(), testUID, "Unknown")
	assert.ErrorIs(t, err, models.ErrPlanNotFound)
}

// Регрессионный тест главного дефекта: смена статуса на trial у
// пользователя с прежней active-записью обязана выдать новую EndDate
// по длительности пробного периода, а не перенести дату старой записи.
func TestChangeStatus_TrialRecomputesEndDate(t *testing.T) {
	f := newFixture()

	oldEnd := baseTime.AddDate(0, 6, 0)
	planID := 2
	current := &models.Subscription{
		UserUID:   testUID,
		PlanID:    &planID,
		Status:    models.StatusActive,
		StartDate: baseTime.AddDate(0, -1, 0),
		EndDate:   oldEnd,
	}

	f.users.On("GetUser", mock.Anything, testUID).Return(&models.User{UID: testUID}, nil).Once()
	f.cache.On("Get", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).Return(current, nil).Once()
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.subs.On("ReplaceSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.Status == models.StatusTrial &&
			sub.StartDate.Equal(baseTime) &&
			sub.EndDate.Equal(baseTime.Add(trialDays*24*time.Hour)) &&
			!sub.EndDate.Equal(oldEnd)
	})).Return(20, nil).Once()
	f.cache.On("Invalidate", mock.Anything).Return(nil).Once()
	f.publisher.On("Publish", events.TrialCreated, mock.Anything).Return(nil).Once()

	sub, err := f.service.ChangeStatus(context.Background(), testUID, models.StatusTrial, nil)
	require.NoError(t, err)
	assert.NotEqual(t, oldEnd, sub.EndDate)
	assert.Equal(t, baseTime.Add(trialDays*24*time.Hour), sub.EndDate)

	f.subs.AssertExpectations(t)
}

func TestChangeStatus_ActiveWithoutPlanAnywhere(t *testing.T) {
	f := newFixture()

	f.users.On("GetUser", mock.Anything, testUID).Return(&models.User{UID: testUID}, nil).Once()
	f.cache.On("Get", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).
		Return(nil, models.ErrSubscriptionNotFound).Once()

	_, err := f.service.ChangeStatus(context.Background(), testUID, models.StatusActive, nil)
	assert.ErrorIs(t, err, models.ErrPlanRequired)
	f.subs.AssertNotCalled(t, "ReplaceSubscription", mock.Anything, mock.Anything)
}

func TestChangeStatus_ActiveInheritsCurrentPlan(t *testing.T) {
	f := newFixture()

	planID := 2
	current := &models.Subscription{
		UserUID:   testUID,
		PlanID:    &planID,
		Status:    models.StatusExpired,
		StartDate: baseTime.AddDate(0, -2, 0),
		EndDate:   baseTime.AddDate(0, -1, 0),
	}
	plan := &models.Plan{ID: 2, Name: "Pro", Price: 7900, DurationDays: 90}

	f.users.On("GetUser", mock.Anything, testUID).Return(&models.User{UID: testUID}, nil).Once()
	f.cache.On("Get", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).Return(current, nil).Once()
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.plans.On("GetPlan", mock.Anything, 2).Return(plan, nil).Once()
	f.subs.On("ReplaceSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.Status == models.StatusActive &&
			sub.EndDate.Equal(baseTime.Add(90*24*time.Hour))
	})).Return(21, nil).Once()
	f.cache.On("Invalidate", mock.Anything).Return(nil).Once()
	f.publisher.On("Publish", events.Activated, mock.Anything).Return(nil).Once()

	sub, err := f.service.ChangeStatus(context.Background(), testUID, models.StatusActive, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, sub.Status)
}

func TestChangeStatus_UserNotFound(t *testing.T) {
	f := newFixture()

	f.users.On("GetUser", mock.Anything, testUID).Return(nil, models.ErrUserNotFound).Once()

	_, err := f.service.ChangeStatus(context.Background(), testUID, models.StatusExpired, nil)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestExpire_Idempotent(t *testing.T) {
	f := newFixture()

	f.cache.On("Get", mock.Anything, mock.Anything).Return(false, nil)
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).
		Return(nil, models.ErrSubscriptionNotFound)
	f.subs.On("ReplaceSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.Status == models.StatusExpired && sub.EndDate.Equal(f.clk.Now())
	})).Return(30, nil)
	f.cache.On("Invalidate", mock.Anything).Return(nil)
	f.publisher.On("Publish", events.Expired, mock.Anything).Return(nil)

	first, err := f.service.Expire(context.Background(), testUID)
	require.NoError(t, err)
	second, err := f.service.Expire(context.Background(), testUID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusExpired, first.Status)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.EndDate, second.EndDate)

	// терминальное состояние: доступа нет
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).Return(second, nil)
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.clk.Advance(time.Second)
	decision, err := f.service.CheckAccess(context.Background(), testUID, false)
	require.NoError(t, err)
	assert.False(t, decision.HasAccess)
}

func TestDeleteUser_CascadeOrder(t *testing.T) {
	f := newFixture()

	var order []string
	f.users.On("GetUser", mock.Anything, testUID).Return(&models.User{UID: testUID}, nil).Once()
	f.subs.On("RemoveSubscription", mock.Anything, testUID).Run(func(mock.Arguments) {
		order = append(order, "subscription")
	}).Return(1, nil).Once()
	f.cache.On("Invalidate", mock.Anything).Return(nil).Once()
	f.users.On("RemoveUser", mock.Anything, testUID).Run(func(mock.Arguments) {
		order = append(order, "user")
	}).Return(1, nil).Once()
	f.publisher.On("Publish", events.UserDeleted, mock.Anything).Return(nil).Once()

	err := f.service.DeleteUser(context.Background(), testUID)
	require.NoError(t, err)
	assert.Equal(t, []string{"subscription", "user"}, order)
}

func TestDeleteUser_UserNotFound(t *testing.T) {
	f := newFixture()

	f.users.On("GetUser", mock.Anything, testUID).Return(nil, models.ErrUserNotFound).Once()

	err := f.service.DeleteUser(context.Background(), testUID)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	f.subs.AssertNotCalled(t, "RemoveSubscription", mock.Anything, mock.Anything)
}

func TestCheckAccess_AdminSkipsLookup(t *testing.T) {
	f := newFixture()

	decision, err := f.service.CheckAccess(context.Background(), testUID, true)
	require.NoError(t, err)
	assert.True(t, decision.HasAccess)
	assert.Equal(t, models.ReasonAdmin, decision.Reason)
	f.subs.AssertNotCalled(t, "GetCurrentSubscription", mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCheckAccess_StorageError(t *testing.T) {
	f := newFixture()

	f.cache.On("Get", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).
		Return(nil, errors.New("connection refused")).Once()

	_, err := f.service.CheckAccess(context.Background(), testUID, false)
	assert.Error(t, err)
}

func TestGetStatus_ResolvesPlanName(t *testing.T) {
	f := newFixture()

	planID := 2
	sub := &models.Subscription{
		UserUID:   testUID,
		PlanID:    &planID,
		Status:    models.StatusActive,
		StartDate: baseTime.AddDate(0, 0, -1),
		EndDate:   baseTime.AddDate(0, 0, 13),
	}
	f.cache.On("Get", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).Return(sub, nil).Once()
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.plans.On("GetPlan", mock.Anything, 2).Return(&models.Plan{ID: 2, Name: "Pro"}, nil).Once()

	decision, projection, err := f.service.GetStatus(context.Background(), testUID, false)
	require.NoError(t, err)
	assert.True(t, decision.HasAccess)
	assert.Equal(t, "Pro", projection.PlanName)
	assert.Equal(t, "Active", projection.StatusDisplay)
	assert.Equal(t, 13, projection.DaysLeft)
}

// Сквозной сценарий: регистрация с пробным периодом, истечение,
// административная активация нового тарифа.
func TestLifecycle_TrialExpireActivate(t *testing.T) {
	f := newFixture()

	// выдача пробного периода на 7 дней
	f.subs.On("ReplaceSubscription", mock.Anything, mock.Anything).Return(1, nil)
	f.cache.On("Invalidate", mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	trial, err := f.service.CreateTrial(context.Background(), testUID, 7, defaultPlanID)
	require.NoError(t, err)

	// t=0: доступ есть
	f.cache.On("Get", mock.Anything, mock.Anything).Return(false, nil)
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).Return(trial, nil).Times(2)
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	decision, err := f.service.CheckAccess(context.Background(), testUID, false)
	require.NoError(t, err)
	assert.True(t, decision.HasAccess)

	// t=8 дней: пробный период истёк
	f.clk.Advance(8 * 24 * time.Hour)
	decision, err = f.service.CheckAccess(context.Background(), testUID, false)
	require.NoError(t, err)
	assert.False(t, decision.HasAccess)
	assert.Equal(t, models.ReasonExpired, decision.Reason)

	// административная активация тарифа на 30 дней
	plan := &models.Plan{ID: 2, Name: "Basic", Price: 2900, DurationDays: 30}
	f.users.On("GetUser", mock.Anything, testUID).Return(&models.User{UID: testUID}, nil)
	f.plans.On("GetPlan", mock.Anything, 2).Return(plan, nil)
	f.subs.ExpectedCalls = nil
	activationTime := f.clk.Now()
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).Return(trial, nil).Once()
	f.subs.On("ReplaceSubscription", mock.Anything, mock.Anything).Return(2, nil)

	planID := 2
	active, err := f.service.ChangeStatus(context.Background(), testUID, models.StatusActive, &planID)
	require.NoError(t, err)
	assert.Equal(t, activationTime.Add(30*24*time.Hour), active.EndDate)

	// t=8 дней + 1 секунда: доступ снова есть, осталось 30 дней
	f.clk.Advance(time.Second)
	f.subs.On("GetCurrentSubscription", mock.Anything, testUID).Return(active, nil)
	decision, projection, err := f.service.GetStatus(context.Background(), testUID, false)
	require.NoError(t, err)
	assert.True(t, decision.HasAccess)
	assert.Equal(t, models.ReasonActiveSubscription, decision.Reason)
	assert.Equal(t, 30, projection.DaysLeft)
}
