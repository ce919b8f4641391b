// Package subscription содержит бизнес-логику жизненного цикла подписок:
// выдачу пробного периода, активацию тарифа, административную смену
// статуса, истечение и каскадное удаление пользователя.
//
// Каждый переход целиком заменяет текущую запись подписки пользователя,
// пересчитывая окно действия с нуля: даты никогда не переносятся из
// предыдущей записи. Перед фиксацией запись проходит проверку
// целостности и отклоняется при нарушении инвариантов.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forexhub/signals-platform/internal/access"
	"github.com/forexhub/signals-platform/internal/cache"
	"github.com/forexhub/signals-platform/internal/events"
	"github.com/forexhub/signals-platform/internal/lib/clock"
	"github.com/forexhub/signals-platform/internal/lib/sl"
	"github.com/forexhub/signals-platform/internal/models"
)

// cacheTTL — срок жизни записи подписки в кеше. Запись дополнительно
// инвалидируется синхронно при каждом переходе того же пользователя.
const cacheTTL = time.Hour

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// GetCurrentSubscription возвращает текущую запись подписки пользователя.
	GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	// ReplaceSubscription целиком заменяет запись пользователя новой.
	ReplaceSubscription(ctx context.Context, sub models.Subscription) (int, error)
	// RemoveSubscription удаляет запись подписки пользователя.
	RemoveSubscription(ctx context.Context, userUID string) (int, error)
}

// PlanRepository определяет чтение каталога тарифных планов.
type PlanRepository interface {
	GetPlan(ctx context.Context, planID int) (*models.Plan, error)
	GetPlanByName(ctx context.Context, name string) (*models.Plan, error)
}

// UserRepository определяет методы для работы с пользователями.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	RemoveUser(ctx context.Context, userUID string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует переходы состояний и чтение статуса подписки.
type Service struct {
	subs      SubscriptionRepository
	plans     PlanRepository
	users     UserRepository
	cache     Cache
	publisher events.Publisher
	clk       clock.Clock
	log       *slog.Logger

	trialDays     int
	defaultPlanID int
}

// New создает новый Service.
func New(subs SubscriptionRepository, plans PlanRepository, users UserRepository,
	c Cache, publisher events.Publisher, clk clock.Clock, log *slog.Logger,
	trialDays, defaultPlanID int) *Service {
	return &Service{
		subs:          subs,
		plans:         plans,
		users:         users,
		cache:         c,
		publisher:     publisher,
		clk:           clk,
		log:           log,
		trialDays:     trialDays,
		defaultPlanID: defaultPlanID,
	}
}

// ===== ЧТЕНИЕ =====

// CheckAccess возвращает решение о доступе для пользователя.
// Для администратора запись подписки не читается вовсе.
func (s *Service) CheckAccess(ctx context.Context, userUID string, isAdmin bool) (models.AccessDecision, error) {
	if isAdmin {
		decision := access.Evaluate(nil, true, s.clk.Now())
		access.Observe(decision)
		return decision, nil
	}
	sub, err := s.currentSubscription(ctx, userUID)
	if err != nil {
		return models.AccessDecision{}, err
	}
	decision := access.Evaluate(sub, false, s.clk.Now())
	access.Observe(decision)
	return decision, nil
}

// GetStatus возвращает решение о доступе вместе с проекцией статуса
// для отображения. Бейдж пользователя и административный список
// используют именно этот метод, чтобы показывать одно и то же.
func (s *Service) GetStatus(ctx context.Context, userUID string, isAdmin bool) (models.AccessDecision, models.StatusProjection, error) {
	now := s.clk.Now()

	var sub *models.Subscription
	var err error
	if !isAdmin {
		sub, err = s.currentSubscription(ctx, userUID)
		if err != nil {
			return models.AccessDecision{}, models.StatusProjection{}, err
		}
	}

	decision := access.Evaluate(sub, isAdmin, now)
	access.Observe(decision)

	planName := ""
	if sub != nil && sub.PlanID != nil {
		plan, perr := s.plans.GetPlan(ctx, *sub.PlanID)
		if perr != nil {
			s.log.Warn("failed to resolve plan name", sl.UID(userUID), sl.Err(perr))
		} else {
			planName = plan.Name
		}
	}

	return decision, access.Project(decision, sub, planName, now), nil
}

// ProjectFor строит проекцию статуса для уже загруженного пользователя.
// Используется административным списком, где записи читаются пачкой.
func (s *Service) ProjectFor(ctx context.Context, user *models.User) (models.StatusProjection, error) {
	_, projection, err := s.GetStatus(ctx, user.UID, user.IsAdmin())
	return projection, err
}

// currentSubscription читает текущую запись через кеш.
// Отсутствие записи не является ошибкой и возвращает nil.
func (s *Service) currentSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	cacheKey := cache.SubscriptionKey(userUID)

	var cached models.Subscription
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("cache read failed", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	sub, err := s.subs.GetCurrentSubscription(ctx, userUID)
	if err != nil {
		if errors.Is(err, models.ErrSubscriptionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err = s.cache.Set(cacheKey, sub, cacheTTL); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), sl.Err(err))
	}
	return sub, nil
}

// ===== ПЕРЕХОДЫ =====

// CreateTrial выдаёт пользователю пробный период на durationDays дней
// и возвращает новую запись подписки.
func (s *Service) CreateTrial(ctx context.Context, userUID string, durationDays, defaultPlanID int) (*models.Subscription, error) {
	const op = "subscription.CreateTrial"

	if durationDays <= 0 {
		return nil, fmt.Errorf("%s: %d days: %w", op, durationDays, models.ErrInvalidDuration)
	}

	now := s.clk.Now()
	planID := defaultPlanID
	sub := models.Subscription{
		UserUID:   userUID,
		PlanID:    &planID,
		Status:    models.StatusTrial,
		StartDate: now,
		EndDate:   now.Add(time.Duration(durationDays) * 24 * time.Hour),
	}

	if err := s.commit(ctx, &sub, durationDays); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("trial created", sl.UID(userUID), slog.Int("days", durationDays))
	s.publish(events.TrialCreated, sub)
	return &sub, nil
}

// SetActive активирует подписку пользователя по тарифному плану.
func (s *Service) SetActive(ctx context.Context, userUID string, planID int) (*models.Subscription, error) {
	const op = "subscription.SetActive"

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := s.activate(ctx, userUID, plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// SetActiveByPlanName активирует подписку, находя тариф по имени.
func (s *Service) SetActiveByPlanName(ctx context.Context, userUID, planName string) (*models.Subscription, error) {
	const op = "subscription.SetActiveByPlanName"

	plan, err := s.plans.GetPlanByName(ctx, planName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := s.activate(ctx, userUID, plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func (s *Service) activate(ctx context.Context, userUID string, plan *models.Plan) (*models.Subscription, error) {
	now := s.clk.Now()
	planID := plan.ID
	sub := models.Subscription{
		UserUID:   userUID,
		PlanID:    &planID,
		Status:    models.StatusActive,
		StartDate: now,
		EndDate:   now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
	}

	if err := s.commit(ctx, &sub, plan.DurationDays); err != nil {
		return nil, err
	}

	s.log.Info("subscription activated", sl.UID(userUID),
		slog.String("plan", plan.Name), slog.Int("days", plan.DurationDays))
	s.publish(events.Activated, sub)
	return &sub, nil
}

// ChangeStatus — административная операция смены статуса подписки.
// Окно действия всегда пересчитывается с нуля по правилам целевого
// статуса; дата окончания предыдущей записи никогда не переносится.
func (s *Service) ChangeStatus(ctx context.Context, userUID string, newStatus models.Status, planID *int) (*models.Subscription, error) {
	const op = "subscription.ChangeStatus"

	if _, err := s.users.GetUser(ctx, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current, err := s.currentSubscription(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch newStatus {
	case models.StatusActive:
		pid := planID
		if pid == nil && current != nil {
			pid = current.PlanID
		}
		if pid == nil {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPlanRequired)
		}
		sub, err := s.SetActive(ctx, userUID, *pid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return sub, nil

	case models.StatusTrial:
		pid := s.defaultPlanID
		if planID != nil {
			pid = *planID
		} else if current != nil && current.PlanID != nil {
			pid = *current.PlanID
		}
		sub, err := s.CreateTrial(ctx, userUID, s.trialDays, pid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return sub, nil

	case models.StatusExpired, models.StatusInactive:
		sub, err := s.revoke(ctx, userUID, newStatus, current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.publish(events.StatusChanged, *sub)
		return sub, nil
	}

	return nil, fmt.Errorf("%s: unknown status %q", op, newStatus)
}

// Expire переводит подписку пользователя в терминальное состояние expired.
// Операция идемпотентна: повторный вызов оставляет то же состояние.
func (s *Service) Expire(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "subscription.Expire"

	current, err := s.currentSubscription(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := s.revoke(ctx, userUID, models.StatusExpired, current)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(events.Expired, *sub)
	return sub, nil
}

// revoke строит запись с заведомо прошедшим окном: end_date = now,
// start_date на сутки раньше. Evaluate отклонит доступ по дате
// независимо от статуса.
func (s *Service) revoke(ctx context.Context, userUID string, status models.Status, current *models.Subscription) (*models.Subscription, error) {
	now := s.clk.Now()
	sub := models.Subscription{
		UserUID:   userUID,
		Status:    status,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now,
	}
	if current != nil {
		sub.PlanID = current.PlanID
	}

	if err := s.commit(ctx, &sub, 1); err != nil {
		return nil, err
	}

	s.log.Info("subscription revoked", sl.UID(userUID), slog.String("status", string(status)))
	return &sub, nil
}

// DeleteUser каскадно удаляет пользователя: сначала запись подписки,
// затем сам пользователь, чтобы не оставить висячих внешних ключей.
func (s *Service) DeleteUser(ctx context.Context, userUID string) error {
	const op = "subscription.DeleteUser"

	if _, err := s.users.GetUser(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.subs.RemoveSubscription(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(userUID)

	if _, err := s.users.RemoveUser(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted", sl.UID(userUID))
	s.publish(events.UserDeleted, models.Subscription{UserUID: userUID})
	return nil
}

// commit проверяет целостность записи, фиксирует её в хранилище
// и синхронно инвалидирует кеш пользователя.
func (s *Service) commit(ctx context.Context, sub *models.Subscription, intendedDays int) error {
	if err := checkConsistency(*sub, intendedDays); err != nil {
		return err
	}

	id, err := s.subs.ReplaceSubscription(ctx, *sub)
	if err != nil {
		return err
	}
	sub.ID = id

	s.invalidate(sub.UserUID)
	return nil
}

func (s *Service) invalidate(userUID string) {
	key := cache.SubscriptionKey(userUID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) publish(routingKey string, sub models.Subscription) {
	event := events.SubscriptionEvent{
		UserUID:   sub.UserUID,
		Status:    string(sub.Status),
		PlanID:    sub.PlanID,
		EndDate:   sub.EndDate,
		OccuredAt: s.clk.Now(),
	}
	if err := s.publisher.Publish(routingKey, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}
