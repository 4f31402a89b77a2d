package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"shipslot/internal/domain"
)

type notificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

type eventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Service fans a notification out to its channels: the persisted row is the
// durable copy, the mq event reaches the delivery workers, the ws push
// reaches a live session. Callers treat the whole thing as fire-and-forget.
type Service struct {
	repo    notificationRepo
	pub     eventPublisher
	hub     *Hub
	loggerf func(format string, args ...interface{})
}

func NewService(repo notificationRepo, pub eventPublisher, hub *Hub, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{repo: repo, pub: pub, hub: hub, loggerf: loggerf}
}

type event struct {
	EventID string         `json:"event_id"`
	UserID  int64          `json:"user_id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Body    string         `json:"body,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Notify persists and dispatches one notification. Channel failures are
// logged and never propagated: a notification must not block or reverse the
// transition that triggered it.
func (s *Service) Notify(ctx context.Context, target int64, typ domain.NotificationType, title, body string, meta map[string]any) error {
	data, _ := json.Marshal(meta)
	n := &domain.Notification{
		UserID: target,
		Type:   typ,
		Title:  title,
		Body:   body,
		Data:   data,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.loggerf("level=error msg=notification persist failed user_id=%d type=%s err=%v", target, typ, err)
	}

	if s.pub != nil {
		ev := event{
			EventID: uuid.NewString(),
			UserID:  target,
			Type:    string(typ),
			Title:   title,
			Body:    body,
			Meta:    meta,
		}
		if err := s.pub.PublishJSON(ctx, "notify."+string(typ), ev); err != nil {
			s.loggerf("level=error msg=notification publish failed user_id=%d type=%s err=%v", target, typ, err)
		}
	}

	if s.hub != nil {
		s.hub.Push(target, &WSEvent{
			Type:    string(typ),
			Title:   title,
			Body:    body,
			Payload: meta,
		})
	}
	return nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}
