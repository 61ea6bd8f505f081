package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"crmconsole/backend/internal/config"
	"crmconsole/backend/internal/models"
)

// Store is the persistence surface of the service. The conversation engine
// consumes a subset of it (see convo.Store); the HTTP handlers use the rest.
type Store interface {
	AppendMessage(msg *models.Message) error
	ListBySession(sessionID string) ([]models.Message, error)

	GetConversation(sessionID string) (*models.Conversation, error)
	ListConversations() ([]models.Conversation, error)
	UpdateConversation(sessionID string, updates map[string]interface{}) error
	EnsureConversation(sessionID, name string) (*models.Conversation, error)
	TouchCustomerActivity(sessionID string, at time.Time) error

	ListTemplates() ([]models.Template, error)
	GetTemplate(name string) (*models.Template, error)
	SaveTemplate(tpl *models.Template) error

	Subscribe(ctx context.Context, sessionID string) (<-chan models.Event, func(), error)
}

// Service implements Store on PostgreSQL (via GORM) with Redis Pub/Sub as
// the live notification channel.
type Service struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Ctx       context.Context
	templates *cache.Cache
}

// NewService constructs the storage service.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:        db,
		Redis:     rdb,
		Ctx:       context.Background(),
		templates: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Migrate creates or updates the schema for all persisted models.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Message{},
		&models.Conversation{},
		&models.Template{},
	)
}

func channelFor(sessionID string) string {
	return "conv:" + sessionID
}

// AppendMessage persists one row and publishes the matching insert event on
// the conversation's live channel. The row's ID and CreatedAt are assigned
// by the store.
func (s *Service) AppendMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Error().Err(err).Str("sessionID", msg.SessionID).Msg("Failed to append message")
		return err
	}

	ev := models.Event{Type: models.EventInsert, SessionID: msg.SessionID, Message: *msg}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := s.Redis.Publish(s.Ctx, channelFor(msg.SessionID), payload).Err(); err != nil {
		// The row is durable; subscribers recover on their next bulk load.
		log.Error().Err(err).Str("sessionID", msg.SessionID).Uint("id", msg.ID).Msg("Failed to publish insert event")
	}
	return nil
}

// ListBySession returns the full history of a conversation ordered by
// ascending ID, the only valid chronological ordering.
func (s *Service) ListBySession(sessionID string) ([]models.Message, error) {
	var rows []models.Message
	err := s.DB.Where("session_id = ?", sessionID).Order("id asc").Find(&rows).Error
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("Failed to load history")
		return nil, err
	}
	return rows, nil
}

// GetConversation returns the conversation row, or nil when the customer
// has never written.
func (s *Service) GetConversation(sessionID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.Where("session_id = ?", sessionID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns all conversations, most recent activity first.
func (s *Service) ListConversations() ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.DB.Order("last_customer_message_at desc nulls last").Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// UpdateConversation applies a partial update to a conversation row.
func (s *Service) UpdateConversation(sessionID string, updates map[string]interface{}) error {
	return s.DB.Model(&models.Conversation{}).
		Where("session_id = ?", sessionID).
		Updates(updates).Error
}

// EnsureConversation creates the conversation row on the first inbound
// customer message; existing rows are returned unchanged.
func (s *Service) EnsureConversation(sessionID, name string) (*models.Conversation, error) {
	conv := models.Conversation{SessionID: sessionID, Name: name}
	result := s.DB.Where("session_id = ?", sessionID).FirstOrCreate(&conv)
	if result.Error != nil {
		log.Error().Err(result.Error).Str("sessionID", sessionID).Msg("Failed to ensure conversation")
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		log.Info().Str("sessionID", sessionID).Msg("New conversation created")
	}
	return &conv, nil
}

// TouchCustomerActivity bumps lastCustomerMessageAt and clears the pause
// flag: the customer wrote, so the automation may speak again.
func (s *Service) TouchCustomerActivity(sessionID string, at time.Time) error {
	return s.DB.Model(&models.Conversation{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"last_customer_message_at": at,
			"is_paused":                false,
		}).Error
}

// Subscribe attaches to the conversation's live channel and decodes insert
// events until the context is cancelled or the subscription is closed.
func (s *Service) Subscribe(ctx context.Context, sessionID string) (<-chan models.Event, func(), error) {
	pubsub := s.Redis.Subscribe(ctx, channelFor(sessionID))
	// Force the subscription handshake so callers never miss events that
	// are published right after Subscribe returns.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", channelFor(sessionID), err)
	}

	out := make(chan models.Event, config.LiveEventBuffer)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var ev models.Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					log.Error().Err(err).Str("channel", m.Channel).Msg("Failed to decode live event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cancel := func() { pubsub.Close() }
	return out, cancel, nil
}
