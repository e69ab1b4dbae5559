package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kwetu-order-bot/internal/client"
	"kwetu-order-bot/internal/conversation"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationService interface {
	// HandleInbound runs one message through the dialogue and sends the replies.
	HandleInbound(ctx context.Context, in conversation.Inbound) error
	LoadSession(ctx context.Context, phone string) (conversation.Session, error)
	SaveSession(ctx context.Context, phone string, sess conversation.Session) error
}

type conversationServiceImpl struct {
	machine     *conversation.Machine
	sessionRepo repository.SessionRepository
	whatsapp    client.WhatsAppClient
	ttl         time.Duration
	logger      *slog.Logger
}

func NewConversationService(
	machine *conversation.Machine,
	sessionRepo repository.SessionRepository,
	whatsapp client.WhatsAppClient,
	ttl time.Duration,
	logger *slog.Logger,
) ConversationService {
	return &conversationServiceImpl{
		machine:     machine,
		sessionRepo: sessionRepo,
		whatsapp:    whatsapp,
		ttl:         ttl,
		logger:      logger,
	}
}

func sessionKey(phone string) string {
	return "session:" + phone
}

func (s *conversationServiceImpl) HandleInbound(ctx context.Context, in conversation.Inbound) error {
	sess, err := s.LoadSession(ctx, in.From)
	if err != nil {
		return err
	}

	replies, next := s.machine.Handle(ctx, sess, in)
	s.logger.DebugContext(ctx, "conversation step", "from", in.From, "state", sess.Awaiting, "next", next.Awaiting, "replies", len(replies))

	// Stored before replying; concurrent messages from one customer are last-write-wins.
	if err := s.SaveSession(ctx, in.From, next); err != nil {
		s.logger.ErrorContext(ctx, "save session", "from", in.From, "err", err)
	}

	var sendErr error
	for _, reply := range replies {
		if err := s.whatsapp.SendReply(ctx, in.From, reply); err != nil {
			s.logger.ErrorContext(ctx, "send whatsapp reply", "from", in.From, "kind", reply.Kind, "err", err)
			sendErr = errors.Join(sendErr, err)
		}
	}
	return sendErr
}

// LoadSession returns the stored session, or an empty one when it is missing, expired or corrupt.
func (s *conversationServiceImpl) LoadSession(ctx context.Context, phone string) (conversation.Session, error) {
	record, err := s.sessionRepo.Get(ctx, sessionKey(phone), time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Session{}, nil
		}
		return conversation.Session{}, fmt.Errorf("load session of %s: %w", phone, err)
	}

	var sess conversation.Session
	if err := json.Unmarshal(record.Value, &sess); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable session", "from", phone, "err", err)
		return conversation.Session{}, nil
	}
	if err := sess.Validate(); err != nil {
		s.logger.WarnContext(ctx, "discarding invalid session", "from", phone, "err", err)
		return conversation.Session{}, nil
	}
	return sess, nil
}

// SaveSession stores sess under the phone's key, dropping the row once the session is empty.
func (s *conversationServiceImpl) SaveSession(ctx context.Context, phone string, sess conversation.Session) error {
	if sess.IsZero() {
		if err := s.sessionRepo.Delete(ctx, sessionKey(phone)); err != nil {
			return fmt.Errorf("delete session of %s: %w", phone, err)
		}
		return nil
	}

	value, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.sessionRepo.Put(ctx, &model.SessionRecord{
		Key:       sessionKey(phone),
		Value:     datatypes.JSON(value),
		ExpiresAt: time.Now().Add(s.ttl),
	})
}
