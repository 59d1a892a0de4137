package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/google/uuid"
)

type MessageService interface {
	// Send delivers a message from the actor, who must be allowed to reach the receiver.
	Send(ctx context.Context, actor domain.Actor, receiverID, content string) (*domain.Message, error)
	// SendAuto records a system-composed message on behalf of senderID, skipping the pairing check.
	SendAuto(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error)
	List(ctx context.Context, actor domain.Actor) ([]domain.Message, error)
	MarkRead(ctx context.Context, actor domain.Actor, ids []string) (int64, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) MessageService {
	return &messageService{messageRepo: messageRepo, userRepo: userRepo}
}

func (s *messageService) Send(ctx context.Context, actor domain.Actor, receiverID, content string) (*domain.Message, error) {
	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Coaches talk to their trainees, trainees to their coach. Admins to anyone.
	if !actor.IsAdmin() {
		allowed := false
		switch {
		case actor.IsCoach():
			allowed = receiver.CoachedBy(actor.ID)
		case actor.IsTrainee():
			sender, err := s.userRepo.GetByID(ctx, actor.ID)
			if err != nil {
				return nil, err
			}
			allowed = sender.CoachedBy(receiverID)
		}
		if !allowed {
			return nil, ErrCannotMessage
		}
	}

	return s.SendAuto(ctx, actor.ID, receiverID, content)
}

func (s *messageService) SendAuto(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	msg := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  domain.NowMillis(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) List(ctx context.Context, actor domain.Actor) ([]domain.Message, error) {
	return s.messageRepo.ListForUser(ctx, actor.ID)
}

func (s *messageService) MarkRead(ctx context.Context, actor domain.Actor, ids []string) (int64, error) {
	return s.messageRepo.MarkRead(ctx, actor.ID, ids)
}
