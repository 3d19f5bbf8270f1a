package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/ds124wfegd/classbooker/internal/database/postgres"
	"github.com/ds124wfegd/classbooker/internal/entity"
)

type sessionService struct {
	sessionRepo repository.SessionRepository

	nowFn func() time.Time
}

// NewSessionService создает новый экземпляр SessionService
func NewSessionService(sessionRepo repository.SessionRepository) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		nowFn:       time.Now,
	}
}

func (s *sessionService) GetSession(ctx context.Context, id int64) (*entity.ClassSession, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

func (s *sessionService) GetUpcomingSessions(ctx context.Context, limit int) ([]*entity.ClassSession, error) {
	if limit <= 0 {
		limit = 50
	}

	sessions, err := s.sessionRepo.GetUpcoming(ctx, s.nowFn(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming sessions: %w", err)
	}
	return sessions, nil
}
