package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"docuquery/internal/answer"
	"docuquery/internal/cache"
	"docuquery/internal/model"
	"docuquery/internal/repository"
)

var ErrQueryEmpty = errors.New("query is empty")

type QueryService struct {
	answerer    *answer.Answerer
	queryRepo   *repository.UserQueryRepository
	answerCache *cache.AnswerCache
}

func NewQueryService(answerer *answer.Answerer, queryRepo *repository.UserQueryRepository, answerCache *cache.AnswerCache) *QueryService {
	return &QueryService{
		answerer:    answerer,
		queryRepo:   queryRepo,
		answerCache: answerCache,
	}
}

// Ask answers a tenant-scoped question. Repeated questions within the cache
// TTL are served from redis without touching the index or the model.
func (s *QueryService) Ask(ctx context.Context, userID, companyID uint, query string) (string, error) {
	if userID == 0 || companyID == 0 {
		return "", ErrInvalidInput
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrQueryEmpty
	}

	if s.answerCache != nil {
		cached, hit, err := s.answerCache.Get(ctx, companyID, query)
		if err != nil {
			log.Printf("answer cache get failed: %v", err)
		} else if hit {
			return cached, nil
		}
	}

	text, err := s.answerer.Answer(ctx, companyID, query)
	if err != nil {
		return "", err
	}

	s.record(userID, companyID, query, text)
	if s.answerCache != nil {
		if err := s.answerCache.Set(ctx, companyID, query, text); err != nil {
			log.Printf("answer cache set failed: %v", err)
		}
	}
	return text, nil
}

// AskStream starts a streaming answer. The caller drains the stream and then
// calls FinishStream with the accumulated text so the query gets logged.
// Streamed answers bypass the cache; only completed ones are recorded.
func (s *QueryService) AskStream(ctx context.Context, userID, companyID uint, query string) (*answer.Stream, error) {
	if userID == 0 || companyID == 0 {
		return nil, ErrInvalidInput
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryEmpty
	}
	return s.answerer.AnswerStream(ctx, companyID, query), nil
}

// FinishStream records a fully delivered streamed answer.
func (s *QueryService) FinishStream(ctx context.Context, userID, companyID uint, query, full string) {
	if full == "" {
		return
	}
	s.record(userID, companyID, query, full)
	if s.answerCache != nil {
		if err := s.answerCache.Set(ctx, companyID, query, full); err != nil {
			log.Printf("answer cache set failed: %v", err)
		}
	}
}

// History returns the user's recent queries.
func (s *QueryService) History(userID uint, limit int) ([]model.UserQuery, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.queryRepo.ListByUserID(userID, limit)
}

func (s *QueryService) record(userID, companyID uint, query, response string) {
	q := &model.UserQuery{
		UserID:       userID,
		CompanyID:    companyID,
		QueryText:    query,
		ResponseText: response,
	}
	if err := s.queryRepo.Create(q); err != nil {
		log.Printf("record user query failed: %v", err)
	}
}
