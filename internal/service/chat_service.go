package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rag-chatbot-be/internal/dto"
	"rag-chatbot-be/internal/entity"
	"rag-chatbot-be/internal/pkg/logger"
	"rag-chatbot-be/internal/repository/specification"
	"rag-chatbot-be/internal/repository/unitofwork"
	"rag-chatbot-be/pkg/embedding"
	"rag-chatbot-be/pkg/llm"
	"rag-chatbot-be/pkg/rag"
	"rag-chatbot-be/pkg/rag/prompt"
	"rag-chatbot-be/pkg/vectorstore"

	"github.com/google/uuid"
)

const sessionTitleMaxLen = 80

type ChatOptions struct {
	HistoryLimit     int
	MaxContextLength int
	Temperature      float64
	MaxTokens        int
}

type IChatService interface {
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatHistoryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	StreamChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest, onToken llm.TokenHandler) (*dto.SendChatResponse, error)
	RateMessage(ctx context.Context, userId uuid.UUID, req *dto.RateMessageRequest) error
	Export(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, format string) (content string, contentType string, err error)
}

type chatService struct {
	uowFactory  unitofwork.RepositoryFactory
	retriever   *rag.Retriever
	llmProvider llm.LLMProvider
	logger      logger.ILogger
	opts        ChatOptions
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	retriever *rag.Retriever,
	llmProvider llm.LLMProvider,
	log logger.ILogger,
	opts ChatOptions,
) IChatService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	return &chatService{
		uowFactory:  uowFactory,
		retriever:   retriever,
		llmProvider: llmProvider,
		logger:      log,
		opts:        opts,
	}
}

func (s *chatService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.SessionResponse, len(sessions))
	for i, session := range sessions {
		response[i] = &dto.SessionResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		}
	}
	return response, nil
}

func (s *chatService) GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.ChatHistoryResponse, len(messages))
	for i, msg := range messages {
		response[i] = &dto.ChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Rating:    msg.Rating,
			CreatedAt: msg.CreatedAt,
		}
	}
	return response, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, session.Id); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *chatService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	return s.send(ctx, userId, req, nil)
}

func (s *chatService) StreamChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest, onToken llm.TokenHandler) (*dto.SendChatResponse, error) {
	return s.send(ctx, userId, req, onToken)
}

func (s *chatService) send(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest, onToken llm.TokenHandler) (*dto.SendChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.resolveSession(ctx, uow, userId, req)
	if err != nil {
		return nil, err
	}

	// 1. Retrieve context for the query.
	results, err := s.retriever.Retrieve(ctx, req.Message)
	if err != nil {
		return nil, mapRetrievalError(err)
	}

	// 2. Load recent history before persisting the new user message.
	history, err := s.loadHistory(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	// 3. Build the prompt.
	builder := prompt.NewContextBuilder(results, s.opts.MaxContextLength)
	systemPrompt := builder.Build()

	llmMessages := make([]llm.Message, 0, len(history)+2)
	llmMessages = append(llmMessages, llm.Message{Role: "system", Content: systemPrompt})
	llmMessages = append(llmMessages, history...)
	llmMessages = append(llmMessages, llm.Message{Role: entity.RoleUser, Content: req.Message})

	llmOpts := []llm.Option{
		llm.WithTemperature(s.opts.Temperature),
		llm.WithMaxTokens(s.opts.MaxTokens),
	}

	// 4. Generate.
	var reply string
	if onToken != nil {
		reply, err = s.llmProvider.ChatStream(ctx, llmMessages, onToken, llmOpts...)
	} else {
		reply, err = s.llmProvider.Chat(ctx, llmMessages, llmOpts...)
	}
	if err != nil {
		return nil, &dto.UpstreamError{Service: "mistral", Err: err}
	}

	// 5. Persist the exchange.
	now := time.Now()
	sent := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          entity.RoleUser,
		Content:       req.Message,
		CreatedAt:     now,
	}
	answer := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          entity.RoleModel,
		Content:       reply,
		CreatedAt:     now.Add(time.Millisecond),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, sent); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, answer); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	sources := make([]dto.SourceDTO, 0, len(results))
	for _, res := range results {
		docId, parseErr := uuid.Parse(res.Record.DocumentID)
		if parseErr != nil {
			continue
		}
		sources = append(sources, dto.SourceDTO{
			DocumentId: docId,
			ChunkIndex: res.Record.ChunkIndex,
			Score:      res.Score,
		})
	}

	return &dto.SendChatResponse{
		SessionId:    session.Id,
		SessionTitle: session.Title,
		Sent: &dto.ChatMessageDTO{
			Id:        sent.Id,
			Role:      sent.Role,
			Content:   sent.Content,
			CreatedAt: sent.CreatedAt,
		},
		Reply: &dto.ChatMessageDTO{
			Id:        answer.Id,
			Role:      answer.Role,
			Content:   answer.Content,
			CreatedAt: answer.CreatedAt,
		},
		Sources: sources,
	}, nil
}

func (s *chatService) RateMessage(ctx context.Context, userId uuid.UUID, req *dto.RateMessageRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	msg, err := uow.ChatMessageRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return err
	}
	if msg == nil {
		return &dto.NotFoundError{Resource: "message"}
	}

	// Ownership runs through the session.
	if _, err := s.findOwnedSession(ctx, uow, userId, msg.ChatSessionId); err != nil {
		return err
	}

	if msg.Role != entity.RoleModel {
		return &dto.ValidationError{Message: "only assistant messages can be rated"}
	}

	return uow.ChatMessageRepository().UpdateRating(ctx, req.Id, req.Rating)
}

func (s *chatService) Export(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, format string) (string, string, error) {
	history, err := s.GetHistory(ctx, userId, sessionId)
	if err != nil {
		return "", "", err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return "", "", err
	}

	switch format {
	case "json":
		raw, err := json.MarshalIndent(map[string]interface{}{
			"session_id": session.Id,
			"title":      session.Title,
			"messages":   history,
		}, "", "  ")
		if err != nil {
			return "", "", err
		}
		return string(raw), "application/json", nil

	case "", "markdown":
		var sb strings.Builder
		sb.WriteString("# " + session.Title + "\n\n")
		for _, msg := range history {
			role := "Assistant"
			if msg.Role == entity.RoleUser {
				role = "You"
			}
			sb.WriteString(fmt.Sprintf("**%s** (%s):\n\n%s\n\n---\n\n", role, msg.CreatedAt.Format(time.RFC3339), msg.Content))
		}
		return sb.String(), "text/markdown", nil

	default:
		return "", "", &dto.ValidationError{Message: "unsupported export format: " + format}
	}
}

func (s *chatService) resolveSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, req *dto.SendChatRequest) (*entity.ChatSession, error) {
	if req.SessionId != nil {
		return s.findOwnedSession(ctx, uow, userId, *req.SessionId)
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     truncateTitle(req.Message),
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *chatService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &dto.NotFoundError{Resource: "conversation"}
	}
	return session, nil
}

func (s *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: s.opts.HistoryLimit * 2},
	)
	if err != nil {
		return nil, err
	}

	// Reverse back to chronological order.
	history := make([]llm.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		history = append(history, llm.Message{
			Role:    messages[i].Role,
			Content: messages[i].Content,
		})
	}
	return history, nil
}

func mapRetrievalError(err error) error {
	if errors.Is(err, embedding.ErrRateLimited) {
		return &dto.RateLimitedError{Service: "mistral"}
	}

	var apiErr *embedding.APIError
	if errors.As(err, &apiErr) {
		return &dto.UpstreamError{Service: "mistral", Err: err}
	}

	if errors.Is(err, vectorstore.ErrDimensionMismatch) {
		return &dto.UpstreamError{Service: "qdrant", Err: err}
	}

	return &dto.UpstreamError{Service: "qdrant", Err: err}
}

func truncateTitle(message string) string {
	title := strings.TrimSpace(message)
	runes := []rune(title)
	if len(runes) > sessionTitleMaxLen {
		title = string(runes[:sessionTitleMaxLen]) + "…"
	}
	if title == "" {
		title = "New conversation"
	}
	return title
}
