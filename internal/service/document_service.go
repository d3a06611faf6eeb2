package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"rag-chatbot-be/internal/dto"
	"rag-chatbot-be/internal/entity"
	"rag-chatbot-be/internal/pkg/logger"
	"rag-chatbot-be/internal/repository/specification"
	"rag-chatbot-be/internal/repository/unitofwork"
	"rag-chatbot-be/pkg/events"
	"rag-chatbot-be/pkg/ingest"
	pktNats "rag-chatbot-be/pkg/nats"
	"rag-chatbot-be/pkg/vectorstore"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, fileName string, data []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	vectorStore      vectorstore.Store
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
	splitter         ingest.SplitterConfig
	maxUploadBytes   int64
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	vectorStore vectorstore.Store,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	splitter ingest.SplitterConfig,
	maxUploadMB int,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		vectorStore:      vectorStore,
		eventPublisher:   eventPublisher,
		logger:           log,
		splitter:         splitter,
		maxUploadBytes:   int64(maxUploadMB) * 1024 * 1024,
	}
}

func (s *documentService) Upload(ctx context.Context, userId uuid.UUID, fileName string, data []byte) (*dto.UploadDocumentResponse, error) {
	if len(data) == 0 {
		return nil, &dto.ValidationError{Message: "uploaded file is empty"}
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return nil, &dto.ValidationError{Message: "uploaded file exceeds the size limit"}
	}
	if !ingest.IsSupported(fileName) {
		return nil, &dto.UnsupportedFileTypeError{FileName: fileName}
	}

	text, err := ingest.ExtractText(data, fileName)
	if err != nil {
		return nil, &dto.ExtractionFailedError{FileName: fileName, Reason: err.Error()}
	}

	text = ingest.Normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil, &dto.ExtractionFailedError{FileName: fileName, Reason: "no extractable text"}
	}

	chunks := ingest.SplitText(text, s.splitter.ChunkSize, s.splitter.Overlap)

	sum := sha256.Sum256(data)
	now := time.Now()

	doc := &entity.Document{
		Id:         uuid.New(),
		UserId:     userId,
		FileName:   fileName,
		FileType:   strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), "."),
		SizeBytes:  int64(len(data)),
		Checksum:   hex.EncodeToString(sum[:]),
		Status:     entity.DocumentStatusPending,
		ChunkCount: len(chunks),
		Metadata: map[string]interface{}{
			"char_count": len([]rune(text)),
		},
		CreatedAt: now,
	}

	chunkEntities := make([]*entity.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		chunkEntities[i] = &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			ChunkIndex: i,
			Content:    chunk,
			CreatedAt:  now,
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunkEntities); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	msgPayload := dto.PublishEmbedDocumentMessage{DocumentId: doc.Id}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.NewDocumentIngested(userId.String(), doc.Id.String(), len(chunks))
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("DocumentService", "Failed to publish DOCUMENT_INGESTED event", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("DocumentService", "Document uploaded", map[string]interface{}{
		"document_id": doc.Id,
		"file_name":   fileName,
		"chunks":      len(chunks),
	})

	return &dto.UploadDocumentResponse{
		Id:         doc.Id,
		FileName:   doc.FileName,
		Status:     string(doc.Status),
		ChunkCount: doc.ChunkCount,
	}, nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		response[i] = toDocumentResponse(doc)
	}
	return response, nil
}

func (s *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &dto.NotFoundError{Resource: "document"}
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if doc == nil {
		return &dto.NotFoundError{Resource: "document"}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	// Vectors go after the relational rows so a delete retry remains safe.
	if err := s.vectorStore.DeleteByDocument(ctx, id.String()); err != nil {
		return &dto.UpstreamError{Service: "qdrant", Err: err}
	}

	if s.eventPublisher != nil {
		evt := events.NewDocumentDeleted(userId.String(), id.String())
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("DocumentService", "Failed to publish DOCUMENT_DELETED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return nil
}

func toDocumentResponse(doc *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:         doc.Id,
		FileName:   doc.FileName,
		FileType:   doc.FileType,
		SizeBytes:  doc.SizeBytes,
		Status:     string(doc.Status),
		ChunkCount: doc.ChunkCount,
		FailReason: doc.FailReason,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}
