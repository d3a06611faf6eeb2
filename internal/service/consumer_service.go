package service

import (
	"context"
	"encoding/json"

	"rag-chatbot-be/internal/dto"
	"rag-chatbot-be/internal/entity"
	"rag-chatbot-be/internal/pkg/logger"
	"rag-chatbot-be/internal/repository/specification"
	"rag-chatbot-be/internal/repository/unitofwork"
	"rag-chatbot-be/pkg/embedding"
	"rag-chatbot-be/pkg/events"
	pktNats "rag-chatbot-be/pkg/nats"
	"rag-chatbot-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// embedBatchSize caps how many chunks go into a single embeddings request.
const embedBatchSize = 16

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	vectorStore       vectorstore.Store
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	vectorStore vectorstore.Store,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		vectorStore:       vectorStore,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ConsumerService", "Processing document embedding", map[string]interface{}{"document_id": payload.DocumentId})

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to load document", map[string]interface{}{"document_id": payload.DocumentId, "error": err.Error()})
		msg.Nack()
		return
	}
	if doc == nil {
		// Deleted between upload and processing.
		msg.Ack()
		return
	}

	chunks, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: doc.Id},
		specification.OrderBy{Field: "chunk_index"},
	)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to load chunks", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		msg.Nack()
		return
	}
	if len(chunks) == 0 {
		cs.markFailed(ctx, uow, doc, "document has no chunks")
		msg.Ack()
		return
	}

	records, err := cs.embedChunks(ctx, doc, chunks)
	if err != nil {
		cs.logger.Error("ConsumerService", "Embedding failed", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		cs.markFailed(ctx, uow, doc, err.Error())
		msg.Ack()
		return
	}

	if err := cs.vectorStore.Upsert(ctx, records); err != nil {
		cs.logger.Error("ConsumerService", "Vector store upsert failed", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		msg.Nack() // Store may be temporarily down, retry.
		return
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusIndexed, ""); err != nil {
		cs.logger.Error("ConsumerService", "Failed to update document status", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		evt := events.NewDocumentIndexed(doc.UserId.String(), doc.Id.String())
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish DOCUMENT_INDEXED event", map[string]interface{}{"error": err.Error()})
		}
	}

	cs.logger.Info("ConsumerService", "Document indexed", map[string]interface{}{"document_id": doc.Id, "chunks": len(records)})
	msg.Ack()
}

func (cs *consumerService) embedChunks(ctx context.Context, doc *entity.Document, chunks []*entity.DocumentChunk) ([]vectorstore.Record, error) {
	records := make([]vectorstore.Record, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := cs.embeddingProvider.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}

		for i, c := range batch {
			records = append(records, vectorstore.Record{
				ID:         c.Id.String(),
				DocumentID: doc.Id.String(),
				ChunkIndex: c.ChunkIndex,
				Text:       c.Content,
				Vector:     vectors[i],
				Metadata: map[string]interface{}{
					"file_name": doc.FileName,
				},
			})
		}
	}

	return records, nil
}

func (cs *consumerService) markFailed(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.Document, reason string) {
	if err := uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusFailed, reason); err != nil {
		cs.logger.Error("ConsumerService", "Failed to mark document failed", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
	}
	if cs.eventPublisher != nil {
		evt := events.NewDocumentFailed(doc.UserId.String(), doc.Id.String(), reason)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish DOCUMENT_FAILED event", map[string]interface{}{"error": err.Error()})
		}
	}
}
