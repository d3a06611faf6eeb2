package events

import "time"

const (
	TypeDocumentIngested = "DOCUMENT_INGESTED"
	TypeDocumentIndexed  = "DOCUMENT_INDEXED"
	TypeDocumentFailed   = "DOCUMENT_FAILED"
	TypeDocumentDeleted  = "DOCUMENT_DELETED"
)

// NewDocumentIngested fires when a document has been extracted and chunked,
// before its chunks are embedded.
func NewDocumentIngested(userID, documentID string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"user_id":     userID,
			"document_id": documentID,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIndexed fires when all chunks of a document have been embedded
// and stored, making the document searchable.
func NewDocumentIndexed(userID, documentID string) Event {
	return BaseEvent{
		Type: TypeDocumentIndexed,
		Data: map[string]interface{}{
			"user_id":     userID,
			"document_id": documentID,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentFailed fires when embedding or storage of a document's chunks
// failed and the document was marked failed.
func NewDocumentFailed(userID, documentID, reason string) Event {
	return BaseEvent{
		Type: TypeDocumentFailed,
		Data: map[string]interface{}{
			"user_id":     userID,
			"document_id": documentID,
			"reason":      reason,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentDeleted fires when a document and its vectors have been removed.
func NewDocumentDeleted(userID, documentID string) Event {
	return BaseEvent{
		Type: TypeDocumentDeleted,
		Data: map[string]interface{}{
			"user_id":     userID,
			"document_id": documentID,
		},
		OccurredAt: time.Now(),
	}
}
