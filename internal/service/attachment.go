package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/storage"
)

// signedURLTTL bounds download links handed to clients.
const signedURLTTL = 15 * time.Minute

// AttachmentService stores uploaded files and their metadata.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	blobs       storage.BlobStore
	maxSize     int64
}

// NewAttachmentService creates an attachment service. maxSize caps upload
// bytes; zero means 25 MiB.
func NewAttachmentService(attachments repository.AttachmentRepository, blobs storage.BlobStore, maxSize int64) *AttachmentService {
	if maxSize <= 0 {
		maxSize = 25 << 20
	}
	return &AttachmentService{attachments: attachments, blobs: blobs, maxSize: maxSize}
}

// Upload stores the file content and records its metadata. The blob write
// happens first; a failed metadata write removes the orphaned blob.
func (s *AttachmentService) Upload(ctx context.Context, ownerID, entityType, entityID, fileName, contentType string, r io.Reader, size int64) (*domain.Attachment, error) {
	if size > s.maxSize {
		return nil, fmt.Errorf("%w: %d exceeds %d bytes", ErrFileTooLarge, size, s.maxSize)
	}
	if entityType != domain.AttachmentEntityTicket && entityType != domain.AttachmentEntityMessage {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	key := path.Join("attachments", entityType, entityID, uuid.New().String()+path.Ext(fileName))
	if err := s.blobs.Put(ctx, key, io.LimitReader(r, s.maxSize), size, contentType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	a := &domain.Attachment{
		OwnerID:     ownerID,
		EntityType:  entityType,
		EntityID:    entityID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		StorageKey:  key,
	}
	if err := s.attachments.Create(ctx, a); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			log.L().Warn().Err(delErr).Str("key", key).Msg("orphan blob cleanup failed")
		}
		return nil, err
	}
	return a, nil
}

// Get returns attachment metadata by id.
func (s *AttachmentService) Get(ctx context.Context, id string) (*domain.Attachment, error) {
	return s.attachments.GetByID(ctx, id)
}

// Open returns the attachment's content stream.
func (s *AttachmentService) Open(ctx context.Context, id string) (*domain.Attachment, io.ReadCloser, error) {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, a.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return a, rc, nil
}

// DownloadURL returns a short-lived link to the attachment content.
func (s *AttachmentService) DownloadURL(ctx context.Context, id string) (string, error) {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.blobs.SignedURL(ctx, a.StorageKey, signedURLTTL)
}

// ListForEntity returns attachments linked to a ticket or message.
func (s *AttachmentService) ListForEntity(ctx context.Context, entityType, entityID string) ([]*domain.Attachment, error) {
	return s.attachments.ListByEntity(ctx, entityType, entityID)
}

// Delete removes an attachment owned by the caller.
func (s *AttachmentService) Delete(ctx context.Context, id, callerID string) error {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.OwnerID != callerID {
		return ErrForbidden
	}
	if err := s.blobs.Delete(ctx, a.StorageKey); err != nil && err != storage.ErrNotFound {
		return err
	}
	return s.attachments.Delete(ctx, id)
}
