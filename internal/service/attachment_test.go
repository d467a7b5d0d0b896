package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/storage"
)

func newAttachmentService(t *testing.T, maxSize int64) *AttachmentService {
	t.Helper()
	blobs, err := storage.NewLocalStore(storage.LocalConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return NewAttachmentService(repository.NewMemoryAttachmentRepository(), blobs, maxSize)
}

func TestAttachmentUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores blob and metadata", func(t *testing.T) {
		svc := newAttachmentService(t, 1024)

		content := "hello attachment"
		a, err := svc.Upload(ctx, "u1", domain.AttachmentEntityTicket, "t1",
			"notes.txt", "text/plain", strings.NewReader(content), int64(len(content)))
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		if a.OwnerID != "u1" || a.Size != int64(len(content)) {
			t.Fatalf("attachment = %+v", a)
		}

		_, rc, err := svc.Open(ctx, a.ID)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer rc.Close()
		got, _ := io.ReadAll(rc)
		if string(got) != content {
			t.Fatalf("content = %q, want %q", got, content)
		}
	})

	t.Run("oversize upload rejected", func(t *testing.T) {
		svc := newAttachmentService(t, 8)

		_, err := svc.Upload(ctx, "u1", domain.AttachmentEntityTicket, "t1",
			"big.bin", "application/octet-stream", strings.NewReader("more than eight bytes"), 21)
		if !errors.Is(err, ErrFileTooLarge) {
			t.Fatalf("err = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("unknown entity type rejected", func(t *testing.T) {
		svc := newAttachmentService(t, 1024)

		_, err := svc.Upload(ctx, "u1", "FOLDER", "t1",
			"x.txt", "text/plain", strings.NewReader("x"), 1)
		if err == nil {
			t.Fatal("expected entity type rejection")
		}
	})
}
