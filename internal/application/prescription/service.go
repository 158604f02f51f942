package prescription

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pharmacart/account-api/internal/domain"
	"github.com/pharmacart/account-api/internal/pkg/id"
)

const downloadURLTTL = 15 * time.Minute

// allowedContentTypes lists the formats pharmacists can review.
var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

type Service interface {
	Upload(ctx context.Context, userID, fileName, contentType string, size int64, r io.Reader) (*domain.Prescription, error)
	List(ctx context.Context, userID string) ([]domain.Prescription, error)
	DownloadURL(ctx context.Context, userID, prescriptionID string) (string, error)
	Delete(ctx context.Context, userID, prescriptionID string) error
}

type store interface {
	Put(ctx context.Context, p *domain.Prescription) error
	Get(ctx context.Context, prescriptionID string) (*domain.Prescription, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Prescription, error)
	SoftDelete(ctx context.Context, prescriptionID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	prescriptions store
	objects       objectStore
	now           func() time.Time
}

type ServiceDeps struct {
	PrescriptionRepo store
	ObjectStore      objectStore
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		prescriptions: deps.PrescriptionRepo,
		objects:       deps.ObjectStore,
		now:           now,
	}
}

func (s *service) Upload(ctx context.Context, userID, fileName, contentType string, size int64, r io.Reader) (*domain.Prescription, error) {
	if !allowedContentTypes[contentType] {
		return nil, fmt.Errorf("unsupported file type %q: %w", contentType, domain.ErrBadRequest)
	}

	prescriptionID := id.New()
	key := fmt.Sprintf("prescriptions/%s/%s", userID, prescriptionID)
	if _, err := s.objects.Upload(ctx, key, r, contentType); err != nil {
		return nil, err
	}

	now := s.now()
	p := &domain.Prescription{
		PrescriptionID: prescriptionID,
		UserID:         userID,
		FileName:       fileName,
		S3Key:          key,
		ContentType:    contentType,
		Size:           size,
		Enable:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.prescriptions.Put(ctx, p); err != nil {
		// The object is already in S3; try not to leave it orphaned.
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to clean up orphaned prescription object", "key", key, "err", delErr)
		}
		return nil, err
	}
	return p, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Prescription, error) {
	return s.prescriptions.ListByUser(ctx, userID)
}

func (s *service) DownloadURL(ctx context.Context, userID, prescriptionID string) (string, error) {
	p, err := s.owned(ctx, userID, prescriptionID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, p.S3Key, downloadURLTTL)
}

func (s *service) Delete(ctx context.Context, userID, prescriptionID string) error {
	p, err := s.owned(ctx, userID, prescriptionID)
	if err != nil {
		return err
	}
	if err := s.prescriptions.SoftDelete(ctx, prescriptionID); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, p.S3Key); err != nil {
		slog.Warn("failed to delete prescription object", "key", p.S3Key, "err", err)
	}
	return nil
}

func (s *service) owned(ctx context.Context, userID, prescriptionID string) (*domain.Prescription, error) {
	p, err := s.prescriptions.Get(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("prescription belongs to another account: %w", domain.ErrForbidden)
	}
	return p, nil
}
