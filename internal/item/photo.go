package item

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/storage"
)

const (
	MaxPhotoBytes = 5 << 20
	thumbnailSize = 300
)

var allowedPhotoTypes = []string{"image/jpeg", "image/png", "image/gif"}

// SetPhoto stores a new photo and thumbnail for the item and drops the previous ones.
func (s *service) SetPhoto(ctx context.Context, ownerID, itemID string, header *multipart.FileHeader) (*Item, error) {
	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	if header.Size > MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if len(content) > MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}

	mt := mimetype.Detect(content)
	if !mimetype.EqualsAny(mt.String(), allowedPhotoTypes...) {
		return nil, ErrInvalidPhoto
	}

	thumb, err := s.imgProc.Thumbnail(bytes.NewReader(content))
	if err != nil {
		return nil, ErrInvalidPhoto
	}

	// Sharding path: items/ab/<item>/<upload>.ext
	dir := fmt.Sprintf("items/%s/%s", it.ID[:2], it.ID)
	uploadID := uuid.NewString()
	photoPath := fmt.Sprintf("%s/%s%s", dir, uploadID, mt.Extension())
	thumbPath := fmt.Sprintf("%s/%s_thumb.jpg", dir, uploadID)

	if err := s.storage.Save(ctx, photoPath, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	if err := s.storage.Save(ctx, thumbPath, thumb); err != nil {
		_ = s.storage.Delete(ctx, photoPath)
		return nil, fmt.Errorf("failed to save thumbnail: %w", err)
	}

	if err := s.repo.SetPhoto(ctx, it.ID, photoPath, thumbPath, mt.String()); err != nil {
		_ = s.storage.Delete(ctx, photoPath)
		_ = s.storage.Delete(ctx, thumbPath)
		return nil, err
	}

	for _, old := range []*string{it.PhotoPath, it.ThumbnailPath} {
		if old == nil {
			continue
		}
		if err := s.storage.Delete(ctx, *old); err != nil {
			s.log.Warn("failed to delete replaced photo", zap.String("path", *old), zap.Error(err))
		}
	}

	mtString := mt.String()
	it.PhotoPath, it.ThumbnailPath, it.PhotoType = &photoPath, &thumbPath, &mtString
	return it, nil
}

// OpenPhoto returns the original photo and its content type.
func (s *service) OpenPhoto(ctx context.Context, itemID string) (io.ReadCloser, string, error) {
	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, "", err
	}
	if it.PhotoPath == nil {
		return nil, "", ErrNoPhoto
	}

	rc, err := s.open(ctx, *it.PhotoPath)
	if err != nil {
		return nil, "", err
	}

	contentType := "application/octet-stream"
	if it.PhotoType != nil {
		contentType = *it.PhotoType
	}
	return rc, contentType, nil
}

// OpenThumbnail returns the JPEG thumbnail.
func (s *service) OpenThumbnail(ctx context.Context, itemID string) (io.ReadCloser, error) {
	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.ThumbnailPath == nil {
		return nil, ErrNoPhoto
	}
	return s.open(ctx, *it.ThumbnailPath)
}

func (s *service) open(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := s.storage.Get(ctx, path)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, ErrNoPhoto
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	return rc, nil
}
