package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	pstorage "github.com/aromelle/api/internal/platform/storage"
)

const (
	mediaUploadExpiry   = 15 * time.Minute
	mediaDownloadExpiry = 15 * time.Minute
)

var (
	// ErrMediaInvalidInput indicates the caller provided an invalid argument.
	ErrMediaInvalidInput = errors.New("media: invalid input")
)

var mediaImageContentTypes = []string{"image/png", "image/jpeg", "image/webp"}

// ObjectCopier moves a staged upload into its final location.
type ObjectCopier interface {
	CopyObject(ctx context.Context, sourceBucket, sourceObject, destBucket, destObject string) error
}

// MediaServiceDeps bundles dependencies for the media service.
type MediaServiceDeps struct {
	Signer        *pstorage.Client
	Copier        ObjectCopier
	MediaBucket   string
	StagingBucket string
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type mediaService struct {
	signer        *pstorage.Client
	copier        ObjectCopier
	mediaBucket   string
	stagingBucket string
	clock         func() time.Time
	newID         func() string
	logger        func(context.Context, string, map[string]any)
}

// NewMediaService wires the media service over the signed URL client.
func NewMediaService(deps MediaServiceDeps) (MediaService, error) {
	if deps.Signer == nil {
		return nil, errors.New("media service: signer is required")
	}
	if strings.TrimSpace(deps.MediaBucket) == "" {
		return nil, errors.New("media service: media bucket is required")
	}

	staging := strings.TrimSpace(deps.StagingBucket)
	if staging == "" {
		staging = strings.TrimSpace(deps.MediaBucket)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &mediaService{
		signer:        deps.Signer,
		copier:        deps.Copier,
		mediaBucket:   strings.TrimSpace(deps.MediaBucket),
		stagingBucket: staging,
		clock:         func() time.Time { return clock().UTC() },
		newID:         idGen,
		logger:        logger,
	}, nil
}

// IssueUpload signs a PUT URL for a staged object. The object lands in the
// staging bucket under an opaque upload id and is copied to its final path by
// PromoteUpload once the caller confirms the upload.
func (s *mediaService) IssueUpload(ctx context.Context, cmd MediaUploadCommand) (SignedMedia, error) {
	if _, err := s.resolvePurpose(cmd.Purpose); err != nil {
		return SignedMedia{}, err
	}
	fileName, err := mediaFileName(cmd.FileName)
	if err != nil {
		return SignedMedia{}, err
	}
	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if contentType == "" {
		return SignedMedia{}, fmt.Errorf("%w: content type is required", ErrMediaInvalidInput)
	}

	objectPath := path.Join("staging", s.newID(), fileName)
	result, err := s.signer.SignedURL(ctx, s.stagingBucket, objectPath, pstorage.SignedURLOptions{
		Upload: &pstorage.UploadOptions{
			Method:              "PUT",
			ContentType:         contentType,
			AllowedContentTypes: mediaImageContentTypes,
			ExpiresIn:           mediaUploadExpiry,
		},
	})
	if err != nil {
		return SignedMedia{}, fmt.Errorf("media: sign upload: %w", err)
	}

	s.logger(ctx, "media.upload.issued", map[string]any{
		"objectPath": objectPath,
		"purpose":    cmd.Purpose,
		"actorId":    cmd.ActorID,
	})
	return SignedMedia{
		URL:        result.URL,
		ObjectPath: objectPath,
		Method:     result.Method,
		ExpiresAt:  result.ExpiresAt,
		Headers:    result.Headers,
	}, nil
}

func (s *mediaService) IssueDownload(ctx context.Context, cmd MediaDownloadCommand) (SignedMedia, error) {
	objectPath := strings.TrimSpace(cmd.ObjectPath)
	if objectPath == "" {
		return SignedMedia{}, fmt.Errorf("%w: object path is required", ErrMediaInvalidInput)
	}

	result, err := s.signer.SignedURL(ctx, s.mediaBucket, objectPath, pstorage.SignedURLOptions{
		Download: &pstorage.DownloadOptions{
			Method:         "GET",
			ExpiresIn:      mediaDownloadExpiry,
			AllowAnonymous: true,
		},
	})
	if err != nil {
		return SignedMedia{}, fmt.Errorf("media: sign download: %w", err)
	}

	return SignedMedia{
		URL:        result.URL,
		ObjectPath: objectPath,
		Method:     result.Method,
		ExpiresAt:  result.ExpiresAt,
		Headers:    result.Headers,
	}, nil
}

// PromoteUpload copies a staged object into its canonical media path and
// returns that path for persistence on the owning record.
func (s *mediaService) PromoteUpload(ctx context.Context, cmd PromoteUploadCommand) (string, error) {
	if s.copier == nil {
		return "", errors.New("media service: copier is not configured")
	}
	sourcePath := strings.TrimSpace(cmd.SourcePath)
	if sourcePath == "" || !strings.HasPrefix(sourcePath, "staging/") {
		return "", fmt.Errorf("%w: source path must reference a staged upload", ErrMediaInvalidInput)
	}
	purpose, err := s.resolvePurpose(cmd.Purpose)
	if err != nil {
		return "", err
	}
	fileName := strings.TrimSpace(cmd.FileName)
	if fileName == "" {
		fileName = path.Base(sourcePath)
	}
	if fileName, err = mediaFileName(fileName); err != nil {
		return "", err
	}

	destPath, err := pstorage.BuildObjectPath(purpose, pstorage.PathParams{
		ProductID: strings.TrimSpace(cmd.ProductID),
		ContentID: strings.TrimSpace(cmd.ContentID),
		UploadID:  s.newID(),
		FileName:  fileName,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaInvalidInput, err)
	}

	if err := s.copier.CopyObject(ctx, s.stagingBucket, sourcePath, s.mediaBucket, destPath); err != nil {
		return "", fmt.Errorf("media: promote upload: %w", err)
	}

	s.logger(ctx, "media.upload.promoted", map[string]any{
		"sourcePath": sourcePath,
		"destPath":   destPath,
		"actorId":    cmd.ActorID,
	})
	return destPath, nil
}

func (s *mediaService) resolvePurpose(raw string) (pstorage.MediaPurpose, error) {
	purpose := pstorage.MediaPurpose(strings.ToLower(strings.TrimSpace(raw)))
	switch purpose {
	case pstorage.PurposeProductImage, pstorage.PurposeAdvertisement, pstorage.PurposeHeroImage:
		return purpose, nil
	default:
		return "", fmt.Errorf("%w: unsupported media purpose %q", ErrMediaInvalidInput, raw)
	}
}

func mediaFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: file name is required", ErrMediaInvalidInput)
	}
	if strings.ContainsAny(value, "/\\") || strings.Contains(value, "..") {
		return "", fmt.Errorf("%w: file name contains invalid characters", ErrMediaInvalidInput)
	}
	return value, nil
}
