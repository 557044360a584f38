package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	"github.com/courtsidehq/courtside/internal/media/domain"
	"github.com/courtsidehq/courtside/internal/media/storage"
	"github.com/courtsidehq/courtside/internal/principalctx"
)

const keyNamespace = "media"

type Params struct {
	fx.In

	Log      *zap.Logger
	Storage  *storage.Client
	Activity activitydomain.Service `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	storage  *storage.Client
	activity activitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("media.service"),
		storage:  p.Storage,
		activity: p.Activity,
	}
}

func (s *Service) PresignUpload(ctx context.Context, req domain.PresignUploadRequest) (*domain.PresignResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		return nil, domain.ErrInvalidFileName
	}

	ext := strings.ToLower(path.Ext(fileName))
	key := fmt.Sprintf("%s/%s/%s%s", keyNamespace, principal.UserID.String(), ulid.Make().String(), ext)

	url, err := s.storage.PresignPut(ctx, key, strings.TrimSpace(req.ContentType))
	if err != nil {
		return nil, err
	}

	if s.activity != nil {
		targetID := key
		if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), "media.upload_presigned", "media", &targetID, nil); err != nil {
			s.log.Warn("failed to record media activity", zap.Error(err))
		}
	}

	return &domain.PresignResponse{
		Key:       key,
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(s.storage.Expiry()),
	}, nil
}

func (s *Service) PresignDownload(ctx context.Context, key string) (*domain.PresignResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	key, err := s.ownedKey(principal, key)
	if err != nil {
		return nil, err
	}

	exists, _, err := s.storage.Head(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	url, err := s.storage.PresignGet(ctx, key)
	if err != nil {
		return nil, err
	}

	return &domain.PresignResponse{
		Key:       key,
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(s.storage.Expiry()),
	}, nil
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.SearchResponse{}, domain.ErrInvalidActor
	}

	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	if size > 250 {
		size = 250
	}

	prefix := fmt.Sprintf("%s/%s/", keyNamespace, principal.UserID.String())
	if sub := strings.TrimSpace(req.Prefix); sub != "" {
		prefix += strings.TrimPrefix(sub, "/")
	}

	result, err := s.storage.List(ctx, prefix, strings.TrimSpace(req.PageToken), int32(size))
	if err != nil {
		return domain.SearchResponse{}, err
	}

	resp := domain.SearchResponse{
		Objects:       make([]domain.ObjectResponse, 0, len(result.Objects)),
		NextPageToken: result.NextToken,
		HasMore:       result.HasMore,
	}
	for _, object := range result.Objects {
		resp.Objects = append(resp.Objects, domain.ObjectResponse{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	key, err := s.ownedKey(principal, key)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		return err
	}

	if s.activity != nil {
		targetID := key
		if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), "media.deleted", "media", &targetID, nil); err != nil {
			s.log.Warn("failed to record media activity", zap.Error(err))
		}
	}
	return nil
}

// ownedKey rejects keys outside the caller's namespace. Keys are opaque to
// clients but always carry the owner segment.
func (s *Service) ownedKey(principal principalctx.Principal, key string) (string, error) {
	key = strings.TrimSpace(strings.TrimPrefix(key, "/"))
	if key == "" || strings.Contains(key, "..") {
		return "", domain.ErrInvalidKey
	}
	owned := fmt.Sprintf("%s/%s/", keyNamespace, principal.UserID.String())
	if !strings.HasPrefix(key, owned) {
		return "", domain.ErrInvalidKey
	}
	return key, nil
}
