package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	PresignUpload(ctx context.Context, req PresignUploadRequest) (*PresignResponse, error)
	PresignDownload(ctx context.Context, key string) (*PresignResponse, error)
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	Delete(ctx context.Context, key string) error
}

type PresignUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type PresignResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SearchRequest struct {
	Prefix    string `form:"prefix"`
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=50"`
}

type ObjectResponse struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

type SearchResponse struct {
	Objects       []ObjectResponse `json:"objects"`
	NextPageToken string           `json:"next_page_token,omitempty"`
	HasMore       bool             `json:"has_more"`
}

var (
	ErrInvalidActor    = errors.New("invalid_actor")
	ErrInvalidFileName = errors.New("invalid_file_name")
	ErrInvalidKey      = errors.New("invalid_key")
	ErrNotFound        = errors.New("object_not_found")
)
