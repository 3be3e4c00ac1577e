package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/config"
	"github.com/Zorochan404/inf-chat/internal/ids"
	"github.com/Zorochan404/inf-chat/internal/media/sniffer"
	"github.com/Zorochan404/inf-chat/internal/media/svg"
	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/security"
)

// AttachmentStore persists attachment bytes and knows their public address.
type AttachmentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)
	PublicURL(key string) string
}

type AttachmentService struct {
	store    AttachmentStore
	maxBytes int64
	log      zerolog.Logger
}

func NewAttachmentService(store AttachmentStore, cfg *config.AppConfig, log zerolog.Logger) *AttachmentService {
	return &AttachmentService{
		store:    store,
		maxBytes: cfg.Storage.MaxAttachmentBytes,
		log:      log,
	}
}

type AttachmentInput struct {
	File         io.Reader
	FileName     string
	DeclaredType string
}

type AttachmentResult struct {
	FileURL     string             `json:"fileUrl"`
	FileName    string             `json:"fileName"`
	MessageType models.MessageType `json:"messageType"`
	ContentType string             `json:"contentType"`
	Size        int64              `json:"size"`
}

// Upload stores a chat attachment and reports how a message should refer to it.
func (s *AttachmentService) Upload(ctx context.Context, caller security.Identity, input AttachmentInput) (AttachmentResult, error) {
	if input.File == nil {
		return AttachmentResult{}, apperr.Validation("file is required")
	}

	data, err := io.ReadAll(io.LimitReader(input.File, s.maxBytes+1))
	if err != nil {
		return AttachmentResult{}, apperr.Internal("failed to read attachment", err)
	}
	if len(data) == 0 {
		return AttachmentResult{}, apperr.Validation("file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return AttachmentResult{}, apperr.Validation(fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
	}

	result, err := sniffer.DetectHead(data)
	if err != nil {
		return AttachmentResult{}, apperr.Validation("unsupported file")
	}

	declared := strings.TrimSpace(strings.SplitN(input.DeclaredType, ";", 2)[0])
	if result.IsImage() && strings.HasPrefix(declared, "image/") && declared != result.MIME {
		return AttachmentResult{}, apperr.Validation(fmt.Sprintf("content type mismatch: declared %s, actual %s", declared, result.MIME))
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return AttachmentResult{}, apperr.Validation("invalid svg document")
		}
		data = clean
	}

	key := s.objectKey(ids.New(), result.Ext)
	size, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), result.MIME)
	if err != nil {
		return AttachmentResult{}, apperr.Internal("failed to store attachment", err)
	}

	messageType := models.MessageTypeFile
	if result.IsImage() {
		messageType = models.MessageTypeImage
	}

	s.log.Info().
		Str("user_id", caller.UserID).
		Str("object_key", key).
		Int64("size", size).
		Msg("attachment stored")

	return AttachmentResult{
		FileURL:     s.store.PublicURL(key),
		FileName:    displayName(input.FileName, result.Ext),
		MessageType: messageType,
		ContentType: result.MIME,
		Size:        size,
	}, nil
}

func (s *AttachmentService) objectKey(id, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join("attachments", datePrefix, id+ext)
}

func displayName(name, ext string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "attachment" + ext
	}
	return name
}
