package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/storage"
)

// DefaultAvatarMaxBytes applies when modules.identity.avatar_max_size_bytes is unset.
const DefaultAvatarMaxBytes int64 = 2 << 20

type ProfileUpdateAvatarInput struct {
	File io.Reader
}

type ProfileUpdateAvatarOutput struct {
	AvatarURL string
}

func (s *Usecase) ProfileUpdateAvatar(ctx context.Context, in ProfileUpdateAvatarInput) (*ProfileUpdateAvatarOutput, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdateAvatar")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "avatar", "avatar file is required")
	}

	file, contentType, ext, err := storage.SniffImage(in.File)
	if errors.Is(err, storage.ErrUnsupportedImage) {
		return nil, goerror.NewInvalidInput(nil, "avatar", "avatar must be a jpeg, png or webp image")
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to read avatar upload", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewInvalidFormat()
	}

	maxSize := s.cfg.GetInt64("modules.identity.avatar_max_size_bytes")
	if maxSize <= 0 {
		maxSize = DefaultAvatarMaxBytes
	}

	key := fmt.Sprintf("avatars/%d/%s.%s", clm.UserID, s.uuid.Generate(), ext)
	obj, err := s.storage.Put(ctx, key, storage.LimitReader(file, maxSize), storage.PutOptions{
		Size:         -1,
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
		Metadata:     map[string]string{"user_id": strconv.FormatInt(clm.UserID, 10)},
	})
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, goerror.NewInvalidInput(nil, "avatar", fmt.Sprintf("avatar must not exceed %d bytes", maxSize))
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload user avatar", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateUserAvatar(ctx, clm.UserID, obj.URL); err != nil {
		slog.ErrorContext(ctx, "failed to update user avatar", "user_id", clm.UserID, "error", err)
		if errDel := s.storage.Delete(ctx, key); errDel != nil {
			slog.WarnContext(ctx, "failed to remove orphan avatar", "key", key, "error", errDel)
		}
		return nil, goerror.NewServer(err)
	}

	return &ProfileUpdateAvatarOutput{AvatarURL: obj.URL}, nil
}
