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

// DefaultCoverMaxBytes applies when modules.blog.cover_max_size_bytes is unset.
const DefaultCoverMaxBytes int64 = 2 << 20

type BlogUpdateCoverInput struct {
	ID   int64 `validate:"required,gt=0"`
	File io.Reader
}

type BlogUpdateCoverOutput struct {
	CoverURL string
}

// BlogUpdateCover replaces the cover image of the caller's own post.
func (s *Usecase) BlogUpdateCover(ctx context.Context, in BlogUpdateCoverInput) (*BlogUpdateCoverOutput, error) {
	ctx, span := s.startSpan(ctx, "BlogUpdateCover")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "cover", "cover file is required")
	}

	blog, err := s.repoDB.GetBlog(ctx, in.ID)
	if err != nil {
		return nil, s.blogNotFound(ctx, in.ID, err)
	}
	if blog.AuthorID != clm.UserID {
		slog.WarnContext(ctx, "cover update by non author", "blog_id", in.ID, "user_id", clm.UserID)
		return nil, goerror.NewBusiness("blog not found", goerror.CodeNotFound)
	}

	file, contentType, ext, err := storage.SniffImage(in.File)
	if errors.Is(err, storage.ErrUnsupportedImage) {
		return nil, goerror.NewInvalidInput(nil, "cover", "cover must be a jpeg, png or webp image")
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to read cover upload", "blog_id", in.ID, "error", err)
		return nil, goerror.NewInvalidFormat()
	}

	maxSize := s.cfg.GetInt64("modules.blog.cover_max_size_bytes")
	if maxSize <= 0 {
		maxSize = DefaultCoverMaxBytes
	}

	key := fmt.Sprintf("covers/%d/%s.%s", blog.ID, s.uuid.Generate(), ext)
	obj, err := s.storage.Put(ctx, key, storage.LimitReader(file, maxSize), storage.PutOptions{
		Size:         -1,
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
		Metadata: map[string]string{
			"blog_id":   strconv.FormatInt(blog.ID, 10),
			"author_id": strconv.FormatInt(blog.AuthorID, 10),
		},
	})
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, goerror.NewInvalidInput(nil, "cover", fmt.Sprintf("cover must not exceed %d bytes", maxSize))
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload blog cover", "blog_id", blog.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateBlogCover(ctx, blog.ID, obj.URL); err != nil {
		slog.ErrorContext(ctx, "failed to update blog cover", "blog_id", blog.ID, "error", err)
		if errDel := s.storage.Delete(ctx, key); errDel != nil {
			slog.WarnContext(ctx, "failed to remove orphan cover", "key", key, "error", errDel)
		}
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("blog not found", goerror.CodeNotFound)
		}
		return nil, goerror.NewServer(err)
	}

	return &BlogUpdateCoverOutput{CoverURL: obj.URL}, nil
}
