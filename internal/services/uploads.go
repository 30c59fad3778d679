package services

import (
	"bytes"
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"agora/internal/models"
	"agora/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AllowedFileTypes is the upload allow-list.
var AllowedFileTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
}

// FileURLPrefix is where stored files are served from.
const FileURLPrefix = "/api/files/"

// Uploader validates uploads and hands them to the file store.
type Uploader struct {
	files     storage.FileStore
	maxSize   int64
	publicURL string
}

// NewUploader serves files through FileURLPrefix unless publicURL names a
// public bucket endpoint.
func NewUploader(files storage.FileStore, maxSize int64, publicURL string) *Uploader {
	return &Uploader{files: files, maxSize: maxSize, publicURL: strings.TrimRight(publicURL, "/")}
}

func (u *Uploader) url(name string) string {
	if u.publicURL != "" {
		return u.publicURL + "/" + storage.S3Prefix + name
	}
	return FileURLPrefix + name
}

// Store checks the size and the sniffed content type, then saves the file
// under a generated name. declaredType may be empty.
func (u *Uploader) Store(ctx context.Context, filename, declaredType string, r io.Reader, size int64) (models.Attachment, error) {
	if size > u.maxSize {
		return models.Attachment{}, ErrFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return models.Attachment{}, errors.Wrap(err, "read upload")
	}
	if int64(len(data)) > u.maxSize {
		return models.Attachment{}, ErrFileTooLarge
	}
	if len(data) == 0 {
		return models.Attachment{}, Invalid("empty file")
	}

	detected := mimetype.Detect(data)
	allowed := false
	for _, t := range AllowedFileTypes {
		if detected.Is(t) {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.Attachment{}, ErrFileType
	}
	if declared, _, err := mime.ParseMediaType(declaredType); err == nil &&
		declared != "application/octet-stream" && !detected.Is(declared) {
		return models.Attachment{}, errors.Wrap(ErrFileType, "content does not match declared type")
	}

	name := uuid.NewString() + detected.Extension()
	contentType, _, _ := mime.ParseMediaType(detected.String())
	if err := u.files.Save(ctx, name, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return models.Attachment{}, errors.Wrap(err, "save upload")
	}

	return models.Attachment{
		Name:        name,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        int64(len(data)),
		URL:         u.url(name),
	}, nil
}

// Open returns a stored file by its generated name.
func (u *Uploader) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	rc, contentType, err := u.files.Open(ctx, name)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	return rc, contentType, err
}

// Remove deletes a stored file. Missing files are ignored.
func (u *Uploader) Remove(ctx context.Context, name string) error {
	err := u.files.Delete(ctx, name)
	if errors.Is(err, storage.ErrNotExist) {
		return nil
	}
	return err
}
