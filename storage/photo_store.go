package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"secure-messenger/contract"
	"secure-messenger/domain/mimetypes"
	"secure-messenger/errors"

	"github.com/gabriel-vasile/mimetype"
)

// PhotosFolder is where uploaded chat photos are kept, under the store root.
const PhotosFolder = "chat_photos"

// sniffLength is the number of leading bytes used to detect the media type.
const sniffLength = 3072

var _ contract.ObjectStore = (*DiskPhotoStore)(nil)

// DiskPhotoStore keeps photos on the local disk and references them with file URLs.
type DiskPhotoStore struct {
	log  *slog.Logger
	root string
}

func NewDiskPhotoStore(log *slog.Logger, root string) *DiskPhotoStore {
	return &DiskPhotoStore{log: log, root: root}
}

// Upload stores content as chat_photos/<name> once it is recognized as a photo.
// A photo uploaded twice under the same name replaces the previous one.
func (s *DiskPhotoStore) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid photo name %q", name)
	}

	sniff := make([]byte, sniffLength)
	n, err := io.ReadFull(content, sniff)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read photo %s: %w", base, err)
	}
	sniff = sniff[:n]
	detected := mimetype.Detect(sniff).String()
	if !mimetypes.IsPhoto(detected) {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedMedia, detected)
	}

	dir := filepath.Join(s.root, PhotosFolder)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	// Removing after a successful rename is a no-op
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(sniff); err == nil {
		_, err = io.Copy(tmp, content)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write photo %s: %w", base, err)
	}

	target := filepath.Join(dir, base)
	if err = os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}
	absolute, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	ref := (&url.URL{Scheme: "file", Path: filepath.ToSlash(absolute)}).String()
	s.log.Debug("Photo uploaded", "name", base, "mime", detected, "url", ref)
	return ref, nil
}
