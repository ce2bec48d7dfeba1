// Package attachment owns the lifecycle of the single file a document may
// carry: validation, storage under a collision-free key, streaming back and
// best-effort removal.
package attachment

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"docfiling/internal/apperr"
	"docfiling/internal/config"
	"docfiling/internal/metrics"
	"docfiling/internal/model"
	"docfiling/internal/storage"
)

// MsgInvalidAttachment prefixes every rejection of an upload.
const MsgInvalidAttachment = "invalid attachment"

// sniffLen is how much of an upload is inspected when no usable content type was declared.
const sniffLen = 3072

// allowedTypes maps accepted media types to the extension used when the
// original filename has none.
var allowedTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"text/plain":         ".txt",
	"image/jpeg":         ".jpg",
	"image/jpg":          ".jpg",
	"image/png":          ".png",

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// Upload is a file offered with a create or update request. Size is the
// declared length, or -1 when unknown.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// Context places a stored object; it only shapes the key.
type Context struct {
	DepartmentID string
	RefNo        string
	Year         int
}

// Object is an opened attachment.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
	Size        int64
}

// Manager stores attachments in a storage backend.
type Manager struct {
	store   storage.Storage
	cfg     config.AttachmentConfig
	log     logrus.FieldLogger
	metrics *metrics.Domain
	now     func() time.Time
}

// NewManager creates a Manager that writes through store.
func NewManager(store storage.Storage, cfg config.AttachmentConfig, log logrus.FieldLogger, m *metrics.Domain) *Manager {
	return &Manager{store: store, cfg: cfg, log: log, metrics: m, now: time.Now}
}

func invalid(format string, args ...any) error {
	return apperr.New(apperr.KindInvalidInput, MsgInvalidAttachment+": "+fmt.Sprintf(format, args...))
}

// normalizeType strips parameters and lowercases a media type.
func normalizeType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

// Validate checks the declared type and size of u without reading it.
func (m *Manager) Validate(u *Upload) error {
	if u == nil || u.Reader == nil {
		return invalid("no file content")
	}
	if u.Size > m.cfg.MaxBytes {
		return invalid("file exceeds %d bytes", m.cfg.MaxBytes)
	}
	if u.Size == 0 {
		return invalid("file is empty")
	}
	ct := normalizeType(u.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		return nil
	}
	if _, ok := allowedTypes[ct]; !ok {
		return invalid("content type %q is not allowed", ct)
	}
	return nil
}

// sniff resolves a missing or generic content type from the first bytes of r.
func sniff(u *Upload) (string, io.Reader, error) {
	ct := normalizeType(u.ContentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct, u.Reader, nil
	}
	br := bufio.NewReaderSize(u.Reader, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", nil, err
	}
	return normalizeType(mimetype.Detect(head).String()), br, nil
}

// sanitize keeps key segments to a portable alphabet.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// Key returns the object key for a file. Every file id yields a distinct
// key, so a replacement never overwrites the object it replaces.
func Key(c Context, fileID, ext string) string {
	return path.Join("documents", sanitize(c.DepartmentID), fmt.Sprintf("%04d", c.Year), sanitize(c.RefNo)+"-"+fileID+ext)
}

// Save validates and stores u. Any storage failure is returned; the caller
// must not touch the document record in that case.
func (m *Manager) Save(ctx context.Context, u *Upload, c Context) (model.AttachmentRef, error) {
	if err := m.Validate(u); err != nil {
		return model.AttachmentRef{}, err
	}
	ct, r, err := sniff(u)
	if err != nil {
		return model.AttachmentRef{}, fmt.Errorf("read attachment: %w", err)
	}
	fallbackExt, ok := allowedTypes[ct]
	if !ok {
		return model.AttachmentRef{}, invalid("content type %q is not allowed", ct)
	}

	ext := strings.ToLower(path.Ext(u.Filename))
	if ext == "" || len(ext) > 8 {
		ext = fallbackExt
	}
	if c.Year == 0 {
		c.Year = m.now().Year()
	}
	fileID := uuid.NewString()
	key := Key(c, fileID, sanitize(ext))

	// One byte over the limit is enough to reject streams of unknown size.
	limited := io.LimitReader(r, m.cfg.MaxBytes+1)
	info, err := m.store.Put(ctx, key, limited, storage.PutObjectOptions{
		Size:        u.Size,
		ContentType: ct,
		Metadata:    map[string]string{"original-filename": u.Filename},
	})
	if err != nil {
		return model.AttachmentRef{}, apperr.Wrap(apperr.KindStorageUnavailable, "store attachment", err)
	}
	if info.Size > m.cfg.MaxBytes {
		m.Delete(ctx, key)
		return model.AttachmentRef{}, invalid("file exceeds %d bytes", m.cfg.MaxBytes)
	}

	size := info.Size
	if size <= 0 {
		size = u.Size
	}
	return model.AttachmentRef{
		FileID:      fileID,
		Path:        key,
		ContentType: ct,
		Filename:    path.Base(strings.ReplaceAll(u.Filename, `\`, "/")),
		Size:        size,
	}, nil
}

// Delete removes the object under key, retrying with a constant backoff. It
// never reports failure to the caller; the terminal error is logged and
// counted instead.
func (m *Manager) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	entry := m.log.WithFields(logrus.Fields{"component": "attachment", "file_path": key})

	attempts := m.cfg.DeleteAttempts
	if attempts == 0 {
		attempts = 1
	}
	backoffDelay := m.cfg.DeleteBackoff
	if backoffDelay <= 0 {
		backoffDelay = time.Millisecond
	}
	b := retry.WithMaxRetries(attempts-1, retry.NewConstant(backoffDelay))

	var attempt uint64
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := m.store.Delete(ctx, key); err != nil {
			entry.WithError(err).WithField("attempt", attempt).Warn("attachment_delete_attempt_failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		m.metrics.CleanupFailure("delete")
		entry.WithError(err).WithField("attempts", attempt).Error("attachment_delete_failed")
	}
}

// Open streams a stored attachment.
func (m *Manager) Open(ctx context.Context, ref model.AttachmentRef) (*Object, error) {
	body, info, err := m.store.Get(ctx, ref.Path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "attachment not found", err)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "open attachment", err)
	}
	ct := ref.ContentType
	if ct == "" {
		ct = info.ContentType
	}
	size := info.Size
	if size <= 0 {
		size = ref.Size
	}
	return &Object{Body: body, ContentType: ct, Filename: ref.Filename, Size: size}, nil
}

// PresignURL returns a time-limited download link. Backends without link
// support yield KindInvalidInput.
func (m *Manager) PresignURL(ctx context.Context, ref model.AttachmentRef) (string, time.Duration, error) {
	u, err := m.store.PresignGet(ctx, ref.Path, m.cfg.PresignExpiry)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			return "", 0, apperr.Wrap(apperr.KindInvalidInput, "download links are not available for this storage backend", err)
		}
		return "", 0, apperr.Wrap(apperr.KindStorageUnavailable, "presign attachment", err)
	}
	return u, m.cfg.PresignExpiry, nil
}
