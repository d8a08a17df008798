package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"studydocs/internal/config"
	"studydocs/internal/identity"
	"studydocs/internal/logging"
	"studydocs/internal/metrics"
	"studydocs/internal/model"
	"studydocs/internal/policy"
	"studydocs/internal/repository"
	"studydocs/internal/storage"
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// UploadInput describes one uploaded file.
//   - Filename is the client's name for the file; it is kept as the document name and its extension
//     decides the stored key suffix, never the path.
//   - MediaKind is the optional declared kind ("transcript.pdf" uploaded as "pdf"); the extension is
//     used when empty.
//   - OwnerOverride is the target student when an admin or advisor uploads on someone's behalf.
type UploadInput struct {
	Reader        io.Reader
	Filename      string
	ContentType   string
	Size          int64
	MediaKind     string
	OwnerOverride string
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates the file, stores it, and saves its metadata. If saving metadata fails the
	// stored blob is removed before the error is returned.
	Upload(ctx context.Context, caller identity.Caller, in UploadInput) (*model.Document, error)

	// List returns every document using limit/offset and a total count. Admins and advisors only.
	List(ctx context.Context, caller identity.Caller, limit, offset int) (*DocumentListResult, error)

	// ListByOwner returns the documents of one student.
	ListByOwner(ctx context.Context, caller identity.Caller, ownerID string) ([]model.Document, error)

	// ListMine returns the calling student's own documents.
	ListMine(ctx context.Context, caller identity.Caller) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, caller identity.Caller, id string) (*model.Document, error)

	// GetFor returns a document after authorizing op on it.
	GetFor(ctx context.Context, caller identity.Caller, id string, op policy.Operation) (*model.Document, error)

	// Delete removes the metadata record and then, best-effort, the stored blob.
	Delete(ctx context.Context, caller identity.Caller, id string) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	maxSize int64
	allowed map[string]struct{}
	log     *logging.Logger
	now     func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, cfg config.StorageConfig, log *logging.Logger) DocumentService {
	return &documentService{
		store:   store,
		repo:    repo,
		maxSize: maxUploadBytes(cfg),
		allowed: allowSet(cfg.AllowedExtensions),
		log:     log,
		now:     time.Now,
	}
}

func maxUploadBytes(cfg config.StorageConfig) int64 {
	if cfg.MaxUploadBytes <= 0 {
		return config.DefaultMaxUploadBytes
	}
	return cfg.MaxUploadBytes
}

func allowSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = config.DefaultAllowedExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[normalizeKind(e)] = struct{}{}
	}
	return set
}

func (s *documentService) Upload(ctx context.Context, caller identity.Caller, in UploadInput) (*model.Document, error) {
	owner, err := targetOwner(caller, in.OwnerOverride)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeCaller(policy.OpUpload, caller, owner); err != nil {
		return nil, err
	}

	body, ext, err := checkFile(in, s.maxSize, s.allowed)
	if err != nil {
		return nil, err
	}

	name := displayName(in.Filename)
	kind := normalizeKind(in.MediaKind)
	if kind == "" {
		kind = ext
	}
	contentType := ContentTypeFor(kind, name)
	key := "documents/" + uuid.New().String() + "." + ext

	// Upload to object storage
	_, err = s.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": url.QueryEscape(name),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	// Save metadata to database
	doc := &model.Document{
		ID:          uuid.New().String(),
		Name:        name,
		Location:    model.StorageLocation{Backend: s.store.Kind(), Key: key},
		MediaKind:   kind,
		ContentType: contentType,
		Size:        in.Size,
		OwnerID:     owner,
		UploadedBy:  caller.ID(),
		CreatedAt:   s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := cleanupBlob(ctx, s.store, s.log, "upload", key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %w; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// targetOwner resolves whose document an upload creates: students always upload for themselves,
// admins and advisors must name the student.
func targetOwner(caller identity.Caller, override string) (string, error) {
	switch caller.Role() {
	case model.RoleStudent:
		owner, err := caller.OwnerID()
		if err != nil {
			return "", err
		}
		if _, err := uuid.Parse(owner); err != nil {
			return "", ErrInvalidOwnerID
		}
		return owner, nil
	case model.RoleAdmin, model.RoleAdvisor:
		override = strings.TrimSpace(override)
		if override == "" {
			return "", ErrOwnerRequired
		}
		if _, err := uuid.Parse(override); err != nil {
			return "", ErrInvalidOwnerID
		}
		return override, nil
	case "":
		return "", identity.ErrNotAuthenticated
	default:
		return "", policy.ErrForbidden
	}
}

// checkFile enforces the size limit, the extension and declared type allow-lists, and the
// signature of known binary formats. It returns a reader positioned at the start of the content.
func checkFile(in UploadInput, maxSize int64, allowed map[string]struct{}) (io.Reader, string, error) {
	if in.Reader == nil || strings.TrimSpace(in.Filename) == "" {
		return nil, "", ErrFileRequired
	}
	if in.Size < 0 {
		return nil, "", ErrInvalidFileSize
	}
	if in.Size > maxSize {
		return nil, "", ErrFileTooLarge
	}
	ext := extension(in.Filename)
	if _, ok := allowed[ext]; !ok || ext == "" {
		return nil, "", ErrFileTypeNotAllowed
	}
	if !declaredTypeAllowed(in.ContentType) {
		return nil, "", ErrFileTypeNotAllowed
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if !signatureMatches(ext, head) {
		return nil, "", ErrFileContentMismatch
	}

	// Rewind seekable sources so the backend can still sign and size the body.
	if rs, ok := in.Reader.(io.ReadSeeker); ok {
		if _, err := rs.Seek(-int64(n), io.SeekCurrent); err == nil {
			return rs, ext, nil
		}
	}
	return io.MultiReader(bytes.NewReader(head), in.Reader), ext, nil
}

// displayName strips any client-side directory from the uploaded filename.
func displayName(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// cleanupBlob makes one best-effort delete. Failures are logged and counted, never retried.
func cleanupBlob(ctx context.Context, store storage.Storage, log *logging.Logger, op, key string) error {
	err := store.Delete(context.WithoutCancel(ctx), key)
	if err != nil {
		metrics.BlobCleanupFailures.WithLabelValues(op).Inc()
		log.Error("registry", "blob_cleanup_failed", err, map[string]any{"operation": op, "key": key})
	}
	return err
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, caller identity.Caller, limit, offset int) (*DocumentListResult, error) {
	if err := policy.AuthorizeCaller(policy.OpList, caller, ""); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) ListByOwner(ctx context.Context, caller identity.Caller, ownerID string) ([]model.Document, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return nil, ErrInvalidOwnerID
	}
	if err := policy.AuthorizeCaller(policy.OpList, caller, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *documentService) ListMine(ctx context.Context, caller identity.Caller) ([]model.Document, error) {
	if caller.Role() == "" {
		return nil, identity.ErrNotAuthenticated
	}
	if caller.Role() != model.RoleStudent {
		return nil, policy.ErrForbidden
	}
	owner, err := caller.OwnerID()
	if err != nil {
		return nil, err
	}
	return s.ListByOwner(ctx, caller, owner)
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, caller identity.Caller, id string) (*model.Document, error) {
	return s.GetFor(ctx, caller, id, policy.OpRead)
}

func (s *documentService) GetFor(ctx context.Context, caller identity.Caller, id string, op policy.Operation) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidDocumentID
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := policy.AuthorizeCaller(op, caller, doc.OwnerID); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the record first; the record is authoritative, so a failure there is returned and
// the blob is left alone. Blob removal afterwards is best-effort.
func (s *documentService) Delete(ctx context.Context, caller identity.Caller, id string) error {
	doc, err := s.GetFor(ctx, caller, id, policy.OpDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if doc.Location.Backend != s.store.Kind() {
		s.log.Warn("registry", "blob_backend_mismatch", map[string]any{
			"document_id": doc.ID,
			"backend":     string(doc.Location.Backend),
		})
		return nil
	}
	_ = cleanupBlob(ctx, s.store, s.log, "delete", doc.Location.Key)
	return nil
}
