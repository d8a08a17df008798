package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"studydocs/internal/config"
	"studydocs/internal/identity"
	"studydocs/internal/logging"
	"studydocs/internal/metrics"
	"studydocs/internal/model"
	"studydocs/internal/policy"
	"studydocs/internal/repository"
	"studydocs/internal/storage"
)

// Disposition tells the client to save the content or render it in place.
type Disposition string

const (
	Attachment Disposition = "attachment"
	Inline     Disposition = "inline"
)

// Delivery is the outcome of a delivery request: either a body to stream or a URL to redirect to.
// When Body is set the receiver owns it and must close it.
type Delivery struct {
	ContentType        string
	ContentDisposition string
	Body               io.ReadCloser
	Size               int64
	RedirectURL        string
}

// Redirect reports whether the content must be fetched from RedirectURL.
func (d *Delivery) Redirect() bool { return d.RedirectURL != "" }

// DeliveryService streams stored content to authorized callers.
type DeliveryService interface {
	// Deliver authorizes the caller on the document and opens its content. When the remote backend
	// fails transiently a short-lived signed URL is returned instead.
	Deliver(ctx context.Context, caller identity.Caller, id string, disposition Disposition) (*Delivery, error)

	// DeliverAvatar opens a student's avatar for inline display.
	DeliverAvatar(ctx context.Context, caller identity.Caller, studentID string) (*Delivery, error)
}

type deliveryService struct {
	docs     DocumentService
	profiles repository.ProfileRepository
	store    storage.Storage
	ttl      time.Duration
	log      *logging.Logger
	tracer   trace.Tracer
}

// NewDeliveryService constructs a DeliveryService. Document authorization goes through docs.
func NewDeliveryService(docs DocumentService, profiles repository.ProfileRepository, store storage.Storage, cfg config.StorageConfig, log *logging.Logger) DeliveryService {
	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = config.DefaultSignedURLTTL
	}
	return &deliveryService{
		docs:     docs,
		profiles: profiles,
		store:    store,
		ttl:      ttl,
		log:      log,
		tracer:   otel.Tracer("studydocs/delivery"),
	}
}

func (s *deliveryService) Deliver(ctx context.Context, caller identity.Caller, id string, disposition Disposition) (*Delivery, error) {
	ctx, span := s.tracer.Start(ctx, "delivery.Deliver", trace.WithAttributes(
		attribute.String("document.id", id),
		attribute.String("delivery.disposition", string(disposition)),
	))
	defer span.End()

	op := policy.OpDownload
	if disposition == Inline {
		op = policy.OpView
	}
	doc, err := s.docs.GetFor(ctx, caller, id, op)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	d, err := s.open(ctx, doc.Location, doc.Name, ContentTypeFor(doc.MediaKind, doc.Name), disposition)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("delivery.redirect", d.Redirect()))
	return d, nil
}

func (s *deliveryService) DeliverAvatar(ctx context.Context, caller identity.Caller, studentID string) (*Delivery, error) {
	ctx, span := s.tracer.Start(ctx, "delivery.DeliverAvatar", trace.WithAttributes(
		attribute.String("student.id", studentID),
	))
	defer span.End()

	if caller.Role() == "" {
		return nil, identity.ErrNotAuthenticated
	}
	profile, err := findProfile(ctx, s.profiles, studentID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if profile.Avatar == nil {
		return nil, ErrNotFound
	}

	name := "avatar." + extension(profile.Avatar.Key)
	d, err := s.open(ctx, *profile.Avatar, name, ContentTypeFor("", profile.Avatar.Key), Inline)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return d, nil
}

// open fetches the blob at loc. Only a transient failure of a backend that can sign URLs turns
// into a redirect; a missing blob is NotFound on every backend.
func (s *deliveryService) open(ctx context.Context, loc model.StorageLocation, name, contentType string, disposition Disposition) (*Delivery, error) {
	if loc.Backend != s.store.Kind() {
		return nil, ErrNotFound
	}

	body, info, err := s.store.Get(ctx, loc.Key)
	if err == nil {
		return &Delivery{
			ContentType:        contentType,
			ContentDisposition: contentDisposition(disposition, name),
			Body:               body,
			Size:               info.Size,
		}, nil
	}
	if body != nil {
		_ = body.Close()
	}

	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return nil, ErrNotFound
	case storage.IsTransient(err):
		signed, signErr := s.store.PresignGet(ctx, loc.Key, s.ttl)
		if signErr != nil {
			if !errors.Is(signErr, storage.ErrUnsupported) {
				s.log.Error("delivery", "presign_failed", signErr, map[string]any{"key": loc.Key})
			}
			return nil, fmt.Errorf("open blob: %w", err)
		}
		metrics.DeliveryFallbacks.WithLabelValues(string(loc.Backend)).Inc()
		s.log.Warn("delivery", "signed_url_fallback", map[string]any{
			"key":           loc.Key,
			"error_message": err.Error(),
			"ttl_seconds":   s.ttl.Seconds(),
		})
		return &Delivery{RedirectURL: signed}, nil
	default:
		return nil, fmt.Errorf("open blob: %w", err)
	}
}

// contentDisposition builds the header value. Quotes and line breaks are dropped from the name so
// the header cannot be split or broken out of.
func contentDisposition(d Disposition, name string) string {
	if d != Inline {
		d = Attachment
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '"', '\r', '\n', '\\':
			return -1
		}
		return r
	}, name)
	return fmt.Sprintf(`%s; filename="%s"`, d, clean)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
