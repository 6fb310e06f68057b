// Package smtp accepts forwarded emails over SMTP as a secondary ingest
// channel. A user forwards a message to the ingest address and it flows
// through the same extraction pipeline as Gmail push notifications.
package smtp

import (
	"context"
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/emersion/go-smtp"

	"github.com/alexey192/calendarit/internal/models"
	"github.com/alexey192/calendarit/internal/repository"
)

const (
	DefaultMaxMessageSize = 25 * 1024 * 1024 // 25 MB
	DefaultMaxRecipients  = 10
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxLineLength  = 2000
)

// Ingestor runs one forwarded email through the extraction pipeline.
// Implemented by the sync service.
type Ingestor interface {
	IngestForwarded(ctx context.Context, account *models.MailAccount, messageID, subject, body string) error
}

// Backend hands each connection a session bound to the account repo and
// the ingestion pipeline.
type Backend struct {
	accountRepo  repository.AccountRepository
	ingestor     Ingestor
	ingestDomain string
	logger       *slog.Logger
}

type BackendConfig struct {
	AccountRepo  repository.AccountRepository
	Ingestor     Ingestor
	IngestDomain string
	Logger       *slog.Logger
}

func NewBackend(cfg *BackendConfig) *Backend {
	return &Backend{
		accountRepo:  cfg.AccountRepo,
		ingestor:     cfg.Ingestor,
		ingestDomain: cfg.IngestDomain,
		logger:       cfg.Logger,
	}
}

func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	if b.logger != nil {
		b.logger.Info("new SMTP connection", slog.String("remote_addr", c.Conn().RemoteAddr().String()))
	}
	return NewSession(b), nil
}

// ServerConfig carries listener settings. Zero values fall back to the
// package defaults.
type ServerConfig struct {
	Addr           string
	Domain         string
	MaxMessageSize int64
	MaxRecipients  int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowInsecure  bool
	TLSConfig      *tls.Config
}

// NewSecureServer builds a go-smtp server with size, recipient and line
// limits applied. Insecure auth stays off unless explicitly allowed.
func NewSecureServer(backend *Backend, cfg *ServerConfig) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = cfg.Addr
	s.Domain = cfg.Domain
	s.MaxMessageBytes = defaultInt64(cfg.MaxMessageSize, DefaultMaxMessageSize)
	s.MaxRecipients = defaultInt(cfg.MaxRecipients, DefaultMaxRecipients)
	s.ReadTimeout = defaultDuration(cfg.ReadTimeout, DefaultReadTimeout)
	s.WriteTimeout = defaultDuration(cfg.WriteTimeout, DefaultWriteTimeout)
	s.MaxLineLength = DefaultMaxLineLength
	s.AllowInsecureAuth = cfg.AllowInsecure
	s.TLSConfig = cfg.TLSConfig

	return s
}

func defaultInt64(v, fallback int64) int64 {
	if v > 0 {
		return v
	}
	return fallback
}

func defaultInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func defaultDuration(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
