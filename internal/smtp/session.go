package smtp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-smtp"

	"github.com/alexey192/calendarit/internal/repository"
)

// Session handles one SMTP transaction. The sender of the forwarded
// email, not the envelope recipient, identifies the account: everyone
// forwards to the same ingest address.
type Session struct {
	backend    *Backend
	from       string
	recipients []string
}

func NewSession(backend *Backend) *Session {
	return &Session{backend: backend}
}

// AuthPlain accepts anything; the server only receives.
func (s *Session) AuthPlain(username, password string) error {
	return nil
}

func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	return nil
}

// Rcpt admits only the configured ingest domain; this server never
// relays.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	_, domainName, err := parseEmailAddress(to)
	if err != nil {
		return reject(550, smtp.EnhancedCode{5, 1, 1}, "Invalid recipient address")
	}
	if domainName != strings.ToLower(s.backend.ingestDomain) {
		return reject(550, smtp.EnhancedCode{5, 1, 1}, "Relay not permitted")
	}

	s.recipients = append(s.recipients, to)
	return nil
}

// Data parses the message, resolves the sender to a registered account
// and hands the content to the ingestion pipeline. Unregistered senders
// get a permanent rejection; infrastructure trouble gets a 451 so the
// forwarding server retries.
func (s *Session) Data(r io.Reader) error {
	log := s.backend.logger
	if len(s.recipients) == 0 {
		return reject(503, smtp.EnhancedCode{5, 5, 1}, "No recipients specified")
	}

	parsed, err := ParseEmail(r)
	if err != nil {
		if log != nil {
			log.Error("failed to parse email", slog.Any("error", err))
		}
		return reject(550, smtp.EnhancedCode{5, 6, 0}, "Failed to parse email")
	}

	sender := parsed.SenderEmail
	if sender == "" {
		sender = normalizeAddress(s.from)
	}

	ctx := context.Background()
	account, err := s.backend.accountRepo.GetByEmail(ctx, sender)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if log != nil {
			log.Warn("forwarded email from unregistered sender", slog.String("sender", sender))
		}
		return reject(550, smtp.EnhancedCode{5, 7, 1}, "Sender is not registered")
	case err != nil:
		return reject(451, smtp.EnhancedCode{4, 3, 0}, "Temporary error")
	}

	if err := s.backend.ingestor.IngestForwarded(ctx, account, parsed.MessageID, parsed.Subject, parsed.Body()); err != nil {
		if log != nil {
			log.Error("failed to ingest forwarded email",
				slog.String("sender", sender),
				slog.Any("error", err))
		}
		return reject(451, smtp.EnhancedCode{4, 3, 0}, "Temporary error")
	}

	if log != nil {
		log.Info("forwarded email ingested",
			slog.String("sender", sender),
			slog.String("subject", parsed.Subject))
	}
	return nil
}

func (s *Session) Reset() {
	s.from = ""
	s.recipients = nil
}

func (s *Session) Logout() error {
	return nil
}

func reject(code int, enhanced smtp.EnhancedCode, message string) *smtp.SMTPError {
	return &smtp.SMTPError{Code: code, EnhancedCode: enhanced, Message: message}
}

// normalizeAddress strips angle brackets and lowercases an address.
func normalizeAddress(address string) string {
	address = strings.TrimPrefix(address, "<")
	address = strings.TrimSuffix(address, ">")
	return strings.ToLower(strings.TrimSpace(address))
}

// parseEmailAddress splits an address into local part and domain.
func parseEmailAddress(address string) (localPart, domain string, err error) {
	address = normalizeAddress(address)

	local, dom, found := strings.Cut(address, "@")
	if !found || local == "" || dom == "" {
		return "", "", fmt.Errorf("invalid email address: %s", address)
	}
	return local, dom, nil
}
