package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/alexey192/calendarit/internal/errors"
	"github.com/alexey192/calendarit/internal/extract"
	"github.com/alexey192/calendarit/internal/gmail"
	"github.com/alexey192/calendarit/internal/models"
	"github.com/alexey192/calendarit/internal/repository"
	"github.com/alexey192/calendarit/internal/smtp"
	"github.com/alexey192/calendarit/internal/websocket"
)

// Notifier pushes new-event notifications to connected clients.
// Satisfied by the websocket hub.
type Notifier interface {
	BroadcastNewEvent(userID string, payload *websocket.NewEventPayload)
}

// SyncService defines the interface for the inbound message pipeline
type SyncService interface {
	// HandleNotification runs a sync pass for the account owning the
	// given address, advancing its cursor to historyID on success.
	HandleNotification(ctx context.Context, emailAddress, historyID string) error

	// SyncAccount runs one serialized pass for an account
	SyncAccount(ctx context.Context, account *models.MailAccount, toCursor string) error

	// IngestForwarded runs a forwarded email through the extraction
	// pipeline, outside any cursor bookkeeping.
	IngestForwarded(ctx context.Context, account *models.MailAccount, messageID, subject, body string) error
}

// SyncServiceConfig holds configuration for the sync service
type SyncServiceConfig struct {
	AccountRepo  repository.AccountRepository
	EventRepo    repository.EventRepository
	Provider     gmail.Provider
	Extractor    *extract.Extractor
	Notifier     Notifier
	DedupEnabled bool
	Logger       *slog.Logger
}

// syncService implements SyncService
type syncService struct {
	accounts  repository.AccountRepository
	events    repository.EventRepository
	provider  gmail.Provider
	extractor *extract.Extractor
	notifier  Notifier
	dedup     bool
	logger    *slog.Logger

	// locks serializes passes per account id
	locks keyedMutex
}

// NewSyncService creates a new SyncService instance
func NewSyncService(cfg *SyncServiceConfig) SyncService {
	return &syncService{
		accounts:  cfg.AccountRepo,
		events:    cfg.EventRepo,
		provider:  cfg.Provider,
		extractor: cfg.Extractor,
		notifier:  cfg.Notifier,
		dedup:     cfg.DedupEnabled,
		logger:    cfg.Logger,
	}
}

// persistError marks a durable-store failure. It fails the whole pass so
// the cursor is not advanced past a message that was never persisted.
type persistError struct {
	err error
}

func (e *persistError) Error() string {
	return e.err.Error()
}

func (e *persistError) Unwrap() error {
	return e.err
}

func isPersistError(err error) bool {
	var pe *persistError
	return errors.As(err, &pe)
}

// HandleNotification resolves the notified address and runs a sync pass
func (s *syncService) HandleNotification(ctx context.Context, emailAddress, historyID string) error {
	address := strings.ToLower(strings.TrimSpace(emailAddress))

	account, err := s.accounts.GetByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A stale watch on a disconnected account is not an error
			// worth redelivery; log and drop.
			s.logger.Warn("notification for unknown account", slog.String("email", address))
			return nil
		}
		return fmt.Errorf("failed to resolve account: %w", err)
	}

	return s.SyncAccount(ctx, account, historyID)
}

// SyncAccount runs one pass: list added messages since the stored cursor,
// process each, then compare-and-swap the cursor forward. Passes for the
// same account are serialized; overlapping triggers queue, and the CAS
// turns the later pass's advancement into a logged no-op.
func (s *syncService) SyncAccount(ctx context.Context, account *models.MailAccount, toCursor string) error {
	unlock := s.locks.lock(account.ID)
	defer unlock()

	// Re-read under the lock; a queued pass must see the cursor its
	// predecessor advanced.
	account, err := s.accounts.GetByID(ctx, account.UserID, account.ID)
	if err != nil {
		return fmt.Errorf("failed to reload account: %w", err)
	}

	client, err := s.provider.ClientFor(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to build provider client: %w", err)
	}

	fromCursor := account.SyncCursor
	if fromCursor == "" {
		// Never subscribed, or the cursor was wiped. Reseed via a fresh
		// watch; history before this point is unrecoverable.
		s.logger.Warn("account has no sync cursor, reseeding", slog.String("account_id", account.ID))
		return s.resubscribe(ctx, client, account)
	}

	messageIDs, err := client.ListAddedMessages(ctx, fromCursor)
	if err != nil {
		if errors.Is(err, apperrors.ErrCursorExpired) {
			s.logger.Warn("sync cursor expired, resubscribing",
				slog.String("account_id", account.ID),
				slog.String("cursor", fromCursor))
			return s.resubscribe(ctx, client, account)
		}
		return fmt.Errorf("failed to list history: %w", err)
	}

	processed := 0
	for _, id := range messageIDs {
		if err := s.processMessage(ctx, client, account, id); err != nil {
			if isPersistError(err) {
				// Cursor stays put so the provider's history replays
				// this message on the next pass.
				return fmt.Errorf("sync pass aborted: %w", err)
			}
			s.logger.Warn("skipping message",
				slog.String("account_id", account.ID),
				slog.String("message_id", id),
				slog.String("error", err.Error()))
			continue
		}
		processed++
	}

	s.persistRefreshedTokens(ctx, client, account)

	if toCursor != "" && toCursor != fromCursor {
		if err := s.accounts.AdvanceCursor(ctx, account.ID, fromCursor, toCursor); err != nil {
			if errors.Is(err, repository.ErrStaleCursor) {
				s.logger.Info("cursor already advanced by a concurrent pass",
					slog.String("account_id", account.ID))
				return nil
			}
			return fmt.Errorf("failed to advance cursor: %w", err)
		}
	}

	s.logger.Info("sync pass complete",
		slog.String("account_id", account.ID),
		slog.Int("messages", len(messageIDs)),
		slog.Int("processed", processed),
		slog.String("cursor", toCursor))

	return nil
}

// IngestForwarded runs the shared per-message tail for the SMTP channel
func (s *syncService) IngestForwarded(ctx context.Context, account *models.MailAccount, messageID, subject, body string) error {
	return s.ProcessInbound(ctx, account, models.SourceSMTP, messageID, subject, body)
}

// processMessage fetches one message and runs it through the shared tail.
// Fetch and extraction failures are scoped to this message.
func (s *syncService) processMessage(ctx context.Context, client gmail.Client, account *models.MailAccount, messageID string) error {
	msg, err := client.GetMessage(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to fetch message: %w", err)
	}

	subject := gmail.Subject(msg)
	body := gmail.ExtractBody(msg.Payload)

	if strings.TrimSpace(body) == "" {
		// Some messages only yield content through the raw RFC 2822
		// form; fall back to the MIME parser.
		raw, err := client.GetRawMessage(ctx, messageID)
		if err != nil {
			return fmt.Errorf("failed to fetch raw message: %w", err)
		}
		parsed, err := smtp.ParseEmail(strings.NewReader(string(raw)))
		if err != nil {
			return fmt.Errorf("failed to parse raw message: %w", err)
		}
		body = parsed.Body()
		if subject == "" {
			subject = parsed.Subject
		}
	}

	if strings.TrimSpace(subject) == "" && strings.TrimSpace(body) == "" {
		s.logger.Debug("message has no extractable content", slog.String("message_id", messageID))
		return nil
	}

	return s.ProcessInbound(ctx, account, models.SourceGmail, messageID, subject, body)
}

// ProcessInbound extracts events from one message and persists them. The
// returned error is a persistError only for durable-store failures;
// anything else is scoped to the message by the caller.
func (s *syncService) ProcessInbound(ctx context.Context, account *models.MailAccount, source, messageID, subject, body string) error {
	candidate, err := s.extractor.ExtractEvents(ctx, subject, body)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if !candidate.ContainsEvent || len(candidate.Events) == 0 {
		return nil
	}

	for i, draft := range candidate.Events {
		if s.dedup {
			exists, err := s.events.ExistsBySource(ctx, account.ID, messageID, i)
			if err != nil {
				return &persistError{err: fmt.Errorf("dedup lookup failed: %w", err)}
			}
			if exists {
				s.logger.Debug("skipping duplicate event",
					slog.String("message_id", messageID),
					slog.Int("index", i))
				continue
			}
		}

		event := &models.Event{
			ID:              uuid.NewString(),
			UserID:          account.UserID,
			AccountID:       account.ID,
			Source:          source,
			SourceMessageID: messageID,
			SourceIndex:     i,
			Title:           draft.Title,
			Location:        draft.Location,
			Description:     draft.Description,
			Category:        draft.Category,
			StartAt:         draft.Start,
			EndAt:           draft.End,
			IsTimeSpecified: draft.IsTimeSpecified,
			Status:          models.EventStatusPending,
		}

		if err := s.events.Create(ctx, event); err != nil {
			if errors.Is(err, repository.ErrDuplicateEntry) {
				// Lost a race with another writer for the same triple;
				// the event is persisted either way.
				continue
			}
			return &persistError{err: fmt.Errorf("failed to persist event: %w", err)}
		}

		s.logger.Info("event persisted",
			slog.String("event_id", event.ID),
			slog.String("account_id", account.ID),
			slog.String("source", source),
			slog.String("category", event.Category))

		if s.notifier != nil {
			s.notifier.BroadcastNewEvent(account.UserID, &websocket.NewEventPayload{
				ID:              event.ID,
				Title:           event.Title,
				Location:        event.Location,
				Category:        event.Category,
				StartAt:         event.StartAt,
				EndAt:           event.EndAt,
				IsTimeSpecified: event.IsTimeSpecified,
				Source:          event.Source,
			})
		}
	}

	return nil
}

// resubscribe registers a fresh watch and seeds the cursor from it
func (s *syncService) resubscribe(ctx context.Context, client gmail.Client, account *models.MailAccount) error {
	historyID, err := client.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-register watch: %w", err)
	}

	if err := s.accounts.SeedCursor(ctx, account.ID, historyID); err != nil {
		return fmt.Errorf("failed to seed cursor: %w", err)
	}

	s.logger.Info("watch re-registered",
		slog.String("account_id", account.ID),
		slog.String("cursor", historyID))

	return nil
}

// persistRefreshedTokens stores a token the provider rotated during the
// pass. Failure is logged, not fatal: the old token may still work and
// the next pass retries.
func (s *syncService) persistRefreshedTokens(ctx context.Context, client gmail.Client, account *models.MailAccount) {
	token, err := client.Token()
	if err != nil || token == nil {
		return
	}
	if token.AccessToken == "" || token.AccessToken == account.AccessToken {
		return
	}

	if err := s.accounts.UpdateTokens(ctx, account.ID, token.AccessToken, token.RefreshToken); err != nil {
		s.logger.Warn("failed to persist refreshed token",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()))
	}
}

// keyedMutex hands out one mutex per key. Entries are refcounted and
// dropped when the last holder unlocks, so the map is bounded by the
// number of in-flight passes, not by every account ever synced.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
