// Package gmail wraps the Gmail API surface the sync pipeline consumes:
// watch registration, incremental history listing and full message fetch.
package gmail

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/alexey192/calendarit/internal/models"
)

const user = "me"

// Provider creates per-account clients. Implemented by Factory; faked in
// service tests.
type Provider interface {
	ClientFor(ctx context.Context, account *models.MailAccount) (Client, error)
}

// Client is the per-account provider surface used by the orchestrator and
// the subscription registrar.
type Client interface {
	// Watch registers the push watch on the inbox and returns the seed
	// cursor for future history listings.
	Watch(ctx context.Context) (string, error)

	// ListAddedMessages returns the ids of messages added since
	// startCursor, in provider delivery order.
	ListAddedMessages(ctx context.Context, startCursor string) ([]string, error)

	// GetMessage fetches one message with its full payload tree.
	GetMessage(ctx context.Context, id string) (*gmailapi.Message, error)

	// GetRawMessage fetches the RFC 2822 bytes of one message for the
	// MIME-parser fallback path.
	GetRawMessage(ctx context.Context, id string) ([]byte, error)

	// Token returns the current oauth2 token, which may have been
	// refreshed since the client was built.
	Token() (*oauth2.Token, error)
}

// Factory builds clients from the application OAuth config plus an
// account's stored credential pair.
type Factory struct {
	oauthConfig *oauth2.Config
	topic       string
}

// NewFactory creates a client factory. topic is the fully qualified
// Pub/Sub topic the watch publishes notifications to.
func NewFactory(oauthConfig *oauth2.Config, topic string) *Factory {
	return &Factory{oauthConfig: oauthConfig, topic: topic}
}

// ClientFor builds a Gmail client authenticated as the given account
func (f *Factory) ClientFor(ctx context.Context, account *models.MailAccount) (Client, error) {
	ts := f.oauthConfig.TokenSource(ctx, &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
	})

	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &client{srv: srv, tokenSource: ts, topic: f.topic}, nil
}

type client struct {
	srv         *gmailapi.Service
	tokenSource oauth2.TokenSource
	topic       string
}

func (c *client) Watch(ctx context.Context) (string, error) {
	resp, err := c.srv.Users.Watch(user, &gmailapi.WatchRequest{
		LabelIds:  []string{"INBOX"},
		TopicName: c.topic,
	}).Context(ctx).Do()
	if err != nil {
		return "", classifyError(err, "watch registration")
	}
	return strconv.FormatUint(resp.HistoryId, 10), nil
}

func (c *client) ListAddedMessages(ctx context.Context, startCursor string) ([]string, error) {
	start, err := strconv.ParseUint(startCursor, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid sync cursor %q: %w", startCursor, err)
	}

	var ids []string
	pageToken := ""
	for {
		call := c.srv.Users.History.List(user).
			StartHistoryId(start).
			HistoryTypes("messageAdded").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, classifyHistoryError(err)
		}

		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message != nil {
					ids = append(ids, added.Message.Id)
				}
			}
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (c *client) GetMessage(ctx context.Context, id string) (*gmailapi.Message, error) {
	msg, err := c.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err, "message fetch")
	}
	return msg, nil
}

func (c *client) GetRawMessage(ctx context.Context, id string) ([]byte, error) {
	msg, err := c.srv.Users.Messages.Get(user, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err, "raw message fetch")
	}
	return decodeBase64(msg.Raw), nil
}

func (c *client) Token() (*oauth2.Token, error) {
	return c.tokenSource.Token()
}
