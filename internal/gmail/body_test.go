package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	gmailapi "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func textPart(mimeType, data string) *gmailapi.MessagePart {
	return &gmailapi.MessagePart{
		MimeType: mimeType,
		Body:     &gmailapi.MessagePartBody{Data: data},
	}
}

func TestExtractBody_PlainTextLeaf(t *testing.T) {
	payload := textPart("text/plain", b64("Dinner at 7pm"))
	assert.Equal(t, "Dinner at 7pm", ExtractBody(payload))
}

func TestExtractBody_HTMLReturnedAsIs(t *testing.T) {
	html := "<html><body><b>Concert</b> on Friday</body></html>"
	payload := textPart("text/html", b64(html))
	assert.Equal(t, html, ExtractBody(payload))
}

func TestExtractBody_NestedMultipart_FirstLeafWins(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmailapi.MessagePart{
					textPart("text/plain", b64("plain version")),
					textPart("text/html", b64("<p>html version</p>")),
				},
			},
			textPart("text/plain", b64("attachment cover note")),
		},
	}

	assert.Equal(t, "plain version", ExtractBody(payload))
}

func TestExtractBody_SkipsTextLeafWithoutPayload(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/plain"}, // container stub, no body
			textPart("text/html", b64("<p>fallback</p>")),
		},
	}

	assert.Equal(t, "<p>fallback</p>", ExtractBody(payload))
}

func TestExtractBody_NoTextLeaf(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			textPart("image/png", b64("not text")),
			textPart("application/pdf", b64("not text either")),
		},
	}

	assert.Equal(t, "", ExtractBody(payload))
}

func TestExtractBody_MalformedPayloadIsSilent(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			textPart("text/plain", "!!not-base64!!"),
			textPart("text/plain", b64("readable fallback")),
		},
	}

	assert.Equal(t, "readable fallback", ExtractBody(payload))
}

func TestExtractBody_UnpaddedBase64(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("meeting invite"))
	payload := textPart("text/plain", raw)
	assert.Equal(t, "meeting invite", ExtractBody(payload))
}

func TestExtractBody_NilPayload(t *testing.T) {
	assert.Equal(t, "", ExtractBody(nil))
}

func TestExtractBody_DeeplyNestedTree(t *testing.T) {
	leaf := textPart("text/plain", b64("buried invitation"))
	node := leaf
	for i := 0; i < 500; i++ {
		node = &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Parts:    []*gmailapi.MessagePart{node},
		}
	}

	assert.Equal(t, "buried invitation", ExtractBody(node))
}

func TestSubject(t *testing.T) {
	msg := &gmailapi.Message{
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "alice@example.com"},
				{Name: "Subject", Value: "Invitation: Standup"},
			},
		},
	}
	assert.Equal(t, "Invitation: Standup", Subject(msg))
	assert.Equal(t, "", Subject(&gmailapi.Message{}))
	assert.Equal(t, "", Subject(nil))
}
