package gmail

import (
	"encoding/base64"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

// ExtractBody walks a message's MIME part tree and returns the decoded
// payload of the first text/plain or text/html leaf that carries one.
// HTML is returned as-is; downstream extraction tolerates markup noise.
// Returns "" when no such leaf exists. Malformed or absent payloads are
// a normal, silent case and never produce an error.
//
// The traversal is an explicit depth-first worklist, so arbitrarily
// nested multipart trees cannot exhaust the call stack.
func ExtractBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}

	stack := []*gmailapi.MessagePart{payload}
	for len(stack) > 0 {
		part := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if part == nil {
			continue
		}

		if isTextPart(part.MimeType) && part.Body != nil && part.Body.Data != "" {
			if text := decodeBase64(part.Body.Data); len(text) > 0 {
				return string(text)
			}
		}

		// Children pushed in reverse so the first child is visited first.
		for i := len(part.Parts) - 1; i >= 0; i-- {
			stack = append(stack, part.Parts[i])
		}
	}

	return ""
}

// Subject returns the Subject header of a full-format message, or ""
func Subject(msg *gmailapi.Message) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if h.Name == "Subject" {
			return h.Value
		}
	}
	return ""
}

func isTextPart(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	return mt == "text/plain" || mt == "text/html"
}

// decodeBase64 decodes the provider's URL-safe base64, tolerating both
// padded and unpadded forms. Undecodable input yields nil.
func decodeBase64(data string) []byte {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return b
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return b
	}
	return nil
}
