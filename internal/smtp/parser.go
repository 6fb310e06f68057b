package smtp

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/mail"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
)

const snippetLimit = 255

var (
	scriptStyleRe = regexp.MustCompile(`(?i)<(script|style)[^>]*>[\s\S]*?</\1>`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
)

// ParsedEmail is a forwarded email reduced to the fields the extraction
// pipeline needs.
type ParsedEmail struct {
	SenderEmail string
	SenderName  string
	MessageID   string
	Subject     string
	Snippet     string
	BodyText    string
	BodyHTML    string
}

// Body returns the text used for extraction: plain text when present,
// otherwise the raw HTML.
func (p *ParsedEmail) Body() string {
	if strings.TrimSpace(p.BodyText) != "" {
		return p.BodyText
	}
	return p.BodyHTML
}

// ParseEmail reads a MIME message and flattens it into a ParsedEmail.
// Emails without a Message-ID get a synthetic one derived from their
// content, so re-forwarding the same email still deduplicates.
func ParseEmail(r io.Reader) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{
		Subject:  env.GetHeader("Subject"),
		BodyText: env.Text,
		BodyHTML: env.HTML,
	}

	parsed.SenderName, parsed.SenderEmail = parseFromHeader(env.GetHeader("From"))
	parsed.SenderEmail = strings.ToLower(parsed.SenderEmail)

	parsed.MessageID = strings.Trim(strings.TrimSpace(env.GetHeader("Message-ID")), "<>")
	if parsed.MessageID == "" {
		parsed.MessageID = syntheticMessageID(parsed.Subject, parsed.Body())
	}

	parsed.Snippet = generateSnippet(parsed.BodyText, parsed.BodyHTML)
	return parsed, nil
}

// parseFromHeader splits a From header into display name and address.
// Unparseable headers fall back to treating the whole value as the
// address so the caller can still attempt a lookup.
func parseFromHeader(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", from
	}
	return addr.Name, addr.Address
}

func syntheticMessageID(subject, body string) string {
	sum := sha256.Sum256([]byte(subject + "\x00" + body))
	return "fwd-" + hex.EncodeToString(sum[:16])
}

// generateSnippet builds a short plain-text preview, preferring the text
// part and falling back to de-tagged HTML.
func generateSnippet(bodyText, bodyHTML string) string {
	text := bodyText
	if text == "" && bodyHTML != "" {
		text = stripHTMLTags(bodyHTML)
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) > snippetLimit {
		text = text[:snippetLimit-3] + "..."
	}
	return text
}

func stripHTMLTags(html string) string {
	html = scriptStyleRe.ReplaceAllString(html, "")
	html = tagRe.ReplaceAllString(html, " ")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return replacer.Replace(html)
}
