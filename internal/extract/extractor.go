// Package extract turns raw email text into validated calendar-event
// drafts via a structured-extraction service.
package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/alexey192/calendarit/internal/models"
)

// timeLayout is the zone-less timestamp format the service is instructed
// to emit.
const timeLayout = "2006-01-02T15:04:05"

// defaultDuration is the end-time fallback for drafts that specify a
// start but no end.
const defaultDuration = time.Hour

// Candidate is the validated result of one extraction call. It exists only
// within a single processing call and is never persisted directly.
type Candidate struct {
	ContainsEvent bool
	Events        []Draft
}

// Draft is one validated, time-normalized event candidate. Start and End
// are UTC; End is nil exactly when Start is.
type Draft struct {
	Title           string
	Location        string
	Description     string
	Category        string
	Start           *time.Time
	End             *time.Time
	IsTimeSpecified bool
}

// Extractor validates and normalizes the untrusted output of a ChatClient
type Extractor struct {
	chat   ChatClient
	offset time.Duration
	logger *slog.Logger
}

// New creates an Extractor. offsetHours is the fixed local offset the
// service is instructed to emit timestamps in; persisted times are shifted
// back by it to UTC. This is a documented simplification, not timezone
// inference from email content.
func New(chat ChatClient, offsetHours int, logger *slog.Logger) *Extractor {
	return &Extractor{
		chat:   chat,
		offset: time.Duration(offsetHours) * time.Hour,
		logger: logger,
	}
}

// ExtractEvents runs one extraction call for a message's subject and body.
// Malformed or schema-violating service output degrades to zero events;
// only service unavailability is returned as an error, and the caller
// scopes that to the single message.
func (e *Extractor) ExtractEvents(ctx context.Context, subject, body string) (Candidate, error) {
	prompt := buildPrompt(subject, body, int(e.offset/time.Hour))

	text, err := e.chat.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return Candidate{}, err
	}

	return e.parse(text), nil
}

// rawCandidate mirrors the expected response shape with everything
// optional, so field presence can be checked instead of trusted.
type rawCandidate struct {
	ContainsEvent *bool           `json:"containsEvent"`
	Events        json.RawMessage `json:"events"`
}

type rawDraft struct {
	Title           *string `json:"title"`
	Location        *string `json:"location"`
	Description     *string `json:"description"`
	Category        *string `json:"category"`
	Start           *string `json:"start"`
	End             *string `json:"end"`
	IsTimeSpecified *bool   `json:"isTimeSpecified"`
}

func (e *Extractor) parse(text string) Candidate {
	cleaned := stripCodeFence(text)

	var raw rawCandidate
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		e.logger.Warn("extraction response is not valid JSON, skipping message",
			slog.String("error", err.Error()))
		return Candidate{}
	}

	if raw.ContainsEvent == nil || !*raw.ContainsEvent {
		return Candidate{}
	}

	var drafts []rawDraft
	if len(raw.Events) == 0 || json.Unmarshal(raw.Events, &drafts) != nil {
		e.logger.Warn("extraction response has no usable events list")
		return Candidate{ContainsEvent: true}
	}

	candidate := Candidate{ContainsEvent: true}
	for i, d := range drafts {
		draft, ok := e.validate(d)
		if !ok {
			e.logger.Warn("rejecting malformed event draft", slog.Int("index", i))
			continue
		}
		candidate.Events = append(candidate.Events, draft)
	}
	return candidate
}

// validate applies the per-draft schema rules and time normalization.
// Rejection is per-event; one bad draft never discards its siblings.
func (e *Extractor) validate(raw rawDraft) (Draft, bool) {
	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		return Draft{}, false
	}
	if raw.Description == nil || strings.TrimSpace(*raw.Description) == "" {
		return Draft{}, false
	}
	if raw.Category == nil || !models.IsValidCategory(*raw.Category) {
		return Draft{}, false
	}

	draft := Draft{
		Title:       strings.TrimSpace(*raw.Title),
		Description: strings.TrimSpace(*raw.Description),
		Category:    *raw.Category,
	}
	if raw.Location != nil {
		draft.Location = strings.TrimSpace(*raw.Location)
	}
	if raw.IsTimeSpecified != nil {
		draft.IsTimeSpecified = *raw.IsTimeSpecified
	}

	draft.Start = e.parseTime(raw.Start)
	draft.End = e.parseTime(raw.End)

	// End is null exactly when Start is. A lone start with a concrete
	// time claim gets the one-hour fallback; without the claim the
	// timestamp is noise and the whole time is treated as unspecified.
	switch {
	case draft.Start == nil:
		draft.End = nil
	case draft.End == nil && draft.IsTimeSpecified:
		end := draft.Start.Add(defaultDuration)
		draft.End = &end
	case draft.End == nil:
		draft.Start = nil
	}

	return draft, true
}

// parseTime reads a zone-less timestamp in the assumed local offset and
// converts it to UTC. Unparseable values degrade to nil.
func (e *Extractor) parseTime(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, strings.TrimSpace(*value))
	if err != nil {
		e.logger.Warn("unparseable timestamp in event draft", slog.String("value", *value))
		return nil
	}
	utc := t.Add(-e.offset).UTC()
	return &utc
}

// stripCodeFence removes a leading/trailing markdown code fence if present.
// A tolerance rule for a service that sometimes wraps its JSON, not a
// schema requirement.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && !strings.HasPrefix(s, "{") {
		// Drop a language tag such as "json" on the fence line.
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
