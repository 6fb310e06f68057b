package extract

import (
	"fmt"
	"strings"
)

// systemPrompt is the fixed instruction sent with every extraction call.
const systemPrompt = "You extract calendar events from emails."

// promptTemplate specifies the exact output contract. The service is told
// to emit timestamps in a fixed assumed local offset without timezone
// markers; normalization to UTC happens on our side.
const promptTemplate = `You are a smart assistant that reads the content of emails and extracts structured event information for a personal calendar.

Analyze the email below and respond with a single JSON object, and nothing else:

{
  "containsEvent": boolean,
  "events": [
    {
      "title": string,
      "location": string or null,
      "start": "YYYY-MM-DDTHH:MM:SS" or null,
      "end": "YYYY-MM-DDTHH:MM:SS" or null,
      "isTimeSpecified": boolean,
      "description": string,
      "category": one of %s
    }
  ]
}

Rules:
- "containsEvent" is true only if the email describes at least one real-world event a person could attend.
- Emit all timestamps in local time assuming UTC%+d, with no timezone suffix.
- If the email mentions an event without a concrete time, set "start" and "end" to null and "isTimeSpecified" to false.
- "description" is a short one- or two-sentence summary of the event.
- Do not invent events; promotional content without a concrete happening is not an event.
- Respond with JSON only, no explanations and no code fences.

Email subject:
%s

Email body:
%s`

var categoryList = []string{
	`"Sport"`, `"Music"`, `"Education"`, `"Work"`, `"Health"`,
	`"Arts & Culture"`, `"Social & Entertainment"`, `"Others"`,
}

// buildPrompt assembles the user prompt for one email
func buildPrompt(subject, body string, offsetHours int) string {
	return fmt.Sprintf(promptTemplate, strings.Join(categoryList, ", "), offsetHours, subject, body)
}
