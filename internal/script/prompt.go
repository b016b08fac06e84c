package script

import (
	"fmt"
	"strings"

	"reelforge/internal/language"
)

const systemPrompt = `You are a scriptwriter for short, information-dense YouTube videos.
Respond with a single JSON object and nothing else. The object must contain
exactly these keys:
  "title": a click-worthy video title under 70 characters
  "hook": one or two opening sentences that state why the viewer should stay
  "sections": a list of 3 to 6 objects, each with "heading", "body" and
    "b_roll" (a short stock-footage search phrase for the section)
  "cta": a closing call to action
  "tags": a list of 5 to 12 search tags
  "shorts": a list of 1 to 3 standalone quotes suitable for vertical clips
Every section key must be present even when its value is an empty string.
If the topic cannot be covered responsibly, respond with
{"error": "content_not_allowed", "reason": "<short explanation>"} instead.`

// UserPrompt builds the per-job request embedded in the chat completion.
func UserPrompt(topic, niche, lang string, lengthSeconds int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a narration script about: %s\n", strings.TrimSpace(topic))
	if niche = strings.TrimSpace(niche); niche != "" {
		fmt.Fprintf(&b, "Channel niche: %s\n", niche)
	}
	fmt.Fprintf(&b, "Language: %s\n", language.DisplayName(lang))
	if lengthSeconds <= 0 {
		lengthSeconds = 60
	}
	fmt.Fprintf(&b, "Target narration length: about %d seconds when read aloud.\n", lengthSeconds)
	b.WriteString("Return only the JSON object described in the instructions.")
	return b.String()
}
