// Package assistant extracts proposed form updates from the AI assistant's
// free-form reply text. The assistant embeds updates either as a
// "FORM_UPDATE: {...}" trailer, a fenced json block, or (worst case) a bare
// JSON object mentioning the form fields.
package assistant

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/carewise/care-coordinator/internal/form"
)

var (
	formUpdateRe = regexp.MustCompile(`FORM_UPDATE:\s*(\{[^}]*\})`)
	jsonBlockRe  = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	bareJSONRe   = regexp.MustCompile(`(\{[^{}]*"(?:doctor|appointment-[^"]*)"[^{}]*\})`)
)

// ExtractFormUpdate pulls an update batch out of an assistant reply. It
// returns the batch in the order the assistant wrote the fields, the reply
// text with the update payload stripped, and whether a payload was found.
// A payload that fails to parse is treated as absent; the reply text is
// returned untouched so nothing the assistant said is lost.
func ExtractFormUpdate(text string) (form.Batch, string, bool) {
	if m := formUpdateRe.FindStringSubmatch(text); m != nil {
		if batch, err := decodeOrdered(m[1]); err == nil {
			clean := strings.TrimSpace(formUpdateRe.ReplaceAllString(text, ""))
			return batch, clean, true
		}
	}

	if m := jsonBlockRe.FindStringSubmatch(text); m != nil {
		if batch, err := decodeOrdered(m[1]); err == nil {
			clean := strings.TrimSpace(jsonBlockRe.ReplaceAllString(text, ""))
			return batch, clean, true
		}
	}

	if m := bareJSONRe.FindStringSubmatch(text); m != nil {
		if batch, err := decodeOrdered(m[1]); err == nil {
			// Bare JSON stays in the visible reply, matching the original
			// fallback behavior.
			return batch, text, true
		}
	}

	return nil, text, false
}

// decodeOrdered parses a JSON object into a Batch preserving key order, which
// json.Unmarshal into a map would lose. Batch order matters to the
// synchronizer.
func decodeOrdered(payload string) (form.Batch, error) {
	dec := json.NewDecoder(strings.NewReader(payload))

	if _, err := dec.Token(); err != nil { // opening brace
		return nil, err
	}

	var batch form.Batch
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}

		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			// Non-string values (numbers, booleans) arrive occasionally;
			// keep their literal text.
			value = strings.Trim(string(raw), `"`)
		}

		batch = append(batch, form.Update{Field: form.Field(key), Value: value})
	}
	return batch, nil
}
