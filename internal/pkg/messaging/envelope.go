package messaging

import (
	"bytes"
	"encoding/json"
)

// envelope carries headers for brokers whose wire format has none (NSQ).
type envelope struct {
	Version int               `json:"v"`
	Headers map[string]string `json:"h,omitempty"`
	Body    []byte            `json:"b"`
}

const envelopeVersion = 1

var envelopePrefix = []byte(`{"v":1,`)

func encodeEnvelope(msg OutgoingMessage) ([]byte, error) {
	return json.Marshal(envelope{
		Version: envelopeVersion,
		Headers: headerMap(msg.Headers),
		Body:    msg.Body,
	})
}

// decodeEnvelope unwraps raw. Payloads published without an envelope are
// returned unchanged with no headers.
func decodeEnvelope(raw []byte) (body []byte, headers map[string]string) {
	if !bytes.HasPrefix(raw, envelopePrefix) {
		return raw, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != envelopeVersion {
		return raw, nil
	}
	return env.Body, env.Headers
}
