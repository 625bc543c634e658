package analysisd

import (
	"strings"
	"unicode/utf8"
)

// DefaultSocketPath is where analysisd binds its local event queue.
const DefaultSocketPath = "/var/ossec/queue/sockets/queue"

// LocalfileQueue is the protocol version analysisd expects for events
// produced by local integrations.
const LocalfileQueue = '1'

// replacement is written in place of byte sequences that are not valid UTF-8.
const replacement = "?"

// Source identifies an integration on the wire. Queue and Tag make up the
// header analysisd uses to route the event; Integration and Key name the
// JSON envelope fields.
type Source struct {
	Queue       byte
	Tag         string
	Integration string
	Key         string
}

// GCloud is the Google Cloud integration source.
var GCloud = Source{
	Queue:       LocalfileQueue,
	Tag:         "Wazuh-GCloud",
	Integration: "gcp",
	Key:         "gcp",
}

// Header returns the "<queue>:<tag>:" prefix of every datagram.
func (s Source) Header() string {
	return string(s.Queue) + ":" + s.Tag + ":"
}

// Format embeds body as the value of s.Key. body is inserted verbatim: it is
// expected to already be JSON, and nothing here checks that it is.
func (s Source) Format(body string) string {
	var b strings.Builder
	b.Grow(len(`{"integration": "", "": }`) + len(s.Integration) + len(s.Key) + len(body))
	b.WriteString(`{"integration": "`)
	b.WriteString(s.Integration)
	b.WriteString(`", "`)
	b.WriteString(s.Key)
	b.WriteString(`": `)
	b.WriteString(body)
	b.WriteString(`}`)
	return b.String()
}

// Frame returns the exact bytes sent for msg: the header followed by msg, with
// each byte that is not part of valid UTF-8 replaced by one replacement mark.
func (s Source) Frame(msg string) []byte {
	raw := s.Header() + msg
	if utf8.ValidString(raw) {
		return []byte(raw)
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(replacement)
		} else {
			b.WriteString(raw[i : i+size])
		}
		i += size
	}
	return []byte(b.String())
}
