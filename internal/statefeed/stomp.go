package statefeed

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// frame is one STOMP 1.2 frame. The backend brokers state updates over
// STOMP on a websocket, one frame per websocket message.
type frame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// marshalFrame renders a frame in wire format: command line, header lines,
// blank line, body, NUL terminator. Headers are sorted for deterministic
// output.
func marshalFrame(f frame) []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')

	keys := make([]string, 0, len(f.Headers))
	for k := range f.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(f.Headers[k])
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// parseFrame decodes a wire-format frame. A message containing only EOLs is
// a STOMP heartbeat and comes back as an empty-command frame.
func parseFrame(raw []byte) (frame, error) {
	trimmed := bytes.TrimLeft(raw, "\r\n")
	if len(trimmed) == 0 {
		return frame{}, nil // heartbeat
	}

	head, body, found := bytes.Cut(trimmed, []byte("\n\n"))
	if !found {
		return frame{}, fmt.Errorf("stomp frame missing header terminator")
	}
	body = bytes.TrimSuffix(body, []byte{0})

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	f := frame{
		Command: lines[0],
		Headers: make(map[string]string, len(lines)-1),
		Body:    body,
	}
	for _, line := range lines[1:] {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return frame{}, fmt.Errorf("stomp header %q missing colon", line)
		}
		// First occurrence wins, per the STOMP spec.
		if _, exists := f.Headers[k]; !exists {
			f.Headers[k] = v
		}
	}
	return f, nil
}
