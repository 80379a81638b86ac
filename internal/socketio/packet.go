package socketio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Engine.IO v4 packet types, sent as the first byte of a text frame.
const (
	eioOpen    byte = '0'
	eioClose   byte = '1'
	eioPing    byte = '2'
	eioPong    byte = '3'
	eioMessage byte = '4'
)

type packetType int

// Socket.IO v5 packet types.
const (
	packetConnect packetType = iota
	packetDisconnect
	packetEvent
	packetAck
	packetConnectError
	packetBinaryEvent
	packetBinaryAck
)

const defaultNamespace = "/"

var errMalformedPacket = errors.New("socketio: malformed packet")

type packet struct {
	Type        packetType
	Namespace   string
	Attachments int
	ID          int // -1 when absent
	Data        json.RawMessage
}

func encodePacket(p packet) string {
	var b strings.Builder
	b.WriteByte(byte('0' + p.Type))
	if p.Type == packetBinaryEvent || p.Type == packetBinaryAck {
		b.WriteString(strconv.Itoa(p.Attachments))
		b.WriteByte('-')
	}
	if p.Namespace != "" && p.Namespace != defaultNamespace {
		b.WriteString(p.Namespace)
		b.WriteByte(',')
	}
	if p.ID >= 0 {
		b.WriteString(strconv.Itoa(p.ID))
	}
	b.Write(p.Data)
	return b.String()
}

func decodePacket(s string) (packet, error) {
	if s == "" || s[0] < '0' || s[0] > '6' {
		return packet{}, fmt.Errorf("%w: %.32q", errMalformedPacket, s)
	}
	p := packet{Type: packetType(s[0] - '0'), Namespace: defaultNamespace, ID: -1}
	i := 1

	if p.Type == packetBinaryEvent || p.Type == packetBinaryAck {
		j := strings.IndexByte(s[i:], '-')
		if j < 0 {
			return packet{}, fmt.Errorf("%w: missing attachment count", errMalformedPacket)
		}
		n, err := strconv.Atoi(s[i : i+j])
		if err != nil || n < 0 {
			return packet{}, fmt.Errorf("%w: attachment count %q", errMalformedPacket, s[i:i+j])
		}
		p.Attachments = n
		i += j + 1
	}

	if i < len(s) && s[i] == '/' {
		j := strings.IndexByte(s[i:], ',')
		if j < 0 {
			p.Namespace = s[i:]
			return p, nil
		}
		p.Namespace = s[i : i+j]
		i += j + 1
	}

	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > start {
		id, err := strconv.Atoi(s[start:i])
		if err != nil {
			return packet{}, fmt.Errorf("%w: id %q", errMalformedPacket, s[start:i])
		}
		p.ID = id
	}

	if i < len(s) {
		data := json.RawMessage(s[i:])
		if !json.Valid(data) {
			return packet{}, fmt.Errorf("%w: invalid JSON body", errMalformedPacket)
		}
		p.Data = data
	}
	return p, nil
}

// Event is one inbound Socket.IO event. Each argument is either a
// json.RawMessage or, for binary attachments, a []byte.
type Event struct {
	Name string
	Args []any
}

func encodeEvent(name string, args ...any) (string, error) {
	data, err := json.Marshal(append([]any{name}, args...))
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return string(eioMessage) + encodePacket(packet{Type: packetEvent, Namespace: defaultNamespace, ID: -1, Data: data}), nil
}

func decodeEvent(data json.RawMessage, attachments [][]byte) (Event, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil || len(parts) == 0 {
		return Event{}, fmt.Errorf("%w: event body is not a non-empty array", errMalformedPacket)
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return Event{}, fmt.Errorf("%w: event name is not a string", errMalformedPacket)
	}

	ev := Event{Name: name, Args: make([]any, 0, len(parts)-1)}
	for _, part := range parts[1:] {
		if b, ok := attachment(part, attachments); ok {
			ev.Args = append(ev.Args, b)
			continue
		}
		ev.Args = append(ev.Args, part)
	}
	return ev, nil
}

var placeholderKey = []byte(`"_placeholder"`)

// attachment resolves a top-level {"_placeholder":true,"num":N} argument.
func attachment(part json.RawMessage, attachments [][]byte) ([]byte, bool) {
	if len(attachments) == 0 || !bytes.Contains(part, placeholderKey) {
		return nil, false
	}
	var ph struct {
		Placeholder bool `json:"_placeholder"`
		Num         *int `json:"num"`
	}
	if err := json.Unmarshal(part, &ph); err != nil || !ph.Placeholder || ph.Num == nil {
		return nil, false
	}
	if *ph.Num < 0 || *ph.Num >= len(attachments) {
		return nil, false
	}
	return attachments[*ph.Num], true
}
