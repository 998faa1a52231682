// Package stomp implements the subset of STOMP 1.2 needed to hold a
// subscription open over a WebSocket: CONNECT, SUBSCRIBE, DISCONNECT on the
// way out and CONNECTED, MESSAGE, RECEIPT, ERROR on the way in.
package stomp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Client and server commands.
const (
	CmdConnect    = "CONNECT"
	CmdConnected  = "CONNECTED"
	CmdSubscribe  = "SUBSCRIBE"
	CmdDisconnect = "DISCONNECT"
	CmdMessage    = "MESSAGE"
	CmdReceipt    = "RECEIPT"
	CmdError      = "ERROR"
)

var (
	errEmptyFrame      = errors.New("stomp: empty frame")
	errMissingTerminal = errors.New("stomp: frame is not NUL terminated")
	errBadHeader       = errors.New("stomp: malformed header line")
)

// Header is a single header entry. Order is kept because STOMP gives the
// first occurrence of a repeated header precedence.
type Header struct {
	Key   string
	Value string
}

// Frame is one STOMP frame.
type Frame struct {
	Command string
	Headers []Header
	Body    []byte
}

// NewFrame builds a frame from alternating key/value pairs.
func NewFrame(command string, kv ...string) *Frame {
	f := &Frame{Command: command}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Headers = append(f.Headers, Header{Key: kv[i], Value: kv[i+1]})
	}
	return f
}

// Get returns the first value stored for key.
func (f *Frame) Get(key string) (string, bool) {
	for _, h := range f.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// Set appends a header.
func (f *Frame) Set(key, value string) {
	f.Headers = append(f.Headers, Header{Key: key, Value: value})
}

// escapes reports whether header escaping applies to the command.
// CONNECT and CONNECTED frames are exempt for 1.0 compatibility.
func escapes(command string) bool {
	return command != CmdConnect && command != CmdConnected
}

var (
	headerEscaper   = strings.NewReplacer("\\", "\\\\", "\r", "\\r", "\n", "\\n", ":", "\\c")
	headerUnescaper = strings.NewReplacer("\\r", "\r", "\\n", "\n", "\\c", ":", "\\\\", "\\")
)

// Marshal encodes the frame, including the trailing NUL.
func (f *Frame) Marshal() []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')
	esc := escapes(f.Command)
	for _, h := range f.Headers {
		k, v := h.Key, h.Value
		if esc {
			k, v = headerEscaper.Replace(k), headerEscaper.Replace(v)
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	if len(f.Body) > 0 {
		if _, ok := f.Get("content-length"); !ok {
			b.WriteString("content-length:")
			b.WriteString(strconv.Itoa(len(f.Body)))
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// Decode parses every frame contained in data. Heart-beat EOLs between
// frames are skipped, so a message holding only EOLs yields no frames.
func Decode(data []byte) ([]*Frame, error) {
	var frames []*Frame
	for {
		data = bytes.TrimLeft(data, "\r\n")
		if len(data) == 0 {
			return frames, nil
		}
		f, rest, err := decodeOne(data)
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
		data = rest
	}
}

func decodeOne(data []byte) (*Frame, []byte, error) {
	sep := []byte("\n\n")
	end := bytes.Index(data, sep)
	crlf := false
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 && (end < 0 || i < end) {
		end, crlf = i, true
	}
	if end < 0 {
		return nil, nil, errEmptyFrame
	}
	head := string(data[:end])
	if crlf {
		data = data[end+4:]
	} else {
		data = data[end+2:]
	}

	lines := strings.Split(strings.ReplaceAll(head, "\r\n", "\n"), "\n")
	f := &Frame{Command: strings.TrimSpace(lines[0])}
	if f.Command == "" {
		return nil, nil, errEmptyFrame
	}
	esc := escapes(f.Command)
	for _, line := range lines[1:] {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", errBadHeader, line)
		}
		if esc {
			k, v = headerUnescaper.Replace(k), headerUnescaper.Replace(v)
		}
		f.Headers = append(f.Headers, Header{Key: k, Value: v})
	}

	if cl, ok := f.Get("content-length"); ok {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 || n >= len(data) || data[n] != 0 {
			return nil, nil, errMissingTerminal
		}
		f.Body = data[:n]
		return f, data[n+1:], nil
	}
	n := bytes.IndexByte(data, 0)
	if n < 0 {
		return nil, nil, errMissingTerminal
	}
	f.Body = data[:n]
	return f, data[n+1:], nil
}
