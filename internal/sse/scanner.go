package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is one server-sent event. Name is empty for unnamed events.
type Event struct {
	Name string
	Data string
	ID   string
}

// Scanner reads events from a text/event-stream body. Events end at a
// blank line; comment lines and unknown fields are skipped, and a partial
// event at the end of the stream is dropped.
type Scanner struct {
	reader  *bufio.Reader
	current Event
	err     error
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next complete event. It returns false at the end of
// the stream or on a read error; see Err.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}

	var (
		data    []string
		name    string
		id      string
		hasData bool
	)
	emit := func() {
		s.current = Event{Name: name, Data: strings.Join(data, "\n"), ID: id}
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			// An event without its closing blank line is discarded.
			s.err = err
			return false
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				emit()
				return true
			}
			name = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			name = value
		case "id":
			id = value
		}
	}
}

func (s *Scanner) Event() Event {
	return s.current
}

// Err returns nil when the stream ended cleanly.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
