package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeSession parses and validates a session-info response body.
func DecodeSession(data []byte) (*SessionSnapshot, error) {
	var snapshot SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, wrapDecodeError("session", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// DecodeTicketPage parses and validates a ticket listing response body.
func DecodeTicketPage(data []byte) (*TicketPage, error) {
	var page TicketPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, wrapDecodeError("ticket page", err)
	}
	if page.Number < 0 || page.TotalPages < 0 {
		return nil, fmt.Errorf("%w: ticket page: negative page counters", ErrInvalidPayload)
	}
	for i := range page.Content {
		if err := page.Content[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &page, nil
}

func wrapDecodeError(what string, err error) error {
	if errors.Is(err, ErrInvalidPayload) {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return fmt.Errorf("decode %s: %w: %v", what, ErrInvalidPayload, err)
}
