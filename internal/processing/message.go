// Package processing defines the request/completion message protocol
// between the dispatcher and the worker pool.
package processing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/filemill/internal/common"
)

// Message is one processing request or completion. RequestID correlates
// a completion back to its originating request.
//
// Wire format: "{requestId},{fileUri},{contentType},{toolName}".
// Parsing splits on the first three commas only, so the tool name may
// contain commas; the first three fields are rejected at construction
// when they do.
type Message struct {
	RequestID   string
	FileURI     string
	ContentType string
	ToolName    string
}

// New builds a request message with a fresh RequestID.
func New(fileURI, contentType, toolName string) (*Message, error) {
	m := &Message{
		RequestID:   uuid.NewString(),
		FileURI:     fileURI,
		ContentType: contentType,
		ToolName:    toolName,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks required fields and the comma-free constraint that
// keeps the wire round-trip exact.
func (m *Message) Validate() error {
	if m.RequestID == "" || m.FileURI == "" || m.ContentType == "" || m.ToolName == "" {
		return fmt.Errorf("%w: all message fields are required", common.ErrInvalidArgument)
	}
	for _, field := range []string{m.RequestID, m.FileURI, m.ContentType} {
		if strings.Contains(field, ",") {
			return fmt.Errorf("%w: commas are not allowed in %q", common.ErrInvalidArgument, field)
		}
	}
	return nil
}

// String renders the comma-joined wire format.
func (m *Message) String() string {
	return m.RequestID + "," + m.FileURI + "," + m.ContentType + "," + m.ToolName
}

// Parse is the inverse of String.
func Parse(s string) (*Message, error) {
	parts := strings.SplitN(s, ",", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: malformed message %q", common.ErrInvalidArgument, s)
	}
	m := &Message{
		RequestID:   parts[0],
		FileURI:     parts[1],
		ContentType: parts[2],
		ToolName:    parts[3],
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
