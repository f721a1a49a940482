// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockMessage is a request received on a pulse subject. Respond goes through
// the mock so tests can force a failed reply; successful replies are kept.
type MockMessage struct {
	mock.Mock
	subject string
	payload []byte
	replies [][]byte
}

// NewMockMessage creates a message with a reply subject on subject.
func NewMockMessage(payload []byte, subject string) *MockMessage {
	return &MockMessage{subject: subject, payload: payload}
}

func (m *MockMessage) Subject() string { return m.subject }

func (m *MockMessage) Data() []byte { return m.payload }

// HasReply is true unless the test registers an expectation saying otherwise.
func (m *MockMessage) HasReply() bool {
	for _, call := range m.ExpectedCalls {
		if call.Method == "HasReply" {
			return m.Called().Bool(0)
		}
	}
	return true
}

func (m *MockMessage) Respond(data []byte) error {
	if err := m.Called(data).Error(0); err != nil {
		return err
	}
	m.replies = append(m.replies, data)
	return nil
}

// LastReply returns the most recent successful reply, or nil.
func (m *MockMessage) LastReply() []byte {
	if len(m.replies) == 0 {
		return nil
	}
	return m.replies[len(m.replies)-1]
}
