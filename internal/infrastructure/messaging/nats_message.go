// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"
)

// NatsMessage adapts a NATS message to domain.Message.
type NatsMessage struct {
	msg *nats.Msg
}

// NewNatsMessage wraps a received NATS message.
func NewNatsMessage(msg *nats.Msg) *NatsMessage {
	return &NatsMessage{msg: msg}
}

// Subject returns the subject the message was received on.
func (m *NatsMessage) Subject() string {
	return m.msg.Subject
}

// Data returns the message payload.
func (m *NatsMessage) Data() []byte {
	return m.msg.Data
}

// HasReply reports whether the sender expects a response.
func (m *NatsMessage) HasReply() bool {
	return m.msg.Reply != ""
}

// Respond replies to the sender. Messages without a reply subject are ignored.
func (m *NatsMessage) Respond(data []byte) error {
	if !m.HasReply() {
		return nil
	}
	return m.msg.Respond(data)
}
