// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"
)

// MockNATSConn is a mock NATS connection for testing
type MockNATSConn struct {
	mock.Mock
}

// IsConnected mocks the IsConnected method
func (m *MockNATSConn) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

// PublishMsg mocks the PublishMsg method
func (m *MockNATSConn) PublishMsg(msg *nats.Msg) error {
	args := m.Called(msg)
	return args.Error(0)
}
