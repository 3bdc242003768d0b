package mocks

import "github.com/stretchr/testify/mock"

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishToUser(userID int64, event string, payload any) {
	m.Called(userID, event, payload)
}

func (m *MockNotifier) PublishGlobal(event string, payload any) {
	m.Called(event, payload)
}
