package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/example/pizzashop/pkg/auth"
	"github.com/example/pizzashop/pkg/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, collection string, doc store.Document) (string, error) {
	args := m.Called(ctx, collection, doc)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, docPath string, fields store.Document) error {
	args := m.Called(ctx, docPath, fields)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, docPath string) error {
	args := m.Called(ctx, docPath)
	return args.Error(0)
}

func (m *MockStore) DeleteAll(ctx context.Context, collection string) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockStore) Subscribe(ctx context.Context, pattern string, onChange store.ChangeHandler, onError store.ErrorHandler) (store.Unsubscribe, error) {
	args := m.Called(ctx, pattern, onChange, onError)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(store.Unsubscribe), args.Error(1)
}

type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) FindByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.UserRecord), args.Error(1)
}

func (m *MockCredentials) Insert(ctx context.Context, rec *auth.UserRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type MockFlagStore struct {
	mock.Mock
}

func (m *MockFlagStore) SetAdminSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFlagStore) AdminSession(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockFlagStore) ClearAdminSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockClearer struct {
	mock.Mock
}

func (m *MockClearer) Clear(ctx context.Context) {
	m.Called(ctx)
}
