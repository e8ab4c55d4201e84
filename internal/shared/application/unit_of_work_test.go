package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type txKey struct{}

func TestWithUnitOfWork(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey{}, "tx")
	errWrite := errors.New("write failed")

	tests := []struct {
		name    string
		begin   error
		fn      error
		commit  error
		wantErr error
		expect  func(*mockUnitOfWork)
	}{
		{
			name: "commits on success",
			expect: func(m *mockUnitOfWork) {
				m.On("Commit", txCtx).Return(nil).Once()
			},
		},
		{
			name:    "rolls back when fn fails",
			fn:      errWrite,
			wantErr: errWrite,
			expect: func(m *mockUnitOfWork) {
				m.On("Rollback", txCtx).Return(nil).Once()
			},
		},
		{
			name:    "returns commit error",
			commit:  errWrite,
			wantErr: errWrite,
			expect: func(m *mockUnitOfWork) {
				m.On("Commit", txCtx).Return(errWrite).Once()
			},
		},
		{
			name:    "begin failure skips fn",
			begin:   errWrite,
			wantErr: errWrite,
			expect:  func(*mockUnitOfWork) {},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uow := new(mockUnitOfWork)
			uow.On("Begin", ctx).Return(txCtx, tc.begin).Once()
			tc.expect(uow)

			called := false
			err := WithUnitOfWork(ctx, uow, func(got context.Context) error {
				called = true
				assert.Equal(t, txCtx, got)
				return tc.fn
			})

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.begin == nil, called)
			uow.AssertExpectations(t)
		})
	}
}

func TestWithUnitOfWork_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	uow := new(mockUnitOfWork)
	uow.On("Begin", ctx).Return(ctx, nil)
	uow.On("Rollback", ctx).Return(nil).Once()

	assert.PanicsWithValue(t, "boom", func() {
		_ = WithUnitOfWork(ctx, uow, func(context.Context) error { panic("boom") })
	})
	uow.AssertExpectations(t)
}
