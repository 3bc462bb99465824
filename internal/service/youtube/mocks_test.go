package youtube

import (
	"context"

	"github.com/lrstanley/go-ytdlp"
	mock "github.com/stretchr/testify/mock"
)

// MockContentExtractor is a mock type for the ContentExtractor type
type MockContentExtractor struct {
	mock.Mock
}

type MockContentExtractor_Expecter struct {
	mock *mock.Mock
}

func (_m *MockContentExtractor) EXPECT() *MockContentExtractor_Expecter {
	return &MockContentExtractor_Expecter{mock: &_m.Mock}
}

// Extract provides a mock function with given fields: ctx, url, options
func (_m *MockContentExtractor) Extract(ctx context.Context, url string, options FetchOptions) (*ytdlp.Result, error) {
	ret := _m.Called(ctx, url, options)

	if len(ret) == 0 {
		panic("no return value specified for Extract")
	}

	var r0 *ytdlp.Result
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, FetchOptions) (*ytdlp.Result, error)); ok {
		return rf(ctx, url, options)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, FetchOptions) *ytdlp.Result); ok {
		r0 = rf(ctx, url, options)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*ytdlp.Result)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, FetchOptions) error); ok {
		r1 = rf(ctx, url, options)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockContentExtractor_Extract_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Extract'
type MockContentExtractor_Extract_Call struct {
	*mock.Call
}

// Extract is a helper method to define mock.On call
//   - ctx context.Context
//   - url string
//   - options FetchOptions
func (_e *MockContentExtractor_Expecter) Extract(ctx interface{}, url interface{}, options interface{}) *MockContentExtractor_Extract_Call {
	return &MockContentExtractor_Extract_Call{Call: _e.mock.On("Extract", ctx, url, options)}
}

func (_c *MockContentExtractor_Extract_Call) Run(run func(ctx context.Context, url string, options FetchOptions)) *MockContentExtractor_Extract_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string), args[2].(FetchOptions))
	})
	return _c
}

func (_c *MockContentExtractor_Extract_Call) Return(_a0 *ytdlp.Result, _a1 error) *MockContentExtractor_Extract_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockContentExtractor_Extract_Call) RunAndReturn(run func(context.Context, string, FetchOptions) (*ytdlp.Result, error)) *MockContentExtractor_Extract_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockContentExtractor creates a new instance of MockContentExtractor. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockContentExtractor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockContentExtractor {
	mock := &MockContentExtractor{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
