package pipeline

import (
	"context"

	"github.com/muratoffalex/ytscribe/internal/service/stt"
	"github.com/muratoffalex/ytscribe/internal/transcript"
	mock "github.com/stretchr/testify/mock"
)

// MockAudioSource is a mock type for the AudioSource type
type MockAudioSource struct {
	mock.Mock
}

type MockAudioSource_Expecter struct {
	mock *mock.Mock
}

func (_m *MockAudioSource) EXPECT() *MockAudioSource_Expecter {
	return &MockAudioSource_Expecter{mock: &_m.Mock}
}

// Name provides a mock function with no fields
func (_m *MockAudioSource) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Name")
	}

	if rf, ok := ret.Get(0).(func() string); ok {
		return rf()
	}
	return ret.Get(0).(string)
}

type MockAudioSource_Name_Call struct {
	*mock.Call
}

func (_e *MockAudioSource_Expecter) Name() *MockAudioSource_Name_Call {
	return &MockAudioSource_Name_Call{Call: _e.mock.On("Name")}
}

func (_c *MockAudioSource_Name_Call) Return(_a0 string) *MockAudioSource_Name_Call {
	_c.Call.Return(_a0)
	return _c
}

// FetchAudio provides a mock function with given fields: ctx, ref, dir
func (_m *MockAudioSource) FetchAudio(ctx context.Context, ref transcript.VideoRef, dir string) (transcript.Audio, error) {
	ret := _m.Called(ctx, ref, dir)

	if len(ret) == 0 {
		panic("no return value specified for FetchAudio")
	}

	if rf, ok := ret.Get(0).(func(context.Context, transcript.VideoRef, string) (transcript.Audio, error)); ok {
		return rf(ctx, ref, dir)
	}
	return ret.Get(0).(transcript.Audio), ret.Error(1)
}

type MockAudioSource_FetchAudio_Call struct {
	*mock.Call
}

// FetchAudio is a helper method to define mock.On call
//   - ctx context.Context
//   - ref transcript.VideoRef
//   - dir string
func (_e *MockAudioSource_Expecter) FetchAudio(ctx interface{}, ref interface{}, dir interface{}) *MockAudioSource_FetchAudio_Call {
	return &MockAudioSource_FetchAudio_Call{Call: _e.mock.On("FetchAudio", ctx, ref, dir)}
}

func (_c *MockAudioSource_FetchAudio_Call) Return(_a0 transcript.Audio, _a1 error) *MockAudioSource_FetchAudio_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockAudioSource_FetchAudio_Call) RunAndReturn(run func(context.Context, transcript.VideoRef, string) (transcript.Audio, error)) *MockAudioSource_FetchAudio_Call {
	_c.Call.Return(run)
	return _c
}

func NewMockAudioSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAudioSource {
	mock := &MockAudioSource{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

// MockTranscriber is a mock type for the Transcriber type
type MockTranscriber struct {
	mock.Mock
}

type MockTranscriber_Expecter struct {
	mock *mock.Mock
}

func (_m *MockTranscriber) EXPECT() *MockTranscriber_Expecter {
	return &MockTranscriber_Expecter{mock: &_m.Mock}
}

// Ready provides a mock function with no fields
func (_m *MockTranscriber) Ready() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Ready")
	}

	if rf, ok := ret.Get(0).(func() error); ok {
		return rf()
	}
	return ret.Error(0)
}

type MockTranscriber_Ready_Call struct {
	*mock.Call
}

func (_e *MockTranscriber_Expecter) Ready() *MockTranscriber_Ready_Call {
	return &MockTranscriber_Ready_Call{Call: _e.mock.On("Ready")}
}

func (_c *MockTranscriber_Ready_Call) Return(_a0 error) *MockTranscriber_Ready_Call {
	_c.Call.Return(_a0)
	return _c
}

// Transcribe provides a mock function with given fields: ctx, audio, opts
func (_m *MockTranscriber) Transcribe(ctx context.Context, audio transcript.Audio, opts stt.Options) ([]transcript.Segment, error) {
	ret := _m.Called(ctx, audio, opts)

	if len(ret) == 0 {
		panic("no return value specified for Transcribe")
	}

	if rf, ok := ret.Get(0).(func(context.Context, transcript.Audio, stt.Options) ([]transcript.Segment, error)); ok {
		return rf(ctx, audio, opts)
	}

	var r0 []transcript.Segment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]transcript.Segment)
	}
	return r0, ret.Error(1)
}

type MockTranscriber_Transcribe_Call struct {
	*mock.Call
}

// Transcribe is a helper method to define mock.On call
//   - ctx context.Context
//   - audio transcript.Audio
//   - opts stt.Options
func (_e *MockTranscriber_Expecter) Transcribe(ctx interface{}, audio interface{}, opts interface{}) *MockTranscriber_Transcribe_Call {
	return &MockTranscriber_Transcribe_Call{Call: _e.mock.On("Transcribe", ctx, audio, opts)}
}

func (_c *MockTranscriber_Transcribe_Call) Return(_a0 []transcript.Segment, _a1 error) *MockTranscriber_Transcribe_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockTranscriber_Transcribe_Call) RunAndReturn(run func(context.Context, transcript.Audio, stt.Options) ([]transcript.Segment, error)) *MockTranscriber_Transcribe_Call {
	_c.Call.Return(run)
	return _c
}

func NewMockTranscriber(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTranscriber {
	mock := &MockTranscriber{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
