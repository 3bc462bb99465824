package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestLogger_SharedStorage(t *testing.T) {
	root := NewTestLogger()
	child := root.WithField("video_id", "dQw4w9WgXcQ").WithFields(Fields{"strategy": "audio-piped"})

	child.WithError(errors.New("boom")).Warn("Strategy failed")
	root.Info("done")

	assert.Equal(t, 2, root.CountEntries())
	assert.True(t, root.HasEntry("warn", "Strategy failed"))
	assert.True(t, root.HasEntryWithField("warn", "Strategy failed", "strategy", "audio-piped"))
	assert.False(t, root.HasEntryWithField("info", "done", "strategy", "audio-piped"))
	assert.Len(t, root.EntriesAt("warn"), 1)

	root.Clear()
	assert.Zero(t, root.CountEntries())
}
