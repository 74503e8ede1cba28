package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: "info", want: zapcore.InfoLevel},
		{level: "warn", want: zapcore.WarnLevel},
		{level: "error", want: zapcore.ErrorLevel},
		{level: "bogus", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			require.NoError(t, Init(tt.level, ""))
			require.NotNil(t, Log)
			assert.True(t, Log.Core().Enabled(tt.want))
			if tt.want != zapcore.DebugLevel {
				assert.False(t, Log.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestSync_NilLogger(t *testing.T) {
	Log = nil
	assert.NoError(t, Sync())
}
