package remediation

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestShellExecutor(t *testing.T) {
	tests := []struct {
		name    string
		command string
		timeout time.Duration
		want    bool
		logMsg  string
	}{
		{name: "zero exit", command: "true", timeout: 5 * time.Second, want: true, logMsg: "remediation command succeeded"},
		{name: "non-zero exit", command: "exit 3", timeout: 5 * time.Second, want: false, logMsg: "remediation command failed"},
		{name: "compound command", command: "true && echo ok", timeout: 5 * time.Second, want: true, logMsg: "remediation command succeeded"},
		{name: "timeout", command: "sleep 5", timeout: 100 * time.Millisecond, want: false, logMsg: "remediation command timed out"},
		{name: "empty command", command: "  ", timeout: time.Second, want: false, logMsg: "refusing to run empty remediation command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			e := NewShellExecutor(zap.New(core))

			assert.Equal(t, tt.want, e.Execute(context.Background(), tt.command, tt.timeout))
			assert.Equal(t, 1, logs.FilterMessage(tt.logMsg).Len())
		})
	}
}

func TestShellExecutorExitCode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := NewShellExecutor(zap.New(core))

	assert.False(t, e.Execute(context.Background(), "exit 7", time.Second))

	entries := logs.FilterMessage("remediation command failed").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, int64(7), entries[0].ContextMap()["exit_code"])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
	}{
		{name: "short", in: "  ok \n", wantLen: 2},
		{name: "ascii", in: strings.Repeat("a", 600), wantLen: maxLoggedOutput + 3},
		// 2-byte runes put byte 512 on a rune boundary
		{name: "even multibyte", in: strings.Repeat("é", 300), wantLen: maxLoggedOutput + 3},
		// 3-byte runes put byte 512 mid-rune; back off to 510
		{name: "mid rune", in: strings.Repeat("€", 200), wantLen: 510 + 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in)

			assert.True(t, utf8.ValidString(got))
			assert.Len(t, got, tt.wantLen)

			if len(strings.TrimSpace(tt.in)) > maxLoggedOutput {
				assert.True(t, strings.HasSuffix(got, "..."))
			}
		})
	}
}

func TestShellExecutorLogsValidUTF8(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := NewShellExecutor(zap.New(core))

	ok := e.Execute(context.Background(), "printf '\\342\\202\\254%.0s' $(seq 1 200)", 5*time.Second)
	assert.True(t, ok)

	entries := logs.FilterMessage("remediation command succeeded").All()
	if assert.Len(t, entries, 1) {
		out := entries[0].ContextMap()["output"].(string)
		assert.True(t, utf8.ValidString(out))
		assert.True(t, strings.HasSuffix(out, "..."))
	}
}

func TestDryRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	assert.True(t, NewDryRun(true, zap.New(core)).Execute(context.Background(), "iptables -F", time.Second))
	assert.False(t, NewDryRun(false, nil).Execute(context.Background(), "iptables -F", time.Second))
	assert.Equal(t, 1, logs.FilterField(zap.String("command", "iptables -F")).Len())
}

func TestRateLimitedPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockExecutor(ctrl)

	next.EXPECT().Execute(gomock.Any(), "iptables -F", gomock.Any()).Return(true)

	r := NewRateLimited(next, 60, 1, nil)

	assert.True(t, r.Execute(context.Background(), "iptables -F", 10*time.Second))
}

func TestRateLimitedThrottles(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockExecutor(ctrl)

	// one token, refilled once a minute: the second command cannot run in time
	next.EXPECT().Execute(gomock.Any(), "a", gomock.Any()).Return(true).Times(1)

	r := NewRateLimited(next, 1, 1, nil)

	assert.True(t, r.Execute(context.Background(), "a", time.Second))
	assert.False(t, r.Execute(context.Background(), "a", 50*time.Millisecond))
}
