package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

func TestNotificationService_DisabledDoesNothing(t *testing.T) {
	svc := NewNotificationService(&domain.NotificationConfig{Enabled: false}, zap.NewNop())
	called := false
	svc.run = func(string, ...string) error {
		called = true
		return nil
	}

	assert.NoError(t, svc.Send("title", "message"))
	assert.False(t, called)
}

func TestNotificationService_NotifySend(t *testing.T) {
	svc := NewNotificationService(&domain.NotificationConfig{Enabled: true, Method: "notify-send"}, zap.NewNop())
	var gotName string
	var gotArgs []string
	svc.run = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	run := domain.NewBatchRun(domain.RunParams{InputPath: "/in", OutputDir: "/out", Quality: "highest"})
	run.Finish(domain.RunCompleted, domain.RunSummary{Total: 3, Succeeded: 2, Failed: 1})
	svc.NotifyRunFinished(run, run.Summary())

	assert.Equal(t, "notify-send", gotName)
	assert.Equal(t, []string{"Batch Completed", "/in: 2 downloaded, 1 failed, 0 skipped"}, gotArgs)
}

func TestNotificationService_PropagatesCommandError(t *testing.T) {
	svc := NewNotificationService(&domain.NotificationConfig{Enabled: true, Method: "osascript"}, zap.NewNop())
	svc.run = func(string, ...string) error { return errors.New("missing binary") }

	assert.Error(t, svc.Send("t", "m"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...", truncateString("abcdef", 3))
}
