package audio

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	output string
	err    error

	gotName string
	gotArgs []string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.gotName = name
	f.gotArgs = args
	return f.output, f.err
}

func TestDuration(t *testing.T) {
	executor := &fakeExecutor{output: "12.345\n"}
	prober := NewProberWithExecutor(executor)

	seconds, err := prober.Duration(context.Background(), "/tmp/clip.webm")
	require.NoError(t, err)

	assert.InDelta(t, 12.345, seconds, 0.0001)
	assert.Equal(t, "ffprobe", executor.gotName)
	assert.Contains(t, executor.gotArgs, "/tmp/clip.webm")
	assert.Contains(t, executor.gotArgs, "format=duration")
}

func TestDurationCommandFailure(t *testing.T) {
	executor := &fakeExecutor{err: fmt.Errorf("command 'ffprobe' failed: exit status 1")}
	prober := NewProberWithExecutor(executor)

	_, err := prober.Duration(context.Background(), "/tmp/garbage.bin")
	assert.Error(t, err)
}

func TestDurationUnparsableOutput(t *testing.T) {
	executor := &fakeExecutor{output: "N/A"}
	prober := NewProberWithExecutor(executor)

	_, err := prober.Duration(context.Background(), "/tmp/clip.webm")
	assert.Error(t, err)
}
