package server

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.ytsaurus.tech/library/go/core/xerrors"
)

func TestPipeDeliversBufferedItemBeforeError(t *testing.T) {
	pipe := newResponsePipe(context.Background())
	require.NoError(t, pipe.push("first"))
	failure := xerrors.New("producer failed")
	pipe.finish(failure)

	msg, err := pipe.Next()
	require.NoError(t, err)
	require.Equal(t, "first", msg)

	_, err = pipe.Next()
	require.ErrorIs(t, err, failure)
}

func TestPipeEOFAfterCleanFinish(t *testing.T) {
	pipe := newResponsePipe(context.Background())
	require.NoError(t, pipe.push("only"))
	pipe.finish(nil)

	msg, err := pipe.Next()
	require.NoError(t, err)
	require.Equal(t, "only", msg)

	_, err = pipe.Next()
	require.ErrorIs(t, err, io.EOF)
	_, err = pipe.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestPipePushUnblocksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pipe := newResponsePipe(ctx)
	require.NoError(t, pipe.push("fills the buffer"))

	pushed := make(chan error, 1)
	go func() {
		pushed <- pipe.push("blocks")
	}()
	cancel()
	require.ErrorIs(t, <-pushed, context.Canceled)
}

func TestPipeNextUnblocksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pipe := newResponsePipe(ctx)

	next := make(chan error, 1)
	go func() {
		_, err := pipe.Next()
		next <- err
	}()
	cancel()
	require.ErrorIs(t, <-next, context.Canceled)
}
