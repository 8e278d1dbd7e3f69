//go:build unix

package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/sachima/sachima/internal/reply"
)

func TestOpenRejectsFifo(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, unix.Mkfifo(ws.Join("pipe"), 0o644))

	done := make(chan error, 1)
	go func() {
		f, _, err := ws.Open("pipe")
		if f != nil {
			f.Close()
		}
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, reply.ErrNotRegularFile)
	case <-time.After(2 * time.Second):
		t.Fatal("Open blocked on a fifo")
	}
}
