package memory_test

import (
	"io"
	"testing"

	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_ChunksPerFlush(t *testing.T) {
	tr := memory.NewTransport()

	_, err := tr.Write([]byte("a"))
	require.NoError(t, err)
	_, err = tr.Write([]byte("b"))
	require.NoError(t, err)
	require.NoError(t, tr.Flush())
	_, err = tr.Write([]byte("c"))
	require.NoError(t, err)
	require.NoError(t, tr.Flush())

	assert.Equal(t, "abc", tr.String())
	assert.Equal(t, [][]byte{[]byte("ab"), []byte("c")}, tr.Chunks())
	assert.Equal(t, 2, tr.Flushes())
}

func TestTransport_FailAfterFlushes(t *testing.T) {
	tr := memory.NewTransport(memory.FailAfterFlushes(1))

	_, _ = tr.Write([]byte("shell"))
	require.NoError(t, tr.Flush())
	_, _ = tr.Write([]byte("section"))
	assert.ErrorIs(t, tr.Flush(), io.ErrClosedPipe)

	_, err := tr.Write([]byte("more"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, "shell", tr.String())
}
