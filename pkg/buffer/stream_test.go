package buffer

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStream_WriteRead(t *testing.T) {
	s := BytesStream(16)

	n, err := s.Write([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 5, s.Len())
	require.NoError(t, s.CloseWrite())

	got := make([]byte, 10)
	n, err = s.Read(got)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got[:n])

	_, err = s.Read(got)
	assert.ErrorIs(t, err, io.EOF)

	_, err = s.Write([]byte{6})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestStream_ConcurrentWriteRead(t *testing.T) {
	bb, err := New(64, 64)
	require.NoError(t, err)
	s := NewStream(bb, 64)

	data := make([]byte, 64<<10)
	for i := range data {
		data[i] = byte(i * 7)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < len(data); i += 37 {
			end := min(i+37, len(data))
			if _, err := s.Write(data[i:end]); err != nil {
				t.Errorf("Write error: %v", err)
				return
			}
		}
		s.CloseWrite()
	}()

	var out bytes.Buffer
	chunk := make([]byte, 23)
	for {
		n, err := s.Read(chunk)
		out.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	wg.Wait()

	require.True(t, bytes.Equal(data, out.Bytes()), "stream reordered or lost bytes")
	// The limit bounds growth caused by fragmentation.
	assert.LessOrEqual(t, bb.Cap(), 4*64)
}

func TestStream_WriterBlocksAtLimit(t *testing.T) {
	s := BytesStream(8)
	require.Equal(t, DefaultPageSize, s.Buffer().Cap())

	n, err := s.Write(make([]byte, 8))
	require.NoError(t, err)
	require.Equal(t, 8, n)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Write([]byte{1, 2})
	}()

	select {
	case <-done:
		t.Fatal("Write returned while the stream was at its limit")
	case <-time.After(50 * time.Millisecond):
	}

	got := make([]byte, 4)
	n, err = s.Read(got)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Write did not resume after Read freed space")
	}
	assert.Equal(t, 6, s.Len())
}

func TestStream_CloseWithErrorUnblocksReader(t *testing.T) {
	s := BytesStream(8)
	boom := errors.New("boom")

	errc := make(chan error, 1)
	go func() {
		_, err := s.Read(make([]byte, 4))
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.CloseWithError(boom))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock")
	}
	assert.ErrorIs(t, s.Error(), boom)

	_, err := s.Write([]byte{1})
	assert.ErrorIs(t, err, boom)
	// Closing twice keeps the first error.
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Error(), boom)
}

func TestStream_CloseUnblocksWriter(t *testing.T) {
	s := BytesStream(4)
	_, err := s.Write(make([]byte, 4))
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Write([]byte{1})
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	case <-time.After(time.Second):
		t.Fatal("Write did not unblock")
	}
	assert.Equal(t, 0, s.Len())
}

func TestStream_Unbounded(t *testing.T) {
	s := NewStream(Bip4KB(), 0)
	payload := bytes.Repeat([]byte("bip"), 4096)

	n, err := s.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.GreaterOrEqual(t, s.Buffer().Cap(), len(payload))
	require.NoError(t, s.CloseWrite())

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
