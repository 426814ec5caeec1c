package sink

import (
	"bufio"
	"chat-relay/errors"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnSink_ConcurrentLinesStayWhole(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	defer client.Close()
	s := NewConnSink(server)
	defer s.Close()

	writers, perWriter := 8, 25
	payload := strings.Repeat("x", 512)

	// Given several goroutines writing on the same connection
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = s.WriteLine(context.Background(), fmt.Sprintf("%d:%d:%s", w, i, payload))
			}
		}(w)
	}

	// When every line is read back
	scanner := bufio.NewScanner(client)
	scanner.Buffer(make([]byte, 4096), 4096)
	for n := 0; n < writers*perWriter; n++ {
		req.True(scanner.Scan())
		// Then no line was interleaved with another one
		parts := strings.SplitN(scanner.Text(), ":", 3)
		req.Len(parts, 3)
		req.Equal(payload, parts[2])
	}
	wg.Wait()
}

func TestConnSink_DeadlineUnblocksWriter(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	defer client.Close()
	s := NewConnSink(server)
	defer s.Close()

	// Given nobody reads the other end
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// When a line is written
	start := time.Now()
	err := s.WriteLine(ctx, "hello")

	// Then the write gives up with the context
	req.Error(err)
	req.Less(time.Since(start), time.Second)
}

func TestConnSink_CancelledContext(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	defer client.Close()
	s := NewConnSink(server)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req.ErrorIs(s.WriteLine(ctx, "hello"), context.Canceled)
}

func TestConnSink_FailedWriteClosesConnection(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	defer client.Close()
	s := NewConnSink(server)

	// Given a write that timed out while nobody was reading
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req.Error(s.WriteLine(ctx, "hello"))

	// When the reader shows up and another line is written
	read := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(client).ReadString('\n')
		read <- err
	}()
	err := s.WriteLine(context.Background(), "world")

	// Then the sink refuses it and the peer sees the connection closed
	req.ErrorIs(err, errors.ErrConnectionClosed)
	select {
	case err := <-read:
		req.Error(err)
	case <-time.After(time.Second):
		req.Fail("connection still open")
	}
}

func TestConnSink_CancelDoesNotLeakIntoNextWrite(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	defer client.Close()
	s := NewConnSink(server)
	defer s.Close()
	lines := bufio.NewScanner(client)

	// Given writes whose contexts are cancelled right after they complete
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.WriteLine(ctx, "line") }()
		req.True(lines.Scan())
		req.NoError(<-done)
		cancel()
	}

	// When a later write runs without a deadline
	done := make(chan error, 1)
	go func() { done <- s.WriteLine(context.Background(), "last") }()
	time.Sleep(20 * time.Millisecond)

	// Then no stale forced deadline interrupts it
	req.True(lines.Scan())
	req.Equal("last", lines.Text())
	req.NoError(<-done)
}
