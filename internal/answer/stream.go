package answer

import "context"

// Stream delivers answer fragments as they are generated. It is finite and
// not restartable: once Fragments is drained the stream is done and Err
// reports the terminal state. The consumer cancels by cancelling the context
// passed to AnswerStream; the producer side stops promptly and releases its
// generation resources.
type Stream struct {
	fragments chan string
	err       error
}

func newStream() *Stream {
	return &Stream{fragments: make(chan string)}
}

// Fragments yields answer fragments in order. The channel is closed when
// generation completes, fails, or is cancelled.
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

// Err reports why the stream ended. Only valid after Fragments is closed;
// nil means normal completion.
func (s *Stream) Err() error {
	return s.err
}

// send delivers one fragment unless the consumer has cancelled.
func (s *Stream) send(ctx context.Context, fragment string) error {
	select {
	case s.fragments <- fragment:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// setErr records the terminal error; the happens-before edge is the channel
// close in finish.
func (s *Stream) setErr(err error) {
	s.err = err
}

func (s *Stream) finish() {
	close(s.fragments)
}
