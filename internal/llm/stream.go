package llm

import (
	"context"
	"io"
	"strings"
)

// fragmentSource is the provider-side feed behind a Stream. Each provider
// adapts its SDK's streaming surface to this pull interface.
type fragmentSource interface {
	// next returns the next non-empty fragment of output text.
	// It returns io.EOF once the model has finished cleanly. Any other
	// error is already mapped to the package error types.
	next() (string, error)

	// close releases the underlying connection. Safe to call more than once.
	close()

	// usage reports token consumption. Only valid after next returned io.EOF.
	usage() Usage
}

// Stream delivers model output as an ordered, finite sequence of text
// fragments. A Stream is consumed exactly once and cannot be restarted:
// once a terminal state is reached (clean end, failure, or Close) every
// subsequent Recv reports the same outcome.
type Stream struct {
	src   fragmentSource
	model string

	pending   []string // fragments pulled ahead of Recv
	delivered int

	terminal bool
	termErr  error // io.EOF on clean end
	tokens   Usage

	observer func(usage Usage, err error)
}

// newStream wraps src and eagerly pulls the first fragment so that
// connection and auth failures surface from GenerateStream itself rather
// than from the first Recv. An immediately exhausted source yields a valid
// empty stream.
func newStream(src fragmentSource, model string) (*Stream, error) {
	s := &Stream{src: src, model: model}

	frag, err := src.next()
	switch {
	case err == io.EOF:
		s.tokens = src.usage()
		s.terminal = true
		s.termErr = io.EOF
	case err != nil:
		src.close()
		return nil, err
	default:
		s.pending = append(s.pending, frag)
	}
	return s, nil
}

// Recv returns the next fragment. It returns io.EOF when the stream has
// ended cleanly, and *ErrStreamInterrupted when it failed mid-flight.
func (s *Stream) Recv() (string, error) {
	if len(s.pending) > 0 {
		frag := s.pending[0]
		s.pending = s.pending[1:]
		s.delivered++
		return frag, nil
	}

	if s.terminal {
		return "", s.termErr
	}

	frag, err := s.src.next()
	if err == io.EOF {
		s.tokens = s.src.usage()
		s.terminate(io.EOF)
		return "", io.EOF
	}
	if err != nil {
		werr := &ErrStreamInterrupted{Fragments: s.delivered, Err: err}
		s.terminate(werr)
		return "", werr
	}

	s.delivered++
	return frag, nil
}

// Collect consumes the stream to completion, invoking onFragment for each
// fragment as it arrives, and returns the full concatenated text. On any
// failure the partial text is discarded and only the error is returned;
// callers must treat the result as all-or-nothing. onFragment may be nil.
func (s *Stream) Collect(ctx context.Context, onFragment func(string)) (string, error) {
	defer s.Close()

	var b strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			werr := &ErrStreamInterrupted{Fragments: s.delivered, Err: err}
			s.terminate(werr)
			return "", werr
		}

		frag, err := s.Recv()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}

		b.WriteString(frag)
		if onFragment != nil {
			onFragment(frag)
		}
	}
}

// Close releases the underlying connection. Closing a stream that has not
// reached a clean end marks it interrupted.
func (s *Stream) Close() {
	if !s.terminal {
		s.terminate(&ErrStreamInterrupted{Fragments: s.delivered, Err: errStreamClosed})
	}
	s.src.close()
}

// Usage reports token consumption. Counts are only complete after the
// stream ended cleanly; providers report usage with the final chunk.
func (s *Stream) Usage() Usage {
	return s.tokens
}

// ModelID returns the model that is serving this stream.
func (s *Stream) ModelID() string {
	return s.model
}

// Fragments returns how many fragments have been delivered so far.
func (s *Stream) Fragments() int {
	return s.delivered
}

// observe registers fn to run exactly once when the stream reaches a
// terminal state. fn receives the final usage and nil on clean end, or the
// terminal error otherwise. Multiple observers run in registration order.
func (s *Stream) observe(fn func(usage Usage, err error)) {
	prev := s.observer
	s.observer = func(u Usage, err error) {
		if prev != nil {
			prev(u, err)
		}
		fn(u, err)
	}

	// The source may already have terminated during the eager first pull.
	if s.terminal {
		s.fireObserver()
	}
}

func (s *Stream) terminate(err error) {
	if s.terminal {
		return
	}
	s.terminal = true
	s.termErr = err
	s.fireObserver()
}

func (s *Stream) fireObserver() {
	if s.observer == nil {
		return
	}
	fn := s.observer
	s.observer = nil

	var err error
	if s.termErr != io.EOF {
		err = s.termErr
	}
	fn(s.tokens, err)
}
