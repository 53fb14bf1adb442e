package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestStream_RecvDeliversFragmentsInOrder(t *testing.T) {
	s, err := newStream(&scriptSource{fragments: []string{"a", "b", "c"}}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for {
		frag, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		got = append(got, frag)
	}

	if strings.Join(got, "") != "abc" {
		t.Fatalf("fragments = %v, want a b c", got)
	}
	if s.Fragments() != 3 {
		t.Fatalf("Fragments() = %d, want 3", s.Fragments())
	}
}

func TestStream_CollectConcatenatesAndNotifies(t *testing.T) {
	s, err := newStream(&scriptSource{
		fragments: []string{"Hello", ", ", "world"},
		tokens:    Usage{InputTokens: 10, OutputTokens: 3, TotalTokens: 13},
	}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var notified []string
	text, err := s.Collect(context.Background(), func(frag string) {
		notified = append(notified, frag)
	})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if text != "Hello, world" {
		t.Fatalf("text = %q", text)
	}
	if len(notified) != 3 {
		t.Fatalf("notified %d fragments, want 3", len(notified))
	}
	if s.Usage().OutputTokens != 3 {
		t.Fatalf("usage = %+v", s.Usage())
	}
}

func TestStream_CollectDiscardsPartialOnFailure(t *testing.T) {
	s, err := newStream(&scriptSource{
		fragments: []string{"partial ", "output"},
		failWith:  &ErrProviderUnavailable{Err: errors.New("connection reset")},
	}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := s.Collect(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if text != "" {
		t.Fatalf("partial text leaked: %q", text)
	}

	var interrupted *ErrStreamInterrupted
	if !errors.As(err, &interrupted) {
		t.Fatalf("error = %T, want *ErrStreamInterrupted", err)
	}
	if interrupted.Fragments != 2 {
		t.Fatalf("Fragments = %d, want 2", interrupted.Fragments)
	}
}

func TestStream_FailureBeforeFirstFragmentSurfacesAtStart(t *testing.T) {
	cause := &ErrProviderUnavailable{Err: errors.New("dead connection")}
	_, err := newStream(&scriptSource{failWith: cause}, "mock")
	if err == nil {
		t.Fatal("expected error from newStream")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("error = %T, want *ErrProviderUnavailable", err)
	}
}

func TestStream_EmptyStreamEndsCleanly(t *testing.T) {
	s, err := newStream(&scriptSource{tokens: Usage{InputTokens: 5, TotalTokens: 5}}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := s.Collect(context.Background(), nil)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
	if s.Usage().InputTokens != 5 {
		t.Fatalf("usage = %+v", s.Usage())
	}
}

func TestStream_TerminalStateIsSticky(t *testing.T) {
	s, err := newStream(&scriptSource{fragments: []string{"x"}}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Recv(); err != nil {
		t.Fatalf("first recv: %v", err)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Fatalf("second recv err = %v, want io.EOF", err)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Fatalf("repeated recv err = %v, want io.EOF", err)
	}
}

func TestStream_CloseBeforeEndMarksInterrupted(t *testing.T) {
	s, err := newStream(&scriptSource{fragments: []string{"a", "b"}}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Recv(); err != nil {
		t.Fatalf("recv: %v", err)
	}
	s.Close()

	_, err = s.Recv()
	var interrupted *ErrStreamInterrupted
	if !errors.As(err, &interrupted) {
		t.Fatalf("recv after close = %v, want *ErrStreamInterrupted", err)
	}
	if !errors.Is(err, errStreamClosed) {
		t.Fatalf("cause = %v, want errStreamClosed", err)
	}
}

func TestStream_ObserverFiresOnceOnCleanEnd(t *testing.T) {
	s, err := newStream(&scriptSource{
		fragments: []string{"done"},
		tokens:    Usage{OutputTokens: 1},
	}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fired := 0
	var gotErr error
	s.observe(func(usage Usage, err error) {
		fired++
		gotErr = err
		if usage.OutputTokens != 1 {
			t.Errorf("observer usage = %+v", usage)
		}
	})

	if _, err := s.Collect(context.Background(), nil); err != nil {
		t.Fatalf("collect: %v", err)
	}
	s.Close() // must not re-fire

	if fired != 1 {
		t.Fatalf("observer fired %d times, want 1", fired)
	}
	if gotErr != nil {
		t.Fatalf("observer err = %v, want nil", gotErr)
	}
}

func TestStream_ObserverReceivesFailure(t *testing.T) {
	s, err := newStream(&scriptSource{
		fragments: []string{"a"},
		failWith:  &ErrProviderUnavailable{Err: errors.New("dropped")},
	}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var gotErr error
	s.observe(func(_ Usage, err error) { gotErr = err })

	if _, err := s.Collect(context.Background(), nil); err == nil {
		t.Fatal("expected collect error")
	}
	var interrupted *ErrStreamInterrupted
	if !errors.As(gotErr, &interrupted) {
		t.Fatalf("observer err = %T, want *ErrStreamInterrupted", gotErr)
	}
}

func TestStream_CollectHonorsContextCancellation(t *testing.T) {
	s, err := newStream(&scriptSource{fragments: []string{"a", "b", "c"}}, "mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Collect(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled cause", err)
	}
	var interrupted *ErrStreamInterrupted
	if !errors.As(err, &interrupted) {
		t.Fatalf("err = %T, want *ErrStreamInterrupted", err)
	}
}

func TestMockProvider_RecordsCallsAndServesFIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Fragments: []string{"first"}},
		MockResponse{Fragments: []string{"second"}},
	)

	for _, want := range []string{"first", "second"} {
		stream, err := mock.GenerateStream(context.Background(), Request{
			Messages: []Message{{Role: RoleUser, Content: want}},
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		text, err := stream.Collect(context.Background(), nil)
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		if text != want {
			t.Fatalf("text = %q, want %q", text, want)
		}
	}

	if mock.CallCount() != 2 {
		t.Fatalf("CallCount = %d, want 2", mock.CallCount())
	}
	if got := mock.LastCall().Messages[0].Content; got != "second" {
		t.Fatalf("LastCall content = %q", got)
	}
}

func TestMockProvider_EmptyQueueIsUnavailable(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.GenerateStream(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("err = %T, want *ErrProviderUnavailable", err)
	}
}
