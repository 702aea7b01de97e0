package router

import "testing"

func TestLineFramer_FeedExtractsCompleteLines(t *testing.T) {
	var f LineFramer
	lines := f.Feed([]byte("one\ntwo\nthree"))
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("lines = %v", lines)
	}

	more := f.Feed([]byte("-continued\nfour\n"))
	if len(more) != 2 || more[0] != "three-continued" || more[1] != "four" {
		t.Fatalf("more = %v", more)
	}
}

func TestLineFramer_StripsTrailingCR(t *testing.T) {
	var f LineFramer
	lines := f.Feed([]byte("hello\r\n"))
	if len(lines) != 1 || lines[0] != "hello" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestLineFramer_FlushEmitsRemainder(t *testing.T) {
	var f LineFramer
	f.Feed([]byte("partial"))
	lines := f.Flush()
	if len(lines) != 1 || lines[0] != "partial" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestLineFramer_FlushEmptyBufferReturnsNil(t *testing.T) {
	var f LineFramer
	f.Feed([]byte("complete\n"))
	if lines := f.Flush(); lines != nil {
		t.Fatalf("lines = %v, want nil", lines)
	}
}
