package scanlink

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
)

// lineFrame builds a CRLF-terminated scan line whose values count up from
// base.
func lineFrame(base int) []byte {
	tokens := make([]string, LineWidth)
	for i := range tokens {
		tokens[i] = strconv.Itoa(base + i)
	}
	return []byte(strings.Join(tokens, " ") + "\r\n")
}

func TestFeedScalars(t *testing.T) {
	d := NewDecoder()
	frames, skipped := d.Feed([]byte("5\r\n6\r\n"))
	if len(skipped) != 0 {
		t.Fatal("unexpected skips", skipped)
	}
	if len(frames) != 2 {
		t.Fatal("expected 2 frames, got", len(frames))
	}
	if frames[0] != (ScalarSample{Value: 5}) || frames[1] != (ScalarSample{Value: 6}) {
		t.Error("wrong frames", frames)
	}
	if len(d.pending) != 0 {
		t.Error("pending should be empty, got", d.pending)
	}
	if d.state.scanning {
		t.Error("scalar readings must not start a scan")
	}
}

func TestFeedPartialFrames(t *testing.T) {
	d := NewDecoder()
	frames, _ := d.Feed([]byte("12"))
	if len(frames) != 0 {
		t.Fatal("no complete frame yet, got", frames)
	}
	if string(d.pending) != "12" {
		t.Fatal("pending should hold the tail, got", d.pending)
	}
	frames, _ = d.Feed([]byte("3\r\n4"))
	if len(frames) != 1 || frames[0] != (ScalarSample{Value: 123}) {
		t.Error("wrong frames", frames)
	}
	if string(d.pending) != "4" {
		t.Error("pending should be the bytes after the last delimiter, got", string(d.pending))
	}

	// A delimiter split across reads.
	frames, _ = d.Feed([]byte("2\r"))
	if len(frames) != 0 {
		t.Fatal("split delimiter decoded early", frames)
	}
	frames, _ = d.Feed([]byte("\n"))
	if len(frames) != 1 || frames[0] != (ScalarSample{Value: 42}) {
		t.Error("wrong frames", frames)
	}
}

func TestFeedScanStartMarker(t *testing.T) {
	d := NewDecoder()
	d.state.scanning = true
	d.state.index = 17

	frames, skipped := d.Feed([]byte("a\r\n"))
	if len(frames) != 0 || len(skipped) != 0 {
		t.Fatal("marker must yield no frame", frames, skipped)
	}
	if !d.state.scanning || d.state.index != 0 {
		t.Error("marker must reset scan state, got", d.state)
	}
}

func TestMarkerByContainment(t *testing.T) {
	// The marker check is containment, so a token like "1a2" counts as a
	// marker rather than a parse failure.
	d := NewDecoder()
	frames, skipped := d.Feed([]byte("1a2\r\n"))
	if len(frames) != 0 || len(skipped) != 0 {
		t.Fatal("expected marker classification", frames, skipped)
	}
	if !d.state.scanning {
		t.Error("marker must set scanning")
	}
}

func TestFeedScanLine(t *testing.T) {
	d := NewDecoder()
	frames, skipped := d.Feed(lineFrame(1000))
	if len(skipped) != 0 {
		t.Fatal("unexpected skips", skipped)
	}
	if len(frames) != 1 {
		t.Fatal("expected 1 frame, got", len(frames))
	}
	line, ok := frames[0].(LineSample)
	if !ok {
		t.Fatalf("expected LineSample, got %T", frames[0])
	}
	if line.Index != 0 {
		t.Error("first line of a scan must be index 0, got", line.Index)
	}
	if len(line.Values) != LineWidth {
		t.Fatal("wrong line width", len(line.Values))
	}
	for i, v := range line.Values {
		if v != 1000+i {
			t.Fatalf("values out of order at %d: %d", i, v)
		}
	}
	if !d.state.scanning || d.state.index != 1 {
		t.Error("scan state after first line", d.state)
	}

	frames, _ = d.Feed(lineFrame(2000))
	if frames[0].(LineSample).Index != 1 {
		t.Error("second line must be index 1")
	}
}

func TestLineIndexWraps(t *testing.T) {
	d := NewDecoder()
	d.state.scanning = true
	d.state.index = LineWidth - 1

	frames, _ := d.Feed(lineFrame(0))
	if frames[0].(LineSample).Index != LineWidth-1 {
		t.Error("wrong index", frames[0])
	}
	if d.state.index != 0 {
		t.Error("index must wrap to 0, got", d.state.index)
	}
}

func TestFeedInvalidTokenCount(t *testing.T) {
	d := NewDecoder()
	frames, skipped := d.Feed([]byte("1 2 3\r\n7\r\n"))
	if len(skipped) != 1 {
		t.Fatal("expected 1 skip, got", skipped)
	}
	var fe *FramingError
	if !errors.As(skipped[0], &fe) || fe.Tokens != 3 {
		t.Error("wrong skip", skipped[0])
	}
	if len(frames) != 1 || frames[0] != (ScalarSample{Value: 7}) {
		t.Error("decoding must continue past a bad candidate", frames)
	}
	if d.state.scanning {
		t.Error("a skipped candidate must not touch scan state")
	}
}

func TestFeedParseFailure(t *testing.T) {
	d := NewDecoder()
	frames, skipped := d.Feed([]byte("12x\r\n8\r\n"))
	var pe *ParseError
	if len(skipped) != 1 || !errors.As(skipped[0], &pe) {
		t.Fatal("expected a parse skip, got", skipped)
	}
	if pe.Token != "12x" {
		t.Error("wrong token", pe.Token)
	}
	if len(frames) != 1 || frames[0] != (ScalarSample{Value: 8}) {
		t.Error("decoding must continue past a parse failure", frames)
	}
}

func TestFeedLineWithBadToken(t *testing.T) {
	raw := lineFrame(0)
	raw = bytes.Replace(raw, []byte(" 100 "), []byte(" oops "), 1)

	d := NewDecoder()
	frames, skipped := d.Feed(raw)
	if len(frames) != 0 {
		t.Fatal("bad line must not decode", frames)
	}
	var pe *ParseError
	if len(skipped) != 1 || !errors.As(skipped[0], &pe) {
		t.Fatal("expected a parse skip, got", skipped)
	}
	if d.state.scanning || d.state.index != 0 {
		t.Error("a dropped line must leave scan state unchanged", d.state)
	}
}

func TestFeedBlankLines(t *testing.T) {
	d := NewDecoder()
	frames, skipped := d.Feed([]byte("\r\n  \r\n5\r\n"))
	if len(skipped) != 0 {
		t.Error("blank candidates are discarded silently, got", skipped)
	}
	if len(frames) != 1 || frames[0] != (ScalarSample{Value: 5}) {
		t.Error("wrong frames", frames)
	}
}

func TestScalarAfterMarkerKeepsState(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("a\r\n"))
	d.Feed([]byte("9\r\n"))
	if !d.state.scanning || d.state.index != 0 {
		t.Error("scalar readings must leave scan state unchanged", d.state)
	}
}

func TestDelimiterAccounting(t *testing.T) {
	// k terminated segments decode as k attempts, regardless of chunking.
	var raw []byte
	for i := 0; i < 7; i++ {
		raw = append(raw, fmt.Sprintf("%d\r\n", i)...)
	}
	raw = append(raw, "tail"...)

	d := NewDecoder()
	var total int
	for _, b := range raw {
		frames, _ := d.Feed([]byte{b})
		total += len(frames)
	}
	if total != 7 {
		t.Error("expected 7 frames, got", total)
	}
	if string(d.pending) != "tail" {
		t.Error("wrong pending", string(d.pending))
	}
}

func TestReset(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("a\r\npartial"))
	d.Reset()
	if d.pending != nil || d.state.scanning || d.state.index != 0 {
		t.Error("reset must clear tail and scan state")
	}
}
