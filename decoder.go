package scanlink

import (
	"bytes"
	"strconv"
	"strings"
)

var frameDelim = []byte("\r\n")

// scanStartMarker announces a new scan. Detection is by containment, not
// equality: any single-token line containing this byte counts as the
// marker, even one that would otherwise parse as a number. The firmware
// has always sent a bare "a", so this matches what the device does.
const scanStartMarker = "a"

// Decoder reassembles CRLF-delimited frames from arbitrary read chunks
// and classifies them. It holds the unterminated tail between calls and
// the scan line counter; create one per connection session.
//
// Decoder does no I/O and is not safe for concurrent use.
type Decoder struct {
	pending []byte
	state   scanState
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends in to the pending buffer and decodes every complete frame
// now available, in arrival order. Candidates that fail to decode are
// returned in skipped with a *ParseError or *FramingError each; they
// never abort the batch.
func (d *Decoder) Feed(in []byte) (frames []Frame, skipped []error) {
	d.pending = append(d.pending, in...)
	pieces := bytes.Split(d.pending, frameDelim)
	if len(pieces) < 2 {
		return nil, nil
	}

	for _, candidate := range pieces[:len(pieces)-1] {
		frame, err := d.decode(candidate)
		switch {
		case err != nil:
			skipped = append(skipped, err)
		case frame != nil:
			frames = append(frames, frame)
		}
	}

	// The last piece is either empty or a genuinely incomplete frame;
	// it becomes the new tail. Copied out because pieces alias the old
	// buffer.
	d.pending = append(d.pending[:0:0], pieces[len(pieces)-1]...)
	return frames, skipped
}

// decode classifies one delimiter-terminated candidate. It returns
// (nil, nil) for lines that carry no frame: blank lines and the scan
// start marker.
func (d *Decoder) decode(candidate []byte) (Frame, error) {
	line := strings.TrimSpace(string(candidate))
	if line == "" {
		return nil, nil
	}

	tokens := strings.Split(line, " ")
	switch len(tokens) {
	case 1:
		if strings.Contains(tokens[0], scanStartMarker) {
			d.state.markStart()
			return nil, nil
		}
		v, err := strconv.Atoi(tokens[0])
		if err != nil {
			return nil, &ParseError{Token: tokens[0], Err: err}
		}
		return ScalarSample{Value: v}, nil

	case LineWidth:
		values := make([]int, LineWidth)
		for i, tok := range tokens {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, &ParseError{Token: tok, Err: err}
			}
			values[i] = v
		}
		return LineSample{Index: d.state.nextLine(), Values: values}, nil

	default:
		return nil, &FramingError{Tokens: len(tokens)}
	}
}

// Reset drops the pending tail and the scan state, as on session start.
func (d *Decoder) Reset() {
	d.pending = nil
	d.state.reset()
}
