package scanlink

// LineWidth is the number of samples in one scan line.
const LineWidth = 256

// Frame is one decoded unit of scan data, either a ScalarSample or a
// LineSample.
type Frame interface {
	frame()
}

// ScalarSample is a single out-of-band reading from the scan head.
type ScalarSample struct {
	Value int
}

// LineSample is one full scan line. Index counts lines from the start of
// the scan, wrapping modulo LineWidth; Values holds exactly LineWidth
// samples in arrival order.
type LineSample struct {
	Index  int
	Values []int
}

func (ScalarSample) frame() {}
func (LineSample) frame()   {}
