package scanlink

// scanState tracks whether a scan is in progress and which line comes
// next. It is owned by the decoder; nothing else mutates it.
type scanState struct {
	scanning bool
	index    int
}

// markStart handles the device's scan start marker: the next scan line is
// line zero.
func (s *scanState) markStart() {
	s.scanning = true
	s.index = 0
}

// nextLine returns the index to stamp on an accepted scan line and
// advances the counter modulo LineWidth. A line arriving while no scan is
// in progress is taken as the first line of a new scan.
func (s *scanState) nextLine() int {
	if !s.scanning {
		s.scanning = true
		s.index = 0
	}
	idx := s.index
	s.index = (s.index + 1) % LineWidth
	return idx
}

func (s *scanState) reset() {
	s.scanning = false
	s.index = 0
}
