// Package scanlink talks to an AFM scan head over a serial link.
//
// The scan head streams ASCII measurement lines terminated by CRLF. A line
// carrying a single integer is a scalar reading; a line of 256 space
// separated integers is one full scan line; a line containing the scan
// start marker resets the line counter. Decoder reassembles frames from
// arbitrary read chunks, Worker runs the read-decode-publish loop on its
// own goroutine, and the command helpers build the outbound control
// strings ("p1000", "x0", "u", ...).
//
// A typical session:
//
//	frames := make(chan scanlink.Frame, 256)
//	errs := make(chan error, 1)
//	w := scanlink.NewWorker(frames, errs)
//	w.Start(scanlink.Params{Port: "/dev/ttyUSB0"})
//	defer func() { w.Stop(); <-w.Done() }()
//
//	w.StartScan(0, 0, 2000, 1)
//	for f := range frames {
//		switch f := f.(type) {
//		case scanlink.ScalarSample:
//			// out-of-band reading
//		case scanlink.LineSample:
//			// f.Index, f.Values
//		}
//	}
//
// Anything on the error channel is fatal to the session; the worker has
// already shut down when it arrives.
package scanlink
