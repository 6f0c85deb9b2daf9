// Command scantcp streams decoded scan frames as text lines to any number
// of TCP clients, one frame per line. Scalars render as the bare value,
// scan lines as the line index followed by its 256 samples. Useful for
// eyeballing a live scan with nc, or recording one with tee.
package main

import (
	"flag"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/afmlab/scanlink"
)

func main() {
	port := flag.String("serial", "/dev/ttyUSB0", "Serial port")
	baud := flag.Int("baud", 115200, "Baud rate")
	listen := flag.String("listen", "0.0.0.0:2117", "Listen address")
	flag.Parse()

	frames := make(chan scanlink.Frame, 256)
	errs := make(chan error, 1)
	worker := scanlink.NewWorker(frames, errs)
	worker.Start(scanlink.Params{Port: *port, BaudRate: *baud})

	lines := newFanout[string]()
	go func() {
		for {
			select {
			case f := <-frames:
				lines.Publish(renderFrame(f))
			case err := <-errs:
				log.Fatal(err)
			}
		}
	}()

	list, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatal(err)
	}
	for {
		conn, err := list.Accept()
		if err != nil {
			log.Fatal(err)
		}
		go handleConn(conn, lines)
	}
}

func renderFrame(f scanlink.Frame) string {
	switch f := f.(type) {
	case scanlink.ScalarSample:
		return strconv.Itoa(f.Value)
	case scanlink.LineSample:
		parts := make([]string, 0, len(f.Values)+1)
		parts = append(parts, strconv.Itoa(f.Index))
		for _, v := range f.Values {
			parts = append(parts, strconv.Itoa(v))
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func handleConn(conn net.Conn, lines *fanout[string]) {
	ch, cancel := lines.Subscribe()
	defer cancel()
	defer conn.Close()
	for line := range ch {
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			log.Println(err)
			return
		}
	}
}
