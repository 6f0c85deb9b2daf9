package scanlink

import "strconv"

// Command is one outbound ASCII control string for the scan head. The
// newline terminator is applied on transmission by Worker.Send, not baked
// into the command itself.
type Command string

const (
	// ScanStart starts a raster scan.
	ScanStart Command = "u"
	// ScanStop ends the current scan.
	ScanStop Command = "e"
)

// Speed sets the per-sample delay in microseconds.
func Speed(delayMicros int) Command {
	return Command("p" + strconv.Itoa(delayMicros))
}

// MoveX sets the X origin of the scan window.
func MoveX(x int) Command {
	return Command("x" + strconv.Itoa(x))
}

// MoveY sets the Y origin of the scan window.
func MoveY(y int) Command {
	return Command("y" + strconv.Itoa(y))
}

// Gap sets the gap between scan lines.
func Gap(g int) Command {
	return Command("g" + strconv.Itoa(g))
}

// StartScan composes the command sequence that kicks off a scan. The
// device expects sequential single-line commands in exactly this order.
func StartScan(x, y, speed, gap int) []Command {
	return []Command{
		Speed(speed),
		MoveX(x),
		MoveY(y),
		Gap(gap),
		ScanStart,
	}
}
