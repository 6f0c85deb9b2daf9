package scanlink

import "go.bug.st/serial/enumerator"

// ListPorts returns the names of the serial ports present on the system,
// in enumeration order.
func ListPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	return names, nil
}
