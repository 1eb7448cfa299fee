// Package netx answers "is the device online at all", the cheap local check
// made before any resend is attempted.
package netx

import (
	"net"
)

// Checker reports whether a network path is known to be available.
type Checker interface {
	Available() bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func() bool

func (f CheckerFunc) Available() bool { return f() }

// Always is a Checker for environments with no way to tell.
var Always Checker = CheckerFunc(func() bool { return true })

// InterfaceChecker reports online when at least one non-loopback interface
// is up and has an address.
type InterfaceChecker struct {
	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
}

func NewInterfaceChecker() *InterfaceChecker {
	return &InterfaceChecker{
		interfaces: net.Interfaces,
		addrs:      func(i net.Interface) ([]net.Addr, error) { return i.Addrs() },
	}
}

func (c *InterfaceChecker) Available() bool {
	ifaces, err := c.interfaces()
	if err != nil {
		return false
	}
	for _, i := range ifaces {
		if i.Flags&net.FlagUp == 0 || i.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := c.addrs(i)
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
