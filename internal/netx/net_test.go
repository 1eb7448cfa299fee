package netx

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterfaceChecker(t *testing.T) {
	addr := &net.IPNet{IP: net.IPv4(10, 0, 0, 2), Mask: net.CIDRMask(24, 32)}

	tests := []struct {
		name   string
		ifaces []net.Interface
		ifErr  error
		addrs  map[string][]net.Addr
		want   bool
	}{
		{name: "listing fails", ifErr: errors.New("boom"), want: false},
		{name: "loopback only", ifaces: []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}},
			addrs: map[string][]net.Addr{"lo": {addr}}, want: false},
		{name: "down interface", ifaces: []net.Interface{{Name: "eth0"}},
			addrs: map[string][]net.Addr{"eth0": {addr}}, want: false},
		{name: "up without address", ifaces: []net.Interface{{Name: "eth0", Flags: net.FlagUp}}, want: false},
		{name: "up with address", ifaces: []net.Interface{
			{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
			{Name: "wlan0", Flags: net.FlagUp},
		}, addrs: map[string][]net.Addr{"wlan0": {addr}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &InterfaceChecker{
				interfaces: func() ([]net.Interface, error) { return tt.ifaces, tt.ifErr },
				addrs:      func(i net.Interface) ([]net.Addr, error) { return tt.addrs[i.Name], nil },
			}
			assert.Equal(t, tt.want, c.Available())
		})
	}
}

func TestCheckerFunc(t *testing.T) {
	assert.True(t, Always.Available())
	assert.False(t, CheckerFunc(func() bool { return false }).Available())
}

func TestNewInterfaceChecker_DoesNotPanic(t *testing.T) {
	_ = NewInterfaceChecker().Available()
}
