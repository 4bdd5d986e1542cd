package network

import (
	"net"
	"os"
)

var localhostIP = net.IPv4(127, 0, 0, 1)

// HostIP returns the first non loopback IPv4 address of this host, or
// 127.0.0.1 when there is none.
func HostIP() net.IP {
	hostname, err := os.Hostname()
	if err != nil {
		return localhostIP
	}
	addrs, err := net.LookupIP(hostname)
	if err != nil {
		return localhostIP
	}
	return firstIPv4(addrs)
}

func firstIPv4(addrs []net.IP) net.IP {
	for _, ip := range addrs {
		if ip.IsLoopback() {
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4
		}
	}
	return localhostIP
}
