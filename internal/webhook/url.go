// Package webhook implements an EventSink that POSTs each tbucket event
// as JSON to a configured HTTP endpoint.
package webhook

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// IsValidHTTPAddress reports whether addr is a bare http(s)://host[:port]
// address: a scheme, a host, and nothing else (no path beyond "/", no
// query, no fragment). Used to validate the configured webhook endpoint
// before a Sink is constructed around it.
func IsValidHTTPAddress(addr string) bool {
	if addr == "" {
		return false
	}

	u, err := url.Parse(addr)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	if u.Path != "" && u.Path != "/" {
		return false
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return false
	}

	return true
}

// IsValidPyroscopeAddress strictly validates an http://host:port address
// with no path/query/fragment, the format the continuous-profiling
// server address requires. It additionally requires an http (never
// https) scheme and an explicit port.
func IsValidPyroscopeAddress(addr string) bool {
	if addr == "" {
		return false
	}

	u, err := url.Parse(addr)
	if err != nil {
		return false
	}
	if u.Scheme != "http" {
		return false
	}
	if u.Path != "" && u.Path != "/" {
		return false
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return false
	}

	host := u.Host
	if host == "" {
		return false
	}

	var hostname, port string
	if strings.HasPrefix(host, "[") {
		end := strings.LastIndex(host, "]")
		if end == -1 {
			return false
		}
		hostname = host[:end+1]
		if len(host) <= end+1 || host[end+1] != ':' {
			return false
		}
		port = host[end+2:]
	} else {
		parts := strings.Split(host, ":")
		if len(parts) < 2 {
			return false
		}
		port = parts[len(parts)-1]
		hostname = strings.Join(parts[:len(parts)-1], ":")
	}

	if port == "" || hostname == "" {
		return false
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum <= 0 || portNum > 65535 {
		return false
	}
	_ = net.ParseIP(strings.Trim(hostname, "[]"))

	return true
}
