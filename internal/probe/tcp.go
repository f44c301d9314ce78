package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// TCPProber reports a target reachable when a TCP connection can be opened.
type TCPProber struct {
	Addr    string // host:port
	Timeout time.Duration
	dialer  net.Dialer
}

// NewTCPProber creates a prober dialing host:port with the given timeout.
func NewTCPProber(host string, port int, timeout time.Duration) *TCPProber {
	return &TCPProber{
		Addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		Timeout: timeout,
	}
}

func (p *TCPProber) Check(ctx context.Context) Result {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := p.dialer.DialContext(ctx, "tcp", p.Addr)
	latency := time.Since(start)
	if err != nil {
		return Result{Reachable: false, Latency: latency, Message: err.Error()}
	}
	conn.Close()
	return Result{Reachable: true, Latency: latency, Message: "connected"}
}
