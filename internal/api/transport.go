package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"jordanella.com/freedogs-go/internal/proxypool"
)

// newTransport builds an HTTP transport that tunnels through p when it is set
func newTransport(p *proxypool.Proxy) (*http.Transport, error) {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if p == nil {
		return tr, nil
	}

	switch p.Scheme {
	case "http", "https":
		u, err := url.Parse(p.URL())
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %s: %w", p.Redacted(), err)
		}
		tr.Proxy = http.ProxyURL(u)

	case "socks5", "socks5h":
		var auth *proxy.Auth
		if p.Username != "" {
			auth = &proxy.Auth{User: p.Username, Password: p.Password}
		}
		d, err := proxy.SOCKS5("tcp", p.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("invalid socks proxy %s: %w", p.Redacted(), err)
		}
		tr.Proxy = nil
		if cd, ok := d.(proxy.ContextDialer); ok {
			tr.DialContext = cd.DialContext
		} else {
			tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return d.Dial(network, addr)
			}
		}

	default:
		return nil, fmt.Errorf("%w: %s", proxypool.ErrUnsupportedScheme, p.Scheme)
	}

	return tr, nil
}
