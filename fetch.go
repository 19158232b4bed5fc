package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
)

// fetch issues a GET for url and fails on anything but a 200 response.
// The caller owns the returned body.
func (d *Downloader) fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error making HTTP request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := d.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, newResolveError(ErrUnexpectedResponse, url, "unexpected response: %s", resp.Status)
	}
	return resp, nil
}

// fetchBytes returns the whole body of a 200 response from url.
func (d *Downloader) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading HTTP response body for %s: %w", url, err)
	}
	return body, nil
}

func (d *Downloader) httpClient() *http.Client {
	if d.client != nil {
		return d.client
	}
	return &http.Client{Timeout: d.Timeout}
}

// isConnectivityError reports whether err came from the network or the system beneath it
// (DNS, refused connections, timeouts) as opposed to a response we didn't like.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var re *ResolveError
	if errors.As(err, &re) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	// http.Client wraps everything in *url.Error, which is itself a net.Error
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		err = urlErr.Err
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
