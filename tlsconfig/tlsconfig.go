/*
 * MIT License
 *
 * Copyright (c) 2026 chatrelay contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package tlsconfig turns a server certificate/key file pair into a
// *tls.Config the listener can upgrade to. It covers the one case this
// server needs: one server identity, no client-certificate verification, no
// custom CA bundle.
package tlsconfig

import (
	"crypto/tls"

	"github.com/nabbar/chatrelay/chaterr"
)

// Config describes the PEM file pair for the server's TLS identity.
type Config struct {
	CertFile string `mapstructure:"certFile" json:"certFile" yaml:"certFile"`
	KeyFile  string `mapstructure:"keyFile" json:"keyFile" yaml:"keyFile"`
	MinVersion uint16
}

// Empty reports whether both fields are unset, the common case of a plain
// (non-TLS) deployment.
func (c Config) Empty() bool {
	return c.CertFile == "" && c.KeyFile == ""
}

// New loads the certificate/key pair and returns a minimal server-side
// *tls.Config. It fails if exactly one of CertFile/KeyFile is set, since
// that is always a configuration mistake rather than "disabled".
func (c Config) New() (*tls.Config, error) {
	if c.Empty() {
		return nil, nil
	}
	if c.CertFile == "" || c.KeyFile == "" {
		return nil, chaterr.New(chaterr.CodeMalformed, "tlsconfig: both a certificate and a key file are required")
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, chaterr.Wrap(chaterr.CodeTransport, "tlsconfig: loading key pair", err)
	}

	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}
