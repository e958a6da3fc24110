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

// Package chatconfig binds the server's settings to a cobra command's flags
// and a viper instance, so the same values can come from a flag or an
// environment variable (prefixed CHATRELAY_), in that order of precedence,
// falling back to the flag's default. No config file is read.
package chatconfig

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Settings is the flattened configuration surface of one server process.
type Settings struct {
	BindIP            string
	Port              int
	BufferCapacity    int
	MaxFileFrameBytes uint32
	MaxConnections    int
	LogFormat         string
	TLSCertFile       string
	TLSKeyFile        string
	MetricsAddr       string
}

// Keys used both as flag names and as viper keys.
const (
	keyBind           = "bind"
	keyPort           = "port"
	keyBufferCapacity = "buffer-capacity"
	keyMaxFileFrame   = "max-file-frame-bytes"
	keyMaxConnections = "max-connections"
	keyLogFormat      = "log-format"
	keyTLSCert        = "tls-cert"
	keyTLSKey         = "tls-key"
	keyMetricsAddr    = "metrics-addr"
)

// RegisterFlags adds every setting's flag to cmd and binds it into v, so
// v.Get* reflects flag > environment > flag default precedence.
func RegisterFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Flags()

	flags.String(keyBind, "", "address to bind the listener to (empty binds all interfaces)")
	flags.Int(keyPort, 0, "port to listen on (0 lets the OS choose)")
	flags.Int(keyBufferCapacity, 1024, "request buffer queue depth")
	flags.Uint32(keyMaxFileFrame, 64<<20, "maximum accepted frame payload, in bytes, for any frame type (0 disables the limit)")
	flags.Int(keyMaxConnections, 4096, "maximum number of connections handled concurrently (0 disables the limit)")
	flags.String(keyLogFormat, "text", "log output format: text or json")
	flags.String(keyTLSCert, "", "TLS certificate file (requires tls-key)")
	flags.String(keyTLSKey, "", "TLS private key file (requires tls-cert)")
	flags.String(keyMetricsAddr, "", "address to serve Prometheus metrics on (empty disables it)")

	for _, key := range []string{
		keyBind, keyPort, keyBufferCapacity, keyMaxFileFrame, keyMaxConnections,
		keyLogFormat, keyTLSCert, keyTLSKey, keyMetricsAddr,
	} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return fmt.Errorf("chatconfig: binding flag %q: %w", key, err)
		}
	}

	v.SetEnvPrefix("CHATRELAY")
	v.AutomaticEnv()

	return nil
}

// Load reads the bound values out of v into a Settings value.
func Load(v *viper.Viper) Settings {
	return Settings{
		BindIP:            v.GetString(keyBind),
		Port:              v.GetInt(keyPort),
		BufferCapacity:    v.GetInt(keyBufferCapacity),
		MaxFileFrameBytes: uint32(v.GetUint(keyMaxFileFrame)),
		MaxConnections:    v.GetInt(keyMaxConnections),
		LogFormat:         v.GetString(keyLogFormat),
		TLSCertFile:       v.GetString(keyTLSCert),
		TLSKeyFile:        v.GetString(keyTLSKey),
		MetricsAddr:       v.GetString(keyMetricsAddr),
	}
}
