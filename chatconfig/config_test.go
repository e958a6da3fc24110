package chatconfig_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nabbar/chatrelay/chatconfig"
)

func TestRegisterFlagsDefaults(t *testing.T) {
	cmd := &cobra.Command{Use: "serve"}
	v := viper.New()

	if err := chatconfig.RegisterFlags(cmd, v); err != nil {
		t.Fatalf("register flags: %v", err)
	}

	s := chatconfig.Load(v)
	if s.LogFormat != "text" {
		t.Fatalf("expected default log format text, got %q", s.LogFormat)
	}
	if s.BufferCapacity != 1024 {
		t.Fatalf("expected default buffer capacity 1024, got %d", s.BufferCapacity)
	}
	if s.Port != 0 {
		t.Fatalf("expected default port 0, got %d", s.Port)
	}
	if s.MaxConnections != 4096 {
		t.Fatalf("expected default max connections 4096, got %d", s.MaxConnections)
	}
}

func TestRegisterFlagsOverride(t *testing.T) {
	cmd := &cobra.Command{Use: "serve"}
	v := viper.New()

	if err := chatconfig.RegisterFlags(cmd, v); err != nil {
		t.Fatalf("register flags: %v", err)
	}

	if err := cmd.Flags().Set("port", "9000"); err != nil {
		t.Fatalf("set port: %v", err)
	}
	if err := cmd.Flags().Set("log-format", "json"); err != nil {
		t.Fatalf("set log-format: %v", err)
	}
	if err := cmd.Flags().Set("max-connections", "64"); err != nil {
		t.Fatalf("set max-connections: %v", err)
	}

	s := chatconfig.Load(v)
	if s.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", s.Port)
	}
	if s.LogFormat != "json" {
		t.Fatalf("expected log format json, got %q", s.LogFormat)
	}
	if s.MaxConnections != 64 {
		t.Fatalf("expected max connections 64, got %d", s.MaxConnections)
	}
}
