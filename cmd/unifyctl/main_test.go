package main

import (
	"testing"

	"commerce-unify/internal/agent"
)

func TestAgentHeaderRoundTrip(t *testing.T) {
	header, err := agentHeader("https://agent.example/profile")
	if err != nil {
		t.Fatalf("agentHeader() error: %v", err)
	}

	a, err := agent.ParseHeader(header)
	if err != nil {
		t.Fatalf("ParseHeader(%q) error: %v", header, err)
	}
	if a.Profile != "https://agent.example/profile" {
		t.Errorf("Profile = %q", a.Profile)
	}
	if a.Name != "unifyctl" {
		t.Errorf("Name = %q, want unifyctl", a.Name)
	}
}
