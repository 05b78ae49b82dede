package agent

import (
	"context"
	"testing"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    Agent
		wantErr bool
	}{
		{
			name:   "simple profile",
			header: `profile="https://agent.example/profile"`,
			want:   Agent{Profile: "https://agent.example/profile"},
		},
		{
			name:   "profile with whitespace",
			header: `  profile="https://agent.example/profile"  `,
			want:   Agent{Profile: "https://agent.example/profile"},
		},
		{
			name:   "profile and name",
			header: `profile="https://agent.example/profile", name="shopper"`,
			want:   Agent{Profile: "https://agent.example/profile", Name: "shopper"},
		},
		{
			name:   "name before profile",
			header: `name="bot", profile="https://foo.bar/p"`,
			want:   Agent{Profile: "https://foo.bar/p", Name: "bot"},
		},
		{
			name:   "semicolon params ignored",
			header: `profile="https://agent.example/profile";v=1`,
			want:   Agent{Profile: "https://agent.example/profile"},
		},
		{
			name:    "empty header",
			header:  "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			header:  "   ",
			wantErr: true,
		},
		{
			name:    "missing profile key",
			header:  `name="bot"`,
			wantErr: true,
		},
		{
			name:    "profile not a string",
			header:  `profile=42`,
			wantErr: true,
		},
		{
			name:    "profile is inner list",
			header:  `profile=("a" "b")`,
			wantErr: true,
		},
		{
			name:    "name not a string",
			header:  `profile="https://agent.example/profile", name=?1`,
			wantErr: true,
		},
		{
			name:    "malformed dictionary",
			header:  `profile="unterminated`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseHeader() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("ParseHeader() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext(empty) = %+v, want nil", got)
	}

	a := &Agent{Profile: "https://agent.example/profile"}
	ctx := WithAgent(context.Background(), a)
	if got := FromContext(ctx); got != a {
		t.Errorf("FromContext() = %+v, want %+v", got, a)
	}
}
