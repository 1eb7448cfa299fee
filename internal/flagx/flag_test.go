package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	clientFlags    = []string{"-a", "-i", "-t", "-d", "-l"}
	collectorFlags = []string{"-a", "-s", "-t", "-o", "-b"}
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "client keeps its own flags",
			args:    []string{"-c", "client.json", "-a", "srv:50051", "-t", "7", "-b", "bucket"},
			allowed: clientFlags,
			want:    []string{"-a", "srv:50051", "-t", "7"},
		},
		{
			name:    "collector keeps its own flags",
			args:    []string{"-a", ":50051", "-i", "3", "-b", "reports", "-s=k"},
			allowed: collectorFlags,
			want:    []string{"-a", ":50051", "-b", "reports", "-s=k"},
		},
		{
			name:    "equals form of a foreign flag is dropped",
			args:    []string{"-x=1", "-d=/data"},
			allowed: clientFlags,
			want:    []string{"-d=/data"},
		},
		{
			name:    "dangling flag at the end",
			args:    []string{"-l"},
			allowed: clientFlags,
			want:    []string{"-l"},
		},
		{
			name:    "next token starting with dash is not a value",
			args:    []string{"-d", "-l", "debug"},
			allowed: clientFlags,
			want:    []string{"-d", "-l", "debug"},
		},
		{
			name:    "stray positionals are dropped",
			args:    []string{"resend", "-t", "9", "now"},
			allowed: clientFlags,
			want:    []string{"-t", "9"},
		},
		{
			name:    "repeats keep order",
			args:    []string{"-a", "one", "-a", "two"},
			allowed: clientFlags,
			want:    []string{"-a", "one", "-a", "two"},
		},
		{
			name:    "nothing to keep is empty, not nil",
			args:    nil,
			allowed: clientFlags,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short form", []string{"-t", "5", "-c", "/etc/rk/client.json"}, "/etc/rk/client.json"},
		{"long form", []string{"-config", "/etc/rk/collector.json"}, "/etc/rk/collector.json"},
		{"double dash equals", []string{"--config=/etc/rk/eq.json", "-a", "x"}, "/etc/rk/eq.json"},
		{"last one wins", []string{"-c", "a.json", "-config", "b.json"}, "b.json"},
		{"absent", []string{"-a", "srv:1"}, ""},
		{"missing value", []string{"-c"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
