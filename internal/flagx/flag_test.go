package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	server := []string{"-a", "-d", "-m", "-w"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate values",
			args:    []string{"-a", ":9000", "-c", "ak.yaml", "-m", "3"},
			allowed: server,
			want:    []string{"-a", ":9000", "-m", "3"},
		},
		{
			name:    "equals form",
			args:    []string{"-d=postgres://x", "-l=debug"},
			allowed: server,
			want:    []string{"-d=postgres://x"},
		},
		{
			name:    "double dash matches single dash name",
			args:    []string{"--w", "15", "--a=:1"},
			allowed: server,
			want:    []string{"--w", "15", "--a=:1"},
		},
		{
			name:    "names listed without dashes",
			args:    []string{"-config", "ak.toml"},
			allowed: []string{"config"},
			want:    []string{"-config", "ak.toml"},
		},
		{
			name:    "value looking like a flag is not consumed",
			args:    []string{"-a", "-m", "0"},
			allowed: server,
			want:    []string{"-a", "-m", "0"},
		},
		{
			name:    "negative number is treated as a flag",
			args:    []string{"-m", "-1"},
			allowed: server,
			want:    []string{"-m"},
		},
		{
			name:    "flag at end without value",
			args:    []string{"-w"},
			allowed: server,
			want:    []string{"-w"},
		},
		{
			name:    "positional and bare dash ignored",
			args:    []string{"serve", "-", "-x"},
			allowed: server,
			want:    []string{},
		},
		{
			name:    "repeated flag kept in order",
			args:    []string{"-m", "1", "-m", "2"},
			allowed: server,
			want:    []string{"-m", "1", "-m", "2"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "x"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"authkeeper", "-m", "3", "-c", "/etc/authkeeper/ak.yaml"}
	assert.Equal(t, "/etc/authkeeper/ak.yaml", ConfigFileFlag())

	os.Args = []string{"authkeeper", "-m", "3"}
	assert.Empty(t, ConfigFileFlag())
}

func Test_configFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "a.json"}, "a.json"},
		{"long", []string{"-config", "b.toml"}, "b.toml"},
		{"double dash equals", []string{"--config=/srv/ak.yml"}, "/srv/ak.yml"},
		{"last wins", []string{"-c", "1.json", "-config", "2.json"}, "2.json"},
		{"mixed with server flags", []string{"-a", ":9000", "-config=/srv/ak.json", "-m", "0"}, "/srv/ak.json"},
		{"absent", []string{"-a", ":9000"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, configFileFlag(tt.args))
		})
	}
}
