package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "elibrary.yaml", "-a", ":8080"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "elibrary.yaml"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-a", ":8080"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "cobra subcommand and its flags are dropped",
			args:         []string{"books", "--category", "Darslik", "-c", "cli.yaml"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "cli.yaml"},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "next dash-starting token is not a value",
			args:         []string{"-c", "--config=alt.json"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "--config=alt.json"},
		},
		{
			name:         "repeated allowed flag is preserved in order",
			args:         []string{"-c", "one.json", "-c", "two.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	t.Run("short flag", func(t *testing.T) {
		assert.Equal(t, "/etc/short.yaml", ConfigFileFlag([]string{"-c", "/etc/short.yaml"}, ""))
	})

	t.Run("double dash long flag", func(t *testing.T) {
		assert.Equal(t, "/etc/long.json", ConfigFileFlag([]string{"--config=/etc/long.json"}, ""))
	})

	t.Run("last wins", func(t *testing.T) {
		assert.Equal(t, "2.json", ConfigFileFlag([]string{"-c", "1.json", "-config", "2.json"}, ""))
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("ELIBRARY_CONFIG", "/env/conf.yaml")
		assert.Equal(t, "/env/conf.yaml", ConfigFileFlag([]string{"-x", "1"}, "ELIBRARY_CONFIG"))
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv("ELIBRARY_CONFIG", "/env/conf.yaml")
		assert.Equal(t, "flag.yaml", ConfigFileFlag([]string{"-c", "flag.yaml"}, "ELIBRARY_CONFIG"))
	})

	t.Run("nothing", func(t *testing.T) {
		assert.Empty(t, ConfigFileFlag(nil, ""))
	})
}
