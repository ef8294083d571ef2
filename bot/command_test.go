package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		body   string
		want   Command
		wantOK bool
	}{
		{"!help", Command{Name: "help"}, true},
		{"!HeLp", Command{Name: "help"}, true},
		{"!creategroup My Team", Command{Name: "creategroup", Args: "My Team"}, true},
		{"!creategroup", Command{Name: "creategroup"}, true},
		{"!creategroup  spaced", Command{Name: "creategroup", Args: " spaced"}, true},
		{"!", Command{}, true},
		{"help", Command{}, false},
		{" !help", Command{}, false},
		{"", Command{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, ok := ParseCommand("!", tt.body)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.CommandGroup = "120@g.us"
	assert.NoError(t, cfg.Validate())

	cfg.PromptTTL = 0
	assert.Error(t, cfg.Validate())
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"service", "pin", "identity"}, ParseList(" Service, pin,,IDENTITY "))
	assert.Empty(t, ParseList(""))
}
