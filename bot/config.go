package bot

import (
	"fmt"
	"strings"
	"time"
)

// Config holds bot configuration. It is read once at startup and never mutated.
type Config struct {
	Owner         string   // owner's WhatsApp id
	CommandGroup  string   // the only chat where commands are recognized
	TriggerWords  []string // lowercase substrings that trigger the service message
	SendDelay     time.Duration
	DataDir       string
	ContactSuffix string // re-appended to bare numbers, e.g. "@s.whatsapp.net"
	PromptTTL     time.Duration
	Prefix        string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TriggerWords:  []string{"service", "pin", "identity"},
		SendDelay:     3 * time.Second,
		DataDir:       "bot_data",
		ContactSuffix: "@s.whatsapp.net",
		PromptTTL:     5 * time.Minute,
		Prefix:        "!",
	}
}

// Validate checks the fields the bot cannot run without.
func (c Config) Validate() error {
	if c.CommandGroup == "" {
		return fmt.Errorf("command group is required")
	}
	if c.Prefix == "" {
		return fmt.Errorf("command prefix is required")
	}
	if c.SendDelay < 0 {
		return fmt.Errorf("send delay must not be negative")
	}
	if c.PromptTTL <= 0 {
		return fmt.Errorf("prompt ttl must be positive")
	}
	return nil
}

// ParseList splits a comma-separated list, trimming and lowercasing entries.
func ParseList(s string) []string {
	var out []string
	for _, w := range strings.Split(s, ",") {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
