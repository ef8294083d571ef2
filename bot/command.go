package bot

import "strings"

// Command is a parsed chat command.
type Command struct {
	Name string // lowercased token after the prefix
	Args string // everything after the first space
}

// ParseCommand extracts a command from body. It reports false when body is
// empty or does not start with prefix.
func ParseCommand(prefix, body string) (Command, bool) {
	if body == "" || prefix == "" || !strings.HasPrefix(body, prefix) {
		return Command{}, false
	}
	head, args, _ := strings.Cut(body, " ")
	return Command{
		Name: strings.ToLower(strings.TrimPrefix(head, prefix)),
		Args: args,
	}, true
}
