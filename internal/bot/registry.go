package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// HandlerFunc runs one command. A returned error is turned into the command's failure reply.
type HandlerFunc func(ctx context.Context, req Request) error

// Command is one entry of the command table.
type Command struct {
	// Name is the command name without the leading slash, as shown in /help.
	Name        string
	Description string
	Usage       string
	// RequiresAuth gates the command behind a registered identity.
	RequiresAuth bool
	// NoDevice is the reply used when Spotify reports no active device.
	NoDevice string
	Handler  HandlerFunc
}

// Registry manages command registration and lookup. Names match case-insensitively.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	order    []*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds cmd to the registry.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}
	if cmd.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.Name)
	}

	cmd.Name = strings.TrimPrefix(cmd.Name, "/")
	key := strings.ToLower(cmd.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[key]; exists {
		return fmt.Errorf("command %s already registered", cmd.Name)
	}

	r.commands[key] = cmd
	r.order = append(r.order, cmd)
	return nil
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (*Command, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, "/"))

	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, exists := r.commands[name]
	return cmd, exists
}

// List returns all registered commands in registration order.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*Command, len(r.order))
	copy(cmds, r.order)
	return cmds
}

// Parse splits a command message into its lowercased name and whitespace-separated arguments.
//
// A "@botname" suffix on the command word is dropped, so "/topTracks@spotybot 3" parses as
// ("toptracks", ["3"]). ok is false when text is not a command at all.
func (r *Registry) Parse(text string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}

	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}

	return strings.ToLower(name), fields[1:], true
}
