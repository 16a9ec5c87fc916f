package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// CommandManager handles command registration, parsing, and execution
type CommandManager struct {
	mu   sync.RWMutex
	api  API
	cmds map[string]Command
}

func NewCommandManager(api API) *CommandManager {
	return &CommandManager{
		api:  api,
		cmds: make(map[string]Command),
	}
}

// Register registers a custom command
func (cm *CommandManager) Register(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}

	name := cmd.Name()
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.cmds[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}

	cm.cmds[name] = cmd
	return nil
}

// Get returns a command by name
func (cm *CommandManager) Get(name string) (Command, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	cmd, exists := cm.cmds[name]
	if !exists {
		return nil, fmt.Errorf("%w: command not found: %s", ErrUsage, name)
	}

	return cmd, nil
}

// List returns all registered commands sorted by name
func (cm *CommandManager) List() []Command {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	commands := make([]Command, 0, len(cm.cmds))
	for _, cmd := range cm.cmds {
		commands = append(commands, cmd)
	}

	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name() < commands[j].Name()
	})
	return commands
}

// Execute parses and executes a command. Usage errors exit with 2.
func (cm *CommandManager) Execute(ctx context.Context, writer io.Writer, args ...string) (int, error) {
	if len(args) == 0 {
		return 2, fmt.Errorf("%w: no command specified", ErrUsage)
	}

	cmd, err := cm.Get(args[0])
	if err != nil {
		return 2, err
	}

	parsedArgs, err := NewParser(cmd.GetFlags()).Parse(args[1:])
	if err != nil {
		return 2, fmt.Errorf("parse error: %w", err)
	}

	code, err := cmd.Execute(ctx, cm.api, parsedArgs, writer)
	if errors.Is(err, ErrUsage) && code == 1 {
		code = 2
	}
	return code, err
}

// Usage writes a short help text for every registered command.
func (cm *CommandManager) Usage(writer io.Writer) {
	for _, cmd := range cm.List() {
		fmt.Fprintf(writer, "  %-8s %s\n", cmd.Name(), cmd.Description())
		fmt.Fprintf(writer, "           usage: %s\n", cmd.Usage())
	}
}
