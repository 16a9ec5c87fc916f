package cmd

// CommandArgs contains parsed command arguments
type CommandArgs struct {
	// Positional arguments (command-specific)
	Args []string

	// Parsed flags
	Flags map[string]any

	// Raw unparsed arguments (for custom parsing)
	Raw []string
}

// String returns the value of a string flag or an empty string.
func (a *CommandArgs) String(name string) string {
	value, _ := a.Flags[name].(string)
	return value
}

// Bool reports whether a bool flag was set.
func (a *CommandArgs) Bool(name string) bool {
	value, _ := a.Flags[name].(bool)
	return value
}

// Int returns the value of an int flag or zero.
func (a *CommandArgs) Int(name string) int64 {
	value, _ := a.Flags[name].(int64)
	return value
}

// StringSlice returns every value given for a repeatable flag, in order.
func (a *CommandArgs) StringSlice(name string) []string {
	value, _ := a.Flags[name].([]string)
	return value
}

// Has reports whether the flag was given or has a default.
func (a *CommandArgs) Has(name string) bool {
	_, ok := a.Flags[name]
	return ok
}

// CommandFlagSet defines the expected flags for a command
type CommandFlagSet struct {
	Flags map[string]*CommandFlag
}

// CommandFlag represents a single command-line flag
type CommandFlag struct {
	Name        string `json:"name"`              // e.g., "namespace" or "n"
	Short       string `json:"short"`             // Single-char shorthand (e.g., "n")
	Type        string `json:"type"`              // "string", "bool", "int", "stringSlice"
	Default     any    `json:"default,omitempty"` // Default value
	Required    bool   `json:"required"`          // Must be provided
	Description string `json:"description"`       // Help text
	Multiple    bool   `json:"multiple"`          // Can be specified multiple times
}
