package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUsage marks errors caused by malformed command lines.
var ErrUsage = errors.New("usage error")

// Parser parses user-defined arguments into flags
type Parser struct {
	flagSet *CommandFlagSet
	// StopAtPositional leaves every argument from the first positional one
	// onwards unparsed in Args, so global flags can precede a subcommand
	// with flags of its own.
	StopAtPositional bool
}

func NewParser(flagSet *CommandFlagSet) *Parser {
	if flagSet == nil {
		flagSet = &CommandFlagSet{Flags: make(map[string]*CommandFlag)}
	}

	return &Parser{
		flagSet: flagSet,
	}
}

func (cp *Parser) Parse(raw []string) (*CommandArgs, error) {
	args := &CommandArgs{
		Flags: make(map[string]any),
		Raw:   raw,
	}

	for flagName, flag := range cp.flagSet.Flags {
		if flag.Default != nil {
			args.Flags[flagName] = flag.Default
		}
	}

	longToName := make(map[string]string)
	shortToName := make(map[string]string)
	for flagName, flag := range cp.flagSet.Flags {
		longToName[flag.Name] = flagName
		if flag.Short != "" {
			shortToName[flag.Short] = flagName
		}
	}

	// Repeatable flags replace their default on first use
	given := make(map[string]bool)
	set := func(flagName, value string) error {
		flag := cp.flagSet.Flags[flagName]

		v, err := coerce(value, flag.Type)
		if err != nil {
			return fmt.Errorf("%w: flag %s: %v", ErrUsage, flag.Name, err)
		}

		if flag.Multiple || flag.Type == "stringSlice" {
			var values []string
			if given[flagName] {
				values, _ = args.Flags[flagName].([]string)
			}
			args.Flags[flagName] = append(values, value)
		} else {
			args.Flags[flagName] = v
		}
		given[flagName] = true
		return nil
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			args.Args = append(args.Args, raw[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "--") {
			key, value, hasValue := parseLongFlag(arg)
			flagName, exists := longToName[key]
			if !exists {
				return nil, fmt.Errorf("%w: unknown flag: --%s", ErrUsage, key)
			}

			flag := cp.flagSet.Flags[flagName]
			if flag.Type == "bool" {
				if hasValue {
					if err := set(flagName, value); err != nil {
						return nil, err
					}
				} else {
					args.Flags[flagName] = true
				}
			} else if hasValue {
				if err := set(flagName, value); err != nil {
					return nil, err
				}
			} else if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
				if err := set(flagName, raw[i+1]); err != nil {
					return nil, err
				}
				i++
			} else {
				return nil, fmt.Errorf("%w: flag %s requires a value", ErrUsage, key)
			}
			continue
		}

		if strings.HasPrefix(arg, "-") && len(arg) > 1 && arg != "-" {
			shortFlags := arg[1:]

			for j, shortChar := range shortFlags {
				shortStr := string(shortChar)
				flagName, exists := shortToName[shortStr]
				if !exists {
					return nil, fmt.Errorf("%w: unknown flag: -%s", ErrUsage, shortStr)
				}

				flag := cp.flagSet.Flags[flagName]

				if flag.Type == "bool" {
					args.Flags[flagName] = true
					continue
				}

				var err error
				if j+1 < len(shortFlags) {
					err = set(flagName, shortFlags[j+1:])
				} else if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
					err = set(flagName, raw[i+1])
					i++
				} else {
					return nil, fmt.Errorf("%w: flag -%s requires a value", ErrUsage, shortStr)
				}
				if err != nil {
					return nil, err
				}
				break
			}
			continue
		}

		if cp.StopAtPositional {
			args.Args = append(args.Args, raw[i:]...)
			break
		}
		args.Args = append(args.Args, arg)
	}

	for flagName, flag := range cp.flagSet.Flags {
		if flag.Required {
			if _, ok := args.Flags[flagName]; !ok {
				if flag.Short != "" {
					return nil, fmt.Errorf("%w: required flag: -%s / --%s", ErrUsage, flag.Short, flag.Name)
				} else {
					return nil, fmt.Errorf("%w: required flag: --%s", ErrUsage, flag.Name)
				}
			}
		}
	}

	return args, nil
}

func parseLongFlag(arg string) (key, value string, hasValue bool) {
	arg = strings.TrimPrefix(arg, "--")
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func coerce(value string, typeStr string) (any, error) {
	switch typeStr {
	case "string", "stringSlice":
		return value, nil
	case "int":
		return strconv.ParseInt(value, 10, 64)
	case "bool":
		return value == "true" || value == "1" || value == "yes", nil
	default:
		return value, nil
	}
}
