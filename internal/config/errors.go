package config

import "fmt"

// ErrorKind classifies configuration resolution failures.
type ErrorKind int

const (
	// ArgParseFailed means the command line could not be parsed.
	ArgParseFailed ErrorKind = iota + 1
	// FileNotFound means the configuration file does not exist.
	FileNotFound
	// FileUnreadable means the configuration file exists but could not be read.
	FileUnreadable
	// SchemaInvalid means the file content does not match the configuration schema.
	SchemaInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case ArgParseFailed:
		return "argument parsing failed"
	case FileNotFound:
		return "configuration file not found"
	case FileUnreadable:
		return "configuration file unreadable"
	case SchemaInvalid:
		return "configuration schema invalid"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by ParseArgs, Load and Resolve.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
