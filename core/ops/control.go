package ops

import "fmt"

// ControlStyle selects how a launch control is rendered in the chat.
type ControlStyle string

const (
	// StyleKeyboard renders a resized reply keyboard under the input field.
	StyleKeyboard ControlStyle = "keyboard"
	// StyleInline renders a button attached to the message itself.
	StyleInline ControlStyle = "inline"
)

// LaunchControl is a button that opens the mini-app web view at URL.
type LaunchControl struct {
	Label string
	URL   string
	Style ControlStyle
}

// ParseControlStyle maps a config value onto a ControlStyle.
func ParseControlStyle(s string) (ControlStyle, error) {
	switch ControlStyle(s) {
	case StyleKeyboard, StyleInline:
		return ControlStyle(s), nil
	case "":
		return StyleKeyboard, nil
	default:
		return "", fmt.Errorf("unknown control style %q", s)
	}
}
