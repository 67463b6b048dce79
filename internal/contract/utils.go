package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Health label constants keyed on the number of regular committers.
const (
	HealthyValue  = "Healthy"
	SteadyValue   = "Steady"
	FragileValue  = "Fragile"
	DormantValue  = "Dormant"
	healthyCutoff = 5
	steadyCutoff  = 2
)

// Color variables for console output.
var (
	HealthyColor = color.New(color.FgGreen, color.Bold)
	SteadyColor  = color.New(color.FgCyan)
	FragileColor = color.New(color.FgYellow)
	DormantColor = color.New(color.FgRed, color.Bold)
	HeaderColor  = color.New(color.FgBlue, color.Bold)
)

// GetPlainLabel returns a plain text label describing how well staffed a
// project is, based on its number of regular committers.
func GetPlainLabel(regular int) string {
	switch {
	case regular >= healthyCutoff:
		return HealthyValue
	case regular >= steadyCutoff:
		return SteadyValue
	case regular == 1:
		return FragileValue
	default:
		return DormantValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(regular int) string {
	text := GetPlainLabel(regular)

	switch text {
	case HealthyValue:
		return HealthyColor.Sprint(text)
	case SteadyValue:
		return SteadyColor.Sprint(text)
	case FragileValue:
		return FragileColor.Sprint(text)
	default:
		return DormantColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetCacheRoot returns the default directory for file-based history snapshots.
func GetCacheRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".osshealth_cache"
	}
	return filepath.Join(homeDir, ".osshealth_cache")
}

// GetCacheDBFilePath returns the path to the DB file used by the sqlite and bolt backends.
func GetCacheDBFilePath(ext string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".osshealth_cache." + ext
	}
	return filepath.Join(homeDir, ".osshealth_cache."+ext)
}

// TruncatePath truncates a string to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
