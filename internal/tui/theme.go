package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Theme selects the TUI color scheme.
type Theme string

// Supported themes. Dark is the default.
const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

const (
	stateDir  = ".lectern"
	themeFile = "theme"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// themeFilePath returns the full path to the theme state file.
// Creates the state directory (~/.lectern) if it doesn't exist.
func themeFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	stateDirPath := filepath.Join(homeDir, stateDir)
	if err := os.MkdirAll(stateDirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	return filepath.Join(stateDirPath, themeFile), nil
}

// LoadTheme returns the persisted theme, or ThemeDark when no preference
// has been saved or the saved value is unrecognized.
func LoadTheme() Theme {
	path, err := themeFilePath()
	if err != nil {
		return ThemeDark
	}
	return loadThemeFrom(path)
}

func loadThemeFrom(path string) Theme {
	data, err := os.ReadFile(path)
	if err != nil {
		return ThemeDark
	}
	switch Theme(strings.TrimSpace(string(data))) {
	case ThemeLight:
		return ThemeLight
	default:
		return ThemeDark
	}
}

// SaveTheme persists the theme preference for the next run.
func SaveTheme(theme Theme) error {
	path, err := themeFilePath()
	if err != nil {
		return err
	}
	return saveThemeTo(path, theme)
}

func saveThemeTo(path string, theme Theme) error {
	if err := os.WriteFile(path, []byte(theme), 0644); err != nil {
		return fmt.Errorf("failed to write theme file: %w", err)
	}
	return nil
}
