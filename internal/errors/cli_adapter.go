package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if ee, ok := As(err); ok {
		return a.exitCodeFromEnerator(ee)
	}

	return 1
}

// exitCodeFromEnerator maps EneratorError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromEnerator(err *EneratorError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryModuleNotFound, CategoryNotFound:
		return 3
	case CategoryInvalidModule:
		return 4
	case CategoryRender:
		return 5
	case CategoryConfig:
		return 7 // Configuration error
	case CategorySitemap, CategoryFileSystem:
		return 11 // Build output error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if ee, ok := As(err); ok {
		return a.formatEnerator(ee)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatEnerator formats an EneratorError for display.
func (a *CLIErrorAdapter) formatEnerator(err *EneratorError) string {
	if a.verbose {
		return err.Error()
	}

	msg := err.Message
	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for k := range err.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, err.Context[k]))
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, ", "))
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return msg
	default:
		return fmt.Sprintf("%s: %s", err.Category, msg)
	}
}

// Report logs an error when appropriate, prints it to w and returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintf(w, "%s\n", a.FormatError(err))
	return a.ExitCodeFor(err)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if ee, ok := As(err); ok {
		return ee.Category == CategoryInternal ||
			ee.Category == CategoryRuntime ||
			ee.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if ee, ok := As(err); ok {
		level := slogLevelFromSeverity(ee.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(ee.Category)),
		}
		if ee.Cause != nil {
			attrs = append(attrs, slog.String("cause", ee.Cause.Error()))
		}

		a.logger.LogAttrs(context.Background(), level, ee.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts EneratorError severity to slog level.
func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
