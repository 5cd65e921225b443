package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if classified, ok := AsClassified(err); ok {
		return exitCodeFromKind(classified.Kind())
	}

	return 1
}

// exitCodeFromKind maps error kinds to exit codes.
func exitCodeFromKind(kind ErrorKind) int {
	switch kind {
	case KindInvalidRequest:
		return 2 // Invalid usage
	case KindNotFound:
		return 4
	case KindUnauthorized:
		return 5 // Permission/auth error
	case KindRateLimited, KindTimeout, KindServerError, KindUnreachable:
		return 8 // External system error
	case KindCanceled:
		return 130
	case KindUnknown:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if classified, ok := AsClassified(err); ok {
		return a.formatClassified(classified)
	}

	return fmt.Sprintf("Error: %v", err)
}

func (a *CLIErrorAdapter) formatClassified(err *ClassifiedError) string {
	if a.verbose {
		return err.Error()
	}
	if err.Status() > 0 {
		return fmt.Sprintf("Error (%s, HTTP %d): %s", err.Kind(), err.Status(), err.Message())
	}
	return fmt.Sprintf("Error (%s): %s", err.Kind(), err.Message())
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	if a.verbose {
		a.logError(err)
	}

	fmt.Fprintf(a.out, "%s\n", a.FormatError(err))
	a.exit(exitCode)
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		attrs := []slog.Attr{
			slog.String("kind", string(classified.Kind())),
			slog.Int("attempts", classified.Attempts()),
		}
		if classified.Status() > 0 {
			attrs = append(attrs, slog.Int("status", classified.Status()))
		}
		if classified.Retryable() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		a.logger.LogAttrs(context.Background(), slog.LevelError, classified.Message(), attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}
