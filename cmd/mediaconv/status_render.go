package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediaconv/internal/conversion"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var titleCaser = cases.Title(language.English)

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func outcomeKind(status conversion.Status) statusKind {
	switch status {
	case conversion.StatusSucceeded:
		return statusOK
	case conversion.StatusFailed:
		return statusError
	case conversion.StatusCanceled:
		return statusWarn
	default:
		return statusInfo
	}
}

// statusLabel renders a conversion status for tables, e.g. "Succeeded".
func statusLabel(status conversion.Status, colorize bool) string {
	label := titleCaser.String(string(status))
	return colorLabel(label, outcomeKind(status), colorize)
}

func colorLabel(label string, kind statusKind, colorize bool) string {
	if !colorize {
		return label
	}
	if color := statusKindColor(kind); color != "" {
		return color + label + ansiReset
	}
	return label
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
