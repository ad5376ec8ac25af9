package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"ticketdesk/internal/desk"
)

type checkLevel int

const (
	levelInfo checkLevel = iota
	levelOK
	levelWarn
	levelError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const checkLabelWidth = 18

var levelBadges = map[checkLevel]struct{ label, color string }{
	levelInfo:  {"INFO", ansiBlue},
	levelOK:    {"OK", ansiGreen},
	levelWarn:  {"WARN", ansiYellow},
	levelError: {"ERROR", ansiRed},
}

var ticketStatusColors = map[desk.Status]string{
	desk.StatusNew:        ansiYellow,
	desk.StatusInProgress: ansiBlue,
	desk.StatusResolved:   ansiGreen,
}

// printer writes human output, colouring only when the destination is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) printer {
	return printer{w: w, color: isTerminal(w)}
}

func (p printer) paint(color, text string) string {
	if !p.color || color == "" {
		return text
	}
	return color + text + ansiReset
}

func (p printer) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	fmt.Fprintln(p.w, p.paint(ansiBlue, heading))
	fmt.Fprintln(p.w, p.paint(ansiBlue, strings.Repeat("-", len(heading))))
}

// check prints "  Label:   [LEVEL] detail".
func (p printer) check(label string, level checkLevel, detail string) {
	badge := levelBadges[level]
	text := "[" + badge.label + "]"
	if detail != "" {
		text += " " + detail
	}
	fmt.Fprintln(p.w, p.paint(badge.color, fmt.Sprintf("  %-*s %s", checkLabelWidth, label+":", text)))
}

func (p printer) status(status desk.Status) string {
	return p.paint(ticketStatusColors[status], string(status))
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
