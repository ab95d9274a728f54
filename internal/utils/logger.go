package utils

import (
	stdlog "log"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	Info  = stdlog.New(os.Stdout, "[INFO] ", stdlog.LstdFlags|stdlog.Lshortfile)
	Error = stdlog.New(os.Stderr, "[ERROR] ", stdlog.LstdFlags|stdlog.Lshortfile)
)

// Print is usable before Init; Init only applies the styled output.
var Print = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.DateTime,
})

func Init() {
	styles := log.DefaultStyles()
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#1E90FF")).
		Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#FFA500")).
		Foreground(lipgloss.Color("#000000")).Bold(true)

	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#FF0000")).
		Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	styles.Levels[log.FatalLevel] = lipgloss.NewStyle().
		SetString("FATAL").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#000000")).
		Foreground(lipgloss.Color("#FF4500")).Bold(true)

	Print.SetStyles(styles)
}
