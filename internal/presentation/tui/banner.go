package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII banner to w, colored when w is a color terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`                        _                        _     `, "#818cf8"},
		{`   __ _  __ _  ___ _ __ | |_ __ _ _ __ __ _ _ __ | |__  `, "#a78bfa"},
		{`  / _' |/ _' |/ _ \ '_ \| __/ _' | '__/ _' | '_ \| '_ \ `, "#c084fc"},
		{` | (_| | (_| |  __/ | | | || (_| | | | (_| | |_) | | | |`, "#e879f9"},
		{`  \__,_|\__, |\___|_| |_|\__\__, |_|  \__,_| .__/|_| |_|`, "#f472b6"},
		{`        |___/               |___/          |_|          `, "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
