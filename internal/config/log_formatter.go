package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	colorRed         = 31
	colorGreen       = 32
	colorYellow      = 33
	colorBlue        = 36
	colorGray        = 37
	colorLightGreen  = 92
	colorLightYellow = 93
	colorCyan        = 96
)

// Formatter prints key=value lines with fields in sorted order. Colors are
// optional so the output stays greppable when piped to a file.
type Formatter struct {
	Colors bool
}

// SetupLogging applies the level and formatter to the standard logrus logger.
func SetupLogging(level int, out io.Writer, colors bool) {
	log.SetFormatter(&Formatter{Colors: colors})
	log.SetOutput(out)
	log.SetLevel(log.Level(level))
}

func levelColor(level log.Level) int {
	switch level {
	case log.DebugLevel, log.TraceLevel:
		return colorGray
	case log.WarnLevel:
		return colorYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}

func (f *Formatter) paint(color int, s string) string {
	if !f.Colors {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}

func (f *Formatter) pair(b *bytes.Buffer, key string, valueColor int, value string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(f.paint(colorCyan, key))
	b.WriteByte('=')
	b.WriteString(f.paint(valueColor, value))
}

func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	b := &bytes.Buffer{}
	f.pair(b, "level", levelColor(entry.Level), strings.ToUpper(entry.Level.String())[:4])
	f.pair(b, "ts", colorLightYellow, entry.Time.Format("2006-01-02 15:04:05.000"))

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		val := entry.Data[k]
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		m, err := json.Marshal(val)
		if err != nil || len(m) == 0 {
			continue
		}
		s := string(m)
		color := colorCyan
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			color = colorGreen
		} else if strings.HasPrefix(s, `"`) {
			color = colorLightYellow
		}
		f.pair(b, k, color, s)
	}
	f.pair(b, "msg", colorLightGreen, strconv.Quote(entry.Message))

	out := strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(b.String())
	return []byte(out + "\n"), nil
}
