package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ZgFormatter renders logfmt-style colored lines: level, timestamp, the
// entry fields in stable order, message last.
type ZgFormatter struct{}

const (
	colorRed    = 31
	colorGreen  = 32
	colorYellow = 33
	colorBlue   = 36
	colorGray   = 37
	colorKey    = 96
	colorValue  = 93
	colorMsg    = 92
)

func (f *ZgFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder

	writePair(&b, "level", levelColor(entry.Level), strings.ToUpper(entry.Level.String())[:4])
	writePair(&b, "ts", colorValue, entry.Time.Format("2006-01-02 15:04:05.000"))

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		raw, err := json.Marshal(entry.Data[k])
		if err != nil || len(raw) == 0 {
			continue
		}
		s := string(raw)
		valueColor := colorKey
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			valueColor = colorGreen
		} else if strings.HasPrefix(s, `"`) {
			valueColor = colorValue
		}
		writePair(&b, k, valueColor, s)
	}
	writePair(&b, "msg", colorMsg, strconv.Quote(entry.Message))

	line := b.String()
	line = strings.ReplaceAll(line, "\r", `\r`)
	line = strings.ReplaceAll(line, "\n", `\n`)
	return []byte(line + "\n"), nil
}

func writePair(b *strings.Builder, key string, valueColor int, value string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m=\x1b[%dm%s\x1b[0m", colorKey, key, valueColor, value)
}

func levelColor(level log.Level) int {
	switch level {
	case log.TraceLevel, log.DebugLevel:
		return colorGray
	case log.WarnLevel:
		return colorYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return colorRed
	}
	return colorBlue
}
