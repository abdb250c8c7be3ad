package logging

import (
	log "github.com/sirupsen/logrus"
)

// CommandLineFormatter prints the bare message. CLI output is meant to be
// read by a person (or piped), so level and timestamp prefixes are noise.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	return append([]byte(entry.Message), '\n'), nil
}
