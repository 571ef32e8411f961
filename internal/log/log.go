package log

import (
	"io"
	"log"
	"os"
)

const debugEnv = "ENIGMA_DEBUG"

var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Printf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

func DebugEnabled() bool {
	return os.Getenv(debugEnv) != ""
}

func EnableDebug() {
	os.Setenv(debugEnv, "1")
}

func Debugf(format string, args ...interface{}) {
	if DebugEnabled() {
		logger.Printf(format, args...)
	}
}

func Debug(args ...interface{}) {
	if DebugEnabled() {
		logger.Println(args...)
	}
}

func Fatal(args ...interface{}) {
	logger.Fatal(args...)
}

func Errorf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}
