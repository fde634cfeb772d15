package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func Init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// fields turns trailing key-value pairs into logrus fields.
// An odd trailing value is kept under "extra" rather than dropped.
func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		f["extra"] = kv[len(kv)-1]
	}
	return f
}

func Info(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Info(msg)
}

func Infof(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Warn(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Warn(msg)
}

func Error(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Error(msg)
}

func Errorf(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Debug(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Debug(msg)
}

func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Fatal(msg string) {
	log.Fatal(msg)
}

func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}
