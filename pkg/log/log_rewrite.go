package log

/**
 * @file: log_rewrite.go
 * @description: package level helpers over the global sugared logger
 */

func Info(args ...any) {
	getSugar().Info(args...)
}

func Infow(msg string, keysAndValues ...any) {
	getSugar().Infow(msg, keysAndValues...)
}

func Debugw(msg string, keysAndValues ...any) {
	getSugar().Debugw(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...any) {
	getSugar().Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...any) {
	getSugar().Errorw(msg, keysAndValues...)
}

