package utils

import "log"

// Logger 简单日志封装。Debug 输出由配置开关控制，
// 生产环境下不打请求细节。
type Logger struct {
	debug bool
}

// SetDebug 开关调试日志（启动时根据 app.debug 调一次）
func (l *Logger) SetDebug(on bool) {
	l.debug = on
}

// Info 信息日志
func (l *Logger) Info(msg string, args ...interface{}) {
	log.Printf("[INFO] "+msg, args...)
}

// Warn 警告日志
func (l *Logger) Warn(msg string, args ...interface{}) {
	log.Printf("[WARN] "+msg, args...)
}

// Error 错误日志
func (l *Logger) Error(msg string, args ...interface{}) {
	log.Printf("[ERROR] "+msg, args...)
}

// Debug 调试日志，只在 debug 配置打开时输出
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.debug {
		log.Printf("[DEBUG] "+msg, args...)
	}
}

var DefaultLogger = &Logger{}
