package mock

import "autotrader/internal/core"

// Logger is a no-op core.Logger for tests.
type Logger struct{}

func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{})  {}
func (Logger) Warn(string, ...interface{})  {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}

func (l Logger) WithField(string, interface{}) core.Logger { return l }
func (l Logger) WithFields(map[string]interface{}) core.Logger { return l }
