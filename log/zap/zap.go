// Package zap adapts go.uber.org/zap to the caseflow.Logger interface.
package zap

import (
	"github.com/unkn0wn-root/caseflow"
	"go.uber.org/zap"
)

type Logger struct{ L *zap.Logger }

var _ caseflow.Logger = Logger{}

func (z Logger) Debug(msg string, f caseflow.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f caseflow.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f caseflow.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f caseflow.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f caseflow.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
