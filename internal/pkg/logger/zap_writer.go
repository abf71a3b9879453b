package logger

import (
	"github.com/zeromicro/go-zero/core/logx"
)

// ZapWriter 把 go-zero 内部日志（rest server、service group 等）桥接到 zap，
// 避免两套日志输出格式不一致
type ZapWriter struct{}

var _ logx.Writer = ZapWriter{}

func (ZapWriter) Alert(v any) {
	sugar.Warnf("%s", sprint(v))
}

func (ZapWriter) Close() error {
	return sugar.Sync()
}

func (ZapWriter) Debug(v any, _ ...logx.LogField) {
	sugar.Debugf("%s", sprint(v))
}

func (ZapWriter) Error(v any, _ ...logx.LogField) {
	sugar.Errorf("%s", sprint(v))
}

func (ZapWriter) Info(v any, _ ...logx.LogField) {
	sugar.Infof("%s", sprint(v))
}

func (ZapWriter) Severe(v any) {
	sugar.Errorf("%s", sprint(v))
}

func (ZapWriter) Slow(v any, _ ...logx.LogField) {
	sugar.Warnf("%s", sprint(v))
}

func (ZapWriter) Stack(v any) {
	sugar.Errorf("%s", sprint(v))
}

func (ZapWriter) Stat(v any, _ ...logx.LogField) {
	sugar.Debugf("%s", sprint(v))
}
