package bpupload

import (
	"go.uber.org/zap"
)

func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Result.OK
}

// LogReporter returns a ReportFunc writing one line per outcome to logger.
func LogReporter(logger *zap.Logger) func(o Outcome) {
	return func(o Outcome) {
		fields := []zap.Field{zap.String("name", o.Name), zap.String("phase", string(o.Phase))}
		switch {
		case o.Err != nil:
			logger.Error("unable to "+string(o.Phase)+" conf", append(fields, zap.Error(o.Err))...)
		case o.Result.OK:
			logger.Info("conf "+pastTense(o.Phase), append(fields, zap.String("message", o.Result.Message))...)
		default:
			logger.Warn("no confirmation from icinga", fields...)
		}
	}
}

func pastTense(p Phase) string {
	switch p {
	case PhaseDelete:
		return "deleted"
	case PhaseUpload:
		return "uploaded"
	}
	return string(p)
}
