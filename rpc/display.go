package rpc

import (
	"log/slog"

	"github.com/zhubert/cubensis-link/host"
)

// Display logs resp and shows it through n. The channel is chosen by severity
// alone: None is only logged at debug level, Info, Warning and Error each also
// go to the matching notifier method. IsError only adds an [ERROR] marker to
// the log line, so an Info response with IsError set is still shown as info.
func Display(log *slog.Logger, n host.Notifier, resp Response) {
	msg := "CUBENSIS " + resp.Severity.String()
	if resp.IsError {
		msg += " [ERROR]"
	}

	switch resp.Severity {
	case SeverityNone:
		log.Debug(msg, "message", resp.Message)
	case SeverityInfo:
		log.Info(msg, "message", resp.Message)
		n.Info(resp.Message)
	case SeverityWarning:
		log.Warn(msg, "message", resp.Message)
		n.Warn(resp.Message)
	case SeverityError:
		log.Error(msg, "message", resp.Message)
		n.Error(resp.Message)
	default:
		// Decode never produces this.
		log.Warn("dropping response with unknown severity", "severity", int(resp.Severity), "message", resp.Message)
	}
}
