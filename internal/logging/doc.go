// Package logging provides structured logging for pyproject-kernel.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Output to stderr by default (stdout is owned by the kernel process)
//   - Automatic context field injection (launch_id, kernel spec)
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx := logging.WithLaunchID(ctx, plan.LaunchID)
//	logger.Info(ctx, "launching kernel", zap.Strings("argv", argv))
//
// # Debug Toggle
//
// The debug environment toggle (PYPROJECT_LOCAL_KERNEL_DEBUG) is read by the
// config package and passed in as Config.Level. This package never reads the
// environment itself.
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Warn(ctx, "ignoring unknown configuration key", zap.String("key", "x"))
//	tl.AssertLogged(t, zapcore.WarnLevel, "unknown configuration key")
//	tl.AssertField(t, "ignoring unknown configuration key", "key", "x")
//
// # Concurrency Safety
//
// Logger is safe for concurrent use. Child loggers (With, Named) are
// independent and do not affect parent or siblings.
package logging
