// Package log is the leveled, structured logger used by the expression engine
// and its command line. It is a thin layer over [log/slog] whose
// configuration is fixed when a [Logger] is made.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("parsed", slog.String("expression", "x * 2"))
//	logger.Error("evaluation failed", slog.Any("error", err))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithTimeLayout("rfc3339-nano"),
//		log.WithCaller(true))
//
// [Logger.Wrap] derives a logger with different options; [Logger.With] and
// [Logger.WithGroup] add attributes to every record.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-node parse and
// evaluation detail. [ParseLevel] and [Levels] map between levels and their
// names.
//
// # Output
//
// Records are encoded as [FormatJSON] (default) or [FormatText]. Pretty
// output, enabled by default, colorizes values and flattens groups into
// dotted keys. The zero [Logger] discards everything.
//
// # Package Logger
//
// The package-level functions log through [Default], which writes to
// standard error until replaced with [SetDefault] or reconfigured with
// [Config]. Functions without a context argument use
// [DefaultContextProvider].
package log
