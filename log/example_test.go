package log_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/ardnew/aexpr/log"
)

func Example() {
	logger := log.Make(os.Stdout, log.WithPretty(false), log.WithTimeLayout("none"))
	logger.Info("parsed", slog.String("expression", "x * 2"), slog.Int("parameters", 1))
	// Output:
	// {"level":"INFO","msg":"parsed","expression":"x * 2","parameters":1}
}

func Example_textFormat() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.Warn("slow expression", slog.String("expression", "xs.Where(x => x > 0).Sum()"))
	// Output:
	// level=WARN msg="slow expression" expression="xs.Where(x => x > 0).Sum()"
}

func Example_levels() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelWarn),
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.Trace("token")
	logger.Info("evaluated")
	logger.Error("evaluation failed", slog.Any("error", errors.New("division by zero")))
	// Output:
	// level=ERROR msg="evaluation failed" error="division by zero"
}

func Example_with() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
		log.WithTimeLayout("none")).
		With(slog.String("command", "check")).
		WithGroup("lambda")

	logger.InfoContext(context.Background(), "bound", slog.String("return", "int"))
	// Output:
	// level=INFO msg=bound command=check lambda.return=int
}
