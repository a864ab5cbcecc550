package logger_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	pcontext "github.com/poltergeist/cmakext/pkg/context"
	"github.com/poltergeist/cmakext/pkg/logger"
)

func TestCreateLogger(t *testing.T) {
	log := logger.CreateLogger("", "info")
	if log == nil {
		t.Fatal("expected logger to be created")
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("warn", &buf)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("messages below warn leaked: %s", output)
	}
	if !strings.Contains(output, "WARN: warn message") {
		t.Errorf("missing warn line: %s", output)
	}
	if !strings.Contains(output, "ERROR: error message") {
		t.Errorf("missing error line: %s", output)
	}
}

func TestLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("chatty", &buf)

	log.Debug("hidden")
	log.Info("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLogger_WithExtension(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.WithExtension("pkg.ext").Info("configuring")

	if !strings.Contains(buf.String(), "[pkg.ext] configuring") {
		t.Errorf("expected extension prefix, got %s", buf.String())
	}
}

func TestLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Success("build completed")

	output := buf.String()
	if !strings.Contains(output, "OK: build completed") {
		t.Errorf("expected success marker, got %s", output)
	}
	if strings.Contains(output, "success=") {
		t.Errorf("internal success field leaked: %s", output)
	}
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Info("run",
		logger.WithField("zeta", 1),
		logger.WithField("alpha", "a"))

	if !strings.Contains(buf.String(), "{alpha=a, zeta=1}") {
		t.Errorf("expected sorted fields, got %s", buf.String())
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := logger.CreateLoggerWithOutput("info", &buf)

	ctx := pcontext.WithRunID(context.Background(), "run_test")
	ctx = pcontext.WithPhase(ctx, "build")

	logger.WithContext(ctx, base).WithExtension("pkg.ext").Info("started")

	output := buf.String()
	for _, want := range []string{"[pkg.ext]", "run_id=run_test", "phase=build"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in %s", want, output)
		}
	}
}

func TestConsoleLogger(t *testing.T) {
	var out, errOut bytes.Buffer
	c := logger.NewConsoleLogger(&out, &errOut)

	c.Info("listing")
	c.Error("broken")

	if !strings.Contains(out.String(), "listing") {
		t.Error("info not written to out")
	}
	if !strings.Contains(errOut.String(), "broken") {
		t.Error("error not written to errOut")
	}
}
