package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(f func()) string {
	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, r)
		close(done)
	}()

	f()
	_ = w.Close()
	os.Stdout = oldStdout
	<-done

	return buf.String()
}

// callMain runs RealMain and returns the exit code it requested.
func callMain() (code int, output string) {
	oldExit := exit
	defer func() { exit = oldExit }()
	exit = func(c int) {
		code = c
		panic("exit")
	}

	output = captureOutput(func() {
		defer func() {
			if r := recover(); r != nil && r != "exit" {
				panic(r)
			}
		}()
		RealMain()
	})
	return code, output
}

func TestRealMain(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name           string
		args           []string
		expectedExit   int
		expectedOutput string
	}{
		{
			name:           "no arguments",
			args:           []string{"folio"},
			expectedExit:   1,
			expectedOutput: "Usage: folio <command>",
		},
		{
			name:           "help command",
			args:           []string{"folio", "help"},
			expectedExit:   0,
			expectedOutput: "Usage: folio <command> [options]",
		},
		{
			name:           "version command",
			args:           []string{"folio", "version"},
			expectedExit:   0,
			expectedOutput: "folio version " + CliVersion,
		},
		{
			name:           "unknown command",
			args:           []string{"folio", "unknown"},
			expectedExit:   1,
			expectedOutput: "Unknown command: unknown",
		},
		{
			name:           "restore without file",
			args:           []string{"folio", "restore"},
			expectedExit:   1,
			expectedOutput: "Error: backup file path required for restore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			exitCode, output := callMain()

			assert.Contains(t, output, tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func TestPrintHelp(t *testing.T) {
	output := captureOutput(func() {
		printHelp()
	})

	for _, cmd := range []string{"help", "version", "serve", "migrate", "create-account", "index", "clean", "backup", "restore"} {
		assert.Contains(t, output, cmd)
	}
}
