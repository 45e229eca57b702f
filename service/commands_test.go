package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"folio/app/config"
	"folio/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(f func()) string {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		_, _ = io.Copy(&buf, r)
		close(done)
	}()

	f()

	w.Close()
	os.Stdout = oldStdout
	<-done
	return buf.String()
}

func mockStdin(input string, f func()) {
	oldStdin := os.Stdin
	r, w, _ := os.Pipe()
	os.Stdin = r

	go func() {
		_, _ = w.Write([]byte(input))
		w.Close()
	}()

	f()

	os.Stdin = oldStdin
}

// setupTestConfig points the commands at a scratch directory.
func setupTestConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.Database.DSN = "file:" + filepath.Join(tmpDir, "folio.db") + "?_fk=1"
	cfg.KV.Path = filepath.Join(tmpDir, "kv")
	cfg.Content.Dir = filepath.Join(tmpDir, "content")
	cfg.Logging.Level = "disabled"

	oldLoad, oldBackupDir := loadConfig, backupDir
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	backupDir = filepath.Join(tmpDir, "backups")
	t.Cleanup(func() {
		loadConfig = oldLoad
		backupDir = oldBackupDir
	})
	return cfg
}

// seedStore creates the KV store with a single counter.
func seedStore(t *testing.T, path string) {
	t.Helper()
	kv, err := repositories.NewBadgerStore(path, false)
	require.NoError(t, err)
	_, err = kv.Incr("views:hello-world")
	require.NoError(t, err)
	require.NoError(t, kv.Close())
}

func TestHandleCommand(t *testing.T) {
	setupTestConfig(t)

	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectedExit   int
	}{
		{
			name:           "no arguments",
			args:           []string{},
			expectedOutput: "Usage: folio <command> [options]",
			expectedExit:   1,
		},
		{
			name:           "help command",
			args:           []string{"help"},
			expectedOutput: "Usage: folio <command> [options]",
			expectedExit:   0,
		},
		{
			name:           "unknown command",
			args:           []string{"unknown"},
			expectedOutput: "Unknown command: unknown",
			expectedExit:   1,
		},
		{
			name:           "restore without file",
			args:           []string{"restore"},
			expectedOutput: "Error: backup file path required for restore",
			expectedExit:   1,
		},
		{
			name:           "create-account without username",
			args:           []string{"create-account"},
			expectedOutput: "Error: username required for create-account",
			expectedExit:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exitCode int
			output := captureOutput(func() {
				exitCode = HandleCommand(tt.args)
			})

			assert.Contains(t, output, tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func TestMigrate(t *testing.T) {
	setupTestConfig(t)

	var code int
	output := captureOutput(func() { code = migrate() })

	assert.Equal(t, 0, code)
	assert.Contains(t, output, "Database migrated successfully")

	// Running again is a no-op.
	output = captureOutput(func() { code = migrate() })
	assert.Equal(t, 0, code)
	assert.Contains(t, output, "Database migrated successfully")
}

func TestCreateAccount(t *testing.T) {
	cfg := setupTestConfig(t)
	t.Setenv("FOLIO_ADMIN_PASSWORD", "correct horse")

	var code int
	output := captureOutput(func() { code = createAccount("admin") })
	assert.Equal(t, 0, code)
	assert.Contains(t, output, "Account admin created")

	output = captureOutput(func() { code = createAccount("admin") })
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Account admin already exists")

	db, err := repositories.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	require.NoError(t, err)
	defer db.Close()
	account, err := repositories.NewBunAccountRepository(db).FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", account.PasswordHash)
}

func TestCreateAccountPasswordFromStdin(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("FOLIO_ADMIN_PASSWORD", "")

	var code int
	var output string
	mockStdin("short\n", func() {
		output = captureOutput(func() { code = createAccount("admin") })
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, output, "password must be at least 8 characters")
}

func TestIndexNotConfigured(t *testing.T) {
	setupTestConfig(t)

	var code int
	output := captureOutput(func() { code = index() })

	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Algolia is not configured")
}

func TestClean(t *testing.T) {
	cfg := setupTestConfig(t)

	t.Run("clean non-existent store", func(t *testing.T) {
		output := captureOutput(func() { clean() })
		assert.Contains(t, output, "Store is already clean")
	})

	t.Run("clean existing store - confirmed", func(t *testing.T) {
		seedStore(t, cfg.KV.Path)

		var output string
		mockStdin("y\n", func() {
			output = captureOutput(func() { clean() })
		})

		assert.Contains(t, output, "Store cleaned successfully")
		assert.NoDirExists(t, cfg.KV.Path)
	})

	t.Run("clean existing store - cancelled", func(t *testing.T) {
		seedStore(t, cfg.KV.Path)

		var output string
		mockStdin("n\n", func() {
			output = captureOutput(func() { clean() })
		})

		assert.Contains(t, output, "Operation cancelled")
		assert.DirExists(t, cfg.KV.Path)
	})
}

func TestBackupAndRestore(t *testing.T) {
	cfg := setupTestConfig(t)

	t.Run("backup non-existent store", func(t *testing.T) {
		var code int
		output := captureOutput(func() { code = backup("") })
		assert.Equal(t, 1, code)
		assert.Contains(t, output, "No store exists to backup")
	})

	seedStore(t, cfg.KV.Path)
	backupFile := filepath.Join(t.TempDir(), "views.bak")

	t.Run("backup to file", func(t *testing.T) {
		var code int
		output := captureOutput(func() { code = backup(backupFile) })
		assert.Equal(t, 0, code)
		assert.Contains(t, output, "Store backed up successfully")
		assert.FileExists(t, backupFile)
	})

	t.Run("backup to default location", func(t *testing.T) {
		var code int
		output := captureOutput(func() { code = backup("") })
		assert.Equal(t, 0, code)
		assert.Contains(t, output, backupDir)

		files, err := os.ReadDir(backupDir)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("restore missing file", func(t *testing.T) {
		var code int
		output := captureOutput(func() { code = restore(filepath.Join(t.TempDir(), "nope.bak")) })
		assert.Equal(t, 1, code)
		assert.Contains(t, output, "Backup file does not exist")
	})

	t.Run("restore empty file", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.bak")
		require.NoError(t, os.WriteFile(empty, nil, 0o644))

		var code int
		output := captureOutput(func() { code = restore(empty) })
		assert.Equal(t, 1, code)
		assert.Contains(t, output, "Backup file is empty")
	})

	t.Run("restore cancelled", func(t *testing.T) {
		var code int
		var output string
		mockStdin("n\n", func() {
			output = captureOutput(func() { code = restore(backupFile) })
		})
		assert.Equal(t, 1, code)
		assert.Contains(t, output, "Operation cancelled")
	})

	t.Run("restore replaces store", func(t *testing.T) {
		var code int
		var output string
		mockStdin("y\n", func() {
			output = captureOutput(func() { code = restore(backupFile) })
		})
		require.Equal(t, 0, code, output)
		assert.Contains(t, output, "Store restored successfully")

		kv, err := repositories.NewBadgerStore(cfg.KV.Path, false)
		require.NoError(t, err)
		defer kv.Close()
		n, err := kv.GetInt("views:hello-world")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
