// Package backup shells out to the external dump/load tools for
// full-database backup and restore. It opens no pooled connections, so
// it works even when the store is exhausted or down — which also means a
// restore can race in-flight transactions; callers must quiesce the
// application first and confirm with the operator before invoking it.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
)

// ErrBackupFileMissing reports a restore pointed at a nonexistent file,
// detected before any process is spawned.
var ErrBackupFileMissing = errors.New("backup file does not exist")

// Config carries the raw database credentials and tool names.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	// DumpCommand and LoadCommand default to mysqldump and mysql.
	DumpCommand string
	LoadCommand string
}

// Runner executes backup and restore. It performs no confirmation of its
// own; it is a mechanical executor.
type Runner struct {
	cfg Config
}

// New builds a Runner.
func New(cfg Config) *Runner {
	if cfg.DumpCommand == "" {
		cfg.DumpCommand = "mysqldump"
	}
	if cfg.LoadCommand == "" {
		cfg.LoadCommand = "mysql"
	}
	return &Runner{cfg: cfg}
}

func (r *Runner) connArgs() []string {
	args := []string{
		fmt.Sprintf("--host=%s", r.cfg.Host),
		fmt.Sprintf("--user=%s", r.cfg.User),
		fmt.Sprintf("--password=%s", r.cfg.Password),
	}
	if r.cfg.Port != "" {
		args = append(args, fmt.Sprintf("--port=%s", r.cfg.Port))
	}
	return args
}

// Backup dumps the whole database to destPath. The dump runs in a single
// transaction and includes routines and triggers. A nonzero exit carries
// the tool's stderr verbatim.
func (r *Runner) Backup(ctx context.Context, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer out.Close()

	args := append(r.connArgs(), "--single-transaction", "--routines", "--triggers", r.cfg.Database)
	cmd := exec.CommandContext(ctx, r.cfg.DumpCommand, args...)
	cmd.Stdout = out
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("backup failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Restore streams srcPath into the load tool, overwriting the live
// database.
func (r *Runner) Restore(ctx context.Context, srcPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBackupFileMissing, srcPath)
		}
		return fmt.Errorf("open backup file: %w", err)
	}
	defer in.Close()

	args := append(r.connArgs(), r.cfg.Database)
	cmd := exec.CommandContext(ctx, r.cfg.LoadCommand, args...)
	cmd.Stdin = in
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("restore failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
