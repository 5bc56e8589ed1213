package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestBackupWritesDumpOutput(t *testing.T) {
	dir := t.TempDir()
	dump := writeScript(t, dir, "fakedump", `echo "-- dump of $@"`)
	r := New(Config{
		Host: "localhost", User: "root", Password: "pw", Database: "maintvault",
		DumpCommand: dump,
	})

	dest := filepath.Join(dir, "out.sql")
	if err := r.Backup(context.Background(), dest); err != nil {
		t.Fatalf("backup: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "--single-transaction") || !strings.Contains(out, "maintvault") {
		t.Fatalf("dump args missing from output: %q", out)
	}
	if !strings.Contains(out, "--host=localhost") || !strings.Contains(out, "--user=root") {
		t.Fatalf("connection args missing from output: %q", out)
	}
}

func TestBackupSurfacesToolStderr(t *testing.T) {
	dir := t.TempDir()
	dump := writeScript(t, dir, "fakedump", `echo "access denied for root" >&2; exit 2`)
	r := New(Config{Host: "localhost", Database: "maintvault", DumpCommand: dump})

	err := r.Backup(context.Background(), filepath.Join(dir, "out.sql"))
	if err == nil {
		t.Fatal("backup with failing tool should error")
	}
	if !strings.Contains(err.Error(), "access denied for root") {
		t.Fatalf("error %q does not carry tool stderr", err)
	}
}

func TestRestoreStreamsFileToLoadTool(t *testing.T) {
	dir := t.TempDir()
	sink := filepath.Join(dir, "received.sql")
	load := writeScript(t, dir, "fakeload", "cat > "+sink)
	r := New(Config{Host: "localhost", Database: "maintvault", LoadCommand: load})

	src := filepath.Join(dir, "in.sql")
	if err := os.WriteFile(src, []byte("INSERT INTO t VALUES (1);\n"), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	if err := r.Restore(context.Background(), src); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, err := os.ReadFile(sink)
	if err != nil {
		t.Fatalf("read sink: %v", err)
	}
	if string(got) != "INSERT INTO t VALUES (1);\n" {
		t.Fatalf("load tool received %q", got)
	}
}

func TestRestoreMissingFile(t *testing.T) {
	r := New(Config{Host: "localhost", Database: "maintvault"})
	err := r.Restore(context.Background(), filepath.Join(t.TempDir(), "nope.sql"))
	if !errors.Is(err, ErrBackupFileMissing) {
		t.Fatalf("err = %v, want ErrBackupFileMissing", err)
	}
}

func TestDefaultsToMysqlTools(t *testing.T) {
	r := New(Config{Database: "maintvault"})
	if r.cfg.DumpCommand != "mysqldump" || r.cfg.LoadCommand != "mysql" {
		t.Fatalf("defaults = %q/%q", r.cfg.DumpCommand, r.cfg.LoadCommand)
	}
}
