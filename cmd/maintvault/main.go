// Command maintvault is the operational companion to the desktop client:
// it bootstraps the first admin account, runs database backup/restore,
// and prints recent activity-log entries.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"maintvault/internal/app"
	"maintvault/internal/attach"
	"maintvault/internal/backup"
	"maintvault/internal/config"
	"maintvault/internal/store"
	"maintvault/internal/util"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: maintvault <command> [args]

commands:
  add-admin <username> <password> [department]   create the first admin account
  backup <dest.sql>                              dump the database to a file
  restore <src.sql>                              overwrite the database from a dump (asks for confirmation)
  activity [limit]                               print recent activity-log entries
`)
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		usage()
	}
	cfg, err := config.Load(os.Getenv("MAINTVAULT_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.InitLogger(cfg.LogLevel)

	ctx := context.Background()
	switch os.Args[1] {
	case "add-admin":
		runAddAdmin(ctx, cfg, os.Args[2:])
	case "backup":
		runBackup(ctx, cfg, os.Args[2:])
	case "restore":
		runRestore(ctx, cfg, os.Args[2:])
	case "activity":
		runActivity(ctx, cfg, os.Args[2:])
	default:
		usage()
	}
}

func newStore(cfg config.FileConfig) *store.GormStore {
	s, err := store.NewGormStore(store.Options{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.Pool.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Pool.ConnMaxLifetimeMins) * time.Minute,
		OpTimeout:       time.Duration(cfg.Pool.OpTimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	return s
}

func newContent(cfg config.FileConfig) attach.ContentStore {
	switch cfg.Attachments.Backend {
	case "minio":
		c, err := attach.NewMinioStore(attach.MinioOptions{
			Endpoint:  cfg.Attachments.MinioEndpoint,
			AccessKey: cfg.Attachments.MinioAccessKey,
			SecretKey: cfg.Attachments.MinioSecretKey,
			Bucket:    cfg.Attachments.MinioBucket,
			UseSSL:    cfg.Attachments.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("failed to init minio content store: %v", err)
		}
		return c
	default:
		c, err := attach.NewDiskStore(cfg.Attachments.Dir)
		if err != nil {
			log.Fatalf("failed to init disk content store: %v", err)
		}
		return c
	}
}

func runAddAdmin(ctx context.Context, cfg config.FileConfig, args []string) {
	if len(args) < 2 {
		usage()
	}
	username, password := args[0], args[1]
	department := "General"
	if len(args) > 2 {
		department = args[2]
	}
	s := newStore(cfg)
	defer s.Close()
	core, err := app.New(app.Config{Store: s, Content: newContent(cfg)})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	id, err := core.AddUser(ctx, username, password, "admin", department, 0)
	if err != nil {
		log.Fatalf("failed to add admin: %v", err)
	}
	fmt.Printf("added admin user %q (id %d)\n", username, id)
}

func backupRunner(cfg config.FileConfig) *backup.Runner {
	return backup.New(backup.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Name,
		DumpCommand: cfg.Backup.DumpCommand,
		LoadCommand: cfg.Backup.LoadCommand,
	})
}

func runBackup(ctx context.Context, cfg config.FileConfig, args []string) {
	if len(args) != 1 {
		usage()
	}
	if err := backupRunner(cfg).Backup(ctx, args[0]); err != nil {
		log.Fatalf("backup: %v", err)
	}
	fmt.Printf("backup written to %s\n", args[0])
}

func runRestore(ctx context.Context, cfg config.FileConfig, args []string) {
	if len(args) != 1 {
		usage()
	}
	fmt.Fprintf(os.Stderr, "restore will OVERWRITE database %q from %s.\ntype yes to continue: ", cfg.Database.Name, args[0])
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if strings.TrimSpace(line) != "yes" {
		log.Fatal("restore aborted")
	}
	if err := backupRunner(cfg).Restore(ctx, args[0]); err != nil {
		log.Fatalf("restore: %v", err)
	}
	fmt.Println("restore complete")
}

func runActivity(ctx context.Context, cfg config.FileConfig, args []string) {
	limit := 50
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &limit); err != nil {
			usage()
		}
	}
	s := newStore(cfg)
	defer s.Close()
	entries, err := s.RecentActivity(ctx, limit)
	if err != nil {
		log.Fatalf("fetch activity: %v", err)
	}
	for _, e := range entries {
		id := "-"
		if e.EntityID != nil {
			id = fmt.Sprintf("%d", *e.EntityID)
		}
		fmt.Printf("%s  %-8s %-12s %-6s %s  %s\n",
			e.Timestamp.Format(time.DateTime), e.Action, e.EntityType, id, e.Username, e.Description)
	}
}
