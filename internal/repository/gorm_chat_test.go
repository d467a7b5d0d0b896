package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder captures the statements gorm generates so they can be
// checked against dialect quoting rules without a live server.
type sqlRecorder struct {
	sqls []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface      { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.sqls = append(r.sqls, sql)
}

func (r *sqlRecorder) last(t *testing.T) string {
	t.Helper()
	if len(r.sqls) == 0 {
		t.Fatal("no SQL captured")
	}
	return r.sqls[len(r.sqls)-1]
}

// newDryRunMySQL opens a gorm handle on the MySQL dialector that builds
// statements without executing them.
func newDryRunMySQL(t *testing.T, rec *sqlRecorder) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/support",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:               rec,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestChatRepositoryMySQLStatements(t *testing.T) {
	ctx := context.Background()

	// read is a reserved word in MySQL; gorm quotes the SET column but
	// passes raw WHERE strings through verbatim, so the column must be
	// table-qualified there.
	t.Run("mark messages read qualifies the read column", func(t *testing.T) {
		rec := &sqlRecorder{}
		repo := NewGormChatRepository(newDryRunMySQL(t, rec))

		if _, err := repo.MarkMessagesRead(ctx, "s1", "u1"); err != nil {
			t.Fatalf("mark messages read: %v", err)
		}

		sql := rec.last(t)
		if !strings.Contains(sql, "chat_messages.read") {
			t.Fatalf("read column not qualified in %q", sql)
		}
		if strings.Contains(sql, " read =") || strings.Contains(sql, " read ") {
			t.Fatalf("bare read identifier in %q", sql)
		}
	})

	t.Run("unread count qualifies the read column", func(t *testing.T) {
		rec := &sqlRecorder{}
		repo := NewGormChatRepository(newDryRunMySQL(t, rec))

		if _, err := repo.CountUnread(ctx, "u1"); err != nil {
			t.Fatalf("count unread: %v", err)
		}

		sql := rec.last(t)
		if !strings.Contains(sql, "chat_messages.read") {
			t.Fatalf("read column not qualified in %q", sql)
		}
		if strings.Contains(sql, " read =") || strings.Contains(sql, " read ") {
			t.Fatalf("bare read identifier in %q", sql)
		}
	})
}
