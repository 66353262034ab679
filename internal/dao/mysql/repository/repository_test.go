package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"terrasapp_server/internal/model"
)

var errNoDatabase = errors.New("dry run: no database")

// dryRunPool 只生成 SQL，不连接数据库
type dryRunPool struct{}

func (dryRunPool) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errNoDatabase
}

func (dryRunPool) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoDatabase
}

func (dryRunPool) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoDatabase
}

func (dryRunPool) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

func (dryRunPool) BeginTx(context.Context, *sql.TxOptions) (gorm.ConnPool, error) {
	return &dryRunTx{}, nil
}

type dryRunTx struct{ dryRunPool }

func (dryRunTx) Commit() error   { return nil }
func (dryRunTx) Rollback() error { return nil }

// sqlRecorder 记录每条语句代入参数后的 SQL
type sqlRecorder struct {
	mu   sync.Mutex
	stmt []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})     {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})     {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{})    {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	s, _ := fc()
	r.mu.Lock()
	r.stmt = append(r.stmt, s)
	r.mu.Unlock()
}

func (r *sqlRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stmt...)
}

// find 第一条以 prefix 开头的语句
func (r *sqlRecorder) find(t *testing.T, prefix string) string {
	t.Helper()
	for _, s := range r.all() {
		if strings.HasPrefix(s, prefix) {
			return s
		}
	}
	require.Failf(t, "statement not generated", "no statement starting with %q in %v", prefix, r.all())
	return ""
}

func newDryRunRepos(t *testing.T) (*Repositories, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      dryRunPool{},
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		Logger:               rec,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return NewRepositories(db), rec
}

func TestFindOrCreateDirectSQL(t *testing.T) {
	repos, rec := newDryRunRepos(t)

	_, _, err := repos.Conversation.FindOrCreateDirect(context.Background(), "UB", "UA")
	require.NoError(t, err)

	insert := rec.find(t, "INSERT INTO `conversation`")
	assert.Contains(t, insert, "'UA:UB'")
	assert.Contains(t, insert, "ON DUPLICATE KEY UPDATE `id`=`id`")

	read := rec.find(t, "SELECT * FROM `conversation`")
	assert.Contains(t, read, "pair_key = 'UA:UB'")
	assert.True(t, strings.HasSuffix(read, "FOR SHARE"), read)
}

func TestCreateGroupOmitsPairKey(t *testing.T) {
	repos, rec := newDryRunRepos(t)
	conv := &model.Conversation{Uuid: "C1", GroupName: "team", GroupAdmin: "UA"}

	require.NoError(t, repos.Conversation.CreateGroup(context.Background(), conv, []string{"UA", "UB"}))

	insert := rec.find(t, "INSERT INTO `conversation`")
	assert.Contains(t, insert, "'team'")
	assert.NotContains(t, insert, "ON DUPLICATE KEY")
	participants := rec.find(t, "INSERT INTO `conversation_participant`")
	assert.Contains(t, participants, "'UA'")
	assert.Contains(t, participants, "'UB'")
	assert.Len(t, conv.Participants, 2)
}

func TestUnreadCountersSQL(t *testing.T) {
	repos, rec := newDryRunRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Conversation.IncrementUnread(ctx, "C1", []string{"UB", "UC"}))
	inc := rec.find(t, "UPDATE `conversation_participant`")
	assert.Contains(t, inc, "`unread_count`=unread_count + 1")
	assert.Contains(t, inc, "user_id IN ('UB','UC')")

	_, err := repos.Conversation.ResetUnread(ctx, "C1", "UB")
	require.NoError(t, err)
	stmts := rec.all()
	reset := stmts[len(stmts)-1]
	assert.Contains(t, reset, "`unread_count`=0")
	assert.Contains(t, reset, "unread_count > 0")

	before := len(rec.all())
	require.NoError(t, repos.Conversation.IncrementUnread(ctx, "C1", nil))
	assert.Len(t, rec.all(), before, "no statement for an empty recipient list")
}

func TestFindVisibleExcludesHiddenMessages(t *testing.T) {
	repos, rec := newDryRunRepos(t)

	_, _, err := repos.Message.FindVisible(context.Background(), "C1", "UB", 20, 10)
	require.NoError(t, err)

	count := rec.find(t, "SELECT count(*) FROM `message`")
	page := rec.find(t, "SELECT * FROM `message`")
	for _, stmt := range []string{count, page} {
		assert.Contains(t, stmt, "conversation_id = 'C1' AND is_deleted = false")
		assert.Contains(t, stmt, "uuid NOT IN (SELECT")
		assert.Contains(t, stmt, "FROM `message_deletion` WHERE user_id = 'UB'")
	}
	assert.Contains(t, page, "ORDER BY created_at DESC,id DESC")
	assert.Contains(t, page, "LIMIT 10 OFFSET 20")
}

func TestMarkReadOnlyTouchesUnreadFromOthers(t *testing.T) {
	repos, rec := newDryRunRepos(t)

	_, err := repos.Message.MarkRead(context.Background(), "C1", "UB", time.Now())
	require.NoError(t, err)

	update := rec.find(t, "UPDATE `message`")
	assert.Contains(t, update, "send_id <> 'UB'")
	assert.Contains(t, update, "read_at IS NULL")
	assert.Contains(t, update, "is_deleted = false")
}

func TestHideForIgnoresDuplicates(t *testing.T) {
	repos, rec := newDryRunRepos(t)

	require.NoError(t, repos.Message.HideFor(context.Background(), "M1", "UB"))

	insert := rec.find(t, "INSERT INTO `message_deletion`")
	assert.Contains(t, insert, "'M1'")
	assert.Contains(t, insert, "ON DUPLICATE KEY UPDATE `id`=`id`")
}

func TestContactSQL(t *testing.T) {
	repos, rec := newDryRunRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.User.AddContact(ctx, "UA", "UB"))
	insert := rec.find(t, "INSERT INTO `user_contact`")
	assert.Contains(t, insert, "ON DUPLICATE KEY UPDATE `id`=`id`")

	_, err := repos.User.FindContactIds(ctx, "UA")
	require.NoError(t, err)
	list := rec.find(t, "SELECT `contact_id` FROM `user_contact`")
	assert.Contains(t, list, "user_id = 'UA' AND status = 0")
	assert.Contains(t, list, "ORDER BY id")

	_, err = repos.User.RemoveContact(ctx, "UA", "UB")
	require.NoError(t, err)
	del := rec.find(t, "DELETE FROM `user_contact`")
	assert.Contains(t, del, "user_id = 'UA' AND contact_id = 'UB'")
	assert.NotContains(t, del, "deleted_at", "contacts are removed physically")
}

func TestSetLastMessageRefreshesUpdatedAt(t *testing.T) {
	repos, rec := newDryRunRepos(t)
	ctx := context.Background()

	err := repos.Transaction(ctx, func(tx *Repositories) error {
		if err := tx.Conversation.SetLastMessage(ctx, "C1", "M1"); err != nil {
			return err
		}
		return tx.Conversation.IncrementUnread(ctx, "C1", []string{"UB"})
	})
	require.NoError(t, err)

	update := rec.find(t, "UPDATE `conversation` SET")
	assert.Contains(t, update, "`last_message_id`='M1'")
	assert.Contains(t, update, "`updated_at`=")
	rec.find(t, "UPDATE `conversation_participant`")
}
