package posts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dpavlovs/artfeed/internal/common"
	"github.com/dpavlovs/artfeed/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func postRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "author_id", "content_url", "description", "like_count", "comment_count", "created_at"})
	for _, id := range ids {
		rows.AddRow(id, int64(1), "http://cdn/x.png", "d", 0, 0, time.Now())
	}
	return rows
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+posts\s*\(author_id,\s*content_url,\s*description\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*like_count,\s*comment_count,\s*created_at\s*$`

	mock.ExpectQuery(q).WithArgs(int64(1), "http://cdn/x.png", "sketch").
		WillReturnRows(sqlmock.NewRows([]string{"id", "like_count", "comment_count", "created_at"}).
			AddRow(int64(5), 0, 0, time.Now()))

	got, err := repo.Create(context.Background(), &models.Post{AuthorID: 1, ContentURL: "http://cdn/x.png", Description: "sketch"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 5 || got.LikeCount != 0 {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestFindByID_Missing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+posts\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	if _, err := repo.FindByID(context.Background(), 9); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListByAuthor_EmptyIsNotNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+posts\s+WHERE\s+author_id\s*=\s*\$1`).
		WithArgs(int64(1)).WillReturnRows(postRows())

	got, err := repo.ListByAuthor(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByAuthor error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestListLikedBy_JoinsLikes(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)JOIN\s+likes\s+l\s+ON\s+l\.post_id\s*=\s*p\.id\s+WHERE\s+l\.user_id\s*=\s*\$1`).
		WithArgs(int64(2)).WillReturnRows(postRows(10, 11))

	got, err := repo.ListLikedBy(context.Background(), 2)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListLikedBy: n=%d err=%v", len(got), err)
	}
}

func TestListFavoritedBy_JoinsFavorites(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)JOIN\s+favorites\s+f\s+ON\s+f\.post_id\s*=\s*p\.id\s+WHERE\s+f\.user_id\s*=\s*\$1`).
		WithArgs(int64(2)).WillReturnRows(postRows(12))

	got, err := repo.ListFavoritedBy(context.Background(), 2)
	if err != nil || len(got) != 1 {
		t.Fatalf("ListFavoritedBy: n=%d err=%v", len(got), err)
	}
}

func TestDecrementLikeCountsForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)UPDATE\s+posts\s+SET\s+like_count\s*=\s*like_count\s*-\s*1\s+WHERE\s+id\s+IN\s*\(SELECT\s+post_id\s+FROM\s+likes\s+WHERE\s+user_id\s*=\s*\$1\)`

	mock.ExpectExec(q).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.DecrementLikeCountsForUser(context.Background(), 3); err != nil {
		t.Fatalf("DecrementLikeCountsForUser error: %v", err)
	}
}

func TestDecrementCommentCountsForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)UPDATE\s+posts\s+p\s+SET\s+comment_count\s*=\s*p\.comment_count\s*-\s*sub\.n\s+FROM\s*\(\s*SELECT\s+post_id,\s*COUNT\(\*\)\s+AS\s+n\s+FROM\s+comments\s+WHERE\s+author_id\s*=\s*\$1\s+GROUP\s+BY\s+post_id\s*\)\s*sub\s+WHERE\s+p\.id\s*=\s*sub\.post_id`

	mock.ExpectExec(q).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DecrementCommentCountsForUser(context.Background(), 3); err != nil {
		t.Fatalf("DecrementCommentCountsForUser error: %v", err)
	}
}

func TestCascadeDeletes(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+likes\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE\s+FROM\s+favorites\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+posts\s+WHERE\s+author_id\s*=\s*\$1`).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 4))

	if err := repo.DeleteLikesByUser(context.Background(), 3); err != nil {
		t.Fatalf("DeleteLikesByUser error: %v", err)
	}
	if err := repo.DeleteFavoritesByUser(context.Background(), 3); err != nil {
		t.Fatalf("DeleteFavoritesByUser error: %v", err)
	}
	if err := repo.DeleteByAuthor(context.Background(), 3); err != nil {
		t.Fatalf("DeleteByAuthor error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestQueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+posts\s+WHERE\s+author_id`).
		WillReturnError(errors.New("db down"))

	_, err := repo.ListByAuthor(context.Background(), 1)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
