package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpupo63/blog-backend/config"
	"github.com/rpupo63/blog-backend/database"
	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/models"
	"gorm.io/gorm"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test fixture
// ─────────────────────────────────────────────────────────────────────────────

func newTestDB(t *testing.T, opts ...database.Option) database.Database {
	t.Helper()
	d, _ := openTestDB(t, opts...)
	return d
}

// openTestDB also returns the gorm handle for tests that write rows directly.
func openTestDB(t *testing.T, opts ...database.Option) (database.Database, *gorm.DB) {
	t.Helper()

	gdb, err := database.Open(config.App{DBType: config.DBTypeSQLite, DBURL: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	d := database.New(gdb, opts...)
	t.Cleanup(func() { _ = d.Close() })

	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d, gdb
}

func mustCreateUser(t *testing.T, d database.Database, name, email string) *models.User {
	t.Helper()
	u, err := d.UserRepo().Create(context.Background(), name, email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustAddPost(t *testing.T, d database.Database, authorID uint, title string) *models.BlogPost {
	t.Helper()
	p, err := d.BlogPostRepo().Add(context.Background(), database.CreatePostParams{
		AuthorID: authorID,
		Title:    title,
		Subtitle: "sub",
		ImgURL:   "https://img.test/a.png",
		Body:     "body",
	})
	if err != nil {
		t.Fatalf("add post %q: %v", title, err)
	}
	return p
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

func TestUserRepo_FirstUserIsAdmin(t *testing.T) {
	d := newTestDB(t)

	first := mustCreateUser(t, d, "alice", "alice@example.com")
	second := mustCreateUser(t, d, "bob", "bob@example.com")

	if !first.IsAdmin() {
		t.Fatal("first account should be bootstrapped as admin")
	}
	if second.IsAdmin() {
		t.Fatal("second account must not be admin")
	}
}

func TestUserRepo_AdminSlotIsUnique(t *testing.T) {
	d, gdb := openTestDB(t)

	admin := mustCreateUser(t, d, "alice", "alice@example.com")
	if admin.AdminSlot == nil || !*admin.AdminSlot {
		t.Fatal("admin should hold the admin slot")
	}

	slot := true
	rogue := &models.User{Name: "mallory", Email: "mallory@example.com", PasswordHash: "hash", Role: models.RoleAdmin, AdminSlot: &slot}
	if err := gdb.Create(rogue).Error; err == nil {
		t.Fatal("a second admin slot must be rejected by the index")
	}

	// Ordinary accounts leave the slot NULL and never collide on it.
	for _, email := range []string{"bob@example.com", "carol@example.com"} {
		if u := mustCreateUser(t, d, "user", email); u.IsAdmin() || u.AdminSlot != nil {
			t.Fatalf("%s should be an ordinary account: %+v", email, u)
		}
	}
}

func TestUserRepo_LostAdminRaceRegistersAsUser(t *testing.T) {
	d, gdb := openTestDB(t)
	ctx := context.Background()

	// The slot is claimed by a registration whose admin role is not yet
	// counted, as a concurrent first registration would leave it.
	slot := true
	racer := &models.User{Name: "racer", Email: "racer@example.com", PasswordHash: "hash", Role: models.RoleUser, AdminSlot: &slot}
	if err := gdb.Create(racer).Error; err != nil {
		t.Fatalf("seed racer: %v", err)
	}

	u, err := d.UserRepo().Create(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.IsAdmin() || u.AdminSlot != nil {
		t.Fatalf("losing the slot should register an ordinary account: %+v", u)
	}

	if _, err := d.UserRepo().Create(ctx, "again", "racer@example.com", "hash"); !errs.IsDuplicateEmail(err) {
		t.Fatalf("expected ErrDuplicateEmail after the retry, got %v", err)
	}

	var admins int64
	if err := gdb.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if admins != 0 {
		t.Fatalf("admins = %d, want 0", admins)
	}
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	original := mustCreateUser(t, d, "alice", "alice@example.com")

	_, err := d.UserRepo().Create(ctx, "impostor", "alice@example.com", "other")
	if !errs.IsDuplicateEmail(err) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	n, err := d.UserRepo().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one user, got %d", n)
	}

	stored, err := d.UserRepo().FindByEmail(ctx, "alice@example.com")
	if err != nil || stored == nil {
		t.Fatalf("find: %v", err)
	}
	if stored.ID != original.ID || stored.Name != "alice" {
		t.Fatalf("original account changed: %+v", stored)
	}
}

func TestUserRepo_FindMissing(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	u, err := d.UserRepo().FindByEmail(ctx, "nobody@example.com")
	if err != nil || u != nil {
		t.Fatalf("FindByEmail missing = (%v, %v), want (nil, nil)", u, err)
	}
	u, err = d.UserRepo().FindByID(ctx, 42)
	if err != nil || u != nil {
		t.Fatalf("FindByID missing = (%v, %v), want (nil, nil)", u, err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Blog posts
// ─────────────────────────────────────────────────────────────────────────────

func TestBlogPostRepo_AddAndFind(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)}
	d := newTestDB(t, database.WithClock(clock.Now))
	ctx := context.Background()

	alice := mustCreateUser(t, d, "alice", "alice@example.com")
	created := mustAddPost(t, d, alice.ID, "Hello World")

	if created.Date != "March 05, 2024" {
		t.Fatalf("Date = %q", created.Date)
	}

	post, err := d.BlogPostRepo().FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if post.AuthorName() != "alice" {
		t.Fatalf("AuthorName() = %q, want alice", post.AuthorName())
	}
}

func TestBlogPostRepo_FindAllInIDOrder(t *testing.T) {
	d := newTestDB(t)
	alice := mustCreateUser(t, d, "alice", "alice@example.com")

	for _, title := range []string{"first", "second", "third"} {
		mustAddPost(t, d, alice.ID, title)
	}

	posts, err := d.BlogPostRepo().FindAll(context.Background())
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	for i, title := range []string{"first", "second", "third"} {
		if posts[i].Title != title {
			t.Fatalf("posts[%d].Title = %q, want %q", i, posts[i].Title, title)
		}
		if posts[i].AuthorName() != "alice" {
			t.Fatalf("posts[%d] author not preloaded", i)
		}
	}
}

func TestBlogPostRepo_DuplicateTitle(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	alice := mustCreateUser(t, d, "alice", "alice@example.com")
	mustAddPost(t, d, alice.ID, "Hello World")

	_, err := d.BlogPostRepo().Add(ctx, database.CreatePostParams{
		AuthorID: alice.ID,
		Title:    "Hello World",
		Subtitle: "again",
		ImgURL:   "https://img.test/b.png",
		Body:     "body",
	})
	if !errs.IsDuplicateTitle(err) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}

	posts, _ := d.BlogPostRepo().FindAll(ctx)
	if len(posts) != 1 {
		t.Fatalf("expected no new row, got %d posts", len(posts))
	}
}

func TestBlogPostRepo_UnknownAuthor(t *testing.T) {
	d := newTestDB(t)

	_, err := d.BlogPostRepo().Add(context.Background(), database.CreatePostParams{
		AuthorID: 99,
		Title:    "orphan",
		Subtitle: "sub",
		ImgURL:   "https://img.test/a.png",
		Body:     "body",
	})
	if !errs.IsForeignKeyConstraintError(err) {
		t.Fatalf("expected foreign key error, got %v", err)
	}
}

func TestBlogPostRepo_UpdateRestampsDate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)}
	d := newTestDB(t, database.WithClock(clock.Now))
	ctx := context.Background()

	alice := mustCreateUser(t, d, "alice", "alice@example.com")
	post := mustAddPost(t, d, alice.ID, "Hello World")
	if post.Date != "January 02, 2024" {
		t.Fatalf("initial Date = %q", post.Date)
	}

	clock.now = time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	body := "rewritten"
	updated, err := d.BlogPostRepo().Update(ctx, post.ID, database.UpdatePostParams{Body: &body})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Date != "June 30, 2024" {
		t.Fatalf("Date = %q, want re-stamped June 30, 2024", updated.Date)
	}
	if updated.Body != "rewritten" || updated.Title != "Hello World" {
		t.Fatalf("unexpected fields after update: %+v", updated)
	}
}

func TestBlogPostRepo_UpdateMissing(t *testing.T) {
	d := newTestDB(t)
	title := "x"
	_, err := d.BlogPostRepo().Update(context.Background(), 404, database.UpdatePostParams{Title: &title})
	if !errs.IsNotFound(err) || errs.StatusOf(err) != 404 {
		t.Fatalf("expected 404 not found, got %v", err)
	}
}

func TestBlogPostRepo_UpdateToTakenTitle(t *testing.T) {
	d := newTestDB(t)
	alice := mustCreateUser(t, d, "alice", "alice@example.com")
	mustAddPost(t, d, alice.ID, "first")
	second := mustAddPost(t, d, alice.ID, "second")

	title := "first"
	_, err := d.BlogPostRepo().Update(context.Background(), second.ID, database.UpdatePostParams{Title: &title})
	if !errs.IsDuplicateTitle(err) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
}

func TestBlogPostRepo_DeleteCascadesComments(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	alice := mustCreateUser(t, d, "alice", "alice@example.com")
	bob := mustCreateUser(t, d, "bob", "bob@example.com")
	post := mustAddPost(t, d, alice.ID, "Hello World")
	keep := mustAddPost(t, d, alice.ID, "Keep Me")

	if _, err := d.CommentRepo().Add(ctx, bob.ID, post.ID, "nice"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := d.CommentRepo().Add(ctx, bob.ID, keep.ID, "also nice"); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	if err := d.BlogPostRepo().Delete(ctx, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := d.BlogPostRepo().FindByID(ctx, post.ID); !errs.IsNotFound(err) {
		t.Fatalf("deleted post still found: %v", err)
	}
	comments, err := d.CommentRepo().FindByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("find comments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("expected comments to be removed with the post, got %d", len(comments))
	}
	kept, _ := d.CommentRepo().FindByPost(ctx, keep.ID)
	if len(kept) != 1 {
		t.Fatalf("comments on other posts must survive, got %d", len(kept))
	}
}

func TestBlogPostRepo_DeleteMissing(t *testing.T) {
	d := newTestDB(t)
	err := d.BlogPostRepo().Delete(context.Background(), 404)
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Comments
// ─────────────────────────────────────────────────────────────────────────────

func TestCommentRepo_AddAndList(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	alice := mustCreateUser(t, d, "alice", "alice@example.com")
	bob := mustCreateUser(t, d, "bob", "bob@example.com")
	post := mustAddPost(t, d, alice.ID, "Hello World")

	for _, text := range []string{"first!", "second"} {
		if _, err := d.CommentRepo().Add(ctx, bob.ID, post.ID, text); err != nil {
			t.Fatalf("add comment: %v", err)
		}
	}

	loaded, err := d.BlogPostRepo().FindByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("find post: %v", err)
	}
	if len(loaded.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(loaded.Comments))
	}
	if loaded.Comments[0].Text != "first!" || loaded.Comments[0].AuthorName() != "bob" {
		t.Fatalf("unexpected first comment: %+v", loaded.Comments[0])
	}
}

func TestCommentRepo_MissingPost(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	bob := mustCreateUser(t, d, "bob", "bob@example.com")

	_, err := d.CommentRepo().Add(ctx, bob.ID, 404, "hello?")
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	comments, _ := d.CommentRepo().FindByPost(ctx, 404)
	if len(comments) != 0 {
		t.Fatalf("no comment row should exist, got %d", len(comments))
	}
}

func TestDatabase_Ping(t *testing.T) {
	d := newTestDB(t)
	if err := d.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
