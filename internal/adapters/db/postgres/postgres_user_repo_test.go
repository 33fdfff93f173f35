package postgres

import (
	"context"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/misgastos/expenses-api/internal/domain/auth/errors"
	"github.com/misgastos/expenses-api/internal/domain/auth/model"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// a single connection keeps the in-memory database shared and serializes
	// concurrent writers the way the postgres pool does
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPostgresUserRepo_CRUD(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()

	user := model.User{Email: "e@x.com", Name: "E", PasswordHash: "h", IsActive: true}
	id, err := repo.CreateUser(ctx, user)
	if err != nil || id == 0 {
		t.Fatalf("create %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, "e@x.com")
	if err != nil || got.ID != id {
		t.Fatalf("get by email %v", err)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set on create")
	}

	got2, err := repo.GetUserByID(ctx, id)
	if err != nil || got2.Email != "e@x.com" {
		t.Fatalf("get by id %v", err)
	}

	got2.Name = "Renamed"
	if err := repo.UpdateUser(ctx, got2); err != nil {
		t.Fatalf("update %v", err)
	}
	got3, err := repo.GetUserByID(ctx, id)
	if err != nil || got3.Name != "Renamed" {
		t.Fatalf("update not persisted %v", err)
	}
	if got3.UpdatedAt.Before(got.UpdatedAt) {
		t.Fatal("updated_at not refreshed")
	}

	if err := repo.DeleteUser(ctx, id); err != nil {
		t.Fatalf("delete %v", err)
	}
	if _, err := repo.GetUserByID(ctx, id); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.DeleteUser(ctx, id); !errors.IsNotFound(err) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestPostgresUserRepo_DuplicateEmail(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, model.User{Email: "d@x.com", Name: "A", PasswordHash: "h"}); err != nil {
		t.Fatalf("first create %v", err)
	}

	_, err := repo.CreateUser(ctx, model.User{Email: "d@x.com", Name: "B", PasswordHash: "h2"})
	if !errors.IsEmailTaken(err) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestPostgresUserRepo_ConcurrentDuplicate(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateUser(ctx, model.User{Email: "race@x.com", Name: "R", PasswordHash: "h"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, taken int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.IsEmailTaken(err):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || taken != 1 {
		t.Fatalf("want exactly one winner, got ok=%d taken=%d", ok, taken)
	}
}

func TestPostgresUserRepo_NotFound(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()

	if _, err := repo.GetUserByEmail(ctx, "nobody@x.com"); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.GetUserByID(ctx, 404); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
