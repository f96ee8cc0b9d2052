package repositories

import (
	"errors"
	"fmt"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"bnbillains/models"
)

func TestIsDuplicateKey(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"mysql 1062", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1452}, false},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: lairs.name (2067)"), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "idx_lairs_name"`), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		if got := IsDuplicateKey(tc.err); got != tc.want {
			t.Fatalf("%s: IsDuplicateKey = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm", fmt.Errorf("create: %w", gorm.ErrForeignKeyViolated), true},
		{"mysql 1452", &mysql.MySQLError{Number: 1452}, true},
		{"mysql 1062", &mysql.MySQLError{Number: 1062}, false},
		{"sqlite", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		if got := IsForeignKeyViolation(tc.err); got != tc.want {
			t.Fatalf("%s: IsForeignKeyViolation = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTranslateNotFound(t *testing.T) {
	if !errors.Is(translateNotFound(gorm.ErrRecordNotFound), models.ErrNotFound) {
		t.Fatalf("gorm not found not translated")
	}
	other := errors.New("x")
	if translateNotFound(other) != other {
		t.Fatalf("other errors must pass through")
	}
}
