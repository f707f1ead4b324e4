// store.go - Shared store handle and error translation for the record store

package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrAlreadyRated = errors.New("user has already rated")
	ErrNoReadings   = errors.New("no valid data provided")
)

// ValidationError carries a constraint failure reported by the database.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) Locations() *LocationStore { return &LocationStore{db: s.DB} }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

// translate maps driver level failures onto the store's error vocabulary.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) { // Reported by the dialector when TranslateError is on
		return ErrDuplicate
	}
	var se sqlite3.Error // Raw driver error for constraints gorm does not translate
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrDuplicate
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return &ValidationError{Msg: se.Error()}
		}
	}
	return err
}
