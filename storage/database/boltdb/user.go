package boltdb

import (
	"context"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/user"
)

// userRecord persists the password hash, which is never serialized with the user.
type userRecord struct {
	user.User
	PasswordHash []byte `json:"password_hash"`
}

func newUserRecord(usr user.User) userRecord {
	return userRecord{User: usr, PasswordHash: usr.PasswordHash}
}

func (rec userRecord) toUser() user.User {
	usr := rec.User
	usr.PasswordHash = rec.PasswordHash
	return usr
}

var userComparators = comparators[user.User]{
	"name":       func(a, b user.User) int { return compareStrings(a.Name, b.Name) },
	"email":      func(a, b user.User) int { return compareStrings(a.Email, b.Email) },
	"role":       func(a, b user.User) int { return compareStrings(a.Role, b.Role) },
	"is_active":  func(a, b user.User) int { return compareBools(a.IsActive, b.IsActive) },
	"created_at": func(a, b user.User) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
	"updated_at": func(a, b user.User) int { return compareTimes(a.UpdatedAt, b.UpdatedAt) },
	"last_login": func(a, b user.User) int { return compareTimes(a.LastLogin, b.LastLogin) },
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func checkEmail(tx *bbolt.Tx, email string, excludedUsers ...user.User) error {
	id := tx.Bucket(usersEmailBucket).Get([]byte(email))
	if id == nil {
		return nil
	}
	for _, usr := range excludedUsers {
		if usr.ID == string(id) {
			return nil
		}
	}
	return user.ErrEmailExists
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	return repo.db.bolt.View(func(tx *bbolt.Tx) error {
		return checkEmail(tx, email, excludedUsers...)
	})
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		if err := checkEmail(tx, usr.Email); err != nil {
			return err
		}
		if err := tx.Bucket(usersEmailBucket).Put([]byte(usr.Email), []byte(usr.ID)); err != nil {
			return err
		}
		return put(tx, usersBucket, usr.ID, newUserRecord(usr))
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func getUser(tx *bbolt.Tx, id string) (user.User, error) {
	rec, err := get[userRecord](tx, usersBucket, id)
	if err != nil {
		if err == errKeyNotFound {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return rec.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (usr user.User, err error) {
	err = repo.db.bolt.View(func(tx *bbolt.Tx) error {
		usr, err = getUser(tx, id)
		return err
	})
	return usr, err
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (usr user.User, err error) {
	err = repo.db.bolt.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(usersEmailBucket).Get([]byte(email))
		if id == nil {
			return user.ErrNotFound
		}
		usr, err = getUser(tx, string(id))
		return err
	})
	return usr, err
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var recs []userRecord
	err := repo.db.bolt.View(func(tx *bbolt.Tx) (err error) {
		recs, err = list(tx, usersBucket, func(rec userRecord) bool { return filter.Match(rec.User) })
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.toUser())
	}
	sortBy(users, userComparators, ordering, core.DBOrdering{Field: "created_at", Ascending: false})
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		orig, err := getUser(tx, usr.ID)
		if err != nil {
			return err
		}
		if orig.Email != usr.Email {
			if err = checkEmail(tx, usr.Email, usr); err != nil {
				return err
			}
			if err = tx.Bucket(usersEmailBucket).Delete([]byte(orig.Email)); err != nil {
				return err
			}
			if err = tx.Bucket(usersEmailBucket).Put([]byte(usr.Email), []byte(usr.ID)); err != nil {
				return err
			}
		}
		return put(tx, usersBucket, usr.ID, newUserRecord(usr))
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}
