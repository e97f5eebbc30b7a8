// Package boltdb implements the repositories on top of a bbolt JSON document store.
package boltdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	usersBucket          = []byte("users")
	usersEmailBucket     = []byte("users_email") // {email: id}
	projectsBucket       = []byte("projects")
	projectsLeaderBucket = []byte("projects_leader") // {leader_id: id}

	allBuckets = [][]byte{usersBucket, usersEmailBucket, projectsBucket, projectsLeaderBucket}

	errKeyNotFound = errors.New("key not found")
)

// DB is a bbolt database holding one JSON document per key.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the database file at path and makes sure all buckets exist.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}
	return &DB{bolt: db}, nil
}

func (db *DB) Close() error {
	return db.bolt.Close()
}

// Path returns the path of the database file.
func (db *DB) Path() string {
	return db.bolt.Path()
}

func get[T any](tx *bbolt.Tx, bucket []byte, key string) (T, error) {
	var out T
	v := tx.Bucket(bucket).Get([]byte(key))
	if v == nil {
		return out, errKeyNotFound
	}
	err := json.Unmarshal(v, &out)
	return out, errors.Wrapf(err, "decoding %s/%s", bucket, key)
}

func put(tx *bbolt.Tx, bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding %s/%s", bucket, key)
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

func list[T any](tx *bbolt.Tx, bucket []byte, keep func(T) bool) ([]T, error) {
	out := make([]T, 0)
	err := tx.Bucket(bucket).ForEach(func(k, v []byte) error {
		var obj T
		if err := json.Unmarshal(v, &obj); err != nil {
			return errors.Wrapf(err, "decoding %s/%s", bucket, k)
		}
		if keep(obj) {
			out = append(out, obj)
		}
		return nil
	})
	return out, err
}
