package boltdb

import (
	"context"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
)

var projectComparators = comparators[project.Project]{
	"title":      func(a, b project.Project) int { return compareStrings(a.Title, b.Title) },
	"status":     func(a, b project.Project) int { return compareStrings(string(a.Status), string(b.Status)) },
	"created_at": func(a, b project.Project) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
	"updated_at": func(a, b project.Project) int { return compareTimes(a.UpdatedAt, b.UpdatedAt) },
}

type projectRepository struct {
	db *DB
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db}
}

func getProject(tx *bbolt.Tx, id string) (project.Project, error) {
	p, err := get[project.Project](tx, projectsBucket, id)
	if err == errKeyNotFound {
		return project.Project{}, project.ErrNotFound
	}
	return p, err
}

func (repo *projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		leaders := tx.Bucket(projectsLeaderBucket)
		if leaders.Get([]byte(p.LeaderID)) != nil {
			return project.ErrLeaderHasProject
		}
		if err := leaders.Put([]byte(p.LeaderID), []byte(p.ID)); err != nil {
			return err
		}
		return put(tx, projectsBucket, p.ID, p)
	})
	if err != nil {
		return project.Project{}, errors.Wrap(err, "creating project")
	}
	return p, nil
}

func (repo *projectRepository) GetProjectByID(ctx context.Context, id string) (p project.Project, err error) {
	err = repo.db.bolt.View(func(tx *bbolt.Tx) error {
		p, err = getProject(tx, id)
		return err
	})
	return p, err
}

func (repo *projectRepository) GetProjectByLeader(ctx context.Context, leaderID string) (p project.Project, err error) {
	err = repo.db.bolt.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(projectsLeaderBucket).Get([]byte(leaderID))
		if id == nil {
			return project.ErrNotFound
		}
		p, err = getProject(tx, string(id))
		return err
	})
	return p, err
}

func (repo *projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, ordering ...core.DBOrdering) ([]project.Project, error) {
	var projects []project.Project
	err := repo.db.bolt.View(func(tx *bbolt.Tx) (err error) {
		projects, err = list(tx, projectsBucket, filter.Match)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	sortBy(projects, projectComparators, ordering, core.DBOrdering{Field: "created_at", Ascending: false})
	return projects, nil
}

// UpdateProject replaces the stored project; the leader of a project never changes.
func (repo *projectRepository) UpdateProject(ctx context.Context, p project.Project) (project.Project, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		if _, err := getProject(tx, p.ID); err != nil {
			return err
		}
		return put(tx, projectsBucket, p.ID, p)
	})
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	return p, nil
}
