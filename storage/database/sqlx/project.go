package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
)

const projectColumns = "id, leader_id, supervisor_id, title, status, srs_sds_status, created_at, updated_at, doc"

// projectRow keeps the columns used for filtering, the full project lives in Doc as JSON.
type projectRow struct {
	ID           string      `db:"id"`
	LeaderID     string      `db:"leader_id"`
	SupervisorID null.String `db:"supervisor_id"`
	Title        string      `db:"title"`
	Status       string      `db:"status"`
	SrsSdsStatus string      `db:"srs_sds_status"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	Doc          string      `db:"doc"`
}

func toProjectRow(p project.Project) (projectRow, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return projectRow{}, errors.Wrap(err, "encoding project")
	}
	return projectRow{
		ID:           p.ID,
		LeaderID:     p.LeaderID,
		SupervisorID: null.NewString(p.SupervisorID, p.SupervisorID != ""),
		Title:        p.Title,
		Status:       string(p.Status),
		SrsSdsStatus: string(p.SrsSdsStatus),
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
		Doc:          string(doc),
	}, nil
}

func (row projectRow) toProject() (project.Project, error) {
	var p project.Project
	if err := json.Unmarshal([]byte(row.Doc), &p); err != nil {
		return project.Project{}, errors.Wrapf(err, "decoding project %s", row.ID)
	}
	return p, nil
}

var projectOrderingFields = []string{"title", "status", "created_at", "updated_at"}

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *sqlx.DB) project.Repository {
	return &projectRepository{db: db}
}

func (repo *projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	row, err := toProjectRow(p)
	if err != nil {
		return project.Project{}, err
	}

	// leader_id is UNIQUE: concurrent first proposals of a student race on the insert
	q := "INSERT INTO projects (" + projectColumns + ") VALUES (" +
		":id, :leader_id, :supervisor_id, :title, :status, :srs_sds_status, :created_at, :updated_at, :doc)"
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err, "leader_id") {
			return project.Project{}, project.ErrLeaderHasProject
		}
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return p, nil
}

func (repo *projectRepository) getProject(ctx context.Context, where string, arg interface{}) (project.Project, error) {
	var row projectRow
	q := repo.db.Rebind("SELECT " + projectColumns + " FROM projects WHERE " + where + " = ?")
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, errors.Wrap(err, "finding project")
	}
	return row.toProject()
}

func (repo *projectRepository) GetProjectByID(ctx context.Context, id string) (project.Project, error) {
	return repo.getProject(ctx, "id", id)
}

func (repo *projectRepository) GetProjectByLeader(ctx context.Context, leaderID string) (project.Project, error) {
	return repo.getProject(ctx, "leader_id", leaderID)
}

func (repo *projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, ordering ...core.DBOrdering) ([]project.Project, error) {
	var (
		conds []string
		args  []interface{}
	)

	if filter != nil {
		if len(filter.Statuses) > 0 {
			inQ, inArgs, err := sqlx.In("status IN (?)", filter.Statuses)
			if err != nil {
				return nil, errors.Wrap(err, "querying projects")
			}
			conds = append(conds, inQ)
			args = append(args, inArgs...)
		}
		if filter.SupervisorID != "" {
			conds = append(conds, "supervisor_id = ?")
			args = append(args, filter.SupervisorID)
		}
		if filter.LeaderID != "" {
			conds = append(conds, "leader_id = ?")
			args = append(args, filter.LeaderID)
		}
		if filter.HasSrsSdsReview {
			conds = append(conds, "srs_sds_status <> ''")
		}
	}

	q := "SELECT " + projectColumns + " FROM projects" + where(conds) +
		orderBy(ordering, projectOrderingFields, core.DBOrdering{Field: "created_at", Ascending: false})

	var rows []projectRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}

	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		p, err := row.toProject()
		if err != nil {
			return nil, err
		}
		// the search also covers fields only held by the JSON document
		if filter != nil && filter.Search != "" && !filter.Match(p) {
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (repo *projectRepository) UpdateProject(ctx context.Context, p project.Project) (project.Project, error) {
	row, err := toProjectRow(p)
	if err != nil {
		return project.Project{}, err
	}

	q := `UPDATE projects SET supervisor_id = :supervisor_id, title = :title, status = :status,
		srs_sds_status = :srs_sds_status, updated_at = :updated_at, doc = :doc
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}
