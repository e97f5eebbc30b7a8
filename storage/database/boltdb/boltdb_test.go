package boltdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
	"github.com/trezcool/fyp/core/user"
	"github.com/trezcool/fyp/storage/database/boltdb"
	"github.com/trezcool/fyp/testutil"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := boltdb.NewUserRepository(testutil.PrepareBoltDB(t))

	now := time.Now().UTC()
	alice := testutil.CreateUser(t, repo, "Alice", "alice@test.com", "pwd", user.RoleStudent, true, now.Add(-2*time.Hour))
	bob := testutil.CreateUser(t, repo, "Bob", "bob@test.com", "", user.RoleSupervisor, false, now.Add(-time.Hour))
	carol := testutil.CreateUser(t, repo, "Carol", "carol@test.com", "", user.RoleCoordinator, true, now)

	t.Run("get", func(t *testing.T) {
		usr, err := repo.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.Email, usr.Email)
		assert.NoError(t, usr.CheckPassword("pwd"), "password hash is persisted")

		usr, err = repo.GetUserByEmail(ctx, "bob@test.com")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, usr.ID)

		_, err = repo.GetUserByID(ctx, "nope")
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUserByEmail(ctx, "nope@test.com")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("email uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "alice@test.com"))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "alice@test.com", alice))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "new@test.com"))

		dup := alice
		dup.ID = uuid.NewString()
		_, err := repo.CreateUser(ctx, dup)
		assert.Equal(t, user.ErrEmailExists, errors.Cause(err))
	})

	t.Run("query", func(t *testing.T) {
		users, err := repo.QueryUsers(ctx, new(user.QueryFilter))
		require.NoError(t, err)
		assert.Equal(t, []string{carol.ID, bob.ID, alice.ID}, ids(users), "newest first")

		users, err = repo.QueryUsers(ctx, new(user.QueryFilter), core.DBOrdering{Field: "Name", Ascending: true})
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID, bob.ID, carol.ID}, ids(users))

		active := true
		users, err = repo.QueryUsers(ctx, &user.QueryFilter{IsActive: &active})
		require.NoError(t, err)
		assert.Equal(t, []string{carol.ID, alice.ID}, ids(users))

		users, err = repo.QueryUsers(ctx, &user.QueryFilter{Roles: []string{user.RoleSupervisor, user.RoleStudent}})
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID, alice.ID}, ids(users))

		users, err = repo.QueryUsers(ctx, &user.QueryFilter{Search: "CAR"})
		require.NoError(t, err)
		assert.Equal(t, []string{carol.ID}, ids(users))
	})

	t.Run("update", func(t *testing.T) {
		upd := bob
		upd.Email = "robert@test.com"
		upd.IsActive = true
		_, err := repo.UpdateUser(ctx, upd)
		require.NoError(t, err)

		_, err = repo.GetUserByEmail(ctx, "bob@test.com")
		assert.Equal(t, user.ErrNotFound, err, "old email is released")
		usr, err := repo.GetUserByEmail(ctx, "robert@test.com")
		require.NoError(t, err)
		assert.True(t, usr.IsActive)

		upd.Email = "carol@test.com"
		_, err = repo.UpdateUser(ctx, upd)
		assert.Equal(t, user.ErrEmailExists, errors.Cause(err))

		missing := bob
		missing.ID = uuid.NewString()
		_, err = repo.UpdateUser(ctx, missing)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareBoltDB(t)
	usrRepo := boltdb.NewUserRepository(db)
	repo := boltdb.NewProjectRepository(db)

	s1 := testutil.CreateUser(t, usrRepo, "S1", "s1@test.com", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, usrRepo, "S2", "s2@test.com", "", user.RoleStudent, true)
	sup := testutil.CreateUser(t, usrRepo, "Sup", "sup@test.com", "", user.RoleSupervisor, true)

	now := time.Now().UTC()
	p1 := project.Project{ID: uuid.NewString(), LeaderID: s1.ID, Title: "Alpha", Status: project.StatusPendingReview, CreatedAt: now.Add(-time.Hour), UpdatedAt: now}
	p2 := project.Project{ID: uuid.NewString(), LeaderID: s2.ID, Title: "Beta", SupervisorID: sup.ID, Status: project.StatusDefenseCleared, SrsSdsStatus: project.SrsSdsSubmitted, CreatedAt: now, UpdatedAt: now}

	_, err := repo.CreateProject(ctx, p1)
	require.NoError(t, err)
	_, err = repo.CreateProject(ctx, p2)
	require.NoError(t, err)

	dup := p1
	dup.ID = uuid.NewString()
	_, err = repo.CreateProject(ctx, dup)
	assert.Equal(t, project.ErrLeaderHasProject, errors.Cause(err), "one project per leader")

	got, err := repo.GetProjectByLeader(ctx, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, p2.ID, got.ID)
	_, err = repo.GetProjectByLeader(ctx, sup.ID)
	assert.Equal(t, project.ErrNotFound, err)
	_, err = repo.GetProjectByID(ctx, "nope")
	assert.Equal(t, project.ErrNotFound, err)

	projects, err := repo.QueryProjects(ctx, new(project.QueryFilter))
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID, p1.ID}, projectIDs(projects))

	projects, err = repo.QueryProjects(ctx, &project.QueryFilter{SupervisorID: sup.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID}, projectIDs(projects))

	projects, err = repo.QueryProjects(ctx, &project.QueryFilter{HasSrsSdsReview: true})
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID}, projectIDs(projects))

	projects, err = repo.QueryProjects(ctx, &project.QueryFilter{Statuses: []project.Status{project.StatusPendingReview}})
	require.NoError(t, err)
	assert.Equal(t, []string{p1.ID}, projectIDs(projects))

	p1.Status = project.StatusRejected
	p1.CoordinatorFeedback = "out of scope"
	_, err = repo.UpdateProject(ctx, p1)
	require.NoError(t, err)
	got, err = repo.GetProjectByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusRejected, got.Status)
	assert.Equal(t, "out of scope", got.CoordinatorFeedback)

	dup.LeaderID = sup.ID
	_, err = repo.UpdateProject(ctx, dup)
	assert.True(t, core.IsNotFound(err))
}

func ids(users []user.User) []string {
	res := make([]string, 0, len(users))
	for _, u := range users {
		res = append(res, u.ID)
	}
	return res
}

func projectIDs(projects []project.Project) []string {
	res := make([]string, 0, len(projects))
	for _, p := range projects {
		res = append(res, p.ID)
	}
	return res
}
