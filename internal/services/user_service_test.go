package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/testutil"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:     "Jane Doe",
		Email:    "Jane@Example.com",
		Password: "supersecret",
		Title:    "Engineer",
		Role:     models.RoleDeveloper,
	}
}

func TestUserService_RegisterThenLogin(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)

	user, err := env.users.Register(env.ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "supersecret", user.PasswordHash)

	loggedIn, err := env.users.Login(env.ctx, "jane@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	require.NotNil(t, loggedIn.LastLogin)

	stored, err := env.users.GetUser(env.ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestUserService_Register_Validation(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "  " }},
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"missing title", func(in *RegisterInput) { in.Title = "" }},
		{"missing role", func(in *RegisterInput) { in.Role = "" }},
		{"unknown role", func(in *RegisterInput) { in.Role = "Wizard" }},
		{"short password", func(in *RegisterInput) { in.Password = "123" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRegistration()
			tt.mutate(&input)

			_, err := env.users.Register(env.ctx, input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)

	_, err := env.users.Register(env.ctx, validRegistration())
	require.NoError(t, err)

	input := validRegistration()
	input.Email = "JANE@example.com"
	_, err = env.users.Register(env.ctx, input)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Login_Failures(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	testutil.NewTestUser(t, env.db, "Active", "active@example.com")
	testutil.NewTestUser(t, env.db, "Gone", "gone@example.com", testutil.WithInactive())

	for i := 0; i < 3; i++ {
		_, err := env.users.Login(env.ctx, "active@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := env.users.Login(env.ctx, "nobody@example.com", testutil.DefaultPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Login(env.ctx, "gone@example.com", testutil.DefaultPassword)
	assert.ErrorIs(t, err, ErrAccountDeactivated)
	assert.ErrorIs(t, err, ErrAuth)

	_, err = env.users.Login(env.ctx, "active@example.com", testutil.DefaultPassword)
	assert.NoError(t, err)
}

func TestUserService_UpdateUserProfile(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	admin := testutil.NewTestUser(t, env.db, "Admin", "admin@example.com", testutil.WithAdmin())
	member := testutil.NewTestUser(t, env.db, "Member", "member@example.com")
	other := testutil.NewTestUser(t, env.db, "Other", "other@example.com")

	name := "Member Renamed"
	updated, err := env.users.UpdateUserProfile(env.ctx, member, UpdateProfileInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = env.users.UpdateUserProfile(env.ctx, member, UpdateProfileInput{ID: other.ID, Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	role := models.RoleManager
	_, err = env.users.UpdateUserProfile(env.ctx, member, UpdateProfileInput{Role: &role})
	assert.ErrorIs(t, err, ErrRoleChangeDenied)

	updated, err = env.users.UpdateUserProfile(env.ctx, admin, UpdateProfileInput{ID: other.ID, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, updated.Role)

	empty := " "
	_, err = env.users.UpdateUserProfile(env.ctx, member, UpdateProfileInput{Title: &empty})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_ChangeUserPassword(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	user := testutil.NewTestUser(t, env.db, "User", "user@example.com")

	err := env.users.ChangeUserPassword(env.ctx, user.ID, "wrong", "newpassword")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = env.users.ChangeUserPassword(env.ctx, user.ID, testutil.DefaultPassword, "123")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	require.NoError(t, env.users.ChangeUserPassword(env.ctx, user.ID, testutil.DefaultPassword, "newpassword"))

	_, err = env.users.Login(env.ctx, "user@example.com", testutil.DefaultPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Login(env.ctx, "user@example.com", "newpassword")
	assert.NoError(t, err)
}

func TestUserService_ActivateUserProfile(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	user := testutil.NewTestUser(t, env.db, "User", "user@example.com")

	toggled, err := env.users.ActivateUserProfile(env.ctx, user.ID, nil)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = env.users.ActivateUserProfile(env.ctx, user.ID, nil)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	inactive := false
	set, err := env.users.ActivateUserProfile(env.ctx, user.ID, &inactive)
	require.NoError(t, err)
	assert.False(t, set.IsActive)

	_, err = env.users.ActivateUserProfile(env.ctx, 999, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_DeleteUserProfile_KeepsTasks(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	admin := testutil.NewTestUser(t, env.db, "Admin", "admin@example.com", testutil.WithAdmin())
	user := testutil.NewTestUser(t, env.db, "Leaver", "leaver@example.com")

	task, err := env.tasks.CreateTask(env.ctx, admin.ID, CreateTaskInput{Title: "Handover", Team: []uint64{user.ID}})
	require.NoError(t, err)

	require.NoError(t, env.users.DeleteUserProfile(env.ctx, user.ID))
	assert.ErrorIs(t, env.users.DeleteUserProfile(env.ctx, user.ID), ErrUserNotFound)

	kept, err := env.tasks.GetTask(env.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{user.ID}, kept.Team)

	resolved, err := env.tasks.ResolveTeam(env.ctx, *kept)
	require.NoError(t, err)
	assert.NotContains(t, resolved, user.ID)
}

func TestUserService_CreateAdmin(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)

	input := validRegistration()
	input.Role = ""
	admin, err := env.users.CreateAdmin(env.ctx, input)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, models.RoleAdministrator, admin.Role)

	team, err := env.users.GetTeamList(env.ctx)
	require.NoError(t, err)
	assert.Len(t, team, 1)
}
