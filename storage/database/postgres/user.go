package pgrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/user"
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	Department   null.String    `db:"department"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) domain() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		Department:   r.Department.String,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         null.NewString(usr.Name, usr.Name != ""),
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		Department:   null.NewString(usr.Department, usr.Department != ""),
		IsActive:     usr.IsActive,
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	q := `SELECT EXISTS (SELECT 1 FROM users WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += ` AND NOT (id = ANY($3))`
		args = append(args, pq.StringArray(ids))
	}
	q += `)`

	var exists bool
	if err := getExec(repo.exec, exec).GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	row := newUserRow(usr)
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO users (id, name, username, email, department, is_active, roles, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		row.ID, row.Name, row.Username, row.Email, row.Department, row.IsActive, row.Roles,
		row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	q := `SELECT * FROM users`
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			p := arg(val)
			conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", p))
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleConds := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleConds = append(roleConds, fmt.Sprintf(
					"EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE %s)", arg(role+"%")))
			}
			conds = append(conds, "("+strings.Join(roleConds, " OR ")+")")
		}
		if filter.Department != "" {
			conds = append(conds, fmt.Sprintf("department = %s", arg(filter.Department)))
		}
		if filter.IsActive != nil {
			conds = append(conds, fmt.Sprintf("is_active = %s", arg(*filter.IsActive)))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, fmt.Sprintf("created_at >= %s", arg(filter.CreatedFrom.UTC())))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, fmt.Sprintf("created_at <= %s", arg(filter.CreatedTo.UTC())))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []userRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.domain())
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	exe := getExec(repo.exec, exec)

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		if err := exe.GetContext(ctx, &row, `SELECT * FROM users WHERE id = $1`, filter.ID); err != nil {
			return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
		}
	case filter.Username != "":
		if err := exe.GetContext(ctx, &row, `SELECT * FROM users WHERE username = $1`, filter.Username); err != nil {
			return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by username")
		}
	case filter.Email != "":
		if err := exe.GetContext(ctx, &row, `SELECT * FROM users WHERE email = $1`, filter.Email); err != nil {
			return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by email")
		}
	case len(filter.UsernameOrEmail) > 0:
		uname := filter.UsernameOrEmail[0]
		email := uname
		if len(filter.UsernameOrEmail) == 2 && filter.UsernameOrEmail[1] != "" {
			email = filter.UsernameOrEmail[1]
		}
		if err := exe.GetContext(ctx, &row, `SELECT * FROM users WHERE username = $1 OR email = $2`, uname, email); err != nil {
			return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
		}
	default:
		return user.User{}, user.ErrNotFound
	}

	return row.domain(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	exe := getExec(repo.exec, exec)

	q := `
		UPDATE users SET
			name = COALESCE(NULLIF($2, ''), name),
			username = COALESCE(NULLIF($3, ''), username),
			email = COALESCE(NULLIF($4, ''), email),
			department = COALESCE(NULLIF($5, ''), department),
			roles = COALESCE($6, roles),
			password_hash = COALESCE($7, password_hash),
			updated_at = $8,
			last_login = COALESCE($9, last_login)`
	args := []interface{}{
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Department,
		rolesOrNil(usr.Roles), hashOrNil(usr.PasswordHash), usr.UpdatedAt.UTC(),
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
	if isActive != nil {
		q += `, is_active = $10`
		args = append(args, *isActive)
	}
	q += ` WHERE id = $1`

	res, err := exe.ExecContext(ctx, q, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM users WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func rolesOrNil(roles []string) interface{} {
	if roles == nil {
		return nil
	}
	return pq.StringArray(roles)
}

func hashOrNil(hash []byte) interface{} {
	if len(hash) == 0 {
		return nil
	}
	return hash
}
