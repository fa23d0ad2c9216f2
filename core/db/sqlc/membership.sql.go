package sqlc

import (
	"context"
)

const listUserIDsByDepartments = `-- name: ListUserIDsByDepartments :many
SELECT DISTINCT user_id FROM user_departments WHERE department_id = ANY($1::bigint[])`

func (q *Queries) ListUserIDsByDepartments(ctx context.Context, departmentIds []int64) ([]int64, error) {
	rows, err := q.db.Query(ctx, listUserIDsByDepartments, departmentIds)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

const listUserIDsByRoles = `-- name: ListUserIDsByRoles :many
SELECT DISTINCT user_id FROM user_roles WHERE role_id = ANY($1::bigint[])`

func (q *Queries) ListUserIDsByRoles(ctx context.Context, roleIds []int64) ([]int64, error) {
	rows, err := q.db.Query(ctx, listUserIDsByRoles, roleIds)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

const getUserName = `-- name: GetUserName :one
SELECT name FROM users WHERE id = $1`

func (q *Queries) GetUserName(ctx context.Context, id int64) (string, error) {
	row := q.db.QueryRow(ctx, getUserName, id)
	var name string
	err := row.Scan(&name)
	return name, err
}
