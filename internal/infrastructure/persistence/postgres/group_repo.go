package postgres

import (
	"context"

	"github.com/physed-hub/phys-ed-journal/internal/domain/group"
	"github.com/physed-hub/phys-ed-journal/internal/domain/shared"
)

// GroupRepository implements group.Repository for PostgreSQL.
type GroupRepository struct {
	conn *Connection
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(conn *Connection) *GroupRepository {
	return &GroupRepository{conn: conn}
}

// Create creates a new group.
func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	_, err := r.conn.Exec(ctx,
		"INSERT INTO groups (group_name, visit_value, curator_guid) VALUES ($1, $2, $3)",
		g.GroupName, g.VisitValue, nullIfEmpty(g.CuratorGUID),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return group.ErrGroupAlreadyExists
		}
		return shared.Transient("groups.Create", err)
	}

	return nil
}

// GetByName returns a group by name.
func (r *GroupRepository) GetByName(ctx context.Context, groupName string) (*group.Group, error) {
	var g group.Group
	var curator *string
	err := r.conn.QueryRow(ctx,
		"SELECT group_name, visit_value, curator_guid FROM groups WHERE group_name = $1",
		groupName,
	).Scan(&g.GroupName, &g.VisitValue, &curator)
	if err != nil {
		if IsNoRows(err) {
			return nil, group.ErrGroupNotFound
		}
		return nil, shared.Transient("groups.GetByName", err)
	}
	if curator != nil {
		g.CuratorGUID = *curator
	}

	return &g, nil
}

// GetAll returns all groups.
func (r *GroupRepository) GetAll(ctx context.Context) ([]*group.Group, error) {
	rows, err := r.conn.Query(ctx,
		"SELECT group_name, visit_value, curator_guid FROM groups ORDER BY group_name")
	if err != nil {
		return nil, shared.Transient("groups.GetAll", err)
	}
	defer rows.Close()

	var groups []*group.Group
	for rows.Next() {
		var g group.Group
		var curator *string
		if err := rows.Scan(&g.GroupName, &g.VisitValue, &curator); err != nil {
			return nil, shared.Transient("groups.GetAll", err)
		}
		if curator != nil {
			g.CuratorGUID = *curator
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Transient("groups.GetAll", err)
	}

	return groups, nil
}

// UpdateVisitValue changes the group's visit value.
func (r *GroupRepository) UpdateVisitValue(ctx context.Context, groupName string, visitValue float64) error {
	tag, err := r.conn.Exec(ctx,
		"UPDATE groups SET visit_value = $1 WHERE group_name = $2",
		visitValue, groupName,
	)
	if err != nil {
		return shared.Transient("groups.UpdateVisitValue", err)
	}
	if tag.RowsAffected() == 0 {
		return group.ErrGroupNotFound
	}

	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
