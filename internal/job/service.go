package job

import (
	"context"
	"errors"
	"strconv"

	"backend-tourtrack/internal/db"
	"backend-tourtrack/internal/stream"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("job not found")
	ErrInvalidStatus = errors.New("invalid status")
)

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

func (s *Service) Create(ctx context.Context, input TourJob) (TourJob, error) {
	input.ID = uuid.NewString()
	if input.Status == "" {
		input.Status = "on schedule"
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO tour_jobs (id, job_date, admin_id, driver_id, guide_id, destination, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.JobDate, input.AdminID, input.DriverID, input.GuideID, input.Destination, input.Status)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return TourJob{}, err
	}

	if s.hub != nil {
		s.hub.PublishJobAssigned(input.DriverID, input.GuideID)
	}
	return input, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]TourJob, error) {
	query := `
		SELECT j.id, j.job_date, j.admin_id, j.driver_id, j.guide_id, j.destination, j.status,
		       j.created_at, COALESCE(d.username,''), COALESCE(g.username,'')
		FROM tour_jobs j
		LEFT JOIN users d ON d.id = j.driver_id
		LEFT JOIN users g ON g.id = j.guide_id
	`
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}

	// assignee views default to pending work unless a status was asked for
	if (filter.DriverID != "" || filter.GuideID != "") && filter.Status == "" {
		conds = append(conds, "j.status <> 'completed'")
	}
	if filter.DriverID != "" {
		add("j.driver_id=", filter.DriverID)
	}
	if filter.GuideID != "" {
		add("j.guide_id=", filter.GuideID)
	}
	if filter.Status != "" {
		add("j.status=", filter.Status)
	}
	if !filter.From.IsZero() {
		add("j.job_date>=", filter.From)
	}
	if !filter.To.IsZero() {
		add("j.job_date<=", filter.To)
	}

	if len(conds) > 0 {
		query += " WHERE " + conds[0]
		for _, cond := range conds[1:] {
			query += " AND " + cond
		}
	}
	query += " ORDER BY j.job_date DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []TourJob
	for rows.Next() {
		var j TourJob
		if err := rows.Scan(&j.ID, &j.JobDate, &j.AdminID, &j.DriverID, &j.GuideID,
			&j.Destination, &j.Status, &j.CreatedAt, &j.DriverName, &j.GuideName); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Service) Get(ctx context.Context, id string) (TourJob, error) {
	row := s.db.QueryRow(ctx, `
		SELECT j.id, j.job_date, j.admin_id, j.driver_id, j.guide_id, j.destination, j.status,
		       j.created_at, COALESCE(d.username,''), COALESCE(g.username,'')
		FROM tour_jobs j
		LEFT JOIN users d ON d.id = j.driver_id
		LEFT JOIN users g ON g.id = j.guide_id
		WHERE j.id=$1
	`, id)

	var j TourJob
	if err := row.Scan(&j.ID, &j.JobDate, &j.AdminID, &j.DriverID, &j.GuideID,
		&j.Destination, &j.Status, &j.CreatedAt, &j.DriverName, &j.GuideName); err != nil {
		return TourJob{}, err
	}
	return j, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	switch status {
	case "on schedule", "cancel", "completed":
	default:
		return ErrInvalidStatus
	}

	tag, err := s.db.Exec(ctx, `UPDATE tour_jobs SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM tour_jobs WHERE id=$1`, id)
	return err
}
