package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"backend-tourtrack/internal/db"
	"backend-tourtrack/internal/routing"
	"backend-tourtrack/internal/shared/geo"
	"backend-tourtrack/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Router derives street names from a completed point trail. Failures
// are absorbed by the caller; a session always completes.
type Router interface {
	Streets(ctx context.Context, coords []routing.Coordinate) ([]routing.Street, error)
}

type Service struct {
	db       db.Querier
	hub      *stream.Hub
	registry *Registry
	router   Router

	// serializes the read-last -> compute -> append sequence per
	// (user, job); two devices or a retry racing on one session
	// would otherwise lose updates
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(db db.Querier, hub *stream.Hub, registry *Registry, router Router) *Service {
	return &Service{
		db:       db,
		hub:      hub,
		registry: registry,
		router:   router,
		locks:    map[string]*sync.Mutex{},
	}
}

func (s *Service) sessionLock(userID, jobID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + "|" + jobID
	if s.locks[key] == nil {
		s.locks[key] = &sync.Mutex{}
	}
	return s.locks[key]
}

// Start opens a new active session for (userID, jobID). Any prior
// active session for the same pair is cancelled first, not errored on.
func (s *Service) Start(ctx context.Context, userID, role, jobID string) (string, error) {
	lock := s.sessionLock(userID, jobID)
	lock.Lock()
	defer lock.Unlock()

	var jobExists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tour_jobs WHERE id=$1)`, jobID).Scan(&jobExists); err != nil {
		return "", err
	}
	if !jobExists {
		return "", ErrJobNotFound
	}

	now := time.Now()
	if _, err := s.db.Exec(ctx, `
		UPDATE track_sessions SET status='cancelled', ended_at=$3
		WHERE user_id=$1 AND job_id=$2 AND status='active'
	`, userID, jobID, now); err != nil {
		return "", err
	}

	sessionID := uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO track_sessions (id, user_id, job_id, role, status, started_at, total_distance_km)
		VALUES ($1,$2,$3,$4,'active',$5,0)
		RETURNING started_at
	`, sessionID, userID, jobID, role, now)
	var startedAt time.Time
	if err := row.Scan(&startedAt); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Update appends a position report to the active session. A report
// whose coordinates exactly equal the last stored point is skipped
// without side effects.
func (s *Service) Update(ctx context.Context, userID, jobID string, point Point) (UpdateResult, error) {
	lock := s.sessionLock(userID, jobID)
	lock.Lock()
	defer lock.Unlock()

	var sessionID, role string
	var total float64
	err := s.db.QueryRow(ctx, `
		SELECT id, role, COALESCE(total_distance_km,0)
		FROM track_sessions
		WHERE user_id=$1 AND job_id=$2 AND status='active'
	`, userID, jobID).Scan(&sessionID, &role, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return UpdateResult{}, ErrNoActiveSession
	}
	if err != nil {
		return UpdateResult{}, err
	}

	var lastLat, lastLng float64
	hasLast := true
	err = s.db.QueryRow(ctx, `
		SELECT latitude, longitude FROM track_points
		WHERE session_id=$1
		ORDER BY id DESC LIMIT 1
	`, sessionID).Scan(&lastLat, &lastLng)
	if errors.Is(err, pgx.ErrNoRows) {
		hasLast = false
	} else if err != nil {
		return UpdateResult{}, err
	}

	if hasLast && lastLat == point.Latitude && lastLng == point.Longitude {
		return UpdateResult{Skipped: true, TotalDistanceKm: total}, nil
	}

	if point.Timestamp.IsZero() {
		point.Timestamp = time.Now()
	}
	inc := 0.0
	if hasLast {
		inc = geo.HaversineKm(lastLat, lastLng, point.Latitude, point.Longitude)
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO track_points (session_id, latitude, longitude, recorded_at)
		VALUES ($1,$2,$3,$4)
	`, sessionID, point.Latitude, point.Longitude, point.Timestamp); err != nil {
		return UpdateResult{}, err
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE track_sessions SET total_distance_km = COALESCE(total_distance_km,0) + $2
		WHERE id=$1
	`, sessionID, inc); err != nil {
		return UpdateResult{}, err
	}
	total += inc

	username, job := s.displayInfo(ctx, userID, jobID)

	if s.registry != nil {
		s.registry.Upsert(ctx, ActiveEntry{
			UserID:    userID,
			JobID:     jobID,
			Username:  username,
			Role:      role,
			Latitude:  point.Latitude,
			Longitude: point.Longitude,
			Job:       job,
			UpdatedAt: time.Now(),
		})
	}
	if s.hub != nil {
		s.hub.PublishLocation(stream.LocationEvent{
			UserID:    userID,
			Username:  username,
			Role:      role,
			Latitude:  point.Latitude,
			Longitude: point.Longitude,
			Job:       job,
		})
	}

	return UpdateResult{TotalDistanceKm: total}, nil
}

// displayInfo resolves the username and job summary carried by live
// events. Best effort: a failed lookup never fails the update.
func (s *Service) displayInfo(ctx context.Context, userID, jobID string) (string, *stream.JobSummary) {
	var username string
	_ = s.db.QueryRow(ctx, `SELECT username FROM users WHERE id=$1`, userID).Scan(&username)

	var job *stream.JobSummary
	var destination, jobStatus string
	var jobDate time.Time
	if err := s.db.QueryRow(ctx, `
		SELECT destination, job_date, status FROM tour_jobs WHERE id=$1
	`, jobID).Scan(&destination, &jobDate, &jobStatus); err == nil {
		job = &stream.JobSummary{Destination: destination, Date: jobDate, Status: jobStatus}
	}
	return username, job
}

// Stop completes the active session, enriches it with street names
// when the trail has at least two points and removes the user from the
// live view. Enrichment failure leaves the street list empty; the stop
// still succeeds.
func (s *Service) Stop(ctx context.Context, userID, jobID string) (StopResult, error) {
	lock := s.sessionLock(userID, jobID)
	lock.Lock()
	defer lock.Unlock()

	var sessionID string
	var total float64
	err := s.db.QueryRow(ctx, `
		SELECT id, COALESCE(total_distance_km,0)
		FROM track_sessions
		WHERE user_id=$1 AND job_id=$2 AND status='active'
	`, userID, jobID).Scan(&sessionID, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return StopResult{}, ErrNoActiveSession
	}
	if err != nil {
		return StopResult{}, err
	}

	points, err := s.points(ctx, sessionID)
	if err != nil {
		return StopResult{}, err
	}

	streets := []routing.Street{}
	if len(points) >= 2 && s.router != nil {
		coords := make([]routing.Coordinate, 0, len(points))
		for _, p := range points {
			coords = append(coords, routing.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude})
		}
		enriched, err := s.router.Streets(ctx, coords)
		if err != nil {
			log.Printf("route enrichment failed: %v", err)
		} else if enriched != nil {
			streets = enriched
		}
	}

	streetsJSON, err := json.Marshal(streets)
	if err != nil {
		return StopResult{}, err
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE track_sessions SET status='completed', ended_at=$2, streets=$3
		WHERE id=$1
	`, sessionID, time.Now(), streetsJSON); err != nil {
		return StopResult{}, err
	}

	if s.registry != nil {
		s.registry.Remove(ctx, userID)
	}
	if s.hub != nil {
		s.hub.PublishRemoval(userID)
	}

	return StopResult{TotalDistanceKm: total, Streets: streets}, nil
}

// RecordLocation handles an inbound live-transport position report.
func (s *Service) RecordLocation(ctx context.Context, update stream.LocationUpdate) error {
	point := Point{
		Latitude:  update.Latitude,
		Longitude: update.Longitude,
		Timestamp: update.Timestamp,
	}
	_, err := s.Update(ctx, update.UserID, update.JobID, point)
	return err
}

// StopUser handles an inbound userStopped notification: every active
// session of the user completes and the live view forgets them. No
// enrichment runs on this path.
func (s *Service) StopUser(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `
		UPDATE track_sessions SET status='completed', ended_at=$2
		WHERE user_id=$1 AND status='active'
	`, userID, time.Now()); err != nil {
		return err
	}

	if s.registry != nil {
		s.registry.Remove(ctx, userID)
	}
	if s.hub != nil {
		s.hub.PublishRemoval(userID)
	}
	return nil
}

// RemoveActive drops a user from the live view without touching their
// sessions.
func (s *Service) RemoveActive(ctx context.Context, userID string) {
	if s.registry != nil {
		s.registry.Remove(ctx, userID)
	}
	if s.hub != nil {
		s.hub.PublishRemoval(userID)
	}
}

func (s *Service) ActiveList(role string) []ActiveEntry {
	if s.registry == nil {
		return nil
	}
	if role != "" {
		return s.registry.ListByRole(role)
	}
	return s.registry.List()
}

func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]Session, error) {
	query := `
		SELECT s.id, s.user_id, s.job_id, s.role, s.status, s.started_at, s.ended_at,
		       COALESCE(s.total_distance_km,0), COALESCE(u.username,''),
		       j.destination, j.job_date, j.status
		FROM track_sessions s
		LEFT JOIN users u ON u.id = s.user_id
		LEFT JOIN tour_jobs j ON j.id = s.job_id
	`
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+placeholder(len(args)))
	}

	if filter.UserID != "" {
		add("s.user_id=", filter.UserID)
	}
	if filter.Role != "" {
		add("s.role=", filter.Role)
	}
	if filter.JobID != "" {
		add("s.job_id=", filter.JobID)
	}
	if filter.Status != "" {
		add("s.status=", filter.Status)
	}
	if filter.JobStatus != "" {
		add("j.status=", filter.JobStatus)
	}
	if !filter.From.IsZero() {
		add("s.started_at>=", filter.From)
	}
	if !filter.To.IsZero() {
		add("s.started_at<=", filter.To)
	}

	if len(conds) > 0 {
		query += " WHERE " + joinConds(conds)
	}
	query += " ORDER BY s.started_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

func (s *Service) HistoryByJob(ctx context.Context, jobID string) ([]Session, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.user_id, s.job_id, s.role, s.status, s.started_at, s.ended_at,
		       COALESCE(s.total_distance_km,0), COALESCE(u.username,''),
		       j.destination, j.job_date, j.status
		FROM track_sessions s
		LEFT JOIN users u ON u.id = s.user_id
		LEFT JOIN tour_jobs j ON j.id = s.job_id
		WHERE s.job_id=$1 AND s.status='completed'
		ORDER BY s.started_at
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.job_id, s.role, s.status, s.started_at, s.ended_at,
		       COALESCE(s.total_distance_km,0), s.streets, COALESCE(u.username,''),
		       j.destination, j.job_date, j.status
		FROM track_sessions s
		LEFT JOIN users u ON u.id = s.user_id
		LEFT JOIN tour_jobs j ON j.id = s.job_id
		WHERE s.id=$1
	`, sessionID)

	var session Session
	var streetsJSON []byte
	var destination, jobStatus *string
	var jobDate *time.Time
	err := row.Scan(&session.ID, &session.UserID, &session.JobID, &session.Role, &session.Status,
		&session.StartedAt, &session.EndedAt, &session.TotalDistanceKm, &streetsJSON,
		&session.Username, &destination, &jobDate, &jobStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}

	if len(streetsJSON) > 0 {
		_ = json.Unmarshal(streetsJSON, &session.Streets)
	}
	session.Job = jobSummary(destination, jobDate, jobStatus)

	points, err := s.points(ctx, session.ID)
	if err != nil {
		return Session{}, err
	}
	session.Points = points
	return session, nil
}

func (s *Service) points(ctx context.Context, sessionID string) ([]Point, error) {
	rows, err := s.db.Query(ctx, `
		SELECT latitude, longitude, recorded_at FROM track_points
		WHERE session_id=$1
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Timestamp); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func scanSessions(rows pgx.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		var session Session
		var destination, jobStatus *string
		var jobDate *time.Time
		if err := rows.Scan(&session.ID, &session.UserID, &session.JobID, &session.Role,
			&session.Status, &session.StartedAt, &session.EndedAt, &session.TotalDistanceKm,
			&session.Username, &destination, &jobDate, &jobStatus); err != nil {
			return nil, err
		}
		session.Job = jobSummary(destination, jobDate, jobStatus)
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func jobSummary(destination *string, date *time.Time, status *string) *stream.JobSummary {
	if destination == nil {
		return nil
	}
	summary := &stream.JobSummary{Destination: *destination}
	if date != nil {
		summary.Date = *date
	}
	if status != nil {
		summary.Status = *status
	}
	return summary
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func joinConds(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " AND " + c
	}
	return out
}
