package repositories

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
)

// NotificationRepo stores the per-user notification feed in Cassandra,
// partitioned by user id and clustered newest-first.
type NotificationRepo struct {
	session *gocql.Session
}

func NewNotificationRepo(host string) (*NotificationRepo, error) {
	if host == "" {
		host = "127.0.0.1"
	}

	cluster := gocql.NewCluster(host)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: %v", err)
		return nil, err
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS notifications
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASSANDRA_KEYSPACE_FAILED, Description: %v", err)
		return nil, err
	}
	session.Close()

	cluster.Keyspace = "notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASSANDRA_KEYSPACE_CONNECT_FAILED, Description: %v", err)
		return nil, err
	}

	repo := &NotificationRepo{session: session}
	if err := repo.createTable(); err != nil {
		return nil, err
	}

	logging.Logger.Info("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra notifications keyspace.")
	return repo, nil
}

func (nr *NotificationRepo) CloseSession() {
	nr.session.Close()
	logging.Logger.Info("Event ID: CASSANDRA_CLOSED, Description: Cassandra session closed.")
}

func (nr *NotificationRepo) createTable() error {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID,
			user_id TEXT,
			type TEXT,
			title TEXT,
			message TEXT,
			data MAP<TEXT, TEXT>,
			created_at TIMESTAMP,
			is_read BOOLEAN,
			read_at TIMESTAMP,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASSANDRA_TABLE_FAILED, Description: Failed to create notifications table: %v", err)
	}
	return err
}

func (nr *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = gocql.TimeUUID().String()
	}

	return nr.session.Query(
		`INSERT INTO notifications (id, user_id, type, title, message, data, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.Data, n.CreatedAt, n.IsRead,
	).WithContext(ctx).Exec()
}

func (nr *NotificationRepo) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	iter := nr.session.Query(
		`SELECT id, user_id, type, title, message, data, created_at, is_read, read_at
		 FROM notifications WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	var notifications []models.Notification
	var n models.Notification
	var typ string
	var readAt time.Time

	for iter.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &n.Data, &n.CreatedAt, &n.IsRead, &readAt) {
		n.Type = models.NotificationType(typ)
		if !readAt.IsZero() {
			t := readAt
			n.ReadAt = &t
		} else {
			n.ReadAt = nil
		}
		notifications = append(notifications, n)
		n = models.Notification{}
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// findRow locates the full clustering key for a notification id within the
// user's partition. Cassandra updates need created_at as well as the id.
func (nr *NotificationRepo) findRow(ctx context.Context, userID, notificationID string) (gocql.UUID, time.Time, bool, error) {
	iter := nr.session.Query(
		`SELECT id, created_at FROM notifications WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	var id gocql.UUID
	var createdAt time.Time
	found := false
	for iter.Scan(&id, &createdAt) {
		if id.String() == notificationID {
			found = true
			break
		}
	}
	if err := iter.Close(); err != nil {
		return gocql.UUID{}, time.Time{}, false, err
	}
	return id, createdAt, found, nil
}

func (nr *NotificationRepo) MarkRead(ctx context.Context, userID, notificationID string, readAt time.Time) (bool, error) {
	id, createdAt, found, err := nr.findRow(ctx, userID, notificationID)
	if err != nil || !found {
		return false, err
	}

	err = nr.session.Query(
		`UPDATE notifications SET is_read = true, read_at = ? WHERE user_id = ? AND created_at = ? AND id = ?`,
		readAt, userID, createdAt, id,
	).WithContext(ctx).Exec()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (nr *NotificationRepo) MarkAllRead(ctx context.Context, userID string, readAt time.Time) error {
	iter := nr.session.Query(
		`SELECT id, created_at, is_read FROM notifications WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	type row struct {
		id        gocql.UUID
		createdAt time.Time
	}
	var unread []row
	var id gocql.UUID
	var createdAt time.Time
	var isRead bool
	for iter.Scan(&id, &createdAt, &isRead) {
		if !isRead {
			unread = append(unread, row{id: id, createdAt: createdAt})
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}

	for _, r := range unread {
		err := nr.session.Query(
			`UPDATE notifications SET is_read = true, read_at = ? WHERE user_id = ? AND created_at = ? AND id = ?`,
			readAt, userID, r.createdAt, r.id,
		).WithContext(ctx).Exec()
		if err != nil {
			return err
		}
	}
	return nil
}

func (nr *NotificationRepo) Delete(ctx context.Context, userID, notificationID string) (bool, error) {
	id, createdAt, found, err := nr.findRow(ctx, userID, notificationID)
	if err != nil || !found {
		return false, err
	}

	err = nr.session.Query(
		`DELETE FROM notifications WHERE user_id = ? AND created_at = ? AND id = ?`,
		userID, createdAt, id,
	).WithContext(ctx).Exec()
	if err != nil {
		return false, err
	}
	return true, nil
}
