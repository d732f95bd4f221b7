package database

import "database/sql"

// Admin represents a row of the admins table. The super-admin may or may not
// have a row; its privileges never depend on it.
type Admin struct {
	UserID   int64        `db:"user_id"`
	Username string       `db:"username"`
	AddedBy  int64        `db:"added_by"`
	AddedAt  sql.NullTime `db:"added_at"`

	// AddedByUsername is filled by ListAdmins from the adder's own row, if any.
	AddedByUsername string `db:"added_by_username"`
}

// Customer represents a completed survey. Re-submission replaces every field
// and refreshes Timestamp.
type Customer struct {
	UserID     int64        `db:"user_id"`
	Username   string       `db:"username"`
	FullName   string       `db:"full_name"`
	Appreciate string       `db:"appreciate"`
	Dislike    string       `db:"dislike"`
	Improve    string       `db:"improve"`
	Gender     string       `db:"gender"`
	AgeGroup   string       `db:"age_group"`
	VisitFreq  string       `db:"visit_freq"`
	IsAdmin    bool         `db:"is_admin"`
	Timestamp  sql.NullTime `db:"timestamp"`
}

// GroupCount is one row of the customer breakdown by survey answers.
type GroupCount struct {
	Gender    string `db:"gender"`
	AgeGroup  string `db:"age_group"`
	VisitFreq string `db:"visit_freq"`
	Count     int    `db:"total"`
}

// TimeRange holds the first and last survey timestamps. Both are invalid when
// there are no customers.
type TimeRange struct {
	First sql.NullTime
	Last  sql.NullTime
}

// Envelope links a relayed message delivered to an admin with the customer
// who wrote it.
type Envelope struct {
	AdminID    int64 `db:"admin_id"`
	MessageID  int   `db:"message_id"`
	CustomerID int64 `db:"customer_id"`
}
