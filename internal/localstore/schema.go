package localstore

// Schema is the fixed DDL applied once on first initialization. Column
// names stay aligned with the authoritative remote schema; the
// sanitize/convert routines depend on that alignment. Booleans are
// INTEGER 0/1, timestamps RFC3339 TEXT, structured fields JSON text.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	total_points INTEGER NOT NULL DEFAULT 0,
	is_admin INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(lower(username));

CREATE TABLE IF NOT EXISTS quiz_attempts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	quiz_id TEXT NOT NULL DEFAULT '',
	topic TEXT NOT NULL DEFAULT '',
	score INTEGER NOT NULL DEFAULT 0,
	total_questions INTEGER NOT NULL DEFAULT 0,
	correct_answers INTEGER NOT NULL DEFAULT 0,
	answers TEXT,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	completed_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user ON quiz_attempts(user_id);

CREATE TABLE IF NOT EXISTS user_achievements (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	achievement_key TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	unlocked INTEGER NOT NULL DEFAULT 0,
	unlocked_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id);

CREATE TABLE IF NOT EXISTS custom_quizzes (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	questions TEXT,
	tags TEXT,
	is_public INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_custom_quizzes_user ON custom_quizzes(user_id);

CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	tags TEXT,
	pinned INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id);

CREATE TABLE IF NOT EXISTS todos (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	completed INTEGER NOT NULL DEFAULT 0,
	priority INTEGER NOT NULL DEFAULT 0,
	due_date TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_todos_user ON todos(user_id);

CREATE TABLE IF NOT EXISTS pomodoro_sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	session_type TEXT NOT NULL DEFAULT 'work',
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	completed INTEGER NOT NULL DEFAULT 0,
	started_at TEXT,
	ended_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pomodoro_sessions_user ON pomodoro_sessions(user_id);

CREATE TABLE IF NOT EXISTS pomodoro_settings (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	work_minutes INTEGER NOT NULL DEFAULT 25,
	short_break_minutes INTEGER NOT NULL DEFAULT 5,
	long_break_minutes INTEGER NOT NULL DEFAULT 15,
	sessions_before_long_break INTEGER NOT NULL DEFAULT 4,
	auto_start_breaks INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT 'info',
	read INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);

CREATE TABLE IF NOT EXISTS bug_reports (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	platform TEXT,
	status TEXT NOT NULL DEFAULT 'open',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_logs (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	details TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS app_settings (
	id TEXT PRIMARY KEY,
	maintenance_mode INTEGER NOT NULL DEFAULT 0,
	min_supported_version TEXT NOT NULL DEFAULT '',
	announcement TEXT NOT NULL DEFAULT '',
	metadata TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	theme TEXT NOT NULL DEFAULT 'system',
	language TEXT NOT NULL DEFAULT 'en',
	notifications_enabled INTEGER NOT NULL DEFAULT 1,
	sound_enabled INTEGER NOT NULL DEFAULT 1,
	study_reminder_hour INTEGER NOT NULL DEFAULT 18,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS login_history (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	success INTEGER NOT NULL DEFAULT 0,
	ip_address TEXT NOT NULL DEFAULT '',
	device_info TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_login_history_user ON login_history(user_id);

CREATE TABLE IF NOT EXISTS sync_queue (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	table_name TEXT NOT NULL,
	record_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	payload TEXT,
	synced INTEGER NOT NULL DEFAULT 0,
	retry_count INTEGER NOT NULL DEFAULT 0,
	last_error TEXT NOT NULL DEFAULT '',
	last_attempt_at TEXT,
	created_at TEXT NOT NULL,
	synced_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_sync_queue_pending ON sync_queue(user_id, synced, created_at);
`

// TableColumns lists the authoritative columns of every synchronized
// table. Payload sanitization strips anything not listed here so stale
// payloads are never replayed with rejected fields.
var TableColumns = map[string][]string{
	"users": {
		"id", "username", "email", "password_hash", "display_name",
		"avatar_url", "total_points", "is_admin", "created_at", "updated_at",
	},
	"quiz_attempts": {
		"id", "user_id", "quiz_id", "topic", "score", "total_questions",
		"correct_answers", "answers", "duration_seconds", "completed_at",
		"created_at", "updated_at",
	},
	"user_achievements": {
		"id", "user_id", "achievement_key", "progress", "unlocked",
		"unlocked_at", "created_at", "updated_at",
	},
	"custom_quizzes": {
		"id", "user_id", "title", "description", "questions", "tags",
		"is_public", "created_at", "updated_at",
	},
	"notes": {
		"id", "user_id", "title", "content", "tags", "pinned",
		"created_at", "updated_at",
	},
	"todos": {
		"id", "user_id", "title", "description", "completed", "priority",
		"due_date", "created_at", "updated_at",
	},
	"pomodoro_sessions": {
		"id", "user_id", "session_type", "duration_minutes", "completed",
		"started_at", "ended_at", "created_at", "updated_at",
	},
	"pomodoro_settings": {
		"id", "user_id", "work_minutes", "short_break_minutes",
		"long_break_minutes", "sessions_before_long_break",
		"auto_start_breaks", "created_at", "updated_at",
	},
	"notifications": {
		"id", "user_id", "title", "body", "type", "read",
		"created_at", "updated_at",
	},
	"bug_reports": {
		"id", "user_id", "title", "description", "platform", "status",
		"created_at", "updated_at",
	},
	"activity_logs": {
		"id", "username", "action", "details", "created_at", "updated_at",
	},
	"app_settings": {
		"id", "maintenance_mode", "min_supported_version", "announcement",
		"metadata", "created_at", "updated_at",
	},
	"user_settings": {
		"id", "user_id", "theme", "language", "notifications_enabled",
		"sound_enabled", "study_reminder_hour", "created_at", "updated_at",
	},
	"login_history": {
		"id", "user_id", "success", "ip_address", "device_info",
		"created_at", "updated_at",
	},
}

// IsColumn reports whether col is an authoritative column of table.
func IsColumn(table, col string) bool {
	for _, c := range TableColumns[table] {
		if c == col {
			return true
		}
	}
	return false
}
