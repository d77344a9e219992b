package model

// Every record carries an opaque client-generated id and
// created_at/updated_at stamps. All records except ActivityLog and
// AppSettings belong to a user via user_id.
//
// The Values methods build the canonical column map used for remote
// inserts, local writes and queued payloads. Keys match the
// authoritative schema column names exactly; the store adapters own the
// per-engine value encoding.

// User is an account profile. Usernames are unique case-insensitively.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"password_hash"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url"`
	TotalPoints  int       `db:"total_points" json:"total_points"`
	IsAdmin      Bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt    Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (u *User) Values() map[string]any {
	return map[string]any{
		"id":            u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"display_name":  u.DisplayName,
		"avatar_url":    u.AvatarURL,
		"total_points":  u.TotalPoints,
		"is_admin":      u.IsAdmin,
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
	}
}

// QuizAttempt records one play-through of a quiz.
type QuizAttempt struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	QuizID          string     `db:"quiz_id" json:"quiz_id"`
	Topic           string     `db:"topic" json:"topic"`
	Score           int        `db:"score" json:"score"`
	TotalQuestions  int        `db:"total_questions" json:"total_questions"`
	CorrectAnswers  int        `db:"correct_answers" json:"correct_answers"`
	Answers         AnswerList `db:"answers" json:"answers"`
	DurationSeconds int        `db:"duration_seconds" json:"duration_seconds"`
	CompletedAt     Timestamp  `db:"completed_at" json:"completed_at"`
	CreatedAt       Timestamp  `db:"created_at" json:"created_at"`
	UpdatedAt       Timestamp  `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (a *QuizAttempt) Values() map[string]any {
	return map[string]any{
		"id":               a.ID,
		"user_id":          a.UserID,
		"quiz_id":          a.QuizID,
		"topic":            a.Topic,
		"score":            a.Score,
		"total_questions":  a.TotalQuestions,
		"correct_answers":  a.CorrectAnswers,
		"answers":          a.Answers,
		"duration_seconds": a.DurationSeconds,
		"completed_at":     a.CompletedAt,
		"created_at":       a.CreatedAt,
		"updated_at":       a.UpdatedAt,
	}
}

// UserAchievement marks an achievement a user has unlocked or is
// progressing toward.
type UserAchievement struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	AchievementKey string    `db:"achievement_key" json:"achievement_key"`
	Progress       int       `db:"progress" json:"progress"`
	Unlocked       Bool      `db:"unlocked" json:"unlocked"`
	UnlockedAt     Timestamp `db:"unlocked_at" json:"unlocked_at"`
	CreatedAt      Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt      Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (a *UserAchievement) Values() map[string]any {
	return map[string]any{
		"id":              a.ID,
		"user_id":         a.UserID,
		"achievement_key": a.AchievementKey,
		"progress":        a.Progress,
		"unlocked":        a.Unlocked,
		"unlocked_at":     a.UnlockedAt,
		"created_at":      a.CreatedAt,
		"updated_at":      a.UpdatedAt,
	}
}

// CustomQuiz is a user-authored quiz.
type CustomQuiz struct {
	ID          string       `db:"id" json:"id"`
	UserID      string       `db:"user_id" json:"user_id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Questions   QuestionList `db:"questions" json:"questions"`
	Tags        StringList   `db:"tags" json:"tags"`
	IsPublic    Bool         `db:"is_public" json:"is_public"`
	CreatedAt   Timestamp    `db:"created_at" json:"created_at"`
	UpdatedAt   Timestamp    `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (q *CustomQuiz) Values() map[string]any {
	return map[string]any{
		"id":          q.ID,
		"user_id":     q.UserID,
		"title":       q.Title,
		"description": q.Description,
		"questions":   q.Questions,
		"tags":        q.Tags,
		"is_public":   q.IsPublic,
		"created_at":  q.CreatedAt,
		"updated_at":  q.UpdatedAt,
	}
}

// Note is a free-form study note.
type Note struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	Tags      StringList `db:"tags" json:"tags"`
	Pinned    Bool       `db:"pinned" json:"pinned"`
	CreatedAt Timestamp  `db:"created_at" json:"created_at"`
	UpdatedAt Timestamp  `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (n *Note) Values() map[string]any {
	return map[string]any{
		"id":         n.ID,
		"user_id":    n.UserID,
		"title":      n.Title,
		"content":    n.Content,
		"tags":       n.Tags,
		"pinned":     n.Pinned,
		"created_at": n.CreatedAt,
		"updated_at": n.UpdatedAt,
	}
}

// Todo is a task on a user's study checklist.
type Todo struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Completed   Bool      `db:"completed" json:"completed"`
	Priority    int       `db:"priority" json:"priority"`
	DueDate     Timestamp `db:"due_date" json:"due_date"`
	CreatedAt   Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt   Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (t *Todo) Values() map[string]any {
	return map[string]any{
		"id":          t.ID,
		"user_id":     t.UserID,
		"title":       t.Title,
		"description": t.Description,
		"completed":   t.Completed,
		"priority":    t.Priority,
		"due_date":    t.DueDate,
		"created_at":  t.CreatedAt,
		"updated_at":  t.UpdatedAt,
	}
}

// PomodoroSession is one focus/break interval.
type PomodoroSession struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	SessionType     string    `db:"session_type" json:"session_type"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Completed       Bool      `db:"completed" json:"completed"`
	StartedAt       Timestamp `db:"started_at" json:"started_at"`
	EndedAt         Timestamp `db:"ended_at" json:"ended_at"`
	CreatedAt       Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt       Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (s *PomodoroSession) Values() map[string]any {
	return map[string]any{
		"id":               s.ID,
		"user_id":          s.UserID,
		"session_type":     s.SessionType,
		"duration_minutes": s.DurationMinutes,
		"completed":        s.Completed,
		"started_at":       s.StartedAt,
		"ended_at":         s.EndedAt,
		"created_at":       s.CreatedAt,
		"updated_at":       s.UpdatedAt,
	}
}

// PomodoroSettings holds a user's timer preferences. One row per user,
// upserted by user_id.
type PomodoroSettings struct {
	ID                      string    `db:"id" json:"id"`
	UserID                  string    `db:"user_id" json:"user_id"`
	WorkMinutes             int       `db:"work_minutes" json:"work_minutes"`
	ShortBreakMinutes       int       `db:"short_break_minutes" json:"short_break_minutes"`
	LongBreakMinutes        int       `db:"long_break_minutes" json:"long_break_minutes"`
	SessionsBeforeLongBreak int       `db:"sessions_before_long_break" json:"sessions_before_long_break"`
	AutoStartBreaks         Bool      `db:"auto_start_breaks" json:"auto_start_breaks"`
	CreatedAt               Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt               Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (s *PomodoroSettings) Values() map[string]any {
	return map[string]any{
		"id":                         s.ID,
		"user_id":                    s.UserID,
		"work_minutes":               s.WorkMinutes,
		"short_break_minutes":        s.ShortBreakMinutes,
		"long_break_minutes":         s.LongBreakMinutes,
		"sessions_before_long_break": s.SessionsBeforeLongBreak,
		"auto_start_breaks":          s.AutoStartBreaks,
		"created_at":                 s.CreatedAt,
		"updated_at":                 s.UpdatedAt,
	}
}

// Notification is an in-app message for a user.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Type      string    `db:"type" json:"type"`
	Read      Bool      `db:"read" json:"read"`
	CreatedAt Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (n *Notification) Values() map[string]any {
	return map[string]any{
		"id":         n.ID,
		"user_id":    n.UserID,
		"title":      n.Title,
		"body":       n.Body,
		"type":       n.Type,
		"read":       n.Read,
		"created_at": n.CreatedAt,
		"updated_at": n.UpdatedAt,
	}
}

// BugReport is a user-submitted problem report.
type BugReport struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Platform    JSONMap   `db:"platform" json:"platform"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt   Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (b *BugReport) Values() map[string]any {
	return map[string]any{
		"id":          b.ID,
		"user_id":     b.UserID,
		"title":       b.Title,
		"description": b.Description,
		"platform":    b.Platform,
		"status":      b.Status,
		"created_at":  b.CreatedAt,
		"updated_at":  b.UpdatedAt,
	}
}

// ActivityLog is an app-wide audit entry. It has no user_id column;
// the acting user, if any, is recorded by username.
type ActivityLog struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Action    string    `db:"action" json:"action"`
	Details   JSONMap   `db:"details" json:"details"`
	CreatedAt Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (l *ActivityLog) Values() map[string]any {
	return map[string]any{
		"id":         l.ID,
		"username":   l.Username,
		"action":     l.Action,
		"details":    l.Details,
		"created_at": l.CreatedAt,
		"updated_at": l.UpdatedAt,
	}
}

// AppSettingsID is the fixed id of the app-wide settings singleton.
const AppSettingsID = "app"

// AppSettings is the app-wide settings singleton, upserted by its
// fixed id.
type AppSettings struct {
	ID                  string    `db:"id" json:"id"`
	MaintenanceMode     Bool      `db:"maintenance_mode" json:"maintenance_mode"`
	MinSupportedVersion string    `db:"min_supported_version" json:"min_supported_version"`
	Announcement        string    `db:"announcement" json:"announcement"`
	Metadata            JSONMap   `db:"metadata" json:"metadata"`
	CreatedAt           Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt           Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (s *AppSettings) Values() map[string]any {
	return map[string]any{
		"id":                    s.ID,
		"maintenance_mode":      s.MaintenanceMode,
		"min_supported_version": s.MinSupportedVersion,
		"announcement":          s.Announcement,
		"metadata":              s.Metadata,
		"created_at":            s.CreatedAt,
		"updated_at":            s.UpdatedAt,
	}
}

// UserSettings holds per-user preferences. One row per user, upserted
// by user_id.
type UserSettings struct {
	ID                   string    `db:"id" json:"id"`
	UserID               string    `db:"user_id" json:"user_id"`
	Theme                string    `db:"theme" json:"theme"`
	Language             string    `db:"language" json:"language"`
	NotificationsEnabled Bool      `db:"notifications_enabled" json:"notifications_enabled"`
	SoundEnabled         Bool      `db:"sound_enabled" json:"sound_enabled"`
	StudyReminderHour    int       `db:"study_reminder_hour" json:"study_reminder_hour"`
	CreatedAt            Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt            Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (s *UserSettings) Values() map[string]any {
	return map[string]any{
		"id":                    s.ID,
		"user_id":               s.UserID,
		"theme":                 s.Theme,
		"language":              s.Language,
		"notifications_enabled": s.NotificationsEnabled,
		"sound_enabled":         s.SoundEnabled,
		"study_reminder_hour":   s.StudyReminderHour,
		"created_at":            s.CreatedAt,
		"updated_at":            s.UpdatedAt,
	}
}

// LoginHistory records one sign-in attempt.
type LoginHistory struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Success    Bool      `db:"success" json:"success"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	DeviceInfo JSONMap   `db:"device_info" json:"device_info"`
	CreatedAt  Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt  Timestamp `db:"updated_at" json:"updated_at"`
}

// Values returns the canonical column map.
func (h *LoginHistory) Values() map[string]any {
	return map[string]any{
		"id":          h.ID,
		"user_id":     h.UserID,
		"success":     h.Success,
		"ip_address":  h.IPAddress,
		"device_info": h.DeviceInfo,
		"created_at":  h.CreatedAt,
		"updated_at":  h.UpdatedAt,
	}
}
