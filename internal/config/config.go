// Package config provides configuration loading, defaults and validation
// for the survey bot.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Report    ReportConfig    `mapstructure:"report"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Survey    SurveyConfig    `mapstructure:"survey"`
	Labels    LabelsConfig    `mapstructure:"labels"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the distinguished super-admin identity.
type TelegramConfig struct {
	Token              string `mapstructure:"token" validate:"required"`
	SuperAdminID       int64  `mapstructure:"super_admin_id" validate:"required,gt=0"`
	SuperAdminUsername string `mapstructure:"super_admin_username"`
}

// DatabaseConfig selects the SQL driver and its data source.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// SessionConfig controls how long an idle conversation is kept.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"min=1m"`
}

// BroadcastConfig holds the minimum pause between two campaign sends.
type BroadcastConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"min=0"`
}

// RelayConfig controls the chat-selection menu and envelope links.
type RelayConfig struct {
	RecentCustomersLimit int `mapstructure:"recent_customers_limit" validate:"min=1,max=100"`
	// EnvelopeRetention is how long a relayed message stays answerable by its link.
	EnvelopeRetention time.Duration `mapstructure:"envelope_retention" validate:"min=1h"`
}

// ReportConfig controls the detailed customer report.
type ReportConfig struct {
	DetailedLimit int `mapstructure:"detailed_limit" validate:"min=1"`
	ChunkSize     int `mapstructure:"chunk_size" validate:"min=200,max=4096"`
}

// GeminiConfig configures the feedback digest. An empty APIKey disables it.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	ModelName         string        `mapstructure:"model_name"`
	Temperature       float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0"`
	Timeout           time.Duration `mapstructure:"timeout"`
	SystemInstruction string        `mapstructure:"system_instruction"`
	SampleSize        int           `mapstructure:"sample_size" validate:"min=1"`
}

// MetricsConfig enables the prometheus listener when Address is set.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig is the schedule of a single task. Schedule is a six-field cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SurveyConfig holds the accepted vocabulary of the enumerated survey steps.
type SurveyConfig struct {
	Yes           string   `mapstructure:"yes" validate:"required"`
	No            string   `mapstructure:"no" validate:"required"`
	GenderOptions []string `mapstructure:"gender_options" validate:"min=1,dive,required"`
	AgeOptions    []string `mapstructure:"age_options" validate:"min=1,dive,required"`
	VisitOptions  []string `mapstructure:"visit_options" validate:"min=1,dive,required"`
}

// LabelsConfig holds the menu button captions.
type LabelsConfig struct {
	Report         string `mapstructure:"report" validate:"required"`
	ListAdmins     string `mapstructure:"list_admins" validate:"required"`
	AddAdmin       string `mapstructure:"add_admin" validate:"required"`
	ClearAdmins    string `mapstructure:"clear_admins" validate:"required"`
	ClearCustomers string `mapstructure:"clear_customers" validate:"required"`
	Broadcast      string `mapstructure:"broadcast" validate:"required"`
	ChatWithClient string `mapstructure:"chat_with_client" validate:"required"`
	DetailedReport string `mapstructure:"detailed_report" validate:"required"`
	Digest         string `mapstructure:"digest" validate:"required"`
	Back           string `mapstructure:"back" validate:"required"`
	Cancel         string `mapstructure:"cancel" validate:"required"`
	EndChat        string `mapstructure:"end_chat" validate:"required"`
	ConfirmClear   string `mapstructure:"confirm_clear" validate:"required"`
	CancelClear    string `mapstructure:"cancel_clear" validate:"required"`
	CustomerFmt    string `mapstructure:"customer_fmt" validate:"required"`
}

// MessagesConfig holds every user-facing text. Fields ending in Fmt are fmt templates.
type MessagesConfig struct {
	GeneralError string `mapstructure:"general_error" validate:"required"`
	StepError    string `mapstructure:"step_error" validate:"required"`

	Welcome               string `mapstructure:"welcome" validate:"required"`
	RetakePrompt          string `mapstructure:"retake_prompt" validate:"required"`
	RetakeAdminPrompt     string `mapstructure:"retake_admin_prompt" validate:"required"`
	Declined              string `mapstructure:"declined" validate:"required"`
	HelpPrompt            string `mapstructure:"help_prompt" validate:"required"`
	AppreciatePrompt      string `mapstructure:"appreciate_prompt" validate:"required"`
	DislikePrompt         string `mapstructure:"dislike_prompt" validate:"required"`
	ImprovePrompt         string `mapstructure:"improve_prompt" validate:"required"`
	GenderPrompt          string `mapstructure:"gender_prompt" validate:"required"`
	AgePrompt             string `mapstructure:"age_prompt" validate:"required"`
	VisitPrompt           string `mapstructure:"visit_prompt" validate:"required"`
	GenderRejected        string `mapstructure:"gender_rejected" validate:"required"`
	AgeRejected           string `mapstructure:"age_rejected" validate:"required"`
	VisitRejected         string `mapstructure:"visit_rejected" validate:"required"`
	SurveyNotificationFmt string `mapstructure:"survey_notification_fmt" validate:"required"`
	Closing               string `mapstructure:"closing" validate:"required"`
	ClosingAdminSuffix    string `mapstructure:"closing_admin_suffix" validate:"required"`
	NoUsername            string `mapstructure:"no_username" validate:"required"`
	NoName                string `mapstructure:"no_name" validate:"required"`
	Unknown               string `mapstructure:"unknown" validate:"required"`

	NotAdmin                string `mapstructure:"not_admin" validate:"required"`
	PrivateOnly             string `mapstructure:"private_only" validate:"required"`
	AdminPanel              string `mapstructure:"admin_panel" validate:"required"`
	AdminPanelError         string `mapstructure:"admin_panel_error" validate:"required"`
	MainMenu                string `mapstructure:"main_menu" validate:"required"`
	ActionCancelled         string `mapstructure:"action_cancelled" validate:"required"`
	InsufficientRights      string `mapstructure:"insufficient_rights" validate:"required"`
	InsufficientRightsAlert string `mapstructure:"insufficient_rights_alert" validate:"required"`
	SelectionExpired        string `mapstructure:"selection_expired" validate:"required"`

	EnvelopeFmt          string `mapstructure:"envelope_fmt" validate:"required"`
	EnvelopeHeader       string `mapstructure:"envelope_header" validate:"required"`
	EnvelopeIDMarker     string `mapstructure:"envelope_id_marker" validate:"required"`
	CustomerAck          string `mapstructure:"customer_ack" validate:"required"`
	CustomerForwardError string `mapstructure:"customer_forward_error" validate:"required"`
	AdminReplyFmt        string `mapstructure:"admin_reply_fmt" validate:"required"`
	ReplyDelivered       string `mapstructure:"reply_delivered" validate:"required"`
	ReplyMalformed       string `mapstructure:"reply_malformed" validate:"required"`
	ReplyFailed          string `mapstructure:"reply_failed" validate:"required"`
	AdminHint            string `mapstructure:"admin_hint" validate:"required"`
	NoCustomersForChat   string `mapstructure:"no_customers_for_chat" validate:"required"`
	ChooseCustomer       string `mapstructure:"choose_customer" validate:"required"`
	ChatStartedFmt       string `mapstructure:"chat_started_fmt" validate:"required"`
	ChatSelectCancelled  string `mapstructure:"chat_select_cancelled" validate:"required"`
	ChatEnded            string `mapstructure:"chat_ended" validate:"required"`
	AdminMessageFmt      string `mapstructure:"admin_message_fmt" validate:"required"`
	ChatDelivered        string `mapstructure:"chat_delivered" validate:"required"`
	ChatFailed           string `mapstructure:"chat_failed" validate:"required"`

	BroadcastPrompt    string `mapstructure:"broadcast_prompt" validate:"required"`
	BroadcastCancelled string `mapstructure:"broadcast_cancelled" validate:"required"`
	BroadcastStartFmt  string `mapstructure:"broadcast_start_fmt" validate:"required"`
	CampaignFmt        string `mapstructure:"campaign_fmt" validate:"required"`
	BroadcastReportFmt string `mapstructure:"broadcast_report_fmt" validate:"required"`
	BroadcastNoticeFmt string `mapstructure:"broadcast_notice_fmt" validate:"required"`
	BroadcastError     string `mapstructure:"broadcast_error" validate:"required"`

	AddAdminPrompt    string `mapstructure:"add_admin_prompt" validate:"required"`
	AddAdminInvalidID string `mapstructure:"add_admin_invalid_id" validate:"required"`
	AddAdminDuplicate string `mapstructure:"add_admin_duplicate" validate:"required"`
	AddAdminDoneFmt   string `mapstructure:"add_admin_done_fmt" validate:"required"`
	AddAdminError     string `mapstructure:"add_admin_error" validate:"required"`
	AdminOnboarding   string `mapstructure:"admin_onboarding" validate:"required"`
	NewAdminNoticeFmt string `mapstructure:"new_admin_notice_fmt" validate:"required"`

	ClearAdminsPrompt       string `mapstructure:"clear_admins_prompt" validate:"required"`
	ClearAdminsDone         string `mapstructure:"clear_admins_done" validate:"required"`
	ClearAdminsError        string `mapstructure:"clear_admins_error" validate:"required"`
	ClearAdminsCancelled    string `mapstructure:"clear_admins_cancelled" validate:"required"`
	ClearCustomersPrompt    string `mapstructure:"clear_customers_prompt" validate:"required"`
	ClearCustomersDone      string `mapstructure:"clear_customers_done" validate:"required"`
	ClearCustomersError     string `mapstructure:"clear_customers_error" validate:"required"`
	ClearCustomersCancelled string `mapstructure:"clear_customers_cancelled" validate:"required"`

	ReportFmt         string `mapstructure:"report_fmt" validate:"required"`
	ReportGroupFmt    string `mapstructure:"report_group_fmt" validate:"required"`
	ReportError       string `mapstructure:"report_error" validate:"required"`
	NoAdmins          string `mapstructure:"no_admins" validate:"required"`
	AdminsHeader      string `mapstructure:"admins_header" validate:"required"`
	AdminEntryFmt     string `mapstructure:"admin_entry_fmt" validate:"required"`
	NoCustomers       string `mapstructure:"no_customers" validate:"required"`
	DetailedHeaderFmt string `mapstructure:"detailed_header_fmt" validate:"required"`
	DetailedEntryFmt  string `mapstructure:"detailed_entry_fmt" validate:"required"`
	DebugFmt          string `mapstructure:"debug_fmt" validate:"required"`
	DebugYes          string `mapstructure:"debug_yes" validate:"required"`
	DebugNo           string `mapstructure:"debug_no" validate:"required"`
	DebugError        string `mapstructure:"debug_error" validate:"required"`

	DigestDisabled   string `mapstructure:"digest_disabled" validate:"required"`
	DigestEmpty      string `mapstructure:"digest_empty" validate:"required"`
	DigestWorkingFmt string `mapstructure:"digest_working_fmt" validate:"required"`
	DigestFmt        string `mapstructure:"digest_fmt" validate:"required"`
	DigestError      string `mapstructure:"digest_error" validate:"required"`
}
