package config

import "time"

// Default values for scalar configuration keys.
const (
	DefaultLogLevel             = "info"
	DefaultDatabaseDriver       = "sqlite"
	DefaultDatabaseDSN          = "storage.db"
	DefaultSuperAdminID         = 641521378
	DefaultSuperAdminUsername   = "sarkis_20032"
	DefaultSessionTTL           = 24 * time.Hour
	DefaultBroadcastInterval    = 100 * time.Millisecond
	DefaultRecentCustomersLimit = 50
	DefaultEnvelopeRetention    = 30 * 24 * time.Hour
	DefaultDetailedReportLimit  = 50
	DefaultReportChunkSize      = 4000
	DefaultGeminiModel          = "gemini-2.0-flash"
	DefaultGeminiTemperature    = 0.4
	DefaultGeminiMaxRetries     = 2
	DefaultGeminiRetryDelay     = 2
	DefaultGeminiTimeout        = 2 * time.Minute
	DefaultGeminiSampleSize     = 50
)

// Scheduled task names.
const (
	SessionSweepTask   = "session_sweep"
	SQLMaintenanceTask = "sql_maintenance"
	EnvelopePruneTask  = "envelope_prune"
)

// Default returns a Config populated with every default value.
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{Level: DefaultLogLevel},
		Telegram: TelegramConfig{
			SuperAdminID:       DefaultSuperAdminID,
			SuperAdminUsername: DefaultSuperAdminUsername,
		},
		Database:  DatabaseConfig{Driver: DefaultDatabaseDriver, DSN: DefaultDatabaseDSN},
		Session:   SessionConfig{TTL: DefaultSessionTTL},
		Broadcast: BroadcastConfig{Interval: DefaultBroadcastInterval},
		Relay: RelayConfig{
			RecentCustomersLimit: DefaultRecentCustomersLimit,
			EnvelopeRetention:    DefaultEnvelopeRetention,
		},
		Report:    ReportConfig{DetailedLimit: DefaultDetailedReportLimit, ChunkSize: DefaultReportChunkSize},
		Gemini: GeminiConfig{
			ModelName:         DefaultGeminiModel,
			Temperature:       DefaultGeminiTemperature,
			MaxRetries:        DefaultGeminiMaxRetries,
			RetryDelaySeconds: DefaultGeminiRetryDelay,
			Timeout:           DefaultGeminiTimeout,
			SampleSize:        DefaultGeminiSampleSize,
			SystemInstruction: defaultDigestInstruction,
		},
		Scheduler: SchedulerConfig{
			Tasks: map[string]TaskConfig{
				SessionSweepTask:   {Enabled: true, Schedule: "0 */5 * * * *"},
				SQLMaintenanceTask: {Enabled: true, Schedule: "0 0 4 * * *"},
				EnvelopePruneTask:  {Enabled: true, Schedule: "0 30 3 * * *"},
			},
		},
		Survey: SurveyConfig{
			Yes:           "Да",
			No:            "Нет",
			GenderOptions: []string{"Мужской", "Женский"},
			AgeOptions:    []string{"До 22", "22-30", "Более 30"},
			VisitOptions:  []string{"До 3 раз", "3-8 раз", "Более 8 раз"},
		},
		Labels:   defaultLabels,
		Messages: defaultMessages,
	}
}

const defaultDigestInstruction = "Ты аналитик сети магазинов. Тебе дают ответы покупателей на три вопроса: " +
	"что им нравится, что не нравится и что бы они изменили. Составь краткую сводку на русском языке: " +
	"главные сильные стороны, главные жалобы и три самых частых предложения. Не выдумывай фактов, " +
	"опирайся только на ответы. Не используй markdown."

var defaultLabels = LabelsConfig{
	Report:         "📊 Отчёт по базе",
	ListAdmins:     "👥 Список админов",
	AddAdmin:       "➕ Добавить админа",
	ClearAdmins:    "🗑️ Очистить админов",
	ClearCustomers: "🧹 Очистить базу",
	Broadcast:      "📢 Сделать рассылку",
	ChatWithClient: "💬 Чат с клиентом",
	DetailedReport: "📋 Подробный отчёт",
	Digest:         "🧠 Сводка отзывов",
	Back:           "🔙 Назад",
	Cancel:         "❌ Отмена",
	EndChat:        "❌ Завершить чат",
	ConfirmClear:   "✅ Да, очистить",
	CancelClear:    "❌ Нет, отменить",
	CustomerFmt:    "%s (ID: %d)",
}

var defaultMessages = MessagesConfig{
	GeneralError: "⚠️ Произошла ошибка. Пожалуйста, попробуйте позже.",
	StepError:    "⚠️ Произошла ошибка. Пожалуйста, попробуйте снова.",

	Welcome: "Добрый день, меня зовут Давид👋 я владелец сети магазинов \"Дым\"💨\n" +
		"Рад знакомству😊\n\n" +
		"Я создал этого бота чтобы дать своим гостям самый лучший сервис и предложение😍\n\n" +
		"Вы хотите, чтобы мы стали лучше для вас?",
	RetakePrompt:      "Вы уже проходили анкету. Хотите пройти её ещё раз?",
	RetakeAdminPrompt: "Вы уже проходили анкету. Хотите пройти её ещё раз?\nИли перейти в админ-панель: /admin",
	Declined:          "Спасибо за ваше время! Возвращайтесь, когда будете готовы помочь.",
	HelpPrompt: "Отлично✨\nТут я буду публиковать интересные предложения, розыгрыши и подарки 🎁\n\n" +
		"Но самое главное, мы хотим улучшить качество нашей работы\n\n" +
		"Сможете нам помочь, ответив на 3 вопроса?",
	AppreciatePrompt: "Благодарим за помощь🤝\nПодскажите, какие 2 вещи в наших магазинах вы цените больше всего?😍",
	DislikePrompt:    "Хорошо😊\nИ еще пару вещей которые вам больше всего НЕ нравятся?👿",
	ImprovePrompt:    "Отлично и последний вопрос)\nЧто бы вы изменили будучи на моем месте что бы стать лучше?",
	GenderPrompt: "Спасибо огромное за помощь😊\n" +
		"Я учту ваши пожелания и постараюсь приложить усилия что бы это исправить\n\n" +
		"Если не сложно подскажите ваш пол:",
	AgePrompt:      "Ваша возрастная группа:",
	VisitPrompt:    "Как часто вы нас посещаете?",
	GenderRejected: "Пожалуйста, выберите пол из предложенных вариантов.",
	AgeRejected:    "Пожалуйста, выберите возраст из предложенных вариантов.",
	VisitRejected:  "Пожалуйста, выберите вариант из предложенных.",
	SurveyNotificationFmt: "📝 Новая анкета:\n\n" +
		"👤 Пользователь: @%s (%s)\n" +
		"🆔 ID: %d\n" +
		"👍 Что нравится: %s\n" +
		"👎 Что не нравятся: %s\n" +
		"💡 Предложения: %s\n" +
		"🧑‍🤝‍🧑 Пол: %s\n" +
		"📊 Возраст: %s\n" +
		"🛒 Частота посещений: %s",
	Closing: "Благодарю за ваши ответы! 🙏\n\n" +
		"📞 Мой номер телефона: 8-918-5567-53-33\n\n" +
		"Вы можете:\n" +
		"1. Позвонить мне напрямую\n" +
		"2. Написать в WhatsApp или Telegram\n" +
		"3. Отправить сообщение прямо здесь в чате - я отвечу лично\n\n" +
		"Также вы можете присоединиться к нашему чату для обсуждения ассортимента, цен и новостей:\n" +
		"👉 https://t.me/+BR14rdoGA91mZjdi",
	ClosingAdminSuffix: "\n\nВы можете перейти в админ-панель: /admin",
	NoUsername:         "без username",
	NoName:             "без имени",
	Unknown:            "неизвестно",

	NotAdmin:                "⛔ У вас нет прав администратора",
	PrivateOnly:             "🔒 Админ-панель доступна только в личных сообщениях",
	AdminPanel:              "👨‍💻 Админ-панель:",
	AdminPanelError:         "⚠️ Ошибка доступа к админ-панели",
	MainMenu:                "Главное меню админ-панели:",
	ActionCancelled:         "Действие отменено",
	InsufficientRights:      "⛔ У вас недостаточно прав для этой операции",
	InsufficientRightsAlert: "⛔ У вас недостаточно прав",
	SelectionExpired:        "⌛ Этот запрос устарел. Откройте меню ещё раз.",

	EnvelopeFmt: "✉️ Новое сообщение от клиента:\n" +
		"👤 Имя: %s\n" +
		"📌 Username: @%s\n" +
		"🆔 ID: %d\n\n" +
		"📩 Текст сообщения:\n%s",
	EnvelopeHeader:   "Новое сообщение от клиента",
	EnvelopeIDMarker: "🆔 ID:",
	CustomerAck: "✅ Ваше сообщение отправлено администраторам. " +
		"Мы ответим вам в ближайшее время.\n\n" +
		"Вы можете продолжить общение прямо здесь.",
	CustomerForwardError: "⚠️ Произошла ошибка при отправке сообщения.",
	AdminReplyFmt:        "📨 Ответ от администратора:\n\n%s",
	ReplyDelivered:       "✅ Ваш ответ отправлен клиенту",
	ReplyMalformed:       "❌ Не удалось определить ID клиента",
	ReplyFailed:          "⚠️ Ошибка отправки ответа клиенту",
	AdminHint: "Вы можете ответить клиенту:\n" +
		"1. Ответьте на пересланное сообщение клиента\n" +
		"2. Используйте команду /admin и выберите '💬 Чат с клиентом'\n" +
		"3. Перешлите мне сообщение клиента и напишите ответ",
	NoCustomersForChat: "Нет клиентов для чата",
	ChooseCustomer:     "Выберите клиента для чата:",
	ChatStartedFmt: "💬 Вы начали чат с клиентом ID: %d\n" +
		"Теперь все ваши сообщения будут пересылаться этому клиенту.\n" +
		"Для завершения чата нажмите кнопку ниже.",
	ChatSelectCancelled: "❌ Выбор чата отменён",
	ChatEnded:           "Чат с клиентом завершён",
	AdminMessageFmt:     "📨 Сообщение от администратора:\n\n%s",
	ChatDelivered:       "✅ Сообщение отправлено клиенту",
	ChatFailed:          "❌ Не удалось отправить сообщение клиенту",

	BroadcastPrompt:    "Введите сообщение для рассылки всем клиентам:",
	BroadcastCancelled: "Рассылка отменена",
	BroadcastStartFmt:  "⏳ Начинаю рассылку для %d клиентов...",
	CampaignFmt:        "📢 Важное сообщение от сети магазинов 'Дым':\n\n%s",
	BroadcastReportFmt: "✅ Рассылка завершена:\n• Успешно: %d\n• Не удалось: %d\n• Всего: %d",
	BroadcastNoticeFmt: "Администратор @%s выполнил рассылку:\n\n%s\n\n%s",
	BroadcastError:     "⚠️ Произошла ошибка при рассылке",

	AddAdminPrompt:    "Введите ID пользователя, которого хотите сделать админом:",
	AddAdminInvalidID: "Некорректный ID. Введите числовой ID пользователя:",
	AddAdminDuplicate: "Этот пользователь уже является админом",
	AddAdminDoneFmt:   "✅ Пользователь @%s добавлен как админ\nЕму отправлено сообщение с инструкциями и ограничениями",
	AddAdminError:     "⚠️ Ошибка добавления админа. Попробуйте снова.",
	AdminOnboarding: "🎉 Поздравляем! Вас назначили администратором бота сети магазинов 'Дым'.\n\n" +
		"📌 Ваши новые возможности:\n" +
		"- Доступ к админ-панели (/admin)\n" +
		"- Просмотр статистики и анкет\n" +
		"- Общение с клиентами\n" +
		"- Рассылка сообщений\n\n" +
		"📌 Ограничения:\n" +
		"- Вы не можете удалять других администраторов\n" +
		"- Очистка базы админов доступна только главному администратору\n\n" +
		"📌 Основные обязанности:\n" +
		"- Вежливое общение с клиентами\n" +
		"- Своевременное рассмотрение анкет\n" +
		"- Помощь в решении проблем\n\n" +
		"По всем вопросам обращайтесь к @sarkis_20032",
	NewAdminNoticeFmt: "👨‍💻 Новый администратор:\n\n" +
		"🆔 ID: %d\n" +
		"👤 Имя: %s\n" +
		"📛 @%s\n" +
		"➕ Добавил: @%s (ID: %d)\n\n" +
		"ℹ️ Новый админ не имеет прав на удаление других администраторов",

	ClearAdminsPrompt: "⚠️ Вы уверены, что хотите очистить базу админов?\n" +
		"Это действие нельзя отменить! Все админы (кроме вас) будут удалены.\n" +
		"Вы останетесь единственным администратором.",
	ClearAdminsDone:      "✅ База админов очищена. Вы остались единственным администратором.",
	ClearAdminsError:     "⚠️ Ошибка очистки базы админов",
	ClearAdminsCancelled: "❌ Очистка базы админов отменена",
	ClearCustomersPrompt: "⚠️ Вы уверены, что хотите очистить базу клиентов?\n" +
		"Это действие нельзя отменить! Все данные клиентов будут удалены.",
	ClearCustomersDone:      "✅ База клиентов очищена",
	ClearCustomersError:     "⚠️ Ошибка очистки базы",
	ClearCustomersCancelled: "❌ Очистка базы отменена",

	ReportFmt: "📊 Отчёт по базе:\n" +
		"👥 Всего клиентов: %d\n" +
		"👨‍💻 Всего админов: %d\n" +
		"📅 Первая анкета: %s\n" +
		"📅 Последняя анкета: %s\n\n" +
		"📈 Статистика по клиентам:\n",
	ReportGroupFmt:    "• %s, %s, посещает %s: %d чел.\n",
	ReportError:       "⚠️ Ошибка формирования отчёта",
	NoAdmins:          "Нет зарегистрированных админов",
	AdminsHeader:      "👨‍💻 Список админов:\n\n",
	AdminEntryFmt:     "🆔 ID: %d\n👤 @%s\n➕ Добавил: @%s\n📅 Дата: %s\n\n",
	NoCustomers:       "В базе нет клиентов",
	DetailedHeaderFmt: "📋 Подробный отчёт по клиентам (последние %d)\n",
	DetailedEntryFmt: "👤 %s (@%s)\n" +
		"🆔 ID: %d\n" +
		"📅 Дата: %s\n" +
		"🧑‍🤝‍🧑 Пол: %s\n" +
		"📊 Возраст: %s\n" +
		"🛒 Посещения: %s\n" +
		"👍 Нравится: %s\n" +
		"👎 Не нравится: %s\n" +
		"💡 Предложения: %s\n" +
		"========================================",
	DebugFmt: "🔧 Debug информация:\n" +
		"🆔 Ваш ID: %d\n" +
		"👨‍💻 Вы админ: %s\n" +
		"👑 Вы суперадмин: %s\n" +
		"📊 Данные в таблице админов: %s\n" +
		"📝 Данные в таблице клиентов: %s\n\n" +
		"ℹ️ Для доступа к админ-панели используйте /admin",
	DebugYes:   "✅ Да",
	DebugNo:    "❌ Нет",
	DebugError: "⚠️ Ошибка получения debug информации",

	DigestDisabled:   "🧠 Сводка отзывов недоступна: не настроен ключ Gemini",
	DigestEmpty:      "В базе нет отзывов для сводки",
	DigestWorkingFmt: "⏳ Готовлю сводку по последним %d анкетам...",
	DigestFmt:        "🧠 Сводка отзывов (анкет: %d):\n\n%s",
	DigestError:      "⚠️ Не удалось подготовить сводку отзывов",
}
