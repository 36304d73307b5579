package bot

import (
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"

	"github.com/npek/portal/internal/user"
)

const (
	ButtonBack         = "◀️ Назад"
	ButtonCancel       = "◀️ Отмена"
	ButtonTeacher      = "👨‍🏫 Учитель"
	ButtonStudentAdmin = "👤 Ученик-админ"
	ButtonProfile      = "👤 Профиль"
)

const (
	textWelcome = "👋 Привет! Добро пожаловать в систему профилей НПЭК!\n\n" +
		"Для регистрации выбери свою группу из списка ниже:"
	textHelp = "📖 Команды бота:\n\n" +
		"/start - Регистрация или проверка профиля\n" +
		"/help - Помощь\n\n" +
		"Для входа на сайт используй систему авторизации через выбор группы и имени."
	textAskName = "Теперь введи своё ФИО (Фамилия Имя Отчество) через пробел.\n" +
		"Например: Иванов Иван Иванович\n\n" +
		"Если нет отчества, просто напиши Фамилию и Имя."
	textTeacherName = "👨‍🏫 Регистрация учителя\n\n" +
		"Введи своё ФИО (Фамилия Имя Отчество) через пробел.\n" +
		"Например: Иванов Иван Иванович\n\n" +
		"Если нет отчества, просто напиши Фамилию и Имя."
	textRequestSent = "✅ Заявка отправлена!\n\n" +
		"Попроси код подтверждения у главного админа и введи его здесь.\n\n" +
		"Код состоит из 6 цифр."
	textRegisterFailed = "❌ Произошла ошибка при регистрации. Попробуй еще раз или обратись к администратору.\n\n" +
		"Используй /start для проверки."

	textCancelled          = "❌ Регистрация отменена."
	textCancelledStart     = "❌ Регистрация отменена.\n\nИспользуй /start для начала регистрации."
	textPickGroup          = "❌ Пожалуйста, выбери группу из списка кнопок ниже:"
	textChooseGroup        = "Выбери свою группу из списка ниже:"
	textGroupChosen        = "✅ Группа выбрана!\n\n" + textAskName
	textNameTooShort       = "❌ Введи минимум Фамилию и Имя через пробел.\nНапример: Иванов Иван"
	textAlreadyRegistered  = "❌ Ты уже зарегистрирован в системе!\nИспользуй /start для просмотра профиля."
	textPassphraseAccepted = "🔑 Пароль принят!\n\nВыбери тип аккаунта:"
	textChooseRole         = "Выбери тип аккаунта:"
	textPickRole           = "❌ Выбери один из вариантов:"
	textAdminGroup         = "👤 Регистрация ученика-админа\n\nВыбери свою группу из списка ниже:"
	textRequestFailed      = "❌ Ошибка отправки заявки. Попробуй позже или обратись к администратору."
	textCodeFormat         = "❌ Код должен состоять из 6 цифр. Попробуй еще раз."
	textWrongCode          = "❌ Неверный код подтверждения. Попробуй еще раз или обратись к администратору."
	textNoRequest          = "❌ Заявка не найдена.\n\nИспользуй /start для начала регистрации."
	textNotRegistered      = "❌ Ты еще не зарегистрирован!\n\nИспользуй /start для регистрации."
	textTryLater           = "❌ Что-то пошло не так. Попробуй позже."
)

func groupsKeyboard() *Keyboard {
	rows := make([][]string, 0, len(user.Groups)/2+2)
	for i := 0; i < len(user.Groups); i += 2 {
		end := min(i+2, len(user.Groups))
		rows = append(rows, append([]string(nil), user.Groups[i:end]...))
	}
	rows = append(rows, []string{ButtonBack})
	return &Keyboard{Rows: rows}
}

func roleKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{{ButtonTeacher}, {ButtonStudentAdmin}, {ButtonCancel}}}
}

func backKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{{ButtonBack}}}
}

func cancelKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{{ButtonCancel}}}
}

func profileKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{{ButtonProfile}}}
}

func removeKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

func greeting(u *user.User, loginURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👋 Привет, %s!\n\nТы уже зарегистрирован.\n", u.FirstName)
	switch {
	case u.IsTeacher():
		b.WriteString("Роль: Учитель\n")
	case u.IsAdmin:
		fmt.Fprintf(&b, "Роль: Администратор\nГруппа: %s\n", u.GroupName)
	default:
		fmt.Fprintf(&b, "Группа: %s\n", u.GroupName)
	}
	fmt.Fprintf(&b, "ФИО: %s\n\nДля входа на сайт перейди по ссылке:\n👉 %s", u.FullName(), loginURL)
	return b.String()
}

func registeredText(u *user.User, loginURL string) string {
	return fmt.Sprintf("✅ Регистрация завершена!\n\n👤 %s\n🎓 Группа: %s\n\n"+
		"Для входа на сайт перейди по ссылке:\n👉 %s\n\nИспользуй /start для проверки.",
		u.FullName(), u.GroupName, loginURL)
}

func confirmedText(u *user.User, loginURL string) string {
	if u.IsTeacher() {
		return fmt.Sprintf("✅ Регистрация подтверждена!\n\nТы зарегистрирован как учитель.\n\n"+
			"🌐 Войти на сайт:\n%s\n\nИспользуй /start для просмотра профиля.", loginURL)
	}
	return fmt.Sprintf("✅ Регистрация подтверждена!\n\nТы зарегистрирован как ученик-администратор.\n\n"+
		"🌐 Войти на сайт:\n%s\n\n(вход через обычную систему для учеников)\n\n"+
		"Используй /start для просмотра профиля.", loginURL)
}

func requestNotice(p *user.PendingRegistration) string {
	role := ButtonStudentAdmin
	if p.Role == user.RoleTeacher {
		role = ButtonTeacher
	}
	group := ""
	if p.GroupName != "" {
		group = "\n👥 Группа: " + p.GroupName
	}
	username := p.TelegramUsername
	if username == "" {
		username = "нет"
	}
	return fmt.Sprintf("🔔 Новая заявка на регистрацию!\n\n"+
		"Тип: %s\n👤 ФИО: %s%s\n🆔 Telegram ID: %d\n📱 Username: @%s\n\n"+
		"🔑 Код подтверждения: %s\n\nДля подтверждения отправь этот код пользователю.",
		role, p.FullName(), group, p.TelegramID, username, p.ConfirmationCode)
}

func confirmedNotice(u *user.User) string {
	role := "ученика-админа"
	if u.IsTeacher() {
		role = "учителя"
	}
	return fmt.Sprintf("✅ Регистрация подтверждена!\n\nТип: %s\n👤 %s\n🆔 ID: %d",
		role, u.FullName(), u.TelegramID)
}

// profileText is MarkdownV2; every stored value is escaped.
func profileText(u *user.User, loginURL string) string {
	var b strings.Builder
	b.WriteString("👤 *Мой профиль*\n\n")
	fmt.Fprintf(&b, "🆔 ID: `%d`\n", u.TelegramID)
	if u.TelegramUsername != "" {
		fmt.Fprintf(&b, "📱 Username: @%s\n", tgbot.EscapeMarkdown(u.TelegramUsername))
	}
	if u.TelegramName != "" {
		fmt.Fprintf(&b, "✏️ Имя в Telegram: %s\n", tgbot.EscapeMarkdown(u.TelegramName))
	}

	switch {
	case u.IsTeacher():
		b.WriteString("\n👨‍🏫 *Данные учителя:*\n")
	case u.IsAdmin:
		b.WriteString("\n👑 *Данные администратора:*\n")
	default:
		b.WriteString("\n👨‍🎓 *Данные студента:*\n")
	}

	fmt.Fprintf(&b, "📝 Фамилия: %s\n", tgbot.EscapeMarkdown(u.LastName))
	fmt.Fprintf(&b, "📝 Имя: %s\n", tgbot.EscapeMarkdown(u.FirstName))
	if u.MiddleName != "" {
		fmt.Fprintf(&b, "📝 Отчество: %s\n", tgbot.EscapeMarkdown(u.MiddleName))
	}
	if u.GroupName != "" {
		fmt.Fprintf(&b, "🎓 Группа: *%s*\n", tgbot.EscapeMarkdown(u.GroupName))
	}

	switch {
	case u.IsAdmin:
		b.WriteString("💼 Статус: *Администратор*\n")
	case u.IsTeacher():
		b.WriteString("💼 Статус: *Учитель*\n")
	}
	if u.HasPremium {
		b.WriteString("\n⭐ Telegram Premium\n")
	}

	fmt.Fprintf(&b, "\n🌐 Войти на сайт:\n%s", tgbot.EscapeMarkdown(loginURL))
	return b.String()
}
