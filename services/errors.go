package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrNotFound        = errors.New("requested resource not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrCoupleNotFound  = errors.New("couple not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrRequestNotFound = errors.New("partnership request not found")

	// Ошибки валидации (клиент должен исправить ввод, повтор бессмысленен)
	ErrValidationFailed = errors.New("validation failed")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrNameRequired     = errors.New("name is required")
	ErrDuplicatePlayer  = errors.New("duplicate player: a player cannot fill two match slots")
	ErrNegativeScore    = errors.New("scores must be non-negative")
	ErrTiedScore        = errors.New("a match cannot end in a tie")
	ErrSelfPartnership  = errors.New("cannot request a partnership with yourself")
	ErrUnknownAttendee  = errors.New("attendance list contains an unknown user")

	// Ошибки доступности игрока (нужно выбрать другой состав)
	ErrPlayerNotApproved    = errors.New("player is not an approved member")
	ErrPlayerNotPresent     = errors.New("player is not marked present today")
	ErrPlayerInOngoingMatch = errors.New("player is already in an ongoing match")
	ErrPlayerAlreadyPaired  = errors.New("player already belongs to an active couple")

	// Недопустимое состояние (stale-клиент, повтор не поможет)
	ErrMatchAlreadyCompleted = errors.New("match is already completed")

	// Конфликты
	ErrRequestAlreadyExists = errors.New("a partnership request between these players already exists")

	// Аутентификация и авторизация
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email address is already in use")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrUserNotPending         = errors.New("user is not awaiting approval")

	// Загрузка аватаров
	ErrAvatarUploadsDisabled  = errors.New("avatar uploads are not configured")
	ErrUnsupportedContentType = errors.New("unsupported avatar content type")
)
