package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Account errors
	ErrCodeRegistrationFailed  = "registration_failed"
	ErrCodeLoginFailed         = "login_failed"
	ErrCodeGuestCreationFailed = "guest_creation_failed"
	ErrCodeConversionFailed    = "conversion_failed"
	ErrCodeRefreshFailed       = "refresh_failed"
	ErrCodeUsernameTaken       = "username_taken"

	// Room errors
	ErrCodeRoomCreationFailed = "room_creation_failed"
	ErrCodeRoomNotFound       = "room_not_found"
	ErrCodeRoomUnavailable    = "room_unavailable"
	ErrCodeRoomFull           = "room_full"
	ErrCodeAlreadyInRoom      = "already_in_room"
	ErrCodeInvalidRoomCode    = "invalid_room_code"
	ErrCodeJoinFailed         = "join_failed"
	ErrCodeLeaveFailed        = "leave_failed"

	// Run errors
	ErrCodeNoActiveRun     = "no_active_run"
	ErrCodeInvalidGuess    = "invalid_guess"
	ErrCodeWordNotAllowed  = "word_not_allowed"
	ErrCodeDuplicateGuess  = "duplicate_guess"
	ErrCodeNotYourTurn     = "not_your_turn"
	ErrCodeRunNotReady     = "run_not_ready"
	ErrCodeStateCorruption = "state_corruption"
	ErrCodeSubmitFailed    = "submit_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// OAuth errors
	ErrCodeOAuthNotConfigured  = "oauth_not_configured"
	ErrCodeOAuthStartFailed    = "oauth_start_failed"
	ErrCodeOAuthCallbackFailed = "oauth_callback_failed"
	ErrCodeOAuthMissingCode    = "missing_code"
	ErrCodeOAuthInvalidState   = "invalid_state"
	ErrCodeUserCreationFailed  = "user_creation_failed"

	// Records errors
	ErrCodeRecordsFetchFailed = "records_fetch_failed"
)
