package protocol

// Numeric reply codes. Legacy game clients match on the exact values, so
// these must never change.
const (
	RplListStart   = 321
	RplEndOfList   = 323
	RplListGame    = 326
	RplList        = 327
	RplCodepage    = 328
	RplCodepageSet = 329
	RplTopic       = 332
	RplNamReply    = 353
	RplEndOfNames  = 366
	RplMotd        = 372
	RplMotdStart   = 375
	RplEndOfMotd   = 376

	ErrNoSuchNick        = 401
	ErrNoSuchChannel     = 403
	ErrUserNotInChannel  = 441
	ErrNotOnChannel      = 442
	ErrNeedMoreParams    = 461
	ErrAlreadyRegistered = 462
	ErrPasswdMismatch    = 464
	ErrChannelIsFull     = 471
	ErrBannedFromChan    = 474
	ErrBadChannelKey     = 475
)
