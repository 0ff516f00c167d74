// Package failure defines the closed failure taxonomy used as the single error
// currency of the wallet core.
//
// Every variant is a plain struct implementing Failure. The interface is sealed
// by an unexported method, so no package outside this one can add variants.
// Code that derives a message, severity or status from a Failure implements
// Handler[R] and dispatches with Fold: adding a variant adds a method to
// Handler[R], and every mapping that does not handle it stops compiling.
package failure

// Kind is the discriminant string that uniquely identifies a variant.
type Kind string

// Validation family.
const (
	KindInvalidEmail     Kind = "INVALID_EMAIL"
	KindInvalidAmount    Kind = "INVALID_AMOUNT"
	KindRequiredField    Kind = "REQUIRED_FIELD"
	KindInvalidFormat    Kind = "INVALID_FORMAT"
	KindInvalidPassword  Kind = "INVALID_PASSWORD"
	KindPasswordMismatch Kind = "PASSWORD_MISMATCH"
	KindInvalidRange     Kind = "INVALID_RANGE"
)

// Transport family.
const (
	KindNetworkError      Kind = "NETWORK_ERROR"
	KindServerError       Kind = "SERVER_ERROR"
	KindTimeoutError      Kind = "TIMEOUT_ERROR"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindRateLimitExceeded Kind = "RATE_LIMIT_EXCEEDED"
	KindBadRequest        Kind = "BAD_REQUEST"
)

// Business family.
const (
	KindInsufficientBalance      Kind = "INSUFFICIENT_BALANCE"
	KindPaymentFailed            Kind = "PAYMENT_FAILED"
	KindTransactionLimitExceeded Kind = "TRANSACTION_LIMIT_EXCEEDED"
	KindCampaignNotActive        Kind = "CAMPAIGN_NOT_ACTIVE"
	KindDonationLimitExceeded    Kind = "DONATION_LIMIT_EXCEEDED"
	KindAccountSuspended         Kind = "ACCOUNT_SUSPENDED"
	KindKYCRequired              Kind = "KYC_REQUIRED"
	KindChargeMinimumNotMet      Kind = "CHARGE_MINIMUM_NOT_MET"
	KindInvalidQRCode            Kind = "INVALID_QR_CODE"
	KindTransferToSelf           Kind = "TRANSFER_TO_SELF"
)

// AllKinds returns every variant discriminant in declaration order.
func AllKinds() []Kind {
	return []Kind{
		KindInvalidEmail, KindInvalidAmount, KindRequiredField, KindInvalidFormat,
		KindInvalidPassword, KindPasswordMismatch, KindInvalidRange,
		KindNetworkError, KindServerError, KindTimeoutError, KindUnauthorized,
		KindForbidden, KindNotFound, KindConflict, KindRateLimitExceeded, KindBadRequest,
		KindInsufficientBalance, KindPaymentFailed, KindTransactionLimitExceeded,
		KindCampaignNotActive, KindDonationLimitExceeded, KindAccountSuspended,
		KindKYCRequired, KindChargeMinimumNotMet, KindInvalidQRCode, KindTransferToSelf,
	}
}

// Retryable reports whether an operation that failed with this kind may
// succeed when repeated unchanged.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetworkError, KindTimeoutError, KindServerError, KindConflict, KindRateLimitExceeded:
		return true
	default:
		return false
	}
}

// String returns the discriminant.
func (k Kind) String() string {
	return string(k)
}

// Family groups variants by origin.
type Family string

const (
	FamilyValidation Family = "validation"
	FamilyTransport  Family = "api"
	FamilyBusiness   Family = "business"
)

// Failure is implemented by every variant of the taxonomy.
type Failure interface {
	error
	Kind() Kind
	Family() Family
	accept(v visitor)
}

type validation struct{}

func (validation) Family() Family { return FamilyValidation }

type transport struct{}

func (transport) Family() Family { return FamilyTransport }

type business struct{}

func (business) Family() Family { return FamilyBusiness }

// Handler maps every variant to a value of type R.
type Handler[R any] interface {
	InvalidEmail(InvalidEmail) R
	InvalidAmount(InvalidAmount) R
	RequiredField(RequiredField) R
	InvalidFormat(InvalidFormat) R
	InvalidPassword(InvalidPassword) R
	PasswordMismatch(PasswordMismatch) R
	InvalidRange(InvalidRange) R

	NetworkError(NetworkError) R
	ServerError(ServerError) R
	TimeoutError(TimeoutError) R
	Unauthorized(Unauthorized) R
	Forbidden(Forbidden) R
	NotFound(NotFound) R
	Conflict(Conflict) R
	RateLimitExceeded(RateLimitExceeded) R
	BadRequest(BadRequest) R

	InsufficientBalance(InsufficientBalance) R
	PaymentFailed(PaymentFailed) R
	TransactionLimitExceeded(TransactionLimitExceeded) R
	CampaignNotActive(CampaignNotActive) R
	DonationLimitExceeded(DonationLimitExceeded) R
	AccountSuspended(AccountSuspended) R
	KYCRequired(KYCRequired) R
	ChargeMinimumNotMet(ChargeMinimumNotMet) R
	InvalidQRCode(InvalidQRCode) R
	TransferToSelf(TransferToSelf) R
}

// Fold dispatches f to the matching Handler method.
func Fold[R any](f Failure, h Handler[R]) R {
	fd := &folder[R]{h: h}
	f.accept(fd)
	return fd.out
}

type visitor interface {
	invalidEmail(InvalidEmail)
	invalidAmount(InvalidAmount)
	requiredField(RequiredField)
	invalidFormat(InvalidFormat)
	invalidPassword(InvalidPassword)
	passwordMismatch(PasswordMismatch)
	invalidRange(InvalidRange)

	networkError(NetworkError)
	serverError(ServerError)
	timeoutError(TimeoutError)
	unauthorized(Unauthorized)
	forbidden(Forbidden)
	notFound(NotFound)
	conflict(Conflict)
	rateLimitExceeded(RateLimitExceeded)
	badRequest(BadRequest)

	insufficientBalance(InsufficientBalance)
	paymentFailed(PaymentFailed)
	transactionLimitExceeded(TransactionLimitExceeded)
	campaignNotActive(CampaignNotActive)
	donationLimitExceeded(DonationLimitExceeded)
	accountSuspended(AccountSuspended)
	kycRequired(KYCRequired)
	chargeMinimumNotMet(ChargeMinimumNotMet)
	invalidQRCode(InvalidQRCode)
	transferToSelf(TransferToSelf)
}

type folder[R any] struct {
	h   Handler[R]
	out R
}

func (f *folder[R]) invalidEmail(v InvalidEmail)         { f.out = f.h.InvalidEmail(v) }
func (f *folder[R]) invalidAmount(v InvalidAmount)       { f.out = f.h.InvalidAmount(v) }
func (f *folder[R]) requiredField(v RequiredField)       { f.out = f.h.RequiredField(v) }
func (f *folder[R]) invalidFormat(v InvalidFormat)       { f.out = f.h.InvalidFormat(v) }
func (f *folder[R]) invalidPassword(v InvalidPassword)   { f.out = f.h.InvalidPassword(v) }
func (f *folder[R]) passwordMismatch(v PasswordMismatch) { f.out = f.h.PasswordMismatch(v) }
func (f *folder[R]) invalidRange(v InvalidRange)         { f.out = f.h.InvalidRange(v) }

func (f *folder[R]) networkError(v NetworkError)           { f.out = f.h.NetworkError(v) }
func (f *folder[R]) serverError(v ServerError)             { f.out = f.h.ServerError(v) }
func (f *folder[R]) timeoutError(v TimeoutError)           { f.out = f.h.TimeoutError(v) }
func (f *folder[R]) unauthorized(v Unauthorized)           { f.out = f.h.Unauthorized(v) }
func (f *folder[R]) forbidden(v Forbidden)                 { f.out = f.h.Forbidden(v) }
func (f *folder[R]) notFound(v NotFound)                   { f.out = f.h.NotFound(v) }
func (f *folder[R]) conflict(v Conflict)                   { f.out = f.h.Conflict(v) }
func (f *folder[R]) rateLimitExceeded(v RateLimitExceeded) { f.out = f.h.RateLimitExceeded(v) }
func (f *folder[R]) badRequest(v BadRequest)               { f.out = f.h.BadRequest(v) }

func (f *folder[R]) insufficientBalance(v InsufficientBalance) { f.out = f.h.InsufficientBalance(v) }
func (f *folder[R]) paymentFailed(v PaymentFailed)             { f.out = f.h.PaymentFailed(v) }
func (f *folder[R]) transactionLimitExceeded(v TransactionLimitExceeded) {
	f.out = f.h.TransactionLimitExceeded(v)
}
func (f *folder[R]) campaignNotActive(v CampaignNotActive) { f.out = f.h.CampaignNotActive(v) }
func (f *folder[R]) donationLimitExceeded(v DonationLimitExceeded) {
	f.out = f.h.DonationLimitExceeded(v)
}
func (f *folder[R]) accountSuspended(v AccountSuspended)       { f.out = f.h.AccountSuspended(v) }
func (f *folder[R]) kycRequired(v KYCRequired)                 { f.out = f.h.KYCRequired(v) }
func (f *folder[R]) chargeMinimumNotMet(v ChargeMinimumNotMet) { f.out = f.h.ChargeMinimumNotMet(v) }
func (f *folder[R]) invalidQRCode(v InvalidQRCode)             { f.out = f.h.InvalidQRCode(v) }
func (f *folder[R]) transferToSelf(v TransferToSelf)           { f.out = f.h.TransferToSelf(v) }
