package failure

import "net/http"

// HTTPStatus returns the status code an API should answer with for f.
func HTTPStatus(f Failure) int {
	return Fold[int](f, statusMapper{})
}

type statusMapper struct{}

func (statusMapper) InvalidEmail(InvalidEmail) int         { return http.StatusBadRequest }
func (statusMapper) InvalidAmount(InvalidAmount) int       { return http.StatusBadRequest }
func (statusMapper) RequiredField(RequiredField) int       { return http.StatusBadRequest }
func (statusMapper) InvalidFormat(InvalidFormat) int       { return http.StatusBadRequest }
func (statusMapper) InvalidPassword(InvalidPassword) int   { return http.StatusBadRequest }
func (statusMapper) PasswordMismatch(PasswordMismatch) int { return http.StatusBadRequest }
func (statusMapper) InvalidRange(InvalidRange) int         { return http.StatusBadRequest }

func (statusMapper) NetworkError(NetworkError) int { return http.StatusBadGateway }
func (statusMapper) ServerError(f ServerError) int {
	if f.StatusCode >= http.StatusInternalServerError {
		return f.StatusCode
	}
	return http.StatusInternalServerError
}
func (statusMapper) TimeoutError(TimeoutError) int           { return http.StatusGatewayTimeout }
func (statusMapper) Unauthorized(Unauthorized) int           { return http.StatusUnauthorized }
func (statusMapper) Forbidden(Forbidden) int                 { return http.StatusForbidden }
func (statusMapper) NotFound(NotFound) int                   { return http.StatusNotFound }
func (statusMapper) Conflict(Conflict) int                   { return http.StatusConflict }
func (statusMapper) RateLimitExceeded(RateLimitExceeded) int { return http.StatusTooManyRequests }
func (statusMapper) BadRequest(BadRequest) int               { return http.StatusBadRequest }

func (statusMapper) InsufficientBalance(InsufficientBalance) int {
	return http.StatusUnprocessableEntity
}
func (statusMapper) PaymentFailed(PaymentFailed) int { return http.StatusUnprocessableEntity }
func (statusMapper) TransactionLimitExceeded(TransactionLimitExceeded) int {
	return http.StatusUnprocessableEntity
}
func (statusMapper) CampaignNotActive(CampaignNotActive) int { return http.StatusConflict }
func (statusMapper) DonationLimitExceeded(DonationLimitExceeded) int {
	return http.StatusUnprocessableEntity
}
func (statusMapper) AccountSuspended(AccountSuspended) int { return http.StatusForbidden }
func (statusMapper) KYCRequired(KYCRequired) int           { return http.StatusForbidden }
func (statusMapper) ChargeMinimumNotMet(ChargeMinimumNotMet) int {
	return http.StatusUnprocessableEntity
}
func (statusMapper) InvalidQRCode(InvalidQRCode) int   { return http.StatusBadRequest }
func (statusMapper) TransferToSelf(TransferToSelf) int { return http.StatusUnprocessableEntity }
