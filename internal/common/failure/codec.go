package failure

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when decoding an envelope whose type is not part
// of the taxonomy.
var ErrUnknownKind = errors.New("unknown failure kind")

// Envelope is the wire form of a Failure. Details holds the variant's fields.
type Envelope struct {
	Type    Kind            `json:"type"`
	Family  Family          `json:"family"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Encode wraps f into an Envelope.
func Encode(f Failure) (Envelope, error) {
	details, err := json.Marshal(f)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s details: %w", f.Kind(), err)
	}
	return Envelope{
		Type:    f.Kind(),
		Family:  f.Family(),
		Message: f.Error(),
		Details: details,
	}, nil
}

// Decode rebuilds the Failure carried by env.
func Decode(env Envelope) (Failure, error) {
	switch env.Type {
	case KindInvalidEmail:
		return decodeAs[InvalidEmail](env.Details)
	case KindInvalidAmount:
		return decodeAs[InvalidAmount](env.Details)
	case KindRequiredField:
		return decodeAs[RequiredField](env.Details)
	case KindInvalidFormat:
		return decodeAs[InvalidFormat](env.Details)
	case KindInvalidPassword:
		return decodeAs[InvalidPassword](env.Details)
	case KindPasswordMismatch:
		return decodeAs[PasswordMismatch](env.Details)
	case KindInvalidRange:
		return decodeAs[InvalidRange](env.Details)
	case KindNetworkError:
		return decodeAs[NetworkError](env.Details)
	case KindServerError:
		return decodeAs[ServerError](env.Details)
	case KindTimeoutError:
		return decodeAs[TimeoutError](env.Details)
	case KindUnauthorized:
		return decodeAs[Unauthorized](env.Details)
	case KindForbidden:
		return decodeAs[Forbidden](env.Details)
	case KindNotFound:
		return decodeAs[NotFound](env.Details)
	case KindConflict:
		return decodeAs[Conflict](env.Details)
	case KindRateLimitExceeded:
		return decodeAs[RateLimitExceeded](env.Details)
	case KindBadRequest:
		return decodeAs[BadRequest](env.Details)
	case KindInsufficientBalance:
		return decodeAs[InsufficientBalance](env.Details)
	case KindPaymentFailed:
		return decodeAs[PaymentFailed](env.Details)
	case KindTransactionLimitExceeded:
		return decodeAs[TransactionLimitExceeded](env.Details)
	case KindCampaignNotActive:
		return decodeAs[CampaignNotActive](env.Details)
	case KindDonationLimitExceeded:
		return decodeAs[DonationLimitExceeded](env.Details)
	case KindAccountSuspended:
		return decodeAs[AccountSuspended](env.Details)
	case KindKYCRequired:
		return decodeAs[KYCRequired](env.Details)
	case KindChargeMinimumNotMet:
		return decodeAs[ChargeMinimumNotMet](env.Details)
	case KindInvalidQRCode:
		return decodeAs[InvalidQRCode](env.Details)
	case KindTransferToSelf:
		return decodeAs[TransferToSelf](env.Details)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}

func decodeAs[F Failure](raw json.RawMessage) (Failure, error) {
	var f F
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal %s details: %w", f.Kind(), err)
	}
	return f, nil
}
