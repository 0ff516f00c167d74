// Package notification turns failures into user notifications and keeps the
// transient queue the client renders.
package notification

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
)

// Severity orders notifications by urgency.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AggregateCriticalDuration is how long a combined notification containing a
// critical failure stays on screen.
const AggregateCriticalDuration = 15 * time.Second

// Spec is everything the client needs to render a notification.
type Spec struct {
	Kind      failure.Kind
	Title     string
	Message   string
	Severity  Severity
	Duration  time.Duration
	Retryable bool
}

type specJSON struct {
	Kind       failure.Kind `json:"kind,omitempty"`
	Title      string       `json:"title"`
	Message    string       `json:"message"`
	Severity   Severity     `json:"severity"`
	DurationMs int64        `json:"duration_ms"`
	Retryable  bool         `json:"retryable"`
}

// MarshalJSON encodes the duration in milliseconds.
func (s Spec) MarshalJSON() ([]byte, error) {
	return json.Marshal(specJSON{
		Kind:       s.Kind,
		Title:      s.Title,
		Message:    s.Message,
		Severity:   s.Severity,
		DurationMs: s.Duration.Milliseconds(),
		Retryable:  s.Retryable,
	})
}

// UnmarshalJSON decodes a spec produced by MarshalJSON.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var j specJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*s = Spec{
		Kind:      j.Kind,
		Title:     j.Title,
		Message:   j.Message,
		Severity:  j.Severity,
		Duration:  time.Duration(j.DurationMs) * time.Millisecond,
		Retryable: j.Retryable,
	}
	return nil
}

// Map derives the notification for f.
func Map(f failure.Failure) Spec {
	spec := failure.Fold[Spec](f, mapper{})
	spec.Kind = f.Kind()
	spec.Retryable = IsRetryable(f.Kind())
	return spec
}

// IsRetryable reports whether retrying an operation that failed with kind may
// succeed.
func IsRetryable(kind failure.Kind) bool {
	return kind.Retryable()
}

// MapAll combines several failures into one notification with the highest
// severity among them. It fails with REQUIRED_FIELD when fs is empty.
func MapAll(fs []failure.Failure) result.Result[Spec] {
	switch len(fs) {
	case 0:
		return result.Err[Spec](failure.RequiredField{Field: "failures"})
	case 1:
		return result.Ok(Map(fs[0]))
	}

	combined := Spec{Retryable: true}
	messages := make([]string, 0, len(fs))
	for _, f := range fs {
		s := Map(f)
		if s.Severity.rank() > combined.Severity.rank() {
			combined.Severity = s.Severity
		}
		if s.Duration > combined.Duration {
			combined.Duration = s.Duration
		}
		combined.Retryable = combined.Retryable && s.Retryable
		messages = append(messages, s.Message)
	}
	if combined.Severity == SeverityCritical {
		combined.Duration = AggregateCriticalDuration
	}
	combined.Title = fmt.Sprintf("%d件のエラーが発生しました", len(fs))
	combined.Message = strings.Join(messages, "\n")
	return result.Ok(combined)
}

func low(title, message string, d time.Duration) Spec {
	return Spec{Title: title, Message: message, Severity: SeverityLow, Duration: d}
}

func medium(title, message string, d time.Duration) Spec {
	return Spec{Title: title, Message: message, Severity: SeverityMedium, Duration: d}
}

func high(title, message string, d time.Duration) Spec {
	return Spec{Title: title, Message: message, Severity: SeverityHigh, Duration: d}
}

func critical(title, message string) Spec {
	return Spec{Title: title, Message: message, Severity: SeverityCritical, Duration: 12 * time.Second}
}

type mapper struct{}

const inputErrorTitle = "入力エラー"

func (mapper) InvalidEmail(failure.InvalidEmail) Spec {
	return low(inputErrorTitle, "メールアドレスの形式が正しくありません", 4*time.Second)
}

func (mapper) InvalidAmount(f failure.InvalidAmount) Spec {
	msg := "金額が正しくありません"
	if f.Max > 0 {
		msg = fmt.Sprintf("金額は%s円から%s円の範囲で入力してください", yen(f.Min), yen(f.Max))
	}
	return low(inputErrorTitle, msg, 4*time.Second)
}

func (mapper) RequiredField(f failure.RequiredField) Spec {
	return low(inputErrorTitle, fmt.Sprintf("%sは必須項目です", fieldLabel(f.Field)), 3*time.Second)
}

func (mapper) InvalidFormat(f failure.InvalidFormat) Spec {
	return low(inputErrorTitle, fmt.Sprintf("%sの形式が正しくありません", fieldLabel(f.Field)), 4*time.Second)
}

func (mapper) InvalidPassword(f failure.InvalidPassword) Spec {
	msg := "パスワードが条件を満たしていません"
	if len(f.Requirements) > 0 {
		msg += ": " + strings.Join(f.Requirements, "、")
	}
	return low(inputErrorTitle, msg, 4*time.Second)
}

func (mapper) PasswordMismatch(failure.PasswordMismatch) Spec {
	return low(inputErrorTitle, "パスワードが一致しません", 3*time.Second)
}

func (mapper) InvalidRange(f failure.InvalidRange) Spec {
	label := fieldLabel(f.Field)
	if f.Max >= math.MaxFloat64 {
		return low(inputErrorTitle, fmt.Sprintf("%sは%gより大きい値にしてください", label, f.Min), 4*time.Second)
	}
	return low(inputErrorTitle, fmt.Sprintf("%sは%gから%gの範囲で指定してください", label, f.Min, f.Max), 4*time.Second)
}

func (mapper) NetworkError(failure.NetworkError) Spec {
	return medium("通信エラー", "ネットワーク接続を確認して、もう一度お試しください", 6*time.Second)
}

func (mapper) ServerError(failure.ServerError) Spec {
	return high("サーバーエラー", "サーバーで問題が発生しました。しばらくしてからお試しください", 8*time.Second)
}

func (mapper) TimeoutError(failure.TimeoutError) Spec {
	return medium("タイムアウト", "応答に時間がかかっています。もう一度お試しください", 6*time.Second)
}

func (mapper) Unauthorized(failure.Unauthorized) Spec {
	return critical("認証エラー", "セッションの有効期限が切れました。再度ログインしてください")
}

func (mapper) Forbidden(failure.Forbidden) Spec {
	return critical("アクセス拒否", "この操作を行う権限がありません")
}

func (mapper) NotFound(f failure.NotFound) Spec {
	msg := "お探しの情報が見つかりません"
	if f.Resource != "" {
		msg = fmt.Sprintf("%sが見つかりません", fieldLabel(f.Resource))
	}
	return medium("見つかりません", msg, 6*time.Second)
}

func (mapper) Conflict(failure.Conflict) Spec {
	return medium("処理中です", "前の操作が完了するまでお待ちください", 6*time.Second)
}

func (mapper) RateLimitExceeded(f failure.RateLimitExceeded) Spec {
	msg := "リクエストが多すぎます。しばらくしてからお試しください"
	if f.RetryAfter > 0 {
		msg = fmt.Sprintf("リクエストが多すぎます。%d秒後にお試しください", f.RetryAfter)
	}
	return high("リクエスト制限", msg, 10*time.Second)
}

func (mapper) BadRequest(failure.BadRequest) Spec {
	return medium("リクエストエラー", "リクエストの内容に誤りがあります", 6*time.Second)
}

func (mapper) InsufficientBalance(f failure.InsufficientBalance) Spec {
	shortfall := f.Required - f.Available
	return medium("残高不足", fmt.Sprintf("残高が%s円不足しています。チャージしてください", yen(shortfall)), 8*time.Second)
}

func (mapper) PaymentFailed(failure.PaymentFailed) Spec {
	return high("決済エラー", "決済を完了できませんでした。もう一度お試しください", 10*time.Second)
}

func (mapper) TransactionLimitExceeded(f failure.TransactionLimitExceeded) Spec {
	return medium("上限超過", fmt.Sprintf("1回あたりの上限（%s円）を超えています", yen(f.Limit)), 8*time.Second)
}

func (mapper) CampaignNotActive(failure.CampaignNotActive) Spec {
	return medium("キャンペーン終了", "このキャンペーンは現在ご利用いただけません", 6*time.Second)
}

func (mapper) DonationLimitExceeded(f failure.DonationLimitExceeded) Spec {
	return medium("寄付上限", fmt.Sprintf("寄付は%s円までです", yen(f.Max)), 6*time.Second)
}

func (mapper) AccountSuspended(f failure.AccountSuspended) Spec {
	msg := "アカウントが一時停止されています"
	if f.Until != nil {
		msg += fmt.Sprintf("（%sまで）", f.Until.Format("2006/01/02"))
	}
	return critical("アカウント停止", msg)
}

func (mapper) KYCRequired(failure.KYCRequired) Spec {
	return critical("本人確認が必要です", "この操作には本人確認の完了が必要です")
}

func (mapper) ChargeMinimumNotMet(f failure.ChargeMinimumNotMet) Spec {
	return medium("チャージ金額不足", fmt.Sprintf("チャージは%s円以上から可能です", yen(f.Minimum)), 6*time.Second)
}

func (mapper) InvalidQRCode(failure.InvalidQRCode) Spec {
	return medium("QRコードエラー", "読み取ったQRコードは使用できません", 6*time.Second)
}

func (mapper) TransferToSelf(failure.TransferToSelf) Spec {
	return medium("送金エラー", "自分自身には送金できません", 6*time.Second)
}

var _ failure.Handler[Spec] = mapper{}

var fieldLabels = map[string]string{
	"amount":               "金額",
	"description":          "説明",
	"type":                 "取引種別",
	"category":             "カテゴリ",
	"project_name":         "プロジェクト名",
	"campaign_id":          "キャンペーン",
	"participants":         "人数",
	"shares":               "分担額",
	"email":                "メールアドレス",
	"password":             "パスワード",
	"transaction":          "取引",
	"balance":              "残高",
	"wallet":               "ウォレット",
	"target_forest_area":   "森林面積の目標",
	"target_water_saved":   "節水量の目標",
	"target_co2_reduction": "CO2削減量の目標",
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// yen formats n with Japanese digit grouping.
func yen(n int64) string {
	return message.NewPrinter(language.Japanese).Sprintf("%d", n)
}
