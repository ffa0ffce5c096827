// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, proposal, funding, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeProposalNotFound   = "PROPOSAL_NOT_FOUND"
	ErrCodeInvalidFileType    = "INVALID_FILE_TYPE"
	ErrCodeFileRequired       = "FILE_REQUIRED"
	ErrCodeFileTooLarge       = "FILE_TOO_LARGE"
	ErrCodeExtractionFailed   = "EXTRACTION_FAILED"
	ErrCodeGenerationFailed   = "GENERATION_FAILED"
	ErrCodeExportFailed       = "EXPORT_FAILED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewUnauthorizedError は認証エラーを生成する。
// 無効・期限切れ・欠落トークンはすべてこのエラーに正規化する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError(fields string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  fmt.Sprintf("必須フィールドが不足しています: %s", fields),
		Category: "validation",
		Action:   "すべての必須フィールドを入力してください。",
	}
}

// NewProposalNotFoundError は提案書未検出エラーを生成する。
// 他ユーザーの提案書への参照も存在しないものとして扱う。
func NewProposalNotFoundError(proposalID string) *APIError {
	return &APIError{
		Code:     ErrCodeProposalNotFound,
		Message:  fmt.Sprintf("指定された提案書が見つかりません: %s", proposalID),
		Category: "proposal",
		Action:   "提案書IDを確認してください。",
	}
}

// NewInvalidFileTypeError は非対応ファイル形式エラーを生成する。
func NewInvalidFileTypeError(ext string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFileType,
		Message:  fmt.Sprintf("対応していないファイル形式です: %s", ext),
		Category: "validation",
		Action:   "txt、pdf、png、jpg、jpeg、gif、doc、docx のいずれかの形式でアップロードしてください。",
	}
}

// NewFileRequiredError はファイル未添付エラーを生成する。
func NewFileRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeFileRequired,
		Message:  "ファイルがアップロードされていません。",
		Category: "validation",
		Action:   "アップロードするファイルを選択してください。",
	}
}

// NewFileTooLargeError はファイルサイズ超過エラーを生成する。
func NewFileTooLargeError(maxMB int64) *APIError {
	return &APIError{
		Code:     ErrCodeFileTooLarge,
		Message:  fmt.Sprintf("ファイルサイズが上限（%dMB）を超えています。", maxMB),
		Category: "validation",
		Action:   "ファイルサイズを小さくして再度お試しください。",
	}
}

// NewGenerationFailedError はプラン生成失敗エラーを生成する。
func NewGenerationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFailed,
		Message:  "ビジネスプランの生成に失敗しました。",
		Category: "proposal",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewExportFailedError はエクスポート失敗エラーを生成する。
func NewExportFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeExportFailed,
		Message:  "提案書のエクスポートに失敗しました。",
		Category: "proposal",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
