package domain

import "errors"

// 引擎内所有错误都是终态：触发即整体中止当前操作，不做任何恢复/重试。
// 错误按 spec 分为五类：鉴权 / 校验 / 状态 / 重放安全 / 算术。

var (
	// 鉴权类
	ErrUnauthorizedSeller     = errors.New("only the seller can perform this action")
	ErrUnauthorizedVaultOwner = errors.New("only the vault owner can perform this action")
	ErrUnauthorizedAttestor   = errors.New("caller is not an authorized attestor")

	// 校验类
	ErrInvalidPrice       = errors.New("invalid price configuration")
	ErrInvalidDuration    = errors.New("duration must be positive for decay pricing")
	ErrInvalidTimeWindow  = errors.New("invalid time window configuration")
	ErrInvalidFee         = errors.New("fee bps exceeds maximum")
	ErrUnsupportedAsset   = errors.New("unsupported asset (must have 0 decimals and supply 1)")
	ErrInvalidTokenAmount = errors.New("account does not hold exactly 1 unit of the asset")

	// 状态类
	ErrListingNotActive   = errors.New("listing is not active")
	ErrListingNotYetValid = errors.New("listing has not started yet")
	ErrListingExpired     = errors.New("listing has expired")
	ErrVaultAlreadyExists = errors.New("user vault already exists for this asset")
	ErrVaultMismatch      = errors.New("user vault does not match listing")
	ErrVaultLocked        = errors.New("vault is locked by an active listing")
	ErrAssetNotInVault    = errors.New("asset not in user vault")
	ErrConfigExists       = errors.New("marketplace config already initialized")
	ErrAlreadyInitialized = errors.New("attestor state already initialized")

	// 重放/安全类
	ErrAttestationUsed    = errors.New("attestation already used")
	ErrAttestationExpired = errors.New("attestation expired")
	ErrFloorTooHigh       = errors.New("attested floor does not undercut listing floor")
	ErrInvalidMetadata    = errors.New("attestation collection mismatch")

	// 算术类
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// 台账余额不足（由外部环境的余额模型暴露）
	ErrInsufficientFunds = errors.New("insufficient funds")
)
