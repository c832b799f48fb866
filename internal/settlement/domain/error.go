package domain

import "errors"

var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrInvalidSignature     = errors.New("invalid_signature")
	ErrInvalidConfirmation  = errors.New("invalid_confirmation")
	ErrProductNotFree       = errors.New("product_not_free")
	ErrProductFree          = errors.New("product_is_free")
	ErrWebhookSecretMissing = errors.New("webhook_secret_unconfigured")
)
