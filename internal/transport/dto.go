package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=3,max=32"`
	Email    string `json:"email"    validate:"required,email"`
	Phone    string `json:"phone"    validate:"required,len=10,numeric"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
	IsAdmin          bool   `json:"is_admin"`
}

type CreateProductRequest struct {
	Title       string          `json:"title"       validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Brand       string          `json:"brand"       validate:"required,max=100"`
	Category    string          `json:"category"    validate:"required,max=100"`
	Stock       *int            `json:"stock"       validate:"omitempty,gte=0"`
}

type PatchProductRequest struct {
	Title       *string          `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price"`
	Brand       *string          `json:"brand"       validate:"omitempty,min=1,max=100"`
	Category    *string          `json:"category"    validate:"omitempty,min=1,max=100"`
	Stock       *int             `json:"stock"       validate:"omitempty,gte=0"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity"   validate:"omitempty,gte=1"`
}

type CartLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"   validate:"gte=1"`
}

type SetCartRequest struct {
	Items []CartLine `json:"items" validate:"dive"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type Address struct {
	House   string `json:"house"   validate:"required,min=3,max=25"`
	City    string `json:"city"    validate:"required,min=5,max=20"`
	State   string `json:"state"   validate:"required,min=3,max=30"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
}

type ShippingInfo struct {
	Name    string  `json:"name"    validate:"required,min=3,max=50"`
	Phone   string  `json:"phone"   validate:"required,len=10,numeric"`
	Address Address `json:"address"`
}

type PlaceOrderRequest struct {
	Items    []CartLine   `json:"items"         validate:"dive"`
	Shipping ShippingInfo `json:"shipping_info"`
}

type GuestOrderRequest struct {
	RegisterRequest
	Items    []CartLine   `json:"items"         validate:"required,min=1,dive"`
	Shipping ShippingInfo `json:"shipping_info"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed shipped delivered canceled"`
}

type WishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type CreatePaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

type PaymentStatusRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type PaymentSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
