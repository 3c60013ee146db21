package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&SessionToken{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Wishlist{},
		&WishlistItem{},
	}
}
